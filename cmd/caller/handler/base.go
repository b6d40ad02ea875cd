package handler

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/HMasataka/teamcall/cmd/caller/lib"
	"github.com/HMasataka/teamcall/internal/config"
)

// BaseCommand holds the flags every subcommand shares. Flags override the
// config file.
type BaseCommand struct {
	Config   string `long:"config" short:"c" description:"TOML config file"`
	Server   string `long:"server" description:"Signaling server websocket URL"`
	Username string `long:"username" short:"u" description:"Display name"`
	Token    string `long:"token" description:"JWT issued by the signaling server"`
	Static   bool   `long:"static" description:"Use synthetic media instead of the camera and microphone"`
}

func (cmd *BaseCommand) load() (config.Client, error) {
	cfg, err := config.LoadClient(cmd.Config)
	if err != nil {
		return config.Client{}, err
	}
	if cmd.Server != "" {
		cfg.Signaling.URL = cmd.Server
	}
	if cmd.Username != "" {
		cfg.Signaling.Username = cmd.Username
	}
	if cmd.Token != "" {
		cfg.Signaling.Token = cmd.Token
	}
	if cmd.Static {
		cfg.Media.Source = "static"
	}
	return cfg, nil
}

// connect returns a started runtime and a context cancelled on SIGINT or
// SIGTERM. The caller must call the returned stop function.
func (cmd *BaseCommand) connect() (context.Context, *lib.Runtime, func(), error) {
	cfg, err := cmd.load()
	if err != nil {
		return nil, nil, nil, err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rt, err := lib.New(ctx, cfg, os.Stdout)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	stop := func() {
		rt.Close()
		cancel()
	}

	if _, err := rt.Start(ctx); err != nil {
		stop()
		return nil, nil, nil, err
	}

	return ctx, rt, stop, nil
}
