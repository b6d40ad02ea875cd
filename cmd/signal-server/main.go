package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HMasataka/teamcall/internal/config"
	"github.com/HMasataka/teamcall/internal/logger"
	"github.com/HMasataka/teamcall/internal/metrics"
	"github.com/HMasataka/teamcall/internal/signalserver"
	"github.com/jessevdk/go-flags"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Options struct {
	Config string `long:"config" short:"c" description:"TOML config file"`
	Addr   string `long:"addr" description:"Listen address, overrides the config file"`
}

type TokenCommand struct {
	Config   string        `long:"config" short:"c" description:"TOML config file"`
	UserID   string        `long:"user-id" description:"User ID" required:"true"`
	Username string        `long:"username" description:"Display name" required:"true"`
	TTL      time.Duration `long:"ttl" description:"Token lifetime" default:"24h"`
}

func (cmd *TokenCommand) Execute(args []string) error {
	cfg, err := config.LoadServer(cmd.Config)
	if err != nil {
		return err
	}
	if cfg.Auth.Secret == "" {
		return errors.New("auth.secret is not configured")
	}

	token, err := signalserver.IssueToken(cfg.Auth.Secret, cmd.UserID, cmd.Username, cmd.TTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.SubcommandsOptional = true
	parser.AddCommand("token", "Issue a signed identity", "", &TokenCommand{})

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
	if parser.Active != nil {
		return
	}

	if err := run(); err != nil {
		slog.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServer(opts.Config)
	if err != nil {
		return err
	}
	if opts.Addr != "" {
		cfg.Server.Addr = opts.Addr
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var presence signalserver.Presence
	if cfg.Redis.Addr != "" {
		rp, err := signalserver.NewRedisPresence(ctx, cfg.RedisConfig())
		if err != nil {
			return err
		}
		defer rp.Close()
		presence = rp
	}

	var verifier signalserver.Verifier
	if cfg.Auth.Secret != "" {
		verifier = signalserver.NewJWTVerifier(cfg.Auth.Secret)
	}

	var options []signalserver.Option
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		options = append(options, signalserver.WithMetrics(metrics.NewServer(reg), metrics.Handler(reg)))
	}

	server := signalserver.New(cfg.SignalServerConfig(), presence, verifier, options...)
	return server.Run(ctx)
}
