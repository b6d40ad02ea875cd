package main

import (
	"errors"
	"os"

	"github.com/HMasataka/teamcall/cmd/caller/handler"
	"github.com/jessevdk/go-flags"
)

type Options struct{}

var opts Options

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.AddCommand("users", "List online users", "", handler.NewUsersCommand())
	parser.AddCommand("call", "Call a user", "", handler.NewCallCommand())
	parser.AddCommand("listen", "Wait for incoming calls", "", handler.NewListenCommand())

	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}
