package handler

import (
	"os"

	"github.com/HMasataka/teamcall/cmd/caller/lib"
)

type UsersCommand struct {
	BaseCommand
}

func NewUsersCommand() *UsersCommand {
	return &UsersCommand{}
}

func (cmd *UsersCommand) Execute(args []string) error {
	ctx, rt, stop, err := cmd.connect()
	if err != nil {
		return err
	}
	defer stop()

	select {
	case <-rt.Events.UserList:
	case <-ctx.Done():
		return ctx.Err()
	}

	users, err := rt.Engine.Users(ctx)
	if err != nil {
		return err
	}
	lib.PrintUsers(os.Stdout, users)

	return nil
}
