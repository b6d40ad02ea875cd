package handler

import (
	"context"
	"fmt"
	"time"

	"github.com/HMasataka/teamcall/cmd/caller/lib"
	"github.com/HMasataka/teamcall/internal/call"
)

type CallCommand struct {
	BaseCommand
	Peer     string        `long:"peer" description:"ID of the user to call" required:"true"`
	Name     string        `long:"name" description:"Display name of the user to call"`
	Duration time.Duration `long:"duration" description:"Hang up after this long (0 waits for Ctrl-C)"`
}

func NewCallCommand() *CallCommand {
	return &CallCommand{}
}

func (cmd *CallCommand) Execute(args []string) error {
	ctx, rt, stop, err := cmd.connect()
	if err != nil {
		return err
	}
	defer stop()

	if err := rt.Engine.StartOutgoingCall(ctx, cmd.Peer, cmd.Name); err != nil {
		return fmt.Errorf("call failed: %w", err)
	}

	return waitCall(ctx, rt, cmd.Duration)
}

// waitCall blocks until the active call ends, hanging up on timeout or
// interrupt.
func waitCall(ctx context.Context, rt *lib.Runtime, limit time.Duration) error {
	var timeout <-chan time.Time
	if limit > 0 {
		timer := time.NewTimer(limit)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case s := <-rt.Events.Ended:
		return endResult(s)
	case <-timeout:
	case <-ctx.Done():
	}

	hangupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Engine.EndCall(hangupCtx); err != nil {
		return err
	}

	select {
	case s := <-rt.Events.Ended:
		return endResult(s)
	case <-hangupCtx.Done():
		return hangupCtx.Err()
	}
}

func endResult(s call.Snapshot) error {
	if s.Err != nil {
		return s.Err
	}
	return nil
}
