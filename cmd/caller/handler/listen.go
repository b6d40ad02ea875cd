package handler

import (
	"fmt"
	"time"

	"github.com/HMasataka/teamcall/internal/call"
)

type ListenCommand struct {
	BaseCommand
	Accept   bool          `long:"accept" description:"Answer incoming calls instead of rejecting them"`
	Once     bool          `long:"once" description:"Exit after the first call"`
	Duration time.Duration `long:"duration" description:"Hang up answered calls after this long"`
}

func NewListenCommand() *ListenCommand {
	return &ListenCommand{}
}

func (cmd *ListenCommand) Execute(args []string) error {
	ctx, rt, stop, err := cmd.connect()
	if err != nil {
		return err
	}
	defer stop()

	for {
		var in call.IncomingCall
		select {
		case in = <-rt.Events.Incoming:
		case <-ctx.Done():
			return nil
		}

		if !cmd.Accept {
			if err := rt.Engine.RejectIncomingCall(ctx, in.PeerID); err != nil {
				fmt.Printf("reject failed: %v\n", err)
			}
			continue
		}

		if err := rt.Engine.AcceptIncomingCall(ctx, in.PeerID); err != nil {
			fmt.Printf("accept failed: %v\n", err)
			continue
		}

		if err := waitCall(ctx, rt, cmd.Duration); err != nil {
			fmt.Printf("call ended with error: %v\n", err)
		}

		if cmd.Once || ctx.Err() != nil {
			return nil
		}
	}
}
