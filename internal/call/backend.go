package call

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HMasataka/teamcall/internal/signaling"
	payload "github.com/HMasataka/teamcall/payload/signaling"
)

// Backend is the API exposed to the user interface.
type Backend interface {
	StartOutgoingCall(ctx context.Context, peerID, displayName string) error
	AcceptIncomingCall(ctx context.Context, peerID string) error
	RejectIncomingCall(ctx context.Context, peerID string) error
	EndCall(ctx context.Context) error
	ToggleMicrophone(ctx context.Context) (TrackState, error)
	ToggleCamera(ctx context.Context) (TrackState, error)
	ToggleSpeaker(ctx context.Context) (bool, error)
	SwitchCamera(ctx context.Context) error
	Snapshot(ctx context.Context) (Snapshot, error)
	Incoming(ctx context.Context) (*IncomingCall, error)
	Users(ctx context.Context) ([]payload.User, error)
}

var _ Backend = (*Engine)(nil)

func (e *Engine) StartOutgoingCall(ctx context.Context, peerID, displayName string) error {
	return e.call(ctx, func() error {
		if e.session != nil || e.ring != nil {
			return ErrBusy
		}
		if peerID == "" || peerID == e.deps.Signaling.ID() {
			return fmt.Errorf("%w: %q", ErrInvalidPeer, peerID)
		}

		s := newSession(e.ctx, DirectionOutgoing, peerID, e.displayName(peerID, displayName), e.config.GraceWindow)
		slog.Info("starting outgoing call", slog.String("call_id", s.ID), slog.String("peer_id", peerID))
		e.begin(s)
		return nil
	})
}

func (e *Engine) AcceptIncomingCall(ctx context.Context, peerID string) error {
	return e.call(ctx, func() error {
		r := e.ring
		if r == nil || r.call.PeerID != peerID {
			return ErrNoIncomingCall
		}
		if e.session != nil {
			return ErrBusy
		}

		e.ring = nil
		s := newSession(e.ctx, DirectionIncoming, peerID, r.call.DisplayName, e.config.GraceWindow)
		offer := r.offer
		s.remoteOffer = &offer
		s.pendingCandidates = r.candidates

		slog.Info("accepting incoming call", slog.String("call_id", s.ID), slog.String("peer_id", peerID))
		e.begin(s)
		return nil
	})
}

func (e *Engine) RejectIncomingCall(ctx context.Context, peerID string) error {
	return e.call(ctx, func() error {
		r := e.ring
		if r == nil || r.call.PeerID != peerID {
			return ErrNoIncomingCall
		}

		e.ring = nil
		e.sendEndCall(peerID)
		e.unsubscribe()
		slog.Info("rejected incoming call", slog.String("peer_id", peerID))
		return nil
	})
}

// EndCall hangs up the active call, or rejects a pending incoming one.
// Hanging up is idempotent from the caller's point of view.
func (e *Engine) EndCall(ctx context.Context) error {
	return e.call(ctx, func() error {
		if s := e.session; s != nil {
			e.fire(s, EventLocalHangup, nil)
			return nil
		}
		if r := e.ring; r != nil {
			e.ring = nil
			e.sendEndCall(r.call.PeerID)
			e.unsubscribe()
			return nil
		}
		return ErrNoActiveCall
	})
}

// Snapshot returns the active call, or an Idle snapshot without one.
func (e *Engine) Snapshot(ctx context.Context) (Snapshot, error) {
	snapshot := Snapshot{Status: StatusIdle, Tracks: DefaultTrackState()}
	err := e.call(ctx, func() error {
		if s := e.session; s != nil {
			snapshot = s.snapshot()
		}
		return nil
	})
	return snapshot, err
}

func (e *Engine) Incoming(ctx context.Context) (*IncomingCall, error) {
	var incoming *IncomingCall
	err := e.call(ctx, func() error {
		if r := e.ring; r != nil {
			c := r.call
			incoming = &c
		}
		return nil
	})
	return incoming, err
}

// Users returns the last announced user list without this client.
func (e *Engine) Users(ctx context.Context) ([]payload.User, error) {
	var users []payload.User
	err := e.call(ctx, func() error {
		users = e.visibleUsers()
		return nil
	})
	return users, err
}

// begin makes s the active call and starts it.
func (e *Engine) begin(s *CallSession) {
	e.session = s
	e.subscribe()
	e.observer.OnStatusChange(s.snapshot())

	if !e.deps.Signaling.Connected() {
		e.fire(s, EventSignalingLost, signaling.ErrNotConnected)
		return
	}
	e.fire(s, EventStart, nil)
}
