package lib

import (
	"github.com/HMasataka/teamcall/internal/call"
	payload "github.com/HMasataka/teamcall/payload/signaling"
)

// Events turns engine notifications into channels the commands wait on.
// Sends never block the engine; a slow reader misses intermediate values.
type Events struct {
	call.NopObserver

	Connected chan string
	UserList  chan []payload.User
	Incoming  chan call.IncomingCall
	Cancelled chan string
	Ended     chan call.Snapshot
	Errors    chan error
}

func NewEvents() *Events {
	return &Events{
		Connected: make(chan string, 1),
		UserList:  make(chan []payload.User, 1),
		Incoming:  make(chan call.IncomingCall, 4),
		Cancelled: make(chan string, 4),
		Ended:     make(chan call.Snapshot, 4),
		Errors:    make(chan error, 4),
	}
}

func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}

// latest replaces a stale buffered value so readers see the newest one.
func latest[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	offer(ch, v)
}

func (e *Events) OnConnected(selfID string) {
	latest(e.Connected, selfID)
}

func (e *Events) OnSignalingError(err error) {
	offer(e.Errors, err)
}

func (e *Events) OnUserList(users []payload.User) {
	latest(e.UserList, users)
}

func (e *Events) OnIncomingCall(c call.IncomingCall) {
	offer(e.Incoming, c)
}

func (e *Events) OnIncomingCallCancelled(peerID string) {
	offer(e.Cancelled, peerID)
}

func (e *Events) OnCallEnded(s call.Snapshot) {
	offer(e.Ended, s)
}
