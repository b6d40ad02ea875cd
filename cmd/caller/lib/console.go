package lib

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HMasataka/teamcall/internal/call"
	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/pion/webrtc/v4"
)

// Console prints what the user of a call UI would see.
type Console struct {
	call.NopObserver

	mu  sync.Mutex
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) OnConnected(selfID string) {
	c.printf("connected as %s", selfID)
}

func (c *Console) OnSignalingError(err error) {
	c.printf("signaling error: %v", err)
}

func (c *Console) OnUserList(users []payload.User) {
	c.printf("%d user(s) online", len(users))
}

func (c *Console) OnIncomingCall(in call.IncomingCall) {
	c.printf("incoming call from %s (%s)", in.DisplayName, in.PeerID)
}

func (c *Console) OnIncomingCallCancelled(peerID string) {
	c.printf("missed call from %s", peerID)
}

func (c *Console) OnStatusChange(s call.Snapshot) {
	switch {
	case s.Interrupted:
		c.printf("[%s] %s: connection lost, reconnecting", s.PeerDisplayName, s.Status)
	default:
		c.printf("[%s] %s mic=%t camera=%t speaker=%t", s.PeerDisplayName, s.Status,
			s.Tracks.MicrophoneEnabled, s.Tracks.CameraEnabled, s.SpeakerOn)
	}
}

func (c *Console) OnRemoteTrack(s call.Snapshot, track *webrtc.TrackRemote) {
	c.printf("[%s] receiving %s (%s)", s.PeerDisplayName, track.Kind(), track.Codec().MimeType)
}

func (c *Console) OnCallFailed(s call.Snapshot, err *call.CallError) {
	c.printf("[%s] call failed: %s", s.PeerDisplayName, err.Reason.Message())
}

func (c *Console) OnCallEnded(s call.Snapshot) {
	c.printf("[%s] call ended (%s) after %s", s.PeerDisplayName, s.Reason, s.Duration().Round(time.Second))
}

// PrintUsers lists users one per line.
func PrintUsers(out io.Writer, users []payload.User) {
	if len(users) == 0 {
		fmt.Fprintln(out, "nobody else is online")
		return
	}
	for _, u := range users {
		fmt.Fprintf(out, "%s\t%s\n", u.ID, u.Username)
	}
}
