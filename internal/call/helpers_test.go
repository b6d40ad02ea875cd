package call_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/HMasataka/teamcall/internal/call"
	mock_call "github.com/HMasataka/teamcall/internal/call/mock"
	"github.com/HMasataka/teamcall/internal/signaling"
	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

func sdpBody(ufrag string) string {
	lines := []string{
		"v=0",
		"o=- 4215775240449105457 2 IN IP4 127.0.0.1",
		"s=-",
		"t=0 0",
		"a=group:BUNDLE 0 1",
		"m=audio 9 UDP/TLS/RTP/SAVPF 111",
		"c=IN IP4 0.0.0.0",
		"a=ice-ufrag:" + ufrag,
		"a=ice-pwd:0123456789abcdef0123456789",
		"a=mid:0",
		"a=sendrecv",
		"a=rtpmap:111 opus/48000/2",
		"m=video 9 UDP/TLS/RTP/SAVPF 96",
		"c=IN IP4 0.0.0.0",
		"a=mid:1",
		"a=sendrecv",
		"a=rtpmap:96 VP8/90000",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

func offerDesc(ufrag string) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeOffer, SDP: sdpBody(ufrag)}
}

func answerDesc(ufrag string) webrtc.SessionDescription {
	return webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: sdpBody(ufrag)}
}

func candidate(addr string) webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{Candidate: "candidate:1 1 udp 2122260223 " + addr + " 50000 typ host"}
}

// recorder captures observer notifications.
type recorder struct {
	call.NopObserver

	mu        sync.Mutex
	statuses  []call.Status
	snapshots []call.Snapshot
	failures  []*call.CallError
	ended     []call.Snapshot
	incoming  []call.IncomingCall
	cancelled []string
	users     [][]payload.User
	sigErrors []error
}

func (r *recorder) OnStatusChange(s call.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.statuses); n == 0 || r.statuses[n-1] != s.Status {
		r.statuses = append(r.statuses, s.Status)
	}
	r.snapshots = append(r.snapshots, s)
}

func (r *recorder) OnCallFailed(_ call.Snapshot, err *call.CallError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, err)
}

func (r *recorder) OnCallEnded(s call.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ended = append(r.ended, s)
}

func (r *recorder) OnIncomingCall(c call.IncomingCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.incoming = append(r.incoming, c)
}

func (r *recorder) OnIncomingCallCancelled(peerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled = append(r.cancelled, peerID)
}

func (r *recorder) OnUserList(users []payload.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append(r.users, users)
}

func (r *recorder) OnSignalingError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sigErrors = append(r.sigErrors, err)
}

func (r *recorder) Statuses() []call.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call.Status(nil), r.statuses...)
}

func (r *recorder) Last() call.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return call.Snapshot{}
	}
	return r.snapshots[len(r.snapshots)-1]
}

func (r *recorder) Failures() []*call.CallError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*call.CallError(nil), r.failures...)
}

func (r *recorder) Ended() []call.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call.Snapshot(nil), r.ended...)
}

func (r *recorder) Incoming() []call.IncomingCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call.IncomingCall(nil), r.incoming...)
}

func (r *recorder) Cancelled() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.cancelled...)
}

type emitted struct {
	event payload.Event
	v     any
}

// signalingStub wires a MockSignaling so tests can inject server messages
// and inspect what the engine sends.
type signalingStub struct {
	*mock_call.MockSignaling

	mu       sync.Mutex
	handlers map[payload.Event]signaling.HandlerFunc
	sent     []emitted
}

func newSignalingStub(ctrl *gomock.Controller, selfID string) *signalingStub {
	stub := &signalingStub{
		MockSignaling: mock_call.NewMockSignaling(ctrl),
		handlers:      make(map[payload.Event]signaling.HandlerFunc),
	}

	stub.EXPECT().On(gomock.Any(), gomock.Any()).Do(func(event payload.Event, handler signaling.HandlerFunc) {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		stub.handlers[event] = handler
	}).AnyTimes()
	stub.EXPECT().Off(gomock.Any()).Do(func(event payload.Event) {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		delete(stub.handlers, event)
	}).AnyTimes()
	stub.EXPECT().Emit(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, event payload.Event, v any) error {
		stub.mu.Lock()
		defer stub.mu.Unlock()
		stub.sent = append(stub.sent, emitted{event: event, v: v})
		return nil
	}).AnyTimes()
	stub.EXPECT().Connected().Return(true).AnyTimes()
	stub.EXPECT().ID().Return(selfID).AnyTimes()
	stub.EXPECT().ICEServers().Return(nil).AnyTimes()

	return stub
}

// deliver sends a server message to the engine. It fails the test when no
// handler is registered for event.
func (s *signalingStub) deliver(t *testing.T, event payload.Event, v any) {
	t.Helper()

	raw, err := json.Marshal(v)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		_, ok := s.handlers[event]
		return ok
	}, waitFor, tick, "no handler for %s", event)

	s.mu.Lock()
	handler := s.handlers[event]
	s.mu.Unlock()
	handler(context.Background(), raw)
}

func (s *signalingStub) registered(event payload.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.handlers[event]
	return ok
}

func (s *signalingStub) sentOf(event payload.Event) []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []any
	for _, m := range s.sent {
		if m.event == event {
			out = append(out, m.v)
		}
	}
	return out
}

// startEngine runs engine until the test ends.
func startEngine(t *testing.T, engine *call.Engine) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = engine.Run(ctx)
	}()

	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func waitStatus(t *testing.T, rec *recorder, status call.Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range rec.Statuses() {
			if s == status {
				return true
			}
		}
		return false
	}, waitFor, tick, "status %s not reached: %v", status, rec.Statuses())
}

// waitEnded waits until the call has been torn down.
func waitEnded(t *testing.T, rec *recorder) {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(rec.Ended()) > 0
	}, waitFor, tick, "call not ended: %v", rec.Statuses())
}

// failingSource fails every capture after the first ok ones.
type failingSource struct {
	inner media.Source
	ok    int

	mu    sync.Mutex
	calls int
}

func (f *failingSource) GetUserMedia(ctx context.Context, constraints media.Constraints) (*media.Stream, error) {
	f.mu.Lock()
	f.calls++
	calls := f.calls
	f.mu.Unlock()

	if calls > f.ok {
		return nil, media.ErrDeviceUnavailable
	}
	return f.inner.GetUserMedia(ctx, constraints)
}

// panickingSource panics on the first capture and delegates afterwards.
type panickingSource struct {
	inner media.Source

	mu       sync.Mutex
	panicked bool
}

func (p *panickingSource) GetUserMedia(ctx context.Context, constraints media.Constraints) (*media.Stream, error) {
	p.mu.Lock()
	first := !p.panicked
	p.panicked = true
	p.mu.Unlock()

	if first {
		panic("capture driver crashed")
	}
	return p.inner.GetUserMedia(ctx, constraints)
}
