package call

import (
	"context"
	"sync"
	"time"

	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/bep/debounce"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

type Direction int

const (
	DirectionOutgoing Direction = iota
	DirectionIncoming
)

func (d Direction) String() string {
	if d == DirectionIncoming {
		return "incoming"
	}
	return "outgoing"
}

// Status は通話の進行状態
type Status int

const (
	StatusIdle Status = iota
	StatusAcquiringMedia
	StatusNegotiating
	StatusConnecting
	StatusConnected
	StatusFailed
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusAcquiringMedia:
		return "AcquiringMedia"
	case StatusNegotiating:
		return "Negotiating"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusFailed:
		return "Failed"
	case StatusEnded:
		return "Ended"
	}
	return "Unknown"
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusEnded
}

type TrackState struct {
	MicrophoneEnabled bool
	CameraEnabled     bool
	UsingFrontCamera  bool
}

func DefaultTrackState() TrackState {
	return TrackState{
		MicrophoneEnabled: true,
		CameraEnabled:     true,
		UsingFrontCamera:  true,
	}
}

// IncomingCall is an offer that has not been accepted or rejected yet.
type IncomingCall struct {
	PeerID      string
	DisplayName string
	ReceivedAt  time.Time
}

// Snapshot is a read-only copy of a session.
type Snapshot struct {
	ID              string
	Direction       Direction
	PeerID          string
	PeerDisplayName string
	Status          Status
	Tracks          TrackState
	SpeakerOn       bool
	Interrupted     bool
	Reason          Reason
	Err             *CallError
	StartedAt       time.Time
	ConnectedAt     time.Time
	EndedAt         time.Time
}

// Duration is the connected time of the call, zero if it never connected.
func (s Snapshot) Duration() time.Duration {
	if s.ConnectedAt.IsZero() {
		return 0
	}
	end := s.EndedAt
	if end.IsZero() {
		end = time.Now()
	}
	return end.Sub(s.ConnectedAt)
}

// CallSession holds one call. Fields without a lock are owned by the engine
// loop; the peer connection and local stream are shared with workers under mu.
type CallSession struct {
	ID              string
	Direction       Direction
	PeerID          string
	PeerDisplayName string

	status      Status
	tracks      TrackState
	facing      media.Facing
	speakerOn   bool
	interrupted bool
	restarting  bool
	switching   bool
	reason      Reason
	failure     *CallError

	remoteOffer    *webrtc.SessionDescription
	remoteAnswer   *webrtc.SessionDescription
	renegotiation  *webrtc.SessionDescription
	awaitingAnswer bool

	// candidates received before the peer connection exists
	pendingCandidates []webrtc.ICECandidateInit
	peerReady         bool
	outbound          candidateGate

	grace    func(f func())
	graceGen int

	startedAt   time.Time
	connectedAt time.Time
	endedAt     time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	pc    PeerConnection
	local *media.Stream
	torn  bool
}

func newSession(parent context.Context, direction Direction, peerID, displayName string, grace time.Duration) *CallSession {
	ctx, cancel := context.WithCancel(parent)
	return &CallSession{
		ID:              uuid.NewString(),
		Direction:       direction,
		PeerID:          peerID,
		PeerDisplayName: displayName,
		status:          StatusIdle,
		tracks:          DefaultTrackState(),
		facing:          media.FacingFront,
		grace:           debounce.New(grace),
		startedAt:       time.Now(),
		ctx:             ctx,
		cancel:          cancel,
	}
}

func (s *CallSession) Cancelled() bool {
	return s.ctx.Err() != nil
}

func (s *CallSession) snapshot() Snapshot {
	return Snapshot{
		ID:              s.ID,
		Direction:       s.Direction,
		PeerID:          s.PeerID,
		PeerDisplayName: s.PeerDisplayName,
		Status:          s.status,
		Tracks:          s.tracks,
		SpeakerOn:       s.speakerOn,
		Interrupted:     s.interrupted,
		Reason:          s.reason,
		Err:             s.failure,
		StartedAt:       s.startedAt,
		ConnectedAt:     s.connectedAt,
		EndedAt:         s.endedAt,
	}
}

func (s *CallSession) peer() PeerConnection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pc
}

func (s *CallSession) localStream() *media.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local
}

// adoptPeer stores pc unless the session was already torn down.
func (s *CallSession) adoptPeer(pc PeerConnection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return false
	}
	s.pc = pc
	return true
}

func (s *CallSession) adoptStream(stream *media.Stream) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return false
	}
	s.local = stream
	return true
}

// swapStream installs stream as the local stream, replacing the tracks on the
// peer connection first. The previous stream is returned and left running.
func (s *CallSession) swapStream(stream *media.Stream) (*media.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return nil, ErrNoActiveCall
	}
	if s.pc != nil {
		if err := s.pc.ReplaceLocalStream(stream); err != nil {
			return nil, err
		}
	}
	previous := s.local
	s.local = stream
	return previous, nil
}

// release marks the session torn down and hands back its resources once.
func (s *CallSession) release() (PeerConnection, *media.Stream, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.torn {
		return nil, nil, false
	}
	s.torn = true
	pc, local := s.pc, s.local
	s.pc, s.local = nil, nil
	return pc, local, true
}

// candidateGate holds local candidates until the description they belong to
// has been sent, so the peer never sees a candidate before the offer.
type candidateGate struct {
	mu     sync.Mutex
	open   bool
	queued []webrtc.ICECandidateInit
}

// hold queues c and reports true while the gate is closed.
func (g *candidateGate) hold(c webrtc.ICECandidateInit) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.open {
		return false
	}
	g.queued = append(g.queued, c)
	return true
}

// release opens the gate and returns the queued candidates.
func (g *candidateGate) release() []webrtc.ICECandidateInit {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.open = true
	queued := g.queued
	g.queued = nil
	return queued
}

// ring is an offer waiting for the user.
type ring struct {
	call       IncomingCall
	offer      webrtc.SessionDescription
	candidates []webrtc.ICECandidateInit
}
