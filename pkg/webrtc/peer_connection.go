package webrtc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/gammazero/deque"
	"github.com/pion/rtcp"
	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

var ErrClosed = errors.New("peer connection closed")

type boundSender struct {
	track  *media.Track
	sender rtpSender
}

// PeerConnection wraps a WebRTC peer connection
type PeerConnection struct {
	conn nativeConn

	mu       sync.Mutex
	closed   bool
	local    *media.Stream
	senders  []*boundSender
	recvOnly map[webrtc.RTPCodecType]bool

	pendingCandidates deque.Deque[webrtc.ICECandidateInit]

	handlersMu       sync.RWMutex
	onICECandidate   func(webrtc.ICECandidateInit)
	onTrack          func(*webrtc.TrackRemote)
	onICEStateChange func(webrtc.ICEConnectionState)

	closeOnce sync.Once
}

func newPeerConnection(conn nativeConn) *PeerConnection {
	p := &PeerConnection{
		conn:     conn,
		recvOnly: make(map[webrtc.RTPCodecType]bool),
	}

	conn.OnICECandidate(func(c *webrtc.ICECandidate) {
		// nil marks the end of gathering
		if c == nil {
			return
		}
		p.handlersMu.RLock()
		handler := p.onICECandidate
		p.handlersMu.RUnlock()
		if handler != nil {
			handler(c.ToJSON())
		}
	})

	conn.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() == webrtc.RTPCodecTypeVideo {
			if err := p.RequestKeyframe(uint32(track.SSRC())); err != nil {
				slog.Warn("failed to request keyframe", slog.String("error", err.Error()))
			}
		}
		p.handlersMu.RLock()
		handler := p.onTrack
		p.handlersMu.RUnlock()
		if handler != nil {
			handler(track)
		}
	})

	conn.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		p.handlersMu.RLock()
		handler := p.onICEStateChange
		p.handlersMu.RUnlock()
		if handler != nil {
			handler(state)
		}
	})

	return p
}

// OnICECandidate sets the handler for locally gathered candidates.
func (p *PeerConnection) OnICECandidate(f func(webrtc.ICECandidateInit)) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.onICECandidate = f
}

// OnTrack sets the handler for remote media.
func (p *PeerConnection) OnTrack(f func(*webrtc.TrackRemote)) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.onTrack = f
}

func (p *PeerConnection) OnICEConnectionStateChange(f func(webrtc.ICEConnectionState)) {
	p.handlersMu.Lock()
	defer p.handlersMu.Unlock()
	p.onICEStateChange = f
}

// AttachLocalStream adds every track of stream. Attaching the same stream
// twice is a no-op; attaching another stream removes the old senders first.
func (p *PeerConnection) AttachLocalStream(stream *media.Stream) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.local == stream {
		return nil
	}

	for _, bs := range p.senders {
		if err := p.conn.RemoveTrack(bs.sender); err != nil {
			return fmt.Errorf("failed to remove track %s: %w", bs.track.ID(), err)
		}
	}
	p.senders = nil
	p.local = nil

	for _, track := range stream.Tracks() {
		sender, err := p.conn.AddTrack(track.Local())
		if err != nil {
			return fmt.Errorf("failed to add track %s: %w", track.ID(), err)
		}
		p.senders = append(p.senders, &boundSender{track: track, sender: sender})
	}
	p.local = stream

	return nil
}

// ReplaceLocalStream swaps the tracks of the current senders for the tracks
// of stream without renegotiation. On failure every sender is rolled back to
// its previous track. The previous stream is left running.
func (p *PeerConnection) ReplaceLocalStream(stream *media.Stream) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}
	if p.local == stream {
		return nil
	}

	type swap struct {
		bs   *boundSender
		prev *media.Track
		next *media.Track
	}

	var swaps []swap
	rollback := func() {
		for _, s := range swaps {
			if err := s.bs.sender.ReplaceTrack(s.prev.Local()); err != nil {
				slog.Error("failed to roll back track", slog.String("track_id", s.prev.ID()), slog.String("error", err.Error()))
			}
		}
	}

	used := make(map[*media.Track]bool)
	for _, bs := range p.senders {
		next, ok := lo.Find(stream.Tracks(), func(t *media.Track) bool {
			return t.Kind() == bs.track.Kind() && !used[t]
		})
		if !ok {
			continue
		}
		if err := bs.sender.ReplaceTrack(next.Local()); err != nil {
			rollback()
			return fmt.Errorf("failed to replace %s track: %w", next.Kind(), err)
		}
		used[next] = true
		swaps = append(swaps, swap{bs: bs, prev: bs.track, next: next})
	}

	var added []*boundSender
	for _, track := range stream.Tracks() {
		if used[track] {
			continue
		}
		sender, err := p.conn.AddTrack(track.Local())
		if err != nil {
			rollback()
			for _, bs := range added {
				_ = p.conn.RemoveTrack(bs.sender)
			}
			return fmt.Errorf("failed to add track %s: %w", track.ID(), err)
		}
		added = append(added, &boundSender{track: track, sender: sender})
	}

	for _, s := range swaps {
		s.bs.track = s.next
	}
	p.senders = append(p.senders, added...)
	p.local = stream

	return nil
}

// LocalTracks returns the tracks currently bound to senders.
func (p *PeerConnection) LocalTracks() []webrtc.TrackLocal {
	p.mu.Lock()
	defer p.mu.Unlock()

	return lo.Map(p.senders, func(bs *boundSender, _ int) webrtc.TrackLocal {
		return bs.sender.Track()
	})
}

// CreateOffer creates an SDP offer asking for audio and video and applies it
// as local description. Candidates trickle through OnICECandidate.
func (p *PeerConnection) CreateOffer(ctx context.Context) (webrtc.SessionDescription, error) {
	return p.createOffer(ctx, nil)
}

// RestartICE creates and applies an offer with fresh ICE credentials.
func (p *PeerConnection) RestartICE(ctx context.Context) (webrtc.SessionDescription, error) {
	return p.createOffer(ctx, &webrtc.OfferOptions{ICERestart: true})
}

func (p *PeerConnection) createOffer(ctx context.Context, options *webrtc.OfferOptions) (webrtc.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return webrtc.SessionDescription{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return webrtc.SessionDescription{}, ErrClosed
	}

	if err := p.ensureReceivers(); err != nil {
		return webrtc.SessionDescription{}, err
	}

	offer, err := p.conn.CreateOffer(options)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("failed to create offer: %w", err)
	}

	if err := p.conn.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("failed to set local description: %w", err)
	}

	return offer, nil
}

// ensureReceivers adds a recvonly transceiver for every kind without a local sender.
func (p *PeerConnection) ensureReceivers() error {
	for _, kind := range []webrtc.RTPCodecType{webrtc.RTPCodecTypeAudio, webrtc.RTPCodecTypeVideo} {
		if p.recvOnly[kind] {
			continue
		}
		if lo.ContainsBy(p.senders, func(bs *boundSender) bool { return bs.track.Kind() == kind }) {
			continue
		}
		if err := p.conn.AddRecvOnlyTransceiver(kind); err != nil {
			return fmt.Errorf("failed to add %s receiver: %w", kind, err)
		}
		p.recvOnly[kind] = true
	}
	return nil
}

// CreateAnswer applies offer as remote description, then creates and applies
// the answer as local description.
func (p *PeerConnection) CreateAnswer(ctx context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return webrtc.SessionDescription{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return webrtc.SessionDescription{}, ErrClosed
	}

	if err := p.setRemoteDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}

	answer, err := p.conn.CreateAnswer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("failed to create answer: %w", err)
	}

	if err := p.conn.SetLocalDescription(answer); err != nil {
		return webrtc.SessionDescription{}, fmt.Errorf("failed to set local description: %w", err)
	}

	return answer, nil
}

// ApplyRemoteAnswer applies answer as remote description.
func (p *PeerConnection) ApplyRemoteAnswer(answer webrtc.SessionDescription) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	return p.setRemoteDescription(answer)
}

func (p *PeerConnection) setRemoteDescription(desc webrtc.SessionDescription) error {
	if err := p.conn.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("failed to set remote description: %w", err)
	}

	p.processPendingCandidates()

	return nil
}

// AddRemoteICECandidate applies candidate, or queues it until a remote
// description is set. Candidates for a closed connection are dropped.
func (p *PeerConnection) AddRemoteICECandidate(candidate webrtc.ICECandidateInit) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	if p.conn.RemoteDescription() == nil {
		p.pendingCandidates.PushBack(candidate)
		return nil
	}

	if err := p.conn.AddICECandidate(candidate); err != nil {
		return fmt.Errorf("failed to add ICE candidate: %w", err)
	}

	return nil
}

// processPendingCandidates replays queued candidates in arrival order
func (p *PeerConnection) processPendingCandidates() {
	for p.pendingCandidates.Len() > 0 {
		candidate := p.pendingCandidates.PopFront()
		if err := p.conn.AddICECandidate(candidate); err != nil {
			slog.Warn("failed to apply buffered ICE candidate", slog.String("candidate", candidate.Candidate), slog.String("error", err.Error()))
		}
	}
}

// PendingCandidates returns the number of candidates waiting for a remote description.
func (p *PeerConnection) PendingCandidates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pendingCandidates.Len()
}

func (p *PeerConnection) HasRemoteDescription() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.RemoteDescription() != nil
}

// RequestKeyframe sends a PLI for the remote media source ssrc.
func (p *PeerConnection) RequestKeyframe(ssrc uint32) error {
	return p.conn.WriteRTCP([]rtcp.Packet{&rtcp.PictureLossIndication{MediaSSRC: ssrc}})
}

// Close closes the peer connection. The local stream stays owned by the caller.
func (p *PeerConnection) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.pendingCandidates.Clear()
		p.mu.Unlock()

		err = p.conn.Close()
	})
	return err
}
