package call

import (
	"log/slog"
	"time"

	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/HMasataka/teamcall/pkg/sdputil"
	"github.com/pion/webrtc/v4"
)

func (e *Engine) handleOffer(msg *payload.Offer) {
	from := msg.From
	if from == "" {
		slog.Warn("dropping offer without sender")
		return
	}

	if s := e.session; s != nil {
		if s.PeerID == from && s.Direction == DirectionIncoming {
			if !e.validRemote(s, msg.Offer, webrtc.SDPTypeOffer) {
				return
			}
			offer := msg.Offer
			s.renegotiation = &offer
			e.fire(s, EventRemoteOffer, nil)
			return
		}
		slog.Info("rejecting offer while busy", slog.String("peer_id", from))
		e.sendEndCall(from)
		return
	}

	if r := e.ring; r != nil {
		if r.call.PeerID == from {
			r.offer = msg.Offer
			return
		}
		slog.Info("rejecting offer while ringing", slog.String("peer_id", from))
		e.sendEndCall(from)
		return
	}

	if _, err := sdputil.Validate(msg.Offer, webrtc.SDPTypeOffer); err != nil {
		slog.Warn("dropping invalid offer", slog.String("peer_id", from), slog.String("error", err.Error()))
		return
	}
	sdputil.Log("remote-offer", msg.Offer)

	e.ring = &ring{
		call: IncomingCall{
			PeerID:      from,
			DisplayName: e.displayName(from, msg.Username),
			ReceivedAt:  time.Now(),
		},
		offer: msg.Offer,
	}
	e.subscribe()

	slog.Info("incoming call", slog.String("peer_id", from), slog.String("display_name", e.ring.call.DisplayName))
	e.observer.OnIncomingCall(e.ring.call)
}

func (e *Engine) handleAnswer(msg *payload.Answer) {
	s := e.session
	if s == nil || s.PeerID != msg.From || s.Direction != DirectionOutgoing {
		slog.Debug("dropping unexpected answer", slog.String("peer_id", msg.From))
		return
	}
	if !s.awaitingAnswer {
		slog.Debug("dropping duplicate answer", slog.String("call_id", s.ID))
		return
	}
	if !e.validRemote(s, msg.Answer, webrtc.SDPTypeAnswer) {
		return
	}

	s.awaitingAnswer = false
	answer := msg.Answer
	s.remoteAnswer = &answer
	e.fire(s, EventRemoteAnswer, nil)
}

// validRemote fails s when desc is unusable.
func (e *Engine) validRemote(s *CallSession, desc webrtc.SessionDescription, expected webrtc.SDPType) bool {
	if _, err := sdputil.Validate(desc, expected); err != nil {
		slog.Warn("invalid remote description", slog.String("call_id", s.ID), slog.String("error", err.Error()))
		e.fire(s, EventNegotiationFailed, err)
		return false
	}
	e.dump(s, "remote-"+expected.String(), desc)
	return true
}

func (e *Engine) handleCandidate(msg *payload.ICECandidate) {
	if s := e.session; s != nil && s.PeerID == msg.From {
		if !s.peerReady {
			s.pendingCandidates = append(s.pendingCandidates, msg.Candidate)
			return
		}
		if pc := s.peer(); pc != nil {
			if err := pc.AddRemoteICECandidate(msg.Candidate); err != nil {
				slog.Warn("failed to add remote candidate", slog.String("call_id", s.ID), slog.String("error", err.Error()))
			}
		}
		return
	}

	if r := e.ring; r != nil && r.call.PeerID == msg.From {
		r.candidates = append(r.candidates, msg.Candidate)
		return
	}

	slog.Debug("dropping candidate for unknown call", slog.String("peer_id", msg.From))
}

// handlePeerGone handles end-call and user-disconnected from peerID.
func (e *Engine) handlePeerGone(peerID string, ev Event) {
	if s := e.session; s != nil && s.PeerID == peerID {
		e.fire(s, ev, nil)
		return
	}

	if r := e.ring; r != nil && r.call.PeerID == peerID {
		e.ring = nil
		e.unsubscribe()
		slog.Info("incoming call cancelled", slog.String("peer_id", peerID))
		e.observer.OnIncomingCallCancelled(peerID)
	}
}

// flushCandidates hands candidates received before the peer connection
// existed over to it. The peer connection buffers them until the remote
// description is set.
func (e *Engine) flushCandidates(s *CallSession) {
	if s != e.session || s.peerReady {
		return
	}
	pc := s.peer()
	if pc == nil {
		return
	}

	s.peerReady = true
	for _, c := range s.pendingCandidates {
		if err := pc.AddRemoteICECandidate(c); err != nil {
			slog.Warn("failed to add buffered candidate", slog.String("call_id", s.ID), slog.String("error", err.Error()))
		}
	}
	s.pendingCandidates = nil
}

func (e *Engine) handleICEState(s *CallSession, state webrtc.ICEConnectionState) {
	slog.Debug("ice connection state changed", slog.String("call_id", s.ID), slog.String("state", state.String()))
	if ev, ok := ICEEvent(state); ok {
		e.fire(s, ev, nil)
	}
}
