package call

import (
	"fmt"
	"log/slog"

	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/HMasataka/teamcall/pkg/sdputil"
	"github.com/pion/webrtc/v4"
)

// The functions in this file run on the worker.

func (e *Engine) requestPermission(s *CallSession) {
	if s.Cancelled() {
		return
	}

	granted, err := e.deps.Permissions.RequestCameraAndMicrophone(s.ctx)
	switch {
	case err != nil:
		e.result(s, EventMediaFailed, err)
	case !granted:
		e.result(s, EventPermissionDenied, media.ErrPermissionDenied)
	default:
		e.result(s, EventPermissionGranted, nil)
	}
}

func (e *Engine) acquireMedia(s *CallSession, facing media.Facing) {
	if s.Cancelled() {
		return
	}

	stream, err := e.deps.Media.GetUserMedia(s.ctx, media.Constraints{Audio: true, Video: true, Facing: facing})
	if err != nil {
		e.result(s, EventMediaFailed, err)
		return
	}
	if !s.adoptStream(stream) {
		stream.Stop()
		return
	}

	e.postFor(s, func() {
		stream.SetEnabled(webrtc.RTPCodecTypeAudio, s.tracks.MicrophoneEnabled)
		stream.SetEnabled(webrtc.RTPCodecTypeVideo, s.tracks.CameraEnabled)
		e.fire(s, EventMediaAcquired, nil)
	})
}

func (e *Engine) negotiate(s *CallSession, servers []webrtc.ICEServer, offer *webrtc.SessionDescription) {
	if s.Cancelled() {
		return
	}

	pc, err := e.deps.Factory.NewPeerConnection(servers)
	if err != nil {
		e.result(s, EventNegotiationFailed, fmt.Errorf("%w: %w", ErrNegotiation, err))
		return
	}
	if !s.adoptPeer(pc) {
		_ = pc.Close()
		return
	}
	e.wire(s, pc)
	e.postFor(s, func() { e.flushCandidates(s) })

	if local := s.localStream(); local != nil {
		if err := pc.AttachLocalStream(local); err != nil {
			e.result(s, EventNegotiationFailed, fmt.Errorf("%w: %w", ErrNegotiation, err))
			return
		}
	}

	if s.Direction == DirectionOutgoing {
		local, err := pc.CreateOffer(s.ctx)
		if err != nil {
			e.result(s, EventNegotiationFailed, fmt.Errorf("%w: %w", ErrNegotiation, err))
			return
		}
		e.dump(s, "local-offer", local)
		if err := e.emit(s.ctx, payload.EventOffer, payload.Offer{Offer: local, To: s.PeerID, Username: e.config.DisplayName}); err != nil {
			e.result(s, EventSignalingLost, err)
			return
		}
	} else {
		if offer == nil {
			e.result(s, EventNegotiationFailed, fmt.Errorf("%w: no remote offer", ErrNegotiation))
			return
		}
		local, err := pc.CreateAnswer(s.ctx, *offer)
		if err != nil {
			e.result(s, EventNegotiationFailed, fmt.Errorf("%w: %w", ErrNegotiation, err))
			return
		}
		e.dump(s, "local-answer", local)
		if err := e.emit(s.ctx, payload.EventAnswer, payload.Answer{Answer: local, To: s.PeerID}); err != nil {
			e.result(s, EventSignalingLost, err)
			return
		}
	}

	for _, c := range s.outbound.release() {
		e.sendCandidate(s, c)
	}
	e.result(s, EventLocalDescriptionSent, nil)
}

func (e *Engine) sendCandidate(s *CallSession, c webrtc.ICECandidateInit) {
	if err := e.emit(s.ctx, payload.EventICECandidate, payload.ICECandidate{Candidate: c, To: s.PeerID}); err != nil {
		slog.Warn("failed to send ice candidate", slog.String("call_id", s.ID), slog.String("error", err.Error()))
	}
}

// wire forwards peer connection callbacks for s.
func (e *Engine) wire(s *CallSession, pc PeerConnection) {
	pc.OnICECandidate(func(c webrtc.ICECandidateInit) {
		if s.Cancelled() || s.outbound.hold(c) {
			return
		}
		e.sendCandidate(s, c)
	})
	pc.OnTrack(func(track *webrtc.TrackRemote) {
		e.postFor(s, func() {
			if s != e.session {
				return
			}
			slog.Info("remote track received",
				slog.String("call_id", s.ID),
				slog.String("kind", track.Kind().String()),
				slog.String("track_id", track.ID()),
			)
			e.observer.OnRemoteTrack(s.snapshot(), track)
		})
	})
	pc.OnICEConnectionStateChange(func(state webrtc.ICEConnectionState) {
		e.postFor(s, func() { e.handleICEState(s, state) })
	})
}

func (e *Engine) applyAnswer(s *CallSession, answer *webrtc.SessionDescription) {
	pc := s.peer()
	if s.Cancelled() || pc == nil || answer == nil {
		return
	}
	if err := pc.ApplyRemoteAnswer(*answer); err != nil {
		e.result(s, EventNegotiationFailed, fmt.Errorf("%w: %w", ErrNegotiation, err))
	}
}

func (e *Engine) answerRenegotiation(s *CallSession, offer *webrtc.SessionDescription) {
	pc := s.peer()
	if s.Cancelled() || pc == nil || offer == nil {
		return
	}

	answer, err := pc.CreateAnswer(s.ctx, *offer)
	if err != nil {
		e.result(s, EventNegotiationFailed, fmt.Errorf("%w: %w", ErrNegotiation, err))
		return
	}
	e.dump(s, "local-answer", answer)
	if err := e.emit(s.ctx, payload.EventAnswer, payload.Answer{Answer: answer, To: s.PeerID}); err != nil {
		slog.Warn("failed to send renegotiation answer", slog.String("call_id", s.ID), slog.String("error", err.Error()))
	}
}

func (e *Engine) restartICE(s *CallSession) {
	pc := s.peer()
	if s.Cancelled() || pc == nil {
		return
	}

	offer, err := pc.RestartICE(s.ctx)
	if err != nil {
		slog.Warn("ice restart failed", slog.String("call_id", s.ID), slog.String("error", err.Error()))
		return
	}
	e.dump(s, "local-restart-offer", offer)
	if err := e.emit(s.ctx, payload.EventOffer, payload.Offer{Offer: offer, To: s.PeerID, Username: e.config.DisplayName}); err != nil {
		slog.Warn("failed to send ice restart offer", slog.String("call_id", s.ID), slog.String("error", err.Error()))
	}
}

func (e *Engine) dump(s *CallSession, label string, desc webrtc.SessionDescription) {
	sdputil.Log(label, desc)
	if e.config.SDPDumpDir == "" {
		return
	}
	if _, err := sdputil.Dump(e.config.SDPDumpDir, s.ID+"-"+label, desc); err != nil {
		slog.Warn("failed to dump sdp", slog.String("call_id", s.ID), slog.String("error", err.Error()))
	}
}
