package call

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/pion/webrtc/v4"
)

// ToggleMicrophone flips the microphone. The sender keeps its track; only
// the track's enabled flag changes, so no renegotiation happens.
func (e *Engine) ToggleMicrophone(ctx context.Context) (TrackState, error) {
	return e.toggleTrack(ctx, webrtc.RTPCodecTypeAudio)
}

func (e *Engine) ToggleCamera(ctx context.Context) (TrackState, error) {
	return e.toggleTrack(ctx, webrtc.RTPCodecTypeVideo)
}

func (e *Engine) toggleTrack(ctx context.Context, kind webrtc.RTPCodecType) (TrackState, error) {
	var state TrackState
	err := e.call(ctx, func() error {
		s := e.session
		if s == nil {
			return ErrNoActiveCall
		}

		enabled := false
		if kind == webrtc.RTPCodecTypeAudio {
			s.tracks.MicrophoneEnabled = !s.tracks.MicrophoneEnabled
			enabled = s.tracks.MicrophoneEnabled
		} else {
			s.tracks.CameraEnabled = !s.tracks.CameraEnabled
			enabled = s.tracks.CameraEnabled
		}
		if local := s.localStream(); local != nil {
			local.SetEnabled(kind, enabled)
		}

		state = s.tracks
		e.observer.OnStatusChange(s.snapshot())
		return nil
	})
	return state, err
}

// ToggleSpeaker flips the audio output route.
func (e *Engine) ToggleSpeaker(ctx context.Context) (bool, error) {
	var on bool
	err := e.call(ctx, func() error {
		s := e.session
		if s == nil {
			return ErrNoActiveCall
		}
		if err := e.deps.AudioRoute.SetSpeakerphone(!s.speakerOn); err != nil {
			return fmt.Errorf("failed to switch audio route: %w", err)
		}
		s.speakerOn = !s.speakerOn
		on = s.speakerOn
		e.observer.OnStatusChange(s.snapshot())
		return nil
	})
	return on, err
}

// SwitchCamera captures from the opposite camera and swaps the video onto the
// existing senders. On failure the previous stream keeps running and the
// error is returned; the call itself is unaffected.
func (e *Engine) SwitchCamera(ctx context.Context) error {
	done := make(chan error, 1)
	var s *CallSession

	err := e.call(ctx, func() error {
		s = e.session
		if s == nil {
			return ErrNoActiveCall
		}
		if s.switching || s.localStream() == nil {
			slog.Debug("ignoring camera switch", slog.String("call_id", s.ID))
			done <- nil
			return nil
		}

		s.switching = true
		target := s.facing.Opposite()
		tracks := s.tracks
		e.submit(s, func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("camera switch panicked", slog.String("call_id", s.ID), slog.Any("panic", r))
					e.postFor(s, func() { s.switching = false })
					done <- fmt.Errorf("failed to switch camera: %v", r)
				}
			}()
			done <- e.switchCamera(s, target, tracks)
		})
		return nil
	})
	if err != nil {
		return err
	}

	select {
	case err := <-done:
		return err
	case <-s.ctx.Done():
		return ErrNoActiveCall
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) switchCamera(s *CallSession, target media.Facing, tracks TrackState) error {
	finish := func(stream *media.Stream) {
		e.postFor(s, func() {
			s.switching = false
			if stream == nil {
				return
			}
			s.facing = target
			s.tracks.UsingFrontCamera = target == media.FacingFront
			stream.SetEnabled(webrtc.RTPCodecTypeAudio, s.tracks.MicrophoneEnabled)
			stream.SetEnabled(webrtc.RTPCodecTypeVideo, s.tracks.CameraEnabled)
			e.observer.OnStatusChange(s.snapshot())
		})
	}

	if s.Cancelled() {
		return ErrNoActiveCall
	}

	stream, err := e.deps.Media.GetUserMedia(s.ctx, media.Constraints{Audio: true, Video: true, Facing: target})
	if err != nil {
		finish(nil)
		return fmt.Errorf("failed to switch camera: %w", err)
	}

	// new tracks start enabled; mute them before they reach the senders
	stream.SetEnabled(webrtc.RTPCodecTypeAudio, tracks.MicrophoneEnabled)
	stream.SetEnabled(webrtc.RTPCodecTypeVideo, tracks.CameraEnabled)

	previous, err := s.swapStream(stream)
	if err != nil {
		stream.Stop()
		finish(nil)
		return fmt.Errorf("failed to switch camera: %w", err)
	}
	if previous != nil {
		previous.Stop()
	}

	slog.Info("camera switched", slog.String("call_id", s.ID), slog.String("facing", target.String()))
	finish(stream)
	return nil
}
