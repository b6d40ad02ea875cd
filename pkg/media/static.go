package media

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// StaticSource produces sample-based tracks that are not backed by hardware.
// Callers write samples themselves, or leave them idle for signaling-only use.
type StaticSource struct {
	StreamID string
}

func NewStaticSource(streamID string) *StaticSource {
	return &StaticSource{StreamID: streamID}
}

func (s *StaticSource) GetUserMedia(ctx context.Context, constraints Constraints) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	streamID := s.StreamID
	if streamID == "" {
		streamID = "teamcall"
	}

	var tracks []*Track
	if constraints.Audio {
		audio, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeOpus, ClockRate: 48000, Channels: 2},
			"audio-"+uuid.NewString(), streamID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		tracks = append(tracks, NewTrack(audio, nil))
	}

	if constraints.Video {
		video, err := webrtc.NewTrackLocalStaticSample(
			webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
			fmt.Sprintf("video-%s-%s", constraints.Facing, uuid.NewString()), streamID,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
		}
		tracks = append(tracks, NewTrack(video, nil))
	}

	return NewStream(streamID+"-"+constraints.Facing.String(), constraints.Facing, tracks...), nil
}
