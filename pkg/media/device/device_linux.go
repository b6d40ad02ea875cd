//go:build linux

package device

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/google/uuid"
	"github.com/pion/mediadevices"
	"github.com/pion/mediadevices/pkg/codec/opus"
	"github.com/pion/mediadevices/pkg/codec/vpx"
	_ "github.com/pion/mediadevices/pkg/driver/camera"
	_ "github.com/pion/mediadevices/pkg/driver/microphone"
	"github.com/pion/mediadevices/pkg/frame"
	"github.com/pion/mediadevices/pkg/io/audio"
	"github.com/pion/mediadevices/pkg/io/video"
	"github.com/pion/mediadevices/pkg/prop"
	"github.com/pion/mediadevices/pkg/wave"
	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

// Source captures V4L2 cameras and microphones, encoded as VP8 and Opus.
type Source struct {
	config   Config
	selector *mediadevices.CodecSelector
}

func NewSource(config Config) (*Source, error) {
	vpxParams, err := vpx.NewVP8Params()
	if err != nil {
		return nil, err
	}
	vpxParams.BitRate = config.VideoBitRate

	opusParams, err := opus.NewParams()
	if err != nil {
		return nil, err
	}

	return &Source{
		config: config,
		selector: mediadevices.NewCodecSelector(
			mediadevices.WithVideoEncoders(&vpxParams),
			mediadevices.WithAudioEncoders(&opusParams),
		),
	}, nil
}

func (s *Source) RegisterCodecs(m *webrtc.MediaEngine) error {
	s.selector.Populate(m)
	return nil
}

func (s *Source) GetUserMedia(ctx context.Context, constraints media.Constraints) (*media.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var videoTrack, audioTrack atomic.Pointer[media.Track]

	streamConstraints := mediadevices.MediaStreamConstraints{Codec: s.selector}
	if constraints.Video {
		cameraID, err := s.camera(constraints.Facing)
		if err != nil {
			return nil, err
		}

		streamConstraints.Video = func(c *mediadevices.MediaTrackConstraints) {
			c.DeviceID = prop.StringExact(cameraID)
			c.FrameFormat = prop.FrameFormatOneOf{
				frame.FormatYUYV,
				frame.FormatI420,
				frame.FormatI444,
				frame.FormatRGBA,
			}
			c.Width = prop.IntRanged{Max: s.config.Width}
			c.Height = prop.IntRanged{Max: s.config.Height}
			c.VideoTransform = gateVideo(&videoTrack)
		}
	}
	if constraints.Audio {
		streamConstraints.Audio = func(c *mediadevices.MediaTrackConstraints) {
			c.AudioTransform = gateAudio(&audioTrack)
		}
	}

	stream, err := mediadevices.GetUserMedia(streamConstraints)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrDeviceUnavailable, err)
	}

	var tracks []*media.Track
	for _, t := range stream.GetTracks() {
		t.OnEnded(func(err error) {
			if err != nil {
				slog.Warn("local track ended", slog.String("track_id", t.ID()), slog.String("error", err.Error()))
			}
		})

		track := media.NewTrack(t, func() {
			if err := t.Close(); err != nil {
				slog.Warn("failed to close local track", slog.String("track_id", t.ID()), slog.String("error", err.Error()))
			}
		})
		if t.Kind() == webrtc.RTPCodecTypeVideo {
			videoTrack.Store(track)
		} else {
			audioTrack.Store(track)
		}
		tracks = append(tracks, track)
	}

	slog.Info("local media captured", slog.Int("tracks", len(tracks)), slog.String("facing", constraints.Facing.String()))

	return media.NewStream(uuid.NewString(), constraints.Facing, tracks...), nil
}

// camera picks the device id for facing. The first camera counts as front
// unless its label says otherwise.
func (s *Source) camera(facing media.Facing) (string, error) {
	cameras := lo.Filter(mediadevices.EnumerateDevices(), func(d mediadevices.MediaDeviceInfo, _ int) bool {
		return d.Kind == mediadevices.VideoInput
	})
	if len(cameras) == 0 {
		return "", fmt.Errorf("%w: no camera found", media.ErrDeviceUnavailable)
	}

	wantBack := facing == media.FacingBack
	if camera, ok := lo.Find(cameras, func(d mediadevices.MediaDeviceInfo) bool {
		return isBackCamera(d.Label) == wantBack
	}); ok {
		return camera.DeviceID, nil
	}

	if !wantBack {
		return cameras[0].DeviceID, nil
	}
	if len(cameras) > 1 {
		return cameras[1].DeviceID, nil
	}

	return "", fmt.Errorf("%w: no %s camera", media.ErrDeviceUnavailable, facing)
}

func gateVideo(track *atomic.Pointer[media.Track]) video.TransformFunc {
	return func(r video.Reader) video.Reader {
		return video.ReaderFunc(func() (image.Image, func(), error) {
			img, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}
			if t := track.Load(); t != nil && !t.Enabled() {
				return blackFrame(img.Bounds()), release, nil
			}
			return img, release, nil
		})
	}
}

func gateAudio(track *atomic.Pointer[media.Track]) audio.TransformFunc {
	return func(r audio.Reader) audio.Reader {
		return audio.ReaderFunc(func() (wave.Audio, func(), error) {
			chunk, release, err := r.Read()
			if err != nil {
				return nil, func() {}, err
			}
			if t := track.Load(); t != nil && !t.Enabled() {
				return wave.NewInt16Interleaved(chunk.ChunkInfo()), release, nil
			}
			return chunk, release, nil
		})
	}
}

// Permissions reports access as granted when at least one capture device is visible.
type Permissions struct{}

func (Permissions) RequestCameraAndMicrophone(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	devices := mediadevices.EnumerateDevices()
	for _, d := range devices {
		slog.Debug("media device", slog.String("label", d.Label), slog.Int("kind", int(d.Kind)))
	}

	if !lo.ContainsBy(devices, func(d mediadevices.MediaDeviceInfo) bool {
		return d.Kind == mediadevices.VideoInput || d.Kind == mediadevices.AudioInput
	}) {
		return false, media.ErrDeviceUnavailable
	}

	return true, nil
}
