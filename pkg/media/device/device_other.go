//go:build !linux

package device

import (
	"context"
	"log/slog"

	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/google/uuid"
	"github.com/pion/webrtc/v4"
)

// Source is receive-only on platforms without capture drivers: it yields a
// stream without tracks and the peer connection negotiates recvonly sections.
type Source struct {
	config Config
}

func NewSource(config Config) (*Source, error) {
	return &Source{config: config}, nil
}

func (s *Source) RegisterCodecs(m *webrtc.MediaEngine) error {
	return m.RegisterDefaultCodecs()
}

func (s *Source) GetUserMedia(ctx context.Context, constraints media.Constraints) (*media.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	slog.Warn("no capture drivers on this platform, proceeding receive-only")
	return media.NewStream(uuid.NewString(), constraints.Facing), nil
}

type Permissions struct{}

func (Permissions) RequestCameraAndMicrophone(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return true, nil
}
