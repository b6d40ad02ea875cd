package media

import (
	"context"
	"errors"
)

var (
	ErrPermissionDenied  = errors.New("camera or microphone permission denied")
	ErrDeviceUnavailable = errors.New("media device unavailable")
)

// Facing はカメラの向きを表す
type Facing int

const (
	FacingFront Facing = iota
	FacingBack
)

func (f Facing) Opposite() Facing {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

func (f Facing) String() string {
	if f == FacingBack {
		return "back"
	}
	return "front"
}

// Constraints describes what GetUserMedia should capture.
type Constraints struct {
	Audio  bool
	Video  bool
	Facing Facing
}

func DefaultConstraints() Constraints {
	return Constraints{Audio: true, Video: true, Facing: FacingFront}
}

// Source captures local media.
type Source interface {
	GetUserMedia(ctx context.Context, constraints Constraints) (*Stream, error)
}

// Permissions asks the platform for camera and microphone access.
type Permissions interface {
	RequestCameraAndMicrophone(ctx context.Context) (bool, error)
}

// StaticPermissions always answers with its own value.
type StaticPermissions bool

func (p StaticPermissions) RequestCameraAndMicrophone(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return bool(p), nil
}
