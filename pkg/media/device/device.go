// Package device captures camera and microphone media for a call.
package device

import (
	"image"
	"strings"

	"github.com/pion/webrtc/v4"
)

// Config holds capture parameters.
type Config struct {
	VideoBitRate int
	Width        int
	Height       int
}

func DefaultConfig() Config {
	return Config{
		VideoBitRate: 1_500_000,
		Width:        640,
		Height:       480,
	}
}

// CodecRegistrar registers the codecs a Source encodes with.
type CodecRegistrar interface {
	RegisterCodecs(m *webrtc.MediaEngine) error
}

// blackFrame returns a black I420 frame with the bounds of img.
func blackFrame(bounds image.Rectangle) image.Image {
	frame := image.NewYCbCr(bounds, image.YCbCrSubsampleRatio420)
	for i := range frame.Y {
		frame.Y[i] = 16
	}
	for i := range frame.Cb {
		frame.Cb[i] = 128
		frame.Cr[i] = 128
	}
	return frame
}

// isBackCamera guesses the facing of a camera from its label.
func isBackCamera(label string) bool {
	label = strings.ToLower(label)
	return strings.Contains(label, "back") || strings.Contains(label, "rear") || strings.Contains(label, "environment")
}
