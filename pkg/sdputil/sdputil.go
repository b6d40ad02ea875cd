package sdputil

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pion/sdp/v3"
	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

var (
	ErrMalformedSDP   = errors.New("malformed sdp")
	ErrUnexpectedType = errors.New("unexpected sdp type")
	ErrNoMedia        = errors.New("sdp carries no audio or video section")
)

// Summary is the part of a session description the call engine cares about.
type Summary struct {
	Type       webrtc.SDPType
	Media      []string
	Directions []string
	ICEUfrag   string
	Candidates int
}

// HasMedia reports whether an m= section of the given kind ("audio", "video") exists.
func (s *Summary) HasMedia(kind string) bool {
	return lo.Contains(s.Media, kind)
}

// Parse parses desc with pion/sdp and summarizes its media sections.
func Parse(desc webrtc.SessionDescription) (*Summary, error) {
	parsed := &sdp.SessionDescription{}
	if err := parsed.Unmarshal([]byte(desc.SDP)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSDP, err)
	}

	summary := &Summary{Type: desc.Type}
	if ufrag, ok := parsed.Attribute("ice-ufrag"); ok {
		summary.ICEUfrag = ufrag
	}

	for _, md := range parsed.MediaDescriptions {
		summary.Media = append(summary.Media, md.MediaName.Media)
		summary.Directions = append(summary.Directions, direction(md))

		if summary.ICEUfrag == "" {
			if ufrag, ok := md.Attribute("ice-ufrag"); ok {
				summary.ICEUfrag = ufrag
			}
		}

		summary.Candidates += len(lo.Filter(md.Attributes, func(a sdp.Attribute, _ int) bool {
			return a.Key == "candidate"
		}))
	}

	return summary, nil
}

// Validate checks that desc has the expected type, parses and carries media.
func Validate(desc webrtc.SessionDescription, expected webrtc.SDPType) (*Summary, error) {
	if desc.Type != expected {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrUnexpectedType, expected, desc.Type)
	}

	summary, err := Parse(desc)
	if err != nil {
		return nil, err
	}

	if !summary.HasMedia("audio") && !summary.HasMedia("video") {
		return nil, ErrNoMedia
	}

	return summary, nil
}

func direction(md *sdp.MediaDescription) string {
	for _, a := range md.Attributes {
		switch a.Key {
		case "sendrecv", "sendonly", "recvonly", "inactive":
			return a.Key
		}
	}
	return "sendrecv"
}

// Log writes a one-line summary of desc at debug level.
func Log(label string, desc webrtc.SessionDescription) {
	summary, err := Parse(desc)
	if err != nil {
		slog.Warn("failed to parse sdp", slog.String("label", label), slog.String("error", err.Error()))
		return
	}

	slog.Debug("sdp summary",
		slog.String("label", label),
		slog.String("type", desc.Type.String()),
		slog.String("media", strings.Join(summary.Media, ",")),
		slog.String("directions", strings.Join(summary.Directions, ",")),
		slog.String("ice_ufrag", summary.ICEUfrag),
		slog.Int("candidates", summary.Candidates),
	)
}

// Dump writes desc into dir and returns the written path.
func Dump(dir, label string, desc webrtc.SessionDescription) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create sdp dump dir: %w", err)
	}

	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, label)

	ts := time.Now().Format("20060102-150405.000")
	fname := fmt.Sprintf("%s_%s_%s.sdp", ts, sanitized, strings.ToLower(desc.Type.String()))
	path := filepath.Join(dir, fname)

	if err := os.WriteFile(path, []byte(desc.SDP), 0o644); err != nil {
		return "", fmt.Errorf("failed to write sdp dump: %w", err)
	}

	return path, nil
}
