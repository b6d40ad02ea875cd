package media

import (
	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

// Stream はローカルで取得したトラックの集合
type Stream struct {
	id     string
	facing Facing
	tracks []*Track
}

func NewStream(id string, facing Facing, tracks ...*Track) *Stream {
	return &Stream{id: id, facing: facing, tracks: tracks}
}

func (s *Stream) ID() string {
	return s.id
}

func (s *Stream) Facing() Facing {
	return s.facing
}

func (s *Stream) Tracks() []*Track {
	return append([]*Track(nil), s.tracks...)
}

func (s *Stream) AudioTracks() []*Track {
	return s.byKind(webrtc.RTPCodecTypeAudio)
}

func (s *Stream) VideoTracks() []*Track {
	return s.byKind(webrtc.RTPCodecTypeVideo)
}

func (s *Stream) byKind(kind webrtc.RTPCodecType) []*Track {
	return lo.Filter(s.tracks, func(t *Track, _ int) bool {
		return t.Kind() == kind
	})
}

// SetEnabled flips every track of kind without detaching it.
func (s *Stream) SetEnabled(kind webrtc.RTPCodecType, enabled bool) {
	for _, t := range s.byKind(kind) {
		t.SetEnabled(enabled)
	}
}

// Stop stops every track of the stream.
func (s *Stream) Stop() {
	for _, t := range s.tracks {
		t.Stop()
	}
}

func (s *Stream) Stopped() bool {
	return lo.EveryBy(s.tracks, func(t *Track) bool {
		return t.Stopped()
	})
}
