package media

import (
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

// Track is a locally captured track. Disabling a track keeps it attached and
// makes it send silence or black frames.
type Track struct {
	local   webrtc.TrackLocal
	enabled atomic.Bool
	stopped atomic.Bool
	once    sync.Once
	onStop  func()
}

// NewTrack wraps local. onStop releases the underlying capture device and may be nil.
func NewTrack(local webrtc.TrackLocal, onStop func()) *Track {
	t := &Track{local: local, onStop: onStop}
	t.enabled.Store(true)
	return t
}

func (t *Track) ID() string {
	return t.local.ID()
}

func (t *Track) Kind() webrtc.RTPCodecType {
	return t.local.Kind()
}

// Local returns the track handed to the peer connection.
func (t *Track) Local() webrtc.TrackLocal {
	return t.local
}

func (t *Track) Enabled() bool {
	return t.enabled.Load()
}

func (t *Track) SetEnabled(enabled bool) {
	t.enabled.Store(enabled)
}

// Stop releases the track. Only the first call has an effect.
func (t *Track) Stop() {
	t.once.Do(func() {
		t.stopped.Store(true)
		t.enabled.Store(false)
		if t.onStop != nil {
			t.onStop()
		}
	})
}

func (t *Track) Stopped() bool {
	return t.stopped.Load()
}
