package lib

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/HMasataka/teamcall/internal/call"
	pkgwebrtc "github.com/HMasataka/teamcall/pkg/webrtc"
	"github.com/pion/webrtc/v4"
)

// Receiver drains remote tracks and logs their counters when the call ends.
// The CLI has no renderer, reading keeps the receive buffers flowing.
type Receiver struct {
	call.NopObserver

	ctx    context.Context
	mu     sync.Mutex
	tracks map[string][]*pkgwebrtc.RemoteTrack
}

func NewReceiver(ctx context.Context) *Receiver {
	return &Receiver{ctx: ctx, tracks: make(map[string][]*pkgwebrtc.RemoteTrack)}
}

func (r *Receiver) OnRemoteTrack(s call.Snapshot, track *webrtc.TrackRemote) {
	rt := pkgwebrtc.NewRemoteTrack(track)

	r.mu.Lock()
	r.tracks[s.ID] = append(r.tracks[s.ID], rt)
	r.mu.Unlock()

	go func() {
		if err := rt.ReadPackets(r.ctx); err != nil && !errors.Is(err, pkgwebrtc.ErrRemoteTrackClosed) && !errors.Is(err, context.Canceled) {
			slog.Debug("remote track stopped", slog.String("track_id", rt.ID()), slog.String("error", err.Error()))
		}
	}()
}

func (r *Receiver) OnCallEnded(s call.Snapshot) {
	r.mu.Lock()
	tracks := r.tracks[s.ID]
	delete(r.tracks, s.ID)
	r.mu.Unlock()

	for _, rt := range tracks {
		stats := rt.Stats()
		slog.Info("remote track summary",
			slog.String("call_id", s.ID),
			slog.String("kind", stats.Kind),
			slog.String("codec", stats.CodecName),
			slog.Uint64("packets", stats.PacketsReceived),
			slog.Uint64("bytes", stats.BytesReceived),
			slog.Uint64("lost", stats.PacketsLost),
		)
		_ = rt.Close()
	}
}
