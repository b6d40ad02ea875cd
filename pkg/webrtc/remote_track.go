package webrtc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

var ErrRemoteTrackClosed = errors.New("remote track closed")

type RemoteTrackStats struct {
	PacketsReceived uint64
	BytesReceived   uint64
	PacketsLost     uint64
	Kind            string
	CodecName       string
	ClockRate       uint32
}

type rtpReader interface {
	ReadRTP() (*rtp.Packet, interceptor.Attributes, error)
}

// RemoteTrack reads RTP from a remote track and hands packets to a render sink.
type RemoteTrack struct {
	id       string
	reader   rtpReader
	stats    RemoteTrackStats
	mu       sync.RWMutex
	closed   bool
	seen     bool
	lastSeq  uint16
	onPacket func(*rtp.Packet)
}

func NewRemoteTrack(track *webrtc.TrackRemote) *RemoteTrack {
	codec := track.Codec()
	return newRemoteTrack(track.ID(), track, track.Kind().String(), codec.MimeType, codec.ClockRate)
}

func newRemoteTrack(id string, reader rtpReader, kind, codecName string, clockRate uint32) *RemoteTrack {
	return &RemoteTrack{
		id:     id,
		reader: reader,
		stats: RemoteTrackStats{
			Kind:      kind,
			CodecName: codecName,
			ClockRate: clockRate,
		},
	}
}

func (rt *RemoteTrack) ID() string {
	return rt.id
}

// ReadPackets blocks until the track ends, ctx is done or the track is closed.
func (rt *RemoteTrack) ReadPackets(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rt.mu.RLock()
		closed := rt.closed
		rt.mu.RUnlock()
		if closed {
			return ErrRemoteTrackClosed
		}

		pkt, _, err := rt.reader.ReadRTP()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read remote track data: %w", err)
		}

		rt.processPacket(pkt)
	}
}

func (rt *RemoteTrack) processPacket(pkt *rtp.Packet) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.seen {
		if gap := pkt.SequenceNumber - rt.lastSeq; gap > 1 && gap < 1<<15 {
			rt.stats.PacketsLost += uint64(gap - 1)
		}
	}
	rt.seen = true
	rt.lastSeq = pkt.SequenceNumber

	rt.stats.PacketsReceived++
	rt.stats.BytesReceived += uint64(len(pkt.Payload))
	if rt.onPacket != nil {
		rt.onPacket(pkt)
	}
}

func (rt *RemoteTrack) SetOnPacket(fn func(*rtp.Packet)) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.onPacket = fn
}

func (rt *RemoteTrack) Stats() RemoteTrackStats {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.stats
}

func (rt *RemoteTrack) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.closed = true
	return nil
}
