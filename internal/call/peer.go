package call

import (
	"context"

	"github.com/HMasataka/teamcall/internal/signaling"
	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/HMasataka/teamcall/pkg/media"
	pkgwebrtc "github.com/HMasataka/teamcall/pkg/webrtc"
	"github.com/pion/webrtc/v4"
)

//go:generate mockgen -source peer.go -destination mock/peer.go

// PeerConnection is the part of a peer connection the engine drives.
type PeerConnection interface {
	AttachLocalStream(stream *media.Stream) error
	ReplaceLocalStream(stream *media.Stream) error
	CreateOffer(ctx context.Context) (webrtc.SessionDescription, error)
	CreateAnswer(ctx context.Context, offer webrtc.SessionDescription) (webrtc.SessionDescription, error)
	ApplyRemoteAnswer(answer webrtc.SessionDescription) error
	RestartICE(ctx context.Context) (webrtc.SessionDescription, error)
	AddRemoteICECandidate(candidate webrtc.ICECandidateInit) error
	OnICECandidate(f func(webrtc.ICECandidateInit))
	OnTrack(f func(*webrtc.TrackRemote))
	OnICEConnectionStateChange(f func(webrtc.ICEConnectionState))
	Close() error
}

type PeerConnectionFactory interface {
	NewPeerConnection(iceServers []webrtc.ICEServer) (PeerConnection, error)
}

type PeerConnectionFactoryFunc func(iceServers []webrtc.ICEServer) (PeerConnection, error)

func (f PeerConnectionFactoryFunc) NewPeerConnection(iceServers []webrtc.ICEServer) (PeerConnection, error) {
	return f(iceServers)
}

// NewPeerConnectionFactory adapts a pion backed factory.
func NewPeerConnectionFactory(factory *pkgwebrtc.Factory) PeerConnectionFactory {
	return PeerConnectionFactoryFunc(func(iceServers []webrtc.ICEServer) (PeerConnection, error) {
		pc, err := factory.NewPeerConnection(iceServers)
		if err != nil {
			return nil, err
		}
		return pc, nil
	})
}

// Signaling is the transport the engine sends and receives messages on.
type Signaling interface {
	On(event payload.Event, handler signaling.HandlerFunc)
	Off(event payload.Event)
	Emit(ctx context.Context, event payload.Event, v any) error
	Connected() bool
	ID() string
	ICEServers() []webrtc.ICEServer
}

// AudioRoute switches audio output between earpiece and loudspeaker.
type AudioRoute interface {
	SetSpeakerphone(on bool) error
}

type NopAudioRoute struct{}

func (NopAudioRoute) SetSpeakerphone(bool) error {
	return nil
}

var (
	_ PeerConnection = (*pkgwebrtc.PeerConnection)(nil)
	_ Signaling      = (*signaling.Client)(nil)
)
