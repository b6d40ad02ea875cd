package webrtc

import (
	"fmt"
	"time"

	"github.com/pion/ice/v4"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// CodecRegistrar registers the codecs local media is encoded with.
type CodecRegistrar interface {
	RegisterCodecs(m *webrtc.MediaEngine) error
}

// PeerConnectionOptions represents options for peer connection
type PeerConnectionOptions struct {
	ICEServers   []webrtc.ICEServer
	ICEPortRange []uint16
	NAT1To1IPs   []string
	MDNS         bool

	ICEDisconnectedTimeout time.Duration
	ICEFailedTimeout       time.Duration
	ICEKeepaliveInterval   time.Duration

	Codecs CodecRegistrar
}

// DefaultICEServers is the STUN list used when nothing else is configured.
func DefaultICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{
			URLs: []string{"stun:stun.l.google.com:19302", "stun:stun1.l.google.com:19302"},
		},
	}
}

// DefaultPeerConnectionOptions returns default options
func DefaultPeerConnectionOptions() PeerConnectionOptions {
	return PeerConnectionOptions{
		ICEServers: DefaultICEServers(),
	}
}

// Factory creates peer connections sharing one configured API.
type Factory struct {
	api     *webrtc.API
	options PeerConnectionOptions
}

func NewFactory(options PeerConnectionOptions) (*Factory, error) {
	api, err := NewAPI(options)
	if err != nil {
		return nil, err
	}

	return &Factory{api: api, options: options}, nil
}

// NewAPI builds the media engine, interceptors and setting engine.
func NewAPI(options PeerConnectionOptions) (*webrtc.API, error) {
	mediaEngine := &webrtc.MediaEngine{}
	if options.Codecs != nil {
		if err := options.Codecs.RegisterCodecs(mediaEngine); err != nil {
			return nil, fmt.Errorf("failed to register codecs: %w", err)
		}
	} else if err := mediaEngine.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("failed to register codecs: %w", err)
	}

	interceptorRegistry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(mediaEngine, interceptorRegistry); err != nil {
		return nil, fmt.Errorf("failed to register interceptors: %w", err)
	}

	se := webrtc.SettingEngine{}

	if len(options.ICEPortRange) == 2 {
		if err := se.SetEphemeralUDPPortRange(options.ICEPortRange[0], options.ICEPortRange[1]); err != nil {
			return nil, fmt.Errorf("invalid ice port range: %w", err)
		}
	}

	if options.ICEDisconnectedTimeout != 0 || options.ICEFailedTimeout != 0 || options.ICEKeepaliveInterval != 0 {
		se.SetICETimeouts(options.ICEDisconnectedTimeout, options.ICEFailedTimeout, options.ICEKeepaliveInterval)
	}

	if len(options.NAT1To1IPs) > 0 {
		se.SetNAT1To1IPs(options.NAT1To1IPs, webrtc.ICECandidateTypeHost)
	}

	if !options.MDNS {
		se.SetICEMulticastDNSMode(ice.MulticastDNSModeDisabled)
	}

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(mediaEngine),
		webrtc.WithInterceptorRegistry(interceptorRegistry),
		webrtc.WithSettingEngine(se),
	), nil
}

// NewPeerConnection creates a new peer connection. Without iceServers the
// factory defaults apply.
func (f *Factory) NewPeerConnection(iceServers []webrtc.ICEServer) (*PeerConnection, error) {
	if len(iceServers) == 0 {
		iceServers = f.options.ICEServers
	}
	if len(iceServers) == 0 {
		iceServers = DefaultICEServers()
	}

	pc, err := f.api.NewPeerConnection(webrtc.Configuration{
		ICEServers: iceServers,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection: %w", err)
	}

	return newPeerConnection(&pionConn{PeerConnection: pc}), nil
}
