package config

import (
	"fmt"

	"github.com/HMasataka/teamcall/internal/call"
	"github.com/HMasataka/teamcall/internal/calllog"
	"github.com/HMasataka/teamcall/internal/logger"
	"github.com/HMasataka/teamcall/internal/signaling"
	"github.com/HMasataka/teamcall/pkg/retry"
	pkgwebrtc "github.com/HMasataka/teamcall/pkg/webrtc"
)

type Client struct {
	Signaling SignalingConfig `toml:"signaling"`
	WebRTC    WebRTCConfig    `toml:"webrtc"`
	Call      CallConfig      `toml:"call"`
	Media     MediaConfig     `toml:"media"`
	Log       logger.Config   `toml:"log"`
	Metrics   MetricsConfig   `toml:"metrics"`
	CallLog   calllog.Config  `toml:"calllog"`
}

type SignalingConfig struct {
	URL       string          `toml:"url"`
	Username  string          `toml:"username"`
	Token     string          `toml:"token"`
	Retry     RetryConfig     `toml:"retry"`
	Keepalive KeepaliveConfig `toml:"keepalive"`
	// HandshakeTimeout は秒単位
	HandshakeTimeout int `toml:"handshake"`
}

// RetryConfig はミリ秒単位。attempts が 0 なら無制限
type RetryConfig struct {
	Attempts     int `toml:"attempts"`
	BaseInterval int `toml:"interval"`
	MaxBackoff   int `toml:"maxbackoff"`
}

type CallConfig struct {
	// GraceWindow はミリ秒単位
	GraceWindow     int    `toml:"grace"`
	RestartICE      bool   `toml:"restartice"`
	UnknownPeerName string `toml:"unknownpeer"`
	// EmitTimeout はミリ秒単位
	EmitTimeout int    `toml:"emittimeout"`
	SDPDumpDir  string `toml:"sdpdump"`
}

// MediaConfig selects the capture source: "device" for hardware, "static"
// for a synthetic stream.
type MediaConfig struct {
	Source       string `toml:"source"`
	Width        int    `toml:"width"`
	Height       int    `toml:"height"`
	VideoBitRate int    `toml:"bitrate"`
}

func DefaultClient() Client {
	callDefaults := call.DefaultConfig()
	keepalive := signaling.DefaultKeepaliveOptions()
	retryDefaults := retry.DefaultConfig()

	return Client{
		Signaling: SignalingConfig{
			URL: "ws://localhost:8080/ws",
			Retry: RetryConfig{
				Attempts:     retryDefaults.Attempts,
				BaseInterval: int(retryDefaults.BaseInterval.Milliseconds()),
				MaxBackoff:   int(retryDefaults.MaxBackoff.Milliseconds()),
			},
			Keepalive: KeepaliveConfig{
				ReadTimeout:    int(keepalive.ReadTimeout.Seconds()),
				WriteTimeout:   int(keepalive.WriteTimeout.Seconds()),
				PingInterval:   int(keepalive.PingInterval.Seconds()),
				MaxMessageSize: keepalive.MaxMessageSize,
			},
			HandshakeTimeout: 10,
		},
		Call: CallConfig{
			GraceWindow:     int(callDefaults.GraceWindow.Milliseconds()),
			RestartICE:      callDefaults.RestartICE,
			UnknownPeerName: callDefaults.UnknownPeerName,
			EmitTimeout:     int(callDefaults.EmitTimeout.Milliseconds()),
		},
		Media: MediaConfig{
			Source:       "device",
			Width:        640,
			Height:       480,
			VideoBitRate: 1_500_000,
		},
		Log: logger.DefaultConfig(),
		Metrics: MetricsConfig{
			Addr: ":9091",
		},
		CallLog: calllog.DefaultConfig(),
	}
}

// LoadClient overlays the file at path on DefaultClient. An empty path
// returns the defaults.
func LoadClient(path string) (Client, error) {
	c := DefaultClient()
	if path == "" {
		return c, nil
	}
	if err := load(path, &c); err != nil {
		return Client{}, err
	}
	return c, c.Validate()
}

func (c Client) Validate() error {
	if c.Signaling.URL == "" {
		return fmt.Errorf("%w: signaling url is empty", ErrInvalidConfig)
	}
	if err := validatePortRange(c.WebRTC.ICEPortRange); err != nil {
		return err
	}
	switch c.Media.Source {
	case "device", "static":
	default:
		return fmt.Errorf("%w: media source %q", ErrInvalidConfig, c.Media.Source)
	}
	if c.Call.GraceWindow < 0 {
		return fmt.Errorf("%w: negative grace window", ErrInvalidConfig)
	}
	return nil
}

func (c Client) PeerConnectionOptions() pkgwebrtc.PeerConnectionOptions {
	options := pkgwebrtc.DefaultPeerConnectionOptions()
	if len(c.WebRTC.ICEServers) > 0 {
		options.ICEServers = iceServers(c.WebRTC.ICEServers)
	}
	options.ICEPortRange = c.WebRTC.ICEPortRange
	options.NAT1To1IPs = c.WebRTC.Candidates.NAT1To1IPs
	options.MDNS = c.WebRTC.MDNS
	options.ICEDisconnectedTimeout = seconds(c.WebRTC.Timeouts.ICEDisconnectedTimeout)
	options.ICEFailedTimeout = seconds(c.WebRTC.Timeouts.ICEFailedTimeout)
	options.ICEKeepaliveInterval = seconds(c.WebRTC.Timeouts.ICEKeepaliveInterval)
	return options
}

func (c Client) SignalingIdentity() signaling.Identity {
	return signaling.Identity{Username: c.Signaling.Username, Token: c.Signaling.Token}
}

func (c Client) SignalingOptions() signaling.Options {
	return signaling.Options{
		Retry: retry.Config{
			Attempts:     c.Signaling.Retry.Attempts,
			BaseInterval: millis(c.Signaling.Retry.BaseInterval),
			MaxBackoff:   millis(c.Signaling.Retry.MaxBackoff),
		},
		Keepalive:        c.Signaling.Keepalive.options(),
		HandshakeTimeout: seconds(c.Signaling.HandshakeTimeout),
	}
}

// CallConfig returns the engine configuration. ICE servers are only set when
// the file lists them, otherwise the signaling server's list is used.
func (c Client) CallConfig() call.Config {
	cfg := call.DefaultConfig()
	cfg.DisplayName = c.Signaling.Username
	if len(c.WebRTC.ICEServers) > 0 {
		cfg.ICEServers = iceServers(c.WebRTC.ICEServers)
	}
	cfg.GraceWindow = millis(c.Call.GraceWindow)
	cfg.RestartICE = c.Call.RestartICE
	if c.Call.UnknownPeerName != "" {
		cfg.UnknownPeerName = c.Call.UnknownPeerName
	}
	if c.Call.EmitTimeout > 0 {
		cfg.EmitTimeout = millis(c.Call.EmitTimeout)
	}
	cfg.SDPDumpDir = c.Call.SDPDumpDir
	return cfg
}

func (k KeepaliveConfig) options() signaling.KeepaliveOptions {
	return signaling.KeepaliveOptions{
		ReadTimeout:    seconds(k.ReadTimeout),
		WriteTimeout:   seconds(k.WriteTimeout),
		PingInterval:   seconds(k.PingInterval),
		MaxMessageSize: k.MaxMessageSize,
	}
}
