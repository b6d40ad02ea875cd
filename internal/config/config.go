// Package config loads the TOML configuration of the caller and the
// signaling server.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pion/webrtc/v4"
)

var ErrInvalidConfig = errors.New("invalid config")

type WebRTCConfig struct {
	ICEPortRange []uint16             `toml:"portrange"`
	ICEServers   []ICEServerConfig    `toml:"iceserver"`
	Candidates   Candidates           `toml:"candidates"`
	MDNS         bool                 `toml:"mdns"`
	Timeouts     WebRTCTimeoutsConfig `toml:"timeouts"`
}

type ICEServerConfig struct {
	URLs       []string `toml:"urls"`
	Username   string   `toml:"username"`
	Credential string   `toml:"credential"`
}

type Candidates struct {
	NAT1To1IPs []string `toml:"nat1to1"`
}

// WebRTCTimeoutsConfig は秒単位
type WebRTCTimeoutsConfig struct {
	ICEDisconnectedTimeout int `toml:"disconnected"`
	ICEFailedTimeout       int `toml:"failed"`
	ICEKeepaliveInterval   int `toml:"keepalive"`
}

// KeepaliveConfig は秒単位
type KeepaliveConfig struct {
	ReadTimeout    int   `toml:"read"`
	WriteTimeout   int   `toml:"write"`
	PingInterval   int   `toml:"ping"`
	MaxMessageSize int64 `toml:"maxmessage"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

func iceServers(servers []ICEServerConfig) []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(servers))
	for _, s := range servers {
		server := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			server.Credential = s.Credential
		}
		out = append(out, server)
	}
	return out
}

func validatePortRange(ports []uint16) error {
	if len(ports) == 0 {
		return nil
	}
	if len(ports) != 2 || ports[0] > ports[1] {
		return fmt.Errorf("%w: port range %v", ErrInvalidConfig, ports)
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}
