package config

import (
	"fmt"
	"net"

	"github.com/HMasataka/teamcall/internal/logger"
	"github.com/HMasataka/teamcall/internal/signaling"
	"github.com/HMasataka/teamcall/internal/signalserver"
)

type Server struct {
	Server  ServerConfig  `toml:"server"`
	Auth    AuthConfig    `toml:"auth"`
	Redis   RedisConfig   `toml:"redis"`
	WebRTC  WebRTCConfig  `toml:"webrtc"`
	Turn    TurnConfig    `toml:"turn"`
	Log     logger.Config `toml:"log"`
	Metrics MetricsConfig `toml:"metrics"`
}

type ServerConfig struct {
	Addr              string          `toml:"addr"`
	MaxUsernameLength int             `toml:"maxusername"`
	Keepalive         KeepaliveConfig `toml:"keepalive"`
	// ShutdownTimeout は秒単位
	ShutdownTimeout int `toml:"shutdown"`
}

// AuthConfig enables JWT identities when Secret is set.
type AuthConfig struct {
	Secret string `toml:"secret"`
}

// RedisConfig enables the shared presence store when Addr is set.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Key      string `toml:"key"`
	// TTL は秒単位
	TTL int `toml:"ttl"`
}

type TurnConfig struct {
	Enabled     bool              `toml:"enabled"`
	Realm       string            `toml:"realm"`
	Address     string            `toml:"address"`
	PublicIP    string            `toml:"publicip"`
	PortRange   []uint16          `toml:"portrange"`
	Credentials map[string]string `toml:"credentials"`
}

func DefaultServer() Server {
	defaults := signalserver.DefaultConfig()
	keepalive := signaling.DefaultKeepaliveOptions()

	return Server{
		Server: ServerConfig{
			Addr:              defaults.Addr,
			MaxUsernameLength: defaults.MaxUsernameLength,
			Keepalive: KeepaliveConfig{
				ReadTimeout:    int(keepalive.ReadTimeout.Seconds()),
				WriteTimeout:   int(keepalive.WriteTimeout.Seconds()),
				PingInterval:   int(keepalive.PingInterval.Seconds()),
				MaxMessageSize: keepalive.MaxMessageSize,
			},
			ShutdownTimeout: int(defaults.ShutdownTimeout.Seconds()),
		},
		WebRTC: WebRTCConfig{
			ICEServers: []ICEServerConfig{
				{URLs: []string{"stun:stun.l.google.com:19302"}},
			},
		},
		Turn: TurnConfig{
			Realm:   "teamcall",
			Address: "0.0.0.0:3478",
		},
		Log: logger.DefaultConfig(),
	}
}

func LoadServer(path string) (Server, error) {
	c := DefaultServer()
	if path == "" {
		return c, nil
	}
	if err := load(path, &c); err != nil {
		return Server{}, err
	}
	return c, c.Validate()
}

func (c Server) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("%w: server addr is empty", ErrInvalidConfig)
	}
	if !c.Turn.Enabled {
		return nil
	}
	if net.ParseIP(c.Turn.PublicIP) == nil {
		return fmt.Errorf("%w: turn public ip %q", ErrInvalidConfig, c.Turn.PublicIP)
	}
	if len(c.Turn.Credentials) == 0 {
		return fmt.Errorf("%w: turn needs at least one credential", ErrInvalidConfig)
	}
	return validatePortRange(c.Turn.PortRange)
}

func (c Server) SignalServerConfig() signalserver.Config {
	return signalserver.Config{
		Addr:       c.Server.Addr,
		ICEServers: iceServers(c.WebRTC.ICEServers),
		Keepalive:  c.Server.Keepalive.options(),
		TURN: signalserver.TURNConfig{
			Enabled:     c.Turn.Enabled,
			Realm:       c.Turn.Realm,
			Address:     c.Turn.Address,
			PublicIP:    c.Turn.PublicIP,
			PortRange:   c.Turn.PortRange,
			Credentials: c.Turn.Credentials,
		},
		ShutdownTimeout:   seconds(c.Server.ShutdownTimeout),
		MaxUsernameLength: c.Server.MaxUsernameLength,
	}
}

func (c Server) RedisConfig() signalserver.RedisConfig {
	return signalserver.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Key:      c.Redis.Key,
		TTL:      seconds(c.Redis.TTL),
	}
}
