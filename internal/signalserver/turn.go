package signalserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/pion/turn/v2"
	"github.com/pion/webrtc/v4"
)

var ErrTURNConfig = errors.New("invalid turn config")

type TURNConfig struct {
	Enabled   bool
	Realm     string
	Address   string
	PublicIP  string
	PortRange []uint16
	// Credentials maps username to password.
	Credentials map[string]string
}

// StartTURN runs an embedded TURN server for clients behind symmetric NAT.
func StartTURN(cfg TURNConfig) (*turn.Server, error) {
	relayIP := net.ParseIP(cfg.PublicIP)
	if relayIP == nil {
		return nil, fmt.Errorf("%w: public ip %q", ErrTURNConfig, cfg.PublicIP)
	}
	if len(cfg.PortRange) != 0 && len(cfg.PortRange) != 2 {
		return nil, fmt.Errorf("%w: port range needs two ports", ErrTURNConfig)
	}

	addr := cfg.Address
	if addr == "" {
		addr = "0.0.0.0:3478"
	}
	udpListener, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create turn listener: %w", err)
	}

	var generator turn.RelayAddressGenerator = &turn.RelayAddressGeneratorStatic{
		RelayAddress: relayIP,
		Address:      "0.0.0.0",
	}
	if len(cfg.PortRange) == 2 {
		generator = &turn.RelayAddressGeneratorPortRange{
			RelayAddress: relayIP,
			Address:      "0.0.0.0",
			MinPort:      cfg.PortRange[0],
			MaxPort:      cfg.PortRange[1],
		}
	}

	keys := make(map[string][]byte, len(cfg.Credentials))
	for username, password := range cfg.Credentials {
		keys[username] = turn.GenerateAuthKey(username, cfg.Realm, password)
	}

	server, err := turn.NewServer(turn.ServerConfig{
		Realm: cfg.Realm,
		AuthHandler: func(username, realm string, srcAddr net.Addr) ([]byte, bool) {
			key, ok := keys[username]
			if !ok {
				slog.Warn("turn auth failed", slog.String("username", username), slog.String("addr", srcAddr.String()))
			}
			return key, ok
		},
		PacketConnConfigs: []turn.PacketConnConfig{
			{
				PacketConn:            udpListener,
				RelayAddressGenerator: generator,
			},
		},
	})
	if err != nil {
		_ = udpListener.Close()
		return nil, fmt.Errorf("failed to start turn server: %w", err)
	}

	slog.Info("turn server started", slog.String("addr", addr), slog.String("realm", cfg.Realm))
	return server, nil
}

// TURNICEServers lists the embedded server for every credential so clients
// learn about it from the connect greeting.
func TURNICEServers(cfg TURNConfig) []webrtc.ICEServer {
	if !cfg.Enabled {
		return nil
	}

	_, port, err := net.SplitHostPort(cfg.Address)
	if err != nil || port == "" {
		port = "3478"
	}
	url := fmt.Sprintf("turn:%s:%s?transport=udp", cfg.PublicIP, port)

	servers := make([]webrtc.ICEServer, 0, len(cfg.Credentials))
	for username, password := range cfg.Credentials {
		servers = append(servers, webrtc.ICEServer{
			URLs:       []string{url},
			Username:   username,
			Credential: password,
		})
	}
	return servers
}
