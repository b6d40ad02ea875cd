package signaling

import (
	"context"
	"time"

	ws "github.com/gorilla/websocket"
)

// KeepaliveOptions configures pings and read deadlines on a websocket.
type KeepaliveOptions struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	MaxMessageSize int64
}

func DefaultKeepaliveOptions() KeepaliveOptions {
	return KeepaliveOptions{
		ReadTimeout:    90 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   15 * time.Second,
		MaxMessageSize: 512 * 1024, // 512KB
	}
}

// PrepareConn sets the read limit and extends the read deadline on every pong.
func PrepareConn(conn *ws.Conn, options KeepaliveOptions) {
	if options.MaxMessageSize > 0 {
		conn.SetReadLimit(options.MaxMessageSize)
	}
	if options.ReadTimeout <= 0 {
		return
	}

	conn.SetReadDeadline(time.Now().Add(options.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(options.ReadTimeout))
		return nil
	})
}

// Keepalive pings conn until ctx or done ends or a ping fails.
func Keepalive(ctx context.Context, conn *ws.Conn, options KeepaliveOptions, done <-chan struct{}) {
	if options.PingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(options.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(options.WriteTimeout)
			if err := conn.WriteControl(ws.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}
