package signalserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/HMasataka/teamcall/internal/signaling"
	"github.com/gin-gonic/gin"
	ws "github.com/gorilla/websocket"
	"github.com/pion/turn/v2"
	"github.com/pion/webrtc/v4"
	"github.com/rs/xid"
	"github.com/sourcegraph/jsonrpc2"
	wsjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"
)

type Config struct {
	Addr            string
	ICEServers      []webrtc.ICEServer
	Keepalive       signaling.KeepaliveOptions
	TURN            TURNConfig
	ShutdownTimeout time.Duration
	// MaxUsernameLength truncates longer display names.
	MaxUsernameLength int
}

func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		Keepalive:         signaling.DefaultKeepaliveOptions(),
		ShutdownTimeout:   5 * time.Second,
		MaxUsernameLength: 64,
	}
}

type Option func(*Server)

// WithMetrics records server counters and exposes handler on /metrics.
func WithMetrics(metrics Metrics, handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = metrics
		s.metricsHandler = handler
	}
}

// Server is the signaling relay.
type Server struct {
	config         Config
	verifier       Verifier
	metrics        Metrics
	metricsHandler http.Handler
	hub            *Hub
	upgrader       ws.Upgrader
	router         *gin.Engine
	turn           *turn.Server
}

// New builds a server. A nil verifier accepts the username query parameter
// as is.
func New(config Config, presence Presence, verifier Verifier, opts ...Option) *Server {
	if presence == nil {
		presence = NewMemoryPresence()
	}

	s := &Server{
		config:   config,
		verifier: verifier,
		metrics:  NopMetrics{},
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	iceServers := append([]webrtc.ICEServer(nil), config.ICEServers...)
	iceServers = append(iceServers, TURNICEServers(config.TURN)...)
	s.hub = NewHub(presence, s.metrics, iceServers)
	s.router = s.routes()

	return s
}

func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/ws", s.handleWebSocket)
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	router.GET("/users", s.handleUsers)
	if s.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(s.metricsHandler))
	}

	return router
}

func (s *Server) handleUsers(c *gin.Context) {
	users, err := s.hub.Users(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (s *Server) identify(c *gin.Context) (Identity, error) {
	username := truncate(c.Query("username"), s.config.MaxUsernameLength)

	if s.verifier == nil {
		return Identity{UserID: xid.New().String(), Username: username}, nil
	}

	identity, err := s.verifier.Verify(c.Query("token"))
	if err != nil {
		return Identity{}, err
	}
	if identity.Username == "" {
		identity.Username = username
	}
	return identity, nil
}

// truncate cuts name to at most limit characters.
func truncate(name string, limit int) string {
	if limit <= 0 {
		return name
	}
	runes := []rune(name)
	if len(runes) <= limit {
		return name
	}
	return string(runes[:limit])
}

func (s *Server) handleWebSocket(c *gin.Context) {
	identity, err := s.identify(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	wsConn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("failed to upgrade connection", slog.String("error", err.Error()))
		return
	}
	signaling.PrepareConn(wsConn, s.config.Keepalive)

	ctx := context.WithoutCancel(c.Request.Context())
	handler := &peerHandler{id: identity.UserID, hub: s.hub}
	conn := jsonrpc2.NewConn(ctx, wsjsonrpc2.NewObjectStream(wsConn), handler)
	go signaling.Keepalive(ctx, wsConn, s.config.Keepalive, conn.DisconnectNotify())

	p := &peer{id: identity.UserID, username: identity.Username, conn: conn, close: conn.Close, joinedAt: time.Now()}
	if err := s.hub.Register(ctx, p); err != nil {
		slog.Error("failed to register peer", slog.String("id", p.id), slog.String("error", err.Error()))
		s.hub.Unregister(ctx, p)
		_ = conn.Close()
		return
	}

	<-conn.DisconnectNotify()
	s.hub.Unregister(ctx, p)
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.config.TURN.Enabled {
		ts, err := StartTURN(s.config.TURN)
		if err != nil {
			return err
		}
		s.turn = ts
		defer func() {
			if err := ts.Close(); err != nil {
				slog.Warn("failed to close turn server", slog.String("error", err.Error()))
			}
		}()
	}

	server := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("signaling server starting", slog.String("addr", s.config.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	err := server.Shutdown(shutdownCtx)
	// hijacked websocket connections are not tracked by http.Server
	s.hub.CloseAll()
	if err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
