package signaling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/HMasataka/teamcall/pkg/retry"
	ws "github.com/gorilla/websocket"
	"github.com/pion/webrtc/v4"
	"github.com/sourcegraph/jsonrpc2"
	wsjsonrpc2 "github.com/sourcegraph/jsonrpc2/websocket"
)

var (
	ErrNotConnected = errors.New("signaling: not connected")
	ErrClosed       = errors.New("signaling: client closed")
)

// Identity tags the connection on the server.
type Identity struct {
	Username string
	Token    string
}

type Options struct {
	Retry            retry.Config
	Keepalive        KeepaliveOptions
	HandshakeTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Retry:            retry.DefaultConfig(),
		Keepalive:        DefaultKeepaliveOptions(),
		HandshakeTimeout: 10 * time.Second,
	}
}

// Client is a reconnecting signaling connection. Messages are never buffered
// across reconnects: Emit fails with ErrNotConnected while the link is down.
type Client struct {
	url      string
	identity Identity
	options  Options
	registry HandlerRegistry

	mu         sync.RWMutex
	conn       *jsonrpc2.Conn
	selfID     string
	iceServers []webrtc.ICEServer
	started    bool
	closed     bool
	cancel     context.CancelFunc
	done       chan struct{}
}

func New(serverURL string, identity Identity, options Options) *Client {
	return &Client{
		url:      serverURL,
		identity: identity,
		options:  options,
		registry: NewHandlerRegistry(),
		done:     make(chan struct{}),
	}
}

// On registers handler for event, replacing any previous one.
func (c *Client) On(event payload.Event, handler HandlerFunc) {
	c.registry.Register(event, handler)
}

func (c *Client) Off(event payload.Event) {
	c.registry.Unregister(event)
}

// Emit sends event without waiting for any acknowledgement.
func (c *Client) Emit(ctx context.Context, event payload.Event, v any) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return ErrNotConnected
	}

	if err := conn.Notify(ctx, string(event), v); err != nil {
		return fmt.Errorf("failed to emit %s: %w", event, err)
	}

	return nil
}

// Connected reports whether the server has registered this connection.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// ID returns the server assigned connection id, empty while disconnected.
func (c *Client) ID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfID
}

// ICEServers returns the ICE servers advertised by the server.
func (c *Client) ICEServers() []webrtc.ICEServer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iceServers
}

// Start connects in the background and keeps reconnecting until Close.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started || c.closed {
		return
	}
	c.started = true

	ctx, c.cancel = context.WithCancel(ctx)
	go c.run(ctx)
}

// Close disconnects. It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	started := c.started
	cancel := c.cancel
	c.mu.Unlock()

	if !started {
		close(c.done)
		return nil
	}

	cancel()
	<-c.done

	return nil
}

// Done is closed when the client stops for good.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)

	for {
		conn, err := c.connect(ctx)
		if err != nil {
			if ctx.Err() == nil {
				slog.Error("signaling reconnect gave up", slog.String("error", err.Error()))
			}
			return
		}

		select {
		case <-conn.DisconnectNotify():
			c.clearConn(conn)
			slog.Warn("signaling disconnected", slog.String("url", c.url))
			c.registry.Dispatch(ctx, payload.EventDisconnect, nil)
		case <-ctx.Done():
			c.clearConn(conn)
			if err := conn.Close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
				slog.Warn("failed to close signaling connection", slog.String("error", err.Error()))
			}
			return
		}
	}
}

type dialExecutor struct {
	client *Client
	conn   *jsonrpc2.Conn
	failed bool
}

func (e *dialExecutor) DetermineAction() retry.Action {
	if e.failed {
		e.failed = false
		return retry.Wait
	}
	return retry.Execute
}

func (e *dialExecutor) Execute(ctx context.Context, attempt int) bool {
	conn, err := e.client.dial(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		slog.Warn("failed to connect signaling", slog.Int("attempt", attempt), slog.String("error", err.Error()))
		e.client.dispatchConnectError(ctx, err)
		e.failed = true
		return !retry.ShouldRetry(err)
	}

	e.conn = conn
	return true
}

func (c *Client) connect(ctx context.Context) (*jsonrpc2.Conn, error) {
	e := &dialExecutor{client: c}
	if err := retry.Run(ctx, c.options.Retry, e); err != nil {
		return nil, err
	}
	if e.conn == nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotConnected
	}
	return e.conn, nil
}

func (c *Client) dial(ctx context.Context) (*jsonrpc2.Conn, error) {
	u, err := url.Parse(c.url)
	if err != nil {
		return nil, fmt.Errorf("invalid signaling url: %w", err)
	}

	q := u.Query()
	q.Set("username", c.identity.Username)
	if c.identity.Token != "" {
		q.Set("token", c.identity.Token)
	}
	u.RawQuery = q.Encode()

	dialer := ws.Dialer{HandshakeTimeout: c.options.HandshakeTimeout}
	wsConn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	PrepareConn(wsConn, c.options.Keepalive)

	conn := jsonrpc2.NewConn(ctx, wsjsonrpc2.NewObjectStream(wsConn), c)
	go Keepalive(ctx, wsConn, c.options.Keepalive, conn.DisconnectNotify())

	return conn, nil
}

func (c *Client) clearConn(conn *jsonrpc2.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == conn {
		c.conn = nil
		c.selfID = ""
	}
}

func (c *Client) dispatchConnectError(ctx context.Context, cause error) {
	raw, err := json.Marshal(payload.ConnectError{Message: cause.Error()})
	if err != nil {
		return
	}
	c.registry.Dispatch(ctx, payload.EventConnectError, raw)
}

// Handle validates server notifications before dispatching them.
func (c *Client) Handle(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) {
	event := payload.Event(request.Method)

	var raw json.RawMessage
	if request.Params != nil {
		raw = *request.Params
	}

	if event == payload.EventDisconnect || event == payload.EventConnectError {
		slog.Warn("ignoring local lifecycle event from server", slog.String("event", request.Method))
		return
	}

	if err := payload.Validate(event, raw); err != nil {
		slog.Warn("dropping invalid signaling message", slog.String("event", request.Method), slog.String("error", err.Error()))
		if !request.Notif {
			replyErr := &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
			if err := conn.ReplyWithError(ctx, request.ID, replyErr); err != nil {
				slog.Error("failed to send error reply", "error", err)
			}
		}
		return
	}

	if event == payload.EventConnect {
		msg, _ := payload.DecodeConnect(raw)
		c.mu.Lock()
		c.conn = conn
		c.selfID = msg.ID
		c.iceServers = msg.ICEServers
		c.mu.Unlock()
		slog.Info("signaling connected", slog.String("id", msg.ID), slog.String("username", msg.Username))
	}

	if !c.registry.Dispatch(ctx, event, raw) {
		slog.Debug("no handler for signaling event", slog.String("event", request.Method))
	}
}
