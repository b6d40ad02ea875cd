package signalserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/HMasataka/logging"
	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/pion/webrtc/v4"
	"github.com/sourcegraph/jsonrpc2"
)

var ErrUnknownPeer = errors.New("unknown peer")

// notifier is the part of a jsonrpc2 connection the hub writes to.
type notifier interface {
	Notify(ctx context.Context, method string, params any, opts ...jsonrpc2.CallOption) error
}

type peer struct {
	id       string
	username string
	conn     notifier
	close    func() error
	joinedAt time.Time
}

// Hub tracks connected peers and relays call messages between them.
type Hub struct {
	presence   Presence
	metrics    Metrics
	iceServers []webrtc.ICEServer

	mu    sync.RWMutex
	peers map[string]*peer
}

func NewHub(presence Presence, metrics Metrics, iceServers []webrtc.ICEServer) *Hub {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	return &Hub{
		presence:   presence,
		metrics:    metrics,
		iceServers: iceServers,
		peers:      make(map[string]*peer),
	}
}

// Register adds p, greets it with its id and announces the new user list.
// An older connection under the same id is closed and replaced.
func (h *Hub) Register(ctx context.Context, p *peer) error {
	h.mu.Lock()
	previous := h.peers[p.id]
	h.peers[p.id] = p
	h.mu.Unlock()

	if previous != nil && previous != p {
		slog.Info("replacing stale connection", slog.String("id", p.id))
		if previous.close != nil {
			if err := previous.close(); err != nil {
				slog.Warn("failed to close stale connection", slog.String("id", p.id), slog.String("error", err.Error()))
			}
		}
	}

	if err := h.presence.Join(ctx, payload.User{ID: p.id, Username: p.username}); err != nil {
		slog.Error("failed to record presence", slog.String("id", p.id), slog.String("error", err.Error()))
	}
	h.metrics.ConnectionOpened()

	greeting := payload.Connect{ID: p.id, Username: p.username, ICEServers: h.iceServers}
	if err := p.conn.Notify(ctx, string(payload.EventConnect), greeting); err != nil {
		return fmt.Errorf("failed to greet peer: %w", err)
	}

	if logging.HasLoggingContext(ctx) {
		slog.InfoContext(ctx, "peer connected", slog.String("id", p.id), slog.String("username", p.username))
	} else {
		slog.Info("peer connected", slog.String("id", p.id), slog.String("username", p.username))
	}

	h.broadcastUserList(ctx)
	return nil
}

// Unregister removes p and tells everyone else it is gone. A connection that
// was already replaced by a newer one under the same id leaves no trace.
func (h *Hub) Unregister(ctx context.Context, p *peer) {
	id := p.id

	h.mu.Lock()
	current, ok := h.peers[id]
	if ok && current == p {
		delete(h.peers, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}
	if current != p {
		h.metrics.ConnectionClosed(time.Since(p.joinedAt))
		slog.Debug("stale connection closed", slog.String("id", id))
		return
	}

	if err := h.presence.Leave(ctx, id); err != nil {
		slog.Error("failed to remove presence", slog.String("id", id), slog.String("error", err.Error()))
	}
	h.metrics.ConnectionClosed(time.Since(p.joinedAt))

	for _, other := range h.snapshot() {
		h.notify(ctx, other, payload.EventUserDisconnected, id)
	}
	h.broadcastUserList(ctx)

	slog.Info("peer disconnected", slog.String("id", id), slog.String("username", p.username))
}

// Relay forwards a call message from sender to the peer named in its "to"
// field, stamping "from". A missing target is reported back to the sender as
// user-disconnected so the caller fails fast.
func (h *Hub) Relay(ctx context.Context, senderID string, event payload.Event, raw json.RawMessage) error {
	sender, ok := h.peer(senderID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, senderID)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return fmt.Errorf("%w: %v", payload.ErrInvalidPayload, err)
	}

	var to string
	if err := json.Unmarshal(fields["to"], &to); err != nil || to == "" {
		return fmt.Errorf("%w: missing recipient", payload.ErrInvalidPayload)
	}

	fields["from"], _ = json.Marshal(sender.id)
	if _, ok := fields["username"]; event == payload.EventOffer && !ok {
		fields["username"], _ = json.Marshal(sender.username)
	}

	target, ok := h.peer(to)
	if !ok {
		h.metrics.RelayFailed(string(event))
		if event != payload.EventEndCall {
			h.notify(ctx, sender, payload.EventUserDisconnected, to)
		}
		return fmt.Errorf("%w: %s", ErrUnknownPeer, to)
	}

	h.notify(ctx, target, event, fields)
	h.metrics.MessageRelayed(string(event))
	return nil
}

// CloseAll drops every connection. Each one unregisters as it goes down.
func (h *Hub) CloseAll() {
	for _, p := range h.snapshot() {
		if p.close == nil {
			continue
		}
		if err := p.close(); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
			slog.Warn("failed to close peer", slog.String("id", p.id), slog.String("error", err.Error()))
		}
	}
}

// Users returns the announced user list.
func (h *Hub) Users(ctx context.Context) ([]payload.User, error) {
	return h.presence.List(ctx)
}

// Len is the number of locally connected peers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.peers)
}

func (h *Hub) peer(id string) (*peer, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.peers[id]
	return p, ok
}

func (h *Hub) snapshot() []*peer {
	h.mu.RLock()
	defer h.mu.RUnlock()

	peers := make([]*peer, 0, len(h.peers))
	for _, p := range h.peers {
		peers = append(peers, p)
	}
	return peers
}

func (h *Hub) broadcastUserList(ctx context.Context) {
	users, err := h.presence.List(ctx)
	if err != nil {
		slog.Error("failed to list users", slog.String("error", err.Error()))
		return
	}
	if users == nil {
		users = []payload.User{}
	}

	for _, p := range h.snapshot() {
		h.notify(ctx, p, payload.EventUserList, users)
	}
}

func (h *Hub) notify(ctx context.Context, p *peer, event payload.Event, params any) {
	if err := p.conn.Notify(ctx, string(event), params); err != nil && !errors.Is(err, jsonrpc2.ErrClosed) {
		slog.Warn("failed to notify peer",
			slog.String("id", p.id),
			slog.String("event", string(event)),
			slog.String("error", err.Error()),
		)
	}
}
