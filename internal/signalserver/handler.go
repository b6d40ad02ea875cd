package signalserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/sourcegraph/jsonrpc2"
)

// peerHandler handles messages sent by one connected peer.
type peerHandler struct {
	id  string
	hub *Hub
}

func (h *peerHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request) {
	event := payload.Event(request.Method)

	if !event.Relayed() {
		slog.Warn("unknown method", slog.String("id", h.id), slog.String("method", request.Method))
		h.replyError(ctx, conn, request, jsonrpc2.CodeMethodNotFound, "method not found")
		return
	}

	var raw json.RawMessage
	if request.Params != nil {
		raw = *request.Params
	}

	if err := payload.Validate(event, raw); err != nil {
		slog.Warn("invalid params", slog.String("id", h.id), slog.String("method", request.Method), slog.String("error", err.Error()))
		h.replyError(ctx, conn, request, jsonrpc2.CodeInvalidParams, "Invalid params")
		return
	}

	if err := h.hub.Relay(ctx, h.id, event, raw); err != nil {
		if errors.Is(err, ErrUnknownPeer) {
			slog.Debug("relay target not connected", slog.String("id", h.id), slog.String("error", err.Error()))
		} else {
			slog.Warn("failed to relay", slog.String("id", h.id), slog.String("error", err.Error()))
		}
		h.replyError(ctx, conn, request, jsonrpc2.CodeInvalidParams, err.Error())
		return
	}

	if !request.Notif {
		if err := conn.Reply(ctx, request.ID, struct{}{}); err != nil {
			slog.Error("failed to send reply", "error", err)
		}
	}
}

func (h *peerHandler) replyError(ctx context.Context, conn *jsonrpc2.Conn, request *jsonrpc2.Request, code int64, message string) {
	if request.Notif {
		return
	}
	replyErr := &jsonrpc2.Error{Code: code, Message: message}
	if err := conn.ReplyWithError(ctx, request.ID, replyErr); err != nil {
		slog.Error("failed to send error reply", "error", err)
	}
}
