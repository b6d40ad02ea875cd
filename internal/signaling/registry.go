package signaling

import (
	"context"
	"encoding/json"
	"sync"

	payload "github.com/HMasataka/teamcall/payload/signaling"
)

// HandlerFunc handles one validated signaling event.
type HandlerFunc func(ctx context.Context, raw json.RawMessage)

type HandlerRegistry interface {
	Register(event payload.Event, handler HandlerFunc)

	Unregister(event payload.Event)

	Get(event payload.Event) (HandlerFunc, bool)

	Dispatch(ctx context.Context, event payload.Event, raw json.RawMessage) bool
}

// DefaultHandlerRegistry keeps at most one handler per event.
type DefaultHandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[payload.Event]HandlerFunc
}

func NewHandlerRegistry() *DefaultHandlerRegistry {
	return &DefaultHandlerRegistry{
		handlers: make(map[payload.Event]HandlerFunc),
	}
}

func (r *DefaultHandlerRegistry) Register(event payload.Event, handler HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = handler
}

func (r *DefaultHandlerRegistry) Unregister(event payload.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, event)
}

func (r *DefaultHandlerRegistry) Get(event payload.Event) (HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[event]
	return handler, ok && handler != nil
}

// Dispatch runs the handler for event and reports whether one was registered.
func (r *DefaultHandlerRegistry) Dispatch(ctx context.Context, event payload.Event, raw json.RawMessage) bool {
	handler, ok := r.Get(event)
	if !ok {
		return false
	}
	handler(ctx, raw)
	return true
}
