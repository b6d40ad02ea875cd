package call

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/HMasataka/teamcall/internal/signaling"
	payload "github.com/HMasataka/teamcall/payload/signaling"
	"github.com/HMasataka/teamcall/pkg/media"
	"github.com/gammazero/workerpool"
	"github.com/pion/webrtc/v4"
	"github.com/samber/lo"
)

type Config struct {
	// DisplayName is sent with outgoing offers.
	DisplayName string
	// ICEServers overrides the servers announced by the signaling server.
	ICEServers []webrtc.ICEServer
	// GraceWindow is how long ICE may stay disconnected before the call fails.
	GraceWindow time.Duration
	// RestartICE makes the caller send an ICE restart offer on disruption.
	RestartICE      bool
	UnknownPeerName string
	EmitTimeout     time.Duration
	// SDPDumpDir enables writing every local and remote description to disk.
	SDPDumpDir string
}

func DefaultConfig() Config {
	return Config{
		GraceWindow:     2 * time.Second,
		RestartICE:      true,
		UnknownPeerName: "Unknown",
		EmitTimeout:     5 * time.Second,
	}
}

type Deps struct {
	Signaling   Signaling
	Factory     PeerConnectionFactory
	Media       media.Source
	Permissions media.Permissions
	AudioRoute  AudioRoute
	Observer    Observer
}

// Engine runs the call state machine. All session state is owned by the
// goroutine in Run; public methods post closures to it. Blocking work such as
// media capture and SDP creation runs on a single worker so effects of one
// call execute in order.
type Engine struct {
	config   Config
	deps     Deps
	observer Observer

	actions chan func()
	pool    *workerpool.WorkerPool
	quit    chan struct{}
	done    chan struct{}

	closeOnce sync.Once
	runOnce   sync.Once

	ctx        context.Context
	session    *CallSession
	ring       *ring
	users      []payload.User
	subscribed bool
}

func NewEngine(config Config, deps Deps) *Engine {
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	if deps.AudioRoute == nil {
		deps.AudioRoute = NopAudioRoute{}
	}
	if deps.Permissions == nil {
		deps.Permissions = media.StaticPermissions(true)
	}
	if config.UnknownPeerName == "" {
		config.UnknownPeerName = DefaultConfig().UnknownPeerName
	}
	if config.EmitTimeout <= 0 {
		config.EmitTimeout = DefaultConfig().EmitTimeout
	}

	return &Engine{
		config:   config,
		deps:     deps,
		observer: deps.Observer,
		actions:  make(chan func()),
		pool:     workerpool.New(1),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		ctx:      context.Background(),
	}
}

// Run processes events until ctx is cancelled or Close is called. An active
// call is hung up on the way out.
func (e *Engine) Run(ctx context.Context) error {
	err := ErrEngineClosed
	e.runOnce.Do(func() {
		err = e.run(ctx)
	})
	return err
}

func (e *Engine) run(ctx context.Context) error {
	e.ctx = ctx
	e.registerProcessHandlers()

	defer func() {
		e.unregisterProcessHandlers()
		if s := e.session; s != nil {
			e.fire(s, EventLocalHangup, nil)
		}
		if r := e.ring; r != nil {
			e.ring = nil
			e.sendEndCall(r.call.PeerID)
		}
		e.unsubscribe()
		close(e.done)
		e.pool.Stop()
	}()

	for {
		select {
		case fn := <-e.actions:
			e.safely(fn)
		case <-ctx.Done():
			return ctx.Err()
		case <-e.quit:
			return nil
		}
	}
}

// Close stops Run.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		close(e.quit)
	})
	return nil
}

func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) safely(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("call engine action panicked", slog.Any("panic", r))
		}
	}()
	fn()
}

func (e *Engine) post(fn func()) bool {
	select {
	case e.actions <- fn:
		return true
	case <-e.done:
		return false
	}
}

// dispatch runs fn on the loop and waits for it, so a signaling message has
// been fully handled before the next one is read.
func (e *Engine) dispatch(fn func()) {
	done := make(chan struct{})
	if !e.post(func() {
		defer close(done)
		fn()
	}) {
		return
	}

	select {
	case <-done:
	case <-e.done:
	}
}

// postFor posts fn unless s has been torn down first.
func (e *Engine) postFor(s *CallSession, fn func()) bool {
	select {
	case e.actions <- fn:
		return true
	case <-e.done:
		return false
	case <-s.ctx.Done():
		return false
	}
}

// call runs fn on the loop and waits for its result.
func (e *Engine) call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)

	select {
	case e.actions <- func() { result <- fn() }:
	case <-e.done:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-result:
		return err
	case <-e.done:
		return ErrEngineClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// submit queues task on the worker. A panicking task fails the call.
func (e *Engine) submit(s *CallSession, task func()) {
	e.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("call effect panicked", slog.String("call_id", s.ID), slog.Any("panic", r))
				e.result(s, EventNegotiationFailed, fmt.Errorf("%w: %v", ErrNegotiation, r))
			}
		}()
		task()
	})
}

// result feeds the outcome of a worker task back into the state machine.
func (e *Engine) result(s *CallSession, ev Event, cause error) {
	e.postFor(s, func() {
		e.fire(s, ev, cause)
	})
}

// fire applies ev to s. Events for a session that is no longer current are
// dropped.
func (e *Engine) fire(s *CallSession, ev Event, cause error) {
	if s != e.session {
		slog.Debug("dropping event for stale call", slog.String("call_id", s.ID), slog.String("event", ev.String()))
		return
	}

	prev := s.status
	next, effects, ok := Transition(prev, ev)
	if !ok {
		slog.Debug("ignored call event",
			slog.String("call_id", s.ID),
			slog.String("status", prev.String()),
			slog.String("event", ev.String()),
		)
		return
	}

	s.status = next
	switch {
	case next == StatusFailed && prev != StatusFailed:
		s.failure = failure(ev, cause)
		s.reason = s.failure.Reason
	case next == StatusEnded && s.reason == ReasonNone:
		s.reason = hangupReason(ev)
	case next == StatusConnected && s.connectedAt.IsZero():
		s.connectedAt = time.Now()
	}

	if next != prev {
		slog.Info("call status changed",
			slog.String("call_id", s.ID),
			slog.String("peer_id", s.PeerID),
			slog.String("from", prev.String()),
			slog.String("to", next.String()),
			slog.String("event", ev.String()),
		)
		e.observer.OnStatusChange(s.snapshot())
		if next == StatusFailed {
			slog.Warn("call failed", slog.String("call_id", s.ID), slog.String("error", s.failure.Error()))
			e.observer.OnCallFailed(s.snapshot(), s.failure)
		}
	}

	for _, effect := range effects {
		e.apply(s, effect)
	}
}

func hangupReason(ev Event) Reason {
	if ev == EventRemoteHangup {
		return ReasonRemoteHangup
	}
	return ReasonLocalHangup
}

func (e *Engine) apply(s *CallSession, effect Effect) {
	switch effect {
	case EffectRequestPermission:
		e.submit(s, func() { e.requestPermission(s) })
	case EffectAcquireMedia:
		facing := s.facing
		e.submit(s, func() { e.acquireMedia(s, facing) })
	case EffectNegotiate:
		offer := s.remoteOffer
		servers := e.iceServers()
		s.awaitingAnswer = s.Direction == DirectionOutgoing
		e.submit(s, func() { e.negotiate(s, servers, offer) })
	case EffectApplyAnswer:
		answer := s.remoteAnswer
		e.submit(s, func() { e.applyAnswer(s, answer) })
	case EffectAnswerOffer:
		offer := s.renegotiation
		e.submit(s, func() { e.answerRenegotiation(s, offer) })
	case EffectSendEndCall:
		e.sendEndCall(s.PeerID)
	case EffectStartGrace:
		e.startGrace(s)
	case EffectCancelGrace:
		e.cancelGrace(s)
	case EffectRestartICE:
		if e.config.RestartICE && s.Direction == DirectionOutgoing && !s.restarting {
			s.restarting = true
			s.awaitingAnswer = true
			e.submit(s, func() { e.restartICE(s) })
		}
	case EffectTeardown:
		e.teardown(s)
	}
}

func (e *Engine) startGrace(s *CallSession) {
	if s.interrupted {
		return
	}
	s.interrupted = true
	s.graceGen++
	gen := s.graceGen
	s.grace(func() {
		e.postFor(s, func() {
			if s.interrupted && s.graceGen == gen {
				e.fire(s, EventGraceExpired, ErrConnectivityLost)
			}
		})
	})
	e.observer.OnStatusChange(s.snapshot())
}

func (e *Engine) cancelGrace(s *CallSession) {
	s.restarting = false
	if !s.interrupted {
		return
	}
	s.interrupted = false
	s.graceGen++
	s.grace(func() {})
	e.observer.OnStatusChange(s.snapshot())
}

// teardown releases everything s holds. It runs at most once per session.
func (e *Engine) teardown(s *CallSession) {
	pc, local, first := s.release()
	if !first {
		return
	}

	s.cancel()
	s.graceGen++
	s.grace(func() {})

	if local != nil {
		local.Stop()
	}
	if pc != nil {
		if err := pc.Close(); err != nil {
			slog.Warn("failed to close peer connection", slog.String("call_id", s.ID), slog.String("error", err.Error()))
		}
	}

	if e.session == s {
		e.session = nil
	}
	e.unsubscribe()

	s.endedAt = time.Now()
	if next, _, ok := Transition(s.status, EventTornDown); ok {
		s.status = next
		e.observer.OnStatusChange(s.snapshot())
	}

	slog.Info("call ended",
		slog.String("call_id", s.ID),
		slog.String("peer_id", s.PeerID),
		slog.String("reason", string(s.reason)),
	)
	e.observer.OnCallEnded(s.snapshot())
}

func (e *Engine) iceServers() []webrtc.ICEServer {
	if len(e.config.ICEServers) > 0 {
		return e.config.ICEServers
	}
	return e.deps.Signaling.ICEServers()
}

func (e *Engine) emit(ctx context.Context, event payload.Event, v any) error {
	ctx, cancel := context.WithTimeout(ctx, e.config.EmitTimeout)
	defer cancel()
	return e.deps.Signaling.Emit(ctx, event, v)
}

// sendEndCall notifies peerID. A peer that is already gone is not an error.
func (e *Engine) sendEndCall(peerID string) {
	if err := e.emit(context.Background(), payload.EventEndCall, payload.EndCall{To: peerID}); err != nil {
		slog.Debug("failed to send end-call", slog.String("peer_id", peerID), slog.String("error", err.Error()))
	}
}

func (e *Engine) registerProcessHandlers() {
	sig := e.deps.Signaling
	sig.On(payload.EventConnect, func(_ context.Context, raw json.RawMessage) {
		msg, err := payload.DecodeConnect(raw)
		if err != nil {
			slog.Warn("invalid connect payload", slog.String("error", err.Error()))
			return
		}
		e.dispatch(func() {
			slog.Info("signaling connected", slog.String("id", msg.ID))
			e.observer.OnConnected(msg.ID)
		})
	})
	sig.On(payload.EventConnectError, func(_ context.Context, raw json.RawMessage) {
		msg, err := payload.DecodeConnectError(raw)
		if err != nil {
			slog.Warn("invalid connect_error payload", slog.String("error", err.Error()))
			return
		}
		e.dispatch(func() { e.handleSignalingLost(fmt.Errorf("%w: %s", signaling.ErrNotConnected, msg.Message)) })
	})
	sig.On(payload.EventDisconnect, func(context.Context, json.RawMessage) {
		e.dispatch(func() { e.handleSignalingLost(signaling.ErrNotConnected) })
	})
	sig.On(payload.EventUserList, relay(e, payload.DecodeUserList, e.handleUserList))
	sig.On(payload.EventOffer, relay(e, payload.DecodeOffer, e.handleOffer))
}

func (e *Engine) unregisterProcessHandlers() {
	for _, event := range []payload.Event{
		payload.EventConnect,
		payload.EventConnectError,
		payload.EventDisconnect,
		payload.EventUserList,
		payload.EventOffer,
	} {
		e.deps.Signaling.Off(event)
	}
}

// subscribe registers the handlers that only matter while a call or ring is
// pending.
func (e *Engine) subscribe() {
	if e.subscribed {
		return
	}
	e.subscribed = true

	sig := e.deps.Signaling
	sig.On(payload.EventAnswer, relay(e, payload.DecodeAnswer, e.handleAnswer))
	sig.On(payload.EventICECandidate, relay(e, payload.DecodeICECandidate, e.handleCandidate))
	sig.On(payload.EventEndCall, relay(e, payload.DecodeEndCall, func(msg *payload.EndCall) {
		e.handlePeerGone(msg.From, EventRemoteHangup)
	}))
	sig.On(payload.EventUserDisconnected, relay(e, payload.DecodeUserDisconnected, func(id string) {
		e.handlePeerGone(id, EventRemoteHangup)
	}))
}

func (e *Engine) unsubscribe() {
	if !e.subscribed || e.session != nil || e.ring != nil {
		return
	}
	e.subscribed = false

	sig := e.deps.Signaling
	sig.Off(payload.EventAnswer)
	sig.Off(payload.EventICECandidate)
	sig.Off(payload.EventEndCall)
	sig.Off(payload.EventUserDisconnected)
}

// relay decodes a signaling payload and hands it to the loop.
func relay[T any](e *Engine, decode func(json.RawMessage) (T, error), handle func(T)) signaling.HandlerFunc {
	return func(_ context.Context, raw json.RawMessage) {
		msg, err := decode(raw)
		if err != nil {
			slog.Warn("dropping invalid signaling payload", slog.String("error", err.Error()))
			return
		}
		e.dispatch(func() { handle(msg) })
	}
}

func (e *Engine) handleUserList(users []payload.User) {
	e.users = users
	e.observer.OnUserList(e.visibleUsers())
}

func (e *Engine) visibleUsers() []payload.User {
	self := e.deps.Signaling.ID()
	return lo.Filter(e.users, func(u payload.User, _ int) bool {
		return u.ID != self
	})
}

func (e *Engine) displayName(peerID, announced string) string {
	if announced != "" {
		return announced
	}
	if u, ok := lo.Find(e.users, func(u payload.User) bool { return u.ID == peerID }); ok && u.Username != "" {
		return u.Username
	}
	return e.config.UnknownPeerName
}

func (e *Engine) handleSignalingLost(cause error) {
	e.observer.OnSignalingError(cause)
	if s := e.session; s != nil {
		e.fire(s, EventSignalingLost, cause)
	}
}
