// Package metrics exposes call and relay counters to Prometheus.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/HMasataka/teamcall/internal/call"
	"github.com/HMasataka/teamcall/internal/signalserver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "teamcall"

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

type tracked struct {
	connected   bool
	interrupted bool
}

// CallMetrics is a call.Observer that records the lifecycle of every call.
type CallMetrics struct {
	call.NopObserver

	callsStarted     *prometheus.CounterVec
	callsConnected   *prometheus.CounterVec
	callsFailed      *prometheus.CounterVec
	callsEnded       *prometheus.CounterVec
	callsActive      prometheus.Gauge
	incomingCalls    prometheus.Counter
	iceInterruptions prometheus.Counter
	setupDuration    prometheus.Histogram
	callDuration     prometheus.Histogram

	mu    sync.Mutex
	calls map[string]*tracked
}

func New(reg prometheus.Registerer) *CallMetrics {
	factory := promauto.With(reg)

	return &CallMetrics{
		callsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_started_total",
			Help:      "Calls started, by direction",
		}, []string{"direction"}),
		callsConnected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_connected_total",
			Help:      "Calls that reached the connected state, by direction",
		}, []string{"direction"}),
		callsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_failed_total",
			Help:      "Failed calls, by reason",
		}, []string{"reason"}),
		callsEnded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_ended_total",
			Help:      "Ended calls, by reason",
		}, []string{"reason"}),
		callsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_active",
			Help:      "Calls that have started and not yet ended",
		}),
		incomingCalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "incoming_calls_total",
			Help:      "Offers that rang this client",
		}),
		iceInterruptions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ice_interruptions_total",
			Help:      "Times a call entered its ICE grace window",
		}),
		setupDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_setup_duration_seconds",
			Help:      "Time from call start to connected",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16},
		}),
		callDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Connected time of ended calls",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		calls: make(map[string]*tracked),
	}
}

func (m *CallMetrics) OnIncomingCall(call.IncomingCall) {
	m.incomingCalls.Inc()
}

func (m *CallMetrics) OnStatusChange(s call.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.calls[s.ID]
	if !ok {
		if s.Status.Terminal() {
			return
		}
		t = &tracked{}
		m.calls[s.ID] = t
		m.callsStarted.WithLabelValues(s.Direction.String()).Inc()
		m.callsActive.Inc()
	}

	if s.Status == call.StatusConnected && !t.connected {
		t.connected = true
		m.callsConnected.WithLabelValues(s.Direction.String()).Inc()
		if !s.ConnectedAt.IsZero() && !s.StartedAt.IsZero() {
			m.setupDuration.Observe(s.ConnectedAt.Sub(s.StartedAt).Seconds())
		}
	}

	if s.Interrupted && !t.interrupted {
		m.iceInterruptions.Inc()
	}
	t.interrupted = s.Interrupted
}

func (m *CallMetrics) OnCallFailed(_ call.Snapshot, err *call.CallError) {
	m.callsFailed.WithLabelValues(string(err.Reason)).Inc()
}

func (m *CallMetrics) OnCallEnded(s call.Snapshot) {
	m.callsEnded.WithLabelValues(string(s.Reason)).Inc()
	if d := s.Duration(); d > 0 {
		m.callDuration.Observe(d.Seconds())
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.calls[s.ID]; ok {
		delete(m.calls, s.ID)
		m.callsActive.Dec()
	}
}

// ServerMetrics implements signalserver.Metrics.
type ServerMetrics struct {
	connections        prometheus.Gauge
	connectionsTotal   prometheus.Counter
	connectionLifetime prometheus.Histogram
	relayed            *prometheus.CounterVec
	relayFailed        *prometheus.CounterVec
}

var _ signalserver.Metrics = (*ServerMetrics)(nil)

func NewServer(reg prometheus.Registerer) *ServerMetrics {
	factory := promauto.With(reg)

	return &ServerMetrics{
		connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "signaling",
			Name:      "connections",
			Help:      "Open signaling connections",
		}),
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signaling",
			Name:      "connections_total",
			Help:      "Accepted signaling connections",
		}),
		connectionLifetime: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "signaling",
			Name:      "connection_duration_seconds",
			Help:      "Lifetime of closed signaling connections",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		relayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signaling",
			Name:      "messages_relayed_total",
			Help:      "Messages delivered to their target, by event",
		}, []string{"event"}),
		relayFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "signaling",
			Name:      "relay_failures_total",
			Help:      "Messages whose target was not connected, by event",
		}, []string{"event"}),
	}
}

func (m *ServerMetrics) ConnectionOpened() {
	m.connections.Inc()
	m.connectionsTotal.Inc()
}

func (m *ServerMetrics) ConnectionClosed(lifetime time.Duration) {
	m.connections.Dec()
	m.connectionLifetime.Observe(lifetime.Seconds())
}

func (m *ServerMetrics) MessageRelayed(event string) {
	m.relayed.WithLabelValues(event).Inc()
}

func (m *ServerMetrics) RelayFailed(event string) {
	m.relayFailed.WithLabelValues(event).Inc()
}
