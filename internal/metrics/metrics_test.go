package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/HMasataka/teamcall/internal/call"
	"github.com/HMasataka/teamcall/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snapshot(id string, status call.Status) call.Snapshot {
	return call.Snapshot{ID: id, Direction: call.DirectionOutgoing, PeerID: "bob", Status: status}
}

func TestCallMetrics(t *testing.T) {
	t.Run("接続して終了した通話", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		started := time.Now()
		s := snapshot("c1", call.StatusAcquiringMedia)
		s.StartedAt = started
		m.OnStatusChange(s)
		s.Status = call.StatusNegotiating
		m.OnStatusChange(s)

		assert.Equal(t, 1, count(t, reg, "teamcall_calls_started_total"))
		assert.InDelta(t, 1, gauge(t, reg, "teamcall_calls_active"), 0)

		s.Status = call.StatusConnected
		s.ConnectedAt = started.Add(time.Second)
		m.OnStatusChange(s)
		m.OnStatusChange(s)

		s.Interrupted = true
		m.OnStatusChange(s)
		m.OnStatusChange(s)
		s.Interrupted = false
		m.OnStatusChange(s)

		s.Status = call.StatusEnded
		s.Reason = call.ReasonLocalHangup
		s.EndedAt = s.ConnectedAt.Add(30 * time.Second)
		m.OnStatusChange(s)
		m.OnCallEnded(s)

		expected := `
# HELP teamcall_calls_connected_total Calls that reached the connected state, by direction
# TYPE teamcall_calls_connected_total counter
teamcall_calls_connected_total{direction="outgoing"} 1
# HELP teamcall_calls_ended_total Ended calls, by reason
# TYPE teamcall_calls_ended_total counter
teamcall_calls_ended_total{reason="LocalHangup"} 1
# HELP teamcall_ice_interruptions_total Times a call entered its ICE grace window
# TYPE teamcall_ice_interruptions_total counter
teamcall_ice_interruptions_total 1
`
		require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
			"teamcall_calls_connected_total", "teamcall_calls_ended_total", "teamcall_ice_interruptions_total"))
		assert.InDelta(t, 0, gauge(t, reg, "teamcall_calls_active"), 0)
		assert.Equal(t, 1, count(t, reg, "teamcall_call_duration_seconds"))
	})

	t.Run("失敗した通話は理由ごとに数える", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		s := snapshot("c2", call.StatusFailed)
		m.OnStatusChange(s)
		m.OnCallFailed(s, &call.CallError{Reason: call.ReasonPermissionDenied})
		s.Status = call.StatusEnded
		s.Reason = call.ReasonPermissionDenied
		m.OnCallEnded(s)

		expected := `
# HELP teamcall_calls_failed_total Failed calls, by reason
# TYPE teamcall_calls_failed_total counter
teamcall_calls_failed_total{reason="PermissionDenied"} 1
`
		require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "teamcall_calls_failed_total"))
		assert.InDelta(t, 0, gauge(t, reg, "teamcall_calls_active"), 0)
	})

	t.Run("着信", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		m.OnIncomingCall(call.IncomingCall{PeerID: "bob"})

		assert.InDelta(t, 1, gauge(t, reg, "teamcall_incoming_calls_total"), 0)
	})
}

func TestServerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewServer(reg)

	m.ConnectionOpened()
	m.ConnectionOpened()
	m.ConnectionClosed(3 * time.Second)
	m.MessageRelayed("offer")
	m.MessageRelayed("offer")
	m.RelayFailed("answer")

	expected := `
# HELP teamcall_signaling_connections Open signaling connections
# TYPE teamcall_signaling_connections gauge
teamcall_signaling_connections 1
# HELP teamcall_signaling_messages_relayed_total Messages delivered to their target, by event
# TYPE teamcall_signaling_messages_relayed_total counter
teamcall_signaling_messages_relayed_total{event="offer"} 2
# HELP teamcall_signaling_relay_failures_total Messages whose target was not connected, by event
# TYPE teamcall_signaling_relay_failures_total counter
teamcall_signaling_relay_failures_total{event="answer"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"teamcall_signaling_connections", "teamcall_signaling_messages_relayed_total", "teamcall_signaling_relay_failures_total"))
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.NewServer(reg).ConnectionOpened()

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "teamcall_signaling_connections 1")
}

func gauge(t *testing.T, g prometheus.Gatherer, name string) float64 {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		var sum float64
		for _, metric := range f.GetMetric() {
			if metric.GetGauge() != nil {
				sum += metric.GetGauge().GetValue()
			}
			if metric.GetCounter() != nil {
				sum += metric.GetCounter().GetValue()
			}
		}
		return sum
	}
	return 0
}

func count(t *testing.T, g prometheus.Gatherer, name string) int {
	t.Helper()
	n, err := testutil.GatherAndCount(g, name)
	require.NoError(t, err)
	return n
}
