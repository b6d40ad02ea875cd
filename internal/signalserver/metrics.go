package signalserver

import "time"

// Metrics receives server counters.
type Metrics interface {
	ConnectionOpened()
	ConnectionClosed(lifetime time.Duration)
	MessageRelayed(event string)
	RelayFailed(event string)
}

type NopMetrics struct{}

func (NopMetrics) ConnectionOpened()              {}
func (NopMetrics) ConnectionClosed(time.Duration) {}
func (NopMetrics) MessageRelayed(string)          {}
func (NopMetrics) RelayFailed(string)             {}
