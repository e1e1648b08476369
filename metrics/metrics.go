package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pairing outcome labels
const (
	OutcomeResolved   = "resolved"
	OutcomeTimedOut   = "timed_out"
	OutcomeCancelled  = "cancelled"
	OutcomeErrored    = "errored"
	OutcomeSuperseded = "superseded"
	OutcomeCreateFail = "create_failed"
)

// PairingMetrics records the wallet pairing lifecycle in a dedicated
// Prometheus registry so it does not interfere with the global one.
type PairingMetrics struct {
	registry *prometheus.Registry

	attempts    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	polls       *prometheus.CounterVec
	connected   prometheus.Gauge
	disconnects prometheus.Counter
}

// New creates and registers the pairing metrics
func New() *PairingMetrics {
	reg := prometheus.NewRegistry()

	m := &PairingMetrics{
		registry: reg,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xamanauth",
			Name:      "pairing_attempts_total",
			Help:      "Connect attempts by terminal outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "xamanauth",
			Name:      "pairing_duration_seconds",
			Help:      "Time from connect to terminal outcome.",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120, 300},
		}, []string{"outcome"}),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xamanauth",
			Name:      "status_polls_total",
			Help:      "Status fetches by result.",
		}, []string{"result"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "xamanauth",
			Name:      "wallet_connected",
			Help:      "1 while a wallet session is held.",
		}),
		disconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "xamanauth",
			Name:      "disconnects_total",
			Help:      "Explicit disconnects of a held session.",
		}),
	}

	reg.MustRegister(
		m.attempts,
		m.duration,
		m.polls,
		m.connected,
		m.disconnects,
		collectors.NewGoCollector(),
	)
	return m
}

// RecordOutcome records one finished connect attempt
func (m *PairingMetrics) RecordOutcome(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(outcome).Inc()
	m.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

// RecordPoll records one status fetch; result is "pending", "signed" or "error"
func (m *PairingMetrics) RecordPoll(result string) {
	if m == nil {
		return
	}
	m.polls.WithLabelValues(result).Inc()
}

// SetConnected mirrors the controller's connected flag
func (m *PairingMetrics) SetConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

// RecordDisconnect counts an explicit disconnect of a held session
func (m *PairingMetrics) RecordDisconnect() {
	if m == nil {
		return
	}
	m.disconnects.Inc()
}

// Registry exposes the underlying registry for tests and custom exporters
func (m *PairingMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *PairingMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
