package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for one run
type Metrics struct {
	registry *prometheus.Registry

	// Pair metrics
	PairsTotal   *prometheus.CounterVec
	TurnDuration prometheus.Histogram

	// Session metrics
	SessionActive     prometheus.Gauge
	SessionExitsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		// Pair metrics
		PairsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairmerge_pairs_total",
				Help: "Total number of pairs by outcome",
			},
			[]string{"status", "reason"},
		),
		TurnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pairmerge_turn_duration_seconds",
				Help:    "Duration of protocol turns in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),

		// Session metrics
		SessionActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "pairmerge_session_active",
				Help: "Whether the target tool session is running",
			},
		),
		SessionExitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairmerge_session_exits_total",
				Help: "Total number of session terminations by result",
			},
			[]string{"result"},
		),
	}

	m.registerMetrics()

	return m
}

// registerMetrics registers all metrics with the registry
func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(m.PairsTotal)
	m.registry.MustRegister(m.TurnDuration)
	m.registry.MustRegister(m.SessionActive)
	m.registry.MustRegister(m.SessionExitsTotal)
}

// Registry returns the Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current values in the text exposition format,
// suitable for the node_exporter textfile collector
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
