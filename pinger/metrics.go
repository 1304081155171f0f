package pinger

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the webhook pinger.
type Metrics struct {
	Registry     *prometheus.Registry
	PingsTotal   *prometheus.CounterVec
	PingDuration *prometheus.HistogramVec
	TargetUp     *prometheus.GaugeVec
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	pings := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pinger_pings_total",
			Help: "Total webhook pings by target and outcome.",
		},
		[]string{"target", "outcome"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pinger_ping_duration_seconds",
			Help:    "Webhook ping latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"target"},
	)
	up := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pinger_target_up",
			Help: "1 when the last ping to the target returned 2xx.",
		},
		[]string{"target"},
	)

	registry.MustRegister(pings, duration, up)

	return &Metrics{
		Registry:     registry,
		PingsTotal:   pings,
		PingDuration: duration,
		TargetUp:     up,
	}
}

// Observe records one ping outcome.
func (m *Metrics) Observe(target string, ok bool, latency time.Duration) {
	if m == nil {
		return
	}
	outcome, up := "failure", 0.0
	if ok {
		outcome, up = "success", 1.0
	}
	m.PingsTotal.WithLabelValues(target, outcome).Inc()
	m.PingDuration.WithLabelValues(target).Observe(latency.Seconds())
	m.TargetUp.WithLabelValues(target).Set(up)
}
