package host

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	outcomeOK          = "ok"
	outcomeError       = "error"
	outcomeUnknown     = "unknown"
	outcomeForbidden   = "forbidden"
	outcomeRateLimited = "rate_limited"
	outcomePanic       = "panic"
)

// metrics holds the bridge's Prometheus collectors. Each Router owns its
// own registry so several runtimes can coexist in one test binary.
type metrics struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	connections prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "deskshell",
				Subsystem: "bridge",
				Name:      "invocations_total",
				Help:      "Total number of command invocations by outcome.",
			},
			[]string{"command", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "deskshell",
				Subsystem: "bridge",
				Name:      "invocation_duration_seconds",
				Help:      "Duration of command handlers.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
			},
			[]string{"command"},
		),
		connections: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "deskshell",
				Subsystem: "bridge",
				Name:      "connections",
				Help:      "Current number of connected content sockets.",
			},
		),
	}
	m.registry.MustRegister(m.invocations, m.duration, m.connections)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
