package observability

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/toolserve/pkg/dispatch"
)

// Metrics holds the prometheus collectors for the server.
type Metrics struct {
	registry *prometheus.Registry

	invocations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	exchanges   *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolserve_tool_invocations_total",
				Help: "Total number of tool invocations by outcome",
			},
			[]string{"tool", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "toolserve_tool_duration_seconds",
				Help:    "Duration of tool invocations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		exchanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "toolserve_http_exchanges_total",
				Help: "Total number of HTTP exchanges by method and status code",
			},
			[]string{"method", "status"},
		),
	}

	registry.MustRegister(
		m.invocations,
		m.duration,
		m.exchanges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveInvocation implements dispatch.Observer.
func (m *Metrics) ObserveInvocation(_ context.Context, inv dispatch.Invocation) {
	m.invocations.WithLabelValues(inv.Tool, inv.Outcome).Inc()
	m.duration.WithLabelValues(inv.Tool).Observe(inv.Duration.Seconds())
}

// ObserveExchange counts one answered HTTP exchange.
func (m *Metrics) ObserveExchange(method string, status int) {
	m.exchanges.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
