// Package metrics records client instrumentation, served from watch mode.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the client's instrumentation against a private registry,
// so tests can create isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal counts API requests by method and response status.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes API round-trip time by method.
	RequestDuration *prometheus.HistogramVec

	// EventsTotal counts realtime events delivered, by event type.
	EventsTotal *prometheus.CounterVec

	// Reconnects counts realtime transport reconnect attempts.
	Reconnects prometheus.Counter
}

// New creates an isolated metrics set.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitmate_api_requests_total",
			Help: "API requests by method and response status.",
		}, []string{"method", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "splitmate_api_request_duration_seconds",
			Help:    "API round-trip time by method.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		EventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "splitmate_realtime_events_total",
			Help: "Realtime events delivered, by event type.",
		}, []string{"type"}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Name: "splitmate_realtime_reconnects_total",
			Help: "Realtime transport reconnect attempts.",
		}),
	}
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
