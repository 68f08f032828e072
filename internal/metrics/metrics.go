// Package metrics collects and exposes Prometheus metrics for the
// dashboard: registration outcomes, deletions and HTTP request timings.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records dashboard metrics.
type Collector struct {
	registry *prometheus.Registry

	registrations *prometheus.CounterVec
	deletions     prometheus.Counter
	httpDuration  *prometheus.HistogramVec
}

// NewCollector creates a Collector with its own registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "door_dashboard_registrations_total",
			Help: "User registration attempts by outcome",
		}, []string{"outcome"}),
		deletions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "door_dashboard_deletions_total",
			Help: "User deletions",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "door_dashboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status code",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}

	reg.MustRegister(c.registrations, c.deletions, c.httpDuration)
	return c
}

// RecordRegistration records a registration attempt outcome
// ("success" or an error kind).
func (c *Collector) RecordRegistration(outcome string) {
	c.registrations.WithLabelValues(outcome).Inc()
}

// RecordDeletion records a user deletion.
func (c *Collector) RecordDeletion() {
	c.deletions.Inc()
}

// RecordHTTPRequest records a request duration.
func (c *Collector) RecordHTTPRequest(route, status string, duration time.Duration) {
	c.httpDuration.WithLabelValues(route, status).Observe(duration.Seconds())
}

// Handler returns the /metrics HTTP handler for this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
