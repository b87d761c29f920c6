package metrics

import (
	"database/sql"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the taskhub API.
// All helper methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics.
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Cascade event bus.
	EventsPublishedTotal *prometheus.CounterVec
	CascadeFailuresTotal *prometheus.CounterVec

	// Ordering engine.
	ReflowUpdates *prometheus.HistogramVec

	// Reconciler.
	ReconcileRunsTotal    *prometheus.CounterVec
	ReconcileRepairsTotal *prometheus.CounterVec

	ServerStartTime prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "path_pattern", "status_code"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhub_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path_pattern"}),

		EventsPublishedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_events_published_total",
			Help: "Total number of domain events published on the cascade bus.",
		}, []string{"event"}),

		CascadeFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_cascade_failures_total",
			Help: "Total number of cascade subscriber failures.",
		}, []string{"event", "subscriber"}),

		ReflowUpdates: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "taskhub_reflow_updates",
			Help:    "Number of sibling rows rewritten per ordering operation.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"scope", "operation"}),

		ReconcileRunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_reconcile_runs_total",
			Help: "Total number of reconciler runs.",
		}, []string{"status"}),

		ReconcileRepairsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskhub_reconcile_repairs_total",
			Help: "Total number of entities provisioned by the reconciler.",
		}, []string{"kind"}),

		ServerStartTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskhub_server_start_time_seconds",
			Help: "Unix timestamp of server start.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EventsPublishedTotal,
		m.CascadeFailuresTotal,
		m.ReflowUpdates,
		m.ReconcileRunsTotal,
		m.ReconcileRepairsTotal,
		m.ServerStartTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m.ServerStartTime.Set(float64(time.Now().Unix()))

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RegisterDBStats exposes database/sql pool statistics.
func (m *Metrics) RegisterDBStats(db *sql.DB, name string) {
	m.registry.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, pathPattern string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, pathPattern, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, pathPattern).Observe(elapsed.Seconds())
}

func (m *Metrics) EventPublished(event string) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) CascadeFailed(event, subscriber string) {
	if m == nil {
		return
	}
	m.CascadeFailuresTotal.WithLabelValues(event, subscriber).Inc()
}

func (m *Metrics) ObserveReflow(scope, operation string, updates int) {
	if m == nil {
		return
	}
	m.ReflowUpdates.WithLabelValues(scope, operation).Observe(float64(updates))
}

func (m *Metrics) ReconcileRun(status string) {
	if m == nil {
		return
	}
	m.ReconcileRunsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) ReconcileRepaired(kind string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ReconcileRepairsTotal.WithLabelValues(kind).Add(float64(n))
}
