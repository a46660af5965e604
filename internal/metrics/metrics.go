// Package metrics records pipeline and HTTP metrics on a private Prometheus
// registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors used across the application.
type Metrics struct {
	reg *prometheus.Registry

	runCounter   *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	rowsLoaded   prometheus.Counter
	httpCounter  *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		runCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesstats_pipeline_runs_total",
				Help: "Pipeline runs partitioned by status.",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salesstats_pipeline_duration_seconds",
				Help:    "Pipeline run duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		rowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "salesstats_rows_loaded_total",
			Help: "Sales rows loaded by successful runs.",
		}),
		httpCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "salesstats_http_requests_total",
				Help: "HTTP requests partitioned by route and status code.",
			},
			[]string{"route", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "salesstats_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(m.runCounter, m.runDuration, m.rowsLoaded, m.httpCounter, m.httpDuration)
	return m
}

// RecordRun records one pipeline run.
func (m *Metrics) RecordRun(err error, d time.Duration, rows int) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.runCounter.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(d.Seconds())
	if err == nil && rows > 0 {
		m.rowsLoaded.Add(float64(rows))
	}
}

// RecordRequest records one served HTTP request.
func (m *Metrics) RecordRequest(route string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpCounter.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
