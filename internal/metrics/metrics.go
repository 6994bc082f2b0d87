// Package metrics owns the Prometheus registry of the server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ftt"

// Metrics groups the collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	CompaniesAdded  prometheus.Counter
	TasksAdded      *prometheus.CounterVec
	Rejected        *prometheus.CounterVec
	ActiveSessions  prometheus.Gauge
	SessionsEvicted *prometheus.CounterVec
	RateLimited     prometheus.Counter
	Requests        *prometheus.CounterVec
	Duration        *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		CompaniesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "companies_added_total",
			Help:      "Companies added across all sessions.",
		}),
		TasksAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_added_total",
			Help:      "Tasks added across all sessions, by payment status.",
		}, []string{"status"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_rejected_total",
			Help:      "Form submissions that did not change state.",
		}, []string{"form", "reason"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Page sessions currently held in memory.",
		}),
		SessionsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_evicted_total",
			Help:      "Page sessions removed from memory, by reason.",
		}, []string{"reason"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by the rate limiter.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.CompaniesAdded,
		m.TasksAdded,
		m.Rejected,
		m.ActiveSessions,
		m.SessionsEvicted,
		m.RateLimited,
		m.Requests,
		m.Duration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) CompanyAdded() {
	if m == nil {
		return
	}
	m.CompaniesAdded.Inc()
}

func (m *Metrics) TaskAdded(status string) {
	if m == nil {
		return
	}
	m.TasksAdded.WithLabelValues(status).Inc()
}

func (m *Metrics) Reject(form, reason string) {
	if m == nil {
		return
	}
	m.Rejected.WithLabelValues(form, reason).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.ActiveSessions.Inc()
}

func (m *Metrics) SessionClosed(reason string) {
	if m == nil {
		return
	}
	m.ActiveSessions.Dec()
	m.SessionsEvicted.WithLabelValues(reason).Inc()
}

func (m *Metrics) Limited() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(route, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.Duration.WithLabelValues(route).Observe(d.Seconds())
}
