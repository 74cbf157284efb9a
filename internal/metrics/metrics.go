package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "company_tasks"

// Metrics owns its registry so that several instances (one per test) never
// collide on registration.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	AuthAttempts *prometheus.CounterVec

	TasksCreated     *prometheus.CounterVec
	TaskTransitions  *prometheus.CounterVec
	TasksExpired     prometheus.Counter
	RecordWriteFails *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		AuthAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_attempts_total",
				Help:      "Signup and login attempts by outcome",
			},
			[]string{"operation", "outcome"},
		),
		TasksCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_created_total",
				Help:      "Tasks created by creator role and visibility",
			},
			[]string{"role", "visibility"},
		),
		TaskTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "task_transitions_total",
				Help:      "Applied task status transitions",
			},
			[]string{"from", "to"},
		),
		TasksExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_expired_total",
				Help:      "Tasks moved to expired by the sweep",
			},
		),
		RecordWriteFails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "record_write_failures_total",
				Help:      "History or trash inserts that failed after the task row was updated",
			},
			[]string{"store"},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Middleware records request counts and latency keyed by route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// AuthAttempt counts a signup or login outcome. The domain helpers below
// accept a nil receiver so services can run without metrics.
func (m *Metrics) AuthAttempt(operation, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) TaskCreated(role string, public bool) {
	if m == nil {
		return
	}
	visibility := "targeted"
	if public {
		visibility = "public"
	}
	m.TasksCreated.WithLabelValues(role, visibility).Inc()
}

func (m *Metrics) TaskTransitioned(from, to string) {
	if m == nil {
		return
	}
	m.TaskTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) TaskExpired() {
	if m == nil {
		return
	}
	m.TasksExpired.Inc()
}

func (m *Metrics) RecordWriteFailed(store string) {
	if m == nil {
		return
	}
	m.RecordWriteFails.WithLabelValues(store).Inc()
}
