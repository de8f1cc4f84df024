// Package metrics provides Prometheus instrumentation for the HTTP layer
// and the prospecting pipeline.
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

// Metrics holds all Prometheus collectors.
type Metrics struct {
	registry prometheus.Gatherer

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Business metrics
	LeadTransitions   *prometheus.CounterVec
	FeedbackSubmitted prometheus.Counter
	LeadsReassigned   *prometheus.CounterVec

	// Sweep metrics
	SweepRuns         *prometheus.CounterVec
	SweepDuration     prometheus.Histogram
	SweepLeadFailures prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return NewWithRegistry(reg)
}

// NewWithRegistry registers collectors on reg. Tests pass their own registry
// so repeated construction does not panic on duplicate registration.
func NewWithRegistry(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		LeadTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospect_lead_transitions_total",
				Help: "Stage transitions applied, by target stage role",
			},
			[]string{"role"},
		),
		FeedbackSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "prospect_feedback_submitted_total",
			Help: "Feedback entries appended to leads",
		}),
		LeadsReassigned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospect_leads_reassigned_total",
				Help: "Lead ownership changes",
			},
			[]string{"trigger", "mode"}, // auto|manual, random|specific|manual
		),

		SweepRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prospect_sweep_runs_total",
				Help: "Overdue lead sweeps by result",
			},
			[]string{"result"}, // ok, skipped, error
		),
		SweepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prospect_sweep_duration_seconds",
			Help:    "Wall time of one overdue lead sweep",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}),
		SweepLeadFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "prospect_sweep_lead_failures_total",
			Help: "Leads skipped by the sweep because their update failed",
		}),
	}
}

// Middleware records request count and latency per route pattern.
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
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Recording helpers are safe on a nil *Metrics so services can run without
// instrumentation in tests and one-shot binaries.

// RecordTransition counts a stage move into a stage of role.
func (m *Metrics) RecordTransition(role string) {
	if m == nil {
		return
	}
	m.LeadTransitions.WithLabelValues(role).Inc()
}

// RecordFeedback counts one feedback entry.
func (m *Metrics) RecordFeedback() {
	if m == nil {
		return
	}
	m.FeedbackSubmitted.Inc()
}

// RecordReassignment counts one ownership change.
func (m *Metrics) RecordReassignment(trigger, mode string) {
	if m == nil {
		return
	}
	m.LeadsReassigned.WithLabelValues(trigger, mode).Inc()
}

// RecordSweep records the result and duration of one sweep run.
func (m *Metrics) RecordSweep(result string, duration time.Duration, failures int) {
	if m == nil {
		return
	}
	m.SweepRuns.WithLabelValues(result).Inc()
	m.SweepDuration.Observe(duration.Seconds())
	if failures > 0 {
		m.SweepLeadFailures.Add(float64(failures))
	}
}
