// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investment_portal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "investment_portal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	requestsSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investment_portal",
			Subsystem: "intake",
			Name:      "requests_submitted_total",
			Help:      "Deposit and withdrawal requests accepted at intake.",
		},
		[]string{"kind"},
	)

	reviewDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "investment_portal",
			Subsystem: "review",
			Name:      "decisions_total",
			Help:      "Admin review attempts by request kind, decision and outcome.",
		},
		[]string{"kind", "decision", "outcome"},
	)

	positionsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "investment_portal",
			Subsystem: "positions",
			Name:      "completed_total",
			Help:      "Positions moved to completed by the expiry sweep.",
		},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, requestsSubmitted, reviewDecisions, positionsCompleted)
}

// RequestSubmitted counts an accepted deposit or withdrawal.
func RequestSubmitted(kind string) {
	requestsSubmitted.WithLabelValues(kind).Inc()
}

// ReviewDecision counts a review attempt. outcome is applied, conflict or error.
func ReviewDecision(kind, decision, outcome string) {
	reviewDecisions.WithLabelValues(kind, decision, outcome).Inc()
}

// PositionsCompleted counts positions closed by the sweep.
func PositionsCompleted(n int64) {
	positionsCompleted.Add(float64(n))
}

// Middleware records request counts and latencies per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
