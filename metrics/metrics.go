// Package metrics provides Prometheus metrics for the MediaWiki API client.
// It tracks API calls, error recoveries, token fetches, and continuation rounds.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const (
	Namespace = "mwapi"
)

var (
	// RequestsTotal counts MCP tool calls by tool name and status
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "requests_total",
		Help:      "Total number of MCP tool calls",
	}, []string{"tool", "status"})

	// RequestDuration measures tool call latency distribution
	RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "request_duration_seconds",
		Help:      "Request latency distribution by tool",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	}, []string{"tool"})

	// RequestInFlight tracks currently executing tool calls
	RequestInFlight = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "requests_in_flight",
		Help:      "Number of requests currently being processed",
	}, []string{"tool"})

	// PanicsRecovered counts recovered panics
	PanicsRecovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "panics_recovered_total",
		Help:      "Number of panics recovered in tool handlers",
	}, []string{"tool"})

	// WikiAPILatency measures one POST round trip by API action
	WikiAPILatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "wiki_api_latency_seconds",
		Help:      "MediaWiki API call latency by action",
		Buckets:   prometheus.DefBuckets,
	}, []string{"action"})

	// WikiAPIRequestsTotal counts POSTs by action and status
	WikiAPIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_requests_total",
		Help:      "Total MediaWiki API requests by action and status",
	}, []string{"action", "status"})

	// WikiAPIErrors counts server-reported error codes
	WikiAPIErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_errors_total",
		Help:      "MediaWiki API errors by action and error code",
	}, []string{"action", "error_code"})

	// WikiAPIWarnings counts responses carrying warnings
	WikiAPIWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "wiki_api_warnings_total",
		Help:      "MediaWiki API responses with warnings by action",
	}, []string{"action"})

	// Recoveries counts error codes resolved by a recovery handler
	Recoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "recoveries_total",
		Help:      "API errors handled by a recovery path, by error code",
	}, []string{"error_code"})

	// MaxlagWaitSeconds observes server-requested backoff delays
	MaxlagWaitSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "maxlag_wait_seconds",
		Help:      "Delays requested by maxlag errors",
		Buckets:   []float64{1, 2, 5, 10, 30, 60, 120},
	})

	// TokenFetches counts token cache misses that reached the server
	TokenFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "token_fetches_total",
		Help:      "Tokens fetched from the server by token type",
	}, []string{"type"})

	// ContinuationRounds counts rounds produced by continued requests
	ContinuationRounds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "continuation_rounds_total",
		Help:      "Responses produced by continued requests by action",
	}, []string{"action"})

	// AuthFailures counts authentication failures
	AuthFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "auth_failures_total",
		Help:      "Authentication failure count by reason",
	}, []string{"reason"})

	// RateLimitWaits counts requests that waited for the client-side limiter
	RateLimitWaits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "rate_limit_waits_total",
		Help:      "Requests that waited for the client-side rate limiter",
	})
)

// RecordRequest records a completed tool call with its duration and status
func RecordRequest(tool string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	RequestsTotal.WithLabelValues(tool, status).Inc()
	RequestDuration.WithLabelValues(tool).Observe(duration)
}

// RecordAPICall records one MediaWiki API POST. errorCodes lists every code
// the server reported, if any.
func RecordAPICall(action string, duration float64, success bool, errorCodes ...string) {
	status := "success"
	if !success {
		status = "error"
	}
	WikiAPIRequestsTotal.WithLabelValues(action, status).Inc()
	WikiAPILatency.WithLabelValues(action).Observe(duration)
	for _, code := range errorCodes {
		if code != "" {
			WikiAPIErrors.WithLabelValues(action, code).Inc()
		}
	}
}

// RecordRecovery records an error code resolved by a recovery path
func RecordRecovery(code string) {
	Recoveries.WithLabelValues(code).Inc()
}
