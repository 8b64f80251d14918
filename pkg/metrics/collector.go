package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	marketRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "market_requests_total",
			Help: "Total number of ticker requests sent to the market API by market and status",
		},
		[]string{"market", "status"},
	)
	marketRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "market_request_duration_seconds",
			Help:    "Latency of ticker requests to the market API",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"market"},
	)
	inlineQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inline_queries_total",
			Help: "Total number of inline queries by result",
		},
		[]string{"result"},
	)
	rateLimitChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_checks_total",
			Help: "Total number of rate limit checks by backend and result",
		},
		[]string{"backend", "result"},
	)
	rateLimitBackendErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ratelimit_backend_errors_total",
			Help: "Total number of rate limiter backend failures",
		},
		[]string{"backend"},
	)
)

// Market request outcomes.
const (
	MarketStatusOK        = "ok"
	MarketStatusHTTPError = "http_error"
	MarketStatusMalformed = "malformed"
)

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// RecordMarketRequest tracks one outbound ticker request.
func RecordMarketRequest(marketID, status string, duration time.Duration) {
	if marketID == "" {
		marketID = "unknown"
	}

	marketRequestsTotal.WithLabelValues(marketID, status).Inc()
	marketRequestDuration.WithLabelValues(marketID).Observe(duration.Seconds())
}

// RecordInlineQuery counts inline queries; result is "answered" or "empty".
func RecordInlineQuery(result string) {
	inlineQueriesTotal.WithLabelValues(result).Inc()
}

// RecordRateLimitCheck counts one limiter decision for backend ("redis" or "memory").
func RecordRateLimitCheck(backend string, allowed bool) {
	result := "rejected"
	if allowed {
		result = "allowed"
	}

	rateLimitChecksTotal.WithLabelValues(backend, result).Inc()
}

// RecordRateLimitBackendError counts a failed call to a limiter backend.
func RecordRateLimitBackendError(backend string) {
	rateLimitBackendErrorsTotal.WithLabelValues(backend).Inc()
}
