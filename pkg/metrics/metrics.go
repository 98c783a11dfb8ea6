package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// ActiveSessions tracks active sessions (not expired/revoked).
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "termfolio_active_sessions",
			Help: "Number of active sessions",
		},
	)

	// CommandExecutions counts terminal command dispatches by command and outcome (ok|error|unknown).
	CommandExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_command_executions_total",
			Help: "Total number of terminal command executions",
		},
		[]string{"command", "result"},
	)

	// UpstreamRequests counts calls to third-party APIs by service and outcome (ok|error|cached).
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "termfolio_upstream_requests_total",
			Help: "Total number of upstream API requests",
		},
		[]string{"service", "result"},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "termfolio_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
