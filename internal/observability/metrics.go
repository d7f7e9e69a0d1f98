package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// AdminRequestLatency records admin API round trips by method, route and status.
	AdminRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admingate_admin_request_latency_seconds",
		Help:    "Admin API request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// SharedRequests counts callers that joined an in-flight identical request.
	SharedRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admingate_shared_requests_total",
		Help: "Total number of calls served by an in-flight identical request",
	}, []string{"kind"})

	// ActionOutcomes counts moderation actions by action type and outcome (executed, queued, failed).
	ActionOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admingate_action_outcomes_total",
		Help: "Total moderation actions by outcome",
	}, []string{"action", "outcome"})

	// SessionTeardowns counts forced sign-outs after an account access denial.
	SessionTeardowns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admingate_session_teardowns_total",
		Help: "Total number of forced sign-outs",
	})

	// CacheErrors counts capability cache errors by operation type.
	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admingate_cache_errors_total",
		Help: "Total number of capability cache errors by operation type",
	}, []string{"operation"})

	// SandboxQueryLatency records sandbox store query latency by operation and table.
	SandboxQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admingate_sandbox_query_latency_seconds",
		Help:    "Sandbox database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// DatabaseMetrics wraps DB access for recording query latency.
type DatabaseMetrics struct {
	db *gorm.DB
}

// NewDatabaseMetrics returns a new DatabaseMetrics instance.
func NewDatabaseMetrics(db *gorm.DB) *DatabaseMetrics {
	return &DatabaseMetrics{db: db}
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		SandboxQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
