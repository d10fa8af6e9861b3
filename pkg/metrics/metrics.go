package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request latency in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// database query latency in seconds
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// slow queries
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "slow_queries_total",
			Help: "Total number of queries slower than the configured threshold",
		},
	)

	// authentication events
	AuthEventCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_events_total",
			Help: "Authentication events by kind and outcome",
		},
		[]string{"event", "outcome"}, // event: register, login, logout, refresh
	)

	// task status transitions
	TaskStatusChangeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_status_changes_total",
			Help: "Task status transitions",
		},
		[]string{"from", "to"},
	)

	// activity event publishes
	EventPublishCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activity_events_published_total",
			Help: "Activity events handed to the message broker",
		},
		[]string{"routing_key", "status"}, // status: success, failed, dropped, queued
	)
)

// RecordHTTPRequestDuration observes one HTTP request.
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration observes one database query.
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery counts a slow query.
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// IncrementAuthEvent counts an authentication event by action and result.
func IncrementAuthEvent(event, outcome string) {
	AuthEventCount.WithLabelValues(event, outcome).Inc()
}

// IncrementTaskStatusChange counts a task moving between statuses.
func IncrementTaskStatusChange(from, to string) {
	TaskStatusChangeCount.WithLabelValues(from, to).Inc()
}

// IncrementEventPublish counts an event publish attempt by outcome.
func IncrementEventPublish(routingKey, status string) {
	EventPublishCount.WithLabelValues(routingKey, status).Inc()
}
