// Worktrace - Employee Attendance and Geolocation Tracking
// Copyright 2026 Worktrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/worktrace/worktrace

// Package metrics exposes Prometheus instrumentation for the main runtime
// surfaces: DuckDB queries, HTTP endpoints, the WebSocket hub, geofence
// evaluation, attendance flow, and the in-process event bus. All collectors
// register with the default registry via promauto and are scraped at
// GET /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	DBConnectionPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "duckdb_connection_pool_size",
			Help: "Current number of database connections in use",
		},
	)

	// API endpoint metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Geofence metrics
	GeofenceEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "geofence_evaluations_total",
			Help: "Total number of geofence containment evaluations",
		},
		[]string{"result"}, // "on_site", "off_site"
	)

	// Attendance metrics
	AttendanceCheckins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_checkins_total",
			Help: "Total number of successful check-ins",
		},
	)

	AttendanceCheckouts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "attendance_checkouts_total",
			Help: "Total number of successful check-outs",
		},
	)

	AttendanceRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_rejections_total",
			Help: "Total number of rejected check-in/check-out attempts",
		},
		[]string{"reason"}, // "outside_geofence", "already_open", "no_open_session", "no_site"
	)

	// Location ingest metrics
	LocationReportsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_reports_ingested_total",
			Help: "Total number of location reports written",
		},
	)

	LocationReportsThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "location_reports_throttled_total",
			Help: "Total number of location reports dropped by the per-employee rate limiter",
		},
	)

	// WebSocket metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Event bus metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Total number of events published to the bus",
		},
		[]string{"kind"}, // "employee_checkin", "employee_checkout", "employee_location"
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_dropped_total",
			Help: "Total number of events dropped (publish failure or breaker open)",
		},
		[]string{"kind"},
	)

	EventDeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "event_delivery_duration_seconds",
			Help:    "Duration from bus publish to hub broadcast in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	// Session store metrics
	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sessions_active",
			Help: "Current number of live sessions in the store",
		},
	)

	SessionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_operations_total",
			Help: "Total number of session store operations",
		},
		[]string{"operation", "success"}, // operation: "create", "get", "revoke"
	)

	// System metrics
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "app_info",
			Help: "Application version and build information",
		},
		[]string{"version", "go_version"},
	)

	AppUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "app_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordGeofenceEvaluation records one containment check outcome.
func RecordGeofenceEvaluation(onSite bool) {
	if onSite {
		GeofenceEvaluations.WithLabelValues("on_site").Inc()
	} else {
		GeofenceEvaluations.WithLabelValues("off_site").Inc()
	}
}

// RecordEventPublish records a bus publish outcome for an event kind.
func RecordEventPublish(kind string, err error) {
	if err != nil {
		EventsDropped.WithLabelValues(kind).Inc()
		return
	}
	EventsPublished.WithLabelValues(kind).Inc()
}

// RecordSessionOperation records a session store operation outcome.
func RecordSessionOperation(operation string, success bool) {
	successStr := "true"
	if !success {
		successStr = "false"
	}
	SessionOperations.WithLabelValues(operation, successStr).Inc()
}
