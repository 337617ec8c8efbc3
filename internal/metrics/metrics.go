// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the catalog service:
// - DuckDB query performance
// - API endpoint latency and throughput
// - Selection engine outcomes (fallback tier, pool sizes)
// - Cover fetching and the assistant circuit breaker
// - Event bus and WebSocket fan-out

var (
	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets, // 0.005s, 0.01s, 0.025s, 0.05s, 0.1s, 0.25s, 0.5s, 1s, 2.5s, 5s, 10s
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

	// API Endpoint Metrics
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, // Optimized for API latency
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

	// Selection Engine Metrics
	SelectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "selection_requests_total",
			Help: "Total number of selection requests",
		},
		[]string{"source", "fallback_mode", "outcome"}, // outcome: "hit", "fallback", "empty"
	)

	SelectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "selection_duration_seconds",
			Help:    "Duration of the full selection pipeline (snapshot + evaluation) in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"source"},
	)

	SelectionPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "selection_pool_size",
			Help:    "Number of candidates remaining after filters and query evaluation",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	SelectionSnapshotSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "selection_snapshot_size",
			Help: "Number of active media items in the most recent selection snapshot",
		},
	)

	// Cover Store Metrics
	CoverFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cover_fetch_duration_seconds",
			Help:    "Duration of upstream cover art fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CoverFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cover_fetch_errors_total",
			Help: "Total number of failed cover art fetches",
		},
		[]string{"error_type"}, // "http", "decode", "too_large", "breaker_open", "rate_limited", "store"
	)

	CoversStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "covers_stored_total",
			Help: "Total number of cover images written to the local store",
		},
	)

	CoverCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cover_cache_hits_total",
			Help: "Total number of cover requests served from the local store",
		},
	)

	CoverCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cover_cache_misses_total",
			Help: "Total number of cover requests with no locally stored image",
		},
	)

	// Token Resolution Metrics
	TokenResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "token_resolutions_total",
			Help: "Total number of RFID token resolutions",
		},
		[]string{"result"}, // "resolved", "unbound", "unknown", "inactive"
	)

	// Event Bus Metrics
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_messages_published_total",
			Help: "Total number of messages published to the event bus",
		},
		[]string{"topic"},
	)

	EventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_messages_delivered_total",
			Help: "Total number of bus messages delivered to subscribers",
		},
		[]string{"topic"},
	)

	EventPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_publish_errors_total",
			Help: "Total number of event bus publish failures",
		},
		[]string{"topic"},
	)

	// Selection History Metrics
	HistoryRecordsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_records_written_total",
			Help: "Total number of selection records appended to history",
		},
	)

	HistoryWriteErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_write_errors_total",
			Help: "Total number of failed history writes",
		},
	)

	HistoryGCRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_gc_runs_total",
			Help: "Total number of history value-log GC cycles",
		},
		[]string{"result"}, // "reclaimed", "noop", "error"
	)

	// WebSocket Metrics
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

	WSClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Total number of WebSocket clients dropped for not keeping up",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	// Circuit Breaker Metrics
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

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures recorded by circuit breaker",
		},
		[]string{"name"},
	)

	// Assistant Bridge Metrics
	AssistantRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_request_duration_seconds",
			Help:    "Duration of voice assistant bridge requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"}, // "ping", "search", "get_item", "library"
	)

	AssistantRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_request_errors_total",
			Help: "Total number of failed assistant bridge requests",
		},
		[]string{"operation"},
	)

	// System Metrics
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

// RecordSelection records a completed selection pipeline run. The outcome
// distinguishes strict hits from fallback-tier hits and empty results.
func RecordSelection(source, fallbackMode, outcome string, duration time.Duration, poolSize int) {
	SelectionsTotal.WithLabelValues(source, fallbackMode, outcome).Inc()
	SelectionDuration.WithLabelValues(source).Observe(duration.Seconds())
	SelectionPoolSize.Observe(float64(poolSize))
}

// RecordCoverFetch records an upstream cover fetch; an empty errorType
// means the image was fetched and stored.
func RecordCoverFetch(duration time.Duration, errorType string) {
	CoverFetchDuration.Observe(duration.Seconds())
	if errorType != "" {
		CoverFetchErrors.WithLabelValues(errorType).Inc()
	} else {
		CoversStored.Inc()
	}
}

// RecordCoverLookup records whether a cover request hit the local store.
func RecordCoverLookup(hit bool) {
	if hit {
		CoverCacheHits.Inc()
	} else {
		CoverCacheMisses.Inc()
	}
}

// RecordTokenResolution records the outcome of an RFID token scan.
func RecordTokenResolution(result string) {
	TokenResolutions.WithLabelValues(result).Inc()
}

// RecordEventPublished records a message published to the event bus.
func RecordEventPublished(topic string, err error) {
	if err != nil {
		EventPublishErrors.WithLabelValues(topic).Inc()
		return
	}
	EventsPublished.WithLabelValues(topic).Inc()
}

// RecordEventDelivered records a bus message handed to a subscriber.
func RecordEventDelivered(topic string) {
	EventsDelivered.WithLabelValues(topic).Inc()
}

// RecordHistoryAppend records a history write and its outcome.
func RecordHistoryAppend(err error) {
	if err != nil {
		HistoryWriteErrors.Inc()
		return
	}
	HistoryRecordsWritten.Inc()
}

// RecordHistoryGC records one value-log GC cycle.
func RecordHistoryGC(result string) {
	HistoryGCRuns.WithLabelValues(result).Inc()
}

// RecordAssistantRequest records an assistant bridge call.
func RecordAssistantRequest(operation string, duration time.Duration, err error) {
	AssistantRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		AssistantRequestErrors.WithLabelValues(operation).Inc()
	}
}
