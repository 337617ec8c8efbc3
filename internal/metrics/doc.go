// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered with the default registry via promauto and
exposed at the /metrics endpoint in Prometheus text format.

# Available Metrics

Database:
  - duckdb_query_duration_seconds: Query execution time (histogram)
    Labels: operation, table
  - duckdb_query_errors_total: Failed queries (counter)
    Labels: operation, table, error_type

API:
  - api_requests_total: Total API requests (counter)
    Labels: method, endpoint, status_code
  - api_request_duration_seconds: Request latency (histogram)
    Labels: method, endpoint
  - api_active_requests: In-flight requests (gauge)
  - api_rate_limit_hits_total: Rate limit rejections (counter)
    Labels: endpoint

Selection:
  - selection_requests_total: Selection pipeline runs (counter)
    Labels: source (api, rfid, assistant), fallback_mode, outcome (hit, fallback, empty)
  - selection_duration_seconds: Full pipeline latency (histogram)
    Labels: source
  - selection_pool_size: Candidates after evaluation (histogram)
  - selection_snapshot_size: Active media in the last snapshot (gauge)

Covers:
  - cover_fetch_duration_seconds: Upstream fetch latency (histogram)
  - cover_fetch_errors_total: Failed fetches (counter)
    Labels: error_type (http, decode, too_large, breaker_open, rate_limited)
  - covers_stored_total, cover_cache_hits_total, cover_cache_misses_total

Tokens, events, history:
  - token_resolutions_total (labels: result)
  - event_messages_published_total / delivered_total / publish_errors_total (labels: topic)
  - history_records_written_total, history_write_errors_total
  - history_gc_runs_total (labels: result)

WebSocket and circuit breaker:
  - websocket_connections, websocket_messages_sent_total,
    websocket_clients_dropped_total, websocket_errors_total
  - circuit_breaker_state (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total, circuit_breaker_state_transitions_total

Assistant bridge:
  - assistant_request_duration_seconds, assistant_request_errors_total
    Labels: operation (ping, search, get_item, library)

# Usage

Record* helpers wrap the common patterns so call sites stay one line:

	start := time.Now()
	snapshot, err := db.SnapshotActive(ctx)
	metrics.RecordDBQuery("SELECT", "media", time.Since(start), err)

All recording functions are safe for concurrent use; the Prometheus client
handles synchronization internally.

# Cardinality

Endpoint labels use the chi route pattern, never the raw URL, and error
types are fixed constants or truncated messages. User-provided values
(tag names, token UIDs) never become label values.
*/
package metrics
