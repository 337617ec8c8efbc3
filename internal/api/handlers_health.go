// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// breakerStater is implemented by the breaker-wrapped assistant client.
// The plain client does not satisfy it; health output then omits breaker
// state.
type breakerStater interface {
	State() gobreaker.State
	Counts() gobreaker.Counts
}

// Health is the liveness probe: the process is up and serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"status":         "alive",
		"version":        h.version,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// Ready is the readiness probe: 200 when the database answers a ping,
// 503 otherwise. The assistant bridge is deliberately not part of
// readiness; the catalog serves fine without it.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	dbConnected := h.db != nil && h.db.Ping(r.Context()) == nil
	historyEnabled := h.history != nil

	data := map[string]interface{}{
		"database_connected": dbConnected,
		"history_enabled":    historyEnabled,
		"uptime_seconds":     time.Since(h.startTime).Seconds(),
	}

	if !dbConnected {
		data["status"] = "not_ready"
		rw.writeJSON(http.StatusServiceUnavailable, &APIResponse{
			Success: false,
			Data:    data,
			Error: &APIError{
				Code:    ErrCodeServiceUnavailable,
				Message: "Database is not reachable",
			},
			Meta: rw.meta(),
		})
		return
	}

	data["status"] = "ready"
	rw.Success(data)
}

// AssistantHealth reports the provider bridge state: configured or not,
// reachable or not, and the circuit breaker's view of recent traffic.
func (h *Handler) AssistantHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.provider == nil {
		rw.Success(map[string]interface{}{
			"configured": false,
		})
		return
	}

	data := map[string]interface{}{
		"configured": true,
	}

	if bs, ok := h.provider.(breakerStater); ok {
		counts := bs.Counts()
		data["breaker_state"] = bs.State().String()
		data["consecutive_failures"] = counts.ConsecutiveFailures
		data["total_requests"] = counts.Requests
	}

	if err := h.provider.Ping(r.Context()); err != nil {
		data["connected"] = false
		rw.writeJSON(http.StatusServiceUnavailable, &APIResponse{
			Success: false,
			Data:    data,
			Error: &APIError{
				Code:    ErrCodeUpstreamUnavailable,
				Message: "Assistant is not reachable",
			},
			Meta: rw.meta(),
		})
		return
	}

	data["connected"] = true
	rw.Success(data)
}
