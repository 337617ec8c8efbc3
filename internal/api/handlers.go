// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jmoreau78/audiotheca/internal/assistant"
	"github.com/jmoreau78/audiotheca/internal/catalog"
	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
	"github.com/jmoreau78/audiotheca/internal/rfid"
	ws "github.com/jmoreau78/audiotheca/internal/websocket"
)

// Pinger is the slice of the database the readiness endpoints probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HistoryReader is the slice of the selection history store the API reads.
// The full store also runs garbage collection; handlers never touch that.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]models.SelectionRecord, error)
	RecentMediaIDs(ctx context.Context, window time.Duration) ([]uuid.UUID, error)
	Count(ctx context.Context) (int, error)
}

// CoverReader is the slice of the cover store the API serves files from.
type CoverReader interface {
	Path(id uuid.UUID) string
	Exists(id uuid.UUID) bool
	ETag(id uuid.UUID) (string, error)
}

// Handler holds the services HTTP endpoints dispatch to. history, provider,
// and covers may be nil when the corresponding feature is disabled; the
// affected endpoints then answer 503.
type Handler struct {
	db        Pinger
	catalog   *catalog.Service
	tokens    *rfid.Service
	history   HistoryReader
	provider  assistant.Interface
	covers    CoverReader
	config    *config.Config
	wsHub     *ws.Hub
	version   string
	startTime time.Time
}

// NewHandler creates the API handler. db, catalog, and tokens are required;
// history, provider, covers, and wsHub may be nil for disabled features.
func NewHandler(
	db Pinger,
	cat *catalog.Service,
	tokens *rfid.Service,
	history HistoryReader,
	provider assistant.Interface,
	covers CoverReader,
	cfg *config.Config,
	wsHub *ws.Hub,
	version string,
) *Handler {
	return &Handler{
		db:        db,
		catalog:   cat,
		tokens:    tokens,
		history:   history,
		provider:  provider,
		covers:    covers,
		config:    cfg,
		wsHub:     wsHub,
		version:   version,
		startTime: time.Now(),
	}
}

// getUpgrader returns a WebSocket upgrader bound to this handler's origin
// policy.
func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates the Origin header against the configured
// CORS origins. Requests without an Origin header are rejected: browsers
// always send one, so its absence means a non-browser client trying to skip
// the origin check.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("WebSocket connection rejected: missing Origin header")
		return false
	}

	if h.config == nil {
		return true
	}

	for _, allowed := range h.config.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	logging.Warn().
		Str("origin", sanitizeLogValue(origin)).
		Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades the connection and attaches the client to the hub,
// which streams catalog and selection events to it.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		NewResponseWriter(w, r).ServiceUnavailable("WebSocket service unavailable")
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote an HTTP error to the client.
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}

// Version reports the running build.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"version":        h.version,
		"started_at":     h.startTime.UTC(),
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// mediaIDParam parses the {id} path parameter. On failure it writes a 400
// response and reports false.
func mediaIDParam(rw *ResponseWriter, raw string) (uuid.UUID, bool) {
	id, err := uuid.Parse(raw)
	if err != nil {
		rw.BadRequest("Malformed media identifier")
		return uuid.Nil, false
	}
	return id, true
}
