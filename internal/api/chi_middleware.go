// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"
	"strings"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
	"github.com/jmoreau78/audiotheca/internal/middleware"
)

// RateLimitConfig defines rate limit parameters for a group of endpoints.
type RateLimitConfig struct {
	// Requests allowed per Window, keyed by client IP.
	Requests int
	Window   time.Duration
}

// Endpoint-specific rate limits. The default API limit can be overridden
// from configuration; the others are fixed, tuned to what each endpoint
// class costs.
var (
	// RateLimitAPI is the default for catalog read/write traffic.
	RateLimitAPI = RateLimitConfig{Requests: 120, Window: time.Minute}

	// RateLimitSelect covers selection and token resolution: every scan of
	// a physical token lands here, so it is more permissive than writes.
	RateLimitSelect = RateLimitConfig{Requests: 300, Window: time.Minute}

	// RateLimitWrite bounds catalog mutations.
	RateLimitWrite = RateLimitConfig{Requests: 60, Window: time.Minute}

	// RateLimitHealth is permissive so monitoring can poll frequently.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}

	// RateLimitWebSocket bounds connection upgrades, not messages.
	RateLimitWebSocket = RateLimitConfig{Requests: 30, Window: time.Minute}
)

// ChiMiddleware builds the router's middleware from configuration: CORS via
// go-chi/cors and IP-keyed rate limits via go-chi/httprate.
type ChiMiddleware struct {
	config *config.Config
	cors   func(http.Handler) http.Handler
}

// NewChiMiddleware creates the middleware factory. A nil or empty CORS
// origin list denies cross-origin requests outright.
func NewChiMiddleware(cfg *config.Config) *ChiMiddleware {
	var origins []string
	if cfg != nil {
		origins = cfg.Server.CORSOrigins
	}

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	})

	return &ChiMiddleware{
		config: cfg,
		cors:   corsHandler,
	}
}

// CORS returns the CORS middleware. It must run globally so OPTIONS
// preflights reach it before routing rejects them.
func (m *ChiMiddleware) CORS() func(http.Handler) http.Handler {
	return m.cors
}

// RateLimitCustom returns an IP-keyed limiter for the given configuration.
// Exceeding the limit answers with the standard error envelope.
func (m *ChiMiddleware) RateLimitCustom(rl RateLimitConfig) func(http.Handler) http.Handler {
	if m.config != nil && m.config.Server.RateLimitDisabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return httprate.Limit(
		rl.Requests,
		rl.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(rateLimitExceeded),
	)
}

// RateLimit returns the default API limiter. Configuration overrides the
// built-in rate when set.
func (m *ChiMiddleware) RateLimit() func(http.Handler) http.Handler {
	rl := RateLimitAPI
	if m.config != nil && m.config.Server.RateLimitReqs > 0 {
		rl.Requests = m.config.Server.RateLimitReqs
	}
	if m.config != nil && m.config.Server.RateLimitWindow > 0 {
		rl.Window = m.config.Server.RateLimitWindow
	}
	return m.RateLimitCustom(rl)
}

// RateLimitSelect returns the limiter for selection and token resolution.
func (m *ChiMiddleware) RateLimitSelect() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitSelect)
}

// RateLimitWrite returns the limiter for catalog mutations.
func (m *ChiMiddleware) RateLimitWrite() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitWrite)
}

// RateLimitHealth returns the permissive limiter for health endpoints.
func (m *ChiMiddleware) RateLimitHealth() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitHealth)
}

// RateLimitWebSocket returns the limiter for WebSocket upgrades.
func (m *ChiMiddleware) RateLimitWebSocket() func(http.Handler) http.Handler {
	return m.RateLimitCustom(RateLimitWebSocket)
}

// rateLimitExceeded writes the 429 envelope and counts the hit.
func rateLimitExceeded(w http.ResponseWriter, r *http.Request) {
	metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
	NewResponseWriter(w, r).TooManyRequests("Rate limit exceeded")
}

// RequestLogger logs one line per request with method, path, status, size,
// and duration. Health and metrics polling logs at debug to keep the info
// stream readable.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			evt := logging.Info()
			if isProbePath(r.URL.Path) {
				evt = logging.Debug()
			}
			evt.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("remote", r.RemoteAddr).
				Str("request_id", middleware.GetRequestID(r.Context())).
				Msg("Request handled")
		})
	}
}

// isProbePath reports whether the path is polled by infrastructure rather
// than requested by users.
func isProbePath(path string) bool {
	return path == "/metrics" ||
		path == "/readyz" ||
		strings.HasPrefix(path, "/healthz")
}

// chiMiddleware adapts http.HandlerFunc middleware to chi's
// func(http.Handler) http.Handler so the shared middleware package plugs
// into r.Use().
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}
