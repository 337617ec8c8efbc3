// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
Package middleware provides HTTP middleware in http.HandlerFunc form.

These components are written against http.HandlerFunc so they compose with
both plain handlers and chi route groups (the api package bridges them with
a small adapter). Chi-native middleware (CORS, rate limits, security
headers) lives in the api package instead.

Key Components:

  - RequestID: UUID-based request tracking; preserves X-Request-ID from
    upstream proxies and seeds the logging context
  - PrometheusMetrics: request count, latency, and in-flight instrumentation
    keyed by the matched chi route pattern
  - Compression: gzip for JSON responses; skips WebSocket upgrades and
    cover art

Usage with chi:

	r.Route("/api/v1/media", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return middleware.PrometheusMetrics(next.ServeHTTP)
		})
		r.Get("/", handler.ListMedia)
	})

All middleware is safe for concurrent use.
*/
package middleware
