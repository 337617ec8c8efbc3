// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package api provides the HTTP surface: chi routing, the response
// envelope, and the handlers dispatching into the catalog services.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/middleware"
)

// Router owns the HTTP route table.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter creates a router around the handler.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(cfg),
	}
}

// SetupChi builds the full route table.
//
// Rate limits are applied per endpoint class and never stacked: selection
// and token resolution are hot paths (every scan of a physical token lands
// there), catalog mutations are rarer and stricter, health endpoints are
// nearly unthrottled for monitoring.
func (router *Router) SetupChi() http.Handler {
	h := router.handler
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(chiMiddleware(middleware.RequestID)) // X-Request-ID header + logging context
	r.Use(chimiddleware.RealIP)                // Real IP from X-Forwarded-For for rate limit keys
	r.Use(RequestLogger())                     // One line per request
	r.Use(chimiddleware.Recoverer)             // Panics become 500s
	r.Use(router.chiMiddleware.CORS())         // Global so OPTIONS preflight always resolves
	r.Use(chiMiddleware(middleware.Compression))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).NotFound("Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		NewResponseWriter(w, r).MethodNotAllowed()
	})

	// ========================
	// Health Endpoints
	// ========================
	r.Route("/healthz", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Get("/", h.Health)
		r.Get("/assistant", h.AssistantHealth)
	})
	r.With(router.chiMiddleware.RateLimitHealth()).Get("/readyz", h.Ready)

	// ========================
	// API v1
	// ========================
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		// Selection, token resolution, covers: the hot read paths.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitSelect())

			r.Get("/media/select", h.SelectMediaFlat)
			r.Post("/media/select", h.SelectMediaStructured)
			r.Get("/tokens/{uid}/media", h.ResolveToken)
			r.Get("/covers/{id}.jpg", h.GetCover)
		})

		// Catalog reads.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimit())

			r.Get("/media", h.ListMedia)
			r.Get("/media/{id}", h.GetMedia)

			r.Get("/tags", h.ListTags)
			r.Get("/tags/categories", h.ListTagCategories)
			r.Get("/tags/vocabulary", h.TagVocabulary)

			r.Get("/tokens", h.ListTokens)
			r.Get("/tokens/{uid}", h.GetToken)

			r.Get("/history", h.GetHistory)
			r.Get("/system/version", h.Version)

			r.Get("/assistant/search", h.AssistantSearch)
			r.Get("/assistant/library/{kind}", h.AssistantLibrary)
		})

		// Catalog mutations.
		r.Group(func(r chi.Router) {
			r.Use(router.chiMiddleware.RateLimitWrite())

			r.Post("/media", h.CreateMedia)
			r.Put("/media/{id}", h.UpdateMedia)
			r.Delete("/media/{id}", h.DeleteMedia)

			r.Post("/media/{id}/tags", h.AttachMediaTag)
			r.Put("/media/{id}/tags", h.ReplaceMediaTags)
			r.Delete("/media/{id}/tags/{tagID}", h.DetachMediaTag)

			r.Post("/media/{id}/cover", h.RefreshMediaCover)
			r.Delete("/media/{id}/cover", h.RemoveMediaCover)

			r.Post("/tags", h.CreateTag)
			r.Delete("/tags/{id}", h.DeleteTag)
			r.Post("/tags/categories", h.CreateTagCategory)
			r.Delete("/tags/categories/{slug}", h.DeleteTagCategory)

			r.Put("/tokens/{uid}", h.UpsertToken)
			r.Delete("/tokens/{uid}", h.DeleteToken)
			r.Post("/tokens/{uid}/binding", h.BindToken)
			r.Delete("/tokens/{uid}/binding", h.UnbindToken)

			r.Post("/assistant/import", h.AssistantImport)
		})

		// Event stream.
		r.With(router.chiMiddleware.RateLimitWebSocket()).Get("/ws", h.WebSocket)
	})

	// ========================
	// Observability
	// ========================
	r.Handle("/metrics", promhttp.Handler())

	return r
}
