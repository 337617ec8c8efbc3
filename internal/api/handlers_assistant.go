// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmoreau78/audiotheca/internal/assistant"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// assistantSearchLimit bounds provider search and library responses.
const assistantSearchLimit = 100

// importCoverSize is the artwork edge length requested from the provider's
// image proxy for imported items.
const importCoverSize = 512

// AssistantSearch searches the provider's library.
//
// Query parameters: q (required), kinds (comma-separated media kinds),
// limit.
func (h *Handler) AssistantSearch(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.provider == nil {
		rw.AssistantError(ErrAssistantNotConfigured)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		rw.ValidationError(map[string]string{"q": "search query is required"})
		return
	}

	kinds := parseCommaSeparated(r.URL.Query().Get("kinds"))
	limit := clampPageSize(getIntParam(r, "limit", 0), 20, assistantSearchLimit)

	results, err := h.provider.Search(r.Context(), query, kinds, limit)
	if err != nil {
		rw.AssistantError(err)
		return
	}
	rw.Success(results)
}

// AssistantLibrary lists the provider's library for one media kind.
func (h *Handler) AssistantLibrary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.provider == nil {
		rw.AssistantError(ErrAssistantNotConfigured)
		return
	}

	kind := chi.URLParam(r, "kind")
	limit := clampPageSize(getIntParam(r, "limit", 0), 50, assistantSearchLimit)

	items, err := h.provider.Library(r.Context(), kind, limit)
	if err != nil {
		rw.AssistantError(err)
		return
	}
	rw.Success(items)
}

// assistantImportRequest is the payload for importing a provider item into
// the catalog. Tags are attached to the created entry in the same call.
type assistantImportRequest struct {
	URI  string                 `json:"uri" validate:"required,min=1,max=2000"`
	Tags []models.TagAssignment `json:"tags" validate:"omitempty,dive"`
}

// AssistantImport fetches a provider item by URI and creates a catalog
// entry from it. The import flows through the regular create path, so
// duplicate sources conflict and the created event goes out as usual.
func (h *Handler) AssistantImport(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.provider == nil {
		rw.AssistantError(ErrAssistantNotConfigured)
		return
	}

	var req assistantImportRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	item, err := h.provider.GetItem(r.Context(), req.URI)
	if err != nil {
		rw.AssistantError(err)
		return
	}

	createReq := assistant.ItemToCreateRequest(item, h.provider.CoverURL(item, importCoverSize))
	if createReq == nil {
		rw.AssistantError(assistant.ErrItemNotFound)
		return
	}
	createReq.Tags = req.Tags

	if !validateRequest(rw, createReq) {
		return
	}

	media, err := h.catalog.CreateMedia(r.Context(), createReq)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(media)
}
