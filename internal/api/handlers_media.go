// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/models"
)

// ListMedia returns a filtered page of the catalog.
//
// Query parameters: search, media_type, provider, active (bool), category +
// value (tag filter), page, page_size.
func (h *Handler) ListMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	filter := models.MediaListFilter{
		Search:   r.URL.Query().Get("search"),
		Provider: r.URL.Query().Get("provider"),
		Category: r.URL.Query().Get("category"),
		Value:    r.URL.Query().Get("value"),
		Page:     getIntParam(r, "page", 1),
	}

	if raw := r.URL.Query().Get("media_type"); raw != "" {
		mt, ok := models.ParseMediaType(raw)
		if !ok {
			rw.ValidationError(map[string]string{"media_type": "unknown media type " + sanitizeLogValue(raw)})
			return
		}
		filter.Type = mt
	}

	if active, ok := getBoolParam(r, "active"); ok {
		filter.Active = &active
	}

	def, max := h.pageSizeBounds()
	filter.PageSize = clampPageSize(getIntParam(r, "page_size", 0), def, max)
	if filter.Page < 1 {
		filter.Page = 1
	}

	page, err := h.catalog.ListMedia(r.Context(), filter)
	if err != nil {
		rw.DomainError(err)
		return
	}

	rw.SuccessWithPagination(page.Items, &PaginationMeta{
		Total:    page.Total,
		Count:    len(page.Items),
		Page:     page.Page,
		PageSize: page.PageSize,
		Pages:    page.Pages,
		HasMore:  page.Page < page.Pages,
	})
}

// CreateMedia registers a catalog entry.
func (h *Handler) CreateMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.MediaCreateRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	media, err := h.catalog.CreateMedia(r.Context(), &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(media)
}

// GetMedia returns a single catalog entry with its tags.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	media, err := h.catalog.GetMedia(r.Context(), id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(media)
}

// UpdateMedia applies a partial update; absent fields stay unchanged.
func (h *Handler) UpdateMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.MediaUpdateRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	media, err := h.catalog.UpdateMedia(r.Context(), id, &req)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(media)
}

// DeleteMedia deactivates a catalog entry; ?hard=true removes it entirely
// along with its tag assignments and token bindings.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	hard, _ := getBoolParam(r, "hard")
	if err := h.catalog.DeleteMedia(r.Context(), id, hard); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// AttachMediaTag adds one (category, value) pair to a media item, creating
// the tag in the vocabulary if needed.
func (h *Handler) AttachMediaTag(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.TagCreateRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	tag, err := h.catalog.AttachTag(r.Context(), id, req.Category, req.Value)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(tag)
}

// DetachMediaTag removes one tag assignment from a media item.
func (h *Handler) DetachMediaTag(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	tagID, err := uuid.Parse(chi.URLParam(r, "tagID"))
	if err != nil {
		rw.BadRequest("Malformed tag identifier")
		return
	}

	if err := h.catalog.DetachTag(r.Context(), id, tagID); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// replaceTagsRequest is the payload for replacing a media item's tag set.
type replaceTagsRequest struct {
	Tags []models.TagAssignment `json:"tags" validate:"required,dive"`
}

// ReplaceMediaTags swaps the full tag set of a media item in one operation.
// An empty tags array clears all assignments.
func (h *Handler) ReplaceMediaTags(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req replaceTagsRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	if err := h.catalog.ReplaceTags(r.Context(), id, req.Tags); err != nil {
		rw.DomainError(err)
		return
	}

	media, err := h.catalog.GetMedia(r.Context(), id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(media)
}

// RefreshMediaCover re-downloads the item's cover art from its cover URL and
// returns the updated entry.
func (h *Handler) RefreshMediaCover(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	media, err := h.catalog.RefreshCover(r.Context(), id)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(media)
}

// RemoveMediaCover deletes the locally cached cover art.
func (h *Handler) RemoveMediaCover(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, ok := mediaIDParam(rw, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.catalog.RemoveCover(r.Context(), id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// pageSizeBounds returns the configured default and maximum page sizes with
// safe fallbacks when configuration is absent.
func (h *Handler) pageSizeBounds() (def, max int) {
	def, max = 50, 500
	if h.config != nil {
		if h.config.API.DefaultPageSize > 0 {
			def = h.config.API.DefaultPageSize
		}
		if h.config.API.MaxPageSize > 0 {
			max = h.config.API.MaxPageSize
		}
	}
	return def, max
}
