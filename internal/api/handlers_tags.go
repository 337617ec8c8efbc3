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
	"github.com/jmoreau78/audiotheca/internal/validation"
)

// ListTags returns the tag vocabulary, optionally filtered to one category.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	tags, err := h.catalog.ListTags(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(tags)
}

// CreateTag registers a (category, value) pair in the vocabulary.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.TagCreateRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	tag, err := h.catalog.CreateTag(r.Context(), req.Category, req.Value)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(tag)
}

// DeleteTag removes a tag and all of its media assignments.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		rw.BadRequest("Malformed tag identifier")
		return
	}

	if err := h.catalog.DeleteTag(r.Context(), id); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// ListTagCategories returns the category vocabulary.
func (h *Handler) ListTagCategories(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(categories)
}

// CreateTagCategory registers a category.
func (h *Handler) CreateTagCategory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.TagCategoryCreateRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Slug, req.Label)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Created(category)
}

// DeleteTagCategory removes a category with its tags and assignments.
func (h *Handler) DeleteTagCategory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	slug := chi.URLParam(r, "slug")
	if verr := validation.ValidateVar("slug", slug, "required,tagslug,max=100"); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, apiErr.Message, apiErr.Details)
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), slug); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// TagVocabulary returns all categories with their values in one shot, the
// shape pickers need to build a tag filter UI.
func (h *Handler) TagVocabulary(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	vocab, err := h.catalog.Vocabulary(r.Context())
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(vocab)
}
