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

// tokenUIDParam validates the {uid} path parameter. RFID readers report
// UIDs in different formats, so only length is constrained here.
func tokenUIDParam(rw *ResponseWriter, raw string) (string, bool) {
	if verr := validation.ValidateVar("uid", raw, "required,min=4,max=128"); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, apiErr.Message, apiErr.Details)
		return "", false
	}
	return raw, true
}

// ListTokens returns registered tokens; ?assigned=true|false filters by
// binding state.
func (h *Handler) ListTokens(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var assigned *bool
	if v, ok := getBoolParam(r, "assigned"); ok {
		assigned = &v
	}

	tokens, err := h.tokens.List(r.Context(), assigned)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(tokens)
}

// GetToken returns one token binding.
func (h *Handler) GetToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	uid, ok := tokenUIDParam(rw, chi.URLParam(r, "uid"))
	if !ok {
		return
	}

	token, err := h.tokens.Get(r.Context(), uid)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(token)
}

// UpsertToken registers a token or renames an existing one. The media
// binding, if any, is never touched by an upsert.
func (h *Handler) UpsertToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	uid, ok := tokenUIDParam(rw, chi.URLParam(r, "uid"))
	if !ok {
		return
	}

	var req models.TokenUpsertRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	token, err := h.tokens.Upsert(r.Context(), uid, req.Label)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(token)
}

// DeleteToken removes a token registration and its binding.
func (h *Handler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	uid, ok := tokenUIDParam(rw, chi.URLParam(r, "uid"))
	if !ok {
		return
	}

	if err := h.tokens.Delete(r.Context(), uid); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// BindToken points a token at a media item. Binding an already-bound token
// to a different item is a conflict; rebinding to the same item is a no-op.
func (h *Handler) BindToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	uid, ok := tokenUIDParam(rw, chi.URLParam(r, "uid"))
	if !ok {
		return
	}

	var req models.TokenBindRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if !validateRequest(rw, &req) {
		return
	}

	mediaID, err := uuid.Parse(req.MediaID)
	if err != nil {
		rw.BadRequest("Malformed media identifier")
		return
	}

	token, err := h.tokens.Bind(r.Context(), uid, mediaID)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(token)
}

// UnbindToken clears a token's media binding, keeping the registration.
func (h *Handler) UnbindToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	uid, ok := tokenUIDParam(rw, chi.URLParam(r, "uid"))
	if !ok {
		return
	}

	if err := h.tokens.Unbind(r.Context(), uid); err != nil {
		rw.DomainError(err)
		return
	}
	rw.NoContent()
}

// ResolveToken returns the media a token points at, the call a reader makes
// on every scan. With ?select=1 the resolution is also recorded as a
// selection, entering history and the event stream like a query result.
func (h *Handler) ResolveToken(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	uid, ok := tokenUIDParam(rw, chi.URLParam(r, "uid"))
	if !ok {
		return
	}

	resolved, err := h.tokens.Resolve(r.Context(), uid)
	if err != nil {
		rw.DomainError(err)
		return
	}

	if selectFlag, ok := getBoolParam(r, "select"); ok && selectFlag && resolved.Media != nil {
		h.catalog.RecordTokenSelection(r.Context(), resolved.Media)
	}

	rw.Success(resolved)
}
