// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/covers"
	"github.com/jmoreau78/audiotheca/internal/metrics"
)

// GetCover serves a locally cached cover image. Covers are immutable per
// identifier (a refresh rewrites the file and changes the ETag), so the
// handler leans on conditional requests: clients send If-None-Match and get
// a 304 back until the art actually changes.
func (h *Handler) GetCover(w http.ResponseWriter, r *http.Request) {
	if h.covers == nil {
		NewResponseWriter(w, r).ServiceUnavailable("Cover storage is not configured")
		return
	}

	raw := strings.TrimSuffix(chi.URLParam(r, "id"), ".jpg")
	id, err := uuid.Parse(raw)
	if err != nil {
		NewResponseWriter(w, r).BadRequest("Malformed cover identifier")
		return
	}

	digest, err := h.covers.ETag(id)
	if err != nil {
		if errors.Is(err, covers.ErrCoverNotFound) {
			metrics.RecordCoverLookup(false)
			NewResponseWriter(w, r).NotFound("No cover stored for this media")
			return
		}
		NewResponseWriter(w, r).InternalError("Failed to read cover")
		return
	}
	metrics.RecordCoverLookup(true)

	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=86400")

	if match := r.Header.Get("If-None-Match"); match == etag || match == "*" {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, h.covers.Path(id))
}
