// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"
)

// historyDefaultLimit bounds /history responses when no limit is given.
const historyDefaultLimit = 50

// GetHistory returns recent selection records, newest first.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if h.history == nil {
		rw.ServiceUnavailable(ErrHistoryDisabled.Error())
		return
	}

	_, max := h.pageSizeBounds()
	limit := clampPageSize(getIntParam(r, "limit", 0), historyDefaultLimit, max)

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		rw.DomainError(err)
		return
	}

	total, err := h.history.Count(r.Context())
	if err != nil {
		rw.DomainError(err)
		return
	}

	rw.Success(map[string]interface{}{
		"items": records,
		"count": len(records),
		"total": total,
	})
}
