// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoreau78/audiotheca/internal/catalog"
	"github.com/jmoreau78/audiotheca/internal/events"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
	"github.com/jmoreau78/audiotheca/internal/selection"
)

// SelectMediaFlat runs a selection from flat query parameters.
//
// Tag criteria come straight from the query string: "mood=calm,focus"
// requires a mood tag of calm or focus, "not_owner=papa" excludes items
// tagged owner=papa. Reserved parameters (media_type, provider, exclude_ids,
// fallback, random, limit) fill the options; exclude_recent=45m folds media
// selected within the window into the exclusion set. Parameter order fixes
// the relaxation order under aggressive fallback, so this handler parses the
// raw query instead of url.Values.
func (h *Handler) SelectMediaFlat(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	pairs, err := selection.ParsePairs(r.URL.RawQuery)
	if err != nil {
		rw.DomainError(err)
		return
	}

	q, opts, err := selection.ParseFlatQuery(pairs, "exclude_recent")
	if err != nil {
		rw.DomainError(err)
		return
	}

	if err := h.foldRecentExclusions(r.Context(), r.URL.Query().Get("exclude_recent"), &opts); err != nil {
		rw.DomainError(err)
		return
	}

	result, err := h.catalog.Select(r.Context(), q, opts, events.SourceAPI)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(selectionResponse(result, opts))
}

// SelectMediaStructured runs a selection from a JSON request body. The
// structured surface expresses what flat parameters cannot: any_of groups
// and criteria for categories whose names collide with reserved parameters.
func (h *Handler) SelectMediaStructured(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.SelectRequest
	if !decodeJSON(rw, r, &req) {
		return
	}

	q, opts, err := selection.QueryFromRequest(req)
	if err != nil {
		rw.DomainError(err)
		return
	}

	if err := h.foldRecentExclusions(r.Context(), req.Options.ExcludeRecent, &opts); err != nil {
		rw.DomainError(err)
		return
	}

	result, err := h.catalog.Select(r.Context(), q, opts, events.SourceAPI)
	if err != nil {
		rw.DomainError(err)
		return
	}
	rw.Success(selectionResponse(result, opts))
}

// foldRecentExclusions resolves an exclude_recent window against the history
// store and appends the returned identifiers to opts.ExcludeIDs. With
// history disabled the window is ignored: there is nothing to exclude.
func (h *Handler) foldRecentExclusions(ctx context.Context, raw string, opts *selection.Options) error {
	if raw == "" {
		return nil
	}

	window, err := time.ParseDuration(raw)
	if err != nil || window <= 0 {
		return &selection.ValidationError{
			Field:  "exclude_recent",
			Reason: fmt.Sprintf("not a positive duration: %q", sanitizeLogValue(raw)),
		}
	}

	if h.history == nil {
		logging.Debug().Msg("exclude_recent ignored: selection history disabled")
		return nil
	}

	ids, err := h.history.RecentMediaIDs(ctx, window)
	if err != nil {
		return fmt.Errorf("recent history lookup: %w", err)
	}
	opts.ExcludeIDs = append(opts.ExcludeIDs, ids...)
	return nil
}

// selectionResponse flattens the catalog result into the wire shape: one
// entry per item with its cover state and match count, plus meta describing
// how the selection resolved.
func selectionResponse(res *catalog.SelectionResult, opts selection.Options) *models.SelectionResult {
	items := make([]models.SelectedMedia, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, models.SelectedMedia{
			ID:          it.Media.ID,
			Title:       it.Media.Title,
			Type:        it.Media.Type,
			SourceURI:   it.Media.SourceURI,
			Provider:    it.Media.Provider,
			CoverPath:   it.CoverPath,
			CoverExists: it.CoverExists,
			MatchCount:  it.MatchCount,
			Tags:        it.Media.Tags,
		})
	}
	return &models.SelectionResult{
		Items: items,
		Meta: models.SelectionMeta{
			FallbackMode: string(opts.Fallback),
			FallbackUsed: res.FallbackUsed,
			PoolSize:     res.PoolSize,
			Returned:     len(items),
		},
	}
}
