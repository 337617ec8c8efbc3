// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/events"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
	"github.com/jmoreau78/audiotheca/internal/models"
	"github.com/jmoreau78/audiotheca/internal/selection"
)

// SelectedItem is one selection result hydrated with catalog data.
type SelectedItem struct {
	Media       models.Media `json:"media"`
	CoverPath   string       `json:"cover_path,omitempty"`
	CoverExists bool         `json:"cover_exists"`
	MatchCount  int          `json:"match_count"`
}

// SelectionResult is the catalog-level outcome of one selection run.
// RecordID identifies the history entry and the media.selected event the
// run produced.
type SelectionResult struct {
	Items        []SelectedItem `json:"items"`
	PoolSize     int            `json:"pool_size"`
	SnapshotSize int            `json:"snapshot_size"`
	FallbackUsed bool           `json:"fallback_used"`
	RecordID     uuid.UUID      `json:"record_id"`
}

// Select runs the full selection pipeline: snapshot the active catalog,
// evaluate the query, record the pick in history, publish media.selected,
// and hydrate the results with media rows and cover presence. The source
// tags where the request came from ("api" or "rfid") in history, events,
// and metrics.
func (s *Service) Select(ctx context.Context, q selection.Query, opts selection.Options, source string) (*SelectionResult, error) {
	start := time.Now()

	if opts.Limit > s.maxLimit {
		return nil, &selection.ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("exceeds maximum of %d", s.maxLimit),
		}
	}

	snapshot, err := s.activeSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog snapshot: %w", err)
	}

	res, err := s.engine.Select(snapshot, q, opts)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*models.Media, len(snapshot))
	for i := range snapshot {
		byID[snapshot[i].ID] = &snapshot[i]
	}

	items := make([]SelectedItem, 0, len(res.Items))
	ids := make([]uuid.UUID, 0, len(res.Items))
	for _, sel := range res.Items {
		m, ok := byID[sel.ID]
		if !ok {
			continue
		}
		item := SelectedItem{
			Media:      *m,
			CoverPath:  sel.CoverPath,
			MatchCount: sel.MatchCount,
		}
		if s.covers != nil {
			item.CoverExists = s.covers.Exists(sel.ID)
		}
		items = append(items, item)
		ids = append(ids, sel.ID)
	}

	rec := &models.SelectionRecord{
		ID:           uuid.New(),
		At:           time.Now().UTC(),
		Source:       source,
		Query:        q.Summary(),
		FallbackMode: string(opts.Fallback),
		FallbackUsed: res.FallbackUsed,
		Random:       opts.Random,
		Limit:        opts.Limit,
		MediaIDs:     ids,
	}
	s.recordSelection(ctx, rec, selectionOutcome(res), start, res.PoolSize)

	logging.Debug().
		Str("selection_id", rec.ID.String()).
		Str("source", source).
		Str("query", rec.Query).
		Str("fallback", rec.FallbackMode).
		Bool("fallback_used", res.FallbackUsed).
		Int("pool", res.PoolSize).
		Int("returned", len(items)).
		Msg("Selection completed")

	return &SelectionResult{
		Items:        items,
		PoolSize:     res.PoolSize,
		SnapshotSize: len(snapshot),
		FallbackUsed: res.FallbackUsed,
		RecordID:     rec.ID,
	}, nil
}

// RecordTokenSelection records a token-driven pick as a selection: the
// bound media enters history and a media.selected event goes out, exactly
// as if a query had returned it. Used when a token scan is played rather
// than just resolved.
func (s *Service) RecordTokenSelection(ctx context.Context, m *models.Media) *models.SelectionRecord {
	start := time.Now()

	rec := &models.SelectionRecord{
		ID:           uuid.New(),
		At:           time.Now().UTC(),
		Source:       events.SourceRFID,
		FallbackMode: string(selection.FallbackNone),
		Limit:        1,
		MediaIDs:     []uuid.UUID{m.ID},
	}
	s.recordSelection(ctx, rec, "hit", start, 1)

	logging.Debug().
		Str("selection_id", rec.ID.String()).
		Str("media_id", m.ID.String()).
		Msg("Token selection recorded")

	return rec
}

// recordSelection appends the record to history, publishes media.selected,
// and updates the selection metrics. History failures are logged, not
// returned: the selection itself already succeeded.
func (s *Service) recordSelection(ctx context.Context, rec *models.SelectionRecord, outcome string, start time.Time, poolSize int) {
	if s.hist != nil {
		if err := s.hist.Append(ctx, rec); err != nil {
			logging.Error().
				Err(err).
				Str("selection_id", rec.ID.String()).
				Msg("Failed to append selection history")
		}
	}
	s.publish(ctx, events.NewMediaSelected(rec))
	metrics.RecordSelection(rec.Source, rec.FallbackMode, outcome, time.Since(start), poolSize)
}

// selectionOutcome classifies an engine result for metrics.
func selectionOutcome(res selection.Result) string {
	switch {
	case len(res.Items) == 0:
		return "empty"
	case res.FallbackUsed:
		return "fallback"
	default:
		return "hit"
	}
}

// activeSnapshot returns the active-media snapshot, reusing a cached copy
// within the configured TTL. Writes through this service invalidate the
// cache, so a fresh snapshot follows every catalog mutation.
func (s *Service) activeSnapshot(ctx context.Context) ([]models.Media, error) {
	if s.snapTTL > 0 {
		s.snapMu.Lock()
		if s.snapshot != nil && time.Now().Before(s.snapExpiry) {
			snap := s.snapshot
			s.snapMu.Unlock()
			return snap, nil
		}
		s.snapMu.Unlock()
	}

	snapshot, err := s.media.SnapshotActive(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SelectionSnapshotSize.Set(float64(len(snapshot)))

	if s.snapTTL > 0 {
		s.snapMu.Lock()
		s.snapshot = snapshot
		s.snapExpiry = time.Now().Add(s.snapTTL)
		s.snapMu.Unlock()
	}
	return snapshot, nil
}
