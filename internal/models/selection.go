// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package models

import (
	"time"

	"github.com/google/uuid"
)

// CriterionPayload is one tag criterion in a structured selection request:
// a category plus the acceptable values (OR within the list).
type CriterionPayload struct {
	Category string   `json:"category"`
	Values   []string `json:"values"`
}

// SelectOptionsPayload carries the option half of a structured selection
// request. Semantic validation (limit, fallback, identifier syntax) is done
// by the selection engine so that flat and structured requests fail the
// same way.
type SelectOptionsPayload struct {
	MediaType  string   `json:"media_type,omitempty"`
	Provider   string   `json:"provider,omitempty"`
	ExcludeIDs []string `json:"exclude_ids,omitempty"`
	Limit      int      `json:"limit,omitempty"`
	Random     bool     `json:"random,omitempty"`
	Fallback   string   `json:"fallback,omitempty"`

	// ExcludeRecent folds media selected within the given window (e.g.
	// "45m", "2h") into the exclusion set before evaluation.
	ExcludeRecent string `json:"exclude_recent,omitempty"`
}

// SelectRequest is the structured selection request body.
type SelectRequest struct {
	AllOf   []CriterionPayload   `json:"all_of,omitempty"`
	NoneOf  []CriterionPayload   `json:"none_of,omitempty"`
	AnyOf   []CriterionPayload   `json:"any_of,omitempty"`
	Options SelectOptionsPayload `json:"options"`
}

// SelectedMedia is one selection result entry: the catalog item joined with
// the engine's ranking metadata and the resolved cover state.
type SelectedMedia struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Type        MediaType       `json:"media_type"`
	SourceURI   string          `json:"source_uri"`
	Provider    string          `json:"provider"`
	CoverPath   string          `json:"cover_path"`
	CoverExists bool            `json:"cover_exists"`
	MatchCount  int             `json:"match_count,omitempty"`
	Tags        []TagAssignment `json:"tags,omitempty"`
}

// SelectionMeta describes how a selection was resolved.
type SelectionMeta struct {
	FallbackMode string `json:"fallback_mode"`
	FallbackUsed bool   `json:"fallback_used"`
	PoolSize     int    `json:"pool_size"`
	Returned     int    `json:"returned"`
}

// SelectionResult is the full outcome of one selection call.
type SelectionResult struct {
	Items []SelectedMedia `json:"items"`
	Meta  SelectionMeta   `json:"meta"`
}

// SelectionRecord is one history entry, persisted per selection call.
type SelectionRecord struct {
	ID           uuid.UUID   `json:"id"`
	At           time.Time   `json:"at"`
	Source       string      `json:"source"` // api, rfid
	Query        string      `json:"query,omitempty"`
	FallbackMode string      `json:"fallback_mode"`
	FallbackUsed bool        `json:"fallback_used"`
	Random       bool        `json:"random"`
	Limit        int         `json:"limit"`
	MediaIDs     []uuid.UUID `json:"media_ids"`
}
