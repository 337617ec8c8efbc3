// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package selection

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/models"
)

// FallbackMode decides what happens when strict matching yields nothing.
type FallbackMode string

const (
	// FallbackNone returns an empty result when strict matching fails.
	FallbackNone FallbackMode = "none"

	// FallbackAggressive drops AllOf criteria one at a time, last declared
	// first, re-evaluating after each removal.
	FallbackAggressive FallbackMode = "aggressive"

	// FallbackSoft ranks items by how many declared criteria they satisfy,
	// keeping anything that matches at least one.
	FallbackSoft FallbackMode = "soft"
)

// ParseFallbackMode maps a request string to a FallbackMode. The empty
// string selects the default (none); anything else unrecognized is a
// validation error.
func ParseFallbackMode(s string) (FallbackMode, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "":
		return FallbackNone, nil
	case string(FallbackNone):
		return FallbackNone, nil
	case string(FallbackAggressive):
		return FallbackAggressive, nil
	case string(FallbackSoft):
		return FallbackSoft, nil
	default:
		return "", &ValidationError{
			Field:  "fallback",
			Reason: fmt.Sprintf("unknown mode %q, want none, aggressive, or soft", s),
		}
	}
}

// ValidationError reports a malformed query or option before any
// evaluation happens. Field identifies the offending input so automation
// callers can correct the request.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Criterion is a tag constraint: a category plus acceptable values.
// An item satisfies the criterion when it carries at least one tag in
// Category whose normalized value is among Values (OR within a criterion).
type Criterion struct {
	Category string
	Values   []string
}

// Query is the canonical selection request.
//
// AllOf is an ordered sequence, not a set: aggressive fallback removes
// criteria in reverse declaration order, so position carries meaning.
// NoneOf is absolute and survives every fallback mode. A non-empty AnyOf
// requires at least one of its criteria to match.
type Query struct {
	AllOf  []Criterion
	NoneOf []Criterion
	AnyOf  []Criterion
}

// IsZero reports whether the query constrains nothing.
func (q Query) IsZero() bool {
	return len(q.AllOf) == 0 && len(q.NoneOf) == 0 && len(q.AnyOf) == 0
}

// Options carries the non-tag half of a selection request. MediaType,
// Provider, and ExcludeIDs are strict filters: no fallback mode relaxes
// them.
type Options struct {
	MediaType  models.MediaType
	Provider   string
	ExcludeIDs []uuid.UUID
	Limit      int
	Random     bool
	Fallback   FallbackMode
}

// DefaultOptions returns Options with the documented defaults: one result,
// deterministic order, no fallback.
func DefaultOptions() Options {
	return Options{Limit: 1, Fallback: FallbackNone}
}

// ParseExcludeIDs converts raw identifier strings into UUIDs, rejecting the
// request on the first malformed entry. Both request surfaces share this so
// they fail identically.
func ParseExcludeIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, &ValidationError{
				Field:  "exclude_ids",
				Reason: fmt.Sprintf("malformed identifier %q", r),
			}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks the query's structural invariants: every criterion needs
// a category and at least one non-empty value.
func (q Query) Validate() error {
	if err := validateCriteria("all_of", q.AllOf); err != nil {
		return err
	}
	if err := validateCriteria("none_of", q.NoneOf); err != nil {
		return err
	}
	return validateCriteria("any_of", q.AnyOf)
}

func validateCriteria(field string, criteria []Criterion) error {
	for _, c := range criteria {
		if strings.TrimSpace(c.Category) == "" {
			return &ValidationError{Field: field, Reason: "criterion with empty category"}
		}
		if len(c.Values) == 0 {
			return &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("criterion %q declares no values", c.Category),
			}
		}
		nonEmpty := false
		for _, v := range c.Values {
			if NormalizeToken(v) != "" {
				nonEmpty = true
				break
			}
		}
		if !nonEmpty {
			return &ValidationError{
				Field:  field,
				Reason: fmt.Sprintf("criterion %q has only blank values", c.Category),
			}
		}
	}
	return nil
}

// Validate checks option invariants. Limit must already be resolved to a
// positive value by the request surface (absent limits default to 1 there).
func (o Options) Validate() error {
	if o.Limit < 1 {
		return &ValidationError{
			Field:  "limit",
			Reason: fmt.Sprintf("must be a positive integer, got %d", o.Limit),
		}
	}
	switch o.Fallback {
	case FallbackNone, FallbackAggressive, FallbackSoft:
	default:
		return &ValidationError{
			Field:  "fallback",
			Reason: fmt.Sprintf("unknown mode %q, want none, aggressive, or soft", string(o.Fallback)),
		}
	}
	if o.MediaType != "" && !o.MediaType.Valid() {
		return &ValidationError{
			Field:  "media_type",
			Reason: fmt.Sprintf("unknown media type %q", string(o.MediaType)),
		}
	}
	return nil
}

// Summary renders a compact human-readable form of the query, used for
// history records and request logging.
func (q Query) Summary() string {
	var b strings.Builder
	writeGroup := func(prefix string, criteria []Criterion) {
		for _, c := range criteria {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(prefix)
			b.WriteString(c.Category)
			b.WriteByte('=')
			b.WriteString(strings.Join(c.Values, ","))
		}
	}
	writeGroup("", q.AllOf)
	writeGroup("not:", q.NoneOf)
	writeGroup("any:", q.AnyOf)
	return b.String()
}
