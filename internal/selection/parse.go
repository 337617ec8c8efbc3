// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package selection

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jmoreau78/audiotheca/internal/models"
)

// Pair is one ordered key/value from a query string. Order matters: the
// first appearance of each include category fixes its declaration rank for
// fallback relaxation, which url.Values (a map) cannot preserve.
type Pair struct {
	Key   string
	Value string
}

// ParsePairs splits a raw query string into ordered pairs. Unlike
// url.ParseQuery it keeps parameter order; escaping errors abort parsing.
func ParsePairs(rawQuery string) ([]Pair, error) {
	if rawQuery == "" {
		return nil, nil
	}
	segments := strings.Split(rawQuery, "&")
	pairs := make([]Pair, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		key, value, _ := strings.Cut(seg, "=")
		k, err := url.QueryUnescape(key)
		if err != nil {
			return nil, &ValidationError{Field: "query", Reason: fmt.Sprintf("malformed key %q", key)}
		}
		v, err := url.QueryUnescape(value)
		if err != nil {
			return nil, &ValidationError{Field: "query", Reason: fmt.Sprintf("malformed value for %q", k)}
		}
		pairs = append(pairs, Pair{Key: k, Value: v})
	}
	return pairs, nil
}

// Reserved parameter names routed to Options instead of tag categories.
const (
	paramMediaType  = "media_type"
	paramProvider   = "provider"
	paramExcludeIDs = "exclude_ids"
	paramFallback   = "fallback"
	paramRandom     = "random"
	paramLimit      = "limit"
)

func reservedSet(extra []string) map[string]struct{} {
	set := map[string]struct{}{
		paramMediaType:  {},
		paramProvider:   {},
		paramExcludeIDs: {},
		paramFallback:   {},
		paramRandom:     {},
		paramLimit:      {},
	}
	for _, k := range extra {
		set[strings.ToLower(k)] = struct{}{}
	}
	return set
}

// ParseFlatQuery normalizes the flat parameter surface into a canonical
// Query and Options.
//
// Tag keys: a bare "category=a,b" pair contributes an AllOf criterion with
// OR across the comma-separated values; "not_category=a,b" contributes a
// NoneOf criterion. The "tag_" and "not_tag_" prefixes are accepted aliases
// so a category whose name collides with a reserved key stays reachable.
// Repeated keys for one category merge into a single criterion; values are
// normalized, deduplicated, and sorted; pairs with empty values are skipped.
//
// Reserved keys fill Options; scalar options take the last occurrence and
// exclude_ids accumulates across occurrences. Callers that consume extra
// parameters (pagination, history windows) pass them as extraReserved so
// they are not mistaken for tag categories.
func ParseFlatQuery(pairs []Pair, extraReserved ...string) (Query, Options, error) {
	reserved := reservedSet(extraReserved)
	opts := DefaultOptions()

	includeValues := make(map[string][]string)
	excludeValues := make(map[string][]string)
	var includeOrder, excludeOrder []string

	for _, pair := range pairs {
		key := strings.ToLower(strings.TrimSpace(pair.Key))
		if key == "" || pair.Value == "" {
			continue
		}

		if _, ok := reserved[key]; ok {
			if err := applyReserved(&opts, key, pair.Value); err != nil {
				return Query{}, Options{}, err
			}
			continue
		}

		exclusion := false
		category := key
		switch {
		case strings.HasPrefix(key, "not_tag_"):
			exclusion = true
			category = key[len("not_tag_"):]
		case strings.HasPrefix(key, "not_"):
			exclusion = true
			category = key[len("not_"):]
		case strings.HasPrefix(key, "tag_"):
			category = key[len("tag_"):]
		}
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}

		values := make([]string, 0, 2)
		for _, v := range SplitCSV(pair.Value) {
			if n := NormalizeToken(v); n != "" {
				values = append(values, n)
			}
		}
		if len(values) == 0 {
			continue
		}

		if exclusion {
			if _, seen := excludeValues[category]; !seen {
				excludeOrder = append(excludeOrder, category)
			}
			excludeValues[category] = append(excludeValues[category], values...)
		} else {
			if _, seen := includeValues[category]; !seen {
				includeOrder = append(includeOrder, category)
			}
			includeValues[category] = append(includeValues[category], values...)
		}
	}

	q := Query{}
	for _, cat := range includeOrder {
		sorted, _ := normalizeValueSet(includeValues[cat])
		if len(sorted) > 0 {
			q.AllOf = append(q.AllOf, Criterion{Category: cat, Values: sorted})
		}
	}
	for _, cat := range excludeOrder {
		sorted, _ := normalizeValueSet(excludeValues[cat])
		if len(sorted) > 0 {
			q.NoneOf = append(q.NoneOf, Criterion{Category: cat, Values: sorted})
		}
	}
	return q, opts, nil
}

func applyReserved(opts *Options, key, value string) error {
	switch key {
	case paramMediaType:
		opts.MediaType = models.MediaType(strings.TrimSpace(value))
	case paramProvider:
		opts.Provider = strings.TrimSpace(value)
	case paramExcludeIDs:
		ids, err := ParseExcludeIDs(SplitCSV(value))
		if err != nil {
			return err
		}
		opts.ExcludeIDs = append(opts.ExcludeIDs, ids...)
	case paramFallback:
		mode, err := ParseFallbackMode(value)
		if err != nil {
			return err
		}
		opts.Fallback = mode
	case paramRandom:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return &ValidationError{Field: "random", Reason: fmt.Sprintf("not a boolean: %q", value)}
		}
		opts.Random = b
	case paramLimit:
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return &ValidationError{Field: "limit", Reason: fmt.Sprintf("not an integer: %q", value)}
		}
		if n < 1 {
			return &ValidationError{Field: "limit", Reason: fmt.Sprintf("must be a positive integer, got %d", n)}
		}
		opts.Limit = n
	}
	return nil
}

// QueryFromRequest maps the structured request body onto a canonical Query
// and Options. Criterion values are carried as-is; the engine normalizes
// them during evaluation, so structured and flat requests match the same
// items. An omitted or zero limit takes the default of one result.
// Options.ExcludeRecent is a transport concern resolved by the caller and
// ignored here.
func QueryFromRequest(req models.SelectRequest) (Query, Options, error) {
	q := Query{
		AllOf:  criteriaFromPayload(req.AllOf),
		NoneOf: criteriaFromPayload(req.NoneOf),
		AnyOf:  criteriaFromPayload(req.AnyOf),
	}

	opts := DefaultOptions()
	opts.MediaType = models.MediaType(strings.TrimSpace(req.Options.MediaType))
	opts.Provider = strings.TrimSpace(req.Options.Provider)
	opts.Random = req.Options.Random

	mode, err := ParseFallbackMode(req.Options.Fallback)
	if err != nil {
		return Query{}, Options{}, err
	}
	opts.Fallback = mode

	ids, err := ParseExcludeIDs(req.Options.ExcludeIDs)
	if err != nil {
		return Query{}, Options{}, err
	}
	opts.ExcludeIDs = ids

	if req.Options.Limit != 0 {
		if req.Options.Limit < 1 {
			return Query{}, Options{}, &ValidationError{
				Field:  "limit",
				Reason: fmt.Sprintf("must be a positive integer, got %d", req.Options.Limit),
			}
		}
		opts.Limit = req.Options.Limit
	}
	return q, opts, nil
}

func criteriaFromPayload(payload []models.CriterionPayload) []Criterion {
	if len(payload) == 0 {
		return nil
	}
	criteria := make([]Criterion, 0, len(payload))
	for _, p := range payload {
		criteria = append(criteria, Criterion{
			Category: strings.TrimSpace(p.Category),
			Values:   p.Values,
		})
	}
	return criteria
}
