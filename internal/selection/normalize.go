// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package selection

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeToken canonicalizes a tag value for comparison: trim, Unicode
// case folding, NFKD decomposition, combining marks stripped. "Sébastien"
// and "SEBASTIEN" both normalize to "sebastien", so user-entered values
// match regardless of accents or case.
//
// Tag categories are deliberately not folded this way at match time; they
// form a closed slug vocabulary and compare case-sensitively.
func NormalizeToken(value string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	text = cases.Fold().String(text)

	// The transformer carries per-run state, so build one per call; the
	// engine must stay safe under concurrent selections.
	stripMarks := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		return text
	}
	return folded
}

// SplitCSV splits a comma-separated parameter into trimmed, non-empty parts.
func SplitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeValueSet folds every value, drops empties, deduplicates, and
// returns the set plus a sorted slice for deterministic iteration.
func normalizeValueSet(values []string) ([]string, map[string]struct{}) {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if n := NormalizeToken(v); n != "" {
			set[n] = struct{}{}
		}
	}
	if len(set) == 0 {
		return nil, nil
	}
	sorted := make([]string, 0, len(set))
	for v := range set {
		sorted = append(sorted, v)
	}
	sort.Strings(sorted)
	return sorted, set
}
