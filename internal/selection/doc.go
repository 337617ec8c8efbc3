// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package selection implements the media selection engine: boolean tag
// query evaluation over a catalog snapshot, fallback relaxation when strict
// matching yields nothing, and deterministic ranking of the survivors.
//
// The engine is a pure computation. It takes an immutable snapshot of
// active media plus a Query and Options, and returns ordered identifiers
// with ranking metadata. It performs no I/O, holds no locks, and keeps no
// state between calls; any number of selections may run concurrently.
// Randomness, when requested, comes from a source scoped to the call.
//
// Three rules anchor every code path here:
//
//   - Exclusions are absolute. The media type and provider filters, the
//     exclusion identifier set, and NoneOf criteria are composed into one
//     predicate per call and enforced identically in strict matching and in
//     every fallback mode.
//   - AllOf declaration order is meaningful. Aggressive fallback removes
//     criteria strictly last-declared-first, re-evaluating from scratch
//     after each removal.
//   - Ordering is deterministic unless Random is set, and even then
//     randomness only permutes items of equal rank.
//
// This package has no dependencies on other internal packages beyond the
// domain types in models, so it stays importable from anywhere.
package selection
