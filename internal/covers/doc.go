// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package covers stores and fetches cover art for catalog items.
//
// The Store keeps one JPEG per media item at <covers-dir>/<media-id>.jpg,
// written atomically (temp file + rename) and served with a BLAKE2b-128
// ETag for cheap 304 responses.
//
// The Fetcher downloads covers from provider URLs with a per-host budget:
// a token-bucket rate limit, a circuit breaker against a dead CDN, a size
// cap, and JPEG/PNG decoding. Non-JPEG images are re-encoded so the store
// only ever holds JPEG.
package covers
