// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package history persists selection records in an embedded BadgerDB.
//
// Records answer two questions: "what did we play recently?" (the
// /api/v1/history listing) and "what should a selection skip?" (the
// exclude_recent convenience, which feeds recent media IDs into the
// engine's exclusion list).
//
// Keys are "sel:<inverted-nanos>:<uuid>" so a plain forward scan returns
// newest-first without reverse iteration. Retention is enforced by Badger
// TTLs at write time; the GCRunner reclaims value-log space on an
// interval. Values are goccy-encoded models.SelectionRecord.
package history
