// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package catalog orchestrates the media catalog: CRUD over the stores,
// cover download side effects, tag vocabulary management, event
// publication, and the selection pipeline.
//
// The Service is the single mutation path for catalog state. Every write
// invalidates the cached active-item snapshot that Select evaluates
// against, so selections always observe committed catalog changes while
// repeated scans within the snapshot TTL skip the database.
//
// Select composes the pieces end to end: snapshot, engine evaluation,
// synchronous history append (recent-exclusion reads its own writes),
// media.selected event, metrics, and result hydration with cover
// presence. RecordTokenSelection feeds the same record path when an RFID
// scan is played directly instead of answering a tag query.
package catalog
