// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
Package database provides the DuckDB-backed catalog store.

# Overview

All persistent catalog state lives here: media items, the tag vocabulary
(categories and values), the media-tag associations, and RFID token
bindings. The package wraps database/sql with the DuckDB driver and keeps
the rest of the application free of SQL.

	db, err := database.New(cfg)
	if err != nil {
	    return err
	}
	defer db.Close()

	media, err := db.GetMediaByID(ctx, id)

# Schema

Five tables, created on startup and evolved through versioned migrations
(see migrations.go):

  - media: catalog entries, unique on (provider, source_uri). A sequence
    column records insertion order, which the selection engine uses as its
    final tie-break.
  - tag_categories: the known category vocabulary (slug -> label).
  - tags: (category, value) pairs, unique per combination.
  - media_tags: many-to-many association between media and tags.
  - tokens: RFID token bindings, at most one media per token.

DuckDB does not support cascading foreign keys, so referential cleanup
(detaching tags, unbinding tokens on hard delete) happens in transactions
here rather than in the schema.

# Error Handling

Lookup misses and constraint violations surface as package sentinel errors
(ErrMediaNotFound, ErrDuplicateSource, ErrTokenAssigned, ...) so callers can
branch with errors.Is and map them to API responses without string matching.

# Concurrency

*DB is safe for concurrent use. The connection pool is sized to the CPU
count; multi-statement operations run inside transactions. Prepared
statements for hot read paths are cached behind an RWMutex and closed on
shutdown.
*/
package database
