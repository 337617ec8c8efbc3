// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
database_schema.go - Database Schema Management

Tables:
  - media: catalog entries. The seq column is fed by a sequence and records
    insertion order; SnapshotActive orders by it because the selection
    engine treats catalog order as the final tie-break.
  - tag_categories: category vocabulary (slug -> display label).
  - tags: (category, value) pairs, unique per combination.
  - media_tags: media <-> tag association.
  - tokens: RFID token bindings, media_id nullable (unbound tokens wait for
    assignment).

Schema Strategy:
All columns are defined in the initial CREATE TABLE statements; versioned
migrations in migrations.go take over once released databases exist.
Timestamps are written from Go in UTC rather than via SQL defaults, so the
schema stays free of extension-dependent expressions.

DuckDB has no cascading foreign keys; cross-table cleanup is done in
transactions by the store methods.
*/

//nolint:staticcheck // File documentation, not package doc
package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getTableCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// getTableCreationQueries returns the table creation SQL statements
func (db *DB) getTableCreationQueries() []string {
	return []string{
		// Insertion-order sequence for the media table. DuckDB's
		// preserve_insertion_order pragma only covers unordered scans, so
		// catalog order is made explicit and survives reordering queries.
		`CREATE SEQUENCE IF NOT EXISTS media_seq;`,

		`CREATE TABLE IF NOT EXISTS media (
			id UUID PRIMARY KEY,
			seq BIGINT NOT NULL DEFAULT nextval('media_seq'),
			title TEXT NOT NULL,
			media_type TEXT NOT NULL,
			source_uri TEXT NOT NULL,
			provider TEXT NOT NULL,
			cover_url TEXT NOT NULL DEFAULT '',
			cover_local TEXT NOT NULL DEFAULT '',
			duration_min INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			UNIQUE (provider, source_uri)
		);`,

		`CREATE TABLE IF NOT EXISTS tag_categories (
			slug TEXT PRIMARY KEY,
			label TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,

		`CREATE TABLE IF NOT EXISTS tags (
			id UUID PRIMARY KEY,
			category TEXT NOT NULL,
			value TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (category, value)
		);`,

		`CREATE TABLE IF NOT EXISTS media_tags (
			media_id UUID NOT NULL,
			tag_id UUID NOT NULL,
			PRIMARY KEY (media_id, tag_id)
		);`,

		`CREATE TABLE IF NOT EXISTS tokens (
			uid TEXT PRIMARY KEY,
			label TEXT NOT NULL DEFAULT '',
			media_id UUID,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		);`,
	}
}

// createIndexes creates indexes for common query patterns
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := db.getIndexCreationQueries()

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}

// getIndexCreationQueries returns the index creation SQL statements
func (db *DB) getIndexCreationQueries() []string {
	return []string{
		// Catalog listing filters
		`CREATE INDEX IF NOT EXISTS idx_media_title ON media(title);`,
		`CREATE INDEX IF NOT EXISTS idx_media_type ON media(media_type);`,
		`CREATE INDEX IF NOT EXISTS idx_media_provider ON media(provider);`,
		`CREATE INDEX IF NOT EXISTS idx_media_active ON media(is_active);`,
		`CREATE INDEX IF NOT EXISTS idx_media_updated ON media(updated_at DESC);`,
		`CREATE INDEX IF NOT EXISTS idx_media_seq ON media(seq);`,

		// Tag lookups by category and (category, value)
		`CREATE INDEX IF NOT EXISTS idx_tags_category ON tags(category);`,
		`CREATE INDEX IF NOT EXISTS idx_tags_category_value ON tags(category, value);`,

		// Association traversal in both directions
		`CREATE INDEX IF NOT EXISTS idx_media_tags_media ON media_tags(media_id);`,
		`CREATE INDEX IF NOT EXISTS idx_media_tags_tag ON media_tags(tag_id);`,

		// Token bindings by media (hard delete unbinds by media_id)
		`CREATE INDEX IF NOT EXISTS idx_tokens_media ON tokens(media_id);`,
	}
}
