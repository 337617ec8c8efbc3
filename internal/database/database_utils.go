// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package database

import (
	"context"
	"fmt"
	"time"
)

// ensureContext creates a context with 30-second timeout if none provided
// or if the given context has no deadline.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		return context.WithTimeout(ctx, 30*time.Second)
	}

	return ctx, func() {}
}

// Checkpoint forces a WAL checkpoint, flushing pending writes into the main
// database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("failed to checkpoint: %w", err)
	}
	return nil
}

// GetDatabasePath returns the configured database file path.
func (db *DB) GetDatabasePath() string {
	return db.cfg.Path
}

// GetRecordCounts returns row counts for the main catalog tables. Used for
// the startup summary and the system stats endpoint.
func (db *DB) GetRecordCounts(ctx context.Context) (media, tags, tokens int64, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`).Scan(&media); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count media: %w", err)
	}
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&tags); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count tags: %w", err)
	}
	if err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tokens`).Scan(&tokens); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return media, tags, tokens, nil
}
