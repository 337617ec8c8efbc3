// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// tokens.go - RFID Token Binding Store
//
// Binding rules, enforced transactionally:
//   - A token binds at most one media item; a media item may have many tokens.
//   - Upsert registers or renames a token and never touches its binding.
//   - Bind fails with ErrTokenAssigned when the token is bound to a
//     different media item; binding to the same item is idempotent.
//   - Unbind clears the binding; the token row survives for reuse.

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
)

const tokenColumns = `uid, label, media_id, created_at, updated_at`

func scanTokenRow(row rowScanner, t *models.TokenBinding) error {
	return row.Scan(&t.UID, &t.Label, &t.MediaID, &t.CreatedAt, &t.UpdatedAt)
}

// ListTokens returns all tokens ordered by UID. With assigned non-nil the
// listing is restricted to bound (true) or unbound (false) tokens.
func (db *DB) ListTokens(ctx context.Context, assigned *bool) ([]models.TokenBinding, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + tokenColumns + ` FROM tokens`
	if assigned != nil {
		if *assigned {
			query += ` WHERE media_id IS NOT NULL`
		} else {
			query += ` WHERE media_id IS NULL`
		}
	}
	query += ` ORDER BY uid`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []models.TokenBinding
	for rows.Next() {
		var t models.TokenBinding
		if err := scanTokenRow(rows, &t); err != nil {
			return nil, fmt.Errorf("failed to scan token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// GetToken returns one token by UID.
func (db *DB) GetToken(ctx context.Context, uid string) (*models.TokenBinding, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var t models.TokenBinding
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE uid = ?`, uid)
	if err := scanTokenRow(row, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTokenNotFound, uid)
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return &t, nil
}

// UpsertToken registers a token or renames an existing one. The media
// binding of an existing token is never changed here; that is Bind's job.
func (db *DB) UpsertToken(ctx context.Context, uid, label string) (*models.TokenBinding, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()
	_, err := db.conn.ExecContext(ctx, `INSERT INTO tokens (uid, label, media_id, created_at, updated_at)
		VALUES (?, ?, NULL, ?, ?)
		ON CONFLICT (uid) DO UPDATE SET label = EXCLUDED.label, updated_at = EXCLUDED.updated_at`,
		uid, label, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert token: %w", err)
	}

	return db.GetToken(ctx, uid)
}

// BindToken points a token at a media item. The token and the media must
// both exist; a token bound elsewhere is refused with ErrTokenAssigned.
func (db *DB) BindToken(ctx context.Context, uid string, mediaID uuid.UUID) (binding *models.TokenBinding, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	if err = mediaExistsTx(ctx, tx, mediaID); err != nil {
		return nil, err
	}

	var t models.TokenBinding
	row := tx.QueryRowContext(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE uid = ?`, uid)
	if err = scanTokenRow(row, &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("%w: %s", ErrTokenNotFound, uid)
			return nil, err
		}
		return nil, fmt.Errorf("failed to get token: %w", err)
	}

	if t.MediaID != nil && *t.MediaID != mediaID {
		err = fmt.Errorf("%w: token=%s media=%s", ErrTokenAssigned, uid, *t.MediaID)
		return nil, err
	}

	t.MediaID = &mediaID
	t.UpdatedAt = time.Now().UTC()
	if _, err = tx.ExecContext(ctx,
		`UPDATE tokens SET media_id = ?, updated_at = ? WHERE uid = ?`,
		mediaID, t.UpdatedAt, uid); err != nil {
		return nil, fmt.Errorf("failed to bind token: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit token bind: %w", err)
	}
	return &t, nil
}

// UnbindToken clears a token's media binding. Unbinding an already-unbound
// token succeeds; the operation is idempotent.
func (db *DB) UnbindToken(ctx context.Context, uid string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE tokens SET media_id = NULL, updated_at = ? WHERE uid = ?`,
		time.Now().UTC(), uid)
	if err != nil {
		return fmt.Errorf("failed to unbind token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read unbind result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, uid)
	}
	return nil
}

// DeleteToken removes a token row entirely.
func (db *DB) DeleteToken(ctx context.Context, uid string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx, `DELETE FROM tokens WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrTokenNotFound, uid)
	}
	return nil
}

// ResolveToken returns a token and, when bound, the media item it points
// at (with tags). An unbound token resolves to a nil media, which callers
// report as their own not-found condition.
func (db *DB) ResolveToken(ctx context.Context, uid string) (*models.TokenBinding, *models.Media, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	t, err := db.GetToken(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if t.MediaID == nil {
		return t, nil, nil
	}

	media, err := db.GetMediaByID(ctx, *t.MediaID)
	if err != nil {
		if errors.Is(err, ErrMediaNotFound) {
			// Binding points at a row that no longer exists; treat as unbound.
			return t, nil, nil
		}
		return nil, nil, err
	}
	return t, media, nil
}
