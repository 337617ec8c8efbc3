// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// mediaColumns is the canonical column list; every media scan uses the same
// order via scanMediaRow.
const mediaColumns = `id, title, media_type, source_uri, provider, cover_url, cover_local, duration_min, description, is_active, created_at, updated_at`

// snapshotActiveQuery feeds the selection engine. Ordering by seq makes the
// snapshot follow catalog insertion order, the engine's final tie-break.
const snapshotActiveQuery = `SELECT ` + mediaColumns + ` FROM media WHERE is_active ORDER BY seq`

// snapshotTagsQuery loads all tag assignments of active media in one pass.
const snapshotTagsQuery = `
	SELECT mt.media_id, t.category, t.value
	FROM media_tags mt
	JOIN tags t ON t.id = mt.tag_id
	JOIN media m ON m.id = mt.media_id
	WHERE m.is_active
	ORDER BY t.category, t.value`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMediaRow(row rowScanner, m *models.Media) error {
	return row.Scan(
		&m.ID, &m.Title, &m.Type, &m.SourceURI, &m.Provider,
		&m.CoverURL, &m.CoverLocal, &m.DurationMin, &m.Description,
		&m.IsActive, &m.CreatedAt, &m.UpdatedAt,
	)
}

// InsertMedia creates a catalog entry together with its tag assignments in
// one transaction. Missing ID and timestamps are filled in; tag values are
// stored literally (normalization is the selection engine's concern).
func (db *DB) InsertMedia(ctx context.Context, m *models.Media) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO media (
		id, title, media_type, source_uri, provider,
		cover_url, cover_local, duration_min, description,
		is_active, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Title, m.Type, m.SourceURI, m.Provider,
		m.CoverURL, m.CoverLocal, m.DurationMin, m.Description,
		m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: provider=%s source_uri=%s", ErrDuplicateSource, m.Provider, m.SourceURI)
		}
		return fmt.Errorf("failed to insert media: %w", err)
	}

	if err = attachTagsTx(ctx, tx, m.ID, m.Tags); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit media insert: %w", err)
	}
	return nil
}

// GetMediaByID returns a catalog entry with its tags.
func (db *DB) GetMediaByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var m models.Media
	row := db.conn.QueryRowContext(ctx, `SELECT `+mediaColumns+` FROM media WHERE id = ?`, id)
	if err := scanMediaRow(row, &m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrMediaNotFound, id)
		}
		return nil, fmt.Errorf("failed to get media: %w", err)
	}

	tagsByMedia, err := db.loadTagsFor(ctx, []uuid.UUID{m.ID})
	if err != nil {
		return nil, err
	}
	m.Tags = tagsByMedia[m.ID]

	return &m, nil
}

// UpdateMedia writes all mutable columns of the entry. Callers load the
// current row, apply their partial update, and pass the result back; tag
// changes go through ReplaceMediaTags.
func (db *DB) UpdateMedia(ctx context.Context, m *models.Media) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	m.UpdatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx, `UPDATE media SET
		title = ?, media_type = ?, source_uri = ?, provider = ?,
		cover_url = ?, cover_local = ?, duration_min = ?, description = ?,
		is_active = ?, updated_at = ?
	WHERE id = ?`,
		m.Title, m.Type, m.SourceURI, m.Provider,
		m.CoverURL, m.CoverLocal, m.DurationMin, m.Description,
		m.IsActive, m.UpdatedAt, m.ID,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: provider=%s source_uri=%s", ErrDuplicateSource, m.Provider, m.SourceURI)
		}
		return fmt.Errorf("failed to update media: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, m.ID)
	}
	return nil
}

// SetMediaCoverLocal records the locally cached cover file for an entry
// without touching the rest of the row. An empty path clears it.
func (db *DB) SetMediaCoverLocal(ctx context.Context, id uuid.UUID, coverLocal string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE media SET cover_local = ?, updated_at = ? WHERE id = ?`,
		coverLocal, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set cover path: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read cover update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, id)
	}
	return nil
}

// DeleteMedia removes an entry. Soft delete (the default) only deactivates
// it, keeping history references valid. Hard delete removes the row, its
// tag assignments, and releases any tokens bound to it.
func (db *DB) DeleteMedia(ctx context.Context, id uuid.UUID, hard bool) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if !hard {
		result, err := db.conn.ExecContext(ctx,
			`UPDATE media SET is_active = false, updated_at = ? WHERE id = ?`,
			time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("failed to deactivate media: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read delete result: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("%w: %s", ErrMediaNotFound, id)
		}
		return nil
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM media_tags WHERE media_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach tags: %w", err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE tokens SET media_id = NULL, updated_at = ? WHERE media_id = ?`,
		time.Now().UTC(), id); err != nil {
		return fmt.Errorf("failed to release tokens: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM media WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		err = fmt.Errorf("%w: %s", ErrMediaNotFound, id)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit media delete: %w", err)
	}
	return nil
}

// buildMediaWhereClause translates a listing filter into a WHERE clause and
// its arguments. Zero-valued filter fields contribute nothing.
func buildMediaWhereClause(filter models.MediaListFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Active != nil {
		conditions = append(conditions, "is_active = ?")
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, "(title ILIKE ? OR description ILIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	if filter.Type != "" {
		conditions = append(conditions, "media_type = ?")
		args = append(args, filter.Type)
	}
	if filter.Provider != "" {
		conditions = append(conditions, "provider = ?")
		args = append(args, filter.Provider)
	}
	if filter.Category != "" && filter.Value != "" {
		conditions = append(conditions, `id IN (
			SELECT mt.media_id FROM media_tags mt
			JOIN tags t ON t.id = mt.tag_id
			WHERE t.category = ? AND t.value = ?)`)
		args = append(args, filter.Category, filter.Value)
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// normalizePagination clamps page and page size to sane bounds. The API
// layer applies its own configured limits first; these are the store's
// hard backstop.
func normalizePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 500 {
		pageSize = 500
	}
	return page, pageSize
}

// ListMedia returns one page of the catalog, newest-updated first, with
// total count for pagination metadata.
func (db *DB) ListMedia(ctx context.Context, filter models.MediaListFilter) (*models.MediaPage, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	whereClause, args := buildMediaWhereClause(filter)

	countQuery := "SELECT COUNT(*) FROM media" + whereClause
	var total int
	if err := db.conn.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count media: %w", err)
	}

	page, pageSize := normalizePagination(filter.Page, filter.PageSize)

	query := `SELECT ` + mediaColumns + ` FROM media` + whereClause +
		` ORDER BY updated_at DESC, seq DESC LIMIT ? OFFSET ?`
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()

	items := make([]models.Media, 0, pageSize)
	ids := make([]uuid.UUID, 0, pageSize)
	for rows.Next() {
		var m models.Media
		if err := scanMediaRow(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		items = append(items, m)
		ids = append(ids, m.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media rows: %w", err)
	}

	tagsByMedia, err := db.loadTagsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Tags = tagsByMedia[items[i].ID]
	}

	pages := 0
	if total > 0 {
		pages = (total + pageSize - 1) / pageSize
	}

	return &models.MediaPage{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}

// SnapshotActive returns all active media with their tags in catalog
// insertion order. This is the read-only view the selection engine
// evaluates; both queries run as cached prepared statements.
func (db *DB) SnapshotActive(ctx context.Context) ([]models.Media, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	stmt, err := db.prepared(ctx, snapshotActiveQuery)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query active media: %w", err)
	}
	defer rows.Close()

	var snapshot []models.Media
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var m models.Media
		if err := scanMediaRow(rows, &m); err != nil {
			return nil, fmt.Errorf("failed to scan media row: %w", err)
		}
		index[m.ID] = len(snapshot)
		snapshot = append(snapshot, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active media: %w", err)
	}
	if len(snapshot) == 0 {
		return snapshot, nil
	}

	tagStmt, err := db.prepared(ctx, snapshotTagsQuery)
	if err != nil {
		return nil, err
	}
	tagRows, err := tagStmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot tags: %w", err)
	}
	defer tagRows.Close()

	for tagRows.Next() {
		var mediaID uuid.UUID
		var ta models.TagAssignment
		if err := tagRows.Scan(&mediaID, &ta.Category, &ta.Value); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot tag: %w", err)
		}
		if i, ok := index[mediaID]; ok {
			snapshot[i].Tags = append(snapshot[i].Tags, ta)
		}
	}
	if err := tagRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot tags: %w", err)
	}

	return snapshot, nil
}

// loadTagsFor returns the tag assignments for the given media IDs, ordered
// by category then value.
func (db *DB) loadTagsFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.TagAssignment, error) {
	result := make(map[uuid.UUID][]models.TagAssignment, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := `SELECT mt.media_id, t.category, t.value
		FROM media_tags mt
		JOIN tags t ON t.id = mt.tag_id
		WHERE mt.media_id IN (` + placeholders + `)
		ORDER BY t.category, t.value`

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mediaID uuid.UUID
		var ta models.TagAssignment
		if err := rows.Scan(&mediaID, &ta.Category, &ta.Value); err != nil {
			return nil, fmt.Errorf("failed to scan tag assignment: %w", err)
		}
		result[mediaID] = append(result[mediaID], ta)
	}
	return result, rows.Err()
}

// AttachMediaTag attaches a (category, value) pair to a media item,
// creating the tag row on first use. Attaching an already-attached tag is
// a no-op. Returns the tag so callers can report its ID.
func (db *DB) AttachMediaTag(ctx context.Context, mediaID uuid.UUID, category, value string) (tag *models.Tag, err error) {
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

	tag, err = getOrCreateTagTx(ctx, tx, category, value)
	if err != nil {
		return nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO media_tags (media_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
		mediaID, tag.ID); err != nil {
		return nil, fmt.Errorf("failed to attach tag: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tag attach: %w", err)
	}
	return tag, nil
}

// DetachMediaTag removes one tag assignment from a media item. The tag row
// itself stays in the vocabulary.
func (db *DB) DetachMediaTag(ctx context.Context, mediaID, tagID uuid.UUID) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM media_tags WHERE media_id = ? AND tag_id = ?`, mediaID, tagID)
	if err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read detach result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: media=%s tag=%s", ErrTagNotFound, mediaID, tagID)
	}
	return nil
}

// ReplaceMediaTags replaces the full tag assignment set of a media item.
func (db *DB) ReplaceMediaTags(ctx context.Context, mediaID uuid.UUID, tags []models.TagAssignment) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	if err = mediaExistsTx(ctx, tx, mediaID); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM media_tags WHERE media_id = ?`, mediaID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}

	if err = attachTagsTx(ctx, tx, mediaID, tags); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tag replace: %w", err)
	}
	return nil
}

// attachTagsTx resolves each assignment to a tag row (creating missing
// ones) and links it to the media item.
func attachTagsTx(ctx context.Context, tx *sql.Tx, mediaID uuid.UUID, tags []models.TagAssignment) error {
	for _, ta := range tags {
		tag, err := getOrCreateTagTx(ctx, tx, ta.Category, ta.Value)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO media_tags (media_id, tag_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			mediaID, tag.ID); err != nil {
			return fmt.Errorf("failed to attach tag %s:%s: %w", ta.Category, ta.Value, err)
		}
	}
	return nil
}

// mediaExistsTx verifies the media row exists inside a transaction.
func mediaExistsTx(ctx context.Context, tx *sql.Tx, id uuid.UUID) error {
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) > 0 FROM media WHERE id = ?`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check media existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrMediaNotFound, id)
	}
	return nil
}
