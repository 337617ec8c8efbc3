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
	"time"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// ListTagCategories returns all categories ordered by display label.
func (db *DB) ListTagCategories(ctx context.Context) ([]models.TagCategory, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT slug, label, created_at FROM tag_categories ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tag categories: %w", err)
	}
	defer rows.Close()

	var categories []models.TagCategory
	for rows.Next() {
		var c models.TagCategory
		if err := rows.Scan(&c.Slug, &c.Label, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetTagCategory returns one category by slug.
func (db *DB) GetTagCategory(ctx context.Context, slug string) (*models.TagCategory, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var c models.TagCategory
	err := db.conn.QueryRowContext(ctx,
		`SELECT slug, label, created_at FROM tag_categories WHERE slug = ?`, slug).
		Scan(&c.Slug, &c.Label, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
		}
		return nil, fmt.Errorf("failed to get tag category: %w", err)
	}
	return &c, nil
}

// CreateTagCategory registers a new category.
func (db *DB) CreateTagCategory(ctx context.Context, slug, label string) (*models.TagCategory, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	c := models.TagCategory{
		Slug:      slug,
		Label:     label,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tag_categories (slug, label, created_at) VALUES (?, ?, ?)`,
		c.Slug, c.Label, c.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCategory, slug)
		}
		return nil, fmt.Errorf("failed to create tag category: %w", err)
	}
	return &c, nil
}

// DeleteTagCategory removes a category together with its tags and their
// media assignments.
func (db *DB) DeleteTagCategory(ctx context.Context, slug string) (err error) {
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

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM media_tags WHERE tag_id IN (SELECT id FROM tags WHERE category = ?)`,
		slug); err != nil {
		return fmt.Errorf("failed to detach category tags: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM tags WHERE category = ?`, slug); err != nil {
		return fmt.Errorf("failed to delete category tags: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM tag_categories WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete tag category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		err = fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit category delete: %w", err)
	}
	return nil
}

// ListTags returns tags ordered by category then value, optionally
// restricted to one category.
func (db *DB) ListTags(ctx context.Context, category string) ([]models.Tag, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT id, category, value, created_at FROM tags`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, value`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Category, &t.Value, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// GetTag returns one tag by ID.
func (db *DB) GetTag(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var t models.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, category, value, created_at FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Category, &t.Value, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrTagNotFound, id)
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &t, nil
}

// CreateTag registers a (category, value) pair. The category must already
// exist; the pair must not.
func (db *DB) CreateTag(ctx context.Context, category, value string) (tag *models.Tag, err error) {
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

	if err = categoryExistsTx(ctx, tx, category); err != nil {
		return nil, err
	}

	t := models.Tag{
		ID:        uuid.New(),
		Category:  category,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO tags (id, category, value, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Category, t.Value, t.CreatedAt); err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %s:%s", ErrDuplicateTag, category, value)
		}
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit tag create: %w", err)
	}
	return &t, nil
}

// DeleteTag removes a tag and all its media assignments.
func (db *DB) DeleteTag(ctx context.Context, id uuid.UUID) (err error) {
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

	if _, err = tx.ExecContext(ctx, `DELETE FROM media_tags WHERE tag_id = ?`, id); err != nil {
		return fmt.Errorf("failed to detach tag: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if affected == 0 {
		err = fmt.Errorf("%w: %s", ErrTagNotFound, id)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tag delete: %w", err)
	}
	return nil
}

// TagVocabulary returns every category with its values, for query builders
// and autocompletion. Values are ordered within each category.
func (db *DB) TagVocabulary(ctx context.Context) (map[string][]string, error) {
	tags, err := db.ListTags(ctx, "")
	if err != nil {
		return nil, err
	}

	vocabulary := make(map[string][]string)
	for _, t := range tags {
		vocabulary[t.Category] = append(vocabulary[t.Category], t.Value)
	}
	return vocabulary, nil
}

// getOrCreateTagTx resolves a (category, value) pair to its tag row,
// creating it when first seen. The category must exist.
func getOrCreateTagTx(ctx context.Context, tx *sql.Tx, category, value string) (*models.Tag, error) {
	var t models.Tag
	err := tx.QueryRowContext(ctx,
		`SELECT id, category, value, created_at FROM tags WHERE category = ? AND value = ?`,
		category, value).
		Scan(&t.ID, &t.Category, &t.Value, &t.CreatedAt)
	if err == nil {
		return &t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up tag %s:%s: %w", category, value, err)
	}

	if err := categoryExistsTx(ctx, tx, category); err != nil {
		return nil, err
	}

	t = models.Tag{
		ID:        uuid.New(),
		Category:  category,
		Value:     value,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tags (id, category, value, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Category, t.Value, t.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to insert tag %s:%s: %w", category, value, err)
	}
	return &t, nil
}

// categoryExistsTx verifies the category slug exists inside a transaction.
func categoryExistsTx(ctx context.Context, tx *sql.Tx, slug string) error {
	var exists bool
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) > 0 FROM tag_categories WHERE slug = ?`, slug).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check tag category: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrCategoryNotFound, slug)
	}
	return nil
}
