// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package database

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// seedDefaultTags installs the default tag vocabulary on first run. Every
// insert is conflict-tolerant, so reruns and user-modified vocabularies are
// left alone; the database stays the source of truth after seeding.
func (db *DB) seedDefaultTags(ctx context.Context) error {
	categories := models.DefaultTagCategories()
	slugs := make([]string, 0, len(categories))
	for slug := range categories {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	now := time.Now().UTC()
	seeded := 0
	for _, slug := range slugs {
		result, err := db.conn.ExecContext(ctx,
			`INSERT INTO tag_categories (slug, label, created_at) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
			slug, categories[slug], now)
		if err != nil {
			return fmt.Errorf("failed to seed category %s: %w", slug, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			seeded += int(n)
		}
	}

	values := models.DefaultTagValues()
	valueSlugs := make([]string, 0, len(values))
	for slug := range values {
		valueSlugs = append(valueSlugs, slug)
	}
	sort.Strings(valueSlugs)

	for _, slug := range valueSlugs {
		for _, value := range values[slug] {
			result, err := db.conn.ExecContext(ctx,
				`INSERT INTO tags (id, category, value, created_at) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`,
				uuid.New(), slug, value, now)
			if err != nil {
				return fmt.Errorf("failed to seed tag %s:%s: %w", slug, value, err)
			}
			if n, err := result.RowsAffected(); err == nil {
				seeded += int(n)
			}
		}
	}

	if seeded > 0 {
		logging.Info().Int("rows", seeded).Msg("Seeded default tag vocabulary")
	}
	return nil
}
