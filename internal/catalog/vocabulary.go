// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// ListCategories returns the tag categories ordered by display label.
func (s *Service) ListCategories(ctx context.Context) ([]models.TagCategory, error) {
	return s.tags.ListTagCategories(ctx)
}

// CreateCategory registers a new tag category.
func (s *Service) CreateCategory(ctx context.Context, slug, label string) (*models.TagCategory, error) {
	c, err := s.tags.CreateTagCategory(ctx, slug, label)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("slug", c.Slug).Str("label", c.Label).Msg("Tag category created")
	return c, nil
}

// DeleteCategory removes a category with all its tags and assignments.
// Active media may lose tags here, so the selection snapshot is dropped.
func (s *Service) DeleteCategory(ctx context.Context, slug string) error {
	if err := s.tags.DeleteTagCategory(ctx, slug); err != nil {
		return err
	}
	s.invalidateSnapshot()
	logging.Info().Str("slug", slug).Msg("Tag category deleted")
	return nil
}

// ListTags returns the tag vocabulary, optionally restricted to one
// category.
func (s *Service) ListTags(ctx context.Context, category string) ([]models.Tag, error) {
	return s.tags.ListTags(ctx, category)
}

// CreateTag registers a (category, value) pair in an existing category.
func (s *Service) CreateTag(ctx context.Context, category, value string) (*models.Tag, error) {
	t, err := s.tags.CreateTag(ctx, category, value)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("category", t.Category).Str("value", t.Value).Msg("Tag created")
	return t, nil
}

// DeleteTag removes a tag and all its media assignments.
func (s *Service) DeleteTag(ctx context.Context, id uuid.UUID) error {
	if err := s.tags.DeleteTag(ctx, id); err != nil {
		return err
	}
	s.invalidateSnapshot()
	logging.Info().Str("tag_id", id.String()).Msg("Tag deleted")
	return nil
}

// Vocabulary returns every category with its values, for query builders.
func (s *Service) Vocabulary(ctx context.Context) (map[string][]string, error) {
	return s.tags.TagVocabulary(ctx)
}
