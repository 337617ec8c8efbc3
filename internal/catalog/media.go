// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/events"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// CreateMedia inserts a catalog entry from a validated request. Items are
// active unless the request says otherwise. When the request carries a
// cover URL the cover is downloaded best-effort: a dead CDN never fails
// the insert.
func (s *Service) CreateMedia(ctx context.Context, req *models.MediaCreateRequest) (*models.Media, error) {
	m := &models.Media{
		Title:       req.Title,
		Type:        models.MediaType(req.MediaType),
		SourceURI:   req.SourceURI,
		Provider:    req.Provider,
		CoverURL:    req.CoverURL,
		DurationMin: req.DurationMin,
		Description: req.Description,
		IsActive:    true,
		Tags:        req.Tags,
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}

	if err := s.media.InsertMedia(ctx, m); err != nil {
		return nil, err
	}
	s.invalidateSnapshot()

	if m.CoverURL != "" {
		s.fetchCover(ctx, m)
	}

	s.publish(ctx, events.NewMediaCreated(events.SourceAPI, m))

	logging.Info().
		Str("media_id", m.ID.String()).
		Str("title", m.Title).
		Str("media_type", string(m.Type)).
		Str("provider", m.Provider).
		Int("tags", len(m.Tags)).
		Msg("Media created")

	return m, nil
}

// GetMedia returns one catalog entry with its tags.
func (s *Service) GetMedia(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	return s.media.GetMediaByID(ctx, id)
}

// ListMedia returns a filtered page of the catalog.
func (s *Service) ListMedia(ctx context.Context, filter models.MediaListFilter) (*models.MediaPage, error) {
	return s.media.ListMedia(ctx, filter)
}

// UpdateMedia applies a partial update. Nil request fields leave the stored
// value alone. A changed, non-empty cover URL re-triggers the cover
// download.
func (s *Service) UpdateMedia(ctx context.Context, id uuid.UUID, req *models.MediaUpdateRequest) (*models.Media, error) {
	m, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		return nil, err
	}

	coverChanged := applyMediaUpdate(m, req)

	if err := s.media.UpdateMedia(ctx, m); err != nil {
		return nil, err
	}
	s.invalidateSnapshot()

	if coverChanged && m.CoverURL != "" {
		s.fetchCover(ctx, m)
	}

	s.publish(ctx, events.NewMediaUpdated(events.SourceAPI, m))

	logging.Info().
		Str("media_id", m.ID.String()).
		Str("title", m.Title).
		Bool("cover_changed", coverChanged).
		Msg("Media updated")

	return m, nil
}

// applyMediaUpdate copies the set fields of a partial update onto m and
// reports whether the cover URL changed.
func applyMediaUpdate(m *models.Media, req *models.MediaUpdateRequest) bool {
	coverChanged := false
	if req.Title != nil {
		m.Title = *req.Title
	}
	if req.MediaType != nil {
		m.Type = models.MediaType(*req.MediaType)
	}
	if req.SourceURI != nil {
		m.SourceURI = *req.SourceURI
	}
	if req.Provider != nil {
		m.Provider = *req.Provider
	}
	if req.CoverURL != nil && *req.CoverURL != m.CoverURL {
		m.CoverURL = *req.CoverURL
		coverChanged = true
	}
	if req.DurationMin != nil {
		m.DurationMin = *req.DurationMin
	}
	if req.Description != nil {
		m.Description = *req.Description
	}
	if req.IsActive != nil {
		m.IsActive = *req.IsActive
	}
	return coverChanged
}

// DeleteMedia deactivates an entry, or removes it entirely when hard is
// set. Hard deletion also removes the stored cover file.
func (s *Service) DeleteMedia(ctx context.Context, id uuid.UUID, hard bool) error {
	m, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.media.DeleteMedia(ctx, id, hard); err != nil {
		return err
	}
	s.invalidateSnapshot()

	if hard && s.covers != nil {
		if err := s.covers.Delete(id); err != nil {
			logging.Warn().Err(err).Str("media_id", id.String()).Msg("Failed to delete cover file")
		}
	}

	s.publish(ctx, events.NewMediaDeleted(events.SourceAPI, id, m.Title))

	logging.Info().
		Str("media_id", id.String()).
		Str("title", m.Title).
		Bool("hard", hard).
		Msg("Media deleted")

	return nil
}

// AttachTag assigns a (category, value) pair to a media item, creating the
// tag on first use. The category must already exist.
func (s *Service) AttachTag(ctx context.Context, mediaID uuid.UUID, category, value string) (*models.Tag, error) {
	tag, err := s.media.AttachMediaTag(ctx, mediaID, category, value)
	if err != nil {
		return nil, err
	}
	s.invalidateSnapshot()
	s.notifyMediaUpdated(ctx, mediaID)
	return tag, nil
}

// DetachTag removes a tag assignment from a media item.
func (s *Service) DetachTag(ctx context.Context, mediaID, tagID uuid.UUID) error {
	if err := s.media.DetachMediaTag(ctx, mediaID, tagID); err != nil {
		return err
	}
	s.invalidateSnapshot()
	s.notifyMediaUpdated(ctx, mediaID)
	return nil
}

// ReplaceTags swaps a media item's full tag set.
func (s *Service) ReplaceTags(ctx context.Context, mediaID uuid.UUID, tags []models.TagAssignment) error {
	if err := s.media.ReplaceMediaTags(ctx, mediaID, tags); err != nil {
		return err
	}
	s.invalidateSnapshot()
	s.notifyMediaUpdated(ctx, mediaID)
	return nil
}

// notifyMediaUpdated publishes media.updated with the item's current state.
// Tag assignment changes go through here because they mutate rows the
// media table does not own.
func (s *Service) notifyMediaUpdated(ctx context.Context, id uuid.UUID) {
	if s.bus == nil {
		return
	}
	m, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		logging.Warn().Err(err).Str("media_id", id.String()).Msg("Failed to load media for update event")
		return
	}
	s.publish(ctx, events.NewMediaUpdated(events.SourceAPI, m))
}

// RefreshCover re-downloads the item's cover from its recorded URL. Unlike
// the write-path trigger this surfaces fetch errors: the caller asked for
// exactly this.
func (s *Service) RefreshCover(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.CoverURL == "" {
		return nil, ErrNoCoverSource
	}
	if s.fetch == nil {
		return nil, ErrCoversUnavailable
	}

	name, err := s.fetch.Fetch(ctx, id, m.CoverURL)
	if err != nil {
		return nil, err
	}
	if err := s.media.SetMediaCoverLocal(ctx, id, name); err != nil {
		return nil, err
	}
	m.CoverLocal = name

	s.publish(ctx, events.NewMediaUpdated(events.SourceAPI, m))
	return m, nil
}

// RemoveCover deletes the stored cover file and clears the local marker.
// The recorded cover URL stays so a later refresh can bring it back.
func (s *Service) RemoveCover(ctx context.Context, id uuid.UUID) error {
	m, err := s.media.GetMediaByID(ctx, id)
	if err != nil {
		return err
	}

	if s.covers != nil {
		if err := s.covers.Delete(id); err != nil {
			return err
		}
	}
	if err := s.media.SetMediaCoverLocal(ctx, id, ""); err != nil {
		return err
	}
	m.CoverLocal = ""

	s.publish(ctx, events.NewMediaUpdated(events.SourceAPI, m))
	return nil
}

// fetchCover downloads the item's cover and records the local file name.
// Failures are logged and swallowed in the write path.
func (s *Service) fetchCover(ctx context.Context, m *models.Media) {
	if s.fetch == nil {
		return
	}
	name, err := s.fetch.Fetch(ctx, m.ID, m.CoverURL)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("media_id", m.ID.String()).
			Str("cover_url", m.CoverURL).
			Msg("Cover fetch failed")
		return
	}
	if err := s.media.SetMediaCoverLocal(ctx, m.ID, name); err != nil {
		logging.Error().Err(err).Str("media_id", m.ID.String()).Msg("Failed to record local cover")
		return
	}
	m.CoverLocal = name
}
