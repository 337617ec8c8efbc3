// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package models provides the domain types shared across the application.
package models

import (
	"time"

	"github.com/google/uuid"
)

// MediaType classifies a catalog entry. The set is closed; anything a
// provider reports outside it is rejected at the boundary.
type MediaType string

const (
	MediaTypePlaylist  MediaType = "playlist"
	MediaTypeAudiobook MediaType = "audiobook"
	MediaTypeRadio     MediaType = "radio"
	MediaTypePodcast   MediaType = "podcast"
	MediaTypeAlbum     MediaType = "album"
	MediaTypeTrack     MediaType = "track"
)

// MediaTypes returns all valid media types in display order.
func MediaTypes() []MediaType {
	return []MediaType{
		MediaTypePlaylist,
		MediaTypeAudiobook,
		MediaTypeRadio,
		MediaTypePodcast,
		MediaTypeAlbum,
		MediaTypeTrack,
	}
}

// ParseMediaType returns the MediaType for s, or false when s is not one of
// the closed set.
func ParseMediaType(s string) (MediaType, bool) {
	mt := MediaType(s)
	switch mt {
	case MediaTypePlaylist, MediaTypeAudiobook, MediaTypeRadio,
		MediaTypePodcast, MediaTypeAlbum, MediaTypeTrack:
		return mt, true
	}
	return "", false
}

// Valid reports whether mt is a member of the closed media type set.
func (mt MediaType) Valid() bool {
	_, ok := ParseMediaType(string(mt))
	return ok
}

// TagAssignment is one (category, value) pair attached to a media item.
// An item may carry several values in the same category.
type TagAssignment struct {
	Category string `json:"category" validate:"required,tagslug,max=100"`
	Value    string `json:"value" validate:"required,min=1,max=200"`
}

// Media is a catalog entry. (Provider, SourceURI) is unique across the
// catalog; inactive items never appear in selection results.
type Media struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Type        MediaType       `json:"media_type"`
	SourceURI   string          `json:"source_uri"`
	Provider    string          `json:"provider"`
	CoverURL    string          `json:"cover_url,omitempty"`
	CoverLocal  string          `json:"cover_local,omitempty"`
	DurationMin int             `json:"duration_min,omitempty"`
	Description string          `json:"description,omitempty"`
	IsActive    bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Tags        []TagAssignment `json:"tags"`
}

// HasTag reports whether the item carries the exact (category, value) pair.
// Comparison is literal; normalization belongs to the selection engine.
func (m *Media) HasTag(category, value string) bool {
	for _, t := range m.Tags {
		if t.Category == category && t.Value == value {
			return true
		}
	}
	return false
}

// Tag is a catalog-wide (category, value) pair; unique per combination.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	Category  string    `json:"category"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// TagCategory is a known tag vocabulary entry. Slug is the stable key used
// in queries; Label is the display name.
type TagCategory struct {
	Slug      string    `json:"slug"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultTagCategories maps seeded category slugs to display labels.
// The database is the source of truth after first run.
func DefaultTagCategories() map[string]string {
	return map[string]string{
		"owner":       "Propriétaire",
		"mood":        "Humeur",
		"context":     "Contexte",
		"genre":       "Genre",
		"time_of_day": "Moment",
		"age_group":   "Tranche d'âge",
	}
}

// DefaultTagValues maps seeded category slugs to their initial tag values.
func DefaultTagValues() map[string][]string {
	return map[string][]string{
		"owner":       {"papa", "maman", "enfants", "famille"},
		"mood":        {"calm", "energetic", "focus", "happy", "chill", "sleep"},
		"context":     {"morning", "cooking", "work", "party", "bath", "car", "sport"},
		"time_of_day": {"morning", "afternoon", "evening", "night"},
		"age_group":   {"kids", "teens", "adults", "all"},
		"genre":       {"pop", "rock", "classical", "jazz", "electronic", "hip-hop", "ambient"},
	}
}

// MediaPage is one page of a catalog listing.
type MediaPage struct {
	Items    []Media `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Pages    int     `json:"pages"`
}

// MediaListFilter narrows catalog listings. Zero values mean "no filter".
type MediaListFilter struct {
	Search   string
	Type     MediaType
	Provider string
	Active   *bool
	Category string
	Value    string
	Page     int
	PageSize int
}

// MediaCreateRequest is the payload for creating a catalog entry.
type MediaCreateRequest struct {
	Title       string          `json:"title" validate:"required,min=1,max=500"`
	MediaType   string          `json:"media_type" validate:"required,oneof=playlist audiobook radio podcast album track"`
	SourceURI   string          `json:"source_uri" validate:"required,min=1,max=2000"`
	Provider    string          `json:"provider" validate:"required,min=1,max=100"`
	CoverURL    string          `json:"cover_url" validate:"omitempty,url"`
	DurationMin int             `json:"duration_min" validate:"omitempty,gte=0"`
	Description string          `json:"description" validate:"omitempty,max=5000"`
	IsActive    *bool           `json:"is_active"`
	Tags        []TagAssignment `json:"tags" validate:"omitempty,dive"`
}

// MediaUpdateRequest is the payload for a partial update; nil fields are
// left unchanged.
type MediaUpdateRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=500"`
	MediaType   *string `json:"media_type" validate:"omitempty,oneof=playlist audiobook radio podcast album track"`
	SourceURI   *string `json:"source_uri" validate:"omitempty,min=1,max=2000"`
	Provider    *string `json:"provider" validate:"omitempty,min=1,max=100"`
	CoverURL    *string `json:"cover_url" validate:"omitempty,url"`
	DurationMin *int    `json:"duration_min" validate:"omitempty,gte=0"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	IsActive    *bool   `json:"is_active"`
}

// TagCreateRequest is the payload for registering a tag.
type TagCreateRequest struct {
	Category string `json:"category" validate:"required,tagslug,max=100"`
	Value    string `json:"value" validate:"required,min=1,max=200"`
}

// TagCategoryCreateRequest is the payload for registering a tag category.
type TagCategoryCreateRequest struct {
	Slug  string `json:"slug" validate:"required,tagslug,max=100"`
	Label string `json:"label" validate:"required,min=1,max=200"`
}
