// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenBinding associates a physical RFID token with at most one media item.
// UID is the token hardware identifier as reported by the reader.
type TokenBinding struct {
	UID       string     `json:"uid"`
	Label     string     `json:"label,omitempty"`
	MediaID   *uuid.UUID `json:"media_id,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Bound reports whether the token currently points at a media item.
func (t *TokenBinding) Bound() bool {
	return t.MediaID != nil
}

// TokenUpsertRequest registers or renames a token. Upserting an existing
// token never changes its media binding.
type TokenUpsertRequest struct {
	Label string `json:"label" validate:"omitempty,max=200"`
}

// TokenBindRequest points a token at a media item.
type TokenBindRequest struct {
	MediaID string `json:"media_id" validate:"required,uuid"`
}

// TokenResolveResponse is returned when a reader scans a token.
type TokenResolveResponse struct {
	UID   string `json:"uid"`
	Label string `json:"label,omitempty"`
	Media *Media `json:"media,omitempty"`
}
