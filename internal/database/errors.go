// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/jmoreau78/audiotheca/internal/logging"
)

// Sentinel errors for lookup misses and constraint violations. Callers
// branch with errors.Is; the API layer maps them to response codes.
var (
	// ErrMediaNotFound is returned when a media ID does not exist.
	ErrMediaNotFound = errors.New("media not found")

	// ErrDuplicateSource is returned when an insert or update would violate
	// the (provider, source_uri) uniqueness of the catalog.
	ErrDuplicateSource = errors.New("media with this provider and source_uri already exists")

	// ErrTagNotFound is returned when a tag ID does not exist or is not
	// attached to the given media.
	ErrTagNotFound = errors.New("tag not found")

	// ErrDuplicateTag is returned when a (category, value) pair already exists.
	ErrDuplicateTag = errors.New("tag already exists")

	// ErrCategoryNotFound is returned when a category slug does not exist.
	ErrCategoryNotFound = errors.New("tag category not found")

	// ErrDuplicateCategory is returned when a category slug already exists.
	ErrDuplicateCategory = errors.New("tag category already exists")

	// ErrTokenNotFound is returned when a token UID has not been registered.
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenAssigned is returned when binding a token that is already
	// bound to a different media item. Binding to the same item is
	// idempotent and does not raise it.
	ErrTokenAssigned = errors.New("token already assigned to another media")
)

// isDuplicateKeyError reports whether err is a DuckDB unique constraint
// violation. The driver exposes no typed error for this, so the message is
// matched the same way transaction conflicts are detected.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "PRIMARY KEY or UNIQUE constraint violated")
}

// closeWithLog closes a resource and logs any error. Use this for cleanup
// operations where errors should be acknowledged but not fail the operation.
func closeWithLog(closer io.Closer, resourceType string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.Warn().Str("type", resourceType).Err(err).Msg("Failed to close resource")
	}
}

// closeQuietly closes a resource and explicitly ignores any error. Use this
// for cleanup in error paths where Close() errors are not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close() // Explicitly ignore error - cleanup is best-effort
	}
}
