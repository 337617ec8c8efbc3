// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"errors"

	"github.com/sony/gobreaker/v2"

	"github.com/jmoreau78/audiotheca/internal/assistant"
	"github.com/jmoreau78/audiotheca/internal/catalog"
	"github.com/jmoreau78/audiotheca/internal/database"
	"github.com/jmoreau78/audiotheca/internal/rfid"
	"github.com/jmoreau78/audiotheca/internal/selection"
)

// ErrAssistantNotConfigured is returned by assistant endpoints when no
// provider bridge was wired at startup.
var ErrAssistantNotConfigured = errors.New("assistant bridge is not configured")

// ErrHistoryDisabled is returned by history endpoints when selection history
// recording is turned off.
var ErrHistoryDisabled = errors.New("selection history is disabled")

// DomainError maps a service-layer error onto the HTTP envelope. Handlers
// call this for any error coming out of the catalog, selection, token, or
// store layers so every endpoint classifies failures identically.
func (rw *ResponseWriter) DomainError(err error) {
	var verr *selection.ValidationError
	switch {
	case errors.As(err, &verr):
		rw.ValidationError(map[string]string{verr.Field: verr.Reason})
	case errors.Is(err, database.ErrMediaNotFound),
		errors.Is(err, database.ErrTagNotFound),
		errors.Is(err, database.ErrCategoryNotFound),
		errors.Is(err, database.ErrTokenNotFound),
		errors.Is(err, rfid.ErrTokenUnbound),
		errors.Is(err, rfid.ErrMediaInactive):
		rw.NotFound(err.Error())
	case errors.Is(err, database.ErrDuplicateSource),
		errors.Is(err, database.ErrDuplicateTag),
		errors.Is(err, database.ErrDuplicateCategory),
		errors.Is(err, database.ErrTokenAssigned):
		rw.Conflict(err.Error())
	case errors.Is(err, catalog.ErrNoCoverSource):
		rw.UnprocessableEntity(err.Error())
	case errors.Is(err, catalog.ErrCoversUnavailable):
		rw.ServiceUnavailable(err.Error())
	default:
		rw.DatabaseError(err)
	}
}

// AssistantError maps a provider bridge error onto the HTTP envelope.
// Breaker rejections and transport failures surface as 502 so clients can
// tell an assistant outage from a catalog fault.
func (rw *ResponseWriter) AssistantError(err error) {
	switch {
	case errors.Is(err, ErrAssistantNotConfigured):
		rw.ServiceUnavailable(err.Error())
	case errors.Is(err, assistant.ErrItemNotFound):
		rw.NotFound(err.Error())
	case errors.Is(err, assistant.ErrUnknownKind):
		rw.BadRequest(err.Error())
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		rw.UpstreamError("Assistant temporarily unavailable")
	default:
		rw.UpstreamError("Assistant request failed")
	}
}
