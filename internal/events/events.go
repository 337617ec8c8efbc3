// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/models"
)

// SchemaVersion is the current event schema version.
// Increment this when making breaking changes to Event.
const SchemaVersion = 1

// Topic constants for the in-process bus. Subscribers filter by topic,
// so every event type gets its own.
const (
	// TopicMediaCreated fires after a media item is inserted.
	TopicMediaCreated = "media.created"
	// TopicMediaUpdated fires after a media item or its tags change.
	TopicMediaUpdated = "media.updated"
	// TopicMediaDeleted fires after a media item is removed or deactivated.
	TopicMediaDeleted = "media.deleted"
	// TopicMediaSelected fires after a selection request resolves.
	TopicMediaSelected = "media.selected"
	// TopicTokenResolved fires after an RFID token scan resolves to media.
	TopicTokenResolved = "token.resolved"
)

// Source constants identify where an event originated.
const (
	// SourceAPI indicates the event came from an HTTP request.
	SourceAPI = "api"
	// SourceRFID indicates the event came from a token scan.
	SourceRFID = "rfid"
	// SourceSystem indicates an internally generated event.
	SourceSystem = "system"
)

// Topics returns every topic the bus carries, in declaration order.
// The websocket bridge subscribes to all of them.
func Topics() []string {
	return []string{
		TopicMediaCreated,
		TopicMediaUpdated,
		TopicMediaDeleted,
		TopicMediaSelected,
		TopicTokenResolved,
	}
}

// Event is the canonical payload published on the bus. One struct covers
// all topics; sections not relevant to a topic stay zero and are omitted
// from the JSON encoding.
type Event struct {
	// Schema version for forward/backward compatibility
	SchemaVersion int `json:"schema_version,omitempty"`

	// Identification
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`   // topic name, e.g. media.selected
	Source    string    `json:"source"` // api, rfid, system
	Timestamp time.Time `json:"timestamp"`

	// Media section (media.* topics, token.resolved)
	MediaID    string `json:"media_id,omitempty"`
	MediaTitle string `json:"media_title,omitempty"`
	MediaType  string `json:"media_type,omitempty"`

	// Selection section (media.selected)
	SelectionID  string   `json:"selection_id,omitempty"`
	MediaIDs     []string `json:"media_ids,omitempty"`
	FallbackMode string   `json:"fallback_mode,omitempty"`
	FallbackUsed bool     `json:"fallback_used,omitempty"`

	// Token section (token.resolved)
	TokenUID   string `json:"token_uid,omitempty"`
	TokenLabel string `json:"token_label,omitempty"`
}

// New creates an event with a unique ID, UTC timestamp, and schema version.
// Callers fill the topic-specific sections; prefer the typed constructors.
func New(eventType, source string) *Event {
	return &Event{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
	}
}

// NewMediaCreated builds a media.created event for an inserted item.
func NewMediaCreated(source string, m *models.Media) *Event {
	e := New(TopicMediaCreated, source)
	e.setMedia(m)
	return e
}

// NewMediaUpdated builds a media.updated event for a changed item.
func NewMediaUpdated(source string, m *models.Media) *Event {
	e := New(TopicMediaUpdated, source)
	e.setMedia(m)
	return e
}

// NewMediaDeleted builds a media.deleted event. Only the identifier and
// title survive deletion, so the payload carries no media type.
func NewMediaDeleted(source string, id uuid.UUID, title string) *Event {
	e := New(TopicMediaDeleted, source)
	e.MediaID = id.String()
	e.MediaTitle = title
	return e
}

// NewMediaSelected builds a media.selected event from a selection record.
// The event shares the record's ID so history entries and bus messages
// correlate.
func NewMediaSelected(rec *models.SelectionRecord) *Event {
	e := New(TopicMediaSelected, rec.Source)
	e.SelectionID = rec.ID.String()
	e.FallbackMode = rec.FallbackMode
	e.FallbackUsed = rec.FallbackUsed
	e.MediaIDs = make([]string, 0, len(rec.MediaIDs))
	for _, id := range rec.MediaIDs {
		e.MediaIDs = append(e.MediaIDs, id.String())
	}
	if len(e.MediaIDs) > 0 {
		e.MediaID = e.MediaIDs[0]
	}
	return e
}

// NewTokenResolved builds a token.resolved event for a scanned token.
// Media fields stay empty when the token is registered but unbound.
func NewTokenResolved(uid, label string, m *models.Media) *Event {
	e := New(TopicTokenResolved, SourceRFID)
	e.TokenUID = uid
	e.TokenLabel = label
	if m != nil {
		e.setMedia(m)
	}
	return e
}

func (e *Event) setMedia(m *models.Media) {
	e.MediaID = m.ID.String()
	e.MediaTitle = m.Title
	e.MediaType = string(m.Type)
}

// Topic returns the bus topic for this event.
func (e *Event) Topic() string {
	return e.Type
}

// GetSchemaVersion returns the schema version, defaulting to 1 for legacy events.
func (e *Event) GetSchemaVersion() int {
	if e.SchemaVersion == 0 {
		return 1
	}
	return e.SchemaVersion
}

// Validate checks required fields and returns an error if validation fails.
func (e *Event) Validate() error {
	if e.EventID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if e.Type == "" {
		return &ValidationError{Field: "type", Message: "required"}
	}
	if !knownTopic(e.Type) {
		return &ValidationError{Field: "type", Message: "unknown topic " + e.Type}
	}
	if e.Source == "" {
		return &ValidationError{Field: "source", Message: "required"}
	}
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	return nil
}

func knownTopic(topic string) bool {
	switch topic {
	case TopicMediaCreated, TopicMediaUpdated, TopicMediaDeleted,
		TopicMediaSelected, TopicTokenResolved:
		return true
	}
	return false
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
