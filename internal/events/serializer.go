// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package events

import (
	"fmt"

	"github.com/goccy/go-json"
)

// SerializeEvent encodes an event for the bus. Invalid events are rejected
// before encoding so a malformed payload never reaches a subscriber.
func SerializeEvent(event *Event) ([]byte, error) {
	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("validate event: %w", err)
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}

// DeserializeEvent decodes a bus payload. Payloads from a newer schema
// version are rejected rather than half-decoded; a zero version is an
// event written before versioning and decodes as version 1.
func DeserializeEvent(data []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event: %w", err)
	}

	if event.SchemaVersion > SchemaVersion {
		return nil, fmt.Errorf("unsupported event schema version %d (max %d)", event.SchemaVersion, SchemaVersion)
	}
	if event.SchemaVersion == 0 {
		event.SchemaVersion = 1
	}
	return &event, nil
}
