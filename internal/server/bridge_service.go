// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package server

import (
	"context"
)

// ContextRunner matches *websocket.Bridge's Run method: a loop that blocks
// until the context is canceled.
type ContextRunner interface {
	Run(ctx context.Context) error
}

// EventBridgeService wraps the event-bus-to-websocket bridge as a
// supervised service. The bridge consumes catalog and selection events from
// the bus and fans them out to connected websocket clients; if it crashes,
// suture restarts it with a fresh bus subscription.
type EventBridgeService struct {
	bridge ContextRunner
	name   string
}

// NewEventBridgeService creates a new event bridge service wrapper.
func NewEventBridgeService(bridge ContextRunner) *EventBridgeService {
	return &EventBridgeService{
		bridge: bridge,
		name:   "event-bridge",
	}
}

// Serve implements suture.Service by delegating to bridge.Run.
func (e *EventBridgeService) Serve(ctx context.Context) error {
	return e.bridge.Run(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (e *EventBridgeService) String() string {
	return e.name
}
