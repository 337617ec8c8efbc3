// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
Package websocket provides real-time bidirectional communication for live updates.

This package pushes catalog changes, selections, and token scans to connected
frontend clients the moment they happen, so a kiosk screen or admin UI never
has to poll. It uses the gorilla/websocket library with a hub-client
architecture for efficient message broadcasting.

Key Components:

  - Hub: Central message broker that manages client connections and broadcasts
  - Client: Represents a single WebSocket connection with read/write goroutines
  - Bridge: Subscribes to the event bus and feeds decoded events into the hub

Architecture:

The package implements a hub-and-spoke pattern fed by the in-process bus:

	┌──────────┐     ┌──────────┐
	│   Bus    │ ──► │  Bridge  │
	└──────────┘     └────┬─────┘
	                      │
	                 ┌────┴─────┐
	                 │   Hub    │ ← Broadcasts to all clients
	                 └────┬─────┘
	                      │
	     ┌──────────┬─────┴───┬─────────┐
	     │          │         │         │
	     │ Client1  │ Client2 │ Client3 │ Client4
	     │          │         │         │
	     └──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: Reads from WebSocket, handles pings
  - writePump: Writes to WebSocket, sends pongs and keepalive pings

Message Types:

Catalog events are delivered with the event topic as the message type:

  - media.created: A media item was added to the catalog
  - media.updated: A media item or its tag assignments changed
  - media.deleted: A media item was removed or deactivated
  - media.selected: A selection request resolved to one or more items
  - token.resolved: An RFID token scan resolved to a media item

Plus two control types exchanged directly with clients:

  - ping: Client keepalive request
  - pong: Server keepalive reply

Usage Example - Server:

	hub := websocket.NewHub()
	bridge := websocket.NewBridge(hub, bus)

	// Both run under the supervisor.
	go hub.RunWithContext(ctx)
	go bridge.Run(ctx)

Usage Example - Client (JavaScript):

	const ws = new WebSocket('ws://localhost:8721/api/v1/ws');

	ws.onmessage = (event) => {
	    const msg = JSON.parse(event.data);

	    if (msg.type === 'media.selected') {
	        showNowPlaying(msg.data);
	    }

	    if (msg.type === 'media.created' || msg.type === 'media.updated') {
	        refreshCatalog();
	    }
	};

Connection Lifecycle:

 1. Client connects via HTTP upgrade (handled in internal/api)
 2. Hub registers client
 3. Client starts read/write goroutines
 4. Bridge forwards bus events, hub broadcasts them to all clients
 5. Client disconnects (network error or explicit close)
 6. Hub unregisters client and cleans up

Thread Safety:

The package is fully thread-safe:
  - Hub uses mutex for client map access
  - Channels coordinate goroutine communication
  - Each client has separate read/write goroutines
  - No shared mutable state between clients

Backpressure:

A client that stops reading fills its 256-message send buffer; the hub then
closes and drops it instead of stalling everyone else. Drops are counted in
the websocket_clients_dropped_total metric.

Configuration:

WebSocket settings:
  - writeWait: 10 seconds (time allowed to write message)
  - pongWait: 60 seconds (time allowed to read pong)
  - pingPeriod: 54 seconds (ping interval, must be < pongWait)
  - maxMessageSize: 512 KB (max message size)

See Also:

  - github.com/gorilla/websocket: Underlying WebSocket library
  - internal/api: WebSocket endpoint handler
  - internal/events: Topic definitions and the event envelope
*/
package websocket
