// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package events provides the in-process event bus for catalog and
// selection activity, built on Watermill's GoChannel pub/sub.
//
// Every mutation and selection publishes a canonical Event on its own
// topic:
//
//	media.created    catalog item inserted
//	media.updated    catalog item or its tags changed
//	media.deleted    catalog item removed or deactivated
//	media.selected   selection request resolved
//	token.resolved   RFID token scanned
//
// Payloads are goccy-encoded JSON; the message UUID is the event's ID so
// bus messages, history records, and log lines correlate.
//
//	┌──────────┐   ┌──────────┐   ┌──────────┐
//	│ catalog  │   │   rfid   │   │selection │
//	└────┬─────┘   └────┬─────┘   └────┬─────┘
//	     └──────────────┼──────────────┘
//	                    ▼
//	          ┌───────────────────┐
//	          │  GoChannel Bus    │
//	          └─────────┬─────────┘
//	                    ▼
//	          ┌───────────────────┐
//	          │ WebSocket bridge  │ → connected clients
//	          └───────────────────┘
//
// The Bus wraps gochannel.GoChannel behind the message.Publisher and
// message.Subscriber interfaces, so moving to an external broker means
// swapping the constructor, not the callers. Watermill's internal logging
// routes through zerolog via NewWatermillLogger.
package events
