// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
Package rfid manages physical token bindings: each RFID token points at
most one media item, while a media item may carry many tokens.

Binding rules:
  - Upsert registers or renames a token and never touches its binding,
    so re-scanning a known token cannot silently steal it.
  - Bind refuses a token bound to a different item (ErrTokenAssigned from
    the store); rebinding to the same item is idempotent.
  - Unbind clears the binding and keeps the token row for reuse.

Resolve is the playback path: a scan returns the bound media only when it
exists and is active, publishes a token.resolved event for live UIs, and
records the outcome (resolved, unbound, unknown, inactive) for metrics.
*/
package rfid
