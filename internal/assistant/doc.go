// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
Package assistant bridges the catalog to a Music Assistant style media
provider over HTTP.

The bridge is optional: when disabled the catalog runs standalone and the
import endpoints report the upstream as unavailable. BreakerClient wraps
every call in a circuit breaker so a flaky provider box cannot stall
catalog requests.

Operations:
  - Ping: connectivity probe backing the assistant health endpoint
  - Search: cross-backend media search used to find importable items
  - GetItem: resolve a single item by its provider URI
  - Library: list the provider's library for one media kind

ItemToCreateRequest converts a provider item into the catalog's media
create payload so imports flow through the same validation as manual
creation. CoverURL resolves item artwork to a fetchable URL, routing
non-public images through the provider's image proxy.
*/
package assistant
