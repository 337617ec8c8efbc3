// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

/*
Package api provides the HTTP REST API layer for Audiotheca.

It exposes the media catalog, the tag vocabulary, the selection engine,
RFID token bindings, cover art, the optional assistant bridge, and the
selection history over a chi router, plus a WebSocket endpoint streaming
catalog events.

Key Components:

  - Router: route table and middleware stack (SetupChi)
  - Handler: request handlers dispatching into the catalog services
  - ResponseWriter: the {success, data, error, meta} JSON envelope
  - ChiMiddleware: CORS and per-endpoint-class IP rate limits

API Categories:

1. Catalog (/api/v1/media):
  - CRUD for media entries, partial updates, soft/hard delete
  - Tag assignment (attach, detach, replace)
  - Cover refresh and removal

2. Selection (/api/v1/media/select):
  - GET with flat query parameters (mood=calm&not_owner=papa&fallback=soft)
  - POST with a structured body (all_of / any_of / none_of groups)
  - exclude_recent folds recently selected media into the exclusion set

3. Vocabulary (/api/v1/tags):
  - Tags and tag categories, plus a combined vocabulary view

4. Tokens (/api/v1/tokens):
  - Register/rename, bind/unbind, delete
  - GET /tokens/{uid}/media resolves a scan to its media; ?select=1 also
    records the scan as a selection

5. Covers (/api/v1/covers/{id}.jpg):
  - Locally cached JPEG cover art with strong ETags and 304 handling

6. Assistant bridge (/api/v1/assistant):
  - Library search and browse on the configured provider
  - POST /import creates a catalog entry from a provider item

7. History (/api/v1/history):
  - Recent selection records, newest first

8. Realtime (/api/v1/ws):
  - WebSocket upgrade onto the event hub

9. Infrastructure (/healthz, /readyz, /metrics):
  - Liveness, readiness (database ping), assistant health, Prometheus

Usage Example:

	handler := api.NewHandler(db, catalogSvc, tokenSvc, historyStore,
	    assistantClient, coverStore, cfg, wsHub, version)
	router := api.NewRouter(handler, cfg)
	http.ListenAndServe(cfg.Server.Addr(), router.SetupChi())

Every JSON endpoint answers with the same envelope. Success:

	{"success": true, "data": {...}, "meta": {"request_id": "...", ...}}

Failure:

	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}}

Error codes are stable: BAD_REQUEST, VALIDATION_FAILED, NOT_FOUND,
METHOD_NOT_ALLOWED, CONFLICT, UNPROCESSABLE, TOO_MANY_REQUESTS,
INTERNAL_ERROR, SERVICE_UNAVAILABLE, UPSTREAM_UNAVAILABLE, DATABASE_ERROR.
Validation failures carry a field→reason map in error.details.

Handlers are stateless and safe for concurrent use; shared resources guard
themselves.
*/
package api
