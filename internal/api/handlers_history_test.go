// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"
	"testing"

	"github.com/jmoreau78/audiotheca/internal/models"
)

// historyPage mirrors the /history response body.
type historyPage struct {
	Items []models.SelectionRecord `json:"items"`
	Count int                      `json:"count"`
	Total int                      `json:"total"`
}

func TestGetHistory(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := env.seedMedia(t, "Premier tour", "library://playlist/1",
		models.TagAssignment{Category: "mood", Value: "calm"})
	second := env.seedMedia(t, "Second tour", "library://playlist/2",
		models.TagAssignment{Category: "mood", Value: "wake"})

	w := env.doRequest(t, http.MethodGet, "/api/v1/media/select?mood=calm", nil)
	wantStatus(t, w, http.StatusOK)
	w = env.doRequest(t, http.MethodGet, "/api/v1/media/select?mood=wake", nil)
	wantStatus(t, w, http.StatusOK)

	w = env.doRequest(t, http.MethodGet, "/api/v1/history", nil)
	wantStatus(t, w, http.StatusOK)

	var page historyPage
	dataAs(t, decodeEnvelope(t, w), &page)
	if page.Count != 2 || page.Total != 2 {
		t.Fatalf("count/total = %d/%d, want 2/2", page.Count, page.Total)
	}
	// Newest first.
	if len(page.Items[0].MediaIDs) != 1 || page.Items[0].MediaIDs[0] != second.ID {
		t.Errorf("Items[0].MediaIDs = %v, want [%s]", page.Items[0].MediaIDs, second.ID)
	}
	if len(page.Items[1].MediaIDs) != 1 || page.Items[1].MediaIDs[0] != first.ID {
		t.Errorf("Items[1].MediaIDs = %v, want [%s]", page.Items[1].MediaIDs, first.ID)
	}
	if page.Items[0].Source != "api" {
		t.Errorf("Source = %q, want api", page.Items[0].Source)
	}
}

func TestGetHistory_LimitApplies(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedMedia(t, "Unique", "library://playlist/1",
		models.TagAssignment{Category: "mood", Value: "calm"})

	for i := 0; i < 3; i++ {
		w := env.doRequest(t, http.MethodGet, "/api/v1/media/select?mood=calm", nil)
		wantStatus(t, w, http.StatusOK)
	}

	w := env.doRequest(t, http.MethodGet, "/api/v1/history?limit=2", nil)
	wantStatus(t, w, http.StatusOK)

	var page historyPage
	dataAs(t, decodeEnvelope(t, w), &page)
	if page.Count != 2 {
		t.Errorf("count = %d, want 2", page.Count)
	}
	if page.Total != 3 {
		t.Errorf("total = %d, want 3", page.Total)
	}
}

func TestGetHistory_Disabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.handler.history = nil
	env.rebuildRouter()

	w := env.doRequest(t, http.MethodGet, "/api/v1/history", nil)
	wantErrorCode(t, w, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}
