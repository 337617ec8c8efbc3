// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package database

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/models"
)

func TestUpsertToken_RegistersAndRenames(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	token, err := db.UpsertToken(ctx, "04:AA:BB:CC", "blue card")
	checkNoError(t, err)
	checkStringEqual(t, "uid", token.UID, "04:AA:BB:CC")
	checkStringEqual(t, "label", token.Label, "blue card")
	checkFalse(t, "bound", token.Bound())

	renamed, err := db.UpsertToken(ctx, "04:AA:BB:CC", "red card")
	checkNoError(t, err)
	checkStringEqual(t, "label after rename", renamed.Label, "red card")
}

func TestUpsertToken_NeverTouchesBinding(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	m := testMedia("Bound Media", "library://playlist/bind-keep")
	checkNoError(t, db.InsertMedia(ctx, m))

	_, err := db.UpsertToken(ctx, "04:AA:BB:CC", "card")
	checkNoError(t, err)
	_, err = db.BindToken(ctx, "04:AA:BB:CC", m.ID)
	checkNoError(t, err)

	// Renaming a bound token must leave the binding intact.
	after, err := db.UpsertToken(ctx, "04:AA:BB:CC", "renamed card")
	checkNoError(t, err)
	checkTrue(t, "still bound", after.Bound())
	if *after.MediaID != m.ID {
		t.Errorf("expected binding to %s, got %s", m.ID, *after.MediaID)
	}
}

func TestGetToken_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetToken(context.Background(), "04:00:00:00")
	checkErrorIs(t, err, ErrTokenNotFound)
}

func TestBindToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	m := testMedia("Bindable", "library://playlist/bind")
	checkNoError(t, db.InsertMedia(ctx, m))
	other := testMedia("Other", "library://playlist/bind-other")
	checkNoError(t, db.InsertMedia(ctx, other))

	_, err := db.UpsertToken(ctx, "04:AA:BB:CC", "card")
	checkNoError(t, err)

	binding, err := db.BindToken(ctx, "04:AA:BB:CC", m.ID)
	checkNoError(t, err)
	checkTrue(t, "bound", binding.Bound())

	// Binding the same pair again is idempotent.
	_, err = db.BindToken(ctx, "04:AA:BB:CC", m.ID)
	checkNoError(t, err)

	// Binding to a different item is refused; rebinding goes through
	// an explicit unbind.
	_, err = db.BindToken(ctx, "04:AA:BB:CC", other.ID)
	checkErrorIs(t, err, ErrTokenAssigned)
}

func TestBindToken_Missing(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	m := testMedia("Bindable", "library://playlist/bind-missing")
	checkNoError(t, db.InsertMedia(ctx, m))

	_, err := db.BindToken(ctx, "04:99:99:99", m.ID)
	checkErrorIs(t, err, ErrTokenNotFound)

	_, err = db.UpsertToken(ctx, "04:AA:BB:CC", "card")
	checkNoError(t, err)
	_, err = db.BindToken(ctx, "04:AA:BB:CC", uuid.New())
	checkErrorIs(t, err, ErrMediaNotFound)
}

func TestUnbindToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	m := testMedia("Unbindable", "library://playlist/unbind")
	checkNoError(t, db.InsertMedia(ctx, m))

	_, err := db.UpsertToken(ctx, "04:AA:BB:CC", "card")
	checkNoError(t, err)
	_, err = db.BindToken(ctx, "04:AA:BB:CC", m.ID)
	checkNoError(t, err)

	checkNoError(t, db.UnbindToken(ctx, "04:AA:BB:CC"))

	token, err := db.GetToken(ctx, "04:AA:BB:CC")
	checkNoError(t, err)
	checkFalse(t, "bound after unbind", token.Bound())

	// Unbinding an already-unbound token succeeds.
	checkNoError(t, db.UnbindToken(ctx, "04:AA:BB:CC"))

	checkErrorIs(t, db.UnbindToken(ctx, "04:00:00:00"), ErrTokenNotFound)
}

func TestDeleteToken(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	_, err := db.UpsertToken(ctx, "04:AA:BB:CC", "card")
	checkNoError(t, err)

	checkNoError(t, db.DeleteToken(ctx, "04:AA:BB:CC"))

	_, err = db.GetToken(ctx, "04:AA:BB:CC")
	checkErrorIs(t, err, ErrTokenNotFound)

	checkErrorIs(t, db.DeleteToken(ctx, "04:AA:BB:CC"), ErrTokenNotFound)
}

func TestListTokens(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	m := testMedia("Listed", "library://playlist/list-tokens")
	checkNoError(t, db.InsertMedia(ctx, m))

	for _, uid := range []string{"04:CC", "04:AA", "04:BB"} {
		_, err := db.UpsertToken(ctx, uid, "")
		checkNoError(t, err)
	}
	_, err := db.BindToken(ctx, "04:BB", m.ID)
	checkNoError(t, err)

	all, err := db.ListTokens(ctx, nil)
	checkNoError(t, err)
	checkSliceLen(t, "all tokens", len(all), 3)
	// Ordered by UID.
	checkStringEqual(t, "first uid", all[0].UID, "04:AA")
	checkStringEqual(t, "last uid", all[2].UID, "04:CC")

	bound, err := db.ListTokens(ctx, boolPtr(true))
	checkNoError(t, err)
	checkSliceLen(t, "bound tokens", len(bound), 1)
	checkStringEqual(t, "bound uid", bound[0].UID, "04:BB")

	unbound, err := db.ListTokens(ctx, boolPtr(false))
	checkNoError(t, err)
	checkSliceLen(t, "unbound tokens", len(unbound), 2)
}

func TestResolveToken_Bound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	createTestCategories(t, db, "owner")
	m := testMedia("Resolvable", "library://playlist/resolve",
		models.TagAssignment{Category: "owner", Value: "enfants"})
	checkNoError(t, db.InsertMedia(ctx, m))

	_, err := db.UpsertToken(ctx, "04:AA:BB:CC", "story card")
	checkNoError(t, err)
	_, err = db.BindToken(ctx, "04:AA:BB:CC", m.ID)
	checkNoError(t, err)

	token, media, err := db.ResolveToken(ctx, "04:AA:BB:CC")
	checkNoError(t, err)
	checkStringEqual(t, "token uid", token.UID, "04:AA:BB:CC")
	if media == nil {
		t.Fatal("expected resolved media")
	}
	checkStringEqual(t, "media title", media.Title, "Resolvable")
	checkSliceLen(t, "media tags", len(media.Tags), 1)
}

func TestResolveToken_Unbound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	_, err := db.UpsertToken(ctx, "04:AA:BB:CC", "waiting card")
	checkNoError(t, err)

	token, media, err := db.ResolveToken(ctx, "04:AA:BB:CC")
	checkNoError(t, err)
	checkStringEqual(t, "token uid", token.UID, "04:AA:BB:CC")
	if media != nil {
		t.Errorf("expected nil media for unbound token, got %s", media.Title)
	}
}

func TestResolveToken_DanglingBinding(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	_, err := db.UpsertToken(ctx, "04:AA:BB:CC", "stale card")
	checkNoError(t, err)

	// Point the binding at a row that never existed. Normal operation
	// cannot produce this (hard delete releases tokens), but a restored
	// backup can; resolve treats it as unbound instead of failing.
	_, err = db.conn.ExecContext(ctx,
		`UPDATE tokens SET media_id = ? WHERE uid = ?`, uuid.New(), "04:AA:BB:CC")
	checkNoError(t, err)

	token, media, err := db.ResolveToken(ctx, "04:AA:BB:CC")
	checkNoError(t, err)
	checkTrue(t, "binding present", token.Bound())
	if media != nil {
		t.Error("expected nil media for dangling binding")
	}
}

func TestResolveToken_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, _, err := db.ResolveToken(context.Background(), "04:00:00:00")
	checkErrorIs(t, err, ErrTokenNotFound)
}
