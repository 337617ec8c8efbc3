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

func TestCreateTagCategory(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	c, err := db.CreateTagCategory(context.Background(), "instrument", "Instrument")
	checkNoError(t, err)
	checkStringEqual(t, "slug", c.Slug, "instrument")
	checkStringEqual(t, "label", c.Label, "Instrument")

	got, err := db.GetTagCategory(context.Background(), "instrument")
	checkNoError(t, err)
	checkStringEqual(t, "label", got.Label, "Instrument")
}

func TestCreateTagCategory_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.CreateTagCategory(context.Background(), "mood", "Humeur")
	checkNoError(t, err)

	_, err = db.CreateTagCategory(context.Background(), "mood", "Mood again")
	checkErrorIs(t, err, ErrDuplicateCategory)
}

func TestGetTagCategory_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetTagCategory(context.Background(), "missing")
	checkErrorIs(t, err, ErrCategoryNotFound)
}

func TestListTagCategories_OrderedByLabel(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	_, err := db.CreateTagCategory(ctx, "mood", "Humeur")
	checkNoError(t, err)
	_, err = db.CreateTagCategory(ctx, "context", "Contexte")
	checkNoError(t, err)
	_, err = db.CreateTagCategory(ctx, "owner", "Propriétaire")
	checkNoError(t, err)

	categories, err := db.ListTagCategories(ctx)
	checkNoError(t, err)
	checkSliceLen(t, "categories", len(categories), 3)
	checkStringEqual(t, "first label", categories[0].Label, "Contexte")
	checkStringEqual(t, "second label", categories[1].Label, "Humeur")
	checkStringEqual(t, "third label", categories[2].Label, "Propriétaire")
}

func TestDeleteTagCategory_Cascades(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	createTestCategories(t, db, "mood", "owner")

	m := testMedia("Cascade Target", "library://playlist/cascade",
		models.TagAssignment{Category: "mood", Value: "calm"},
		models.TagAssignment{Category: "owner", Value: "papa"})
	checkNoError(t, db.InsertMedia(ctx, m))

	checkNoError(t, db.DeleteTagCategory(ctx, "mood"))

	// The category, its tags, and its assignments are gone.
	_, err := db.GetTagCategory(ctx, "mood")
	checkErrorIs(t, err, ErrCategoryNotFound)

	moodTags, err := db.ListTags(ctx, "mood")
	checkNoError(t, err)
	checkSliceLen(t, "mood tags", len(moodTags), 0)

	got, err := db.GetMediaByID(ctx, m.ID)
	checkNoError(t, err)
	checkSliceLen(t, "remaining assignments", len(got.Tags), 1)
	checkStringEqual(t, "surviving category", got.Tags[0].Category, "owner")
}

func TestDeleteTagCategory_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	checkErrorIs(t, db.DeleteTagCategory(context.Background(), "missing"), ErrCategoryNotFound)
}

func TestCreateTag(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestCategories(t, db, "mood")

	tag, err := db.CreateTag(context.Background(), "mood", "melancholic")
	checkNoError(t, err)
	checkStringEqual(t, "category", tag.Category, "mood")
	checkStringEqual(t, "value", tag.Value, "melancholic")

	got, err := db.GetTag(context.Background(), tag.ID)
	checkNoError(t, err)
	checkStringEqual(t, "value", got.Value, "melancholic")
}

func TestCreateTag_Errors(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	createTestCategories(t, db, "mood")

	_, err := db.CreateTag(context.Background(), "missing", "x")
	checkErrorIs(t, err, ErrCategoryNotFound)

	_, err = db.CreateTag(context.Background(), "mood", "calm")
	checkNoError(t, err)
	_, err = db.CreateTag(context.Background(), "mood", "calm")
	checkErrorIs(t, err, ErrDuplicateTag)
}

func TestGetTag_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := db.GetTag(context.Background(), uuid.New())
	checkErrorIs(t, err, ErrTagNotFound)
}

func TestListTags(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	createTestCategories(t, db, "mood", "owner")
	for _, pair := range [][2]string{
		{"mood", "energetic"}, {"mood", "calm"}, {"owner", "papa"},
	} {
		_, err := db.CreateTag(ctx, pair[0], pair[1])
		checkNoError(t, err)
	}

	all, err := db.ListTags(ctx, "")
	checkNoError(t, err)
	checkSliceLen(t, "all tags", len(all), 3)
	// Ordered by category then value.
	checkStringEqual(t, "first", all[0].Category+":"+all[0].Value, "mood:calm")
	checkStringEqual(t, "second", all[1].Category+":"+all[1].Value, "mood:energetic")
	checkStringEqual(t, "third", all[2].Category+":"+all[2].Value, "owner:papa")

	moods, err := db.ListTags(ctx, "mood")
	checkNoError(t, err)
	checkSliceLen(t, "mood tags", len(moods), 2)
}

func TestDeleteTag_DetachesAssignments(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	createTestCategories(t, db, "mood")
	m := testMedia("Tagged", "library://playlist/tagdel",
		models.TagAssignment{Category: "mood", Value: "calm"})
	checkNoError(t, db.InsertMedia(ctx, m))

	tags, err := db.ListTags(ctx, "mood")
	checkNoError(t, err)
	checkSliceLen(t, "mood tags", len(tags), 1)

	checkNoError(t, db.DeleteTag(ctx, tags[0].ID))

	got, err := db.GetMediaByID(ctx, m.ID)
	checkNoError(t, err)
	checkSliceLen(t, "assignments after tag delete", len(got.Tags), 0)

	_, err = db.GetTag(ctx, tags[0].ID)
	checkErrorIs(t, err, ErrTagNotFound)
}

func TestDeleteTag_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	checkErrorIs(t, db.DeleteTag(context.Background(), uuid.New()), ErrTagNotFound)
}

func TestTagVocabulary(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	insertTestCatalog(t, db)

	vocabulary, err := db.TagVocabulary(ctx)
	checkNoError(t, err)
	checkSliceLen(t, "owner values", len(vocabulary["owner"]), 2)
	checkSliceLen(t, "mood values", len(vocabulary["mood"]), 3)

	// Values within a category come back ordered.
	checkStringEqual(t, "first mood", vocabulary["mood"][0], "calm")
	checkStringEqual(t, "last mood", vocabulary["mood"][2], "focus")
}

func TestTagVocabulary_Empty(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	vocabulary, err := db.TagVocabulary(context.Background())
	checkNoError(t, err)
	checkSliceLen(t, "vocabulary", len(vocabulary), 0)
}
