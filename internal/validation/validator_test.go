// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package validation

import (
	"strings"
	"testing"

	"github.com/jmoreau78/audiotheca/internal/models"
)

// ===================================================================================================
// Singleton Validator Tests
// ===================================================================================================

func TestGetValidator_Singleton(t *testing.T) {
	// Test that GetValidator returns the same instance
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}

	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

// ===================================================================================================
// ValidateStruct Tests
// ===================================================================================================

func TestValidateStruct_MediaCreateRequest(t *testing.T) {
	valid := models.MediaCreateRequest{
		Title:     "Berceuses du soir",
		MediaType: "playlist",
		SourceURI: "spotify:playlist:berceuses",
		Provider:  "assistant",
	}

	t.Run("valid request", func(t *testing.T) {
		if err := ValidateStruct(&valid); err != nil {
			t.Errorf("ValidateStruct() returned unexpected error: %v", err)
		}
	})

	tests := []struct {
		name      string
		mutate    func(*models.MediaCreateRequest)
		wantField string
		wantTag   string
	}{
		{
			name:      "missing title",
			mutate:    func(r *models.MediaCreateRequest) { r.Title = "" },
			wantField: "Title",
			wantTag:   "required",
		},
		{
			name:      "title too long",
			mutate:    func(r *models.MediaCreateRequest) { r.Title = strings.Repeat("x", 501) },
			wantField: "Title",
			wantTag:   "max",
		},
		{
			name:      "unknown media type",
			mutate:    func(r *models.MediaCreateRequest) { r.MediaType = "cassette" },
			wantField: "MediaType",
			wantTag:   "oneof",
		},
		{
			name:      "missing source uri",
			mutate:    func(r *models.MediaCreateRequest) { r.SourceURI = "" },
			wantField: "SourceURI",
			wantTag:   "required",
		},
		{
			name:      "malformed cover url",
			mutate:    func(r *models.MediaCreateRequest) { r.CoverURL = "not a url" },
			wantField: "CoverURL",
			wantTag:   "url",
		},
		{
			name:      "negative duration",
			mutate:    func(r *models.MediaCreateRequest) { r.DurationMin = -5 },
			wantField: "DurationMin",
			wantTag:   "gte",
		},
		{
			name: "blank tag value in dive",
			mutate: func(r *models.MediaCreateRequest) {
				r.Tags = []models.TagAssignment{{Category: "owner", Value: ""}}
			},
			wantField: "Value",
			wantTag:   "required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := ValidateStruct(&req)
			if err == nil {
				t.Fatal("ValidateStruct() returned nil, want validation error")
			}

			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("ValidateStruct() errors = %v, want field %q tag %q", err, tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidateStruct_TokenBindRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   models.TokenBindRequest
		wantTag string
	}{
		{
			name:  "valid uuid",
			input: models.TokenBindRequest{MediaID: "a7e6f1f4-9c5e-4a3b-8b6d-0c2f1e9a4b3c"},
		},
		{
			name:    "missing media id",
			input:   models.TokenBindRequest{},
			wantTag: "required",
		},
		{
			name:    "malformed media id",
			input:   models.TokenBindRequest{MediaID: "not-a-uuid"},
			wantTag: "uuid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Errorf("ValidateStruct() returned unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() returned nil, want validation error")
			}
			if got := err.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("Tag() = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

// ===================================================================================================
// Custom Validator Tests
// ===================================================================================================

type categoryProbe struct {
	Slug string `validate:"required,tagslug"`
}

func TestCustomValidator_TagSlug(t *testing.T) {
	tests := []struct {
		name  string
		slug  string
		valid bool
	}{
		{name: "simple slug", slug: "owner", valid: true},
		{name: "underscore slug", slug: "time_of_day", valid: true},
		{name: "digits after first letter", slug: "age3plus", valid: true},
		{name: "uppercase rejected", slug: "Owner", valid: false},
		{name: "leading digit rejected", slug: "3moods", valid: false},
		{name: "leading underscore rejected", slug: "_mood", valid: false},
		{name: "hyphen rejected", slug: "time-of-day", valid: false},
		{name: "accented rejected", slug: "humeur_été", valid: false},
		{name: "space rejected", slug: "time of day", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&categoryProbe{Slug: tt.slug})
			if tt.valid && err != nil {
				t.Errorf("ValidateStruct(%q) returned unexpected error: %v", tt.slug, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateStruct(%q) returned nil, want tagslug error", tt.slug)
			}
		})
	}
}

type uidProbe struct {
	UID string `validate:"required,rfiduid"`
}

func TestCustomValidator_RFIDUID(t *testing.T) {
	tests := []struct {
		name  string
		uid   string
		valid bool
	}{
		{name: "4 byte mifare classic", uid: "04a1b2c3", valid: true},
		{name: "7 byte mifare ultralight", uid: "04a1b2c3d4e5f6", valid: true},
		{name: "10 byte maximum", uid: "00112233445566778899", valid: true},
		{name: "uppercase hex", uid: "04A1B2C3", valid: true},
		{name: "too short", uid: "04a1b2", valid: false},
		{name: "too long", uid: "0011223344556677889900", valid: false},
		{name: "odd length", uid: "04a1b2c", valid: false},
		{name: "non-hex", uid: "04a1b2cz", valid: false},
		{name: "colon separated", uid: "04:a1:b2:c3", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&uidProbe{UID: tt.uid})
			if tt.valid && err != nil {
				t.Errorf("ValidateStruct(%q) returned unexpected error: %v", tt.uid, err)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateStruct(%q) returned nil, want rfiduid error", tt.uid)
			}
		})
	}
}

// ===================================================================================================
// ValidateVar Tests
// ===================================================================================================

func TestValidateVar(t *testing.T) {
	t.Run("valid uid passes", func(t *testing.T) {
		if err := ValidateVar("uid", "04a1b2c3", "required,rfiduid"); err != nil {
			t.Errorf("ValidateVar() returned unexpected error: %v", err)
		}
	})

	t.Run("invalid uid uses the given name", func(t *testing.T) {
		err := ValidateVar("uid", "nope", "required,rfiduid")
		if err == nil {
			t.Fatal("ValidateVar() returned nil, want validation error")
		}
		fe := err.Errors()[0]
		if fe.Field() != "uid" {
			t.Errorf("Field() = %q, want %q", fe.Field(), "uid")
		}
		if fe.Tag() != "rfiduid" {
			t.Errorf("Tag() = %q, want %q", fe.Tag(), "rfiduid")
		}
		if !strings.Contains(fe.Error(), "uid") {
			t.Errorf("Error() = %q, should mention the field name", fe.Error())
		}
	})

	t.Run("slug var", func(t *testing.T) {
		if err := ValidateVar("category", "mood", "required,tagslug"); err != nil {
			t.Errorf("ValidateVar() returned unexpected error: %v", err)
		}
		if err := ValidateVar("category", "Mood!", "required,tagslug"); err == nil {
			t.Error("ValidateVar() returned nil, want tagslug error")
		}
	})
}

// ===================================================================================================
// Error Formatting Tests
// ===================================================================================================

func TestRequestValidationError_Error(t *testing.T) {
	err := ValidateStruct(&models.MediaCreateRequest{})
	if err == nil {
		t.Fatal("ValidateStruct() returned nil for empty request")
	}

	msg := err.Error()
	if msg == "" || msg == "validation failed" {
		t.Errorf("Error() = %q, want translated field messages", msg)
	}
	if !strings.Contains(msg, "Title is required") {
		t.Errorf("Error() = %q, should contain %q", msg, "Title is required")
	}
}

func TestToAPIError(t *testing.T) {
	t.Run("single error carries field details", func(t *testing.T) {
		err := ValidateStruct(&uidProbe{UID: "zz"})
		if err == nil {
			t.Fatal("ValidateStruct() returned nil")
		}

		apiErr := err.ToAPIError()
		if apiErr.Code != "VALIDATION_ERROR" {
			t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
		}
		if apiErr.Details["field"] != "UID" {
			t.Errorf("Details[field] = %v, want UID", apiErr.Details["field"])
		}
		if apiErr.Details["tag"] != "rfiduid" {
			t.Errorf("Details[tag] = %v, want rfiduid", apiErr.Details["tag"])
		}
	})

	t.Run("multiple errors list all fields", func(t *testing.T) {
		err := ValidateStruct(&models.MediaCreateRequest{})
		if err == nil {
			t.Fatal("ValidateStruct() returned nil")
		}
		if len(err.Errors()) < 2 {
			t.Fatalf("Errors() = %d entries, want several for an empty request", len(err.Errors()))
		}

		apiErr := err.ToAPIError()
		fields, ok := apiErr.Details["fields"].([]map[string]interface{})
		if !ok {
			t.Fatalf("Details[fields] has type %T, want []map[string]interface{}", apiErr.Details["fields"])
		}
		if len(fields) != len(err.Errors()) {
			t.Errorf("Details[fields] has %d entries, want %d", len(fields), len(err.Errors()))
		}
	})
}
