// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// Package validation provides struct validation using go-playground/validator v10.
//
// This package wraps the go-playground/validator library to provide a thread-safe
// singleton validator instance with custom validators and user-friendly error
// messages. It integrates with the application's API error format for consistent
// error responses.
//
// # Overview
//
// The package provides:
//   - Thread-safe singleton validator (initialized once, cached struct info)
//   - Custom validators for the catalog vocabulary (tagslug, rfiduid)
//   - Comprehensive error translation to human-readable messages
//   - APIError conversion matching the application's error format
//
// # Quick Start
//
//	type MediaCreateRequest struct {
//	    Title     string `validate:"required,min=1,max=500"`
//	    MediaType string `validate:"required,oneof=playlist audiobook radio podcast album track"`
//	    SourceURI string `validate:"required,min=1,max=2000"`
//	}
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    var req MediaCreateRequest
//	    if err := json.Decode(r.Body, &req); err != nil {
//	        // handle decode error
//	    }
//
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
//	        return
//	    }
//
//	    // proceed with valid request
//	}
//
// # Custom Validation Tags
//
//   - tagslug: lowercase slug for tag categories (owner, time_of_day)
//   - rfiduid: 4 to 10 byte hex identifier as reported by an RFID reader
//
// Path parameters that never pass through a struct use ValidateVar:
//
//	if verr := validation.ValidateVar("uid", chi.URLParam(r, "uid"), "rfiduid"); verr != nil {
//	    // respond 400
//	}
//
// # Error Types
//
// ValidationError represents a single field validation failure:
//
//	type ValidationError struct {
//	    Field()   string      // Struct field name
//	    Tag()     string      // Validation tag that failed
//	    Param()   string      // Tag parameter (e.g., "500" for max=500)
//	    Value()   interface{} // Actual value that failed
//	    Error()   string      // Human-readable message
//	}
//
// RequestValidationError aggregates multiple field errors:
//
//	type RequestValidationError struct {
//	    Errors() []ValidationError
//	    Error()  string           // Combined message
//	    ToAPIError() *APIError    // Convert to API error format
//	}
//
// # API Error Integration
//
// The ToAPIError method produces errors matching the application format:
//
//	// Single field error
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "Title is required",
//	    "details": {"field": "Title", "tag": "required", "value": ""}
//	}
//
//	// Multiple field errors
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "Title: required; MediaType: must be one of: ...",
//	    "details": {
//	        "fields": [
//	            {"field": "Title", "tag": "required", "message": "..."},
//	            {"field": "MediaType", "tag": "oneof", "message": "..."}
//	        ]
//	    }
//	}
//
// # Thread Safety
//
// The singleton validator is initialized once and safe for concurrent use:
//
//	validate := validation.GetValidator()  // Thread-safe
//	err := validation.ValidateStruct(&req) // Thread-safe
//
// # See Also
//
//   - internal/api: Request handlers using validation
//   - internal/models: Request structs carrying validate tags
//   - github.com/go-playground/validator/v10: Underlying library
package validation
