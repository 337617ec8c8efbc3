// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/jmoreau78/audiotheca/internal/validation"
)

// maxBodyBytes caps JSON request bodies. Catalog payloads are small; anything
// near this limit is malformed or hostile.
const maxBodyBytes = 1 << 20

// sanitizeLogValue replaces control characters so attacker-supplied strings
// cannot forge log lines.
func sanitizeLogValue(s string) string {
	var result strings.Builder
	result.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7F {
			result.WriteString(fmt.Sprintf("\\x%02x", r))
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// decodeJSON reads a JSON request body into dst. On failure it writes a 400
// response and returns false; the handler should return immediately.
func decodeJSON(rw *ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(rw.w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		rw.BadRequest("Invalid JSON request body")
		return false
	}
	return true
}

// validateRequest runs struct validation over a decoded request. On failure
// it writes a 400 VALIDATION_FAILED response with the translated field
// errors and returns false.
func validateRequest(rw *ResponseWriter, v interface{}) bool {
	verr := validation.ValidateStruct(v)
	if verr == nil {
		return true
	}
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, apiErr.Message, apiErr.Details)
	return false
}

// getIntParam extracts an integer query parameter with a default value.
// Malformed values fall back to the default rather than failing the request.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getBoolParam extracts an optional boolean query parameter. The second
// return reports whether the parameter was present and parseable.
func getBoolParam(r *http.Request, key string) (bool, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return false, false
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, false
	}
	return b, true
}

// parseCommaSeparated splits a comma-separated parameter into trimmed,
// non-empty entries.
func parseCommaSeparated(value string) []string {
	if value == "" {
		return nil
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// clampPageSize bounds a requested page size to [1, max], substituting the
// default when the request does not specify one.
func clampPageSize(requested, def, max int) int {
	if requested <= 0 {
		return def
	}
	if requested > max {
		return max
	}
	return requested
}
