// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
)

func TestResponseWriter_Success(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	data := map[string]string{"message": "hello"}
	NewResponseWriter(w, r).Success(data)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if !response.Success {
		t.Error("Expected Success to be true")
	}
	if response.Error != nil {
		t.Error("Expected Error to be nil")
	}
	if response.Meta == nil {
		t.Fatal("Expected Meta to not be nil")
	}
	if response.Meta.Timestamp.IsZero() {
		t.Error("Expected Timestamp to be set")
	}
}

func TestResponseWriter_SuccessWithPagination(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	data := []string{"item1", "item2"}
	pagination := &PaginationMeta{
		Total:    100,
		Count:    2,
		Page:     1,
		PageSize: 2,
		Pages:    50,
		HasMore:  true,
	}

	NewResponseWriter(w, r).SuccessWithPagination(data, pagination)

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	if response.Meta == nil || response.Meta.Pagination == nil {
		t.Fatal("Expected pagination metadata")
	}
	if response.Meta.Pagination.Total != 100 {
		t.Errorf("Expected Total 100, got %d", response.Meta.Pagination.Total)
	}
	if response.Meta.Pagination.Pages != 50 {
		t.Errorf("Expected Pages 50, got %d", response.Meta.Pagination.Pages)
	}
	if !response.Meta.Pagination.HasMore {
		t.Error("Expected HasMore to be true")
	}
}

func TestResponseWriter_Created(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/test", nil)

	data := map[string]int{"id": 123}
	NewResponseWriter(w, r).Created(data)

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !response.Success {
		t.Error("Expected Success to be true")
	}
}

func TestResponseWriter_NoContent(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodDelete, "/test", nil)

	NewResponseWriter(w, r).NoContent()

	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected empty body, got %q", w.Body.String())
	}
}

func TestResponseWriter_ErrorVerbs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		write      func(rw *ResponseWriter)
		wantStatus int
		wantCode   string
	}{
		{
			name:       "bad request",
			write:      func(rw *ResponseWriter) { rw.BadRequest("nope") },
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeBadRequest,
		},
		{
			name:       "validation",
			write:      func(rw *ResponseWriter) { rw.ValidationError(map[string]string{"field": "bad"}) },
			wantStatus: http.StatusBadRequest,
			wantCode:   ErrCodeValidation,
		},
		{
			name:       "not found",
			write:      func(rw *ResponseWriter) { rw.NotFound("missing") },
			wantStatus: http.StatusNotFound,
			wantCode:   ErrCodeNotFound,
		},
		{
			name:       "method not allowed",
			write:      func(rw *ResponseWriter) { rw.MethodNotAllowed() },
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   ErrCodeMethodNotAllowed,
		},
		{
			name:       "conflict",
			write:      func(rw *ResponseWriter) { rw.Conflict("already there") },
			wantStatus: http.StatusConflict,
			wantCode:   ErrCodeConflict,
		},
		{
			name:       "unprocessable",
			write:      func(rw *ResponseWriter) { rw.UnprocessableEntity("cannot do") },
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   ErrCodeUnprocessable,
		},
		{
			name:       "too many requests",
			write:      func(rw *ResponseWriter) { rw.TooManyRequests("slow down") },
			wantStatus: http.StatusTooManyRequests,
			wantCode:   ErrCodeTooManyRequests,
		},
		{
			name:       "internal",
			write:      func(rw *ResponseWriter) { rw.InternalError("boom") },
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeInternal,
		},
		{
			name:       "service unavailable",
			write:      func(rw *ResponseWriter) { rw.ServiceUnavailable("later") },
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   ErrCodeServiceUnavailable,
		},
		{
			name:       "upstream",
			write:      func(rw *ResponseWriter) { rw.UpstreamError("assistant down") },
			wantStatus: http.StatusBadGateway,
			wantCode:   ErrCodeUpstreamUnavailable,
		},
		{
			name:       "database",
			write:      func(rw *ResponseWriter) { rw.DatabaseError(errors.New("duckdb exploded")) },
			wantStatus: http.StatusInternalServerError,
			wantCode:   ErrCodeDatabase,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/test", nil)
			tt.write(NewResponseWriter(w, r))

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var response APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("Failed to unmarshal response: %v", err)
			}
			if response.Success {
				t.Error("Expected Success to be false")
			}
			if response.Error == nil {
				t.Fatal("Expected Error to be set")
			}
			if response.Error.Code != tt.wantCode {
				t.Errorf("Error.Code = %q, want %q", response.Error.Code, tt.wantCode)
			}
		})
	}
}

func TestResponseWriter_DatabaseErrorHidesDetail(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	NewResponseWriter(w, r).DatabaseError(errors.New("secret table layout leaked"))

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Error == nil {
		t.Fatal("Expected Error to be set")
	}
	if response.Error.Message == "secret table layout leaked" {
		t.Error("Database error detail must not reach the client")
	}
}

func TestResponseWriter_ErrorWithDetails(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/test", nil)

	details := map[string]string{"title": "required"}
	NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, "Request validation failed", details)

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Error == nil {
		t.Fatal("Expected Error to be set")
	}
	got, ok := response.Error.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("Details type = %T, want map", response.Error.Details)
	}
	if got["title"] != "required" {
		t.Errorf("Details[title] = %v, want required", got["title"])
	}
}

func TestWriteSuccessAndWriteError(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	WriteSuccess(w, r, map[string]bool{"ok": true})
	if w.Code != http.StatusOK {
		t.Errorf("WriteSuccess status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "gone")
	if w.Code != http.StatusNotFound {
		t.Errorf("WriteError status = %d, want 404", w.Code)
	}

	var response APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Error == nil || response.Error.Message != "gone" {
		t.Errorf("Error = %+v, want message gone", response.Error)
	}
}
