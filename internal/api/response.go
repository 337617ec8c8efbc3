// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/middleware"
)

// APIResponse is the envelope every JSON endpoint returns. Success responses
// carry Data; failures carry Error. Meta is attached to both so clients can
// correlate responses with logs via the request ID.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError describes a failure in machine-readable form. Code is one of the
// ErrCode constants; Details is optional structured context (for example a
// field→reason map on validation failures).
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIMeta carries response metadata.
type APIMeta struct {
	RequestID  string          `json:"request_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	DurationMs int64           `json:"duration_ms"`
	Pagination *PaginationMeta `json:"pagination,omitempty"`
}

// PaginationMeta describes one page of a listing.
type PaginationMeta struct {
	Total    int  `json:"total"`
	Count    int  `json:"count"`
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Pages    int  `json:"pages"`
	HasMore  bool `json:"has_more"`
}

// Error codes returned in APIError.Code.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeValidation          = "VALIDATION_FAILED"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeUnprocessable       = "UNPROCESSABLE"
	ErrCodeTooManyRequests     = "TOO_MANY_REQUESTS"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeDatabase            = "DATABASE_ERROR"
)

// ResponseWriter writes enveloped JSON responses for a single request. It
// captures the start time at construction so DurationMs covers handler work,
// not just serialization.
type ResponseWriter struct {
	w         http.ResponseWriter
	r         *http.Request
	startTime time.Time
}

// NewResponseWriter creates a ResponseWriter for the request.
func NewResponseWriter(w http.ResponseWriter, r *http.Request) *ResponseWriter {
	return &ResponseWriter{w: w, r: r, startTime: time.Now()}
}

func (rw *ResponseWriter) meta() *APIMeta {
	return &APIMeta{
		RequestID:  middleware.GetRequestID(rw.r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(rw.startTime).Milliseconds(),
	}
}

// Success writes a 200 response with the given data.
func (rw *ResponseWriter) Success(data interface{}) {
	rw.writeJSON(http.StatusOK, &APIResponse{
		Success: true,
		Data:    data,
		Meta:    rw.meta(),
	})
}

// SuccessWithPagination writes a 200 response with pagination metadata.
func (rw *ResponseWriter) SuccessWithPagination(data interface{}, pagination *PaginationMeta) {
	meta := rw.meta()
	meta.Pagination = pagination
	rw.writeJSON(http.StatusOK, &APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

// Created writes a 201 response with the given data.
func (rw *ResponseWriter) Created(data interface{}) {
	rw.writeJSON(http.StatusCreated, &APIResponse{
		Success: true,
		Data:    data,
		Meta:    rw.meta(),
	})
}

// NoContent writes a 204 response without a body.
func (rw *ResponseWriter) NoContent() {
	rw.w.WriteHeader(http.StatusNoContent)
}

// Error writes an error response with the given status and code.
func (rw *ResponseWriter) Error(status int, code, message string) {
	rw.ErrorWithDetails(status, code, message, nil)
}

// ErrorWithDetails writes an error response with structured details.
func (rw *ResponseWriter) ErrorWithDetails(status int, code, message string, details interface{}) {
	requestID := middleware.GetRequestID(rw.r.Context())
	rw.writeJSON(status, &APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
		Meta: rw.meta(),
	})
}

// BadRequest writes a 400 response.
func (rw *ResponseWriter) BadRequest(message string) {
	rw.Error(http.StatusBadRequest, ErrCodeBadRequest, message)
}

// ValidationError writes a 400 response with a field→reason detail map.
func (rw *ResponseWriter) ValidationError(details interface{}) {
	rw.ErrorWithDetails(http.StatusBadRequest, ErrCodeValidation, "Request validation failed", details)
}

// NotFound writes a 404 response.
func (rw *ResponseWriter) NotFound(message string) {
	rw.Error(http.StatusNotFound, ErrCodeNotFound, message)
}

// MethodNotAllowed writes a 405 response.
func (rw *ResponseWriter) MethodNotAllowed() {
	rw.Error(http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
}

// Conflict writes a 409 response.
func (rw *ResponseWriter) Conflict(message string) {
	rw.Error(http.StatusConflict, ErrCodeConflict, message)
}

// UnprocessableEntity writes a 422 response: the request was well formed but
// cannot be acted on in the resource's current state.
func (rw *ResponseWriter) UnprocessableEntity(message string) {
	rw.Error(http.StatusUnprocessableEntity, ErrCodeUnprocessable, message)
}

// TooManyRequests writes a 429 response.
func (rw *ResponseWriter) TooManyRequests(message string) {
	rw.Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, message)
}

// InternalError writes a 500 response.
func (rw *ResponseWriter) InternalError(message string) {
	rw.Error(http.StatusInternalServerError, ErrCodeInternal, message)
}

// ServiceUnavailable writes a 503 response.
func (rw *ResponseWriter) ServiceUnavailable(message string) {
	rw.Error(http.StatusServiceUnavailable, ErrCodeServiceUnavailable, message)
}

// UpstreamError writes a 502 response for failures of an external service
// the request depends on.
func (rw *ResponseWriter) UpstreamError(message string) {
	rw.Error(http.StatusBadGateway, ErrCodeUpstreamUnavailable, message)
}

// DatabaseError logs the underlying error and writes a generic 500 response.
// The cause never reaches the client.
func (rw *ResponseWriter) DatabaseError(err error) {
	logging.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(rw.r.Context())).
		Str("path", rw.r.URL.Path).
		Msg("Database operation failed")
	rw.Error(http.StatusInternalServerError, ErrCodeDatabase, "A database error occurred")
}

// writeJSON serializes the envelope and writes it with the given status.
func (rw *ResponseWriter) writeJSON(status int, response *APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)

	if err := json.NewEncoder(rw.w).Encode(response); err != nil {
		logging.Error().
			Err(err).
			Str("request_id", middleware.GetRequestID(rw.r.Context())).
			Msg("Failed to encode JSON response")
	}
}

// WriteSuccess is a convenience wrapper for handlers that do not keep a
// ResponseWriter around.
func WriteSuccess(w http.ResponseWriter, r *http.Request, data interface{}) {
	NewResponseWriter(w, r).Success(data)
}

// WriteError is a convenience wrapper for one-off error responses.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	NewResponseWriter(w, r).Error(status, code, message)
}
