// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoreau78/audiotheca/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestRateLimitCustom_Disabled tests that the limiter passes everything
// through when rate limiting is switched off.
func TestRateLimitCustom_Disabled(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&config.Config{
		Server: config.ServerConfig{RateLimitDisabled: true},
	})
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}
}

// TestRateLimitCustom_Enforced tests the 429 envelope once the per-IP
// budget is spent.
func TestRateLimitCustom_Enforced(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&config.Config{})
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 2, Window: time.Minute})(okHandler())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := do(); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	w := do()
	wantErrorCode(t, w, http.StatusTooManyRequests, ErrCodeTooManyRequests)
}

// TestRateLimitCustom_KeyedByIP tests that one client exhausting its budget
// does not affect another.
func TestRateLimitCustom_KeyedByIP(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&config.Config{})
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler())

	do := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	if w := do("10.0.0.3:1234"); w.Code != http.StatusOK {
		t.Fatalf("first client: status = %d, want 200", w.Code)
	}
	if w := do("10.0.0.3:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client again: status = %d, want 429", w.Code)
	}
	if w := do("10.0.0.4:1234"); w.Code != http.StatusOK {
		t.Errorf("second client: status = %d, want 200", w.Code)
	}
}

// TestRateLimit_ConfigOverride tests that server configuration overrides the
// built-in default limit.
func TestRateLimit_ConfigOverride(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(&config.Config{
		Server: config.ServerConfig{
			RateLimitReqs:   1,
			RateLimitWindow: time.Minute,
		},
	})
	handler := m.RateLimit()(okHandler())

	do := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
		req.RemoteAddr = "10.0.0.5:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	if w := do(); w.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", w.Code)
	}
	if w := do(); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", w.Code)
	}
}

// TestIsProbePath tests the probe path classification used to demote log
// levels.
func TestIsProbePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{"/metrics", true},
		{"/readyz", true},
		{"/healthz", true},
		{"/healthz/assistant", true},
		{"/api/v1/media", false},
		{"/api/v1/media/select", false},
		{"/", false},
	}

	for _, tt := range tests {
		if got := isProbePath(tt.path); got != tt.want {
			t.Errorf("isProbePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

// TestCORSPreflight tests that an allowed origin gets the CORS headers on a
// preflight request.
func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/media", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}
