// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompression_WithGzipAccept(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := strings.Repeat(`{"title":"Les Quatre Saisons"}`, 100)
		w.WriteHeader(http.StatusOK)
		_, err := w.Write([]byte(data))
		if err != nil {
			t.Fatalf("Failed to write response: %v", err)
		}
	})

	compressedHandler := Compression(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	compressedHandler(rec, req)

	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Expected Content-Encoding: gzip, got: %s", rec.Header().Get("Content-Encoding"))
	}

	if rec.Header().Get("Content-Length") != "" {
		t.Error("Expected Content-Length header to be removed")
	}

	reader, err := gzip.NewReader(rec.Body)
	if err != nil {
		t.Fatalf("Failed to create gzip reader: %v", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("Failed to read decompressed data: %v", err)
	}

	if !strings.Contains(string(decompressed), "Les Quatre Saisons") {
		t.Error("Decompressed body does not match original payload")
	}
}

func TestCompression_WithoutGzipAccept(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("plain response"))
	})

	compressedHandler := Compression(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
	rec := httptest.NewRecorder()

	compressedHandler(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Expected uncompressed response without Accept-Encoding: gzip")
	}

	if rec.Body.String() != "plain response" {
		t.Errorf("Body altered: %s", rec.Body.String())
	}
}

func TestCompression_SkipsWebSocketUpgrade(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusSwitchingProtocols)
	})

	compressedHandler := Compression(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Upgrade", "websocket")
	rec := httptest.NewRecorder()

	compressedHandler(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("WebSocket upgrade must not be gzip-encoded")
	}
}

func TestCompression_SkipsCoverArt(t *testing.T) {
	payload := []byte{0xFF, 0xD8, 0xFF, 0xE0} // JPEG magic
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
		w.Write(payload)
	})

	compressedHandler := Compression(handler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/covers/9ce7067b.jpg", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()

	compressedHandler(rec, req)

	if rec.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Cover art must not be re-compressed")
	}

	if rec.Body.Len() != len(payload) {
		t.Errorf("Expected %d raw bytes, got %d", len(payload), rec.Body.Len())
	}
}

func BenchmarkCompression(b *testing.B) {
	data := []byte(strings.Repeat(`{"value":"histoire"}`, 200))
	handler := Compression(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/media", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		handler(rec, req)
	}
}
