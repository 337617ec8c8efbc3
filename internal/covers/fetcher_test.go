// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package covers

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jmoreau78/audiotheca/internal/config"
)

func testFetcherConfig() config.CoversConfig {
	return config.CoversConfig{
		FetchTimeout:      5 * time.Second,
		MaxBytes:          1 << 20,
		RequestsPerSecond: 1000,
		Burst:             100,
	}
}

func newTestFetcher(t *testing.T, cfg config.CoversConfig) (*Fetcher, *Store) {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "covers"))
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	return NewFetcher(cfg, store), store
}

// encodeTestImage renders a small solid image in the requested format.
func encodeTestImage(t *testing.T, format string) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	var buf bytes.Buffer
	var err error
	switch format {
	case "jpeg":
		err = jpeg.Encode(&buf, img, nil)
	case "png":
		err = png.Encode(&buf, img)
	default:
		t.Fatalf("unknown test image format %q", format)
	}
	if err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestFetcher_FetchJPEG(t *testing.T) {
	payload := encodeTestImage(t, "jpeg")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	fetcher, store := newTestFetcher(t, testFetcherConfig())
	id := uuid.New()

	name, err := fetcher.Fetch(context.Background(), id, srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if name != id.String()+".jpg" {
		t.Errorf("Fetch() returned name %q, want %q", name, id.String()+".jpg")
	}
	if !store.Exists(id) {
		t.Fatal("Expected cover to exist after fetch")
	}

	// JPEG input is stored verbatim.
	stored, err := os.ReadFile(store.Path(id))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !bytes.Equal(stored, payload) {
		t.Error("Expected JPEG to be stored without re-encoding")
	}
}

func TestFetcher_FetchPNGReencodes(t *testing.T) {
	payload := encodeTestImage(t, "png")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	fetcher, store := newTestFetcher(t, testFetcherConfig())
	id := uuid.New()

	if _, err := fetcher.Fetch(context.Background(), id, srv.URL); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	stored, err := os.ReadFile(store.Path(id))
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(stored)); err != nil {
		t.Errorf("Stored cover is not valid JPEG: %v", err)
	}
}

func TestFetcher_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	fetcher, store := newTestFetcher(t, testFetcherConfig())
	id := uuid.New()

	if _, err := fetcher.Fetch(context.Background(), id, srv.URL); err == nil {
		t.Fatal("Expected error for 404 upstream")
	}
	if store.Exists(id) {
		t.Error("Cover stored despite failed fetch")
	}
}

func TestFetcher_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(bytes.Repeat([]byte{0xFF}, 2048))
	}))
	defer srv.Close()

	cfg := testFetcherConfig()
	cfg.MaxBytes = 1024
	fetcher, _ := newTestFetcher(t, cfg)

	_, err := fetcher.Fetch(context.Background(), uuid.New(), srv.URL)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("Fetch() error = %v, want ErrTooLarge", err)
	}
}

func TestFetcher_RejectsNonImageContentType(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html>not a cover</html>"))
	}))
	defer srv.Close()

	fetcher, _ := newTestFetcher(t, testFetcherConfig())

	_, err := fetcher.Fetch(context.Background(), uuid.New(), srv.URL)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Fetch() error = %v, want ErrUnsupportedImage", err)
	}
}

func TestFetcher_UndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("definitely not a jpeg"))
	}))
	defer srv.Close()

	fetcher, _ := newTestFetcher(t, testFetcherConfig())

	_, err := fetcher.Fetch(context.Background(), uuid.New(), srv.URL)
	if !errors.Is(err, ErrUnsupportedImage) {
		t.Errorf("Fetch() error = %v, want ErrUnsupportedImage", err)
	}
}

func TestFetcher_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetcher, _ := newTestFetcher(t, testFetcherConfig())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := fetcher.Fetch(ctx, uuid.New(), srv.URL); err == nil {
			t.Fatalf("Fetch() #%d succeeded, want failure", i+1)
		}
	}

	_, err := fetcher.Fetch(ctx, uuid.New(), srv.URL)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Fetch() after repeated failures = %v, want ErrOpenState", err)
	}
}

func TestFetcher_ContextCancellation(t *testing.T) {
	payload := encodeTestImage(t, "jpeg")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	fetcher, _ := newTestFetcher(t, testFetcherConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := fetcher.Fetch(ctx, uuid.New(), srv.URL); err == nil {
		t.Error("Expected error with canceled context")
	}
}
