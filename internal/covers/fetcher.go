// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package covers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	// PNG covers are decoded and re-encoded as JPEG.
	_ "image/png"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
)

// jpegQuality is the re-encode quality for non-JPEG covers.
const jpegQuality = 85

// breakerName labels the cover fetch circuit breaker in metrics and logs.
const breakerName = "cover-fetch"

// Fetch errors classified for metrics.
var (
	// ErrTooLarge is returned when the upstream image exceeds the size cap.
	ErrTooLarge = errors.New("cover exceeds size limit")
	// ErrUnsupportedImage is returned when the payload is not a decodable
	// JPEG or PNG.
	ErrUnsupportedImage = errors.New("unsupported cover image")
)

// Fetcher downloads cover art from provider URLs and stores it locally.
// Downloads are rate limited and run behind a circuit breaker so a broken
// CDN cannot stall catalog writes; whatever arrives is normalized to JPEG
// before storage.
type Fetcher struct {
	store    *Store
	client   *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker[[]byte]
	maxBytes int64
}

// NewFetcher creates a cover fetcher writing into store.
func NewFetcher(cfg config.CoversConfig, store *Store) *Fetcher {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0) // 0 = closed

	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Timeout:     time.Minute,

		// A handful of consecutive failures is enough: cover hosts either
		// work or they don't, and every fetch targets the same provider CDN.
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := breakerStateString(from)
			toStr := breakerStateString(to)

			logging.Info().
				Str("breaker", name).
				Str("from", fromStr).
				Str("to", toStr).
				Msg("Cover fetch breaker state changed")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &Fetcher{
		store:   store,
		client:  &http.Client{Timeout: cfg.FetchTimeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker,

		maxBytes: cfg.MaxBytes,
	}
}

// Fetch downloads the cover at coverURL, normalizes it to JPEG, and stores
// it for the media item. It returns the stored file name.
func (f *Fetcher) Fetch(ctx context.Context, id uuid.UUID, coverURL string) (string, error) {
	start := time.Now()

	if err := f.limiter.Wait(ctx); err != nil {
		metrics.RecordCoverFetch(time.Since(start), "rate_limited")
		return "", fmt.Errorf("cover fetch rate limit: %w", err)
	}

	data, err := f.breaker.Execute(func() ([]byte, error) {
		return f.download(ctx, coverURL)
	})
	if err != nil {
		metrics.CircuitBreakerRequests.WithLabelValues(breakerName, breakerResult(err)).Inc()
		metrics.RecordCoverFetch(time.Since(start), classifyFetchError(err))
		return "", err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(breakerName, "success").Inc()

	normalized, err := normalizeJPEG(data)
	if err != nil {
		metrics.RecordCoverFetch(time.Since(start), "decode")
		return "", err
	}

	if err := f.store.Put(id, normalized); err != nil {
		metrics.RecordCoverFetch(time.Since(start), "store")
		return "", err
	}

	metrics.RecordCoverFetch(time.Since(start), "")
	logging.Debug().
		Str("media_id", id.String()).
		Int("bytes", len(normalized)).
		Msg("Cover stored")

	return f.store.FileName(id), nil
}

// download retrieves the raw image bytes, enforcing the size cap.
func (f *Fetcher) download(ctx context.Context, coverURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, coverURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create cover request: %w", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png")
	req.Header.Set("User-Agent", "audiotheca")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cover fetch returned status %d", resp.StatusCode)
	}

	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: content-length %d > %d", ErrTooLarge, resp.ContentLength, f.maxBytes)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		mediaType := strings.TrimSpace(strings.Split(ct, ";")[0])
		if !strings.HasPrefix(mediaType, "image/") && mediaType != "application/octet-stream" {
			return nil, fmt.Errorf("%w: content-type %s", ErrUnsupportedImage, mediaType)
		}
	}

	// Read one byte past the cap to distinguish "exactly at" from "over".
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read cover body: %w", err)
	}
	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLarge, f.maxBytes)
	}

	return data, nil
}

// normalizeJPEG returns JPEG bytes for the image: verbatim when the input
// already is JPEG, re-encoded otherwise.
func normalizeJPEG(data []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	if format == "jpeg" {
		return data, nil
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode cover as JPEG: %w", err)
	}

	return buf.Bytes(), nil
}

// classifyFetchError maps a fetch failure to its metrics error type.
func classifyFetchError(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, ErrUnsupportedImage):
		return "decode"
	default:
		return "http"
	}
}

// breakerResult maps an Execute error to the breaker request outcome label.
func breakerResult(err error) string {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "rejected"
	}
	return "failure"
}

// breakerStateValue converts circuit breaker state to a gauge value.
func breakerStateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// breakerStateString converts circuit breaker state to a label value.
func breakerStateString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
