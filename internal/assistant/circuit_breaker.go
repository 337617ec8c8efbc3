// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
)

// Operation labels for assistant request metrics.
const (
	opPing    = "ping"
	opSearch  = "search"
	opGetItem = "get_item"
	opLibrary = "library"
)

// Ensure BreakerClient implements Interface
var _ Interface = (*BreakerClient)(nil)

// BreakerClient wraps Client with circuit breaker pattern.
// Prevents repeated timeouts against an unreachable provider box from
// stalling catalog requests.
//
// DETERMINISM NOTE: The circuit breaker uses real time (via sony/gobreaker)
// for its interval and timeout calculations. This is intentional for
// production resilience.
type BreakerClient struct {
	client *Client
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewBreakerClient creates a provider client with circuit breaker.
// The breaker opens after cfg.BreakerThreshold consecutive failures and
// probes again after cfg.BreakerCooldown in the open state.
func NewBreakerClient(cfg config.AssistantConfig) *BreakerClient {
	client := NewClient(cfg)
	cbName := "assistant-api"

	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 5
	}
	cooldown := cfg.BreakerCooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}

	// Initialize circuit breaker state metrics
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,           // Allow 3 concurrent requests in half-open state
		Interval:    time.Minute, // Reset counts after 1 minute in closed state
		Timeout:     cooldown,

		// ReadyToTrip determines when to open the circuit
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold

			if shouldTrip {
				logging.Warn().Uint32("consecutive_failures", counts.ConsecutiveFailures).Msg("[CIRCUIT BREAKER] Opening assistant circuit")
			}

			return shouldTrip
		},

		// OnStateChange is called whenever the circuit breaker changes state
		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] Assistant state transition")

			// Update metrics
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			// Reset consecutive failures when transitioning to closed
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// execute wraps a provider API call with circuit breaker protection and
// records the request duration under the given operation label.
func (bc *BreakerClient) execute(op string, fn func() (interface{}, error)) (interface{}, error) {
	start := time.Now()
	result, err := bc.cb.Execute(fn)
	metrics.RecordAssistantRequest(op, time.Since(start), err)

	// Update metrics based on result
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "rejected").Inc()
			logging.Warn().Err(err).Str("operation", op).Msg("[CIRCUIT BREAKER] Assistant request rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "failure").Inc()
			counts := bc.cb.Counts()
			metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(bc.name).Set(float64(counts.ConsecutiveFailures))
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(bc.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(bc.name).Set(0)

	return result, nil
}

// Ping tests connectivity to the provider with circuit breaker protection.
func (bc *BreakerClient) Ping(ctx context.Context) error {
	_, err := bc.execute(opPing, func() (interface{}, error) {
		return nil, bc.client.Ping(ctx)
	})
	return err
}

// Search queries the provider with circuit breaker protection.
func (bc *BreakerClient) Search(ctx context.Context, query string, kinds []string, limit int) (*SearchResults, error) {
	return castResult[SearchResults](bc.execute(opSearch, func() (interface{}, error) {
		return bc.client.Search(ctx, query, kinds, limit)
	}))
}

// GetItem resolves a provider item with circuit breaker protection.
func (bc *BreakerClient) GetItem(ctx context.Context, uri string) (*Item, error) {
	return castResult[Item](bc.execute(opGetItem, func() (interface{}, error) {
		return bc.client.GetItem(ctx, uri)
	}))
}

// Library lists provider library items with circuit breaker protection.
func (bc *BreakerClient) Library(ctx context.Context, kind string, limit int) ([]Item, error) {
	result, err := bc.execute(opLibrary, func() (interface{}, error) {
		return bc.client.Library(ctx, kind, limit)
	})
	if err != nil {
		return nil, err
	}
	items, ok := result.([]Item)
	if !ok {
		return nil, errors.New("circuit breaker: unexpected result type for Library")
	}
	return items, nil
}

// CoverURL builds an artwork URL for an item's thumbnail.
// This is a passthrough method as it doesn't make network calls.
func (bc *BreakerClient) CoverURL(item *Item, size int) string {
	return bc.client.CoverURL(item, size)
}

// State returns the current circuit breaker state.
func (bc *BreakerClient) State() gobreaker.State {
	return bc.cb.State()
}

// Counts returns the current circuit breaker counts.
func (bc *BreakerClient) Counts() gobreaker.Counts {
	return bc.cb.Counts()
}

// Name returns the circuit breaker name.
func (bc *BreakerClient) Name() string {
	return bc.name
}

// castResult safely type-casts the circuit breaker result with error checking.
// Returns typed result or error if type assertion fails.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// stateToFloat converts circuit breaker state to numeric value for metrics.
func stateToFloat(state gobreaker.State) float64 {
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

// stateToString converts circuit breaker state to string for logging.
func stateToString(state gobreaker.State) string {
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
