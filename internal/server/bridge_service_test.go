// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package server

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

// mockBridge is a test double for the ContextRunner interface.
type mockBridge struct {
	runErr   error
	runCount atomic.Int32
}

func (m *mockBridge) Run(ctx context.Context) error {
	m.runCount.Add(1)
	if m.runErr != nil {
		return m.runErr
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestEventBridgeService_Interface(t *testing.T) {
	var _ suture.Service = (*EventBridgeService)(nil)
}

func TestNewEventBridgeService(t *testing.T) {
	bridge := &mockBridge{}
	svc := NewEventBridgeService(bridge)

	if svc == nil {
		t.Fatal("NewEventBridgeService returned nil")
	}
	if svc.bridge != bridge {
		t.Error("bridge not assigned correctly")
	}
	if svc.name != "event-bridge" {
		t.Errorf("expected name 'event-bridge', got %q", svc.name)
	}
}

func TestEventBridgeService_Serve(t *testing.T) {
	t.Run("returns context error on cancellation", func(t *testing.T) {
		bridge := &mockBridge{}
		svc := NewEventBridgeService(bridge)

		ctx, cancel := context.WithCancel(context.Background())

		errCh := make(chan error, 1)
		go func() {
			errCh <- svc.Serve(ctx)
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-errCh:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}
		case <-time.After(time.Second):
			t.Error("Serve did not return after context cancellation")
		}

		if bridge.runCount.Load() != 1 {
			t.Errorf("expected 1 run, got %d", bridge.runCount.Load())
		}
	})

	t.Run("propagates bridge errors", func(t *testing.T) {
		expectedErr := errors.New("subscription failed")
		bridge := &mockBridge{runErr: expectedErr}
		svc := NewEventBridgeService(bridge)

		err := svc.Serve(context.Background())

		if !errors.Is(err, expectedErr) {
			t.Errorf("expected %v, got %v", expectedErr, err)
		}
	})
}

func TestEventBridgeService_String(t *testing.T) {
	svc := NewEventBridgeService(&mockBridge{})

	if svc.String() != "event-bridge" {
		t.Errorf("expected 'event-bridge', got %q", svc.String())
	}
}
