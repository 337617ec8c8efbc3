// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package server

import (
	"context"
	"fmt"
)

// StartStopRunner matches *history.GCRunner's lifecycle: Start spawns the
// background loop and returns, Stop blocks until it has drained.
type StartStopRunner interface {
	Start(ctx context.Context) error
	Stop()
}

// HistoryGCService wraps the selection-history garbage collector as a
// supervised service.
//
// It adapts the Start/Stop lifecycle to suture's Serve pattern:
//  1. Calls Start(ctx) to begin the GC loop
//  2. Blocks until the context is canceled
//  3. Calls Stop() and waits for the loop to finish
type HistoryGCService struct {
	runner StartStopRunner
	name   string
}

// NewHistoryGCService creates a new history GC service wrapper.
func NewHistoryGCService(runner StartStopRunner) *HistoryGCService {
	return &HistoryGCService{
		runner: runner,
		name:   "history-gc",
	}
}

// Serve implements suture.Service.
//
// If Start fails, the error is returned immediately and suture restarts the
// service according to its backoff policy.
func (s *HistoryGCService) Serve(ctx context.Context) error {
	if err := s.runner.Start(ctx); err != nil {
		return fmt.Errorf("history gc start failed: %w", err)
	}

	<-ctx.Done()

	// Stop blocks until the GC goroutine exits
	s.runner.Stop()
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *HistoryGCService) String() string {
	return s.name
}
