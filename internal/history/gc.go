// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package history

import (
	"context"
	"sync"
	"time"

	"github.com/jmoreau78/audiotheca/internal/logging"
)

// GCRunner triggers periodic value-log garbage collection. TTL expiry
// removes keys on its own; without GC the value log still grows, so the
// runner reclaims that space on a fixed cadence.
type GCRunner struct {
	store    *Store
	interval time.Duration

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// State
	mu      sync.Mutex
	running bool
}

// NewGCRunner creates a garbage collection runner for the store.
func NewGCRunner(store *Store, interval time.Duration) *GCRunner {
	return &GCRunner{
		store:    store,
		interval: interval,
	}
}

// Start begins the background GC loop.
func (g *GCRunner) Start(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return nil
	}

	g.ctx, g.cancel = context.WithCancel(ctx)
	g.running = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run()

	logging.Info().Dur("interval", g.interval).Msg("History GC runner started")
	return nil
}

// Stop gracefully stops the GC loop.
func (g *GCRunner) Stop() {
	g.mu.Lock()
	if !g.running {
		g.mu.Unlock()
		return
	}
	g.cancel()
	g.running = false
	g.mu.Unlock()

	g.wg.Wait()
	logging.Info().Msg("History GC runner stopped")
}

// IsRunning returns whether the runner is active.
func (g *GCRunner) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}

// run is the main GC loop goroutine.
func (g *GCRunner) run() {
	defer g.wg.Done()

	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			if err := g.store.RunGC(); err != nil {
				logging.Warn().Err(err).Msg("History GC failed")
			}
		}
	}
}
