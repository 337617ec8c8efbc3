// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package history

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// selectionKeyPrefix namespaces selection records in BadgerDB.
const selectionKeyPrefix = "sel:"

// gcDiscardRatio is the value-log rewrite threshold for RunGC.
const gcDiscardRatio = 0.5

// Errors returned by the store.
var (
	// ErrStoreClosed is returned when operating on a closed store.
	ErrStoreClosed = errors.New("history store is closed")
	// ErrNilRecord is returned when a nil record is passed to Append.
	ErrNilRecord = errors.New("selection record cannot be nil")
)

// Store persists selection history in BadgerDB. Keys embed an inverted
// timestamp so a forward prefix scan yields newest-first order without
// reverse iteration. Entries carry a TTL when retention is configured,
// so expiry needs no sweeper of its own; RunGC only reclaims value-log
// space from expired entries.
type Store struct {
	db        *badger.DB
	retention time.Duration
	mu        sync.RWMutex
	closed    bool
}

// Open creates or opens the history database at the configured path.
func Open(cfg config.HistoryConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	logging.Info().
		Str("path", cfg.Path).
		Dur("retention", cfg.Retention).
		Msg("Selection history opened")

	return &Store{
		db:        db,
		retention: cfg.Retention,
	}, nil
}

// selectionKey builds "sel:<inverted-nanos>:<uuid>". Inverting the
// timestamp makes lexicographic ascending order equal newest-first.
func selectionKey(at time.Time, id uuid.UUID) []byte {
	inverted := uint64(math.MaxInt64 - at.UnixNano()) //nolint:gosec // UnixNano fits int64 until 2262
	return fmt.Appendf(nil, "%s%020d:%s", selectionKeyPrefix, inverted, id)
}

// Append stores a selection record. Records expire after the configured
// retention; a zero retention keeps them forever.
func (s *Store) Append(ctx context.Context, rec *models.SelectionRecord) error {
	if rec == nil {
		return ErrNilRecord
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	if rec.At.IsZero() {
		rec.At = time.Now().UTC()
	}

	data, err := json.Marshal(rec)
	if err != nil {
		metrics.RecordHistoryAppend(err)
		return fmt.Errorf("marshal selection record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(selectionKey(rec.At, rec.ID), data)
		if s.retention > 0 {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})
	metrics.RecordHistoryAppend(err)
	if err != nil {
		return fmt.Errorf("append selection record: %w", err)
	}

	return nil
}

// Recent returns up to n selection records, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]models.SelectionRecord, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	s.mu.RUnlock()

	if n <= 0 {
		return []models.SelectionRecord{}, nil
	}

	records := make([]models.SelectionRecord, 0, n)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(selectionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix) && len(records) < n; it.Next() {
			var rec models.SelectionRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("unmarshal selection record: %w", err)
			}
			records = append(records, rec)
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("list selection records: %w", err)
	}

	return records, nil
}

// RecentMediaIDs returns the distinct media IDs selected within the window,
// most recent first. The scan stops at the first record older than the
// window since keys are ordered newest-first.
func (s *Store) RecentMediaIDs(ctx context.Context, window time.Duration) ([]uuid.UUID, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, ErrStoreClosed
	}
	s.mu.RUnlock()

	if window <= 0 {
		return []uuid.UUID{}, nil
	}

	cutoff := time.Now().UTC().Add(-window)
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0, 16)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(selectionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec models.SelectionRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("unmarshal selection record: %w", err)
			}

			if rec.At.Before(cutoff) {
				return nil
			}

			for _, id := range rec.MediaIDs {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				ids = append(ids, id)
			}
		}
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("scan selection records: %w", err)
	}

	return ids, nil
}

// Count returns the total number of stored selection records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, ErrStoreClosed
	}
	s.mu.RUnlock()

	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(selectionKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})

	return count, err
}

// RunGC reclaims value-log space from expired and deleted entries.
// Badger rewrites at most one log file per call, so this loops until
// no rewrite happens.
func (s *Store) RunGC() error {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrStoreClosed
	}
	s.mu.RUnlock()

	rewrites := 0
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			break
		}
		if err != nil {
			metrics.RecordHistoryGC("error")
			return fmt.Errorf("run history GC: %w", err)
		}
		rewrites++
	}

	if rewrites > 0 {
		metrics.RecordHistoryGC("reclaimed")
	} else {
		metrics.RecordHistoryGC("noop")
	}

	return nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}
