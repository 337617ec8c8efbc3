// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/events"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/models"
	"github.com/jmoreau78/audiotheca/internal/selection"
)

// defaultMaxLimit caps selection limits when the configuration does not.
const defaultMaxLimit = 50

// ErrNoCoverSource is returned when a cover refresh is requested for an
// item that has no cover URL on record.
var ErrNoCoverSource = errors.New("catalog: media has no cover url")

// ErrCoversUnavailable is returned when cover operations are requested but
// no fetcher is wired in.
var ErrCoversUnavailable = errors.New("catalog: cover fetching not configured")

// MediaStore is the slice of the database layer the catalog needs for
// media rows and their tag assignments.
type MediaStore interface {
	InsertMedia(ctx context.Context, m *models.Media) error
	GetMediaByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	UpdateMedia(ctx context.Context, m *models.Media) error
	SetMediaCoverLocal(ctx context.Context, id uuid.UUID, coverLocal string) error
	DeleteMedia(ctx context.Context, id uuid.UUID, hard bool) error
	ListMedia(ctx context.Context, filter models.MediaListFilter) (*models.MediaPage, error)
	SnapshotActive(ctx context.Context) ([]models.Media, error)
	AttachMediaTag(ctx context.Context, mediaID uuid.UUID, category, value string) (*models.Tag, error)
	DetachMediaTag(ctx context.Context, mediaID, tagID uuid.UUID) error
	ReplaceMediaTags(ctx context.Context, mediaID uuid.UUID, tags []models.TagAssignment) error
}

// TagStore is the slice of the database layer the catalog needs for the
// tag vocabulary.
type TagStore interface {
	ListTagCategories(ctx context.Context) ([]models.TagCategory, error)
	CreateTagCategory(ctx context.Context, slug, label string) (*models.TagCategory, error)
	DeleteTagCategory(ctx context.Context, slug string) error
	ListTags(ctx context.Context, category string) ([]models.Tag, error)
	CreateTag(ctx context.Context, category, value string) (*models.Tag, error)
	DeleteTag(ctx context.Context, id uuid.UUID) error
	TagVocabulary(ctx context.Context) (map[string][]string, error)
}

// Publisher pushes catalog events onto the bus. Publish failures never fail
// the catalog operation that triggered them.
type Publisher interface {
	PublishEvent(ctx context.Context, event *events.Event) error
}

// History records completed selections. Appends run synchronously inside
// the selection path so recent-exclusion reads its own writes.
type History interface {
	Append(ctx context.Context, rec *models.SelectionRecord) error
}

// CoverFetcher downloads cover art into the local cover store and returns
// the stored file name.
type CoverFetcher interface {
	Fetch(ctx context.Context, id uuid.UUID, coverURL string) (string, error)
}

// CoverStore answers cover presence for selection results and removes
// cover files when their media goes away.
type CoverStore interface {
	Exists(id uuid.UUID) bool
	Delete(id uuid.UUID) error
}

// Service orchestrates the catalog: media and vocabulary writes against the
// stores, cover side effects, event publication, and the selection pipeline
// over the active-item snapshot.
type Service struct {
	media  MediaStore
	tags   TagStore
	engine *selection.Engine
	bus    Publisher
	hist   History
	fetch  CoverFetcher
	covers CoverStore

	maxLimit int

	// Cached SnapshotActive result. Writes through this service invalidate
	// it, so selections observe their own catalog mutations.
	snapMu     sync.Mutex
	snapshot   []models.Media
	snapExpiry time.Time
	snapTTL    time.Duration
}

// ServiceOption configures optional collaborators on a Service.
type ServiceOption func(*Service)

// WithPublisher wires the event bus. Without it the catalog stays silent.
func WithPublisher(bus Publisher) ServiceOption {
	return func(s *Service) { s.bus = bus }
}

// WithHistory wires the selection history store. Without it selections are
// served but not recorded.
func WithHistory(hist History) ServiceOption {
	return func(s *Service) { s.hist = hist }
}

// WithCovers wires the cover fetcher and store, enabling the cover
// download trigger on media writes and cover presence on selection
// results.
func WithCovers(fetch CoverFetcher, store CoverStore) ServiceOption {
	return func(s *Service) {
		s.fetch = fetch
		s.covers = store
	}
}

// NewService builds the catalog orchestrator over the given stores and
// selection engine.
func NewService(cfg config.SelectionConfig, media MediaStore, tags TagStore, engine *selection.Engine, opts ...ServiceOption) *Service {
	maxLimit := cfg.MaxLimit
	if maxLimit <= 0 {
		maxLimit = defaultMaxLimit
	}

	s := &Service{
		media:    media,
		tags:     tags,
		engine:   engine,
		maxLimit: maxLimit,
		snapTTL:  cfg.SnapshotTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxLimit returns the per-request cap on selection limits.
func (s *Service) MaxLimit() int {
	return s.maxLimit
}

// publish pushes an event onto the bus, logging instead of failing when
// the bus rejects it. Catalog state is already committed by the time an
// event goes out.
func (s *Service) publish(ctx context.Context, e *events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishEvent(ctx, e); err != nil {
		logging.Warn().Err(err).Str("topic", e.Type).Msg("Failed to publish catalog event")
	}
}

// invalidateSnapshot drops the cached selection snapshot after a write.
func (s *Service) invalidateSnapshot() {
	if s.snapTTL <= 0 {
		return
	}
	s.snapMu.Lock()
	s.snapshot = nil
	s.snapMu.Unlock()
}
