// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

// service.go - RFID Token Binding Service
//
// The binding rules themselves are enforced transactionally by the store;
// this layer adds the resolve semantics the playback box depends on: a
// scan succeeds only when the token is bound to an active media item.

package rfid

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jmoreau78/audiotheca/internal/database"
	"github.com/jmoreau78/audiotheca/internal/events"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
	"github.com/jmoreau78/audiotheca/internal/models"
)

// Resolution failures surfaced to API handlers.
var (
	// ErrTokenUnbound reports a registered token with no media binding.
	ErrTokenUnbound = errors.New("rfid: token not bound to media")

	// ErrMediaInactive reports a binding that points at a deactivated item.
	ErrMediaInactive = errors.New("rfid: bound media is inactive")
)

// Store is the token persistence surface the service needs.
type Store interface {
	ListTokens(ctx context.Context, assigned *bool) ([]models.TokenBinding, error)
	GetToken(ctx context.Context, uid string) (*models.TokenBinding, error)
	UpsertToken(ctx context.Context, uid, label string) (*models.TokenBinding, error)
	BindToken(ctx context.Context, uid string, mediaID uuid.UUID) (*models.TokenBinding, error)
	UnbindToken(ctx context.Context, uid string) error
	DeleteToken(ctx context.Context, uid string) error
	ResolveToken(ctx context.Context, uid string) (*models.TokenBinding, *models.Media, error)
}

// Publisher is the slice of the event bus the service publishes on.
type Publisher interface {
	PublishEvent(ctx context.Context, event *events.Event) error
}

// Service wires token storage to resolution events and metrics.
type Service struct {
	store Store
	bus   Publisher
}

// NewService creates the token service. bus may be nil, in which case
// resolutions are not announced.
func NewService(store Store, bus Publisher) *Service {
	return &Service{store: store, bus: bus}
}

// List returns tokens ordered by UID, optionally filtered by binding state.
func (s *Service) List(ctx context.Context, assigned *bool) ([]models.TokenBinding, error) {
	return s.store.ListTokens(ctx, assigned)
}

// Get returns one token by UID.
func (s *Service) Get(ctx context.Context, uid string) (*models.TokenBinding, error) {
	return s.store.GetToken(ctx, uid)
}

// Upsert registers a token or renames an existing one. An existing media
// binding is never changed here.
func (s *Service) Upsert(ctx context.Context, uid, label string) (*models.TokenBinding, error) {
	token, err := s.store.UpsertToken(ctx, uid, label)
	if err != nil {
		return nil, err
	}

	logging.Debug().Str("uid", uid).Str("label", label).Msg("Token upserted")
	return token, nil
}

// Bind points a token at a media item. Binding a token already bound to a
// different item fails with the store's ErrTokenAssigned; rebinding to the
// same item is idempotent.
func (s *Service) Bind(ctx context.Context, uid string, mediaID uuid.UUID) (*models.TokenBinding, error) {
	token, err := s.store.BindToken(ctx, uid, mediaID)
	if err != nil {
		return nil, err
	}

	logging.Info().Str("uid", uid).Str("media_id", mediaID.String()).Msg("Token bound")
	return token, nil
}

// Unbind clears a token's media binding.
func (s *Service) Unbind(ctx context.Context, uid string) error {
	if err := s.store.UnbindToken(ctx, uid); err != nil {
		return err
	}

	logging.Info().Str("uid", uid).Msg("Token unbound")
	return nil
}

// Delete removes a token row entirely.
func (s *Service) Delete(ctx context.Context, uid string) error {
	return s.store.DeleteToken(ctx, uid)
}

// Resolve looks up the media a scanned token points at. It fails with
// ErrTokenUnbound for registered-but-unbound tokens and with
// ErrMediaInactive when the binding points at a deactivated item.
// Successful resolutions are published on the event bus.
func (s *Service) Resolve(ctx context.Context, uid string) (*models.TokenResolveResponse, error) {
	token, media, err := s.store.ResolveToken(ctx, uid)
	if err != nil {
		if errors.Is(err, database.ErrTokenNotFound) {
			metrics.RecordTokenResolution("unknown")
		}
		return nil, err
	}

	if media == nil {
		metrics.RecordTokenResolution("unbound")
		return nil, fmt.Errorf("%w: %s", ErrTokenUnbound, uid)
	}
	if !media.IsActive {
		metrics.RecordTokenResolution("inactive")
		return nil, fmt.Errorf("%w: %s", ErrMediaInactive, media.ID)
	}

	metrics.RecordTokenResolution("resolved")

	if s.bus != nil {
		if err := s.bus.PublishEvent(ctx, events.NewTokenResolved(uid, token.Label, media)); err != nil {
			logging.Warn().Err(err).Str("uid", uid).Msg("Failed to publish token resolution")
		}
	}

	logging.Debug().Str("uid", uid).Str("media_id", media.ID.String()).Str("title", media.Title).Msg("Token resolved")

	return &models.TokenResolveResponse{
		UID:   token.UID,
		Label: token.Label,
		Media: media,
	}, nil
}
