// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/jmoreau78/audiotheca/internal/config"
	"github.com/jmoreau78/audiotheca/internal/metrics"
)

// Bus is the in-process pub/sub channel for catalog and selection events.
// It wraps a Watermill GoChannel so subscribers (websocket bridge, tests)
// use the standard message.Subscriber interface and a broker could be
// swapped in later without touching callers.
type Bus struct {
	pubsub       *gochannel.GoChannel
	logger       watermill.LoggerAdapter
	closeTimeout time.Duration
	mu           sync.RWMutex
	closed       bool
}

// NewBus creates an in-process event bus. BufferSize decides how many
// messages each subscriber's channel holds before publishers block.
func NewBus(cfg config.EventsConfig, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(cfg.BufferSize),
	}, logger)

	return &Bus{
		pubsub:       pubsub,
		logger:       logger,
		closeTimeout: cfg.CloseTimeout,
	}
}

// Publish sends a message to the specified topic.
func (b *Bus) Publish(ctx context.Context, topic string, msg *message.Message) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	err := b.pubsub.Publish(topic, msg)
	metrics.RecordEventPublished(topic, err)

	return err
}

// PublishEvent serializes and publishes an event on its own topic.
// This is a convenience method that handles serialization.
func (b *Bus) PublishEvent(ctx context.Context, event *Event) error {
	data, err := SerializeEvent(event)
	if err != nil {
		return fmt.Errorf("serialize event: %w", err)
	}

	msg := message.NewMessage(event.EventID, data)
	msg.Metadata.Set("type", event.Type)
	msg.Metadata.Set("source", event.Source)

	return b.Publish(ctx, event.Topic(), msg)
}

// Subscribe returns a channel of messages for the topic. Messages must be
// Acked or Nacked by the consumer. The channel closes when ctx is done or
// the bus closes.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, fmt.Errorf("event bus is closed")
	}
	b.mu.RUnlock()

	return b.pubsub.Subscribe(ctx, topic)
}

// Subscriber exposes the native Watermill subscriber for components that
// take the message.Subscriber interface.
func (b *Bus) Subscriber() message.Subscriber {
	return b.pubsub
}

// Close gracefully shuts down the bus. GoChannel waits for in-flight
// messages, so the wait is bounded by the configured close timeout.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	done := make(chan error, 1)
	go func() {
		done <- b.pubsub.Close()
	}()

	timeout := b.closeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("event bus close timed out after %s", timeout)
	}
}
