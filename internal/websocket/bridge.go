// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package websocket

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jmoreau78/audiotheca/internal/events"
	"github.com/jmoreau78/audiotheca/internal/logging"
	"github.com/jmoreau78/audiotheca/internal/metrics"
)

// Subscriber is the slice of the event bus the bridge needs. The returned
// channel must close when ctx is canceled, which is how the bridge's
// forwarding goroutines learn to stop.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Bridge forwards catalog events from the bus to connected WebSocket
// clients. It is the only consumer that fans events out of the process;
// everything else (history, metrics) happens at publish time.
type Bridge struct {
	hub *Hub
	bus Subscriber
}

// NewBridge creates a bridge between the event bus and the hub.
func NewBridge(hub *Hub, bus Subscriber) *Bridge {
	return &Bridge{
		hub: hub,
		bus: bus,
	}
}

// Run subscribes to every event topic and forwards messages to the hub
// until ctx is canceled. Designed for suture supervision: it blocks for the
// lifetime of the service and returns ctx.Err() on shutdown.
func (b *Bridge) Run(ctx context.Context) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	topics := events.Topics()

	var wg sync.WaitGroup
	for _, topic := range topics {
		ch, err := b.bus.Subscribe(subCtx, topic)
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("subscribe %s: %w", topic, err)
		}

		wg.Add(1)
		go func(topic string, ch <-chan *message.Message) {
			defer wg.Done()
			b.forward(topic, ch)
		}(topic, ch)
	}

	logging.Info().
		Str("component", "websocket-bridge").
		Int("topics", len(topics)).
		Msg("websocket event bridge started")

	<-ctx.Done()
	cancel()
	wg.Wait()

	logging.Info().
		Str("component", "websocket-bridge").
		Str("reason", string(getShutdownReason(ctx))).
		Msg("websocket event bridge stopped")
	return ctx.Err()
}

// forward drains one topic's subscription until the bus closes it.
func (b *Bridge) forward(topic string, ch <-chan *message.Message) {
	for msg := range ch {
		b.handle(topic, msg)
	}
}

// handle decodes and broadcasts a single bus message. Every message is
// Acked, including undecodable ones: redelivery cannot fix a bad payload,
// it would only wedge the subscription.
func (b *Bridge) handle(topic string, msg *message.Message) {
	defer msg.Ack()

	event, err := events.DeserializeEvent(msg.Payload)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("topic", topic).
			Str("message_uuid", msg.UUID).
			Msg("dropping undecodable event payload")
		return
	}

	metrics.RecordEventDelivered(topic)
	b.hub.BroadcastEvent(event)
}
