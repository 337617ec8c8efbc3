// Audiotheca - Family Media Catalog and Tag-Based Selection Service
// Copyright 2026 J. Moreau (jmoreau78)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jmoreau78/audiotheca

package websocket

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/jmoreau78/audiotheca/internal/events"
)

// stubBus implements Subscriber for testing. Channels close when the
// subscription context is canceled, mirroring the GoChannel pubsub.
type stubBus struct {
	mu           sync.Mutex
	chans        map[string]chan *message.Message
	subscribed   []string
	subscribeErr error
}

func newStubBus() *stubBus {
	return &stubBus{
		chans: make(map[string]chan *message.Message),
	}
}

func (s *stubBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}

	s.mu.Lock()
	ch := make(chan *message.Message, 16)
	s.chans[topic] = ch
	s.subscribed = append(s.subscribed, topic)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (s *stubBus) send(t *testing.T, topic string, msg *message.Message) {
	t.Helper()
	s.mu.Lock()
	ch, ok := s.chans[topic]
	s.mu.Unlock()
	if !ok {
		t.Fatalf("no subscription for topic %q", topic)
	}
	ch <- msg
}

func (s *stubBus) topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.subscribed))
	copy(out, s.subscribed)
	return out
}

// startBridge runs a bridge until the test ends.
func startBridge(t *testing.T, hub *Hub, bus Subscriber) *Bridge {
	t.Helper()
	bridge := NewBridge(hub, bus)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = bridge.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	return bridge
}

// eventMessage serializes an event into a bus message.
func eventMessage(t *testing.T, event *events.Event) *message.Message {
	t.Helper()
	payload, err := events.SerializeEvent(event)
	if err != nil {
		t.Fatalf("SerializeEvent() error = %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestNewBridge(t *testing.T) {
	hub := NewHub()
	bus := newStubBus()

	bridge := NewBridge(hub, bus)
	if bridge == nil {
		t.Fatal("NewBridge returned nil")
	}
	if bridge.hub != hub {
		t.Error("hub not set correctly")
	}
	if bridge.bus != Subscriber(bus) {
		t.Error("bus not set correctly")
	}
}

func TestBridge_SubscribesAllTopics(t *testing.T) {
	bus := newStubBus()
	startBridge(t, NewHub(), bus)

	var got []string
	for i := 0; i < 10; i++ {
		got = bus.topics()
		if len(got) == len(events.Topics()) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	want := events.Topics()
	sort.Strings(got)
	sort.Strings(want)

	if len(got) != len(want) {
		t.Fatalf("subscribed to %d topics, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("topic[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBridge_ForwardsEvents(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	bus := newStubBus()
	startBridge(t, hub, bus)

	event := sampleEvent()
	msg := eventMessage(t, event)
	bus.send(t, events.TopicMediaCreated, msg)

	select {
	case got := <-client.send:
		if got.Type != events.TopicMediaCreated {
			t.Errorf("Type = %q, want %q", got.Type, events.TopicMediaCreated)
		}
		data, ok := got.Data.(*events.Event)
		if !ok {
			t.Fatalf("Expected *events.Event data, got %T", got.Data)
		}
		if data.EventID != event.EventID {
			t.Errorf("EventID = %q, want %q", data.EventID, event.EventID)
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive forwarded event")
	}

	select {
	case <-msg.Acked():
	case <-time.After(time.Second):
		t.Error("message was not acked")
	}
}

func TestBridge_ForwardsSelectionEvents(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	bus := newStubBus()
	startBridge(t, hub, bus)

	event := events.New(events.TopicMediaSelected, events.SourceAPI)
	event.SelectionID = watermill.NewUUID()
	event.FallbackMode = "aggressive"
	event.FallbackUsed = true
	bus.send(t, events.TopicMediaSelected, eventMessage(t, event))

	select {
	case got := <-client.send:
		if got.Type != events.TopicMediaSelected {
			t.Errorf("Type = %q, want %q", got.Type, events.TopicMediaSelected)
		}
		data, ok := got.Data.(*events.Event)
		if !ok {
			t.Fatalf("Expected *events.Event data, got %T", got.Data)
		}
		if data.SelectionID != event.SelectionID {
			t.Errorf("SelectionID = %q, want %q", data.SelectionID, event.SelectionID)
		}
		if !data.FallbackUsed {
			t.Error("FallbackUsed should survive the round trip")
		}
	case <-time.After(time.Second):
		t.Fatal("client did not receive forwarded event")
	}
}

func TestBridge_AcksUndecodablePayload(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	bus := newStubBus()
	startBridge(t, hub, bus)

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	bus.send(t, events.TopicMediaUpdated, msg)

	// Undecodable payloads must be acked, not redelivered forever.
	select {
	case <-msg.Acked():
	case <-time.After(time.Second):
		t.Error("undecodable message was not acked")
	}

	// And nothing should reach the client.
	select {
	case got := <-client.send:
		t.Errorf("unexpected message broadcast: %+v", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBridge_SubscribeError(t *testing.T) {
	bus := newStubBus()
	bus.subscribeErr = errors.New("bus unavailable")

	bridge := NewBridge(NewHub(), bus)
	err := bridge.Run(context.Background())
	if err == nil {
		t.Fatal("Run() should fail when subscribe fails")
	}
	if !strings.Contains(err.Error(), "subscribe") {
		t.Errorf("error = %q, want subscribe failure", err)
	}
	if !strings.Contains(err.Error(), "bus unavailable") {
		t.Errorf("error = %q, should wrap the cause", err)
	}
}

func TestBridge_StopsOnContextCancel(t *testing.T) {
	bus := newStubBus()
	bridge := NewBridge(NewHub(), bus)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		errCh <- bridge.Run(ctx)
	}()

	// Let subscriptions come up
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Error("Run did not return after context cancellation")
	}
}
