// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

// Package events provides the fire-and-forget notification channel used to
// tell external listeners about logins, user provisioning, and webhooks.
//
// Delivery is at-most-once per event. Ordering is preserved per subscriber
// for events of the same name but not across distinct event names.
package events

import (
	"sync"
	"time"

	"github.com/albrightlabs/auth0bridge/pkg/logger"
)

// Event names published by the login bridge.
const (
	// UserCreated fires after a new local user is provisioned from claims.
	UserCreated = "userCreated"
	// UserUpdated fires after an existing local user is refreshed from claims.
	UserUpdated = "userUpdated"
	// UserAuthenticated fires after a callback resolves to a local user,
	// before the session is established.
	UserAuthenticated = "userAuthenticated"
	// Login fires after the local session is established.
	Login = "login"
	// WebhookReceived fires when the webhook endpoint republishes a payload.
	WebhookReceived = "webhookReceived"
)

// Event is a single notification.
type Event struct {
	// Name is one of the event name constants.
	Name string

	// Payload carries event-specific data. Subscribers must not mutate it.
	Payload map[string]any

	// Time is when the event was published.
	Time time.Time
}

// Sink accepts events for delivery. Publish never blocks the caller beyond
// an enqueue; the publisher does not await subscribers.
type Sink interface {
	Publish(evt Event)
}

// Handler consumes one event.
type Handler func(evt Event)

// Bus is a Sink backed by a bounded queue and a single delivery goroutine.
// When the queue is full the event is dropped with a warning rather than
// blocking a login request.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan Event
	done     chan struct{}
	once     sync.Once
}

// NewBus creates a bus with the given queue capacity and starts delivery.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = 64
	}
	b := &Bus{
		handlers: make(map[string][]Handler),
		queue:    make(chan Event, capacity),
		done:     make(chan struct{}),
	}
	go b.deliver()
	return b
}

// Subscribe registers a handler for the given event name. Handlers are
// invoked in registration order.
func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// Publish enqueues an event for delivery. If the queue is full the event is
// dropped.
func (b *Bus) Publish(evt Event) {
	if evt.Time.IsZero() {
		evt.Time = time.Now()
	}

	select {
	case b.queue <- evt:
	default:
		logger.Warnw("event queue full, dropping event", "event", evt.Name)
	}
}

// Close stops delivery after draining events already enqueued.
func (b *Bus) Close() {
	b.once.Do(func() {
		close(b.done)
	})
}

func (b *Bus) deliver() {
	for {
		select {
		case evt := <-b.queue:
			b.dispatch(evt)
		case <-b.done:
			// Drain what is already queued, then stop.
			for {
				select {
				case evt := <-b.queue:
					b.dispatch(evt)
				default:
					return
				}
			}
		}
	}
}

func (b *Bus) dispatch(evt Event) {
	b.mu.RLock()
	handlers := b.handlers[evt.Name]
	b.mu.RUnlock()

	for _, h := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					logger.Errorw("event handler panicked", "event", evt.Name, "panic", r)
				}
			}()
			h(evt)
		}()
	}
}

// NopSink discards all events.
type NopSink struct{}

// Publish discards the event.
func (NopSink) Publish(Event) {}

// CollectorSink records events synchronously. Intended for tests.
type CollectorSink struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event.
func (s *CollectorSink) Publish(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

// Events returns a copy of the recorded events.
func (s *CollectorSink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Names returns the recorded event names in publish order.
func (s *CollectorSink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.events))
	for _, evt := range s.events {
		names = append(names, evt.Name)
	}
	return names
}
