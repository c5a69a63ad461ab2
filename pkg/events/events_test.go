// SPDX-FileCopyrightText: Copyright 2025 Albright Labs, LLC
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)
	defer bus.Close()

	var mu sync.Mutex
	var got []Event
	done := make(chan struct{})

	bus.Subscribe(Login, func(evt Event) {
		mu.Lock()
		got = append(got, evt)
		mu.Unlock()
		close(done)
	})

	bus.Publish(Event{Name: Login, Payload: map[string]any{"user_id": int64(1)}})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, Login, got[0].Name)
	assert.False(t, got[0].Time.IsZero(), "publish stamps the event time")
}

func TestBusIgnoresUnsubscribedEvents(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)
	defer bus.Close()

	delivered := make(chan string, 8)
	bus.Subscribe(UserCreated, func(evt Event) {
		delivered <- evt.Name
	})

	bus.Publish(Event{Name: WebhookReceived})
	bus.Publish(Event{Name: UserCreated})

	select {
	case name := <-delivered:
		assert.Equal(t, UserCreated, name)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not delivered")
	}

	select {
	case name := <-delivered:
		t.Fatalf("unexpected delivery: %s", name)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestBusSurvivesPanickingHandler(t *testing.T) {
	t.Parallel()

	bus := NewBus(16)
	defer bus.Close()

	done := make(chan struct{})
	bus.Subscribe(Login, func(Event) {
		panic("handler bug")
	})
	bus.Subscribe(Login, func(Event) {
		close(done)
	})

	bus.Publish(Event{Name: Login})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panic in one handler stopped delivery to the next")
	}
}

func TestBusDropsWhenFull(t *testing.T) {
	t.Parallel()

	bus := NewBus(1)

	block := make(chan struct{})
	started := make(chan struct{})
	bus.Subscribe(Login, func(Event) {
		close(started)
		<-block
	})

	// First event occupies the delivery goroutine, second fills the queue,
	// the rest are dropped without blocking this goroutine.
	bus.Publish(Event{Name: Login})
	<-started
	for i := 0; i < 10; i++ {
		bus.Publish(Event{Name: Login})
	}

	close(block)
	bus.Close()
}

func TestCollectorSink(t *testing.T) {
	t.Parallel()

	sink := &CollectorSink{}
	sink.Publish(Event{Name: UserCreated})
	sink.Publish(Event{Name: Login})

	assert.Equal(t, []string{UserCreated, Login}, sink.Names())
	assert.Len(t, sink.Events(), 2)
}
