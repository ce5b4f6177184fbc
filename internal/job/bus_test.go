// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import (
	"context"
	"testing"
	"time"
)

func TestEventBusDeliversToEachSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewEventBus()
	go func() { _ = bus.Serve(ctx) }()

	ch1, unsub1 := bus.Subscribe()
	defer unsub1()
	ch2, unsub2 := bus.Subscribe()
	defer unsub2()

	bus.Publish(Event{Type: EventJobCreated, JobID: "j1", Timestamp: time.Now()})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case ev := <-ch:
			if ev.JobID != "j1" {
				t.Fatalf("subscriber %d: expected job id j1, got %s", i, ev.JobID)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d: timed out waiting for event", i)
		}
	}
}

func TestEventBusDropsEventsForSlowSubscriberInsteadOfBlocking(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewEventBus()
	go func() { _ = bus.Serve(ctx) }()

	slow, unsub := bus.Subscribe()
	defer unsub()

	// Serve subscribes to the GoChannel asynchronously, and messages
	// published before that are lost: publish until one arrives, then
	// drain it so the flood below starts from an empty queue.
	warmup := time.Now().Add(2 * time.Second)
	for len(slow) == 0 {
		if time.Now().After(warmup) {
			t.Fatal("event bus pump never started delivering")
		}
		bus.Publish(Event{Type: EventJobProgress, JobID: "warmup", Timestamp: time.Now()})
		time.Sleep(5 * time.Millisecond)
	}
	for len(slow) > 0 {
		<-slow
	}

	// Flood well past the per-subscriber buffer without ever draining it.
	for i := 0; i < subscriberBuffer*3; i++ {
		bus.Publish(Event{Type: EventJobProgress, JobID: "j1", Timestamp: time.Now()})
	}

	// Publish must not have blocked (we got here). Fan-out runs on the
	// pump goroutine, so give it time to reach the subscriber's queue,
	// which should end up full but bounded, not unbounded.
	deadline := time.Now().Add(2 * time.Second)
	for len(slow) < cap(slow) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if len(slow) != cap(slow) {
		t.Fatalf("expected the stalled subscriber's queue to be saturated at capacity %d, got length %d", cap(slow), len(slow))
	}
}

func TestEventBusUnsubscribeClosesChannel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewEventBus()
	go func() { _ = bus.Serve(ctx) }()

	ch, unsubscribe := bus.Subscribe()
	unsubscribe()

	_, open := <-ch
	if open {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}
