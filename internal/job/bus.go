// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	goccyjson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/tvprogram/internal/logging"
	"github.com/tomtom215/tvprogram/internal/metrics"
)

// busTopic is the single Watermill topic every JobEvent is published
// on; subscribers distinguish jobs by Event.JobID, not by topic.
const busTopic = "job-events"

// subscriberBuffer bounds each subscriber's own delivery queue: a slow
// subscriber's queue fills and new events are dropped for it rather
// than blocking the publisher.
const subscriberBuffer = 256

// EventBus fans JobEvents out to any number of subscribers over an
// in-process Watermill GoChannel, with per-subscriber bounded output
// queues layered on top so a stalled subscriber cannot back-pressure
// the supervisor's own event emission.
type EventBus struct {
	pubsub *gochannel.GoChannel

	mu          sync.Mutex
	subscribers map[string]chan Event
}

// NewEventBus constructs the bus. It is itself a suture.Service: Serve
// blocks until ctx is cancelled, then closes the underlying pubsub.
func NewEventBus() *EventBus {
	return &EventBus{
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer: subscriberBuffer,
		}, watermill.NewStdLogger(false, false)),
		subscribers: make(map[string]chan Event),
	}
}

// Serve implements suture.Service: it owns the background pump that
// reads raw Watermill messages and fans them out to subscriber queues,
// and it runs until ctx is cancelled.
func (b *EventBus) Serve(ctx context.Context) error {
	msgs, err := b.pubsub.Subscribe(ctx, busTopic)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return b.pubsub.Close()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			var ev Event
			if err := goccyjson.Unmarshal(msg.Payload, &ev); err != nil {
				logging.Warn().Err(err).Msg("job event bus: dropping malformed message")
				msg.Ack()
				continue
			}
			b.fanOut(ev)
			msg.Ack()
		}
	}
}

// String names this service for the supervisor tree's logging.
func (b *EventBus) String() string { return "job-event-bus" }

// Publish encodes and pushes one event onto the bus. Fire-and-forget:
// publish failures are logged, never returned to the job's caller.
func (b *EventBus) Publish(ev Event) {
	payload, err := goccyjson.Marshal(ev)
	if err != nil {
		logging.Error().Err(err).Msg("job event bus: failed to encode event")
		return
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	if err := b.pubsub.Publish(busTopic, msg); err != nil {
		logging.Error().Err(err).Msg("job event bus: failed to publish event")
	}
}

// Subscribe registers a new bounded output channel and returns it along
// with an unsubscribe function.
func (b *EventBus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	return ch, b.Register(ch)
}

// Register attaches a caller-created channel as a subscriber and
// returns its unsubscribe function. The caller may prime the channel
// before registering it (the supervisor queues the jobs_state snapshot
// this way, so a new subscriber's first delivery is the snapshot).
func (b *EventBus) Register(ch chan Event) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.NewString()
	b.subscribers[id] = ch

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(existing)
		}
	}
}

func (b *EventBus) fanOut(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop this event rather than block the
			// producer. Persistent stalls are the caller's problem to
			// detect (e.g. via a heartbeat event), not this bus's.
			metrics.EventBusDropped.Inc()
		}
	}
}
