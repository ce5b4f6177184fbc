// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

//go:build nats

package natsbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	goccyjson "github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/tvprogram/internal/job"
	"github.com/tomtom215/tvprogram/internal/logging"
)

// originHeader carries the publishing Bridge's instance ID so a Bridge
// never re-ingests the events it just published itself.
const originHeader = "tvprogram-origin-instance"

// Bridge relays job.Events between a process-local job.EventBus and a
// shared NATS subject, giving every tvprogram process in a deployment
// the same live view of job state that a single process's in-memory
// bus provides on its own.
type Bridge struct {
	cfg        Config
	instanceID string
	local      *job.EventBus
	pub        message.Publisher
	sub        message.Subscriber
	embedded   *EmbeddedServer
}

// NewBridge builds the underlying Watermill/NATS JetStream publisher
// and subscriber. With cfg.Embedded set it first starts an in-process
// NATS server and dials that instead of cfg.URL.
func NewBridge(cfg Config, local *job.EventBus) (*Bridge, error) {
	logger := watermill.NewStdLogger(false, false)

	var embedded *EmbeddedServer
	if cfg.Embedded {
		srv, err := NewEmbeddedServer(cfg.EmbeddedHost, cfg.EmbeddedPort, cfg.EmbeddedStoreDir)
		if err != nil {
			return nil, err
		}
		embedded = srv
		cfg.URL = srv.ClientURL()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
	}

	pubConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: cfg.StreamName == "",
			TrackMsgId:    true,
		},
	}
	pub, err := wmNats.NewPublisher(pubConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("natsbus: create publisher: %w", err)
	}

	subOpts := []natsgo.SubOpt{natsgo.AckWait(cfg.AckWaitTimeout), natsgo.DeliverNew()}
	autoProvision := true
	if cfg.StreamName != "" {
		subOpts = append(subOpts, natsgo.BindStream(cfg.StreamName))
		autoProvision = false
	}

	subConfig := wmNats.SubscriberConfig{
		URL:              cfg.URL,
		QueueGroupPrefix: cfg.QueueGroup,
		SubscribersCount: 1,
		AckWaitTimeout:   cfg.AckWaitTimeout,
		CloseTimeout:     cfg.CloseTimeout,
		NatsOptions:      natsOpts,
		Unmarshaler:      &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:         false,
			AutoProvision:    autoProvision,
			AckAsync:         false,
			SubscribeOptions: subOpts,
		},
	}
	sub, err := wmNats.NewSubscriber(subConfig, logger)
	if err != nil {
		_ = pub.Close()
		return nil, fmt.Errorf("natsbus: create subscriber: %w", err)
	}

	return &Bridge{cfg: cfg, instanceID: uuid.NewString(), local: local, pub: pub, sub: sub, embedded: embedded}, nil
}

// String names this service for supervisor-tree logging.
func (b *Bridge) String() string { return "job-nats-bridge" }

// Serve implements suture.Service: it relays every locally-published
// job.Event onto the shared NATS subject and every remotely-published
// event (from another process) back into the local bus, until ctx is
// cancelled.
func (b *Bridge) Serve(ctx context.Context) error {
	localEvents, unsubscribe := b.local.Subscribe()
	defer unsubscribe()

	remoteMsgs, err := b.sub.Subscribe(ctx, b.cfg.Subject)
	if err != nil {
		return fmt.Errorf("natsbus: subscribe to %s: %w", b.cfg.Subject, err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = b.pub.Close()
			err := b.sub.Close()
			if b.embedded != nil {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), b.cfg.CloseTimeout)
				defer cancel()
				if serr := b.embedded.Shutdown(shutdownCtx); serr != nil {
					logging.Warn().Err(serr).Msg("natsbus: embedded server shutdown timed out")
				}
			}
			return err

		case ev, ok := <-localEvents:
			if !ok {
				continue
			}
			// jobs_state is a per-subscriber snapshot computed fresh by
			// the supervisor on each Subscribe call; replicating it
			// would just echo stale state into every other process.
			// Relayed events already crossed the wire once and must not
			// bounce back out.
			if ev.Type == job.EventJobsState || ev.Relayed {
				continue
			}
			if err := b.publishRemote(ev); err != nil {
				logging.Warn().Err(err).Msg("natsbus: failed to publish job event to NATS")
			}

		case msg, ok := <-remoteMsgs:
			if !ok {
				return nil
			}
			if msg.Metadata.Get(originHeader) == b.instanceID {
				msg.Ack()
				continue
			}
			var ev job.Event
			if err := goccyjson.Unmarshal(msg.Payload, &ev); err != nil {
				logging.Warn().Err(err).Msg("natsbus: dropping malformed remote job event")
				msg.Ack()
				continue
			}
			ev.Relayed = true
			b.local.Publish(ev)
			msg.Ack()
		}
	}
}

func (b *Bridge) publishRemote(ev job.Event) error {
	payload, err := goccyjson.Marshal(ev)
	if err != nil {
		return fmt.Errorf("natsbus: encode job event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set(originHeader, b.instanceID)
	return b.pub.Publish(b.cfg.Subject, msg)
}
