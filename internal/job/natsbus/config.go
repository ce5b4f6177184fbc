// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package natsbus is an optional, build-tag-gated bridge that mirrors a
// process-local job.EventBus onto NATS JetStream so job progress is
// observable across multiple tvprogram processes. Build with
// `-tags=nats` to link the real Watermill/NATS implementation; without
// the tag, NewBridge returns an error and Serve is a no-op.
package natsbus

import "time"

// Config configures the NATS bridge.
type Config struct {
	URL            string        `koanf:"url"`
	Subject        string        `koanf:"subject"`
	StreamName     string        `koanf:"stream_name"`
	QueueGroup     string        `koanf:"queue_group"`
	MaxReconnects  int           `koanf:"max_reconnects"`
	ReconnectWait  time.Duration `koanf:"reconnect_wait"`
	AckWaitTimeout time.Duration `koanf:"ack_wait_timeout"`
	CloseTimeout   time.Duration `koanf:"close_timeout"`

	// Embedded starts an in-process NATS JetStream server on
	// EmbeddedHost:EmbeddedPort (stream data under EmbeddedStoreDir)
	// and dials it instead of URL. For single-instance deployments
	// that want durable job-event delivery without an external NATS.
	Embedded         bool   `koanf:"embedded"`
	EmbeddedHost     string `koanf:"embedded_host"`
	EmbeddedPort     int    `koanf:"embedded_port"`
	EmbeddedStoreDir string `koanf:"embedded_store_dir"`
}

// DefaultConfig returns production-ready defaults for the bridge.
func DefaultConfig() Config {
	return Config{
		URL:            "nats://127.0.0.1:4222",
		Subject:        "tvprogram.job-events",
		QueueGroup:     "tvprogram-job-supervisors",
		MaxReconnects:  -1,
		ReconnectWait:  2 * time.Second,
		AckWaitTimeout: 30 * time.Second,
		CloseTimeout:   5 * time.Second,

		EmbeddedHost:     "127.0.0.1",
		EmbeddedPort:     4222,
		EmbeddedStoreDir: "/data/tvprogram/nats",
	}
}
