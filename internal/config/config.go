// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package config loads process-level configuration through a layered
// koanf pipeline: built-in defaults, an optional YAML file, then
// environment variables, in ascending priority.
package config

import (
	"time"

	"github.com/tomtom215/tvprogram/internal/validation"
)

// JobConfig bounds the job supervisor.
type JobConfig struct {
	Concurrency     int           `koanf:"concurrency" validate:"min=1,max=64"`
	Retention       int           `koanf:"retention" validate:"min=1,max=10000"`
	DeadlineGrace   time.Duration `koanf:"deadline_grace" validate:"min=0"`
	DefaultHorizon  int           `koanf:"default_horizon_days" validate:"min=1,max=30"`
	DefaultSeed     int64         `koanf:"default_seed"`
	DefaultRandom   float64       `koanf:"default_randomness" validate:"min=0,max=1"`
	DefaultMaxIters int           `koanf:"default_max_iterations" validate:"min=1,max=100000"`
	PreviewIterCap  int           `koanf:"preview_iteration_cap" validate:"min=1,max=1000"`
}

// StoreConfig points at the Badger-backed ResultStore/HistoryRecorder.
type StoreConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// PlayoutConfig configures the HTTP playout adapter and its circuit breaker.
type PlayoutConfig struct {
	Enabled             bool          `koanf:"enabled"`
	BaseURL             string        `koanf:"base_url" validate:"omitempty,url"`
	Timeout             time.Duration `koanf:"timeout" validate:"min=0"`
	BreakerMaxRequests  uint32        `koanf:"breaker_max_requests"`
	BreakerOpenInterval time.Duration `koanf:"breaker_open_interval"`
	BreakerTimeout      time.Duration `koanf:"breaker_timeout"`
}

// EventBusConfig selects and configures the job event transport.
type EventBusConfig struct {
	// Transport is "inprocess" (default) or "nats".
	Transport string `koanf:"transport" validate:"oneof=inprocess nats"`
	NATSURL   string `koanf:"nats_url" validate:"omitempty"`

	// Embedded starts an in-process NATS server instead of dialing
	// NATSURL; only meaningful with Transport "nats" in a binary built
	// with -tags=nats.
	Embedded bool `koanf:"embedded"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"addr"`
}

// Config is the root configuration tree for the tvprogram process.
type Config struct {
	Job        JobConfig      `koanf:"job"`
	Store      StoreConfig    `koanf:"store"`
	Playout    PlayoutConfig  `koanf:"playout"`
	EventBus   EventBusConfig `koanf:"event_bus"`
	Metrics    MetricsConfig  `koanf:"metrics"`
	CatalogURL string         `koanf:"catalog_url" validate:"omitempty,url"`
}

// Validate runs struct validation over the fully-assembled config.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Job: JobConfig{
			Concurrency:     2,
			Retention:       50,
			DeadlineGrace:   10 * time.Second,
			DefaultHorizon:  1,
			DefaultRandom:   0.15,
			DefaultMaxIters: 200,
			PreviewIterCap:  3,
		},
		Store: StoreConfig{
			Path: "/data/tvprogram/badger",
		},
		Playout: PlayoutConfig{
			Enabled:             false,
			Timeout:             5 * time.Second,
			BreakerMaxRequests:  3,
			BreakerOpenInterval: 30 * time.Second,
			BreakerTimeout:      10 * time.Second,
		},
		EventBus: EventBusConfig{
			Transport: "inprocess",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Addr:    ":9090",
		},
	}
}
