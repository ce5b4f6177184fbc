// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

//go:build !nats

package natsbus

import (
	"context"
	"fmt"

	"github.com/tomtom215/tvprogram/internal/job"
)

// Bridge is a stub used when the binary is built without -tags=nats.
type Bridge struct{}

// NewBridge returns an error when NATS support is not compiled in.
func NewBridge(cfg Config, local *job.EventBus) (*Bridge, error) {
	return nil, fmt.Errorf("natsbus: NATS bridge not available: build with -tags=nats")
}

// String names this service for supervisor-tree logging.
func (b *Bridge) String() string { return "job-nats-bridge (disabled)" }

// Serve is a no-op that blocks until ctx is cancelled, matching the
// suture.Service contract without doing any work.
func (b *Bridge) Serve(ctx context.Context) error {
	<-ctx.Done()
	return nil
}
