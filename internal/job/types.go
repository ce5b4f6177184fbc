// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package job implements the job supervisor: it owns every active
// long-running generation/analysis task, exposes their state, and fans
// progress events out to subscribers. The registry itself is never
// touched from more than one goroutine: Supervisor.Serve is the single
// owner of all job state, reached only through its command inbox.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/generator"
	"github.com/tomtom215/tvprogram/internal/optimizer"
	"github.com/tomtom215/tvprogram/internal/profile"
)

// Kind identifies what a job does.
type Kind string

const (
	KindGenerate   Kind = "generate"
	KindAnalyze    Kind = "analyze"
	KindPreview    Kind = "preview"
	KindSync       Kind = "sync"
	KindAIGenerate Kind = "ai-generate"
)

// Status is one state in the job state machine: pending -> running ->
// (completed | failed | cancelled). No backward transitions.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Spec is the caller-supplied description of one job.
type Spec struct {
	Kind         Kind
	ChannelID    string
	Profile      *profile.Profile
	CatalogItems []catalog.Item
	Horizon      generator.Horizon
	Iterations   int
	Randomness   float64
	Seed         int64

	// Catalog, when set and CatalogItems is empty, is consulted once at
	// job start to snapshot the item set from Libraries. An empty
	// snapshot fails the job with ErrEmptyCatalog.
	Catalog   catalog.CatalogSource
	Libraries []string

	// PreviewOnly suppresses the playout apply after a completed
	// generation; the result is still persisted and reported.
	PreviewOnly bool

	// ReplaceForbidden and ImproveBest enable the optimizer post-passes
	// over the best iteration.
	ReplaceForbidden bool
	ImproveBest      bool

	// ExistingPlaylist is required for KindAnalyze: score a caller-
	// supplied playlist instead of generating a new one.
	ExistingPlaylist []generator.ScheduledItem

	// Deadline is the job's wall-clock deadline; zero means none. On
	// expiry the supervisor requests cancellation and, absent a
	// transition within the grace period, fails the job with reason
	// "deadline-exceeded".
	Deadline time.Time
}

// validate rejects a malformed spec before it enters the registry.
func (s Spec) validate() error {
	switch s.Kind {
	case KindGenerate, KindAnalyze, KindPreview, KindSync, KindAIGenerate:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s.Kind)
	}
	if s.Profile == nil {
		return fmt.Errorf("%w: profile is required", ErrInvalidSpec)
	}
	if s.Kind == KindGenerate {
		if s.Horizon.Days < 1 {
			return fmt.Errorf("%w: horizon must cover at least one day", ErrInvalidSpec)
		}
		if len(s.CatalogItems) == 0 && s.Catalog == nil {
			return fmt.Errorf("%w: a catalog snapshot or source is required", ErrInvalidSpec)
		}
	}
	return nil
}

// State is the observable snapshot of one job. Safe to copy; it holds
// no mutable shared state.
type State struct {
	ID               string
	Kind             Kind
	Status           Status
	Preview          bool
	Progress         int
	CurrentIteration int
	TotalIterations  int
	BestSoFar        *generator.Playlist
	Phase            string
	Steps            []string
	CreatedAt        time.Time
	StartedAt        time.Time
	CompletedAt      time.Time
	ResultID         string
	Err              string
}

// Result is the immutable blob persisted by a ResultStore and recorded
// by a HistoryRecorder: the settled playlist plus the replacements the
// optimizer applied and job identity metadata.
type Result struct {
	JobID        string
	ProfileID    string
	ChannelID    string
	Playlist     generator.Playlist
	Replacements []optimizer.Replacement
	GeneratedAt  time.Time
}

// EventType names one of the progress event kinds.
type EventType string

const (
	EventJobsState    EventType = "jobs_state"
	EventJobCreated   EventType = "job_created"
	EventJobStarted   EventType = "job_started"
	EventJobProgress  EventType = "job_progress"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
	EventJobCancelled EventType = "job_cancelled"
)

// Event is one fan-out message. Snapshot carries the state of every job
// still in the registry, terminal ones included, for EventJobsState;
// State carries a single job's state for every other type.
type Event struct {
	Type      EventType
	JobID     string
	State     State
	Snapshot  []State
	Timestamp time.Time

	// Relayed marks an event injected into this bus by a cross-process
	// bridge; the bridge never relays such events back out, so an event
	// circulates between processes exactly once.
	Relayed bool
}

// ResultStore persists results as immutable blobs, identified by an
// opaque ID assigned at Save.
type ResultStore interface {
	Save(ctx context.Context, result Result) (string, error)
	Load(ctx context.Context, resultID string) (*Result, error)
}

// HistoryRecorder records a completed job's terminal state into a
// sibling subsystem.
type HistoryRecorder interface {
	Record(ctx context.Context, state State) error
}

// PlayoutSink applies a playlist to an external channel. Apply must be
// idempotent with respect to identical inputs; failures surface to the
// caller without retroactively mutating job state.
type PlayoutSink interface {
	Apply(ctx context.Context, channelID string, result Result) error
}
