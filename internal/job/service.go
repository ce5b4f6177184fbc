// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	goccyjson "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/generator"
	"github.com/tomtom215/tvprogram/internal/metrics"
	"github.com/tomtom215/tvprogram/internal/profile"
)

// DefaultCatalogSnapshotTTL bounds how long a cached catalog snapshot
// may be reused or pinned before a fresh fetch is forced.
const DefaultCatalogSnapshotTTL = 5 * time.Minute

// CacheMode controls how Generate obtains its catalog snapshot.
type CacheMode string

const (
	// CacheModeFresh (the default) fetches a new snapshot for this job.
	CacheModeFresh CacheMode = "fresh"
	// CacheModeReuse reuses the most recent snapshot if it is younger
	// than the snapshot TTL, fetching fresh otherwise.
	CacheModeReuse CacheMode = "reuse"
	// CacheModePinned requires SnapshotID to name the current cached
	// snapshot and fails fast if it is unknown or expired.
	CacheModePinned CacheMode = "pinned"
)

// JobService is the job-lifecycle surface the transport layer consumes.
type JobService interface {
	Submit(spec Spec) (string, error)
	Cancel(id string)
	Get(id string) (State, bool)
	ListActive() []State
	ClearCompleted() int
	Subscribe() (<-chan Event, func())
}

var _ JobService = (*Supervisor)(nil)

// ResultReader is the passthrough read surface over a ResultStore.
type ResultReader interface {
	Load(ctx context.Context, resultID string) (*Result, error)
}

// ProfileSource supplies a channel's scoring profile by ID. Profile
// CRUD and versioning live outside this module; the service deep-copies
// what it receives, so a job never observes a later edit.
type ProfileSource interface {
	GetProfile(ctx context.Context, id string) (*profile.Profile, error)
}

// GenerateOptions carries the per-request knobs of a generation job.
// A zero Iterations or nil Randomness falls back to the profile's own
// default; a zero DurationDays means one day and a zero Start means now.
type GenerateOptions struct {
	Iterations       int
	Randomness       *float64
	DurationDays     int
	Start            time.Time
	Seed             int64
	PreviewOnly      bool
	ReplaceForbidden bool
	ImproveBest      bool
	Deadline         time.Time

	// CacheMode selects the catalog snapshot strategy; SnapshotID is
	// required by CacheModePinned and names a snapshot returned by a
	// prior call's SnapshotID method.
	CacheMode  CacheMode
	SnapshotID string
}

// GenerationService submits generation jobs by channel and profile ID.
type GenerationService interface {
	Generate(ctx context.Context, channelID, profileID string, opts GenerateOptions) (string, error)
}

// ScoringService submits analysis jobs: the supplied playlist (fetched
// from the playout side by the caller) is re-scored against the profile
// with the same engine generation uses.
type ScoringService interface {
	Analyze(ctx context.Context, channelID, profileID string, existing []generator.ScheduledItem, start time.Time) (string, error)
}

// Service binds the supervisor to its profile and catalog collaborators
// and exposes the generate/analyze operations.
type Service struct {
	sup      *Supervisor
	profiles ProfileSource
	source   catalog.CatalogSource

	snapTTL     time.Duration
	mu          sync.Mutex
	snapID      string
	snapItems   []catalog.Item
	snapTakenAt time.Time
}

var _ GenerationService = (*Service)(nil)
var _ ScoringService = (*Service)(nil)

// NewService wires a Service. source may be nil if every submission
// carries its own catalog snapshot.
func NewService(sup *Supervisor, profiles ProfileSource, source catalog.CatalogSource) *Service {
	return &Service{sup: sup, profiles: profiles, source: source, snapTTL: DefaultCatalogSnapshotTTL}
}

// SnapshotID returns the ID of the most recent catalog snapshot, for
// use with CacheModePinned. Empty when no snapshot has been taken.
func (s *Service) SnapshotID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapID
}

// Generate resolves the profile, takes a deep copy, and submits a
// generation job over the catalog snapshot snapshotFor takes for
// opts.CacheMode at submission; when that yields none, the worker takes
// one from the source at job start.
func (s *Service) Generate(ctx context.Context, channelID, profileID string, opts GenerateOptions) (string, error) {
	prof, err := s.resolveProfile(ctx, profileID)
	if err != nil {
		return "", err
	}

	items, err := s.snapshotFor(ctx, prof, opts)
	if err != nil {
		return "", err
	}

	iterations := opts.Iterations
	if iterations <= 0 {
		iterations = prof.DefaultIterations
	}
	randomness := prof.DefaultRandomness
	if opts.Randomness != nil {
		randomness = *opts.Randomness
	}
	days := opts.DurationDays
	if days < 1 {
		days = 1
	}
	start := opts.Start
	if start.IsZero() {
		start = time.Now()
	}

	return s.sup.Submit(Spec{
		Kind:             KindGenerate,
		ChannelID:        channelID,
		Profile:          prof,
		CatalogItems:     items,
		Catalog:          s.source,
		Libraries:        prof.SourceLibraries,
		Horizon:          generator.Horizon{Start: start, Days: days},
		Iterations:       iterations,
		Randomness:       randomness,
		Seed:             opts.Seed,
		PreviewOnly:      opts.PreviewOnly,
		ReplaceForbidden: opts.ReplaceForbidden,
		ImproveBest:      opts.ImproveBest,
		Deadline:         opts.Deadline,
	})
}

// Analyze resolves the profile and submits an analysis job over the
// caller-supplied playlist.
func (s *Service) Analyze(ctx context.Context, channelID, profileID string, existing []generator.ScheduledItem, start time.Time) (string, error) {
	prof, err := s.resolveProfile(ctx, profileID)
	if err != nil {
		return "", err
	}
	if start.IsZero() && len(existing) > 0 {
		start = existing[0].Start
	}

	return s.sup.Submit(Spec{
		Kind:             KindAnalyze,
		ChannelID:        channelID,
		Profile:          prof,
		Horizon:          generator.Horizon{Start: start, Days: 1},
		ExistingPlaylist: existing,
	})
}

func (s *Service) resolveProfile(ctx context.Context, profileID string) (*profile.Profile, error) {
	if s.profiles == nil {
		return nil, fmt.Errorf("%w: no profile source configured", ErrInvalidSpec)
	}
	prof, err := s.profiles.GetProfile(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("%w: profile %s: %v", ErrInvalidSpec, profileID, err)
	}
	if prof == nil {
		return nil, fmt.Errorf("%w: profile %s not found", ErrInvalidSpec, profileID)
	}
	return deepCopyProfile(prof)
}

// snapshotFor obtains the job's catalog snapshot per opts.CacheMode.
// A nil item slice with nil error means the worker should take the
// snapshot itself at job start from Spec.Catalog.
func (s *Service) snapshotFor(ctx context.Context, prof *profile.Profile, opts GenerateOptions) ([]catalog.Item, error) {
	switch opts.CacheMode {
	case CacheModeReuse:
		s.mu.Lock()
		if s.snapItems != nil && time.Since(s.snapTakenAt) < s.snapTTL {
			items := s.snapItems
			s.mu.Unlock()
			metrics.CatalogSnapshotCache.WithLabelValues("hit").Inc()
			return items, nil
		}
		s.mu.Unlock()
		metrics.CatalogSnapshotCache.WithLabelValues("miss").Inc()
		return s.freshSnapshot(ctx, prof)
	case CacheModePinned:
		s.mu.Lock()
		defer s.mu.Unlock()
		if opts.SnapshotID == "" || opts.SnapshotID != s.snapID {
			return nil, fmt.Errorf("%w: unknown catalog snapshot %q", ErrInvalidSpec, opts.SnapshotID)
		}
		if time.Since(s.snapTakenAt) >= s.snapTTL {
			return nil, fmt.Errorf("%w: catalog snapshot %s has expired", ErrInvalidSpec, opts.SnapshotID)
		}
		metrics.CatalogSnapshotCache.WithLabelValues("hit").Inc()
		return s.snapItems, nil
	default: // CacheModeFresh and unset
		return s.freshSnapshot(ctx, prof)
	}
}

// freshSnapshot fetches and caches a new snapshot. A failed or empty
// fetch returns nil so the worker retries at job start and the job
// fails with the proper empty-catalog reason rather than the submission.
func (s *Service) freshSnapshot(ctx context.Context, prof *profile.Profile) ([]catalog.Item, error) {
	if s.source == nil {
		return nil, nil
	}
	items, err := s.source.ListItems(ctx, prof.SourceLibraries, catalog.Filters{})
	if err != nil || len(items) == 0 {
		return nil, nil
	}
	s.mu.Lock()
	s.snapID = uuid.NewString()
	s.snapItems = items
	s.snapTakenAt = time.Now()
	s.mu.Unlock()
	return items, nil
}

// deepCopyProfile round-trips the profile through its JSON form so the
// job's copy shares no slices or pointers with the caller's.
func deepCopyProfile(p *profile.Profile) (*profile.Profile, error) {
	data, err := goccyjson.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: copy profile: %v", ErrInvalidSpec, err)
	}
	var out profile.Profile
	if err := goccyjson.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: copy profile: %v", ErrInvalidSpec, err)
	}
	return &out, nil
}
