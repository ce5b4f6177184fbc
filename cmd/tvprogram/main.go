// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Command tvprogram wires the scoring engine, generator, optimizer and
// job supervisor into a running process: it loads configuration, builds
// the reference storage/playout adapters, starts the supervisor tree,
// and submits one demonstration generation job. The HTTP/SSE transport
// that would expose submit/cancel/get/list/subscribe to callers is
// left to a separate transport layer; this binary shows the engine
// running end to end, not a server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/config"
	"github.com/tomtom215/tvprogram/internal/job"
	"github.com/tomtom215/tvprogram/internal/job/natsbus"
	"github.com/tomtom215/tvprogram/internal/logging"
	"github.com/tomtom215/tvprogram/internal/playout"
	"github.com/tomtom215/tvprogram/internal/profile"
	"github.com/tomtom215/tvprogram/internal/store"
	"github.com/tomtom215/tvprogram/internal/supervisor"
)

// staticProfiles is a fixed in-memory job.ProfileSource for the
// demonstration job; real profile CRUD lives outside this process.
type staticProfiles map[string]*profile.Profile

func (s staticProfiles) GetProfile(_ context.Context, id string) (*profile.Profile, error) {
	p, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("profile %s not found", id)
	}
	return p, nil
}

func main() {
	logging.Init(logging.Config{Level: "info", Format: "json"})
	logger := logging.Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	resultStore, err := store.Open(cfg.Store.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open result store")
	}
	defer resultStore.Close()

	var sink job.PlayoutSink
	if cfg.Playout.Enabled {
		sink = playout.NewHTTPSink(cfg.Playout.BaseURL, &http.Client{Timeout: cfg.Playout.Timeout},
			cfg.Playout.BreakerMaxRequests, cfg.Playout.BreakerOpenInterval, cfg.Playout.BreakerTimeout)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build supervisor tree")
	}

	bus := job.NewEventBus()
	tree.AddEventingService(bus)

	if cfg.EventBus.Transport == "nats" {
		bridgeCfg := natsbus.DefaultConfig()
		if cfg.EventBus.NATSURL != "" {
			bridgeCfg.URL = cfg.EventBus.NATSURL
		}
		bridgeCfg.Embedded = cfg.EventBus.Embedded
		bridge, err := natsbus.NewBridge(bridgeCfg, bus)
		if err != nil {
			logger.Warn().Err(err).Msg("NATS event bridge unavailable; continuing with in-process bus only")
		} else {
			tree.AddEventingService(bridge)
		}
	}

	supOpts := []job.Option{
		job.WithResultStore(resultStore),
		job.WithHistoryRecorder(resultStore),
		job.WithDeadlineGrace(cfg.Job.DeadlineGrace),
		job.WithPreviewIterationCap(cfg.Job.PreviewIterCap),
	}
	if sink != nil {
		supOpts = append(supOpts, job.WithPlayoutSink(sink))
	}
	sup := job.NewSupervisor(bus, cfg.Job.Concurrency, cfg.Job.Retention, supOpts...)
	tree.AddEngineService(sup)

	if cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	done := tree.ServeBackground(ctx)

	demoProfile := &profile.Profile{
		ID:                "demo",
		Name:              "Demo Channel",
		SchemaVersion:     1,
		DefaultRulePolicy: profile.DefaultRulePolicy(),
		Multipliers:       profile.DefaultMultipliers(),
		Weights:           profile.DefaultWeights(),
		TimeBlocks: []profile.TimeBlock{
			{Name: "all-day", StartHM: "00:00", EndHM: "00:00"},
		},
	}

	demoCatalog := []catalog.Item{
		{ID: "demo-1", Title: "Sample Feature", Kind: catalog.KindMovie, DurationSeconds: 5400, Genres: []string{"Drama"}},
		{ID: "demo-2", Title: "Sample Sitcom", Kind: catalog.KindEpisode, DurationSeconds: 1500, Genres: []string{"Comedy"}},
	}

	var source catalog.CatalogSource = catalog.NewInMemorySource(demoCatalog)
	if cfg.CatalogURL != "" {
		source = catalog.NewHTTPSource(cfg.CatalogURL, &http.Client{Timeout: 10 * time.Second}, 5, 10)
	}

	svc := job.NewService(sup, staticProfiles{demoProfile.ID: demoProfile}, source)

	jobID, err := svc.Generate(ctx, "demo-channel", demoProfile.ID, job.GenerateOptions{
		Iterations:       cfg.Job.DefaultMaxIters,
		Randomness:       &cfg.Job.DefaultRandom,
		DurationDays:     cfg.Job.DefaultHorizon,
		Seed:             cfg.Job.DefaultSeed,
		ReplaceForbidden: true,
		ImproveBest:      true,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to submit demonstration job")
	} else {
		logger.Info().Str("job_id", jobID).Msg("submitted demonstration generation job")
	}

	select {
	case err := <-done:
		if err != nil {
			logger.Error().Err(err).Msg("supervisor tree exited with error")
		}
	case <-ctx.Done():
	}
}
