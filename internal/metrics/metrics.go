// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package metrics provides Prometheus instrumentation for the Job
// Supervisor and generation pipeline: job counts by terminal status,
// iteration throughput, generation latency, and event-bus drop rate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsSubmittedTotal counts every job accepted by Submit, by kind.
	JobsSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvprogram_jobs_submitted_total",
			Help: "Total number of jobs submitted to the supervisor",
		},
		[]string{"kind"},
	)

	// JobsTerminalTotal counts jobs reaching a terminal status.
	JobsTerminalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvprogram_jobs_terminal_total",
			Help: "Total number of jobs reaching a terminal status",
		},
		[]string{"kind", "status"},
	)

	// JobsActive reports the current pending+running job count.
	JobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tvprogram_jobs_active",
			Help: "Current number of pending or running jobs",
		},
	)

	// GenerationDuration tracks wall-clock time for a full generate job.
	GenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tvprogram_generation_duration_seconds",
			Help:    "Duration of a full generate job from start to terminal state",
			Buckets: prometheus.DefBuckets,
		},
	)

	// IterationsRun counts generator iterations attempted, successful or not.
	IterationsRun = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tvprogram_generator_iterations_total",
			Help: "Total number of generator iterations attempted",
		},
	)

	// IterationFailures counts iterations that exhausted the edge-policy
	// relaxation ladder without covering the horizon.
	IterationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tvprogram_generator_iteration_failures_total",
			Help: "Total number of generator iterations that failed to cover the horizon",
		},
	)

	// OptimizerReplacements counts swaps applied by the optimizer passes.
	OptimizerReplacements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvprogram_optimizer_replacements_total",
			Help: "Total number of playlist item replacements applied by the optimizer",
		},
		[]string{"reason"},
	)

	// CatalogSnapshotCache counts snapshot resolutions by outcome: a
	// "hit" served a cached snapshot, a "miss" required a fresh fetch.
	CatalogSnapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvprogram_catalog_snapshot_cache_total",
			Help: "Catalog snapshot cache resolutions by outcome",
		},
		[]string{"result"},
	)

	// EventBusDropped counts events dropped for a slow subscriber.
	EventBusDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tvprogram_job_event_bus_dropped_total",
			Help: "Total number of job events dropped because a subscriber's queue was full",
		},
	)

	// PlayoutBreakerState reports the playout sink's circuit breaker state.
	// 0=closed, 1=half-open, 2=open, mirroring gobreaker.State ordering.
	PlayoutBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tvprogram_playout_breaker_state",
			Help: "Current state of the playout sink's circuit breaker (0=closed, 1=half-open, 2=open)",
		},
	)
)
