// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/generator"
	"github.com/tomtom215/tvprogram/internal/logging"
	"github.com/tomtom215/tvprogram/internal/metrics"
	"github.com/tomtom215/tvprogram/internal/optimizer"
	"github.com/tomtom215/tvprogram/internal/profile"
	"github.com/tomtom215/tvprogram/internal/scoring"
	"github.com/tomtom215/tvprogram/internal/scoring/criteria"
	"github.com/tomtom215/tvprogram/internal/timeblock"
)

// progressFunc reports coarse completion (0-100) and the best playlist
// average seen so far.
type progressFunc func(progress int, playlistAverage float64)

// runByKind drives the actual work behind one job, dispatching on
// spec.Kind. It returns a Result on success.
//
// KindPreview, KindSync and KindAIGenerate are declared, but their
// collaborators (a live playout adapter, a catalog sync source, an LLM
// profile-synthesis path) live outside this module; runByKind rejects
// them rather than faking a partial implementation.
func runByKind(ctx context.Context, engine *scoring.Engine, blocks *timeblock.Manager, spec Spec, progress progressFunc) (*Result, error) {
	switch spec.Kind {
	case KindGenerate:
		return runGenerate(ctx, engine, blocks, spec, progress)
	case KindAnalyze:
		return runAnalyze(engine, blocks, spec)
	default:
		return nil, errUnsupportedKind
	}
}

func runGenerate(ctx context.Context, engine *scoring.Engine, blocks *timeblock.Manager, spec Spec, progress progressFunc) (*Result, error) {
	started := time.Now()
	defer func() { metrics.GenerationDuration.Observe(time.Since(started).Seconds()) }()

	items := spec.CatalogItems
	if len(items) == 0 && spec.Catalog != nil {
		fetched, err := spec.Catalog.ListItems(ctx, spec.Libraries, catalog.Filters{})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmptyCatalog, err)
		}
		items = fetched
		logging.Ctx(ctx).Debug().Int("items", len(items)).Msg("catalog snapshot fetched at job start")
	}
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	gen := generator.New(engine, blocks)

	iterations := spec.Iterations
	if iterations <= 0 {
		iterations = 1
	}

	// Progress is capped at roughly 4Hz per job so a fast run does not
	// flood the bus; the final iteration always reports.
	var lastReport time.Time
	gen.Progress = func(iteration int, bestAverage float64) {
		now := time.Now()
		if iteration != iterations && now.Sub(lastReport) < 250*time.Millisecond {
			return
		}
		lastReport = now
		progress(iteration*95/iterations, bestAverage)
	}

	genResult, err := gen.Run(ctx, items, spec.Profile, spec.Horizon, iterations, spec.Randomness, spec.Seed)
	if err != nil {
		return nil, err
	}
	if genResult.Cancelled {
		cancelErr := ctx.Err()
		if cancelErr == nil {
			cancelErr = context.Canceled
		}
		if genResult.Best == nil {
			return nil, cancelErr
		}
		logging.Ctx(ctx).Info().Float64("best_average", genResult.Best.Average).
			Msg("cancelled with a completed best iteration; preserving it")
		// The best iteration completed before cancellation is still a
		// usable result: return it so the supervisor persists it with
		// the cancelled status. The optimizer passes are skipped.
		return &Result{
			ChannelID:   spec.ChannelID,
			ProfileID:   spec.Profile.ID,
			Playlist:    *genResult.Best,
			GeneratedAt: time.Now(),
		}, cancelErr
	}
	if genResult.Best == nil {
		return nil, generator.ErrNoFeasibleSchedule
	}

	playlist := genResult.Best
	opt := optimizer.New(engine)
	var replacements []optimizer.Replacement
	if spec.ReplaceForbidden {
		replacements = append(replacements, opt.ForbiddenReplacement(playlist, items, spec.Profile)...)
	}
	if spec.ImproveBest {
		replacements = append(replacements, opt.ImproveBest(playlist, items, spec.Profile)...)
	}
	for _, r := range replacements {
		metrics.OptimizerReplacements.WithLabelValues(r.Reason).Inc()
	}

	metrics.IterationsRun.Add(float64(genResult.Iterations))
	metrics.IterationFailures.Add(float64(genResult.Failures))

	progress(100, playlist.Average)

	return &Result{
		ChannelID:    spec.ChannelID,
		ProfileID:    spec.Profile.ID,
		Playlist:     *playlist,
		Replacements: replacements,
		GeneratedAt:  time.Now(),
	}, nil
}

// runAnalyze re-scores a caller-supplied playlist against the job's
// profile without running the generator.
func runAnalyze(engine *scoring.Engine, blocks *timeblock.Manager, spec Spec) (*Result, error) {
	if len(spec.ExistingPlaylist) == 0 {
		return nil, errors.New("job: analyze requires an existing playlist")
	}

	playlist := generator.Playlist{Items: make([]generator.ScheduledItem, len(spec.ExistingPlaylist))}
	for i, si := range spec.ExistingPlaylist {
		dayIndex := int(si.Start.Sub(spec.Horizon.Start) / (24 * time.Hour))
		block, err := blocks.BlockFor(si.Start, dayIndex)
		if err != nil {
			return nil, err
		}
		playlist.Items[i] = generator.ScheduledItem{
			Item:       si.Item,
			Start:      si.Start,
			End:        si.End,
			BlockName:  block.Name,
			BlockStart: block.Start,
			BlockEnd:   block.End,
		}
	}

	// Scored with the same accumulation the generator's final pass uses,
	// so analyzing a previously-generated playlist reproduces the scores
	// generation recorded.
	total := 0.0
	var recentGenres []string
	collectionCounts := map[string]int{}

	for i := range playlist.Items {
		si := &playlist.Items[i]
		isFirst := i == 0 || !playlist.Items[i-1].BlockStart.Equal(si.BlockStart)
		isLast := i == len(playlist.Items)-1 || !playlist.Items[i+1].BlockStart.Equal(si.BlockStart)

		pos := criteria.PositionContext{
			IsFirstInBlock:   isFirst,
			IsLastInBlock:    isLast,
			BlockStart:       si.BlockStart,
			BlockEnd:         si.BlockEnd,
			ItemStart:        si.Start,
			ItemEnd:          si.End,
			RecentGenres:     recentGenres,
			CollectionCounts: collectionCounts,
			Now:              si.Start,
		}
		effective := profile.Merge(spec.Profile.DefaultCriteria, resolveCriteria(spec.Profile, si.BlockName))
		si.Score = engine.Score(si.Item, effective, spec.Profile, pos)
		total += si.Score.Final

		recentGenres = appendWindow(recentGenres, si.Item.Genres)
		if si.Item.Collection != nil && *si.Item.Collection != "" {
			collectionCounts[*si.Item.Collection]++
		}
	}

	playlist.TotalScore = total
	if len(playlist.Items) > 0 {
		playlist.Average = total / float64(len(playlist.Items))
	}

	return &Result{
		ChannelID:   spec.ChannelID,
		ProfileID:   spec.Profile.ID,
		Playlist:    playlist,
		GeneratedAt: time.Now(),
	}, nil
}

// resolveCriteria returns the named block's own criteria, or the zero
// value for the synthetic unblocked gap.
func resolveCriteria(prof *profile.Profile, blockName string) profile.BlockCriteria {
	for _, b := range prof.TimeBlocks {
		if b.Name == blockName {
			return b.Criteria
		}
	}
	return profile.BlockCriteria{}
}

// appendWindow keeps the trailing genres feeding the Strategy
// criterion's variety check, matching the generator's window.
func appendWindow(w []string, genres []string) []string {
	const window = 3
	w = append(w, genres...)
	if len(w) > window {
		w = w[len(w)-window:]
	}
	return w
}
