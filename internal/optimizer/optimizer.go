// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package optimizer implements the two idempotent post-passes that run
// over the generator's best iteration: Forbidden Replacement (swap out
// violating items) and Improve-Best (greedy same-duration swaps that
// raise a per-item score without regressing neighbors).
package optimizer

import (
	"math"
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/generator"
	"github.com/tomtom215/tvprogram/internal/profile"
	"github.com/tomtom215/tvprogram/internal/scoring"
	"github.com/tomtom215/tvprogram/internal/scoring/criteria"
)

// durationToleranceMinutes bounds the Improve-Best swap's "matching
// duration" test (±2 min).
const durationToleranceMinutes = 2.0

// Replacement records one item swapped out of the playlist, for the
// job's progress/result reporting.
type Replacement struct {
	Position      int
	ReplacedTitle string
	Reason        string
	NewItemID     string
}

// Optimizer runs the two post-passes against a generator.Playlist.
type Optimizer struct {
	engine *scoring.Engine
}

// New constructs an Optimizer bound to the same scoring engine the
// generator used.
func New(engine *scoring.Engine) *Optimizer {
	return &Optimizer{engine: engine}
}

// ForbiddenReplacement scans for items whose score carries
// ForbiddenViolated and attempts a swap with a non-forbidden candidate
// of equal or smaller duration from the catalog that fits the same
// block and introduces no new violation. Idempotent: a playlist with no
// forbidden violations is returned unchanged.
func (o *Optimizer) ForbiddenReplacement(playlist *generator.Playlist, catalogItems []catalog.Item, prof *profile.Profile) []Replacement {
	var replacements []Replacement

	for i := range playlist.Items {
		si := &playlist.Items[i]
		if !si.Score.ForbiddenViolated {
			continue
		}

		block := resolveBlockCriteria(prof, si.BlockName)
		best, bestScore, ok := o.bestReplacement(si, catalogItems, block, prof, playlist, i, func(candidate catalog.Item) bool {
			return candidate.DurationSeconds <= si.Item.DurationSeconds
		})
		if !ok {
			continue
		}

		replacements = append(replacements, Replacement{
			Position:      i,
			ReplacedTitle: si.Item.Title,
			Reason:        "forbidden",
			NewItemID:     best.ID,
		})

		si.Item = best
		si.End = si.Start.Add(durationOf(best))
		si.Score = bestScore
	}

	o.resequence(playlist)
	return replacements
}

// ImproveBest performs one greedy pass: for each non-first/non-last
// position it attempts a same-duration (±2 min) swap that strictly
// improves the item's own score without worsening its neighbors'
// scores or introducing a new violation. Idempotent: a second pass over
// an already-optimal playlist makes no further swaps.
func (o *Optimizer) ImproveBest(playlist *generator.Playlist, catalogItems []catalog.Item, prof *profile.Profile) []Replacement {
	var replacements []Replacement

	for i := range playlist.Items {
		if i == 0 || i == len(playlist.Items)-1 {
			continue
		}
		si := &playlist.Items[i]
		block := resolveBlockCriteria(prof, si.BlockName)

		neighborScoresBefore := o.neighborScores(playlist, i)

		best, bestScore, ok := o.bestReplacement(si, catalogItems, block, prof, playlist, i, func(candidate catalog.Item) bool {
			return math.Abs(candidate.DurationMinutes()-si.Item.DurationMinutes()) <= durationToleranceMinutes
		})
		if !ok || bestScore.Final <= si.Score.Final || bestScore.ForbiddenViolated {
			continue
		}

		original := *si
		trial := original
		trial.Item = best
		trial.End = trial.Start.Add(durationOf(best))
		trial.Score = bestScore
		playlist.Items[i] = trial

		if o.neighborsWorsened(playlist, i, neighborScoresBefore, prof) {
			playlist.Items[i] = original
			continue
		}

		replacements = append(replacements, Replacement{
			Position:      i,
			ReplacedTitle: original.Item.Title,
			Reason:        "improve",
			NewItemID:     best.ID,
		})
	}

	o.resequence(playlist)
	return replacements
}

// bestReplacement finds the highest-scoring catalog candidate at
// position i satisfying fits, with no self-forbidden-violation and no
// ID collision with the rest of the playlist.
func (o *Optimizer) bestReplacement(si *generator.ScheduledItem, catalogItems []catalog.Item, block profile.BlockCriteria, prof *profile.Profile, playlist *generator.Playlist, i int, fits func(catalog.Item) bool) (catalog.Item, scoring.Score, bool) {
	var bestItem catalog.Item
	var bestScore scoring.Score
	found := false

	inUse := map[string]bool{}
	for j, other := range playlist.Items {
		if j != i {
			inUse[other.Item.ID] = true
		}
	}

	for _, candidate := range catalogItems {
		if candidate.ID == si.Item.ID || inUse[candidate.ID] {
			continue
		}
		if !fits(candidate) {
			continue
		}

		pos := criteria.PositionContext{
			IsFirstInBlock: isFirstInBlock(playlist, i),
			IsLastInBlock:  isLastInBlock(playlist, i),
			BlockStart:     si.BlockStart,
			BlockEnd:       si.BlockEnd,
			ItemStart:      si.Start,
			ItemEnd:        si.Start.Add(durationOf(candidate)),
			Now:            si.Start,
		}
		s := o.engine.Score(candidate, block, prof, pos)
		if s.ForbiddenViolated {
			continue
		}

		if !found || s.Final > bestScore.Final {
			bestItem, bestScore, found = candidate, s, true
		}
	}

	return bestItem, bestScore, found
}

func (o *Optimizer) neighborScores(playlist *generator.Playlist, i int) [2]float64 {
	var scores [2]float64
	if i > 0 {
		scores[0] = playlist.Items[i-1].Score.Final
	}
	if i < len(playlist.Items)-1 {
		scores[1] = playlist.Items[i+1].Score.Final
	}
	return scores
}

// neighborsWorsened recomputes both neighbors' scores from their block
// and position and reports whether either fell below its score before
// the swap. The recomputation passes no RecentGenres or
// CollectionCounts, so it does not see the swapped-in item's genres or
// collection.
func (o *Optimizer) neighborsWorsened(playlist *generator.Playlist, i int, before [2]float64, prof *profile.Profile) bool {
	if i > 0 {
		prev := playlist.Items[i-1]
		prevBlock := resolveBlockCriteria(prof, prev.BlockName)
		pos := criteria.PositionContext{
			IsFirstInBlock: isFirstInBlock(playlist, i-1),
			IsLastInBlock:  isLastInBlock(playlist, i-1),
			BlockStart:     prev.BlockStart,
			BlockEnd:       prev.BlockEnd,
			ItemStart:      prev.Start,
			ItemEnd:        prev.End,
			Now:            prev.Start,
		}
		s := o.engine.Score(prev.Item, prevBlock, prof, pos)
		if s.Final < before[0] {
			return true
		}
	}
	if i < len(playlist.Items)-1 {
		next := playlist.Items[i+1]
		nextBlock := resolveBlockCriteria(prof, next.BlockName)
		pos := criteria.PositionContext{
			IsFirstInBlock: isFirstInBlock(playlist, i+1),
			IsLastInBlock:  isLastInBlock(playlist, i+1),
			BlockStart:     next.BlockStart,
			BlockEnd:       next.BlockEnd,
			ItemStart:      next.Start,
			ItemEnd:        next.End,
			Now:            next.Start,
		}
		s := o.engine.Score(next.Item, nextBlock, prof, pos)
		if s.Final < before[1] {
			return true
		}
	}
	return false
}

// isFirstInBlock reports whether item i opens its block occurrence;
// occurrences are identified by their exact BlockStart instant.
func isFirstInBlock(playlist *generator.Playlist, i int) bool {
	return i == 0 || !playlist.Items[i-1].BlockStart.Equal(playlist.Items[i].BlockStart)
}

func isLastInBlock(playlist *generator.Playlist, i int) bool {
	return i == len(playlist.Items)-1 || !playlist.Items[i+1].BlockStart.Equal(playlist.Items[i].BlockStart)
}

// resequence re-derives every item's Start/End from its predecessor so
// that a duration-changing swap keeps the playlist contiguous, then
// recomputes aggregates.
func (o *Optimizer) resequence(playlist *generator.Playlist) {
	total := 0.0

	for i := range playlist.Items {
		si := &playlist.Items[i]
		if i > 0 {
			si.Start = playlist.Items[i-1].End
		}
		si.End = si.Start.Add(durationOf(si.Item))
		total += si.Score.Final
	}

	playlist.TotalScore = total
	if len(playlist.Items) > 0 {
		playlist.Average = total / float64(len(playlist.Items))
	}
}

func resolveBlockCriteria(prof *profile.Profile, blockName string) profile.BlockCriteria {
	for _, b := range prof.TimeBlocks {
		if b.Name == blockName {
			return profile.Merge(prof.DefaultCriteria, b.Criteria)
		}
	}
	return prof.DefaultCriteria
}

func durationOf(it catalog.Item) time.Duration {
	return time.Duration(it.DurationSeconds) * time.Second
}
