// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package generator implements the iterative randomized playlist
// constructor: for each of N independent iterations it walks the
// horizon block by block, selecting a weighted-random candidate at
// each position, then keeps the best-scoring iteration.
package generator

import (
	"context"
	"encoding/binary"
	"errors"
	"hash/fnv"
	"math"
	"math/rand"
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/normalize"
	"github.com/tomtom215/tvprogram/internal/profile"
	"github.com/tomtom215/tvprogram/internal/scoring"
	"github.com/tomtom215/tvprogram/internal/scoring/criteria"
	"github.com/tomtom215/tvprogram/internal/timeblock"
)

// reuseWindow is the cycle-prevention window: an item may not be
// reused within the previous K positions of the same playlist.
const reuseWindow = 8

// recentGenreWindow is the number of trailing placements whose genres
// feed the Strategy criterion's maximize_variety check.
const recentGenreWindow = 3

// ScheduledItem is one placed item: the source Item, its settled
// start/end instants, the block occurrence it was placed under, and its
// Score. BlockStart/BlockEnd are the occurrence's exact instants, so
// two visits to the same named block on different days stay distinct.
type ScheduledItem struct {
	Item       catalog.Item
	Start      time.Time
	End        time.Time
	BlockName  string
	BlockStart time.Time
	BlockEnd   time.Time
	Score      scoring.Score
}

// Playlist is one complete or partial construction attempt.
type Playlist struct {
	Items      []ScheduledItem
	TotalScore float64
	Average    float64
	Iteration  int
}

// Horizon is the window a playlist must cover: [Start, Start+Days*24h).
type Horizon struct {
	Start time.Time
	Days  int
}

func (h Horizon) end() time.Time { return h.Start.AddDate(0, 0, h.Days) }

// Result is the outcome of a full Run: the best playlist found (nil if
// every iteration failed), how many iterations ran and failed, and
// whether the run stopped early because ctx was cancelled.
type Result struct {
	Best       *Playlist
	Iterations int
	Failures   int
	Cancelled  bool
}

// Generator ties the scoring engine and time-block manager to the
// iterative randomized search.
type Generator struct {
	engine *scoring.Engine
	blocks *timeblock.Manager

	// Progress, when set, is invoked after every iteration (successful
	// or failed) with the 1-based iteration count and the best average
	// seen so far. It runs on Run's goroutine; keep it cheap.
	Progress func(iteration int, bestAverage float64)
}

// New constructs a Generator. engine and blocks must already be wired
// to the same profile's configuration.
func New(engine *scoring.Engine, blocks *timeblock.Manager) *Generator {
	return &Generator{engine: engine, blocks: blocks}
}

// Run executes N independent iterations and returns the best one.
// catalogItems is the job's immutable snapshot.
func (g *Generator) Run(ctx context.Context, catalogItems []catalog.Item, prof *profile.Profile, horizon Horizon, iterations int, randomness float64, baseSeed int64) (*Result, error) {
	result := &Result{}

	for i := 0; i < iterations; i++ {
		select {
		case <-ctx.Done():
			result.Cancelled = true
			return result, nil
		default:
		}

		rng := newIterationRNG(baseSeed, int64(i))
		playlist, err := g.runIteration(ctx, rng, catalogItems, prof, horizon, randomness)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				result.Cancelled = true
				return result, nil
			}
			result.Iterations++
			result.Failures++
			g.reportProgress(i+1, result)
			continue
		}

		result.Iterations++
		playlist.Iteration = i
		g.finalizeScores(playlist, prof)

		if result.Best == nil || playlist.Average > result.Best.Average {
			result.Best = playlist
		}
		g.reportProgress(i+1, result)
	}

	if result.Best == nil {
		return result, ErrNoFeasibleSchedule
	}
	return result, nil
}

func (g *Generator) reportProgress(iteration int, result *Result) {
	if g.Progress == nil {
		return
	}
	best := 0.0
	if result.Best != nil {
		best = result.Best.Average
	}
	g.Progress(iteration, best)
}

// runIteration walks the horizon once, placing items block by block
// until the horizon is covered or the edge-policy ladder is exhausted.
func (g *Generator) runIteration(ctx context.Context, rng *rand.Rand, catalogItems []catalog.Item, prof *profile.Profile, horizon Horizon, randomness float64) (*Playlist, error) {
	cursor := horizon.Start
	end := horizon.end()
	playlist := &Playlist{}

	var recent []string
	var recentGenres []string
	collectionCounts := map[string]int{}

	for cursor.Before(end) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		dayIndex := int(cursor.Sub(horizon.Start) / (24 * time.Hour))
		block, err := g.blocks.BlockFor(cursor, dayIndex)
		if err != nil {
			return nil, err
		}

		effective := profile.Merge(prof.DefaultCriteria, block.Criteria)

		candidates := selectCandidates(catalogItems, effective, cursor, block.End, recent)
		if len(candidates) == 0 {
			return nil, errNoFeasibleIteration
		}

		isFirst := len(playlist.Items) == 0 ||
			!playlist.Items[len(playlist.Items)-1].BlockStart.Equal(block.Start)

		placed, placedScore := g.chooseCandidate(rng, candidates, effective, prof, block, cursor, isFirst, recentGenres, collectionCounts, randomness)

		itemEnd := cursor.Add(time.Duration(placed.DurationSeconds) * time.Second)
		playlist.Items = append(playlist.Items, ScheduledItem{
			Item:       placed,
			Start:      cursor,
			End:        itemEnd,
			BlockName:  block.Name,
			BlockStart: block.Start,
			BlockEnd:   block.End,
			Score:      placedScore,
		})

		recent = pushWindow(recent, placed.ID, reuseWindow)
		recentGenres = pushWindowAll(recentGenres, placed.Genres, recentGenreWindow)
		if placed.Collection != nil && *placed.Collection != "" {
			collectionCounts[*placed.Collection]++
		}

		cursor = itemEnd
	}

	return playlist, nil
}

// candidateFilterLevel enumerates the relaxation ladder: each level
// drops one more constraint than the last.
type candidateFilterLevel int

const (
	levelStrict candidateFilterLevel = iota
	levelDropOverflow
	levelDropPreferredOnly
	levelDropAllowedOnly
	levelAnyNonForbidden
)

// selectCandidates applies the edge-policy ladder until at least one
// candidate survives, or returns empty when even levelAnyNonForbidden
// yields nothing.
func selectCandidates(items []catalog.Item, block profile.BlockCriteria, cursor, blockEnd time.Time, recent []string) []catalog.Item {
	for level := levelStrict; level <= levelAnyNonForbidden; level++ {
		var out []catalog.Item
		for _, it := range items {
			if contains(recent, it.ID) {
				continue
			}
			if !passesLevel(it, block, cursor, blockEnd, level) {
				continue
			}
			out = append(out, it)
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func passesLevel(it catalog.Item, block profile.BlockCriteria, cursor, blockEnd time.Time, level candidateFilterLevel) bool {
	if isForbidden(it, block) {
		return false
	}
	if level >= levelAnyNonForbidden {
		return true
	}

	if !withinThresholds(it, block) {
		return false
	}
	if level < levelDropAllowedOnly && !passesAllowedOnly(it, block) {
		return false
	}
	if level < levelDropPreferredOnly && !passesPreferredOnly(it, block) {
		return false
	}
	if level < levelDropOverflow && overflowsBlock(it, cursor, blockEnd, block) {
		return false
	}
	return true
}

// isForbidden checks the hard, never-relaxed exclusions: forbidden
// genres/keywords/studios, excluded kinds, the age ceiling and
// allow-list, and exclude-keywords.
func isForbidden(it catalog.Item, block profile.BlockCriteria) bool {
	if containsKind(block.ExcludedKinds, it.Kind) {
		return true
	}
	if normalize.AnyMatchesAny(it.Genres, block.ForbiddenGenres) {
		return true
	}
	if normalize.AnyMatchesAny(it.Keywords, block.ForbiddenKeywords) {
		return true
	}
	if normalize.AnyMatchesAny(it.Studios, block.ForbiddenStudios) {
		return true
	}
	if normalize.ContainsAny(it.Title, block.ExcludeKeywords) {
		return true
	}
	if it.AgeRating != nil {
		if len(block.AllowedAges) > 0 && !normalize.MatchesAny(*it.AgeRating, block.AllowedAges) {
			return true
		}
		if block.MaxAgeLevel != nil {
			if lvl, ok := normalize.AgeLevel(*it.AgeRating); ok && lvl > *block.MaxAgeLevel {
				return true
			}
		}
	}
	return false
}

// withinThresholds checks the block's rating, vote-count and duration
// bounds. Unlike the forbidden sets these relax at the ladder's last
// rung, so a block with thresholds no item satisfies still fills.
func withinThresholds(it catalog.Item, block profile.BlockCriteria) bool {
	if block.MinRating != nil && it.Rating != nil && *it.Rating < *block.MinRating {
		return false
	}
	if block.MinVoteCount != nil && (it.VoteCount == nil || *it.VoteCount < *block.MinVoteCount) {
		return false
	}
	if block.MinDurationMinutes != nil && it.DurationMinutes() < *block.MinDurationMinutes {
		return false
	}
	if block.MaxDurationMinutes != nil && it.DurationMinutes() > *block.MaxDurationMinutes {
		return false
	}
	return true
}

// passesAllowedOnly enforces an allowed-kinds/genres allow-list when
// one is configured; an empty allow-list places no restriction.
func passesAllowedOnly(it catalog.Item, block profile.BlockCriteria) bool {
	if len(block.AllowedKinds) > 0 && !containsKind(block.AllowedKinds, it.Kind) {
		return false
	}
	if len(block.AllowedGenres) > 0 && !normalize.AnyMatchesAny(it.Genres, block.AllowedGenres) {
		return false
	}
	return true
}

// passesPreferredOnly is the next rung of the ladder: when a block
// configures preferred kinds/genres with no allow-list, treat the
// preferred set as a soft allow-list until relaxed.
func passesPreferredOnly(it catalog.Item, block profile.BlockCriteria) bool {
	if len(block.AllowedKinds) == 0 && len(block.PreferredKinds) > 0 && !containsKind(block.PreferredKinds, it.Kind) {
		return false
	}
	if len(block.AllowedGenres) == 0 && len(block.PreferredGenres) > 0 && !normalize.AnyMatchesAny(it.Genres, block.PreferredGenres) {
		return false
	}
	return true
}

// overflowsBlock reports whether placing it at cursor would run past
// blockEnd by more than the block's forbidden_max_minutes threshold.
func overflowsBlock(it catalog.Item, cursor, blockEnd time.Time, block profile.BlockCriteria) bool {
	if block.ForbiddenMaxMinutes == nil {
		return false
	}
	itemEnd := cursor.Add(time.Duration(it.DurationSeconds) * time.Second)
	overflowMinutes := itemEnd.Sub(blockEnd).Minutes()
	return overflowMinutes > *block.ForbiddenMaxMinutes
}

// chooseCandidate scores every candidate at this position, including the
// speculative last-in-block check, then performs weighted-random
// selection over a smoothed score distribution.
func (g *Generator) chooseCandidate(rng *rand.Rand, candidates []catalog.Item, block profile.BlockCriteria, prof *profile.Profile, b timeblock.Block, cursor time.Time, isFirst bool, recentGenres []string, collectionCounts map[string]int, randomness float64) (catalog.Item, scoring.Score) {
	scores := make([]scoring.Score, len(candidates))
	weights := make([]float64, len(candidates))
	alpha := 8*(1-randomness) + 0.5*randomness

	for idx, c := range candidates {
		remainingMinutes := b.End.Sub(cursor.Add(time.Duration(c.DurationSeconds)*time.Second)).Minutes()
		lastInBlock := !anyCandidateFitsWithin(candidates, remainingMinutes)

		pos := criteria.PositionContext{
			IsFirstInBlock:   isFirst,
			IsLastInBlock:    lastInBlock,
			BlockStart:       b.Start,
			BlockEnd:         b.End,
			ItemStart:        cursor,
			ItemEnd:          cursor.Add(time.Duration(c.DurationSeconds) * time.Second),
			RecentGenres:     recentGenres,
			CollectionCounts: collectionCounts,
			Now:              cursor,
		}
		s := g.engine.Score(c, block, prof, pos)
		scores[idx] = s
		weights[idx] = math.Max(1e-6, math.Pow(s.Final/100, alpha))
	}

	chosen := weightedRandomIndex(rng, weights)
	return candidates[chosen], scores[chosen]
}

// anyCandidateFitsWithin reports whether any candidate could still
// follow in the remaining block time; if none can, the item being
// scored is speculatively the last in its block occurrence.
func anyCandidateFitsWithin(candidates []catalog.Item, remainingMinutes float64) bool {
	for _, c := range candidates {
		if c.DurationMinutes() <= remainingMinutes {
			return true
		}
	}
	return false
}

func weightedRandomIndex(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return rng.Intn(len(weights))
	}
	r := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return i
		}
	}
	return len(weights) - 1
}

// finalizeScores runs after construction: once the full playlist
// is settled, recompute every item's score now that its neighbors (and
// therefore its first/last-in-block status) are fixed, then aggregate.
func (g *Generator) finalizeScores(playlist *Playlist, prof *profile.Profile) {
	var recentGenres []string
	collectionCounts := map[string]int{}
	total := 0.0

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

		block := resolveBlockCriteria(prof, si.BlockName)
		si.Score = g.engine.Score(si.Item, block, prof, pos)
		total += si.Score.Final

		recentGenres = pushWindowAll(recentGenres, si.Item.Genres, recentGenreWindow)
		if si.Item.Collection != nil && *si.Item.Collection != "" {
			collectionCounts[*si.Item.Collection]++
		}
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

func newIterationRNG(baseSeed, i int64) *rand.Rand {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(baseSeed))
	h.Write(buf[:])
	binary.LittleEndian.PutUint64(buf[:], uint64(i))
	h.Write(buf[:])
	return rand.New(rand.NewSource(int64(h.Sum64())))
}

func pushWindow(w []string, id string, max int) []string {
	w = append(w, id)
	if len(w) > max {
		w = w[len(w)-max:]
	}
	return w
}

func pushWindowAll(w []string, genres []string, max int) []string {
	w = append(w, genres...)
	if len(w) > max {
		w = w[len(w)-max:]
	}
	return w
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func containsKind(kinds []catalog.Kind, k catalog.Kind) bool {
	for _, kk := range kinds {
		if kk == k {
			return true
		}
	}
	return false
}

