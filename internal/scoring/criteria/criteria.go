// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package criteria implements the nine stateless criterion evaluators.
// Each evaluator is a pure function over an Input and produces an
// Outcome: a base score plus any rule flags it raised.
// Converting those flags into score adjustments, clamping, and weighting
// is shared code that lives one layer up, in internal/scoring.
package criteria

import (
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/profile"
)

// RuleFlag is one of the four rule outcomes an evaluator can raise.
type RuleFlag int

const (
	MandatoryMet RuleFlag = iota
	MandatoryMissed
	ForbiddenDetected
	PreferredMatched
)

// PositionContext carries the placement-dependent inputs the Timing,
// Strategy and Bonus evaluators need; every other evaluator ignores it.
type PositionContext struct {
	IsFirstInBlock bool
	IsLastInBlock  bool

	BlockStart time.Time
	BlockEnd   time.Time
	ItemStart  time.Time
	ItemEnd    time.Time

	// RecentGenres holds the genres of the last K=3 items placed before
	// this one, for the Strategy criterion's maximize_variety check.
	RecentGenres []string

	// CollectionCounts counts how many times each collection name has
	// already appeared in the playlist under construction, for the
	// Strategy marathon_mode and Bonus collection-elsewhere checks.
	CollectionCounts map[string]int

	// Now anchors the Bonus criterion's "current year" and "holiday
	// season" checks. Callers pass the job's start time so that scoring
	// stays deterministic given (profile, items, seed).
	Now time.Time
}

// Input bundles everything one criterion evaluator needs: the item, the
// block's effective criteria, the criterion's effective rule set, and
// placement context.
type Input struct {
	Item  catalog.Item
	Block profile.BlockCriteria
	Rules profile.RuleSet
	Pos   PositionContext
}

// Outcome is what one evaluator produces: a base score in [0, 100] (unless
// Skipped), structured detail for the Score breakdown, and any rule flags
// raised by membership tests the evaluator itself performed.
type Outcome struct {
	Base    float64
	Skipped bool
	Detail  map[string]any
	Flags   []RuleFlag
}

func skipped() Outcome {
	return Outcome{Skipped: true}
}

// Evaluator is implemented by each of the nine criterion evaluators.
type Evaluator interface {
	Evaluate(in Input) Outcome
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
