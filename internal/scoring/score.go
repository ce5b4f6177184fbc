// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package scoring implements the score aggregation engine: it runs
// the nine criteria.Evaluators, applies the shared rule-adjustment and
// clamping logic, and combines the results into a final Score.
package scoring

import (
	"github.com/tomtom215/tvprogram/internal/normalize"
	"github.com/tomtom215/tvprogram/internal/profile"
)

// Normalize is the case-folding, accent-stripping helper every rule
// membership comparison goes through. It lives in internal/normalize
// (the generator needs it too); this alias keeps the scoring package
// the natural place to reach for it.
func Normalize(s string) string { return normalize.Normalize(s) }

// SubScore is a tagged sub-score variant: a criterion either contributed a Value or was
// Skipped, and Skipped criteria contribute zero to both the numerator
// and the denominator of the weighted average.
type SubScore struct {
	Value   float64
	Skipped bool
}

// CriterionDetail records one criterion's full evaluation trail: its raw
// base score, the rule adjustments applied to it, its final clamped
// score (pre-multiplier), the multiplier used, and the evaluator's own
// structured detail (e.g. timing offset, duration category).
type CriterionDetail struct {
	Base        float64
	Skipped     bool
	Adjustments []string
	Final       float64
	Multiplier  float64
	Extra       map[string]any
}

// Score is the final per-item scoring result.
type Score struct {
	Final             float64
	Breakdown         map[profile.Criterion]SubScore
	Details           map[profile.Criterion]CriterionDetail
	Bonuses           []string
	Penalties         []string
	MandatoryMet      bool
	ForbiddenViolated bool
	KeywordMultiplier float64
	RuleViolations    []string
}
