// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import "github.com/tomtom215/tvprogram/internal/normalize"

// durationCategory classifies a runtime in minutes for rule membership.
func durationCategory(minutes float64) string {
	switch {
	case minutes < 60:
		return "short"
	case minutes <= 120:
		return "standard"
	case minutes <= 180:
		return "long"
	default:
		return "very_long"
	}
}

// Duration scores an item's runtime against the block's min/max duration
// bounds.
type Duration struct{}

func (Duration) Evaluate(in Input) Outcome {
	d := in.Item.DurationMinutes()
	category := durationCategory(d)

	var flags []RuleFlag
	if normalize.MatchesAny(category, in.Rules.Mandatory) {
		flags = append(flags, MandatoryMet)
	} else if len(in.Rules.Mandatory) > 0 {
		flags = append(flags, MandatoryMissed)
	}
	if normalize.MatchesAny(category, in.Rules.Forbidden) {
		flags = append(flags, ForbiddenDetected)
	}
	if normalize.MatchesAny(category, in.Rules.Preferred) {
		flags = append(flags, PreferredMatched)
	}

	lo, hi := 0.0, 0.0
	if in.Block.MinDurationMinutes != nil {
		lo = *in.Block.MinDurationMinutes
	}
	if in.Block.MaxDurationMinutes != nil {
		hi = *in.Block.MaxDurationMinutes
	}

	var base float64
	switch {
	case lo <= 0 && hi <= 0:
		// No bounds configured: neutral pass, matches the original's
		// "no constraint means don't penalize" behavior.
		base = 85
	case d >= lo && (hi <= 0 || d <= hi):
		mid := (lo + hi) / 2
		if hi <= 0 || mid <= lo {
			base = 100
		} else {
			span := hi - lo
			dist := abs(d - mid)
			base = 100 - (dist/(span/2))*30
		}
	case d < lo:
		if lo > 0 {
			base = (d / lo) * 50
		}
	default: // d > hi
		base = 100 - clamp((d-hi)/hi, 0, 1)*50
	}

	return Outcome{
		Base:   clamp(base, 0, 100),
		Detail: map[string]any{"minutes": d, "category": category},
		Flags:  flags,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

var _ Evaluator = Duration{}
