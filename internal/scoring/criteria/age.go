// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import "github.com/tomtom215/tvprogram/internal/normalize"

// Age maps the item's age rating onto the rating equivalence table and
// scores it against the block's allowed maximum level.
type Age struct{}

func (Age) Evaluate(in Input) Outcome {
	var flags []RuleFlag

	if in.Item.AgeRating == nil {
		return Outcome{Base: 75, Detail: map[string]any{"age_rating": nil}}
	}

	code := *in.Item.AgeRating
	level, known := normalize.AgeLevel(code)

	if len(in.Block.AllowedAges) > 0 && !normalize.MatchesAny(code, in.Block.AllowedAges) {
		return Outcome{
			Base:   0,
			Detail: map[string]any{"age_rating": code, "level": level},
			Flags:  []RuleFlag{ForbiddenDetected},
		}
	}

	if in.Block.MaxAgeLevel == nil {
		if len(in.Rules.Mandatory) > 0 {
			if normalize.MatchesAny(code, in.Rules.Mandatory) {
				flags = append(flags, MandatoryMet)
			} else {
				flags = append(flags, MandatoryMissed)
			}
		}
		if normalize.MatchesAny(code, in.Rules.Forbidden) {
			flags = append(flags, ForbiddenDetected)
		}
		base := 80.0
		if len(in.Block.AllowedAges) > 0 {
			// An allow-list the item passed is a restriction, scored
			// like sitting at the boundary of an allowed range.
			base = 90
		}
		return Outcome{Base: base, Detail: map[string]any{"age_rating": code, "level": level}, Flags: flags}
	}

	if !known {
		return Outcome{Base: 75, Detail: map[string]any{"age_rating": code, "level": nil}}
	}

	maxLevel := *in.Block.MaxAgeLevel
	base := 0.0
	switch {
	case level < maxLevel:
		base = 100
	case level == maxLevel:
		base = 90
	default:
		base = 0
		flags = append(flags, ForbiddenDetected)
	}

	if normalize.MatchesAny(code, in.Rules.Forbidden) {
		if flagsLack(flags, ForbiddenDetected) {
			flags = append(flags, ForbiddenDetected)
		}
	}

	return Outcome{
		Base:   base,
		Detail: map[string]any{"age_rating": code, "level": level, "max_level": maxLevel},
		Flags:  flags,
	}
}

func flagsLack(flags []RuleFlag, target RuleFlag) bool {
	for _, f := range flags {
		if f == target {
			return false
		}
	}
	return true
}

var _ Evaluator = Age{}
