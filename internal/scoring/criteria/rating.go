// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import "github.com/tomtom215/tvprogram/internal/normalize"

// ratingCategory classifies an external rating for rule membership.
func ratingCategory(r float64) string {
	switch {
	case r >= 8.0:
		return "excellent"
	case r >= 7.0:
		return "good"
	case r >= 5.0:
		return "average"
	default:
		return "poor"
	}
}

// Rating scores the item's external rating against the block's minimum
// and preferred thresholds, with a confidence penalty for low vote
// counts.
type Rating struct{}

func (Rating) Evaluate(in Input) Outcome {
	if in.Item.Rating == nil {
		return Outcome{Base: 50, Detail: map[string]any{"rating": nil}}
	}
	r := *in.Item.Rating

	m, p := 5.0, 8.0
	if in.Block.MinRating != nil {
		m = *in.Block.MinRating
	}
	if in.Block.PreferRating != nil {
		p = *in.Block.PreferRating
	}

	var base float64
	switch {
	case p >= 10 && r >= 10:
		// The (10-p) denominator is undefined at p==10; r==10 is the
		// only value in the r>=p branch there, and it maps to the
		// formula's maximum, 100.
		base = 100
	case r >= p:
		denom := 10 - p
		if denom <= 0 {
			// p > 10 cannot occur given validation bounds, but guard
			// against a division by a non-positive denominator anyway.
			base = 100
		} else {
			base = clamp(70+((r-p)/denom)*30, 0, 100)
		}
	case r >= m:
		denom := p - m
		if denom <= 0 {
			base = 50
		} else {
			base = 50 + ((r-m)/denom)*40
		}
	default:
		if m > 0 {
			base = (r / m) * 40
		}
	}

	if in.Block.MinVoteCount != nil && *in.Block.MinVoteCount > 0 {
		vcMin := *in.Block.MinVoteCount
		vc := 0
		if in.Item.VoteCount != nil {
			vc = *in.Item.VoteCount
		}
		if vc < vcMin {
			shortfall := float64(vcMin-vc) / float64(vcMin)
			base -= clamp(shortfall, 0, 1) * 30
		}
	}

	category := ratingCategory(r)
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

	return Outcome{
		Base:   clamp(base, 0, 100),
		Detail: map[string]any{"rating": r, "category": category},
		Flags:  flags,
	}
}

var _ Evaluator = Rating{}
