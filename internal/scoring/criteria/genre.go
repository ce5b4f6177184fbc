// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import "github.com/tomtom215/tvprogram/internal/normalize"

// Genre scores genre overlap against the block's preferred/forbidden
// genre lists.
type Genre struct{}

func (Genre) Evaluate(in Input) Outcome {
	if len(in.Item.Genres) == 0 {
		return Outcome{Base: 50, Detail: map[string]any{"genres": []string{}}}
	}

	overlap := normalize.OverlapCount(in.Item.Genres, in.Block.PreferredGenres)
	baseline := 65.0 + float64(minInt(overlap, 2))*5

	bonus := 0.0
	if overlap > 0 {
		bonus = minFloat(25, float64(overlap)*12.5)
	}

	var flags []RuleFlag
	if normalize.AnyMatchesAny(in.Item.Genres, in.Rules.Mandatory) {
		flags = append(flags, MandatoryMet)
	} else if len(in.Rules.Mandatory) > 0 {
		flags = append(flags, MandatoryMissed)
	}
	if normalize.AnyMatchesAny(in.Item.Genres, in.Rules.Forbidden) || normalize.AnyMatchesAny(in.Item.Genres, in.Block.ForbiddenGenres) {
		flags = append(flags, ForbiddenDetected)
	}
	if normalize.AnyMatchesAny(in.Item.Genres, in.Rules.Preferred) {
		flags = append(flags, PreferredMatched)
	}

	return Outcome{
		Base:   baseline + bonus,
		Detail: map[string]any{"genres": in.Item.Genres, "preferred_overlap": overlap},
		Flags:  flags,
	}
}

var _ Evaluator = Genre{}
