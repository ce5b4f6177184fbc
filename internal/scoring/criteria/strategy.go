// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import (
	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/normalize"
)

// Strategy applies additive adjustments driven by the block's scheduling
// strategy flags.
type Strategy struct{}

func (Strategy) Evaluate(in Input) Outcome {
	base := 100.0
	var adjustments []string

	if in.Block.MaintainSequence {
		base -= 5
		adjustments = append(adjustments, "maintain_sequence:-5")
	}

	if in.Block.MaximizeVariety && introducesUnseenGenre(in.Item.Genres, in.Pos.RecentGenres) {
		base += 5
		adjustments = append(adjustments, "maximize_variety:+5")
	}

	if in.Block.MarathonMode && in.Item.Collection != nil {
		if in.Pos.CollectionCounts[*in.Item.Collection] > 0 {
			base += 10
			adjustments = append(adjustments, "marathon_mode:+10")
		}
	}

	if in.Block.FillerInsertion && in.Item.Kind == catalog.KindFiller {
		base += 5
		adjustments = append(adjustments, "filler_insertion:+5")
	}

	return Outcome{
		Base:   clamp(base, 0, 100),
		Detail: map[string]any{"adjustments": adjustments},
	}
}

// introducesUnseenGenre reports whether item genres contain at least one
// genre absent from the last K items' genre set.
func introducesUnseenGenre(itemGenres, recentGenres []string) bool {
	for _, g := range itemGenres {
		if !normalize.MatchesAny(g, recentGenres) {
			return true
		}
	}
	return false
}

var _ Evaluator = Strategy{}
