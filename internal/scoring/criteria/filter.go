// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import "github.com/tomtom215/tvprogram/internal/normalize"

// Filter scores keyword and studio matches, distinct from the profile-
// level title keyword multiplier applied by the scoring engine.
type Filter struct{}

func (Filter) Evaluate(in Input) Outcome {
	hasMetadata := len(in.Item.Keywords) > 0 || len(in.Item.Studios) > 0

	forbiddenKeyword := normalize.AnyMatchesAny(in.Item.Keywords, in.Block.ForbiddenKeywords)
	forbiddenStudio := normalize.AnyMatchesAny(in.Item.Studios, in.Block.ForbiddenStudios)

	if forbiddenKeyword || forbiddenStudio {
		return Outcome{
			Base:   0,
			Detail: map[string]any{"forbidden_keyword": forbiddenKeyword, "forbidden_studio": forbiddenStudio},
			Flags:  []RuleFlag{ForbiddenDetected},
		}
	}

	base := 50.0
	if hasMetadata {
		base = 75
	}

	keywordMatches := normalize.OverlapCount(in.Item.Keywords, in.Block.PreferredKeywords)
	studioMatches := normalize.OverlapCount(in.Item.Studios, in.Block.PreferredStudios)

	base += minFloat(15, float64(keywordMatches)*5)
	base += minFloat(10, float64(studioMatches)*5)

	meta := make([]string, 0, len(in.Item.Keywords)+len(in.Item.Studios))
	meta = append(meta, in.Item.Keywords...)
	meta = append(meta, in.Item.Studios...)

	var flags []RuleFlag
	if normalize.AnyMatchesAny(meta, in.Rules.Mandatory) {
		flags = append(flags, MandatoryMet)
	} else if len(in.Rules.Mandatory) > 0 {
		flags = append(flags, MandatoryMissed)
	}
	if normalize.AnyMatchesAny(meta, in.Rules.Forbidden) {
		flags = append(flags, ForbiddenDetected)
	}
	if normalize.AnyMatchesAny(meta, in.Rules.Preferred) {
		flags = append(flags, PreferredMatched)
	}

	return Outcome{
		Base: clamp(base, 0, 100),
		Detail: map[string]any{
			"keyword_matches": keywordMatches,
			"studio_matches":  studioMatches,
		},
		Flags: flags,
	}
}

var _ Evaluator = Filter{}
