// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import (
	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/normalize"
)

// Type evaluates an item's kind against the block's preferred/allowed/
// excluded kind lists.
type Type struct{}

func (Type) Evaluate(in Input) Outcome {
	kind := string(in.Item.Kind)

	var flags []RuleFlag
	if normalize.MatchesAny(kind, in.Rules.Mandatory) {
		flags = append(flags, MandatoryMet)
	} else if len(in.Rules.Mandatory) > 0 {
		flags = append(flags, MandatoryMissed)
	}
	if normalize.MatchesAny(kind, in.Rules.Forbidden) {
		flags = append(flags, ForbiddenDetected)
	}
	if normalize.MatchesAny(kind, in.Rules.Preferred) {
		flags = append(flags, PreferredMatched)
	}

	preferred := kindStrings(in.Block.PreferredKinds)
	allowed := kindStrings(in.Block.AllowedKinds)
	excluded := kindStrings(in.Block.ExcludedKinds)

	base := 0.0
	switch {
	case normalize.MatchesAny(kind, preferred):
		base = 100
	case normalize.MatchesAny(kind, allowed) || (len(allowed) == 0 && !normalize.MatchesAny(kind, excluded)):
		base = 75
	case normalize.MatchesAny(kind, excluded):
		base = 0
	}

	return Outcome{
		Base:   base,
		Detail: map[string]any{"kind": kind},
		Flags:  flags,
	}
}

func kindStrings(kinds []catalog.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

var _ Evaluator = Type{}
