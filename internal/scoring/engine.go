// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package scoring

import (
	"fmt"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/normalize"
	"github.com/tomtom215/tvprogram/internal/profile"
	"github.com/tomtom215/tvprogram/internal/scoring/criteria"
)

// Engine runs the nine criterion evaluators against one item and
// aggregates their outputs into a Score.
type Engine struct {
	evaluators map[profile.Criterion]criteria.Evaluator
}

// NewEngine wires the nine stateless evaluators. There is nothing to
// configure: every evaluator is a pure function of its Input.
func NewEngine() *Engine {
	return &Engine{
		evaluators: map[profile.Criterion]criteria.Evaluator{
			profile.CriterionType:     criteria.Type{},
			profile.CriterionDuration: criteria.Duration{},
			profile.CriterionGenre:    criteria.Genre{},
			profile.CriterionTiming:   criteria.Timing{},
			profile.CriterionStrategy: criteria.Strategy{},
			profile.CriterionAge:      criteria.Age{},
			profile.CriterionRating:   criteria.Rating{},
			profile.CriterionFilter:   criteria.Filter{},
			profile.CriterionBonus:    criteria.Bonus{},
		},
	}
}

// Score evaluates one item in its position context. effectiveBlock must
// already be the merged (profile-default ← block-override) configuration
// for the block the item is being scored in; see profile.Merge.
func (e *Engine) Score(item catalog.Item, effectiveBlock profile.BlockCriteria, prof *profile.Profile, pos criteria.PositionContext) Score {
	policy := profile.EffectivePolicy(effectiveBlock, prof.DefaultRulePolicy)
	multipliers := profile.EffectiveMultipliers(effectiveBlock, prof.Multipliers)
	rules := profile.EffectiveRules(effectiveBlock)

	breakdown := make(map[profile.Criterion]SubScore, len(profile.AllCriteria))
	details := make(map[profile.Criterion]CriterionDetail, len(profile.AllCriteria))

	var (
		numerator, denominator float64
		bonuses, penalties     []string
		ruleViolations         []string
		mandatoryConfigured    bool
		mandatoryAllMet        = true
		forbiddenViolated      bool
	)

	for _, c := range profile.AllCriteria {
		evaluator, ok := e.evaluators[c]
		if !ok {
			continue
		}

		outcome := evaluator.Evaluate(criteria.Input{
			Item:  item,
			Block: effectiveBlock,
			Rules: rules.Get(c),
			Pos:   pos,
		})

		if outcome.Skipped {
			breakdown[c] = SubScore{Skipped: true}
			details[c] = CriterionDetail{Skipped: true, Extra: outcome.Detail}
			continue
		}

		var (
			adjustments                       []string
			mandatoryMet, mandatoryMissed     bool
			forbiddenDetected, preferredMatch bool
		)
		for _, f := range outcome.Flags {
			switch f {
			case criteria.MandatoryMet:
				mandatoryMet = true
			case criteria.MandatoryMissed:
				mandatoryMissed = true
			case criteria.ForbiddenDetected:
				forbiddenDetected = true
			case criteria.PreferredMatched:
				preferredMatch = true
			}
		}

		adjusted := outcome.Base

		// When both a mandatory flag and a
		// forbidden flag are raised by the same criterion (e.g. an age
		// rating that is both allowed and forbidden), forbidden-detected
		// always dominates.
		if forbiddenDetected {
			adjusted += policy.ForbiddenDetectedPenalty
			adjustments = append(adjustments, fmt.Sprintf("%s:forbidden_detected:%.1f", c, policy.ForbiddenDetectedPenalty))
			penalties = append(penalties, string(c)+":forbidden_detected")
			ruleViolations = append(ruleViolations, string(c)+":forbidden")
			forbiddenViolated = true
		} else {
			if mandatoryMet {
				adjusted += policy.MandatoryMatchedBonus
				adjustments = append(adjustments, fmt.Sprintf("%s:mandatory_matched:%.1f", c, policy.MandatoryMatchedBonus))
				bonuses = append(bonuses, string(c)+":mandatory_matched")
			}
			if mandatoryMissed {
				mandatoryConfigured = true
				mandatoryAllMet = false
				adjusted += policy.MandatoryMissedPenalty
				adjustments = append(adjustments, fmt.Sprintf("%s:mandatory_missed:%.1f", c, policy.MandatoryMissedPenalty))
				penalties = append(penalties, string(c)+":mandatory_missed")
				ruleViolations = append(ruleViolations, string(c)+":mandatory_missed")
			} else if mandatoryMet {
				mandatoryConfigured = true
			}
			if preferredMatch {
				adjusted += policy.PreferredMatchedBonus
				adjustments = append(adjustments, fmt.Sprintf("%s:preferred_matched:%.1f", c, policy.PreferredMatchedBonus))
				bonuses = append(bonuses, string(c)+":preferred_matched")
			}
		}

		final := clamp(adjusted, 0, 100)
		mult := multipliers.Get(c)
		weight := prof.Weights.Get(c)

		numerator += final * weight * mult
		denominator += weight * mult

		breakdown[c] = SubScore{Value: final}
		details[c] = CriterionDetail{
			Base:        outcome.Base,
			Adjustments: adjustments,
			Final:       final,
			Multiplier:  mult,
			Extra:       outcome.Detail,
		}
	}

	avg := 0.0
	if denominator > 0 {
		avg = numerator / denominator
	}

	kwMultiplier := 1.0
	switch {
	case normalize.ContainsAny(item.Title, prof.ExcludeKeywords):
		kwMultiplier = 0.5
	case normalize.ContainsAny(item.Title, prof.IncludeKeywords):
		kwMultiplier = 1.1
	}
	kwMultiplier = clamp(kwMultiplier, 0.1, 2.0)

	avg = clamp(avg*kwMultiplier, 0, 100)

	if forbiddenViolated && prof.IsHardForbid() {
		avg = 0
	}

	return Score{
		Final:             avg,
		Breakdown:         breakdown,
		Details:           details,
		Bonuses:           bonuses,
		Penalties:         penalties,
		MandatoryMet:      mandatoryConfigured && mandatoryAllMet,
		ForbiddenViolated: forbiddenViolated,
		KeywordMultiplier: kwMultiplier,
		RuleViolations:    ruleViolations,
	}
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
