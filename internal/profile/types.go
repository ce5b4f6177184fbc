// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package profile defines the declarative scoring configuration consumed
// by the engine: Profile, TimeBlock, RuleSet and RulePolicy, plus
// schema-validated loading and effective-configuration merge.
//
// Profiles are explicit, versioned structs: unknown top-level keys are
// rejected at Load instead of being silently ignored.
package profile

import "github.com/tomtom215/tvprogram/internal/catalog"

// Criterion identifies one of the nine scoring factors.
type Criterion string

const (
	CriterionType     Criterion = "type"
	CriterionDuration Criterion = "duration"
	CriterionGenre    Criterion = "genre"
	CriterionTiming   Criterion = "timing"
	CriterionStrategy Criterion = "strategy"
	CriterionAge      Criterion = "age"
	CriterionRating   Criterion = "rating"
	CriterionFilter   Criterion = "filter"
	CriterionBonus    Criterion = "bonus"
)

// AllCriteria lists the nine criteria in the fixed order weights/
// multipliers are enumerated in.
var AllCriteria = []Criterion{
	CriterionType, CriterionDuration, CriterionGenre, CriterionTiming,
	CriterionStrategy, CriterionAge, CriterionRating, CriterionFilter,
	CriterionBonus,
}

// RulePolicy is the four-number adjustment policy applied once per
// criterion after evaluation: bonuses/penalties for mandatory and
// forbidden rule flags.
type RulePolicy struct {
	MandatoryMatchedBonus    float64 `json:"mandatory_matched_bonus"`
	MandatoryMissedPenalty   float64 `json:"mandatory_missed_penalty"`
	ForbiddenDetectedPenalty float64 `json:"forbidden_detected_penalty"`
	PreferredMatchedBonus    float64 `json:"preferred_matched_bonus"`
}

// DefaultRulePolicy is the baked-in policy for a profile that never
// configures its own.
func DefaultRulePolicy() RulePolicy {
	return RulePolicy{
		MandatoryMatchedBonus:    10,
		MandatoryMissedPenalty:   -20,
		ForbiddenDetectedPenalty: -100,
		PreferredMatchedBonus:    5,
	}
}

// RuleSet is the per-criterion membership configuration: which values are
// mandatory, forbidden, or merely preferred.
type RuleSet struct {
	Mandatory []string `json:"mandatory,omitempty"`
	Forbidden []string `json:"forbidden,omitempty"`
	Preferred []string `json:"preferred,omitempty"`
}

// Weights holds the nine per-criterion importances used in the weighted
// average. Default sum is approximately 110.
type Weights struct {
	Type     float64 `json:"type" validate:"gte=0"`
	Duration float64 `json:"duration" validate:"gte=0"`
	Genre    float64 `json:"genre" validate:"gte=0"`
	Timing   float64 `json:"timing" validate:"gte=0"`
	Strategy float64 `json:"strategy" validate:"gte=0"`
	Age      float64 `json:"age" validate:"gte=0"`
	Rating   float64 `json:"rating" validate:"gte=0"`
	Filter   float64 `json:"filter" validate:"gte=0"`
	Bonus    float64 `json:"bonus" validate:"gte=0"`
}

// Get returns the configured weight for the given criterion.
func (w Weights) Get(c Criterion) float64 {
	switch c {
	case CriterionType:
		return w.Type
	case CriterionDuration:
		return w.Duration
	case CriterionGenre:
		return w.Genre
	case CriterionTiming:
		return w.Timing
	case CriterionStrategy:
		return w.Strategy
	case CriterionAge:
		return w.Age
	case CriterionRating:
		return w.Rating
	case CriterionFilter:
		return w.Filter
	case CriterionBonus:
		return w.Bonus
	default:
		return 0
	}
}

// DefaultWeights sums to approximately 110.
func DefaultWeights() Weights {
	return Weights{
		Type: 10, Duration: 10, Genre: 15, Timing: 15, Strategy: 10,
		Age: 10, Rating: 15, Filter: 10, Bonus: 15,
	}
}

// Multipliers holds the nine per-criterion amplification factors, default 1.0.
type Multipliers struct {
	Type     float64 `json:"type"`
	Duration float64 `json:"duration"`
	Genre    float64 `json:"genre"`
	Timing   float64 `json:"timing"`
	Strategy float64 `json:"strategy"`
	Age      float64 `json:"age"`
	Rating   float64 `json:"rating"`
	Filter   float64 `json:"filter"`
	Bonus    float64 `json:"bonus"`
}

// Get returns the configured multiplier for the given criterion.
func (m Multipliers) Get(c Criterion) float64 {
	switch c {
	case CriterionType:
		return m.Type
	case CriterionDuration:
		return m.Duration
	case CriterionGenre:
		return m.Genre
	case CriterionTiming:
		return m.Timing
	case CriterionStrategy:
		return m.Strategy
	case CriterionAge:
		return m.Age
	case CriterionRating:
		return m.Rating
	case CriterionFilter:
		return m.Filter
	case CriterionBonus:
		return m.Bonus
	default:
		return 1
	}
}

// DefaultMultipliers returns all nine multipliers set to 1.0.
func DefaultMultipliers() Multipliers {
	return Multipliers{1, 1, 1, 1, 1, 1, 1, 1, 1}
}

// TimingThresholds holds the three non-negative minute thresholds the
// Timing criterion interpolates across: Preferred <= Mandatory <= Forbidden.
type TimingThresholds struct {
	PreferredMinutes float64 `json:"preferred_minutes" validate:"gte=0"`
	MandatoryMinutes float64 `json:"mandatory_minutes" validate:"gte=0"`
	ForbiddenMinutes float64 `json:"forbidden_minutes" validate:"gte=0"`
}

// DefaultTimingThresholds is the fallback when a block sets none.
func DefaultTimingThresholds() TimingThresholds {
	return TimingThresholds{PreferredMinutes: 5, MandatoryMinutes: 15, ForbiddenMinutes: 30}
}

// RuleSets bundles one RuleSet per criterion that supports membership rules.
type RuleSets struct {
	Type     RuleSet `json:"type"`
	Duration RuleSet `json:"duration"`
	Genre    RuleSet `json:"genre"`
	Age      RuleSet `json:"age"`
	Rating   RuleSet `json:"rating"`
	Filter   RuleSet `json:"filter"`
}

// Get returns the RuleSet configured for the given criterion, or the zero
// value if that criterion carries no membership rules.
func (r RuleSets) Get(c Criterion) RuleSet {
	switch c {
	case CriterionType:
		return r.Type
	case CriterionDuration:
		return r.Duration
	case CriterionGenre:
		return r.Genre
	case CriterionAge:
		return r.Age
	case CriterionRating:
		return r.Rating
	case CriterionFilter:
		return r.Filter
	default:
		return RuleSet{}
	}
}

// BlockCriteria is the full set of optional scoring criteria a TimeBlock
// (or the profile-level default) may configure. Every field is optional;
// an unset field falls back to the profile-level default during Merge.
type BlockCriteria struct {
	PreferredKinds []catalog.Kind `json:"preferred_kinds,omitempty"`
	AllowedKinds   []catalog.Kind `json:"allowed_kinds,omitempty"`
	ExcludedKinds  []catalog.Kind `json:"excluded_kinds,omitempty"`

	PreferredGenres []string `json:"preferred_genres,omitempty"`
	AllowedGenres   []string `json:"allowed_genres,omitempty"`
	ForbiddenGenres []string `json:"forbidden_genres,omitempty"`

	MinDurationMinutes *float64 `json:"min_duration_minutes,omitempty"`
	MaxDurationMinutes *float64 `json:"max_duration_minutes,omitempty"`

	MaxAgeLevel  *int     `json:"max_age_level,omitempty"`
	AllowedAges  []string `json:"allowed_ages,omitempty"`

	MinRating     *float64 `json:"min_rating,omitempty"`
	PreferRating  *float64 `json:"prefer_rating,omitempty"`
	MinVoteCount  *int     `json:"min_vote_count,omitempty"`

	IncludeKeywords []string `json:"include_keywords,omitempty"`
	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`

	PreferredKeywords []string `json:"preferred_keywords,omitempty"`
	PreferredStudios  []string `json:"preferred_studios,omitempty"`
	ForbiddenKeywords []string `json:"forbidden_keywords,omitempty"`
	ForbiddenStudios  []string `json:"forbidden_studios,omitempty"`

	Timing *TimingThresholds `json:"timing,omitempty"`

	MaintainSequence bool `json:"maintain_sequence,omitempty"`
	MaximizeVariety  bool `json:"maximize_variety,omitempty"`
	MarathonMode     bool `json:"marathon_mode,omitempty"`
	FillerInsertion  bool `json:"filler_insertion,omitempty"`

	ForbiddenMaxMinutes *float64 `json:"forbidden_max_minutes,omitempty"`

	Rules      *RuleSets   `json:"rules,omitempty"`
	Policy     *RulePolicy `json:"policy,omitempty"`
	Multiplier *Multipliers `json:"multiplier,omitempty"`
}

// TimeBlock is a named wall-clock window in each day with its own
// criteria. StartHM/EndHM are "HH:MM"; EndHM <= StartHM (lexicographically)
// means the block spans midnight.
type TimeBlock struct {
	Name     string        `json:"name" validate:"required"`
	StartHM  string        `json:"start" validate:"required,hhmm"`
	EndHM    string        `json:"end" validate:"required,hhmm"`
	Criteria BlockCriteria `json:"criteria"`
}

// Profile is the full container of scoring configuration for one channel.
type Profile struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	SchemaVersion int    `json:"schema_version" validate:"required,gte=1"`

	SourceLibraries []string    `json:"source_libraries"`
	TimeBlocks      []TimeBlock `json:"time_blocks" validate:"dive"`

	DefaultCriteria   BlockCriteria `json:"default_criteria"`
	DefaultRulePolicy RulePolicy    `json:"default_rule_policy"`

	Multipliers Multipliers `json:"multipliers"`
	Weights     Weights     `json:"weights"`

	DefaultIterations int     `json:"default_iterations" validate:"gte=1"`
	DefaultRandomness float64 `json:"default_randomness" validate:"gte=0,lte=1"`

	ExcludeKeywords []string `json:"exclude_keywords,omitempty"`
	IncludeKeywords []string `json:"include_keywords,omitempty"`

	// HardForbid defaults true: any forbidden-detected flag zeroes the
	// final score outright. A pointer distinguishes "absent from the
	// document" (defaults true) from an explicit false.
	HardForbid *bool `json:"hard_forbid,omitempty"`
}

// IsHardForbid returns the effective hard_forbid value, defaulting to true
// when the profile document did not set it.
func (p Profile) IsHardForbid() bool {
	if p.HardForbid == nil {
		return true
	}
	return *p.HardForbid
}
