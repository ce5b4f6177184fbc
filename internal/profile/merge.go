// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package profile

// Merge computes the effective block configuration: block-override ←
// profile-default, field by field. The merge happens once, explicitly,
// at job start, rather than being re-derived on every lookup.
func Merge(def, override BlockCriteria) BlockCriteria {
	out := def

	if len(override.PreferredKinds) > 0 {
		out.PreferredKinds = override.PreferredKinds
	}
	if len(override.AllowedKinds) > 0 {
		out.AllowedKinds = override.AllowedKinds
	}
	if len(override.ExcludedKinds) > 0 {
		out.ExcludedKinds = override.ExcludedKinds
	}

	if len(override.PreferredGenres) > 0 {
		out.PreferredGenres = override.PreferredGenres
	}
	if len(override.AllowedGenres) > 0 {
		out.AllowedGenres = override.AllowedGenres
	}
	if len(override.ForbiddenGenres) > 0 {
		out.ForbiddenGenres = override.ForbiddenGenres
	}

	if override.MinDurationMinutes != nil {
		out.MinDurationMinutes = override.MinDurationMinutes
	}
	if override.MaxDurationMinutes != nil {
		out.MaxDurationMinutes = override.MaxDurationMinutes
	}

	if override.MaxAgeLevel != nil {
		out.MaxAgeLevel = override.MaxAgeLevel
	}
	if len(override.AllowedAges) > 0 {
		out.AllowedAges = override.AllowedAges
	}

	if override.MinRating != nil {
		out.MinRating = override.MinRating
	}
	if override.PreferRating != nil {
		out.PreferRating = override.PreferRating
	}
	if override.MinVoteCount != nil {
		out.MinVoteCount = override.MinVoteCount
	}

	if len(override.IncludeKeywords) > 0 {
		out.IncludeKeywords = override.IncludeKeywords
	}
	if len(override.ExcludeKeywords) > 0 {
		out.ExcludeKeywords = override.ExcludeKeywords
	}
	if len(override.PreferredKeywords) > 0 {
		out.PreferredKeywords = override.PreferredKeywords
	}
	if len(override.PreferredStudios) > 0 {
		out.PreferredStudios = override.PreferredStudios
	}
	if len(override.ForbiddenKeywords) > 0 {
		out.ForbiddenKeywords = override.ForbiddenKeywords
	}
	if len(override.ForbiddenStudios) > 0 {
		out.ForbiddenStudios = override.ForbiddenStudios
	}

	if override.Timing != nil {
		out.Timing = override.Timing
	}
	if out.Timing == nil {
		t := DefaultTimingThresholds()
		out.Timing = &t
	}

	// Strategy flags are block-local by nature (maintain_sequence etc
	// describe how THIS block is scheduled); a block always carries its
	// own value rather than inheriting the profile default.
	out.MaintainSequence = override.MaintainSequence
	out.MaximizeVariety = override.MaximizeVariety
	out.MarathonMode = override.MarathonMode
	out.FillerInsertion = override.FillerInsertion

	if override.ForbiddenMaxMinutes != nil {
		out.ForbiddenMaxMinutes = override.ForbiddenMaxMinutes
	}

	if override.Rules != nil {
		out.Rules = override.Rules
	}
	if override.Policy != nil {
		out.Policy = override.Policy
	}
	if override.Multiplier != nil {
		out.Multiplier = override.Multiplier
	}

	return out
}

// EffectivePolicy returns the block's rule policy, falling back to the
// profile default when the block did not override it.
func EffectivePolicy(block BlockCriteria, profileDefault RulePolicy) RulePolicy {
	if block.Policy != nil {
		return *block.Policy
	}
	return profileDefault
}

// EffectiveMultipliers returns the block's multiplier set, falling back to
// the profile default when the block did not override it.
func EffectiveMultipliers(block BlockCriteria, profileDefault Multipliers) Multipliers {
	if block.Multiplier != nil {
		return *block.Multiplier
	}
	return profileDefault
}

// EffectiveRules returns the block's rule set bundle, falling back to an
// empty RuleSets (no membership rules configured) when unset.
func EffectiveRules(block BlockCriteria) RuleSets {
	if block.Rules != nil {
		return *block.Rules
	}
	return RuleSets{}
}
