// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package normalize

// ageLevels is the age-rating equivalence table, keyed by normalized code.
var ageLevels = map[string]int{
	"g": 0, "tv-g": 0, "tv-y": 0, "tp": 0, "u": 0, "tous publics": 0,
	"pg": 1, "tv-pg": 1,
	"pg-13": 2, "tv-14": 2, "+12": 2, "12a": 2,
	"r": 3, "tv-ma": 3, "+16": 3,
	"nc-17": 4, "+18": 4,
}

// AgeLevel maps an age-rating code to its equivalence level 0-4. The
// second return value is false when the code is not in the table.
func AgeLevel(code string) (int, bool) {
	level, ok := ageLevels[Normalize(code)]
	return level, ok
}
