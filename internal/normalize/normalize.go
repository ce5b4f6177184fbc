// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package normalize provides the single case-insensitive, accent-folding
// string comparison helper used by every criterion rule membership test.
package normalize

import "strings"

// accentFold maps common accented Latin runes to their unaccented form.
// This deliberately covers the alphabet ranges that show up in media
// metadata (French, Spanish, German, Portuguese titles and genres) rather
// than attempting full Unicode NFKD folding.
var accentFold = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
	'ý': 'y', 'ÿ': 'y',
	'ñ': 'n', 'ç': 'c',
	'À': 'A', 'Á': 'A', 'Â': 'A', 'Ã': 'A', 'Ä': 'A', 'Å': 'A',
	'È': 'E', 'É': 'E', 'Ê': 'E', 'Ë': 'E',
	'Ì': 'I', 'Í': 'I', 'Î': 'I', 'Ï': 'I',
	'Ò': 'O', 'Ó': 'O', 'Ô': 'O', 'Õ': 'O', 'Ö': 'O',
	'Ù': 'U', 'Ú': 'U', 'Û': 'U', 'Ü': 'U',
	'Ý': 'Y',
	'Ñ': 'N', 'Ç': 'C',
}

// Normalize lowercases and strips accents from s so that "Tous publics",
// "tous Publics" and an accented genre name all compare equal.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if folded, ok := accentFold[r]; ok {
			r = folded
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// Equal reports whether a and b are equal after normalization.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Contains reports whether needle appears as a substring of haystack
// after normalizing both.
func Contains(haystack, needle string) bool {
	return strings.Contains(Normalize(haystack), Normalize(needle))
}

// MatchesAny reports whether value equals (after normalization) any entry
// in set.
func MatchesAny(value string, set []string) bool {
	if len(set) == 0 {
		return false
	}
	nv := Normalize(value)
	for _, s := range set {
		if Normalize(s) == nv {
			return true
		}
	}
	return false
}

// AnyMatchesAny reports whether any of values equals (after
// normalization) any entry in set.
func AnyMatchesAny(values []string, set []string) bool {
	if len(values) == 0 || len(set) == 0 {
		return false
	}
	for _, v := range values {
		if MatchesAny(v, set) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether haystack contains (as a substring, after
// normalization) any entry in needles. Used for the profile-level title
// keyword multiplier and the generator's block exclude-keywords title
// check.
func ContainsAny(haystack string, needles []string) bool {
	if haystack == "" || len(needles) == 0 {
		return false
	}
	nh := Normalize(haystack)
	for _, n := range needles {
		if n == "" {
			continue
		}
		if strings.Contains(nh, Normalize(n)) {
			return true
		}
	}
	return false
}

// OverlapCount returns the number of elements of a that match (after
// normalization) at least one element of b.
func OverlapCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	count := 0
	for _, v := range a {
		if MatchesAny(v, b) {
			count++
		}
	}
	return count
}
