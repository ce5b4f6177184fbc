// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

import (
	"time"

	"github.com/tomtom215/tvprogram/internal/normalize"
)

// holidayKeywords is the fixed keyword list the Oct-Dec seasonal bonus
// checks against.
var holidayKeywords = []string{"christmas", "xmas", "holiday", "halloween", "thanksgiving"}

// Bonus applies additive contextual adjustments for recency, commercial
// performance, collection membership, popularity and seasonality.
type Bonus struct{}

func (Bonus) Evaluate(in Input) Outcome {
	base := 0.0
	var applied []string

	now := in.Pos.Now
	if now.IsZero() {
		now = time.Now()
	}
	currentYear := now.Year()

	if in.Item.Year != nil {
		y := *in.Item.Year
		switch {
		case y >= currentYear-2:
			base += 20
			applied = append(applied, "recent_release:+20")
		case y >= currentYear-5:
			base += 10
			applied = append(applied, "recent_release:+10")
		case y < currentYear-20:
			base -= 5
			applied = append(applied, "dated_release:-5")
		}
	}

	if in.Item.Budget != nil && in.Item.Revenue != nil && *in.Item.Budget > 0 {
		ratio := float64(*in.Item.Revenue) / float64(*in.Item.Budget)
		switch {
		case ratio > 3:
			base += 15
			applied = append(applied, "box_office:+15")
		case ratio > 2:
			base += 10
			applied = append(applied, "box_office:+10")
		}
	}

	if in.Item.Collection != nil && *in.Item.Collection != "" {
		base += 5
		applied = append(applied, "collection:+5")
		if in.Pos.CollectionCounts[*in.Item.Collection] > 0 {
			base += 5
			applied = append(applied, "collection_elsewhere:+5")
		}
	}

	if in.Item.VoteCount != nil {
		switch {
		case *in.Item.VoteCount > 10000:
			base += 10
			applied = append(applied, "popularity:+10")
		case *in.Item.VoteCount > 5000:
			base += 5
			applied = append(applied, "popularity:+5")
		}
	}

	month := now.Month()
	if month >= time.October && month <= time.December && normalize.AnyMatchesAny(in.Item.Keywords, holidayKeywords) {
		base += 15
		applied = append(applied, "seasonal:+15")
	}

	return Outcome{
		Base:   clamp(base, 0, 100),
		Detail: map[string]any{"applied": applied},
	}
}

var _ Evaluator = Bonus{}
