// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package criteria

// Timing is position-dependent and adaptive: it is skipped entirely
// for items that are neither first nor last within their block
// occurrence, since only the boundary items can be early/late relative
// to the block's edges.
type Timing struct{}

func (Timing) Evaluate(in Input) Outcome {
	if !in.Pos.IsFirstInBlock && !in.Pos.IsLastInBlock {
		return Outcome{Skipped: true, Detail: map[string]any{"skipped": true}}
	}

	thresholds := in.Block.Timing
	p, m, fMax := 5.0, 15.0, 30.0
	if thresholds != nil {
		p, m, fMax = thresholds.PreferredMinutes, thresholds.MandatoryMinutes, thresholds.ForbiddenMinutes
	}

	var offset float64
	if in.Pos.IsFirstInBlock {
		lateStart := in.Pos.ItemStart.Sub(in.Pos.BlockStart).Minutes()
		offset = maxFloat(offset, maxFloat(lateStart, 0))
	}
	if in.Pos.IsLastInBlock {
		overflow := in.Pos.ItemEnd.Sub(in.Pos.BlockEnd).Minutes()
		offset = maxFloat(offset, maxFloat(overflow, 0))
	}

	base := timingScore(offset, p, m, fMax)

	return Outcome{
		Base: base,
		Detail: map[string]any{
			"offset_minutes": offset,
			"first":          in.Pos.IsFirstInBlock,
			"last":           in.Pos.IsLastInBlock,
		},
	}
}

// timingScore implements the piecewise-linear offset curve.
func timingScore(offset, p, m, f float64) float64 {
	switch {
	case offset <= 0:
		return 100
	case offset <= p:
		return interpolate(offset, 0, p, 100, 85)
	case offset <= m:
		return interpolate(offset, p, m, 85, 50)
	case offset <= f:
		return interpolate(offset, m, f, 50, 5)
	default:
		return 0
	}
}

// interpolate linearly maps x from [x0, x1] to [y0, y1]. x0 == x1 returns
// y1 to avoid division by zero (a zero-width threshold band).
func interpolate(x, x0, x1, y0, y1 float64) float64 {
	if x1 == x0 {
		return y1
	}
	t := (x - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

var _ Evaluator = Timing{}
