// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package generator

import "errors"

// ErrNoFeasibleSchedule is returned when every iteration fails to cover
// the horizon even after the full edge-policy relaxation ladder.
var ErrNoFeasibleSchedule = errors.New("generator: no feasible schedule")

// errNoFeasibleIteration fails a single iteration whose current block
// has no candidate even at the ladder's most relaxed rung.
var errNoFeasibleIteration = errors.New("generator: no candidate satisfies even the relaxed edge policy")
