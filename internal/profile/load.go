// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tomtom215/tvprogram/internal/validation"
)

// ErrUnknownField is wrapped into the returned error when a profile
// document contains a top-level or nested key this schema version does
// not recognize. Unrecognized keys are rejected at load rather than
// silently ignored.
var ErrUnknownField = errors.New("profile: unknown field")

// Load decodes and validates a Profile document. Unknown fields anywhere
// in the document are rejected (via json.Decoder.DisallowUnknownFields),
// and the decoded struct is then run through struct-tag validation.
func Load(data []byte) (*Profile, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var p Profile
	if err := dec.Decode(&p); err != nil {
		if isUnknownFieldError(err) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownField, err)
		}
		return nil, fmt.Errorf("profile: decode: %w", err)
	}

	applyDefaults(&p)

	if verr := validation.ValidateStruct(&p); verr != nil {
		return nil, fmt.Errorf("profile: %w", verr)
	}

	return &p, nil
}

// isUnknownFieldError detects the sentinel message encoding/json uses for
// DisallowUnknownFields violations; the stdlib does not expose a typed
// error for this.
func isUnknownFieldError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return len(msg) > 17 && msg[:17] == "json: unknown fie"
}

// applyDefaults fills zero-valued optional fields with the documented
// defaults (weights, multipliers, rule policy, iteration count, schema
// version) so a minimal profile document remains usable.
func applyDefaults(p *Profile) {
	if p.Weights == (Weights{}) {
		p.Weights = DefaultWeights()
	}
	if p.Multipliers == (Multipliers{}) {
		p.Multipliers = DefaultMultipliers()
	}
	if p.DefaultRulePolicy == (RulePolicy{}) {
		p.DefaultRulePolicy = DefaultRulePolicy()
	}
	if p.DefaultIterations == 0 {
		p.DefaultIterations = 50
	}
	if p.SchemaVersion == 0 {
		p.SchemaVersion = 1
	}
}
