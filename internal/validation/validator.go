// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package validation wraps go-playground/validator v10 behind one
// process-wide instance carrying the custom rules this module's
// profile and configuration structs use. Loaded profiles and the
// assembled config both pass through ValidateStruct before anything
// downstream trusts their field values.
//
// The one custom tag is "hhmm": a 24-hour wall-clock time of day in
// zero-padded "HH:MM" form, the format time-block boundaries are
// declared in. The built-in datetime tag is close but accepts
// layouts the block arithmetic would misparse, so the rule is exact.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError is one struct field that failed a validation rule.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Message string
}

func (e FieldError) Error() string { return e.Message }

// Error aggregates every failed field from one ValidateStruct call.
// Submissions built from an invalid profile or config surface this to
// the caller as the structured rejection reason.
type Error struct {
	fields []FieldError
}

// Fields returns the individual field failures.
func (e *Error) Fields() []FieldError { return e.fields }

func (e *Error) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.fields))
	for i, f := range e.fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

// Reasons returns one message per failed field, for callers that
// report each problem separately rather than as a joined string.
func (e *Error) Reasons() []string {
	reasons := make([]string, len(e.fields))
	for i, f := range e.fields {
		reasons[i] = f.Message
	}
	return reasons
}

// GetValidator returns the shared validator instance, building it on
// first use. Safe for concurrent callers; validator caches struct
// metadata internally.
func GetValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// RegisterValidation only errors on an empty tag name.
		_ = validate.RegisterValidation("hhmm", validHHMM)
	})
	return validate
}

// validHHMM accepts exactly "HH:MM", 00:00 through 23:59. Time-block
// parsing uses a fixed two-digit layout, so unpadded hours and the
// "24:00" midnight spelling are rejected here rather than misread
// later.
func validHHMM(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour <= 23 && minute <= 59
}

// ValidateStruct validates s against its struct tags. Returns nil on
// success; a non-nil *Error lists every failed field.
func ValidateStruct(s interface{}) *Error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// validator returns *InvalidValidationError for non-struct
		// input; treat it as a single opaque failure.
		return &Error{fields: []FieldError{{
			Field:   "unknown",
			Tag:     "unknown",
			Message: err.Error(),
		}}}
	}

	fields := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: describe(fe),
		}
	}
	return &Error{fields: fields}
}

// describe renders a field failure as a human-readable message,
// covering the tags the profile and config structs actually carry.
func describe(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "hhmm":
		return fmt.Sprintf("%s must be a wall-clock time in HH:MM form", field)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, param)
	case "lt":
		return fmt.Sprintf("%s must be less than %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
