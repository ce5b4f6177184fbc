// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import "errors"

// ErrSupervisorStopped is returned by caller-facing operations issued
// after Serve has returned.
var ErrSupervisorStopped = errors.New("job: supervisor has stopped")

// ErrInvalidSpec is wrapped into Submit's synchronous rejection of a
// malformed job spec; the job never enters the registry.
var ErrInvalidSpec = errors.New("job: invalid spec")

// ErrEmptyCatalog fails a job whose catalog snapshot came back empty.
var ErrEmptyCatalog = errors.New("empty-catalog")

// errUnsupportedKind is returned for a Kind runByKind does not
// implement.
var errUnsupportedKind = errors.New("job: unsupported job kind")
