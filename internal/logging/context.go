// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type loggerKey struct{}

// ContextWithJob returns a context whose logger carries the job's
// identity. The supervisor calls this once when a worker starts; every
// Ctx call below it, down through the generator and optimizer, then
// emits job_id and job_kind for free.
func ContextWithJob(ctx context.Context, jobID, kind string) context.Context {
	l := Logger().With().Str("job_id", jobID).Str("job_kind", kind).Logger()
	return context.WithValue(ctx, loggerKey{}, l)
}

// ContextWithLogger attaches an explicit logger to the context.
func ContextWithLogger(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// Ctx returns the context's logger, or the global logger when the
// context carries none. Always returns a usable logger.
func Ctx(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
			return &l
		}
	}
	l := Logger()
	return &l
}

// WithComponent returns a child of the global logger tagged with a
// component name ("job-supervisor", "generator", "playout").
func WithComponent(component string) zerolog.Logger {
	return Logger().With().Str("component", component).Logger()
}
