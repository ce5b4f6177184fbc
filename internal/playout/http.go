// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

// Package playout implements the job.PlayoutSink consumed interface: a
// reference HTTP adapter that pushes a settled playlist to an external
// channel-playout system, guarded by a circuit breaker so a stalled
// downstream cannot back up the job supervisor.
package playout

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	goccyjson "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/tvprogram/internal/job"
	"github.com/tomtom215/tvprogram/internal/logging"
	"github.com/tomtom215/tvprogram/internal/metrics"
)

// HTTPSink is a reference job.PlayoutSink that PUTs a channel's settled
// result to an external playout endpoint. Apply is idempotent: the
// downstream endpoint is expected to key on (channelID, JobID) and
// accept a repeat push as a no-op.
type HTTPSink struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
}

// NewHTTPSink builds an HTTPSink. maxRequests/openInterval/timeout
// configure the circuit breaker exactly as gobreaker.Settings expects
// them: once ConsecutiveFailures reaches 3, the breaker opens for
// timeout before allowing maxRequests probe requests through.
func NewHTTPSink(baseURL string, httpClient *http.Client, maxRequests uint32, openInterval, timeout time.Duration) *HTTPSink {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	sink := &HTTPSink{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
	sink.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "playout-sink",
		MaxRequests: maxRequests,
		Interval:    openInterval,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.PlayoutBreakerState.Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("playout circuit breaker state change")
		},
	})
	return sink
}

// Apply pushes result to the playout endpoint for channelID, tripping
// the breaker on repeated failure rather than retrying indefinitely.
func (s *HTTPSink) Apply(ctx context.Context, channelID string, result job.Result) error {
	payload, err := goccyjson.Marshal(result)
	if err != nil {
		return fmt.Errorf("playout apply: encode result: %w", err)
	}

	_, err = s.breaker.Execute(func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.baseURL+"/channels/"+channelID+"/playlist", bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("playout apply request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("playout apply: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return nil, fmt.Errorf("playout apply: unexpected status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		logging.Warn().Err(err).Str("channel_id", channelID).Msg("playout apply failed")
		return err
	}
	return nil
}
