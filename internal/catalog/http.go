// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"github.com/tomtom215/tvprogram/internal/logging"
)

// HTTPSource is a reference CatalogSource that fetches items from an
// external metadata endpoint. Outbound calls are rate limited here, at
// the adapter layer, so the engine itself never throttles.
type HTTPSource struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewHTTPSource builds an HTTPSource. ratePerSecond and burst configure the
// outbound token bucket and are passed to rate.NewLimiter unchanged: a
// ratePerSecond of 0 admits only the first burst calls and fails every
// later one, while math.MaxFloat64 (rate.Inf) removes the limit.
func NewHTTPSource(baseURL string, httpClient *http.Client, ratePerSecond float64, burst int) *HTTPSource {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &HTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), burst),
	}
}

func (s *HTTPSource) ListItems(ctx context.Context, libraryIDs []string, filters Filters) ([]Item, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog rate limiter: %w", err)
	}

	q := url.Values{}
	for _, id := range libraryIDs {
		q.Add("library_id", id)
	}
	for _, k := range filters.Kinds {
		q.Add("kind", string(k))
	}
	for _, g := range filters.Genres {
		q.Add("genre", g)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/items?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog list_items request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logging.Warn().Err(err).Msg("catalog list_items call failed")
		return nil, fmt.Errorf("catalog list_items: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog list_items: unexpected status %d", resp.StatusCode)
	}

	var items []Item
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("catalog list_items decode: %w", err)
	}
	return items, nil
}

func (s *HTTPSource) GetItem(ctx context.Context, id string) (*Item, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("catalog rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/items/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, fmt.Errorf("catalog get_item request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		logging.Warn().Err(err).Str("item_id", id).Msg("catalog get_item call failed")
		return nil, fmt.Errorf("catalog get_item: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog get_item: unexpected status %d", resp.StatusCode)
	}

	var item Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("catalog get_item decode: %w", err)
	}
	return &item, nil
}

var _ CatalogSource = (*HTTPSource)(nil)
