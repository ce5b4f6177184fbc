// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package catalog

import (
	"context"
	"sort"
	"sync"
)

// InMemorySource is a reference CatalogSource backed by a fixed slice of
// items, useful for tests and for standalone deployments that load a
// catalog snapshot once and never talk to a remote metadata cache.
type InMemorySource struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewInMemorySource builds an InMemorySource from an initial item set.
func NewInMemorySource(items []Item) *InMemorySource {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	return &InMemorySource{items: m}
}

// Replace swaps the entire item set atomically, used to refresh a snapshot.
func (s *InMemorySource) Replace(items []Item) {
	m := make(map[string]Item, len(items))
	for _, it := range items {
		m[it.ID] = it
	}
	s.mu.Lock()
	s.items = m
	s.mu.Unlock()
}

func (s *InMemorySource) ListItems(_ context.Context, libraryIDs []string, filters Filters) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	libSet := make(map[string]struct{}, len(libraryIDs))
	for _, id := range libraryIDs {
		libSet[id] = struct{}{}
	}

	kindSet := make(map[Kind]struct{}, len(filters.Kinds))
	for _, k := range filters.Kinds {
		kindSet[k] = struct{}{}
	}
	genreSet := make(map[string]struct{}, len(filters.Genres))
	for _, g := range filters.Genres {
		genreSet[g] = struct{}{}
	}

	out := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		if len(libSet) > 0 {
			if _, ok := libSet[it.SourceLibraryID]; !ok {
				continue
			}
		}
		if len(kindSet) > 0 {
			if _, ok := kindSet[it.Kind]; !ok {
				continue
			}
		}
		if len(genreSet) > 0 && !hasAny(it.Genres, genreSet) {
			continue
		}
		out = append(out, it)
	}
	// Map iteration order is random; a stable snapshot order keeps
	// generation deterministic for a given seed.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemorySource) GetItem(_ context.Context, id string) (*Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func hasAny(values []string, set map[string]struct{}) bool {
	for _, v := range values {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

var _ CatalogSource = (*InMemorySource)(nil)
