// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package catalog

import (
	"context"
	"testing"
)

func testItems() []Item {
	return []Item{
		{ID: "1", Title: "Movie A", Kind: KindMovie, DurationSeconds: 5400, Genres: []string{"Action"}, SourceLibraryID: "lib1"},
		{ID: "2", Title: "Episode B", Kind: KindEpisode, DurationSeconds: 1500, Genres: []string{"Comedy"}, SourceLibraryID: "lib1"},
		{ID: "3", Title: "Movie C", Kind: KindMovie, DurationSeconds: 6000, Genres: []string{"Horror"}, SourceLibraryID: "lib2"},
	}
}

func TestInMemorySourceListItemsFilters(t *testing.T) {
	src := NewInMemorySource(testItems())
	ctx := context.Background()

	t.Run("no filters returns all", func(t *testing.T) {
		items, err := src.ListItems(ctx, nil, Filters{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 3 {
			t.Fatalf("expected 3 items, got %d", len(items))
		}
	})

	t.Run("library filter narrows results", func(t *testing.T) {
		items, err := src.ListItems(ctx, []string{"lib1"}, Filters{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 2 {
			t.Fatalf("expected 2 items, got %d", len(items))
		}
	})

	t.Run("kind filter narrows results", func(t *testing.T) {
		items, err := src.ListItems(ctx, nil, Filters{Kinds: []Kind{KindEpisode}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 || items[0].ID != "2" {
			t.Fatalf("expected only item 2, got %v", items)
		}
	})

	t.Run("genre filter narrows results", func(t *testing.T) {
		items, err := src.ListItems(ctx, nil, Filters{Genres: []string{"Horror"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(items) != 1 || items[0].ID != "3" {
			t.Fatalf("expected only item 3, got %v", items)
		}
	})
}

func TestInMemorySourceGetItem(t *testing.T) {
	src := NewInMemorySource(testItems())
	ctx := context.Background()

	item, err := src.GetItem(ctx, "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil || item.Title != "Movie A" {
		t.Fatalf("expected item 1, got %v", item)
	}

	missing, err := src.GetItem(ctx, "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing item, got %v", missing)
	}
}

func TestInMemorySourceReplace(t *testing.T) {
	src := NewInMemorySource(testItems())
	src.Replace([]Item{{ID: "9", Title: "New", Kind: KindFiller, DurationSeconds: 60}})

	ctx := context.Background()
	items, err := src.ListItems(ctx, nil, Filters{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != "9" {
		t.Fatalf("expected replaced snapshot with one item, got %v", items)
	}
}
