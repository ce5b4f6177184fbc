// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import (
	"context"
	"testing"
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/generator"
	"github.com/tomtom215/tvprogram/internal/scoring"
	"github.com/tomtom215/tvprogram/internal/timeblock"
)

func TestRunByKindAnalyzeScoresExistingPlaylist(t *testing.T) {
	prof := testProfile()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := timeblock.NewManager(prof.TimeBlocks, start)
	engine := scoring.NewEngine()

	item := catalog.Item{ID: "x1", Title: "Sample", Kind: catalog.KindMovie, DurationSeconds: 1800, Genres: []string{"Drama"}}
	spec := Spec{
		Kind:    KindAnalyze,
		Profile: prof,
		Horizon: generator.Horizon{Start: start, Days: 1},
		ExistingPlaylist: []generator.ScheduledItem{
			{Item: item, Start: start, End: start.Add(30 * time.Minute)},
		},
	}

	result, err := runByKind(context.Background(), engine, blocks, spec, func(int, float64) {})
	if err != nil {
		t.Fatalf("runByKind(analyze): %v", err)
	}
	if len(result.Playlist.Items) != 1 {
		t.Fatalf("expected 1 scored item, got %d", len(result.Playlist.Items))
	}
	if result.Playlist.Items[0].Score.Final < 0 || result.Playlist.Items[0].Score.Final > 100 {
		t.Fatalf("expected a final score in [0,100], got %v", result.Playlist.Items[0].Score.Final)
	}
}

func TestRunByKindAnalyzeRequiresExistingPlaylist(t *testing.T) {
	prof := testProfile()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := timeblock.NewManager(prof.TimeBlocks, start)
	engine := scoring.NewEngine()

	spec := Spec{Kind: KindAnalyze, Profile: prof, Horizon: generator.Horizon{Start: start, Days: 1}}
	if _, err := runByKind(context.Background(), engine, blocks, spec, func(int, float64) {}); err == nil {
		t.Fatal("expected an error when analyzing with no existing playlist")
	}
}

func TestRunByKindRejectsUnsupportedKinds(t *testing.T) {
	prof := testProfile()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	blocks := timeblock.NewManager(prof.TimeBlocks, start)
	engine := scoring.NewEngine()

	for _, kind := range []Kind{KindPreview, KindSync, KindAIGenerate} {
		spec := Spec{Kind: kind, Profile: prof, Horizon: generator.Horizon{Start: start, Days: 1}}
		if _, err := runByKind(context.Background(), engine, blocks, spec, func(int, float64) {}); err != errUnsupportedKind {
			t.Fatalf("kind %s: expected errUnsupportedKind, got %v", kind, err)
		}
	}
}
