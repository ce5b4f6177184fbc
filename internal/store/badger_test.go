// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/generator"
	"github.com/tomtom215/tvprogram/internal/job"
)

func openTestStore(t *testing.T) *BadgerStore {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// fixtureResult builds a small settled result. Times are fixed UTC
// instants so a JSON round trip compares deeply equal.
func fixtureResult() job.Result {
	start := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	item := catalog.Item{
		ID:              "item-1",
		Title:           "Morning Feature",
		Kind:            catalog.KindMovie,
		DurationSeconds: 5400,
		Genres:          []string{"Drama"},
	}
	return job.Result{
		JobID:     "job-1",
		ProfileID: "profile-1",
		ChannelID: "channel-1",
		Playlist: generator.Playlist{
			Items: []generator.ScheduledItem{{
				Item:       item,
				Start:      start,
				End:        start.Add(90 * time.Minute),
				BlockName:  "morning",
				BlockStart: start,
				BlockEnd:   start.Add(6 * time.Hour),
			}},
			TotalScore: 72.5,
			Average:    72.5,
			Iteration:  3,
		},
		GeneratedAt: time.Date(2026, 3, 1, 7, 30, 0, 0, time.UTC),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := fixtureResult()
	id, err := s.Save(ctx, want)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id == "" {
		t.Fatal("save returned an empty result ID")
	}

	got, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", *got, want)
	}
}

func TestSaveAssignsDistinctIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.Save(ctx, fixtureResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	second, err := s.Save(ctx, fixtureResult())
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if first == second {
		t.Errorf("two saves shared ID %q", first)
	}
}

func TestLoadUnknownID(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Load(context.Background(), "no-such-result")
	if !errors.Is(err, ErrResultNotFound) {
		t.Errorf("err = %v, want ErrResultNotFound", err)
	}
}

func TestRecordHistory(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	state := job.State{
		ID:          "job-9",
		Kind:        job.KindGenerate,
		Status:      job.StatusCompleted,
		Progress:    100,
		ResultID:    "result-9",
		CompletedAt: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	if err := s.Record(ctx, state); err != nil {
		t.Fatalf("record: %v", err)
	}
	// A second terminal record for a different job must not collide.
	state.ID = "job-10"
	if err := s.Record(ctx, state); err != nil {
		t.Fatalf("second record: %v", err)
	}
}
