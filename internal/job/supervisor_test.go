// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/tvprogram/internal/catalog"
	"github.com/tomtom215/tvprogram/internal/generator"
	"github.com/tomtom215/tvprogram/internal/profile"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		ID:                "p1",
		Name:              "Test",
		SchemaVersion:     1,
		DefaultRulePolicy: profile.DefaultRulePolicy(),
		Multipliers:       profile.DefaultMultipliers(),
		Weights:           profile.DefaultWeights(),
		TimeBlocks: []profile.TimeBlock{
			{Name: "allday", StartHM: "00:00", EndHM: "00:00"},
		},
	}
}

func testCatalog(n int) []catalog.Item {
	items := make([]catalog.Item, n)
	for i := 0; i < n; i++ {
		items[i] = catalog.Item{
			ID:              string(rune('a' + i%26)) + string(rune('0'+i/26)),
			Title:           "Item",
			Kind:            catalog.KindMovie,
			DurationSeconds: 1800,
			Genres:          []string{"Drama"},
		}
	}
	return items
}

// newTestSupervisor starts a bus and a supervisor on background
// goroutines and returns both along with a shutdown func.
func newTestSupervisor(t *testing.T, concurrency, retention int, opts ...Option) (*Supervisor, context.Context, func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewEventBus()
	sup := NewSupervisor(bus, concurrency, retention, opts...)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = bus.Serve(ctx) }()
	go func() { defer wg.Done(); _ = sup.Serve(ctx) }()

	stop := func() {
		cancel()
		wg.Wait()
	}
	return sup, ctx, stop
}

func waitTerminal(t *testing.T, sup *Supervisor, id string, timeout time.Duration) State {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		st, ok := sup.Get(id)
		if ok && isTerminal(st.Status) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("job %s did not reach a terminal state within %s", id, timeout)
	return State{}
}

func TestSubmitGetListActiveClearCompleted(t *testing.T) {
	sup, _, stop := newTestSupervisor(t, DefaultConcurrency, DefaultRetention)
	defer stop()

	prof := testProfile()
	id, err := sup.Submit(Spec{
		Kind:         KindGenerate,
		ChannelID:    "ch1",
		Profile:      prof,
		CatalogItems: testCatalog(10),
		Horizon:      generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1},
		Iterations:   2,
		Randomness:   0.2,
		Seed:         1,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if id == "" {
		t.Fatal("expected a non-empty job id")
	}

	final := waitTerminal(t, sup, id, time.Second)
	if final.Status != StatusCompleted {
		t.Fatalf("expected job to complete, got %s (%s)", final.Status, final.Err)
	}
	if final.BestSoFar == nil {
		t.Fatal("expected a best playlist on a completed job")
	}

	if active := sup.ListActive(); len(active) != 0 {
		t.Fatalf("expected no active jobs after completion, got %d", len(active))
	}

	removed := sup.ClearCompleted()
	if removed != 1 {
		t.Fatalf("expected ClearCompleted to remove 1 job, removed %d", removed)
	}
	if _, ok := sup.Get(id); ok {
		t.Fatal("expected job to be gone after ClearCompleted")
	}
}

func TestCancelPendingJobBeforeItStarts(t *testing.T) {
	// concurrency=1 and a slow first job keeps the second job pending
	// long enough to exercise the synchronous pending-cancel path.
	sup, _, stop := newTestSupervisor(t, 1, DefaultRetention)
	defer stop()

	prof := testProfile()
	horizon := generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1}

	_, err := sup.Submit(Spec{
		Kind: KindGenerate, ChannelID: "ch1", Profile: prof,
		CatalogItems: testCatalog(20), Horizon: horizon,
		Iterations: 20000, Randomness: 0.3, Seed: 1,
	})
	if err != nil {
		t.Fatalf("submit first job: %v", err)
	}

	secondID, err := sup.Submit(Spec{
		Kind: KindGenerate, ChannelID: "ch1", Profile: prof,
		CatalogItems: testCatalog(5), Horizon: horizon,
		Iterations: 1, Randomness: 0.1, Seed: 2,
	})
	if err != nil {
		t.Fatalf("submit second job: %v", err)
	}

	sup.Cancel(secondID)

	final := waitTerminal(t, sup, secondID, 2*time.Second)
	if final.Status != StatusCancelled {
		t.Fatalf("expected pending job to be cancelled, got %s", final.Status)
	}
}

func TestCancelRunningJobReachesTerminalState(t *testing.T) {
	sup, _, stop := newTestSupervisor(t, DefaultConcurrency, DefaultRetention)
	defer stop()

	prof := testProfile()
	id, err := sup.Submit(Spec{
		Kind:         KindGenerate,
		ChannelID:    "ch1",
		Profile:      prof,
		CatalogItems: testCatalog(40),
		Horizon:      generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 3},
		Iterations:   2_000_000,
		Randomness:   0.5,
		Seed:         7,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	sup.Cancel(id)

	final := waitTerminal(t, sup, id, 5*time.Second)
	if final.Status != StatusCancelled && final.Status != StatusCompleted {
		t.Fatalf("expected cancelled or completed terminal state, got %s (%s)", final.Status, final.Err)
	}
}

func TestCancelAfterIterationsPreservesBestResult(t *testing.T) {
	resultStore := newFakeResultStore()
	sup, _, stop := newTestSupervisor(t, DefaultConcurrency, DefaultRetention, WithResultStore(resultStore))
	defer stop()

	prof := testProfile()
	id, err := sup.Submit(Spec{
		Kind:         KindGenerate,
		ChannelID:    "ch1",
		Profile:      prof,
		CatalogItems: testCatalog(10),
		Horizon:      generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1},
		Iterations:   2_000_000,
		Randomness:   0.3,
		Seed:         9,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Let a few of the two million iterations finish, then cancel.
	time.Sleep(100 * time.Millisecond)
	sup.Cancel(id)

	final := waitTerminal(t, sup, id, 5*time.Second)
	if final.Status != StatusCancelled {
		t.Fatalf("expected cancelled, got %s (%s)", final.Status, final.Err)
	}
	if final.BestSoFar == nil || len(final.BestSoFar.Items) == 0 {
		t.Fatal("expected the best iteration completed before cancellation to survive")
	}
	if final.BestSoFar.Average <= 0 {
		t.Fatalf("expected a positive best average, got %v", final.BestSoFar.Average)
	}
	if final.ResultID == "" {
		t.Fatal("expected the cancelled job's best result to be persisted")
	}
	if _, err := resultStore.Load(context.Background(), final.ResultID); err != nil {
		t.Fatalf("expected the persisted result to load: %v", err)
	}
}

func TestConcurrencyBoundIsEnforced(t *testing.T) {
	sup, _, stop := newTestSupervisor(t, 1, DefaultRetention)
	defer stop()

	prof := testProfile()
	horizon := generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1}

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := sup.Submit(Spec{
			Kind: KindGenerate, ChannelID: "ch1", Profile: prof,
			CatalogItems: testCatalog(10), Horizon: horizon,
			Iterations: 3, Randomness: 0.2, Seed: int64(i),
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	// Immediately after submission, at most one job may be running.
	running := 0
	for _, id := range ids {
		if st, ok := sup.Get(id); ok && st.Status == StatusRunning {
			running++
		}
	}
	if running > 1 {
		t.Fatalf("expected at most 1 running job with concurrency=1, observed %d", running)
	}

	for _, id := range ids {
		final := waitTerminal(t, sup, id, 2*time.Second)
		if final.Status != StatusCompleted {
			t.Fatalf("job %s: expected completed, got %s (%s)", id, final.Status, final.Err)
		}
	}
}

func TestFIFOEvictionRetainsMostRecentTerminalJobs(t *testing.T) {
	sup, _, stop := newTestSupervisor(t, DefaultConcurrency, 2)
	defer stop()

	prof := testProfile()
	horizon := generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1}

	var ids []string
	for i := 0; i < 4; i++ {
		id, err := sup.Submit(Spec{
			Kind: KindGenerate, ChannelID: "ch1", Profile: prof,
			CatalogItems: testCatalog(10), Horizon: horizon,
			Iterations: 2, Randomness: 0.2, Seed: int64(i),
		})
		if err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		ids = append(ids, id)
		waitTerminal(t, sup, id, 2*time.Second)
	}

	if _, ok := sup.Get(ids[0]); ok {
		t.Fatal("expected the oldest job to have been evicted")
	}
	if _, ok := sup.Get(ids[1]); ok {
		t.Fatal("expected the second-oldest job to have been evicted")
	}
	if _, ok := sup.Get(ids[2]); !ok {
		t.Fatal("expected the third job to still be retained")
	}
	if _, ok := sup.Get(ids[3]); !ok {
		t.Fatal("expected the most recent job to still be retained")
	}
}

func TestSubscribeDeliversSnapshotThenIncrementalEvents(t *testing.T) {
	sup, _, stop := newTestSupervisor(t, DefaultConcurrency, DefaultRetention)
	defer stop()

	prof := testProfile()
	horizon := generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1}

	firstID, err := sup.Submit(Spec{
		Kind: KindGenerate, ChannelID: "ch1", Profile: prof,
		CatalogItems: testCatalog(10), Horizon: horizon,
		Iterations: 2, Randomness: 0.2, Seed: 1,
	})
	if err != nil {
		t.Fatalf("submit first job: %v", err)
	}
	waitTerminal(t, sup, firstID, 2*time.Second)

	events, unsubscribe := sup.Subscribe()
	defer unsubscribe()

	select {
	case ev := <-events:
		if ev.Type != EventJobsState {
			t.Fatalf("expected first delivery to be a jobs_state snapshot, got %s", ev.Type)
		}
		found := false
		for _, st := range ev.Snapshot {
			if st.ID == firstID {
				found = true
			}
		}
		if !found {
			t.Fatal("expected the snapshot to include the already-completed job")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the jobs_state snapshot")
	}

	secondID, err := sup.Submit(Spec{
		Kind: KindGenerate, ChannelID: "ch1", Profile: prof,
		CatalogItems: testCatalog(10), Horizon: horizon,
		Iterations: 2, Randomness: 0.2, Seed: 2,
	})
	if err != nil {
		t.Fatalf("submit second job: %v", err)
	}

	sawCreated := false
	deadline := time.After(2 * time.Second)
	for !sawCreated {
		select {
		case ev := <-events:
			if ev.Type == EventJobCreated && ev.JobID == secondID {
				sawCreated = true
			}
		case <-deadline:
			t.Fatal("timed out waiting for job_created event for the second job")
		}
	}
}

type fakeResultStore struct {
	mu    sync.Mutex
	saved map[string]Result
}

func newFakeResultStore() *fakeResultStore {
	return &fakeResultStore{saved: make(map[string]Result)}
}

func (f *fakeResultStore) Save(_ context.Context, result Result) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "res-" + result.JobID
	f.saved[id] = result
	return id, nil
}

func (f *fakeResultStore) Load(_ context.Context, resultID string) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.saved[resultID]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

type fakeHistoryRecorder struct {
	mu      sync.Mutex
	records []State
}

func (f *fakeHistoryRecorder) Record(_ context.Context, state State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, state)
	return nil
}

func (f *fakeHistoryRecorder) recordCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type fakePlayoutSink struct {
	mu    sync.Mutex
	calls int
}

func (f *fakePlayoutSink) Apply(_ context.Context, _ string, _ Result) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakePlayoutSink) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestCompletedGenerateJobPersistsResultRecordsHistoryAndAppliesPlayout(t *testing.T) {
	resultStore := newFakeResultStore()
	history := &fakeHistoryRecorder{}
	sink := &fakePlayoutSink{}

	sup, _, stop := newTestSupervisor(t, DefaultConcurrency, DefaultRetention,
		WithResultStore(resultStore), WithHistoryRecorder(history), WithPlayoutSink(sink))
	defer stop()

	prof := testProfile()
	id, err := sup.Submit(Spec{
		Kind:         KindGenerate,
		ChannelID:    "ch1",
		Profile:      prof,
		CatalogItems: testCatalog(10),
		Horizon:      generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1},
		Iterations:   2,
		Randomness:   0.2,
		Seed:         1,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	final := waitTerminal(t, sup, id, 2*time.Second)
	if final.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", final.Status, final.Err)
	}
	if final.ResultID == "" {
		t.Fatal("expected a result id assigned by the result store")
	}
	if _, err := resultStore.Load(context.Background(), final.ResultID); err != nil {
		t.Fatalf("expected the result to be loadable: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for history.recordCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if history.recordCount() == 0 {
		t.Fatal("expected the history recorder to observe the terminal state")
	}
	if sink.callCount() == 0 {
		t.Fatal("expected the playout sink to be applied for a completed generate job")
	}
}

type panickyCatalog struct{}

func (panickyCatalog) ListItems(context.Context, []string, catalog.Filters) ([]catalog.Item, error) {
	panic("catalog adapter exploded")
}

func (panickyCatalog) GetItem(context.Context, string) (*catalog.Item, error) {
	panic("catalog adapter exploded")
}

func TestPanicDuringJobExecutionFailsJobWithoutKillingSupervisor(t *testing.T) {
	sup, _, stop := newTestSupervisor(t, DefaultConcurrency, DefaultRetention)
	defer stop()

	horizon := generator.Horizon{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Days: 1}

	badID, err := sup.Submit(Spec{
		Kind:       KindGenerate,
		ChannelID:  "ch1",
		Profile:    testProfile(),
		Catalog:    panickyCatalog{}, // snapshot fetch panics inside the worker
		Horizon:    horizon,
		Iterations: 1,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	final := waitTerminal(t, sup, badID, time.Second)
	if final.Status != StatusFailed {
		t.Fatalf("expected the panicking job to fail, got %s", final.Status)
	}

	// The supervisor must still be able to accept and run further work.
	goodID, err := sup.Submit(Spec{
		Kind:         KindGenerate,
		ChannelID:    "ch1",
		Profile:      testProfile(),
		CatalogItems: testCatalog(10),
		Horizon:      horizon,
		Iterations:   1,
		Randomness:   0.1,
		Seed:         3,
	})
	if err != nil {
		t.Fatalf("submit after panic: %v", err)
	}
	final = waitTerminal(t, sup, goodID, time.Second)
	if final.Status != StatusCompleted {
		t.Fatalf("expected supervisor to remain healthy after a panic, got %s (%s)", final.Status, final.Err)
	}
}
