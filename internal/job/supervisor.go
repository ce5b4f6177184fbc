// TV Program - Automated Channel Programming Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tvprogram

package job

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/tvprogram/internal/logging"
	"github.com/tomtom215/tvprogram/internal/metrics"
	"github.com/tomtom215/tvprogram/internal/scoring"
	"github.com/tomtom215/tvprogram/internal/timeblock"
)

// DefaultConcurrency is C, the default bound on simultaneously running
// jobs.
const DefaultConcurrency = 2

// DefaultRetention is T, the default number of terminal jobs retained
// in memory, evicted FIFO.
const DefaultRetention = 50

// DefaultDeadlineGrace is the grace period a job is given to honor a
// deadline-triggered cancellation before the supervisor force-fails it
// with reason "deadline-exceeded".
const DefaultDeadlineGrace = 10 * time.Second

// DefaultPreviewIterationCap bounds a preview-only generation: a
// preview exists to eyeball a schedule quickly, not to search as hard
// as a real run.
const DefaultPreviewIterationCap = 3

// deadlineCheckInterval is how often Serve polls running jobs for
// deadline expiry. It need not be fine-grained: expiry only has to be
// observed eventually with the grace period honored, not exactly on the
// deadline instant.
const deadlineCheckInterval = 500 * time.Millisecond

// Supervisor owns the job registry and subscriber set. Every mutation
// happens on Serve's goroutine, reached only through inbox commands;
// there is no mutex guarding job state because there is only ever one
// goroutine touching it.
type Supervisor struct {
	concurrency int
	retention   int
	bus         *EventBus

	resultStore   ResultStore
	history       HistoryRecorder
	playout       PlayoutSink
	deadlineGrace time.Duration
	previewCap    int

	inbox chan command
	done  chan struct{}
}

// Option configures optional collaborators of a Supervisor at
// construction time.
type Option func(*Supervisor)

// WithResultStore persists every completed job's Result. Without one,
// results are reported in the job's State but never durably saved.
func WithResultStore(rs ResultStore) Option {
	return func(s *Supervisor) { s.resultStore = rs }
}

// WithHistoryRecorder records every terminal job's State into a sibling
// history subsystem.
func WithHistoryRecorder(hr HistoryRecorder) Option {
	return func(s *Supervisor) { s.history = hr }
}

// WithPlayoutSink applies a completed generation's playlist to an
// external playout channel. Apply failures are surfaced as a
// post-completion action result, not retroactively applied to job
// state: a sink error is logged, not replayed onto the job's terminal
// State.
func WithPlayoutSink(sink PlayoutSink) Option {
	return func(s *Supervisor) { s.playout = sink }
}

// WithDeadlineGrace overrides DefaultDeadlineGrace, the window a job is
// given to honor a deadline-triggered cancellation before the
// supervisor force-fails it.
func WithDeadlineGrace(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.deadlineGrace = d
		}
	}
}

// WithPreviewIterationCap overrides DefaultPreviewIterationCap, the
// iteration bound applied to preview-only generations.
func WithPreviewIterationCap(n int) Option {
	return func(s *Supervisor) {
		if n > 0 {
			s.previewCap = n
		}
	}
}

// NewSupervisor constructs a Supervisor. Call Serve (it is itself a
// suture.Service) to start its command loop.
func NewSupervisor(bus *EventBus, concurrency, retention int, opts ...Option) *Supervisor {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	s := &Supervisor{
		concurrency:   concurrency,
		retention:     retention,
		bus:           bus,
		deadlineGrace: DefaultDeadlineGrace,
		previewCap:    DefaultPreviewIterationCap,
		inbox:         make(chan command, 64),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Supervisor) String() string { return "job-supervisor" }

// Submit enqueues a job and returns immediately with its ID. Input
// errors are rejected synchronously; a rejected job never enters the
// registry.
func (s *Supervisor) Submit(spec Spec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}
	reply := make(chan string, 1)
	select {
	case s.inbox <- command{kind: cmdSubmit, spec: &spec, replyID: reply}:
	case <-s.done:
		return "", ErrSupervisorStopped
	}
	select {
	case id := <-reply:
		return id, nil
	case <-s.done:
		return "", ErrSupervisorStopped
	}
}

// Cancel requests best-effort cooperative cancellation of a job.
func (s *Supervisor) Cancel(id string) {
	select {
	case s.inbox <- command{kind: cmdCancel, jobID: id}:
	case <-s.done:
	}
}

// Get returns a snapshot of one job's state.
func (s *Supervisor) Get(id string) (State, bool) {
	reply := make(chan getReply, 1)
	select {
	case s.inbox <- command{kind: cmdGet, jobID: id, replyState: reply}:
	case <-s.done:
		return State{}, false
	}
	select {
	case r := <-reply:
		return r.state, r.ok
	case <-s.done:
		return State{}, false
	}
}

// ListActive returns every pending or running job.
func (s *Supervisor) ListActive() []State {
	reply := make(chan []State, 1)
	select {
	case s.inbox <- command{kind: cmdListActive, replyList: reply}:
	case <-s.done:
		return nil
	}
	select {
	case list := <-reply:
		return list
	case <-s.done:
		return nil
	}
}

// ClearCompleted evicts every terminal job and returns how many were removed.
func (s *Supervisor) ClearCompleted() int {
	reply := make(chan int, 1)
	select {
	case s.inbox <- command{kind: cmdClearCompleted, replyCount: reply}:
	case <-s.done:
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-s.done:
		return 0
	}
}

// Subscribe registers a new subscriber whose first delivery is a
// jobs_state snapshot. The channel is primed with the snapshot before
// it is attached to the bus, so no incremental event can precede it.
func (s *Supervisor) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	reply := make(chan func(), 1)
	select {
	case s.inbox <- command{kind: cmdSnapshotTo, snapshotTarget: ch, replyUnsub: reply}:
	case <-s.done:
		return ch, func() {}
	}
	select {
	case unsubscribe := <-reply:
		return ch, unsubscribe
	case <-s.done:
		return ch, func() {}
	}
}

type commandKind int

const (
	cmdSubmit commandKind = iota
	cmdCancel
	cmdGet
	cmdListActive
	cmdClearCompleted
	cmdSnapshotTo
	cmdWorkerDone
)

type getReply struct {
	state State
	ok    bool
}

type command struct {
	kind commandKind

	spec  *Spec
	jobID string

	replyID    chan<- string
	replyState chan<- getReply
	replyList  chan<- []State
	replyCount chan<- int
	replyUnsub chan<- func()

	snapshotTarget chan Event

	finishedJob *finishedJob
}

type finishedJob struct {
	id    string
	state State
}

// Serve is the single-owner command loop. It implements suture.Service.
func (s *Supervisor) Serve(ctx context.Context) error {
	defer close(s.done)

	jobs := make(map[string]*State)
	specs := make(map[string]Spec)
	order := []string{} // insertion order, for FIFO eviction of terminal jobs
	pending := []string{}
	runningCount := 0
	active := make(map[string]context.CancelFunc)

	// Deadline bookkeeping: deadlineCancelAt records when a job's
	// deadline fired and cooperative cancellation was requested;
	// forcedTerminal marks a job the supervisor already reported as
	// failed with "deadline-exceeded" even though its worker goroutine
	// may still be running (no forced termination of CPU work).
	deadlineCancelAt := make(map[string]time.Time)
	forcedTerminal := make(map[string]bool)
	deadlineTicker := time.NewTicker(deadlineCheckInterval)
	defer deadlineTicker.Stop()

	startNext := func() {
		for runningCount < s.concurrency && len(pending) > 0 {
			id := pending[0]
			pending = pending[1:]
			st := jobs[id]
			if st == nil || st.Status != StatusPending {
				continue
			}
			runningCount++
			jobCtx, cancel := context.WithCancel(ctx)
			active[id] = cancel
			st.Status = StatusRunning
			st.StartedAt = time.Now()
			s.bus.Publish(Event{Type: EventJobStarted, JobID: id, State: *st, Timestamp: time.Now()})

			spec := specs[id]
			go s.runJob(jobCtx, id, spec, func(finalState State) {
				select {
				case s.inbox <- command{kind: cmdWorkerDone, finishedJob: &finishedJob{id: id, state: finalState}}:
				case <-ctx.Done():
				}
			})
		}
	}

	for {
		select {
		case <-ctx.Done():
			for _, cancel := range active {
				cancel()
			}
			return nil

		case now := <-deadlineTicker.C:
			for id, spec := range specs {
				if spec.Deadline.IsZero() || forcedTerminal[id] {
					continue
				}
				st := jobs[id]
				if st == nil || st.Status != StatusRunning {
					continue
				}
				requestedAt, requested := deadlineCancelAt[id]
				if !requested {
					if !now.Before(spec.Deadline) {
						if cancel, ok := active[id]; ok {
							cancel()
						}
						deadlineCancelAt[id] = now
					}
					continue
				}
				if now.Sub(requestedAt) >= s.deadlineGrace {
					forcedTerminal[id] = true
					st.Status = StatusFailed
					st.Err = "deadline-exceeded"
					st.CompletedAt = now
					s.bus.Publish(Event{Type: EventJobFailed, JobID: id, State: *st, Timestamp: now})
					metrics.JobsTerminalTotal.WithLabelValues(string(st.Kind), string(st.Status)).Inc()
				}
			}

		case cmd := <-s.inbox:
			switch cmd.kind {
			case cmdSubmit:
				id := uuid.NewString()
				now := time.Now()
				st := &State{
					ID:              id,
					Kind:            cmd.spec.Kind,
					Status:          StatusPending,
					Preview:         cmd.spec.PreviewOnly,
					TotalIterations: cmd.spec.Iterations,
					CreatedAt:       now,
					Phase:           "queued",
				}
				jobs[id] = st
				order = append(order, id)
				specs[id] = *cmd.spec
				pending = append(pending, id)
				s.bus.Publish(Event{Type: EventJobCreated, JobID: id, State: *st, Timestamp: now})
				metrics.JobsSubmittedTotal.WithLabelValues(string(cmd.spec.Kind)).Inc()
				metrics.JobsActive.Set(float64(len(pending) + runningCount))
				cmd.replyID <- id
				startNext()

			case cmdCancel:
				if cancel, ok := active[cmd.jobID]; ok {
					cancel()
				} else if st, ok := jobs[cmd.jobID]; ok && st.Status == StatusPending {
					st.Status = StatusCancelled
					st.CompletedAt = time.Now()
					s.bus.Publish(Event{Type: EventJobCancelled, JobID: cmd.jobID, State: *st, Timestamp: time.Now()})
				}

			case cmdGet:
				st, ok := jobs[cmd.jobID]
				if !ok {
					cmd.replyState <- getReply{}
					continue
				}
				cmd.replyState <- getReply{state: *st, ok: true}

			case cmdListActive:
				var list []State
				for _, id := range order {
					st := jobs[id]
					if st.Status == StatusPending || st.Status == StatusRunning {
						list = append(list, *st)
					}
				}
				cmd.replyList <- list

			case cmdClearCompleted:
				removed := 0
				var kept []string
				for _, id := range order {
					st := jobs[id]
					if isTerminal(st.Status) {
						delete(jobs, id)
						delete(specs, id)
						removed++
						continue
					}
					kept = append(kept, id)
				}
				order = kept
				cmd.replyCount <- removed

			case cmdSnapshotTo:
				var snapshot []State
				for _, id := range order {
					snapshot = append(snapshot, *jobs[id])
				}
				// The target is freshly created and unregistered, so this
				// send cannot block and nothing can precede the snapshot.
				cmd.snapshotTarget <- Event{Type: EventJobsState, Snapshot: snapshot, Timestamp: time.Now()}
				cmd.replyUnsub <- s.bus.Register(cmd.snapshotTarget)

			case cmdWorkerDone:
				id := cmd.finishedJob.id
				runningCount--
				delete(active, id)
				delete(deadlineCancelAt, id)
				wasForced := forcedTerminal[id]
				delete(forcedTerminal, id)
				if st, ok := jobs[id]; ok && !wasForced {
					final := cmd.finishedJob.state
					final.ID = id
					final.CreatedAt = st.CreatedAt
					final.StartedAt = st.StartedAt
					*st = final
					evType := EventJobCompleted
					switch st.Status {
					case StatusFailed:
						evType = EventJobFailed
					case StatusCancelled:
						evType = EventJobCancelled
					}
					s.bus.Publish(Event{Type: evType, JobID: id, State: *st, Timestamp: time.Now()})
					metrics.JobsTerminalTotal.WithLabelValues(string(st.Kind), string(st.Status)).Inc()
				}
				order = evictOldest(order, jobs, specs, s.retention)
				metrics.JobsActive.Set(float64(len(pending) + runningCount))
				startNext()
			}
		}
	}
}

// evictOldest enforces the FIFO terminal-job retention limit T.
func evictOldest(order []string, jobs map[string]*State, specs map[string]Spec, retention int) []string {
	terminalCount := 0
	for _, id := range order {
		if st := jobs[id]; st != nil && isTerminal(st.Status) {
			terminalCount++
		}
	}
	if terminalCount <= retention {
		return order
	}

	kept := make([]string, 0, len(order))
	toEvict := terminalCount - retention
	for _, id := range order {
		st := jobs[id]
		if toEvict > 0 && st != nil && isTerminal(st.Status) {
			delete(jobs, id)
			delete(specs, id)
			toEvict--
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

func isTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// recordHistory asks the configured HistoryRecorder to persist a job's
// terminal state. A recorder failure is logged, never propagated: the
// job's own outcome is already settled, and history is an external
// sibling subsystem, not part of the job's own correctness.
func (s *Supervisor) recordHistory(id string, final State) {
	if s.history == nil {
		return
	}
	final.ID = id
	if err := s.history.Record(context.Background(), final); err != nil {
		logger := logging.WithComponent("job-worker")
		logger.Error().Err(err).Str("job_id", id).
			Msg("failed to record job history")
	}
}

// runJob executes one job to completion (or failure/cancellation) and
// reports the final State back through done. It never panics the
// supervisor: a caught error transitions the job to failed.
func (s *Supervisor) runJob(ctx context.Context, id string, spec Spec, done func(State)) {
	logger := logging.WithComponent("job-worker")
	// A preview exists to eyeball a schedule quickly: cap its search
	// and keep it out of the durable history below.
	if spec.PreviewOnly && spec.Iterations > s.previewCap {
		spec.Iterations = s.previewCap
	}

	final := State{Kind: spec.Kind, Preview: spec.PreviewOnly, TotalIterations: spec.Iterations}

	defer func() {
		if r := recover(); r != nil {
			final.Status = StatusFailed
			final.Err = "panic during job execution"
			final.CompletedAt = time.Now()
			logger.Error().Interface("recover", r).Str("job_id", id).Msg("job worker panicked")
			done(final)
		}
	}()

	blocks := timeblock.NewManager(spec.Profile.TimeBlocks, spec.Horizon.Start)
	engine := scoring.NewEngine()

	ctx = logging.ContextWithJob(ctx, id, string(spec.Kind))
	result, err := runByKind(ctx, engine, blocks, spec, func(progress int, playlistAverage float64) {
		s.bus.Publish(Event{
			Type:  EventJobProgress,
			JobID: id,
			State: State{
				ID:               id,
				Kind:             spec.Kind,
				Status:           StatusRunning,
				Progress:         progress,
				CurrentIteration: progress * spec.Iterations / 100,
				TotalIterations:  spec.Iterations,
				Phase:            "generating",
			},
			Timestamp: time.Now(),
		})
	})

	final.CompletedAt = time.Now()
	if err != nil {
		if ctx.Err() != nil {
			final.Status = StatusCancelled
			// A cancelled generation may still carry the best iteration
			// completed before the cancel; persist it like a completed
			// result so the caller can recover it.
			if result != nil {
				result.JobID = id
				final.BestSoFar = &result.Playlist
				final.ResultID = id
				if s.resultStore != nil {
					if resultID, saveErr := s.resultStore.Save(context.Background(), *result); saveErr != nil {
						logger.Error().Err(saveErr).Str("job_id", id).Msg("failed to persist cancelled job result")
					} else {
						final.ResultID = resultID
					}
				}
			}
		} else {
			final.Status = StatusFailed
			final.Err = err.Error()
		}
		if !spec.PreviewOnly {
			s.recordHistory(id, final)
		}
		done(final)
		return
	}

	result.JobID = id
	final.Status = StatusCompleted
	final.Progress = 100
	final.BestSoFar = &result.Playlist
	final.ResultID = id

	if s.resultStore != nil {
		resultID, saveErr := s.resultStore.Save(ctx, *result)
		if saveErr != nil {
			logger.Error().Err(saveErr).Str("job_id", id).Msg("failed to persist job result")
		} else {
			final.ResultID = resultID
		}
	}

	if s.playout != nil && spec.Kind == KindGenerate && !spec.PreviewOnly {
		if applyErr := s.playout.Apply(ctx, spec.ChannelID, *result); applyErr != nil {
			// A playout failure does not mutate job state retroactively:
			// the job stays completed.
			logger.Warn().Err(applyErr).Str("job_id", id).Str("channel_id", spec.ChannelID).
				Msg("playout apply failed for completed job")
		}
	}

	if !spec.PreviewOnly {
		s.recordHistory(id, final)
	}
	done(final)
}
