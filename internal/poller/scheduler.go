package poller

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/storewatch/internal/notify"
	"github.com/jpalmerr/storewatch/internal/store"
	"github.com/jpalmerr/storewatch/internal/ubereats"
)

// DefaultInterval is the pause between the end of one sweep and the start
// of the next.
const DefaultInterval = 15 * time.Second

const resultsBuffer = 64

// Repository is the subset of store.Repository the loop needs.
type Repository interface {
	List(ctx context.Context) ([]store.Record, error)
	Update(ctx context.Context, id string, f store.Fields) error
}

// Fetcher returns the current remote state of a store.
type Fetcher interface {
	FetchStore(ctx context.Context, id string) (ubereats.StoreDetail, error)
}

// Result holds the outcome of processing one store in one cycle.
type Result struct {
	// Cycle is the 1-based sweep number within this scheduler.
	Cycle int

	// StoreID identifies the store.
	StoreID string

	// Title is the newest known title.
	Title string

	// Outcome classifies what happened.
	Outcome Outcome

	// Previous is the status persisted before this cycle.
	Previous sql.NullString

	// Current is the status persisted after this cycle.
	Current sql.NullString

	// CheckedAt is when processing started.
	CheckedAt time.Time

	// Error is the cause for OutcomeFetchFailed and OutcomeFailed. For
	// OutcomeNotified it is set when delivering the notification failed;
	// the record was still persisted.
	Error error
}

// Config holds the collaborators of a [Scheduler].
type Config struct {
	// Repository is read at the start of every cycle and written on change.
	Repository Repository

	// Fetcher provides remote store state.
	Fetcher Fetcher

	// Notifier is told about status changes. Defaults to notify.Discard.
	Notifier notify.Notifier

	// Interval is the pause after each sweep. Defaults to [DefaultInterval].
	Interval time.Duration

	// Logger receives scheduler events. Defaults to slog.Default().
	Logger *slog.Logger

	// After returns a channel that fires once d has elapsed.
	// Defaults to time.After; tests substitute a manual trigger.
	After func(d time.Duration) <-chan time.Time
}

// Scheduler sweeps all tracked stores sequentially, then waits the interval,
// until stopped.
//
// Results of every store in every cycle are emitted on [Scheduler.Results].
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler struct {
	repo     Repository
	fetcher  Fetcher
	notifier notify.Notifier
	interval time.Duration
	logger   *slog.Logger
	after    func(time.Duration) <-chan time.Time
	results  chan Result

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once
	cycle     int
}

// NewScheduler creates a new polling [Scheduler].
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. [Scheduler.RunCycle] may be used directly to run a
// single sweep without starting the loop.
func NewScheduler(cfg Config) *Scheduler {
	s := &Scheduler{
		repo:     cfg.Repository,
		fetcher:  cfg.Fetcher,
		notifier: cfg.Notifier,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		after:    cfg.After,
		results:  make(chan Result, resultsBuffer),
	}
	if s.notifier == nil {
		s.notifier = notify.Discard
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.after == nil {
		s.after = time.After
	}
	return s
}

// Results returns a receive-only channel that emits [Result] values.
//
// The channel is closed when the scheduler stops. Consumers should read from
// this channel until it is closed; an unread channel stalls the loop once
// its buffer is full.
func (s *Scheduler) Results() <-chan Result {
	return s.results
}

// Interval returns the pause between sweeps.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Start begins the polling loop in a background goroutine.
//
// Start is non-blocking. The loop sweeps all stores immediately, waits the
// interval, and repeats until [Scheduler.Stop] is called or ctx is
// cancelled. If ctx is nil, context.Background() is used.
//
// Start is idempotent; calls after the first are no-ops. If Stop was called
// before Start, Start is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	pollCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		for {
			results, err := s.RunCycle(pollCtx)
			if err != nil && pollCtx.Err() == nil {
				s.logger.Error("poll cycle skipped", "error", err)
			}
			for _, r := range results {
				select {
				case s.results <- r:
				case <-pollCtx.Done():
					return
				}
			}

			select {
			case <-pollCtx.Done():
				return
			case <-s.after(s.interval):
			}
		}
	}()
}

// Stop halts the scheduler and waits for the loop to exit.
//
// A store being processed when Stop is called sees its context cancelled.
// Stop is idempotent and safe to call before Start.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// RunCycle sweeps every tracked store once, sequentially, and returns one
// [Result] per store processed.
//
// An error is returned only when the store list cannot be read. Per-store
// failures are reported in the results and never stop the sweep. If ctx is
// cancelled mid-sweep the remaining stores are skipped.
func (s *Scheduler) RunCycle(ctx context.Context) ([]Result, error) {
	s.mu.Lock()
	s.cycle++
	cycle := s.cycle
	s.mu.Unlock()

	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores: %w", err)
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		r := s.checkSafe(ctx, rec)
		r.Cycle = cycle
		results = append(results, r)
	}
	return results, nil
}

// checkSafe runs check with panic recovery.
// A panic is logged with its stack under a correlation ID and reported as
// OutcomeFailed with an error carrying the ID.
func (s *Scheduler) checkSafe(ctx context.Context, prev store.Record) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()

			s.logger.Error("store check panic",
				"correlation_id", correlationID,
				"store_id", prev.ID,
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)

			result = Result{
				StoreID:   prev.ID,
				Title:     prev.Title,
				Outcome:   OutcomeFailed,
				Previous:  prev.Status,
				Current:   prev.Status,
				CheckedAt: time.Now(),
				Error:     fmt.Errorf("store check panic (correlation_id: %s)", correlationID),
			}
		}
	}()
	return s.check(ctx, prev)
}

// check fetches, diffs, persists and notifies for one store.
func (s *Scheduler) check(ctx context.Context, prev store.Record) Result {
	result := Result{
		StoreID:   prev.ID,
		Title:     prev.Title,
		Previous:  prev.Status,
		Current:   prev.Status,
		CheckedAt: time.Now(),
	}

	detail, err := s.fetcher.FetchStore(ctx, prev.ID)
	if err != nil {
		result.Outcome = OutcomeFailed
		if errors.Is(err, ubereats.ErrNotSuccess) {
			result.Outcome = OutcomeFetchFailed
		}
		result.Error = err
		return result
	}

	next, outcome := Evaluate(prev, detail)
	if outcome == OutcomeUnchanged {
		result.Outcome = outcome
		return result
	}

	if err := s.repo.Update(ctx, prev.ID, store.FieldsFrom(next)); err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err
		return result
	}
	result.Outcome = outcome
	result.Title = next.Title
	result.Current = next.Status

	if outcome == OutcomeNotified {
		change := notify.Change{
			StoreID:  next.ID,
			Title:    next.Title,
			Image:    next.Image,
			Previous: prev.Status,
			Current:  next.Status.String,
		}
		if err := s.notifier.Notify(ctx, change); err != nil {
			result.Error = fmt.Errorf("notify: %w", err)
		}
	}

	return result
}
