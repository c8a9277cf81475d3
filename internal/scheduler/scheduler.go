// Package scheduler is the process-wide sweep that enforces turn deadlines,
// advances tournament blind levels and removes abandoned tables.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokertable/internal/game"
)

const (
	DefaultInterval   = time.Minute
	DefaultStaleAfter = 3 * time.Hour
	DefaultWorkers    = 8
	DefaultBatchSize  = 500
)

// Tables is the slice of the engine the scheduler drives.
type Tables interface {
	DueTurns(ctx context.Context, now time.Time, limit int) ([]string, error)
	ProcessTimeout(ctx context.Context, id string, key game.TimeoutKey) (bool, error)
	DueLevels(ctx context.Context, now time.Time, limit int) ([]string, error)
	AdvanceBlindLevel(ctx context.Context, id string) (bool, error)
	StaleTables(ctx context.Context, cutoff time.Time, limit int) ([]string, error)
	TeardownStale(ctx context.Context, id string, cutoff time.Time) (bool, error)
}

// Options tunes the sweep. Zero values take the defaults.
type Options struct {
	Clock      quartz.Clock
	Logger     *log.Logger
	Interval   time.Duration
	StaleAfter time.Duration
	// Workers bounds how many tables are processed at once.
	Workers   int
	BatchSize int
}

// Scheduler wakes once per interval and processes every table with work due.
type Scheduler struct {
	tables     Tables
	clock      quartz.Clock
	logger     *log.Logger
	interval   time.Duration
	staleAfter time.Duration
	workers    int
	batch      int
}

// New returns a scheduler over tables.
func New(tables Tables, opts Options) *Scheduler {
	s := &Scheduler{
		tables:     tables,
		clock:      opts.Clock,
		logger:     opts.Logger,
		interval:   opts.Interval,
		staleAfter: opts.StaleAfter,
		workers:    opts.Workers,
		batch:      opts.BatchSize,
	}
	if s.clock == nil {
		s.clock = quartz.NewReal()
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.logger = s.logger.WithPrefix("scheduler")
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}
	if s.staleAfter <= 0 {
		s.staleAfter = DefaultStaleAfter
	}
	if s.workers <= 0 {
		s.workers = DefaultWorkers
	}
	if s.batch <= 0 {
		s.batch = DefaultBatchSize
	}
	return s
}

// Result counts what one sweep did.
type Result struct {
	Timeouts int
	Levels   int
	Removed  int
	Failed   int
}

// Run sweeps every interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("Scheduler started", "interval", s.interval, "stale_after", s.staleAfter, "workers", s.workers)
	w := s.clock.TickerFunc(ctx, s.interval, func() error {
		res := s.Sweep(ctx)
		if res != (Result{}) {
			s.logger.Info("Sweep finished", "timeouts", res.Timeouts, "levels", res.Levels, "removed", res.Removed, "failed", res.Failed)
		}
		return nil
	}, "scheduler")
	err := w.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.logger.Info("Scheduler stopped")
		return nil
	}
	return err
}

// Sweep runs one pass: expired turns, expired blind levels, then stale
// tables. Each table is handled in its own transaction; a failure on one
// table is logged and does not stop the others.
func (s *Scheduler) Sweep(ctx context.Context) Result {
	var timeouts, levels, removed, failed atomic.Int64
	now := s.clock.Now()

	s.pass(ctx, "turns", &failed,
		func() ([]string, error) { return s.tables.DueTurns(ctx, now, s.batch) },
		func(id string) (bool, error) { return s.tables.ProcessTimeout(ctx, id, game.TimeoutKey{}) },
		&timeouts)

	s.pass(ctx, "levels", &failed,
		func() ([]string, error) { return s.tables.DueLevels(ctx, now, s.batch) },
		func(id string) (bool, error) { return s.tables.AdvanceBlindLevel(ctx, id) },
		&levels)

	cutoff := now.Add(-s.staleAfter)
	s.pass(ctx, "stale", &failed,
		func() ([]string, error) { return s.tables.StaleTables(ctx, cutoff, s.batch) },
		func(id string) (bool, error) { return s.tables.TeardownStale(ctx, id, cutoff) },
		&removed)

	return Result{
		Timeouts: int(timeouts.Load()),
		Levels:   int(levels.Load()),
		Removed:  int(removed.Load()),
		Failed:   int(failed.Load()),
	}
}

func (s *Scheduler) pass(ctx context.Context, name string, failed *atomic.Int64,
	list func() ([]string, error), process func(id string) (bool, error), done *atomic.Int64) {
	ids, err := list()
	if err != nil {
		s.logger.Error("Query failed", "pass", name, "error", err)
		failed.Add(1)
		return
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ok, err := process(id)
			switch {
			case err != nil:
				failed.Add(1)
				s.logger.Warn("Table processing failed", "pass", name, "table", id, "error", err)
			case ok:
				done.Add(1)
				s.logger.Debug("Table processed", "pass", name, "table", id)
			}
			return nil
		})
	}
	_ = g.Wait()
}
