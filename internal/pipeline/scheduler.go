package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned by Trigger while another run holds the lock.
var ErrRunInProgress = errors.New("run already in progress")

// Runner performs one pipeline run.
type Runner interface {
	RunOnce(ctx context.Context) (Result, error)
}

// Scheduler runs a Runner on a cron schedule and on demand. At most one run
// is in flight at a time; overlapping triggers are skipped.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	mu     sync.Mutex
	ctx    context.Context
	logger *slog.Logger
}

// NewScheduler parses spec as a standard five-field cron expression
// (descriptors such as "@every 5m" are accepted too).
func NewScheduler(runner Runner, spec string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		runner: runner,
		cron:   cron.New(cron.WithLogger(cronLogger{logger})),
		ctx:    context.Background(),
		logger: logger,
	}
	if _, err := s.cron.AddFunc(spec, s.scheduledRun); err != nil {
		return nil, fmt.Errorf("add schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start begins firing scheduled runs. Runs receive ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "next_run", s.Next().Format(time.RFC3339))
}

// Stop prevents further runs and waits for a running one to finish, or for
// ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the time of the next scheduled run.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if next := entries[0].Next; !next.IsZero() {
		return next
	}
	return entries[0].Schedule.Next(time.Now())
}

// Trigger runs the pipeline now unless a run is already in progress.
func (s *Scheduler) Trigger(ctx context.Context) (Result, error) {
	if !s.mu.TryLock() {
		return Result{}, ErrRunInProgress
	}
	defer s.mu.Unlock()
	return s.runner.RunOnce(ctx)
}

func (s *Scheduler) scheduledRun() {
	res, err := s.Trigger(s.ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		s.logger.Info("scheduled run skipped", "reason", err)
	case err != nil:
		s.logger.Error("scheduled run failed", "run_id", res.RunID, "error", err)
	default:
		s.logger.Info("scheduled run complete",
			"run_id", res.RunID, "matched", res.Matched, "next_run", s.Next().Format(time.RFC3339))
	}
}

// cronLogger routes cron's internal logging through slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append([]any{"error", err}, keysAndValues...)...)
}
