// Package scheduler drives the sync pipeline from cron specs in daemon mode.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lorrc/helpdesk-bridge/internal/core/domain"
	apperrors "github.com/lorrc/helpdesk-bridge/internal/core/errors"
	"github.com/lorrc/helpdesk-bridge/internal/core/ports"
	"github.com/robfig/cron/v3"
)

// Scheduler fires sync cycles on their cron schedules.
type Scheduler struct {
	mu       sync.Mutex
	cron     *cron.Cron
	pipeline ports.SyncPipeline
	entries  map[domain.CycleKind]cron.EntryID
	ctx      context.Context
	logger   *slog.Logger
}

// New creates a scheduler. Overlapping firings of one cycle are skipped by
// the cron chain; the pipeline itself refuses overlapping cycles of
// different kinds.
func New(pipeline ports.SyncPipeline, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.Local),
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		pipeline: pipeline,
		entries:  make(map[domain.CycleKind]cron.EntryID),
		ctx:      context.Background(),
		logger:   logger,
	}
}

// Schedule registers a cycle. An empty spec leaves the cycle unscheduled.
// The spec is a standard 5-field expression or a descriptor like @every 5m.
func (s *Scheduler) Schedule(kind domain.CycleKind, spec string) error {
	if spec == "" {
		s.logger.Info("cycle not scheduled", "cycle", kind)
		return nil
	}
	if !kind.IsValid() {
		return fmt.Errorf("scheduler: %w: %q", apperrors.ErrUnknownCycle, kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[kind]; ok {
		s.cron.Remove(id)
	}
	id, err := s.cron.AddFunc(spec, func() { s.run(kind) })
	if err != nil {
		return fmt.Errorf("scheduler: invalid schedule %q for %s: %w", spec, kind, err)
	}
	s.entries[kind] = id
	s.logger.Info("cycle scheduled", "cycle", kind, "schedule", spec)
	return nil
}

// Start runs the cron loop and blocks until ctx is cancelled, then waits for
// a running cycle to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.JobCount())
	for kind, next := range s.NextRuns() {
		s.logger.Info("next run", "cycle", kind, "at", next.Format(time.RFC3339))
	}

	<-ctx.Done()
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// JobCount returns the number of scheduled cycles.
func (s *Scheduler) JobCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// NextRuns returns when each scheduled cycle fires next. Before Start the
// times are zero.
func (s *Scheduler) NextRuns() map[domain.CycleKind]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[domain.CycleKind]time.Time, len(s.entries))
	for kind, id := range s.entries {
		next[kind] = s.cron.Entry(id).Next
	}
	return next
}

func (s *Scheduler) run(kind domain.CycleKind) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if ctx.Err() != nil {
		return
	}

	report, err := s.pipeline.RunCycle(ctx, kind)
	switch {
	case errors.Is(err, apperrors.ErrCycleInProgress):
		s.logger.Info("scheduled cycle skipped, another cycle is running", "cycle", kind)
	case err != nil:
		// The pipeline already logged the cause with the cycle id.
		s.logger.Warn("scheduled cycle failed", "cycle", kind, "error", err)
	case report != nil:
		s.logger.Debug("scheduled cycle finished", "cycle", kind, "cycle_id", report.ID, "duration", report.Duration())
	}
}
