// Package scheduler triggers digest runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pfrederiksen/contest-digest/internal/logger"
	"github.com/pfrederiksen/contest-digest/internal/pipeline"
)

// Runner runs one digest request
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Scheduler runs a Runner on a cron schedule evaluated in a fixed zone
type Scheduler struct {
	spec   string
	runner Runner
	cron   *cron.Cron
	entry  cron.EntryID
}

// New validates spec (standard five-field cron or a descriptor such as
// "@daily") and creates a scheduler evaluating it in loc
func New(spec string, loc *time.Location, runner Runner) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	s := &Scheduler{
		spec:   spec,
		runner: runner,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
	}
	return s, nil
}

// Start runs the schedule until ctx is canceled and waits for an in-flight
// run to finish
func (s *Scheduler) Start(ctx context.Context) error {
	id, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) })
	if err != nil {
		return fmt.Errorf("scheduling %q: %w", s.spec, err)
	}
	s.entry = id

	s.cron.Start()
	logger.Info("Scheduler started", logger.Fields{
		"schedule": s.spec,
		"next_run": s.cron.Entry(id).Next.Format(time.RFC3339),
	})

	<-ctx.Done()
	<-s.cron.Stop().Done()
	logger.Info("Scheduler stopped", nil)
	return ctx.Err()
}

// RunOnce triggers one run and logs its outcome. Failures are logged and
// counted; the schedule keeps going.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	res, err := s.runner.Run(ctx)
	if err != nil {
		logger.IncrCounter("scheduler.failed")
		logger.Error("Scheduled run failed", logger.Fields{"schedule": s.spec}, err)
		return
	}

	logger.IncrCounter("scheduler.runs")
	logger.Info("Scheduled run complete", logger.Fields{
		"run_id": res.RunID,
		"today":  res.Digest.Counts.Today,
	})
}
