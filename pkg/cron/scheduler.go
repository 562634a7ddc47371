// Package cron provides scheduled batch runs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/invoice-runner/internal/domain/ingest/service"
)

// Scheduler re-runs the invoice batch on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	runner   *service.BatchService
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a scheduler around the batch service.
func NewScheduler(runner *service.BatchService, schedule string, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		runner:   runner,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins the scheduled runs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.runBatch)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops the scheduler. The returned context is done once
// any in-flight run finishes.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers a batch run outside the schedule.
func (s *Scheduler) RunNow() {
	go s.runBatch()
}

// runBatch executes one scheduled batch run.
func (s *Scheduler) runBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	s.logger.Info("starting scheduled invoice batch")

	result, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Error("scheduled batch failed", slog.Any("error", err))
		return
	}

	s.logger.Info("scheduled batch completed",
		slog.Int("files", result.Summary.Files),
		slog.Int("rows", result.Summary.Rows),
		slog.Int("errors", len(result.Summary.Errors)),
		slog.Duration("duration", result.Duration),
	)
}
