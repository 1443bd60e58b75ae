// Package scheduler runs the nightly reporting job: aggregate the day that
// just ended, persist the snapshot and, when configured, export it to the
// spreadsheet.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/agrovida/hidrofresa/internal/config"
	"github.com/agrovida/hidrofresa/internal/service/reporting"
)

// Scheduler manages the cron-driven background jobs.
type Scheduler struct {
	cron         *cron.Cron
	reportingSvc *reporting.Service
	cfg          config.ReportingConfig
	location     *time.Location
	logger       *zap.Logger
}

// NewScheduler creates a scheduler running in the configured timezone so
// "end of day" matches the farm's local day, not the host's.
func NewScheduler(cfg config.ReportingConfig, reportingSvc *reporting.Service, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		reportingSvc: reportingSvc,
		cfg:          cfg,
		location:     location,
		logger:       logger,
	}, nil
}

// Start registers the nightly report job and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule daily report (%s): %w", s.cfg.CronSchedule, err)
	}

	s.logger.Info("scheduler started", zap.String("schedule", s.cfg.CronSchedule), zap.String("timezone", s.cfg.Timezone))
	s.cron.Start()
	return nil
}

// Stop stops the cron loop; already-running jobs finish on their own.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reportingSvc.GenerateDailyReport(ctx, time.Now().In(s.location))
	if err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}

	if err := s.reportingSvc.Export(ctx, report); err != nil {
		s.logger.Error("failed to export daily report", zap.Error(err))
	}
}
