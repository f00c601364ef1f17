package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/osmanasaf/reindecar-sub001/internal/jobs"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobRunner *jobs.JobRunner) *Scheduler {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	s.registerJobs()
	return s
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() {
	cfg := s.jobs.Config().Scheduler

	registered := 0
	register := func(name, spec string, job func()) {
		if _, err := s.cron.AddFunc(spec, job); err != nil {
			logger.Error("Failed to register job", "job", name, "spec", spec, "error", err)
			return
		}
		registered++
	}

	// Nightly
	register("ReportOverdueRentals", cfg.OverdueReport, s.jobs.ReportOverdueRentals)

	// Monthly
	register("GenerateLeasingInvoices", cfg.LeasingInvoices, s.jobs.GenerateLeasingInvoices)

	logger.Info("Cron jobs registered", "count", registered)
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler, waiting for running jobs
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}
