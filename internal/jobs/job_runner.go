package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/osmanasaf/reindecar-sub001/internal/config"
	"github.com/osmanasaf/reindecar-sub001/internal/logger"
	"github.com/osmanasaf/reindecar-sub001/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Rental  service.RentalService
	Leasing service.LeasingService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(services *Services, cfg *config.Config) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery. Every run gets
// its own id so the log lines of one run can be grouped.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	ctx := logger.With(context.Background(), "job", jobName, "run_id", uuid.NewString())

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "Job panicked", "panic", r)
		}
	}()

	start := time.Now()
	logger.InfoContext(ctx, "Starting job")
	jobFunc(ctx)
	logger.InfoContext(ctx, "Job completed", "duration_ms", time.Since(start).Milliseconds())
}

// RunAllNightlyJobs runs all nightly jobs (for manual execution)
func (jr *JobRunner) RunAllNightlyJobs() {
	jr.ReportOverdueRentals()
}

// RunAllMonthlyJobs runs all monthly jobs (for manual execution)
func (jr *JobRunner) RunAllMonthlyJobs() {
	jr.GenerateLeasingInvoices()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
