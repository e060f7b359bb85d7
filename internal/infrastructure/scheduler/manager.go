// Package scheduler runs the periodic billing jobs using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/abengolea/heartlink-sub000/internal/application/subscription/usecases"
	"github.com/abengolea/heartlink-sub000/internal/shared/biztime"
	"github.com/abengolea/heartlink-sub000/internal/shared/logger"
)

// Sweeper runs one expiry sweep at the given instant.
type Sweeper interface {
	Execute(ctx context.Context, now time.Time) (*usecases.SweepReport, error)
}

// SchedulerManager owns the gocron scheduler for the process.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface
	now       func() time.Time

	started   bool
	startedMu sync.RWMutex
}

// NewSchedulerManager creates a scheduler in the business timezone.
func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
		now:       biztime.NowUTC,
	}, nil
}

// RegisterSweepJob runs the expiry sweeper every interval, starting
// immediately. Singleton mode skips a tick while the previous run is active.
// Overlapping with the HTTP cron trigger is harmless because every sweep
// write is conditional.
func (m *SchedulerManager) RegisterSweepJob(sweeper Sweeper, interval, timeout time.Duration) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.runSweep(ctx, sweeper)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "sweep"),
		gocron.WithName("subscription-expiry-sweep"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered subscription sweep job",
		"interval", interval.String(),
		"timeout", timeout.String(),
	)
	return nil
}

func (m *SchedulerManager) runSweep(ctx context.Context, sweeper Sweeper) {
	startTime := time.Now()

	report, err := sweeper.Execute(ctx, m.now())
	if err != nil {
		m.logger.Errorw("scheduled sweep failed",
			"error", err,
			"duration", time.Since(startTime),
		)
		return
	}

	if report.Blocked > 0 || report.Failed > 0 {
		m.logger.Infow("scheduled sweep finished",
			"total_expired", report.TotalExpired,
			"blocked", report.Blocked,
			"backfilled", report.Backfilled,
			"failed", report.Failed,
			"duration", time.Since(startTime),
		)
		return
	}

	m.logger.Debugw("scheduled sweep found nothing to block",
		"total_expired", report.TotalExpired,
		"duration", time.Since(startTime),
	)
}

// Start starts the scheduler. Calling it twice has no effect.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}
	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler started", "jobs", len(m.scheduler.Jobs()))
}

// Shutdown stops the scheduler and waits for running jobs.
func (m *SchedulerManager) Shutdown() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if err := m.scheduler.Shutdown(); err != nil {
		m.logger.Errorw("failed to shutdown scheduler", "error", err)
		return err
	}
	m.started = false
	m.logger.Infow("scheduler stopped")
	return nil
}

// IsStarted reports whether Start has been called.
func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}
