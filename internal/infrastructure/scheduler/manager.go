// Package scheduler runs the periodic jobs of the worker using gocron v2.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/orris-inc/helpdesk/internal/application/ingestion"
	"github.com/orris-inc/helpdesk/internal/shared/logger"
)

// Poller runs one mail poll cycle.
type Poller interface {
	PollOnce(ctx context.Context) (ingestion.PollResult, error)
}

// SchedulerManager owns the gocron scheduler and its jobs.
type SchedulerManager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	// consecutive poll failures, reset by the first successful cycle
	failures atomic.Int64

	started   bool
	startedMu sync.RWMutex
}

func NewSchedulerManager(log logger.Interface) (*SchedulerManager, error) {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, err
	}

	return &SchedulerManager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterPollJob polls the mailbox every interval. A failed cycle is logged
// and retried on the next tick; the job itself never stops.
func (m *SchedulerManager) RegisterPollJob(poller Poller, interval, timeout time.Duration) error {
	if interval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if timeout <= 0 {
		timeout = interval * 10
	}

	_, err := m.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			m.pollMailbox(ctx, poller)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("ingestion", "poll"),
		gocron.WithName("mailbox-poll"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered mailbox poll job", "interval", interval.String())
	return nil
}

func (m *SchedulerManager) pollMailbox(ctx context.Context, poller Poller) {
	startTime := time.Now()

	result, err := poller.PollOnce(ctx)
	if err != nil {
		m.logger.Errorw("mailbox poll failed",
			"error", err,
			"consecutive_failures", m.failures.Add(1),
			"duration", time.Since(startTime),
		)
		return
	}
	if n := m.failures.Swap(0); n > 0 {
		m.logger.Infow("mailbox poll recovered", "after_failures", n)
	}

	if result.Fetched == 0 {
		m.logger.Debugw("no new mail", "duration", time.Since(startTime))
	}
}

// Start starts the scheduler and all registered jobs.
func (m *SchedulerManager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop waits for running jobs to finish before returning.
func (m *SchedulerManager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

func (m *SchedulerManager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *SchedulerManager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
