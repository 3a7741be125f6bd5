package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// ErrAlreadyRunning is returned by RunNow while a run is in progress.
var ErrAlreadyRunning = errors.New("pipeline already running")

// Scheduler runs the pipeline on a cron schedule
type Scheduler struct {
	cron            *cron.Cron
	pipeline        *Pipeline
	logger          *logrus.Entry
	runTimeout      time.Duration
	gracefulTimeout time.Duration

	mu        sync.RWMutex
	isRunning bool
	jobIDs    []cron.EntryID

	runMu sync.Mutex
}

// NewScheduler creates a new scheduler. Each run is bounded by runTimeout.
func NewScheduler(pipeline *Pipeline, runTimeout time.Duration, logger *logrus.Logger) *Scheduler {
	if runTimeout <= 0 {
		runTimeout = 4 * time.Hour
	}
	entry := logger.WithField("component", "scheduler")
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithChain(cron.Recover(cron.PrintfLogger(entry))),
		),
		pipeline:        pipeline,
		logger:          entry,
		runTimeout:      runTimeout,
		gracefulTimeout: 30 * time.Second,
		jobIDs:          make([]cron.EntryID, 0),
	}
}

// SchedulePipeline schedules the pipeline with a standard 5-field cron expression
func (s *Scheduler) SchedulePipeline(cronExpression string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("cannot schedule job while scheduler is running")
	}

	entryID, err := s.cron.AddFunc(cronExpression, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()
		if err := s.RunNow(ctx); err != nil {
			s.logger.WithError(err).Error("Scheduled pipeline run failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add job: %w", err)
	}

	s.jobIDs = append(s.jobIDs, entryID)
	s.logger.WithField("cron", cronExpression).Info("Scheduled weekly pipeline")
	return nil
}

// RunNow runs the pipeline once. Overlapping runs are rejected.
func (s *Scheduler) RunNow(ctx context.Context) error {
	if !s.runMu.TryLock() {
		s.logger.Warn("Skipping pipeline run, previous run still in progress")
		return ErrAlreadyRunning
	}
	defer s.runMu.Unlock()

	result, err := s.pipeline.Run(ctx)
	if err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{
		"duration":  result.Duration.String(),
		"completed": result.Completed,
	}).Info("Pipeline run finished")
	return nil
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("scheduler is already running")
	}
	if len(s.jobIDs) == 0 {
		return fmt.Errorf("no jobs scheduled")
	}

	s.cron.Start()
	s.isRunning = true
	s.logger.Infof("Scheduler started with %d jobs", len(s.jobIDs))
	return nil
}

// Stop stops the scheduler and waits for a running job, up to the graceful timeout
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(s.gracefulTimeout):
		s.logger.Warn("Scheduler stop timed out waiting for running job")
	}
	s.isRunning = false
	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRun returns the time of the next scheduled job run
func (s *Scheduler) GetNextRun() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning || len(s.jobIDs) == 0 {
		return time.Time{}
	}

	nextRun := time.Time{}
	for _, jobID := range s.jobIDs {
		entry := s.cron.Entry(jobID)
		if entry.Valid() {
			if nextRun.IsZero() || entry.Next.Before(nextRun) {
				nextRun = entry.Next
			}
		}
	}
	return nextRun
}
