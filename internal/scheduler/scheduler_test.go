package scheduler

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/match-predictor/internal/logger"
)

var errNothingToCheck = errors.New("nothing to check")

func quietLogger() *logger.PipelineLogger {
	return logger.NewPipelineLogger(logger.NewLoggerWithOutput("error", io.Discard))
}

func recordingStage(name string, calls *[]string, err error) Stage {
	return Stage{Name: name, Run: func(context.Context) error {
		*calls = append(*calls, name)
		return err
	}}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	var calls []string
	var completedAt time.Time
	p := NewPipeline([]Stage{
		recordingStage("fetch", &calls, nil),
		recordingStage("train", &calls, nil),
		recordingStage("predict", &calls, nil),
	}, func(_ context.Context, at time.Time) error {
		completedAt = at
		return nil
	}, quietLogger())

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"fetch", "train", "predict"}, calls)
	assert.Equal(t, calls, result.Completed)
	assert.False(t, completedAt.IsZero())
}

func TestPipelineAbortsOnFailure(t *testing.T) {
	var calls []string
	saved := false
	boom := errors.New("boom")
	p := NewPipeline([]Stage{
		recordingStage("fetch", &calls, nil),
		recordingStage("train", &calls, boom),
		recordingStage("predict", &calls, nil),
	}, func(context.Context, time.Time) error {
		saved = true
		return nil
	}, quietLogger())

	result, err := p.Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "train", result.FailedAt)
	assert.Equal(t, []string{"fetch", "train"}, calls)
	assert.False(t, saved, "last update is only saved after a full run")
}

func TestPipelineToleratesStage(t *testing.T) {
	var calls []string
	saved := false
	check := recordingStage("check_results", &calls, errNothingToCheck)
	check.Tolerate = TolerateErrors(errNothingToCheck)

	p := NewPipeline([]Stage{
		recordingStage("predict", &calls, nil),
		check,
	}, func(context.Context, time.Time) error {
		saved = true
		return nil
	}, quietLogger())

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Contains(t, result.Tolerated, "check_results")
}

func TestPipelineCancelled(t *testing.T) {
	var calls []string
	p := NewPipeline([]Stage{recordingStage("fetch", &calls, nil)}, nil, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, calls)
}

func TestSchedulerRejectsOverlappingRuns(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	p := NewPipeline([]Stage{{Name: "slow", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}}, nil, quietLogger())
	s := NewScheduler(p, time.Minute, logger.NewLoggerWithOutput("error", io.Discard))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background()) }()
	<-started

	assert.ErrorIs(t, s.RunNow(context.Background()), ErrAlreadyRunning)
	close(release)
	assert.NoError(t, <-done)
}

func TestSchedulerLifecycle(t *testing.T) {
	p := NewPipeline(nil, nil, quietLogger())
	s := NewScheduler(p, time.Minute, logger.NewLoggerWithOutput("error", io.Discard))

	require.Error(t, s.Start(), "no jobs scheduled")
	require.Error(t, s.SchedulePipeline("not a cron"))
	require.NoError(t, s.SchedulePipeline("0 3 * * 1"))
	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())

	next := s.GetNextRun()
	require.False(t, next.IsZero())
	assert.Equal(t, time.Monday, next.Weekday())
	assert.Equal(t, 3, next.Hour())

	require.Error(t, s.SchedulePipeline("0 4 * * 1"), "cannot schedule while running")
	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
}
