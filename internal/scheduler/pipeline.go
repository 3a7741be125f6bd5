package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/metrics"
)

// Stage is one step of the weekly pipeline. A failing stage aborts the run
// unless Tolerate returns true for its error.
type Stage struct {
	Name     string
	Run      func(ctx context.Context) error
	Tolerate func(err error) bool
}

// PipelineResult reports one pipeline run.
type PipelineResult struct {
	StartedAt time.Time
	Duration  time.Duration
	Completed []string
	Tolerated map[string]error
	FailedAt  string
}

// Pipeline runs stages in order and records completion when all succeed
type Pipeline struct {
	stages     []Stage
	onComplete func(ctx context.Context, at time.Time) error
	log        *logger.PipelineLogger
	now        func() time.Time
}

// NewPipeline creates a pipeline. onComplete runs after the last stage
// succeeded, with the completion time.
func NewPipeline(stages []Stage, onComplete func(ctx context.Context, at time.Time) error, pipelineLog *logger.PipelineLogger) *Pipeline {
	return &Pipeline{
		stages:     stages,
		onComplete: onComplete,
		log:        pipelineLog,
		now:        time.Now,
	}
}

// Run executes every stage once
func (p *Pipeline) Run(ctx context.Context) (*PipelineResult, error) {
	result := &PipelineResult{StartedAt: p.now(), Tolerated: map[string]error{}}
	defer func() { result.Duration = p.now().Sub(result.StartedAt) }()

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			result.FailedAt = stage.Name
			return result, err
		}

		started := time.Now()
		p.log.WithField("stage", stage.Name).Info("Stage starting")
		err := stage.Run(ctx)
		metrics.RecordStage(stage.Name, started, err)

		if err != nil {
			if stage.Tolerate != nil && stage.Tolerate(err) {
				result.Tolerated[stage.Name] = err
				p.log.WithError(err).WithField("stage", stage.Name).Warn("Stage failed, continuing")
				continue
			}
			result.FailedAt = stage.Name
			p.log.WithError(err).WithField("stage", stage.Name).Error("Pipeline failed")
			return result, fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		result.Completed = append(result.Completed, stage.Name)
	}

	if p.onComplete != nil {
		if err := p.onComplete(ctx, p.now()); err != nil {
			return result, fmt.Errorf("failed to save last update: %w", err)
		}
	}

	p.log.WithFields(logrus.Fields{
		"stages":    len(result.Completed),
		"tolerated": len(result.Tolerated),
	}).Info("Pipeline completed")
	return result, nil
}

// TolerateErrors returns a Tolerate func accepting the given sentinels
func TolerateErrors(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}
