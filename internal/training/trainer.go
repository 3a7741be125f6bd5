// Package training fits one model bundle per prediction target from the
// historical corpus.
package training

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/artifact"
	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/ml"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/preprocess"
	"github.com/yourusername/match-predictor/internal/storage"
)

// Options configures a training run.
type Options struct {
	CorpusPath     string
	PreprocessPath string
	MetricsPath    string
	Targets        []models.PredictionTarget
	RequireOdds    bool
	FormWindow     int
	Forest         ml.ForestParams
	CVFolds        int
	TestFraction   float64
}

// TargetReport is the evaluation of one target's bundle.
type TargetReport struct {
	artifact.Metrics
	BundleKey string `json:"bundle_key"`
	Error     string `json:"error,omitempty"`
}

// Report summarises a training run. It is written as the metrics file.
type Report struct {
	RunID         uuid.UUID                `json:"run_id"`
	CompletedAt   time.Time                `json:"completed_at"`
	Duration      string                   `json:"duration"`
	SchemaVersion string                   `json:"schema_version"`
	InputRecords  int                      `json:"input_records"`
	WithoutOdds   int                      `json:"without_odds"`
	Rows          int                      `json:"rows"`
	Targets       map[string]*TargetReport `json:"targets"`
}

// Failed lists the targets that produced no bundle.
func (r *Report) Failed() []string {
	var failed []string
	for name, t := range r.Targets {
		if t.Error != "" {
			failed = append(failed, name)
		}
	}
	return failed
}

// Trainer runs the training pipeline.
type Trainer struct {
	opts    Options
	bundles *artifact.Manager
	log     *logger.PipelineLogger
	now     func() time.Time
}

// NewTrainer creates a trainer publishing into bundles.
func NewTrainer(opts Options, bundles *artifact.Manager, log *logger.PipelineLogger) *Trainer {
	if len(opts.Targets) == 0 {
		opts.Targets = models.AllTargets
	}
	if opts.CVFolds < 2 {
		opts.CVFolds = 5
	}
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		opts.TestFraction = 0.2
	}
	if opts.FormWindow < 1 {
		opts.FormWindow = features.DefaultFormWindow
	}
	return &Trainer{opts: opts, bundles: bundles, log: log, now: time.Now}
}

// Run trains and activates a bundle for every configured target. A target
// that fails is reported and skipped; the run fails when every target does.
func (t *Trainer) Run(ctx context.Context) (*Report, error) {
	start := t.now()
	report := &Report{RunID: uuid.New(), Targets: make(map[string]*TargetReport, len(t.opts.Targets))}

	t.log.WithFields(logrus.Fields{
		"run_id":       report.RunID,
		"targets":      len(t.opts.Targets),
		"require_odds": t.opts.RequireOdds,
	}).Info("Starting training run")

	// Step 1: Load the corpus
	records, err := storage.LoadMatches(t.opts.CorpusPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCorpus, err)
	}
	report.InputRecords = len(records)

	// Step 2: Odds filter and preprocessing
	ds, withoutOdds, err := t.Prepare(records)
	if err != nil {
		return nil, err
	}
	report.WithoutOdds = withoutOdds
	t.log.LogStageCounters("preprocess", ds.Stats.Counters())
	for _, c := range ds.Stats.ZeroFilled {
		t.log.LogDataQuality("preprocess", "head-to-head counter absent from source, filled with 0", logrus.Fields{"column": c})
	}
	for _, c := range ds.Stats.DroppedColumns {
		t.log.LogDataQuality("preprocess", "column entirely missing, dropped", logrus.Fields{"column": c})
	}
	if t.opts.PreprocessPath != "" {
		if err := preprocess.SaveTransformer(t.opts.PreprocessPath, ds.Transformer); err != nil {
			return nil, fmt.Errorf("failed to save transformer: %w", err)
		}
	}
	report.SchemaVersion = ds.Transformer.SchemaVersion
	report.Rows = ds.Frame.Len()

	// Step 3: One bundle per target
	for _, target := range t.opts.Targets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tr, err := t.trainTarget(ctx, ds, target)
		if err != nil {
			ml.TrainingRunsTotal.WithLabelValues(string(target), "failure").Inc()
			t.log.WithField("target", target).WithError(err).Error("Training failed for target")
			report.Targets[string(target)] = &TargetReport{Metrics: artifact.Metrics{Target: target}, Error: err.Error()}
			continue
		}
		ml.TrainingRunsTotal.WithLabelValues(string(target), "success").Inc()
		ml.CVAccuracy.WithLabelValues(string(target)).Set(tr.CVMean)
		ml.ValidationAccuracy.WithLabelValues(string(target)).Set(tr.ValidationAccuracy)
		report.Targets[string(target)] = tr
	}

	report.CompletedAt = t.now().UTC()
	report.Duration = report.CompletedAt.Sub(start).String()

	if t.opts.MetricsPath != "" {
		if err := storage.WriteJSON(t.opts.MetricsPath, report); err != nil {
			return nil, fmt.Errorf("failed to write training metrics: %w", err)
		}
	}

	failed := report.Failed()
	t.log.WithFields(logrus.Fields{
		"run_id":   report.RunID,
		"rows":     report.Rows,
		"trained":  len(report.Targets) - len(failed),
		"failed":   failed,
		"duration": report.Duration,
	}).Info("Training run complete")

	if len(failed) == len(t.opts.Targets) {
		return report, ErrAllTargetsFailed
	}
	return report, nil
}

func (t *Trainer) trainTarget(ctx context.Context, ds *preprocess.Dataset, target models.PredictionTarget) (*TargetReport, error) {
	y, encoder, err := encodeLabels(target, ds.Labels[target])
	if err != nil {
		return nil, err
	}
	x := ds.Frame.Rows
	params := t.opts.Forest

	cv, err := ml.CrossValidate(x, y, t.opts.CVFolds, params.Seed, func() ml.Classifier {
		return ml.NewRandomForest(params)
	})
	if err != nil {
		return nil, fmt.Errorf("cross-validation failed: %w", err)
	}

	split, err := ml.TrainTestSplit(y, t.opts.TestFraction, params.Seed)
	if err != nil {
		return nil, err
	}
	var warnings []string
	if split.Warning != "" {
		warnings = append(warnings, split.Warning)
		t.log.LogDataQuality("train", split.Warning, logrus.Fields{"target": target})
	}

	xTrain, yTrain := ml.Pick(x, split.Train), ml.PickInts(y, split.Train)
	model := ml.NewRandomForest(params)
	if err := model.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("fit failed: %w", err)
	}
	trainAcc, err := model.Score(xTrain, yTrain)
	if err != nil {
		return nil, err
	}
	valAcc, err := model.Score(ml.Pick(x, split.Test), ml.PickInts(y, split.Test))
	if err != nil {
		return nil, err
	}

	metrics := artifact.Metrics{
		Target:             target,
		CVMean:             cv.Mean,
		CVStd:              cv.Std,
		CVFolds:            len(cv.Scores),
		TrainAccuracy:      trainAcc,
		ValidationAccuracy: valAcc,
		Stratified:         split.Stratified,
		TrainRows:          len(split.Train),
		TestRows:           len(split.Test),
		Classes:            classNames(model.Classes, encoder),
		Warnings:           warnings,
	}
	bundle := &artifact.Bundle{
		Target:        target,
		CreatedAt:     t.now().UTC(),
		SchemaVersion: ds.Transformer.SchemaVersion,
		Transformer:   ds.Transformer,
		TargetEncoder: encoder,
		Model:         model,
		Metrics:       metrics,
	}
	if err := t.bundles.Publish(ctx, bundle); err != nil {
		return nil, fmt.Errorf("failed to publish bundle: %w", err)
	}

	t.log.LogTrainingMetrics(string(target), cv.Mean, cv.Std, trainAcc, valAcc, split.Stratified, bundle.Key)
	return &TargetReport{Metrics: metrics, BundleKey: bundle.Key}, nil
}

// encodeLabels maps text labels to model classes. Categorical targets get a
// fitted encoder; binary targets are already 0/1.
func encodeLabels(target models.PredictionTarget, labels []string) ([]int, *features.LabelEncoder, error) {
	y := make([]int, len(labels))
	if !target.Categorical() {
		for i, l := range labels {
			v, err := strconv.Atoi(l)
			if err != nil {
				return nil, nil, fmt.Errorf("invalid %s label %q: %w", target, l, err)
			}
			y[i] = v
		}
		return y, nil, nil
	}

	encoder := features.FitLabelEncoder(labels)
	for i, l := range labels {
		code, err := encoder.Transform(l)
		if err != nil {
			return nil, nil, err
		}
		y[i] = code
	}
	return y, encoder, nil
}

func classNames(classes []int, encoder *features.LabelEncoder) []string {
	names := make([]string, 0, len(classes))
	for _, c := range classes {
		if encoder == nil {
			names = append(names, strconv.Itoa(c))
			continue
		}
		if name, err := encoder.Inverse(c); err == nil {
			names = append(names, name)
		}
	}
	return names
}

// Prepare applies the odds filter to the training rows and fits the
// preprocessing on them. Recent form is still windowed over the whole corpus,
// as it is at prediction time. It returns the number of rows excluded for
// incomplete odds.
func (t *Trainer) Prepare(records []models.MatchRecord) (*preprocess.Dataset, int, error) {
	rows, excluded := records, 0
	if t.opts.RequireOdds {
		rows, excluded = withOdds(records)
		if excluded > 0 {
			t.log.LogDataQuality("train", "records without complete odds excluded", logrus.Fields{
				"excluded": excluded,
			})
		}
	}

	ds, err := preprocess.Fit(rows, t.opts.Targets, preprocess.Options{
		FormWindow: t.opts.FormWindow,
		FormCorpus: records,
	})
	if err != nil {
		return nil, excluded, fmt.Errorf("preprocessing failed: %w", err)
	}
	return ds, excluded, nil
}

func withOdds(records []models.MatchRecord) ([]models.MatchRecord, int) {
	kept := make([]models.MatchRecord, 0, len(records))
	for _, rec := range records {
		if rec.Odds.Complete() {
			kept = append(kept, rec)
		}
	}
	return kept, len(records) - len(kept)
}
