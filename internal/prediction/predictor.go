// Package prediction scores upcoming matches with the active model bundles
// and publishes the ranked snapshot.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/artifact"
	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/ml"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

// DefaultTopN is the number of matches published when unset.
const DefaultTopN = 6

// Options configures a prediction run.
type Options struct {
	CorpusPath   string
	UpcomingPath string
	LeaguesPath  string
	Files        storage.PredictionFiles
	Targets      []models.PredictionTarget
	TopN         int
	FormWindow   int
}

// Result summarises a prediction run.
type Result struct {
	RunID     uuid.UUID
	Upcoming  int
	Published []models.PredictionResult
	Degraded  []models.PredictionTarget
	Written   bool
}

// Predictor runs the prediction pipeline.
type Predictor struct {
	opts    Options
	bundles *artifact.Manager
	log     *logger.PipelineLogger
	audit   *logger.AuditLogger
	now     func() time.Time
}

// NewPredictor creates a predictor. audit may be nil.
func NewPredictor(opts Options, bundles *artifact.Manager, log *logger.PipelineLogger, audit *logger.AuditLogger) *Predictor {
	if len(opts.Targets) == 0 {
		opts.Targets = models.AllTargets
	}
	if opts.TopN < 1 {
		opts.TopN = DefaultTopN
	}
	if opts.FormWindow < 1 {
		opts.FormWindow = features.DefaultFormWindow
	}
	return &Predictor{opts: opts, bundles: bundles, log: log, audit: audit, now: time.Now}
}

// Run predicts every upcoming match and writes the top matches as the current
// snapshot, appending them to the history log. With no upcoming matches it
// writes nothing.
func (p *Predictor) Run(ctx context.Context) (*Result, error) {
	res := &Result{RunID: uuid.New()}

	// Step 1: Load upcoming matches
	upcoming, err := storage.LoadUpcoming(p.opts.UpcomingPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming matches: %w", err)
	}
	res.Upcoming = len(upcoming)
	if len(upcoming) == 0 {
		p.log.WithField("run_id", res.RunID).Info("No upcoming matches, nothing to predict")
		return res, nil
	}

	// Step 2: Load the active bundle of every target
	bundles := make(map[models.PredictionTarget]*artifact.Bundle, len(p.opts.Targets))
	for _, target := range p.opts.Targets {
		b, err := p.bundles.LoadActive(ctx, target)
		key := ""
		if b != nil {
			key = b.Key
		}
		p.log.LogBundleLoad(string(target), key, err)
		if err != nil {
			res.Degraded = append(res.Degraded, target)
			continue
		}
		bundles[target] = b
	}
	if len(bundles) == 0 {
		return nil, ErrNoBundles
	}

	// Step 3: Feature engine over the historical corpus
	engine := p.engine()
	var matches []models.UpcomingMatch
	var rows []features.Engineered
	for _, m := range upcoming {
		e, err := engine.FromUpcoming(m)
		if err != nil {
			p.log.LogDataQuality("predict", "upcoming match skipped", logrus.Fields{
				"match_id": m.MatchID,
				"error":    err.Error(),
			})
			continue
		}
		matches = append(matches, m)
		rows = append(rows, e)
	}

	results := make([]models.PredictionResult, len(matches))
	for i, m := range matches {
		results[i] = models.PredictionResult{
			MatchID:     m.MatchID,
			LeagueID:    m.LeagueID,
			League:      engine.LeagueName(m),
			Date:        m.Date,
			Time:        m.Time,
			HomeTeam:    m.HomeName,
			AwayTeam:    m.AwayName,
			Odds:        models.SnapshotOddsFrom(m.Odds),
			Predictions: make(map[string]models.TargetPrediction, len(p.opts.Targets)),
		}
		for _, target := range p.opts.Targets {
			results[i].Predictions[target.SnapshotKey()] = models.TargetPrediction{}
		}
	}

	// Step 4: Predict per target
	for _, target := range p.opts.Targets {
		b, ok := bundles[target]
		if !ok || len(rows) == 0 {
			continue
		}
		if err := p.predictTarget(b, rows, results); err != nil {
			p.log.LogPredictionFailure(string(target), err)
			res.Degraded = append(res.Degraded, target)
		}
	}

	// Step 5: Rank, publish and record
	sortByWinnerConfidence(results)
	if len(results) > p.opts.TopN {
		results = results[:p.opts.TopN]
	}
	res.Published = results

	at := p.now()
	if err := p.opts.Files.SaveSnapshot(results); err != nil {
		return nil, fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := p.opts.Files.AppendHistory(models.NewHistoryEntries(results, res.RunID, at)); err != nil {
		return nil, fmt.Errorf("failed to append history: %w", err)
	}
	res.Written = true

	if p.audit != nil {
		p.audit.LogSnapshotPublished(res.RunID.String(), p.opts.Files.SnapshotPath, len(results), at)
	}
	degraded := make([]string, len(res.Degraded))
	for i, t := range res.Degraded {
		degraded[i] = string(t)
	}
	p.log.LogPredictionRun(res.RunID.String(), res.Upcoming, len(results), degraded)
	return res, nil
}

// predictTarget fills the target's entry of every result. A row whose
// prediction fails keeps the null entry.
func (p *Predictor) predictTarget(b *artifact.Bundle, rows []features.Engineered, results []models.PredictionResult) error {
	frame, stats, err := b.Transformer.Prepare(rows)
	if err != nil {
		ml.PredictionsTotal.WithLabelValues(string(b.Target), "degraded").Add(float64(len(rows)))
		return err
	}
	if stats.LeagueFallbacks > 0 || len(stats.ZeroFilled) > 0 {
		p.log.LogDataQuality("predict", "features degraded", logrus.Fields{
			"target":           b.Target,
			"league_fallbacks": stats.LeagueFallbacks,
			"zero_filled":      stats.ZeroFilled,
			"imputed":          stats.Imputed,
		})
	}

	key := b.Target.SnapshotKey()
	failed := 0
	for i, row := range frame.Rows {
		class, conf, err := b.Model.Predict(row)
		if err == nil {
			var label string
			label, err = b.DecodeClass(class)
			if err == nil {
				results[i].Predictions[key] = models.TargetPrediction{Class: models.StringPtr(label), Confidence: conf}
				continue
			}
		}
		failed++
		p.log.WithFields(logrus.Fields{
			"target":   b.Target,
			"match_id": results[i].MatchID,
		}).WithError(err).Warn("Prediction failed for match")
	}

	ml.PredictionsTotal.WithLabelValues(string(b.Target), "success").Add(float64(len(frame.Rows) - failed))
	if failed > 0 {
		ml.PredictionsTotal.WithLabelValues(string(b.Target), "degraded").Add(float64(failed))
	}
	if failed == len(frame.Rows) {
		return fmt.Errorf("all %d predictions failed", failed)
	}
	return nil
}

// engine builds the inference feature engine with form windowed over the
// whole historical corpus.
func (p *Predictor) engine() *features.Engine {
	return features.NewEngine(features.NewFormIndex(p.loadCorpus(), p.opts.FormWindow), p.loadLeagues())
}

func (p *Predictor) loadCorpus() []models.MatchRecord {
	records, err := storage.LoadMatches(p.opts.CorpusPath)
	if err != nil {
		p.log.LogDataQuality("predict", "historical corpus unavailable, form features are zero", logrus.Fields{
			"error": err.Error(),
		})
		return nil
	}
	return records
}

func (p *Predictor) loadLeagues() models.LeagueTable {
	if p.opts.LeaguesPath == "" {
		return models.LeagueTable{}
	}
	leagues, err := storage.LoadLeagues(p.opts.LeaguesPath)
	if err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			p.log.WithError(err).Warn("Failed to read league table")
		}
		return models.LeagueTable{}
	}
	return leagues
}

// sortByWinnerConfidence orders results by descending Winner confidence,
// keeping the upstream order between ties.
func sortByWinnerConfidence(results []models.PredictionResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].WinnerConfidence() > results[j].WinnerConfidence()
	})
}
