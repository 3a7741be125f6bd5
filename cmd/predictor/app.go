package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/artifact"
	"github.com/yourusername/match-predictor/internal/cache"
	"github.com/yourusername/match-predictor/internal/config"
	"github.com/yourusername/match-predictor/internal/database"
	"github.com/yourusername/match-predictor/internal/datasource"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/metrics"
	"github.com/yourusername/match-predictor/internal/ml"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/prediction"
	"github.com/yourusername/match-predictor/internal/service"
	"github.com/yourusername/match-predictor/internal/storage"
	"github.com/yourusername/match-predictor/internal/training"
)

// app holds the dependencies shared by every command. It is built once per
// process and passed down explicitly.
type app struct {
	cfg         *config.Config
	logger      *logrus.Logger
	pipelineLog *logger.PipelineLogger
	audit       *logger.AuditLogger
	targets     []models.PredictionTarget
	db          *database.DB
	bundles     *artifact.Manager
	lastUpdate  cache.LastUpdateStore
}

func loadApp(ctx context.Context, configPath, dotenv string) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := config.LoadDotEnv(dotenv); err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	secretsCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := config.LoadSecretsFromAWS(secretsCtx, cfg); err != nil {
		return nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if err := config.ValidateEnvironment(cfg); err != nil {
		return nil, err
	}

	targets, err := models.ParseTargets(cfg.Training.Targets)
	if err != nil {
		return nil, err
	}

	log := logger.NewLogger(cfg.App.LogLevel)
	metrics.InitRegistry()

	a := &app{
		cfg:         cfg,
		logger:      log,
		pipelineLog: logger.NewPipelineLogger(log),
		audit:       logger.NewAuditLogger(log),
		targets:     targets,
	}

	registry, err := a.registry(ctx)
	if err != nil {
		return nil, err
	}
	a.bundles = artifact.NewManager(artifact.NewStore(cfg.BundlesDir()), registry, a.audit)

	log.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"registry":    cfg.Registry.Backend,
		"targets":     len(targets),
		"version":     Version,
	}).Debug("Configuration loaded")
	return a, nil
}

// registry opens the bundle registry selected by configuration.
func (a *app) registry(ctx context.Context) (artifact.Registry, error) {
	if !a.cfg.UsesPostgresRegistry() {
		return artifact.NewFileRegistry(a.cfg.ManifestPath()), nil
	}
	db, err := database.Initialize(ctx, a.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to registry database: %w", err)
	}
	a.db = db
	return artifact.NewPostgresRegistry(db), nil
}

// lastUpdateStore opens the last-update store on first use.
func (a *app) lastUpdateStore(ctx context.Context) (cache.LastUpdateStore, error) {
	if a.lastUpdate != nil {
		return a.lastUpdate, nil
	}
	store, err := cache.NewLastUpdateStore(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open last update store: %w", err)
	}
	a.lastUpdate = store
	return store, nil
}

func (a *app) predictionFiles() storage.PredictionFiles {
	return storage.PredictionFiles{
		SnapshotPath: a.cfg.Paths.Snapshot,
		HistoryPath:  a.cfg.Paths.History,
	}
}

func (a *app) ingestion() (*service.IngestionService, error) {
	source, err := datasource.NewMatchSource(a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	return service.NewIngestionService(source, service.NewDataValidator(a.logger), a.pipelineLog), nil
}

func (a *app) trainer() *training.Trainer {
	tc := a.cfg.Training
	return training.NewTrainer(training.Options{
		CorpusPath:     a.cfg.Paths.RawMatches,
		PreprocessPath: a.cfg.PreprocessPath(),
		MetricsPath:    a.cfg.TrainMetricsPath(),
		Targets:        a.targets,
		RequireOdds:    tc.RequireOdds,
		FormWindow:     a.cfg.Features.FormWindow,
		Forest: ml.ForestParams{
			Trees:          tc.Trees,
			MaxDepth:       tc.MaxDepth,
			MinSamplesLeaf: tc.MinSamplesLeaf,
			MaxFeatures:    tc.MaxFeatures,
			Seed:           tc.Seed,
		},
		CVFolds:      tc.CVFolds,
		TestFraction: tc.TestFraction,
	}, a.bundles, a.pipelineLog)
}

func (a *app) predictor() *prediction.Predictor {
	return prediction.NewPredictor(prediction.Options{
		CorpusPath:   a.cfg.Paths.RawMatches,
		UpcomingPath: a.cfg.Paths.Upcoming,
		LeaguesPath:  a.cfg.Paths.Leagues,
		Files:        a.predictionFiles(),
		Targets:      a.targets,
		TopN:         a.cfg.Prediction.TopN,
		FormWindow:   a.cfg.Features.FormWindow,
	}, a.bundles, a.pipelineLog, a.audit)
}

func (a *app) resultsChecker() *service.ResultsChecker {
	return service.NewResultsChecker(a.cfg.Paths.RawMatches, a.cfg.Paths.Stats, a.predictionFiles(), a.pipelineLog)
}

// Close releases connections opened by the commands.
func (a *app) Close() {
	if a.lastUpdate != nil {
		if err := a.lastUpdate.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close last update store")
		}
	}
	if a.db != nil {
		a.db.Close()
	}
}
