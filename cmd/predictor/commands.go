package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/match-predictor/internal/api"
	"github.com/yourusername/match-predictor/internal/cache"
	"github.com/yourusername/match-predictor/internal/health"
	"github.com/yourusername/match-predictor/internal/metrics"
	"github.com/yourusername/match-predictor/internal/scheduler"
	"github.com/yourusername/match-predictor/internal/service"
)

// Stage names shared by the commands and the scheduled pipeline.
const (
	stageFetch         = "fetch"
	stageTrain         = "train"
	stageFetchUpcoming = "fetch_upcoming"
	stagePredict       = "predict"
	stageCheckResults  = "check_results"
)

func newFetchCmd() *cobra.Command {
	var (
		withUpcoming bool
		replace      bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch historical matches into the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deps.fetchHistorical(cmd.Context(), !replace); err != nil {
				return err
			}
			if !withUpcoming {
				return nil
			}
			return deps.fetchUpcoming(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&withUpcoming, "upcoming", false, "Also fetch upcoming fixtures")
	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the corpus instead of merging into it")
	return cmd
}

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train and publish one model bundle per target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.train(cmd.Context())
		},
	}
}

func newPredictCmd() *cobra.Command {
	var fetchFirst bool
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict upcoming matches and publish the snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fetchFirst {
				if err := deps.fetchUpcoming(cmd.Context()); err != nil {
					return err
				}
			}
			return deps.predict(cmd.Context())
		},
	}
	cmd.Flags().BoolVar(&fetchFirst, "fetch", false, "Fetch upcoming fixtures before predicting")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the corpus for missing and malformed fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.validate()
		},
	}
}

func newCheckResultsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-results",
		Short: "Score past predictions against finished matches",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.checkResults()
		},
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the prediction snapshot, stats and last update over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.serve(cmd.Context())
		},
	}
}

func newScheduleCmd() *cobra.Command {
	var (
		runNow   bool
		withAPI  bool
		cronExpr string
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the full pipeline on the weekly schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cronExpr == "" {
				cronExpr = deps.cfg.Schedule.Cron
			}
			return deps.schedule(cmd.Context(), cronExpr, runNow, withAPI)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run the pipeline once before waiting for the schedule")
	cmd.Flags().BoolVar(&withAPI, "serve", false, "Also serve the read API")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "Override the configured cron expression")
	return cmd
}

func newBundlesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bundles",
		Short: "List the registered model bundles per target",
		RunE: func(cmd *cobra.Command, args []string) error {
			return deps.listBundles(cmd.Context())
		},
	}
}

func (a *app) fetchHistorical(ctx context.Context, merge bool) error {
	svc, err := a.ingestion()
	if err != nil {
		return err
	}
	m, err := svc.IngestHistorical(ctx, service.HistoricalOptions{
		LeagueIDs:  a.cfg.Ingestion.Leagues,
		Weeks:      a.cfg.Ingestion.HistoricalWeeks,
		CorpusPath: a.cfg.Paths.RawMatches,
		Merge:      merge,
	})
	if err != nil {
		return fmt.Errorf("historical fetch failed: %w", err)
	}
	a.logger.WithField("counters", m.String()).Info("Historical fetch complete")
	return nil
}

func (a *app) fetchUpcoming(ctx context.Context) error {
	svc, err := a.ingestion()
	if err != nil {
		return err
	}
	matches, _, err := svc.FetchUpcoming(ctx, service.UpcomingOptions{
		LeagueIDs:  a.cfg.Ingestion.Leagues,
		Days:       a.cfg.Ingestion.UpcomingDays,
		OutputPath: a.cfg.Paths.Upcoming,
	})
	if err != nil {
		return fmt.Errorf("upcoming fetch failed: %w", err)
	}
	a.logger.WithField("matches", len(matches)).Info("Upcoming fetch complete")
	return nil
}

func (a *app) train(ctx context.Context) error {
	report, err := a.trainer().Run(ctx)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}
	entry := a.logger.WithFields(logrus.Fields{
		"run_id": report.RunID.String(),
		"rows":   report.Rows,
	})
	if failed := report.Failed(); len(failed) > 0 {
		entry.WithField("failed_targets", failed).Warn("Training finished with failed targets")
		return nil
	}
	entry.Info("Training complete")
	return nil
}

func (a *app) predict(ctx context.Context) error {
	res, err := a.predictor().Run(ctx)
	if err != nil {
		return fmt.Errorf("prediction failed: %w", err)
	}
	if res.Written {
		metrics.UpdateSnapshotEntries(len(res.Published))
	}
	return nil
}

func (a *app) validate() error {
	report, err := service.NewDataValidator(a.logger).ValidateCorpus(a.cfg.Paths.RawMatches)
	if err != nil {
		return err
	}
	metrics.RecordValidationIssues(len(report.Errors), len(report.Warnings))
	for _, issue := range report.Errors {
		a.logger.WithField("severity", "error").Error(issue.String())
	}
	for _, issue := range report.Warnings {
		a.logger.WithField("severity", "warning").Warn(issue.String())
	}
	a.logger.WithFields(logrus.Fields{
		"records":  report.Records,
		"errors":   len(report.Errors),
		"warnings": len(report.Warnings),
	}).Info("Corpus validation complete")
	if !report.Valid() {
		return service.ErrValidationFailed
	}
	return nil
}

func (a *app) listBundles(ctx context.Context) error {
	for _, target := range a.targets {
		entries, err := a.bundles.Bundles(ctx, target)
		if err != nil {
			return fmt.Errorf("failed to list bundles for %s: %w", target, err)
		}
		fmt.Printf("%s (%d bundles)\n", target, len(entries))
		for _, e := range entries {
			marker := " "
			if e.Active {
				marker = "*"
			}
			fmt.Printf("  %s %s  cv=%.3f val=%.3f  %s\n",
				marker, e.Key, e.CVMean, e.ValidationAccuracy, e.CreatedAt.UTC().Format(time.RFC3339))
		}
	}
	return nil
}

func (a *app) checkResults() error {
	summary, err := a.resultsChecker().Check()
	if err != nil {
		return err
	}
	a.logger.WithFields(logrus.Fields{
		"entries":   summary.Entries,
		"finished":  summary.Finished,
		"best_type": summary.Stats.BestType,
	}).Info("Results check complete")
	return nil
}

func (a *app) healthChecker(ctx context.Context) (*health.Checker, cache.LastUpdateStore, error) {
	checker := health.NewChecker(a.cfg.App.Name, Version)
	if a.db != nil {
		checker.AddCheck("database", a.db)
	}
	store, err := a.lastUpdateStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	if p, ok := store.(health.Pinger); ok {
		checker.AddCheck(store.Name(), p)
	}
	return checker, store, nil
}

func (a *app) apiServer(ctx context.Context) (*api.Server, error) {
	checker, store, err := a.healthChecker(ctx)
	if err != nil {
		return nil, err
	}
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	return api.NewServer(api.Options{
		Config:      a.cfg.API,
		MetricsPath: metricsPath,
		Files:       a.predictionFiles(),
		StatsPath:   a.cfg.Paths.Stats,
		LastUpdate:  store,
		Health:      checker,
		Logger:      a.logger,
	}), nil
}

func (a *app) serve(ctx context.Context) error {
	srv, err := a.apiServer(ctx)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// pipeline chains the weekly stages. A failed results check because no
// prediction history exists yet does not abort the run.
func (a *app) pipeline(ctx context.Context, onPublished func()) (*scheduler.Pipeline, error) {
	store, err := a.lastUpdateStore(ctx)
	if err != nil {
		return nil, err
	}
	stages := []scheduler.Stage{
		{Name: stageFetch, Run: func(ctx context.Context) error { return a.fetchHistorical(ctx, true) }},
		{Name: stageTrain, Run: a.train},
		{Name: stageFetchUpcoming, Run: a.fetchUpcoming},
		{Name: stagePredict, Run: func(ctx context.Context) error {
			if err := a.predict(ctx); err != nil {
				return err
			}
			if onPublished != nil {
				onPublished()
			}
			return nil
		}},
		{
			Name:     stageCheckResults,
			Run:      func(context.Context) error { return a.checkResults() },
			Tolerate: scheduler.TolerateErrors(service.ErrNoHistory),
		},
	}
	onComplete := func(ctx context.Context, at time.Time) error {
		return cache.RecordLastUpdate(ctx, store, a.audit, at)
	}
	return scheduler.NewPipeline(stages, onComplete, a.pipelineLog), nil
}

func (a *app) schedule(ctx context.Context, cronExpr string, runNow, withAPI bool) error {
	var srv *api.Server
	if withAPI {
		s, err := a.apiServer(ctx)
		if err != nil {
			return err
		}
		srv = s
	}

	onPublished := func() {}
	if srv != nil {
		onPublished = srv.Snapshots().Invalidate
	}
	p, err := a.pipeline(ctx, onPublished)
	if err != nil {
		return err
	}

	sched := scheduler.NewScheduler(p, 2*time.Hour, a.logger)
	if err := sched.SchedulePipeline(cronExpr); err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}
	defer func() {
		if err := sched.Stop(); err != nil {
			a.logger.WithError(err).Warn("Scheduler did not stop cleanly")
		}
	}()

	if runNow {
		if err := sched.RunNow(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.WithError(err).Error("Initial pipeline run failed")
		}
	}

	if srv != nil {
		return srv.Run(ctx)
	}
	a.logger.WithField("next_run", sched.GetNextRun()).Info("Waiting for scheduled runs")
	<-ctx.Done()
	return nil
}
