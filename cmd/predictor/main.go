package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	envFile    string
	deps       *app
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the configuration")

	rootCmd.AddCommand(
		newFetchCmd(),
		newTrainCmd(),
		newPredictCmd(),
		newValidateCmd(),
		newCheckResultsCmd(),
		newServeCmd(),
		newScheduleCmd(),
		newBundlesCmd(),
		newVersionCmd(),
	)
}

var rootCmd = &cobra.Command{
	Use:   "predictor",
	Short: "Football match outcome predictor",
	Long: `Fetches historical and upcoming matches, trains one model per prediction
target, publishes the ranked prediction snapshot and serves it over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" {
			return nil
		}
		a, err := loadApp(cmd.Context(), configFile, envFile)
		if err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		deps = a
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if deps != nil {
			deps.Close()
		}
	},
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("Error: %v", err)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("predictor %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
		},
	}
}
