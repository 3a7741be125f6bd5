// Package config provides configuration management for the match predictor.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "MATCH_PREDICTOR"

// LoadDotEnv loads variables from .env files into the process environment.
// Variables already set are kept and missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := readExpanded(v, data); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

// LoadWithDefaults loads configuration with default values for optional fields
// A missing file is not an error.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v := newViper()
	if data, err := os.ReadFile(configPath); err == nil {
		if err := readExpanded(v, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set environment variable prefix
	v.SetEnvPrefix(envPrefix)

	// Enable automatic binding of environment variables
	v.AutomaticEnv()

	// Replace dots with underscores in environment variable names
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "match-predictor")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("paths.raw_matches", "data/raw/matches_raw.json")
	v.SetDefault("paths.upcoming", "data/raw/upcoming_matches.json")
	v.SetDefault("paths.leagues", "config/leagues.json")
	v.SetDefault("paths.models_dir", "models")
	v.SetDefault("paths.snapshot", "data/predict/predictions.json")
	v.SetDefault("paths.history", "data/predict/predictions_history.json")
	v.SetDefault("paths.stats", "data/stats/prediction_stats.json")
	v.SetDefault("paths.last_update", "data/meta/last_update.json")

	v.SetDefault("upstream.base_url", "https://api.soccerdataapi.com")
	v.SetDefault("upstream.auth_token", "")
	v.SetDefault("upstream.timeout_seconds", 10)
	v.SetDefault("upstream.max_retries", 0)
	v.SetDefault("upstream.requests_per_second", 2)
	v.SetDefault("upstream.burst", 1)
	v.SetDefault("upstream.standings_cache_minutes", 60)

	v.SetDefault("ingestion.historical_weeks", 4)
	v.SetDefault("ingestion.upcoming_days", 7)

	v.SetDefault("features.form_window", 5)

	v.SetDefault("training.targets", []string{"Winner", "BTTS", "Over_1_5", "Over_2_5", "Double_Chance"})
	v.SetDefault("training.require_odds", true)
	v.SetDefault("training.trees", 100)
	v.SetDefault("training.max_depth", 8)
	v.SetDefault("training.min_samples_leaf", 2)
	v.SetDefault("training.max_features", 0)
	v.SetDefault("training.cv_folds", 5)
	v.SetDefault("training.test_fraction", 0.2)
	v.SetDefault("training.seed", 42)

	v.SetDefault("prediction.top_n", 6)
	v.SetDefault("registry.backend", RegistryFile)

	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 4)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key", "last_update_timestamp")

	v.SetDefault("api.listen_address", ":8000")
	v.SetDefault("api.endpoint_key", "")
	v.SetDefault("api.cache_ttl_seconds", 30)
	v.SetDefault("api.allowed_origins", []string{})

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("schedule.cron", "0 3 * * 1")

	v.SetDefault("secrets.aws_region", "")
	v.SetDefault("secrets.secret_name", "")
}

// readExpanded expands ${VAR} placeholders and reads the YAML into v
func readExpanded(v *viper.Viper, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func unmarshal(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	return cfg, nil
}

// ReloadFromEnv reloads the configuration from the path in
// MATCH_PREDICTOR_CONFIG_PATH, if set
func ReloadFromEnv(cfg *Config) error {
	if envPath := os.Getenv(envPrefix + "_CONFIG_PATH"); envPath != "" {
		newCfg, err := Load(envPath)
		if err != nil {
			return err
		}
		*cfg = *newCfg
	}
	return nil
}
