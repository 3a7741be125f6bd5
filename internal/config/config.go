// Package config provides configuration management for the match predictor.
package config

import (
	"fmt"
	"path/filepath"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Paths      PathsConfig      `mapstructure:"paths" validate:"required"`
	Upstream   UpstreamConfig   `mapstructure:"upstream" validate:"required"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion" validate:"required"`
	Features   FeaturesConfig   `mapstructure:"features" validate:"required"`
	Training   TrainingConfig   `mapstructure:"training" validate:"required"`
	Prediction PredictionConfig `mapstructure:"prediction" validate:"required"`
	Registry   RegistryConfig   `mapstructure:"registry" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	API        APIConfig        `mapstructure:"api" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// PathsConfig locates the JSON files the pipeline reads and writes
type PathsConfig struct {
	RawMatches string `mapstructure:"raw_matches" validate:"required"`
	Upcoming   string `mapstructure:"upcoming" validate:"required"`
	Leagues    string `mapstructure:"leagues" validate:"required"`
	ModelsDir  string `mapstructure:"models_dir" validate:"required"`
	Snapshot   string `mapstructure:"snapshot" validate:"required"`
	History    string `mapstructure:"history" validate:"required"`
	Stats      string `mapstructure:"stats" validate:"required"`
	LastUpdate string `mapstructure:"last_update" validate:"required"`
}

// UpstreamConfig represents the match data provider configuration
type UpstreamConfig struct {
	BaseURL               string  `mapstructure:"base_url" validate:"required,url"`
	AuthToken             string  `mapstructure:"auth_token"`
	TimeoutSeconds        int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	MaxRetries            int     `mapstructure:"max_retries" validate:"gte=0,lte=5"`
	RequestsPerSecond     float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst                 int     `mapstructure:"burst" validate:"required,gt=0"`
	StandingsCacheMinutes int     `mapstructure:"standings_cache_minutes" validate:"required,gt=0"`
}

// IngestionConfig represents historical and upcoming fetch windows
type IngestionConfig struct {
	Leagues         []int64 `mapstructure:"leagues"`
	HistoricalWeeks int     `mapstructure:"historical_weeks" validate:"required,gt=0"`
	UpcomingDays    int     `mapstructure:"upcoming_days" validate:"required,gt=0"`
}

// FeaturesConfig represents feature engineering parameters
type FeaturesConfig struct {
	FormWindow int `mapstructure:"form_window" validate:"required,gte=1,lte=50"`
}

// TrainingConfig represents model training configuration
type TrainingConfig struct {
	Targets        []string `mapstructure:"targets" validate:"required,min=1,targets"`
	RequireOdds    bool     `mapstructure:"require_odds"`
	Trees          int      `mapstructure:"trees" validate:"required,gt=0"`
	MaxDepth       int      `mapstructure:"max_depth" validate:"gte=0"`
	MinSamplesLeaf int      `mapstructure:"min_samples_leaf" validate:"required,gt=0"`
	MaxFeatures    int      `mapstructure:"max_features" validate:"gte=0"`
	CVFolds        int      `mapstructure:"cv_folds" validate:"required,gte=2"`
	TestFraction   float64  `mapstructure:"test_fraction" validate:"required,gt=0,lt=1"`
	Seed           int64    `mapstructure:"seed"`
}

// PredictionConfig represents prediction publishing configuration
type PredictionConfig struct {
	TopN int `mapstructure:"top_n" validate:"required,gt=0"`
}

// RegistryConfig selects where the active bundle per target is recorded
type RegistryConfig struct {
	Backend string `mapstructure:"backend" validate:"required,registry"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// RedisConfig represents the last-update store configuration. An empty
// address selects the file store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Key      string `mapstructure:"key" validate:"required"`
}

// APIConfig represents the read API configuration
type APIConfig struct {
	ListenAddress   string   `mapstructure:"listen_address" validate:"required"`
	EndpointKey     string   `mapstructure:"endpoint_key"`
	CacheTTLSeconds int      `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required_if=Enabled true"`
}

// ScheduleConfig represents the weekly pipeline schedule
type ScheduleConfig struct {
	Cron string `mapstructure:"cron" validate:"required"`
}

// SecretsConfig locates the optional AWS Secrets Manager overlay
type SecretsConfig struct {
	AWSRegion  string `mapstructure:"aws_region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// UsesPostgresRegistry reports whether bundles are registered in PostgreSQL
func (c *Config) UsesPostgresRegistry() bool {
	return c.Registry.Backend == RegistryPostgres
}

// UsesRedis reports whether the last update timestamp lives in Redis
func (c *Config) UsesRedis() bool {
	return c.Redis.Addr != ""
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// UpstreamTimeout returns the per-request upstream timeout
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstream.TimeoutSeconds) * time.Second
}

// BundlesDir returns the directory holding bundle files
func (c *Config) BundlesDir() string {
	return filepath.Join(c.Paths.ModelsDir, "bundles")
}

// PreprocessPath returns the path of the persisted transformer
func (c *Config) PreprocessPath() string {
	return filepath.Join(c.Paths.ModelsDir, "preprocess.json")
}

// TrainMetricsPath returns the path of the training metrics file
func (c *Config) TrainMetricsPath() string {
	return filepath.Join(c.Paths.ModelsDir, "train_metrics.json")
}

// ManifestPath returns the path of the file registry manifest
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Paths.ModelsDir, "registry.json")
}
