// Package config provides configuration management for the match predictor.
package config

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	"github.com/yourusername/match-predictor/internal/models"
)

// Registry backends
const (
	RegistryFile     = "file"
	RegistryPostgres = "postgres"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Register custom validation functions
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("targets", validateTargets)
	_ = v.RegisterValidation("registry", validateRegistry)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	// Additional cross-field validations
	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

// validateEnvironment validates the environment field
func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

// validateLogLevel validates the log level field
func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

// validateTargets checks every configured target is a known one
func validateTargets(fl validator.FieldLevel) bool {
	names, ok := fl.Field().Interface().([]string)
	if !ok || len(names) == 0 {
		return false
	}
	seen := make(map[models.PredictionTarget]bool, len(names))
	for _, name := range names {
		t, err := models.ParseTarget(name)
		if err != nil || seen[t] {
			return false
		}
		seen[t] = true
	}
	return true
}

func validateRegistry(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case RegistryFile, RegistryPostgres:
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.UsesPostgresRegistry() {
		if cfg.Database.Host == "" || cfg.Database.Name == "" || cfg.Database.User == "" {
			return fmt.Errorf("postgres registry requires database host, name and user")
		}
		if cfg.Database.MaxConnections < 1 {
			return fmt.Errorf("postgres registry requires max_connections of at least 1")
		}
	}

	if _, err := cron.ParseStandard(cfg.Schedule.Cron); err != nil {
		return fmt.Errorf("invalid schedule cron expression %q: %w", cfg.Schedule.Cron, err)
	}

	if cfg.IsProduction() {
		if cfg.API.EndpointKey == "" {
			return fmt.Errorf("production environment requires api endpoint_key")
		}
		if cfg.UsesPostgresRegistry() && cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required", "required_if":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "targets":
			errMsg += fmt.Sprintf("- Field '%s' must list distinct targets from: Winner, BTTS, Over_1_5, Over_2_5, Double_Chance\n", field)
		case "registry":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: file, postgres\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if isTestCredential(cfg.API.EndpointKey) {
			return fmt.Errorf("production environment should not use a test endpoint key")
		}
		if cfg.Upstream.AuthToken == "" {
			return fmt.Errorf("production environment requires an upstream auth_token")
		}
	}
	return nil
}

var testCredentialPattern = regexp.MustCompile(`(?i)test|demo|example|placeholder|YOUR_|changeme`)

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	return testCredentialPattern.MatchString(credential)
}
