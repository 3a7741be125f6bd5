// Package config provides configuration management for the match predictor.
package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

const (
	errLoadAWSConfig           = "failed to load AWS config: %w"
	errGetSecretFromAWSSecrets = "failed to get secret from AWS Secrets Manager: %w"
	errParseSecretJSON         = "failed to parse secret JSON: %w"
	errParseSecretBinary       = "failed to parse secret binary: %w"
)

var errNoSecretDataFound = errors.New("no secret data found in AWS Secrets Manager")

// SecretsOverlay represents the structure of secrets stored in AWS Secrets Manager
type SecretsOverlay struct {
	UpstreamAuthToken string `json:"upstream_auth_token"`
	APIEndpointKey    string `json:"api_endpoint_key"`
	DatabasePassword  string `json:"database_password"`
	RedisPassword     string `json:"redis_password"`
}

// fetchSecretsFromAWS retrieves secrets from AWS Secrets Manager
func fetchSecretsFromAWS(ctx context.Context, region string, secretName string) (*SecretsOverlay, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf(errLoadAWSConfig, err)
	}

	client := secretsmanager.NewFromConfig(awsCfg)
	result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		return nil, fmt.Errorf(errGetSecretFromAWSSecrets, err)
	}

	return parseSecretData(result)
}

// parseSecretData parses secret data from AWS response
func parseSecretData(result *secretsmanager.GetSecretValueOutput) (*SecretsOverlay, error) {
	var secrets SecretsOverlay
	switch {
	case result.SecretString != nil:
		if err := json.Unmarshal([]byte(*result.SecretString), &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretJSON, err)
		}
	case result.SecretBinary != nil:
		if err := json.Unmarshal(result.SecretBinary, &secrets); err != nil {
			return nil, fmt.Errorf(errParseSecretBinary, err)
		}
	default:
		return nil, errNoSecretDataFound
	}
	return &secrets, nil
}

// overlaySecretsOnConfig applies non-empty secrets to configuration
func overlaySecretsOnConfig(cfg *Config, secrets *SecretsOverlay) {
	if secrets.UpstreamAuthToken != "" {
		cfg.Upstream.AuthToken = secrets.UpstreamAuthToken
	}
	if secrets.APIEndpointKey != "" {
		cfg.API.EndpointKey = secrets.APIEndpointKey
	}
	if secrets.DatabasePassword != "" {
		cfg.Database.Password = secrets.DatabasePassword
	}
	if secrets.RedisPassword != "" {
		cfg.Redis.Password = secrets.RedisPassword
	}
}

// LoadSecretsFromAWS retrieves secrets from AWS Secrets Manager and overlays
// them onto the configuration. It is a no-op when no secret name is set.
func LoadSecretsFromAWS(ctx context.Context, cfg *Config) error {
	if cfg.Secrets.SecretName == "" {
		return nil
	}

	secrets, err := fetchSecretsFromAWS(ctx, cfg.Secrets.AWSRegion, cfg.Secrets.SecretName)
	if err != nil {
		return err
	}

	overlaySecretsOnConfig(cfg, secrets)
	return nil
}
