package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/config"
)

// HTTPClientConfigFrom maps the upstream section onto client settings.
func HTTPClientConfigFrom(cfg config.UpstreamConfig) HTTPClientConfig {
	httpCfg := DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.MaxRetries
	if cfg.RequestsPerSecond > 0 {
		httpCfg.RateLimit = cfg.RequestsPerSecond
	}
	if cfg.Burst > 0 {
		httpCfg.Burst = cfg.Burst
	}
	return httpCfg
}

// NewMatchSource creates the configured upstream client
func NewMatchSource(cfg *config.Config, logger *logrus.Logger) (*SoccerDataClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Upstream.BaseURL == "" {
		return nil, fmt.Errorf("upstream base_url is required")
	}
	if cfg.Upstream.AuthToken == "" && logger != nil {
		logger.Warn("Upstream auth token is empty, requests will likely be rejected")
	}

	httpClient := NewRateLimitedHTTPClient(HTTPClientConfigFrom(cfg.Upstream), logger)
	ttl := time.Duration(cfg.Upstream.StandingsCacheMinutes) * time.Minute
	return NewSoccerDataClient(httpClient, cfg.Upstream.BaseURL, cfg.Upstream.AuthToken, ttl, logger), nil
}
