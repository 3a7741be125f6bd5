package datasource

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for HTTP clients
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	Burst             int
	CircuitBreakerMax int // max consecutive failures before circuit break
}

// DefaultHTTPClientConfig returns recommended defaults. Retries are off; the
// upstream is best-effort and a failed league or match is skipped.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:           10 * time.Second,
		MaxRetries:        0,
		RetryWaitMin:      500 * time.Millisecond,
		RetryWaitMax:      5 * time.Second,
		RateLimit:         2.0,
		Burst:             1,
		CircuitBreakerMax: 5,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	lastError         error
	logger            *logrus.Entry
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig, logger *logrus.Logger) *RateLimitedHTTPClient {
	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	if cfg.Burst < 1 {
		cfg.Burst = 1
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	// Return the last response instead of an error once retries run out
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// Don't log verbose retry info
	retryClient.Logger = nil

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		logger:            logger.WithField("component", "http_client"),
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *retryablehttp.Request) (*http.Response, error) {
	c.mu.Lock()
	if c.isOpen {
		err := c.lastError
		c.mu.Unlock()
		return nil, fmt.Errorf("circuit breaker open: %v", err)
	}
	c.mu.Unlock()

	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	resp, err := c.client.Do(req.WithContext(ctx))

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.consecutiveErrors++
		c.lastError = err
		if c.circuitBreakerMax > 0 && c.consecutiveErrors >= c.circuitBreakerMax {
			c.isOpen = true
			c.logger.WithError(err).Warnf("Circuit breaker opened after %d consecutive errors", c.consecutiveErrors)
		}
		return nil, err
	}

	// Reset circuit breaker on success
	if resp.StatusCode < 500 {
		c.consecutiveErrors = 0
		c.isOpen = false
	}
	return resp, nil
}

// Get executes a GET request
func (c *RateLimitedHTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return c.Do(ctx, req)
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			// Retry on network errors
			return true, err
		}

		// Retry on rate limit (429), server errors (500, 502, 503, 504), and gateway errors
		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}
		return false, nil
	}
}
