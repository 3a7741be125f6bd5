// Package cache stores the pipeline's last update timestamp.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/config"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/metrics"
)

// ErrNoLastUpdate is returned when no timestamp has been recorded yet.
var ErrNoLastUpdate = errors.New("last update not recorded")

// LastUpdateStore records when the weekly pipeline last completed.
type LastUpdateStore interface {
	Save(ctx context.Context, at time.Time) error
	Load(ctx context.Context) (time.Time, error)
	Name() string
	Close() error
}

// NewLastUpdateStore returns the Redis store when Redis is configured and the
// file store otherwise.
func NewLastUpdateStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (LastUpdateStore, error) {
	if !cfg.UsesRedis() {
		return NewFileLastUpdateStore(cfg.Paths.LastUpdate), nil
	}
	client, err := NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		return nil, err
	}
	return NewRedisLastUpdateStore(client, cfg.Redis.Key), nil
}

// RecordLastUpdate saves at in store and logs it to the audit trail.
func RecordLastUpdate(ctx context.Context, store LastUpdateStore, audit *logger.AuditLogger, at time.Time) error {
	at = at.UTC().Truncate(time.Second)
	if err := store.Save(ctx, at); err != nil {
		return err
	}
	metrics.UpdateLastUpdate(at)
	if audit != nil {
		audit.LogLastUpdate(store.Name(), at)
	}
	return nil
}

func formatTimestamp(at time.Time) string {
	return at.UTC().Format(time.RFC3339)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
