package database

import (
	"context"
	"fmt"

	"github.com/yourusername/match-predictor/internal/config"
)

// registrySchema creates the bundle registry table. At most one row per
// target may be active.
const registrySchema = `
CREATE TABLE IF NOT EXISTS model_bundles (
	bundle_key     TEXT PRIMARY KEY,
	target         TEXT NOT NULL,
	schema_version TEXT NOT NULL,
	content_hash   TEXT NOT NULL,
	path           TEXT NOT NULL,
	cv_mean        DOUBLE PRECISION NOT NULL DEFAULT 0,
	val_accuracy   DOUBLE PRECISION NOT NULL DEFAULT 0,
	is_active      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at     TIMESTAMPTZ NOT NULL,
	activated_at   TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS model_bundles_one_active
	ON model_bundles (target) WHERE is_active;
`

// Initialize creates a database connection pool and ensures the registry schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the registry table if it does not exist
func EnsureSchema(ctx context.Context, db *DB) error {
	if _, err := db.Exec(ctx, registrySchema); err != nil {
		return fmt.Errorf("failed to create registry schema: %w", err)
	}
	return nil
}
