package artifact

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/match-predictor/internal/database"
	"github.com/yourusername/match-predictor/internal/models"
)

const entryColumns = `bundle_key, target, schema_version, content_hash, path, cv_mean, val_accuracy, is_active, created_at, activated_at`

// PostgresRegistry keeps the registry in the model_bundles table.
type PostgresRegistry struct {
	db *database.DB
}

// NewPostgresRegistry creates a registry on db.
func NewPostgresRegistry(db *database.DB) *PostgresRegistry {
	return &PostgresRegistry{db: db}
}

// Register implements Registry.
func (r *PostgresRegistry) Register(ctx context.Context, e Entry) error {
	query := `
		INSERT INTO model_bundles (bundle_key, target, schema_version, content_hash, path, cv_mean, val_accuracy, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (bundle_key) DO NOTHING
	`
	_, err := r.db.Exec(ctx, query,
		e.Key, string(e.Target), e.SchemaVersion, e.ContentHash, e.Path, e.CVMean, e.ValidationAccuracy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to register bundle: %w", err)
	}
	return nil
}

// Activate implements Registry. The switch happens in one transaction so a
// target never has two active bundles.
func (r *PostgresRegistry) Activate(ctx context.Context, key string) (string, error) {
	var previous string
	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		var target string
		err := tx.QueryRow(ctx, "SELECT target FROM model_bundles WHERE bundle_key = $1", key).Scan(&target)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownBundle, key)
		}
		if err != nil {
			return fmt.Errorf("failed to get bundle: %w", err)
		}

		err = tx.QueryRow(ctx,
			"SELECT bundle_key FROM model_bundles WHERE target = $1 AND is_active FOR UPDATE", target,
		).Scan(&previous)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("failed to get active bundle: %w", err)
		}
		if previous == key {
			previous = ""
		}

		// Deactivate all other bundles of this target
		if _, err := tx.Exec(ctx,
			"UPDATE model_bundles SET is_active = false WHERE target = $1 AND bundle_key != $2", target, key,
		); err != nil {
			return fmt.Errorf("failed to deactivate other bundles: %w", err)
		}

		if _, err := tx.Exec(ctx,
			"UPDATE model_bundles SET is_active = true, activated_at = NOW() WHERE bundle_key = $1", key,
		); err != nil {
			return fmt.Errorf("failed to activate bundle: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return previous, nil
}

// Active implements Registry.
func (r *PostgresRegistry) Active(ctx context.Context, target models.PredictionTarget) (Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM model_bundles WHERE target = $1 AND is_active`
	e, err := scanEntry(r.db.QueryRow(ctx, query, string(target)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNoActiveBundle, target)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to get active bundle: %w", err)
	}
	return e, nil
}

// List implements Registry.
func (r *PostgresRegistry) List(ctx context.Context, target models.PredictionTarget) ([]Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM model_bundles WHERE target = $1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, string(target))
	if err != nil {
		return nil, fmt.Errorf("failed to query bundles: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bundle: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var target string
	err := row.Scan(&e.Key, &target, &e.SchemaVersion, &e.ContentHash, &e.Path,
		&e.CVMean, &e.ValidationAccuracy, &e.Active, &e.CreatedAt, &e.ActivatedAt)
	e.Target = models.PredictionTarget(target)
	return e, err
}
