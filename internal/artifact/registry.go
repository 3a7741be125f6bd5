package artifact

import (
	"context"
	"time"

	"github.com/yourusername/match-predictor/internal/models"
)

// Entry is a registered bundle.
type Entry struct {
	Key                string                  `json:"key"`
	Target             models.PredictionTarget `json:"target"`
	SchemaVersion      string                  `json:"schema_version"`
	ContentHash        string                  `json:"content_hash"`
	Path               string                  `json:"path"`
	CVMean             float64                 `json:"cv_mean"`
	ValidationAccuracy float64                 `json:"validation_accuracy"`
	CreatedAt          time.Time               `json:"created_at"`
	Active             bool                    `json:"active"`
	ActivatedAt        *time.Time              `json:"activated_at,omitempty"`
}

// Registry records bundles and which one is active per target.
type Registry interface {
	// Register records a bundle. Registering an existing key is a no-op.
	Register(ctx context.Context, entry Entry) error
	// Activate makes key the active bundle of its target and returns the
	// previously active key, or "" when there was none.
	Activate(ctx context.Context, key string) (string, error)
	// Active returns the active entry of target or ErrNoActiveBundle.
	Active(ctx context.Context, target models.PredictionTarget) (Entry, error)
	// List returns the entries of target, newest first.
	List(ctx context.Context, target models.PredictionTarget) ([]Entry, error)
}

// EntryFor describes a sealed bundle stored at path.
func EntryFor(b *Bundle, path string) Entry {
	return Entry{
		Key:                b.Key,
		Target:             b.Target,
		SchemaVersion:      b.SchemaVersion,
		ContentHash:        b.ContentHash,
		Path:               path,
		CVMean:             b.Metrics.CVMean,
		ValidationAccuracy: b.Metrics.ValidationAccuracy,
		CreatedAt:          b.CreatedAt,
	}
}
