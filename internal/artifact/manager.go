package artifact

import (
	"context"
	"fmt"

	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/models"
)

// Manager ties the bundle store to a registry.
type Manager struct {
	store    *Store
	registry Registry
	audit    *logger.AuditLogger
}

// NewManager creates a manager. audit may be nil.
func NewManager(store *Store, registry Registry, audit *logger.AuditLogger) *Manager {
	return &Manager{store: store, registry: registry, audit: audit}
}

// Publish stores b, registers it and makes it the active bundle of its target.
func (m *Manager) Publish(ctx context.Context, b *Bundle) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if err := m.store.Save(b); err != nil {
		return err
	}
	if err := m.registry.Register(ctx, EntryFor(b, m.store.Path(b.Key))); err != nil {
		return err
	}
	previous, err := m.registry.Activate(ctx, b.Key)
	if err != nil {
		return err
	}
	if m.audit != nil {
		m.audit.LogBundleActivated(string(b.Target), previous, b.Key, b.SchemaVersion)
	}
	return nil
}

// LoadActive loads the active bundle of target. The stored file must match
// the hash the registry recorded for it.
func (m *Manager) LoadActive(ctx context.Context, target models.PredictionTarget) (*Bundle, error) {
	entry, err := m.registry.Active(ctx, target)
	if err != nil {
		return nil, err
	}
	b, err := m.store.Load(entry.Key)
	if err != nil {
		return nil, err
	}
	if b.ContentHash != entry.ContentHash {
		return nil, fmt.Errorf("%w: registry recorded %s for %s", ErrHashMismatch, short(entry.ContentHash), entry.Key)
	}
	if b.Target != target {
		return nil, fmt.Errorf("%w: %s holds target %s", ErrIncompatibleBundle, entry.Key, b.Target)
	}
	return b, nil
}

// Bundles lists the registered bundles of target, newest first.
func (m *Manager) Bundles(ctx context.Context, target models.PredictionTarget) ([]Entry, error) {
	return m.registry.List(ctx, target)
}

// Registry returns the underlying registry.
func (m *Manager) Registry() Registry {
	return m.registry
}
