package artifact

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

// manifest is the JSON layout of the file registry.
type manifest struct {
	Bundles []Entry `json:"bundles"`
}

// FileRegistry keeps the registry in a JSON manifest file.
type FileRegistry struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileRegistry creates a registry backed by the manifest at path.
func NewFileRegistry(path string) *FileRegistry {
	return &FileRegistry{path: path, now: time.Now}
}

func (r *FileRegistry) load() (manifest, error) {
	var m manifest
	if err := storage.ReadJSON(r.path, &m); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return manifest{}, nil
		}
		return manifest{}, err
	}
	return m, nil
}

// Register implements Registry.
func (r *FileRegistry) Register(_ context.Context, entry Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.load()
	if err != nil {
		return err
	}
	for _, e := range m.Bundles {
		if e.Key == entry.Key {
			return nil
		}
	}
	entry.Active = false
	entry.ActivatedAt = nil
	m.Bundles = append(m.Bundles, entry)
	return storage.WriteJSON(r.path, m)
}

// Activate implements Registry.
func (r *FileRegistry) Activate(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.load()
	if err != nil {
		return "", err
	}
	idx := -1
	for i, e := range m.Bundles {
		if e.Key == key {
			idx = i
		}
	}
	if idx < 0 {
		return "", fmt.Errorf("%w: %s", ErrUnknownBundle, key)
	}

	target := m.Bundles[idx].Target
	previous := ""
	for i := range m.Bundles {
		e := &m.Bundles[i]
		if e.Target != target || !e.Active {
			continue
		}
		if e.Key != key {
			previous = e.Key
		}
		e.Active = false
	}
	at := r.now().UTC()
	m.Bundles[idx].Active = true
	m.Bundles[idx].ActivatedAt = &at

	if err := storage.WriteJSON(r.path, m); err != nil {
		return "", err
	}
	return previous, nil
}

// Active implements Registry.
func (r *FileRegistry) Active(_ context.Context, target models.PredictionTarget) (Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.load()
	if err != nil {
		return Entry{}, err
	}
	for _, e := range m.Bundles {
		if e.Target == target && e.Active {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrNoActiveBundle, target)
}

// List implements Registry.
func (r *FileRegistry) List(_ context.Context, target models.PredictionTarget) ([]Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.load()
	if err != nil {
		return nil, err
	}
	var out []Entry
	for _, e := range m.Bundles {
		if e.Target == target {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
