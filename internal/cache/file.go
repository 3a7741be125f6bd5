package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/match-predictor/internal/storage"
)

type lastUpdateFile struct {
	LastUpdate string `json:"last_update"`
}

// FileLastUpdateStore keeps the timestamp in a small JSON file.
type FileLastUpdateStore struct {
	path string
}

// NewFileLastUpdateStore creates a store writing to path
func NewFileLastUpdateStore(path string) *FileLastUpdateStore {
	return &FileLastUpdateStore{path: path}
}

// Name implements LastUpdateStore.
func (s *FileLastUpdateStore) Name() string {
	return "file"
}

// Save implements LastUpdateStore.
func (s *FileLastUpdateStore) Save(_ context.Context, at time.Time) error {
	return storage.WriteJSON(s.path, lastUpdateFile{LastUpdate: formatTimestamp(at)})
}

// Load implements LastUpdateStore.
func (s *FileLastUpdateStore) Load(_ context.Context) (time.Time, error) {
	var f lastUpdateFile
	if err := storage.ReadJSON(s.path, &f); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return time.Time{}, ErrNoLastUpdate
		}
		return time.Time{}, err
	}
	if f.LastUpdate == "" {
		return time.Time{}, ErrNoLastUpdate
	}
	at, err := parseTimestamp(f.LastUpdate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid last update %q: %w", f.LastUpdate, err)
	}
	return at, nil
}

// Close implements LastUpdateStore.
func (s *FileLastUpdateStore) Close() error {
	return nil
}
