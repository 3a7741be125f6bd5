package artifact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yourusername/match-predictor/internal/storage"
)

// envelope is the on-disk form of a bundle. The hash covers the compact
// encoding of Bundle.
type envelope struct {
	Key         string          `json:"key"`
	ContentHash string          `json:"content_hash"`
	Bundle      json.RawMessage `json:"bundle"`
}

// Store keeps bundle files under a directory as <key>.json.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file path of key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

// Save seals b if needed and writes it.
func (s *Store) Save(b *Bundle) error {
	if b.Key == "" {
		if err := b.Seal(); err != nil {
			return err
		}
	}
	data, hash, err := b.payload()
	if err != nil {
		return err
	}
	if hash != b.ContentHash {
		return fmt.Errorf("%w: bundle %s changed after sealing", ErrHashMismatch, b.Key)
	}

	out, err := json.Marshal(envelope{Key: b.Key, ContentHash: hash, Bundle: data})
	if err != nil {
		return fmt.Errorf("failed to encode bundle %s: %w", b.Key, err)
	}
	return storage.WriteFileAtomic(s.Path(b.Key), out)
}

// Load reads the bundle stored under key, verifying its hash and compatibility.
func (s *Store) Load(key string) (*Bundle, error) {
	var env envelope
	if err := storage.ReadJSON(s.Path(key), &env); err != nil {
		return nil, err
	}
	if env.Key != key {
		return nil, fmt.Errorf("%w: file for %s holds %s", ErrHashMismatch, key, env.Key)
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, env.Bundle); err != nil {
		return nil, fmt.Errorf("invalid bundle %s: %w", key, err)
	}
	if got := hashOf(compact.Bytes()); got != env.ContentHash {
		return nil, fmt.Errorf("%w: %s recorded %s, content %s", ErrHashMismatch, key, short(env.ContentHash), short(got))
	}

	var b Bundle
	if err := json.Unmarshal(compact.Bytes(), &b); err != nil {
		return nil, fmt.Errorf("invalid bundle %s: %w", key, err)
	}
	b.Key = env.Key
	b.ContentHash = env.ContentHash
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", key, err)
	}
	return &b, nil
}

// Keys lists stored bundle keys in sorted order.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(keys)
	return keys, nil
}

func short(hash string) string {
	if len(hash) > keyHashLength {
		return hash[:keyHashLength]
	}
	return hash
}
