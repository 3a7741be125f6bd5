package api

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yourusername/match-predictor/internal/metrics"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

const (
	snapshotKey = "snapshot"
	statsKey    = "stats"
)

// SnapshotCache keeps the decoded prediction snapshot and stats file in
// memory for a short TTL, so requests do not reread the files.
type SnapshotCache struct {
	cache     *gocache.Cache
	files     storage.PredictionFiles
	statsPath string

	mu     sync.Mutex
	hits   int64
	misses int64
}

// NewSnapshotCache creates a cache with the given TTL
func NewSnapshotCache(files storage.PredictionFiles, statsPath string, ttl time.Duration) *SnapshotCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &SnapshotCache{
		cache:     gocache.New(ttl, ttl*2),
		files:     files,
		statsPath: statsPath,
	}
}

// Predictions returns the current snapshot. A missing file yields an empty list.
func (c *SnapshotCache) Predictions() ([]models.PredictionResult, error) {
	if cached, found := c.cache.Get(snapshotKey); found {
		c.recordHit(true)
		return cached.([]models.PredictionResult), nil
	}
	c.recordHit(false)

	results, err := c.files.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(snapshotKey, results)
	metrics.UpdateSnapshotEntries(len(results))
	return results, nil
}

// Prediction returns the snapshot entry for matchID.
func (c *SnapshotCache) Prediction(matchID int64) (models.PredictionResult, bool, error) {
	results, err := c.Predictions()
	if err != nil {
		return models.PredictionResult{}, false, err
	}
	for _, r := range results {
		if r.MatchID == matchID {
			return r, true, nil
		}
	}
	return models.PredictionResult{}, false, nil
}

// Stats returns the accuracy report as stored. A missing file yields {}.
func (c *SnapshotCache) Stats() (json.RawMessage, error) {
	if cached, found := c.cache.Get(statsKey); found {
		c.recordHit(true)
		return cached.(json.RawMessage), nil
	}
	c.recordHit(false)

	var stats map[string]json.RawMessage
	if err := storage.ReadJSON(c.statsPath, &stats); err != nil {
		if !errors.Is(err, storage.ErrNotExist) {
			return nil, err
		}
		stats = map[string]json.RawMessage{}
	}
	if stats == nil {
		stats = map[string]json.RawMessage{}
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(statsKey, json.RawMessage(raw))
	return raw, nil
}

// Invalidate drops every cached entry
func (c *SnapshotCache) Invalidate() {
	c.cache.Flush()
}

// Counts returns hit and miss counts
func (c *SnapshotCache) Counts() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *SnapshotCache) recordHit(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	metrics.RecordSnapshotCache(hit)
}
