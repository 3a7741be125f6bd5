package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/match-predictor/internal/cache"
	"github.com/yourusername/match-predictor/internal/config"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

const testKey = "s3cret"

type fixture struct {
	server     *Server
	files      storage.PredictionFiles
	statsPath  string
	lastUpdate *cache.FileLastUpdateStore
}

func newFixture(t *testing.T, key string) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		files: storage.PredictionFiles{
			SnapshotPath: filepath.Join(dir, "predict", "predictions.json"),
			HistoryPath:  filepath.Join(dir, "predict", "predictions_history.json"),
		},
		statsPath:  filepath.Join(dir, "stats", "prediction_stats.json"),
		lastUpdate: cache.NewFileLastUpdateStore(filepath.Join(dir, "meta", "last_update.json")),
	}
	f.server = NewServer(Options{
		Config: config.APIConfig{
			ListenAddress:   ":0",
			EndpointKey:     key,
			CacheTTLSeconds: 60,
			AllowedOrigins:  []string{"https://app.example.com"},
		},
		MetricsPath: "/metrics",
		Files:       f.files,
		StatsPath:   f.statsPath,
		LastUpdate:  f.lastUpdate,
	})
	return f
}

func (f *fixture) get(t *testing.T, path, auth string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func result(id int64, winner string, conf float64) models.PredictionResult {
	return models.PredictionResult{
		MatchID:  id,
		LeagueID: 228,
		League:   "Premier League",
		Date:     "22/03/2024",
		Time:     "15:00",
		HomeTeam: "Arsenal",
		AwayTeam: "Chelsea",
		Odds:     models.SnapshotOddsFrom(nil),
		Predictions: map[string]models.TargetPrediction{
			"winner": {Class: models.StringPtr(winner), Confidence: conf},
			"btts":   {Class: nil, Confidence: 0},
		},
	}
}

func TestAuth(t *testing.T) {
	f := newFixture(t, testKey)

	rec := f.get(t, "/predictions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Authorization header missing"}`, rec.Body.String())

	rec = f.get(t, "/predictions", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"detail":"Unauthorized"}`, rec.Body.String())

	rec = f.get(t, "/predictions", testKey)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "scheme is required")

	rec = f.get(t, "/predictions", "Bearer "+testKey)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.get(t, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "health is public")

	rec = f.get(t, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code, "metrics are public")
}

func TestEmptyKeyDisablesAuth(t *testing.T) {
	f := newFixture(t, "")
	rec := f.get(t, "/predictions", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPredictionsMissingSnapshot(t *testing.T) {
	f := newFixture(t, testKey)
	rec := f.get(t, "/predictions", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPredictions(t *testing.T) {
	f := newFixture(t, testKey)
	require.NoError(t, f.files.SaveSnapshot([]models.PredictionResult{
		result(10, "1", 0.8),
		result(11, "X", 0.5),
	}))

	rec := f.get(t, "/predictions", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got []models.PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, int64(10), got[0].MatchID)
	assert.Nil(t, got[0].Predictions["btts"].Class)

	rec = f.get(t, "/predictions/11", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	var one models.PredictionResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &one))
	assert.Equal(t, "X", *one.Predictions["winner"].Class)

	rec = f.get(t, "/predictions/99", "Bearer "+testKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.get(t, "/predictions/abc", "Bearer "+testKey)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnapshotCacheServesUntilInvalidated(t *testing.T) {
	f := newFixture(t, testKey)
	require.NoError(t, f.files.SaveSnapshot([]models.PredictionResult{result(10, "1", 0.8)}))

	rec := f.get(t, "/predictions", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, f.files.SaveSnapshot([]models.PredictionResult{result(10, "1", 0.8), result(12, "2", 0.4)}))

	var got []models.PredictionResult
	rec = f.get(t, "/predictions", "Bearer "+testKey)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1, "cached snapshot")

	hits, misses := f.server.Snapshots().Counts()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)

	f.server.Snapshots().Invalidate()
	rec = f.get(t, "/predictions", "Bearer "+testKey)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestStats(t *testing.T) {
	f := newFixture(t, testKey)

	rec := f.get(t, "/stats", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())

	f.server.Snapshots().Invalidate()
	require.NoError(t, os.MkdirAll(filepath.Dir(f.statsPath), 0o755))
	require.NoError(t, os.WriteFile(f.statsPath, []byte(`{"winner":{"correct":2,"total":3,"percent":66.67},"best_type":"winner"}`), 0o644))

	rec = f.get(t, "/stats", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"winner":{"correct":2,"total":3,"percent":66.67},"best_type":"winner"}`, rec.Body.String())
}

func TestLastUpdate(t *testing.T) {
	f := newFixture(t, testKey)

	rec := f.get(t, "/meta/last-update", "Bearer "+testKey)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, f.lastUpdate.Save(context.Background(), time.Date(2024, 3, 18, 3, 0, 0, 0, time.UTC)))
	rec = f.get(t, "/meta/last-update", "Bearer "+testKey)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"last_update":"2024-03-18T03:00:00Z"}`, rec.Body.String())
}

func TestCORS(t *testing.T) {
	f := newFixture(t, testKey)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t, testKey)

	for _, path := range []string{"/predictions", "/predictions/7", "/stats", "/meta/last-update", "/health"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, path, nil)
			req.Header.Set("Origin", "https://app.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", "Authorization")
			rec := httptest.NewRecorder()
			f.server.Handler().ServeHTTP(rec, req)

			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
			assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
			assert.Empty(t, rec.Body.String())
		})
	}

	// The preflight bypass does not open the data routes.
	rec := f.get(t, "/predictions", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t, testKey)
	rec := f.get(t, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"detail":"Not Found"}`, rec.Body.String())
}

func TestRunShutsDownOnCancel(t *testing.T) {
	f := newFixture(t, testKey)
	f.server.cfg.ListenAddress = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.server.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
