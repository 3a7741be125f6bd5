package artifact

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/match-predictor/internal/features"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/ml"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/preprocess"
)

func testBundle(t *testing.T, target models.PredictionTarget, at time.Time) *Bundle {
	t.Helper()
	schema := features.Schema{Columns: []features.Column{features.ColTeam1Rank, features.ColTeam2Rank}}
	tr := &preprocess.Transformer{
		SchemaVersion: schema.Version(),
		Schema:        schema,
		Medians:       []float64{5, 6},
		Scaler:        preprocess.StandardScaler{Mean: []float64{5, 6}, Scale: []float64{2, 3}},
		LeagueEncoder: features.FitLabelEncoder([]string{"La Liga", "Premier League"}),
	}

	x := [][]float64{{-1, 1}, {-1.2, 0.8}, {1, -1}, {1.1, -0.9}}
	y := []int{0, 0, 1, 1}
	forest := ml.NewRandomForest(ml.ForestParams{Trees: 3, MaxDepth: 2, MinSamplesLeaf: 1, Seed: 1})
	require.NoError(t, forest.Fit(x, y))

	b := &Bundle{
		Target:        target,
		CreatedAt:     at,
		SchemaVersion: tr.SchemaVersion,
		Transformer:   tr,
		Model:         forest,
		Metrics:       Metrics{Target: target, CVMean: 0.7, ValidationAccuracy: 0.75},
	}
	if target.Categorical() {
		b.TargetEncoder = features.FitLabelEncoder([]string{features.HomeWin, features.AwayWin})
	}
	return b
}

func TestBundleKey(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("CET", 3600))
	key := BundleKey(models.TargetOver25, at, "0123456789abcdef0123")
	assert.Equal(t, "over_2_5-20240506T060809Z-0123456789ab", key)

	target, err := TargetFromKey(key)
	require.NoError(t, err)
	assert.Equal(t, models.TargetOver25, target)

	_, err = TargetFromKey("nokey")
	assert.ErrorIs(t, err, ErrUnknownBundle)
}

func TestSealIsDeterministic(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	a := testBundle(t, models.TargetBTTS, at)
	b := testBundle(t, models.TargetBTTS, at)
	require.NoError(t, a.Seal())
	require.NoError(t, b.Seal())
	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.Equal(t, a.Key, b.Key)
	assert.Contains(t, a.Key, "btts-20240101T000000Z-")
}

func TestStoreRoundTrip(t *testing.T) {
	store := NewStore(t.TempDir())
	b := testBundle(t, models.TargetWinner, time.Now())
	require.NoError(t, store.Save(b))

	loaded, err := store.Load(b.Key)
	require.NoError(t, err)
	assert.Equal(t, b.ContentHash, loaded.ContentHash)
	assert.Equal(t, b.Transformer.Medians, loaded.Transformer.Medians)
	assert.Equal(t, []string{"1", "2"}, loaded.TargetEncoder.Classes())

	label, err := loaded.DecodeClass(1)
	require.NoError(t, err)
	assert.Equal(t, "2", label)

	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{b.Key}, keys)
}

func TestStoreDetectsTampering(t *testing.T) {
	store := NewStore(t.TempDir())
	b := testBundle(t, models.TargetBTTS, time.Now())
	require.NoError(t, store.Save(b))

	path := store.Path(b.Key)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := bytes.Replace(data, []byte(`"medians":[5,6]`), []byte(`"medians":[5,7]`), 1)
	require.NotEqual(t, data, tampered)
	require.NoError(t, os.WriteFile(path, tampered, 0o644))

	_, err = store.Load(b.Key)
	assert.ErrorIs(t, err, ErrHashMismatch)
}

func TestStoreRejectsCorruptFile(t *testing.T) {
	store := NewStore(t.TempDir())
	require.NoError(t, os.WriteFile(store.Path("btts-x-y"), []byte("{not json"), 0o644))
	_, err := store.Load("btts-x-y")
	assert.Error(t, err)
}

func TestBundleValidate(t *testing.T) {
	b := testBundle(t, models.TargetWinner, time.Now())
	require.NoError(t, b.Validate())

	b.TargetEncoder = nil
	assert.ErrorIs(t, b.Validate(), ErrIncompatibleBundle)

	b = testBundle(t, models.TargetBTTS, time.Now())
	b.SchemaVersion = "stale"
	assert.ErrorIs(t, b.Validate(), ErrIncompatibleBundle)

	b = testBundle(t, models.TargetBTTS, time.Now())
	b.Model.Width = 5
	assert.ErrorIs(t, b.Validate(), ErrIncompatibleBundle)

	binary := testBundle(t, models.TargetOver15, time.Now())
	label, err := binary.DecodeClass(1)
	require.NoError(t, err)
	assert.Equal(t, "1", label)
}

func TestFileRegistryActivation(t *testing.T) {
	ctx := context.Background()
	reg := NewFileRegistry(filepath.Join(t.TempDir(), "registry.json"))

	_, err := reg.Active(ctx, models.TargetWinner)
	assert.ErrorIs(t, err, ErrNoActiveBundle)

	_, err = reg.Activate(ctx, "winner-missing")
	assert.ErrorIs(t, err, ErrUnknownBundle)

	first := Entry{Key: "winner-1", Target: models.TargetWinner, CreatedAt: time.Unix(100, 0)}
	second := Entry{Key: "winner-2", Target: models.TargetWinner, CreatedAt: time.Unix(200, 0)}
	other := Entry{Key: "btts-1", Target: models.TargetBTTS, CreatedAt: time.Unix(150, 0)}
	for _, e := range []Entry{first, second, other} {
		require.NoError(t, reg.Register(ctx, e))
	}
	require.NoError(t, reg.Register(ctx, first))

	prev, err := reg.Activate(ctx, "winner-1")
	require.NoError(t, err)
	assert.Empty(t, prev)
	_, err = reg.Activate(ctx, "btts-1")
	require.NoError(t, err)

	prev, err = reg.Activate(ctx, "winner-2")
	require.NoError(t, err)
	assert.Equal(t, "winner-1", prev)

	active, err := reg.Active(ctx, models.TargetWinner)
	require.NoError(t, err)
	assert.Equal(t, "winner-2", active.Key)
	require.NotNil(t, active.ActivatedAt)

	list, err := reg.List(ctx, models.TargetWinner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "winner-2", list[0].Key)
	assert.False(t, list[1].Active)

	btts, err := reg.Active(ctx, models.TargetBTTS)
	require.NoError(t, err)
	assert.Equal(t, "btts-1", btts.Key)
}

func TestManagerPublishAndLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	var buf bytes.Buffer
	log := logger.NewLoggerWithOutput("info", &buf)
	log.SetFormatter(&logrus.JSONFormatter{})

	mgr := NewManager(NewStore(filepath.Join(dir, "bundles")), NewFileRegistry(filepath.Join(dir, "registry.json")), logger.NewAuditLogger(log))

	b := testBundle(t, models.TargetWinner, time.Now())
	require.NoError(t, mgr.Publish(ctx, b))
	assert.Contains(t, buf.String(), b.Key)

	loaded, err := mgr.LoadActive(ctx, models.TargetWinner)
	require.NoError(t, err)
	assert.Equal(t, b.Key, loaded.Key)

	_, err = mgr.LoadActive(ctx, models.TargetBTTS)
	assert.ErrorIs(t, err, ErrNoActiveBundle)

	newer := testBundle(t, models.TargetWinner, b.CreatedAt.Add(time.Hour))
	require.NoError(t, mgr.Publish(ctx, newer))
	entries, err := mgr.Bundles(ctx, models.TargetWinner)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, newer.Key, entries[0].Key)
	assert.True(t, entries[0].Active)
	assert.False(t, entries[1].Active)

	entries, err = mgr.Bundles(ctx, models.TargetBTTS)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestManagerRejectsRegistryHashMismatch(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewStore(dir)
	reg := NewFileRegistry(filepath.Join(dir, "registry.json"))
	mgr := NewManager(store, reg, nil)

	b := testBundle(t, models.TargetBTTS, time.Now())
	require.NoError(t, store.Save(b))
	entry := EntryFor(b, store.Path(b.Key))
	entry.ContentHash = "deadbeef"
	require.NoError(t, reg.Register(ctx, entry))
	_, err := reg.Activate(ctx, b.Key)
	require.NoError(t, err)

	_, err = mgr.LoadActive(ctx, models.TargetBTTS)
	assert.ErrorIs(t, err, ErrHashMismatch)
}
