package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		want PredictionTarget
	}{
		{"Winner", TargetWinner},
		{"winner", TargetWinner},
		{"over_2_5", TargetOver25},
		{"Double_Chance", TargetDoubleChance},
		{"btts", TargetBTTS},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseTarget("Corners")
	assert.ErrorIs(t, err, ErrUnknownTarget)
}

func TestTargetCategorical(t *testing.T) {
	assert.True(t, TargetWinner.Categorical())
	assert.True(t, TargetDoubleChance.Categorical())
	assert.False(t, TargetBTTS.Categorical())
	assert.False(t, TargetOver15.Categorical())
	assert.False(t, TargetOver25.Categorical())
}

func TestNewHistoryEntries(t *testing.T) {
	runID := uuid.New()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	results := []PredictionResult{{
		MatchID: 7,
		Predictions: map[string]TargetPrediction{
			TargetWinner.SnapshotKey(): {Class: StringPtr("1"), Confidence: 0.7},
			TargetBTTS.SnapshotKey():   {},
		},
	}}

	entries := NewHistoryEntries(results, runID, at)
	require.Len(t, entries, 1)
	assert.Equal(t, runID, entries[0].RunID)
	assert.Equal(t, time.UTC, entries[0].PredictedAt.Location())
	assert.False(t, entries[0].Finished)
	assert.InDelta(t, 0.7, entries[0].WinnerConfidence(), 1e-9)

	btts, ok := entries[0].Target(TargetBTTS)
	require.True(t, ok)
	assert.True(t, btts.Failed())
	assert.Equal(t, "-", btts.ClassOr("-"))
}
