package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
		value float64
	}{
		{"integer", `3`, true, 3},
		{"float", `1.85`, true, 1.85},
		{"numeric string", `"12"`, true, 12},
		{"padded string", `" 4.5 "`, true, 4.5},
		{"empty string", `""`, false, 0},
		{"null", `null`, false, 0},
		{"text", `"abc"`, false, 0},
		{"bool", `true`, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.True(t, n.Present)
			assert.Equal(t, tt.valid, n.Valid)
			if tt.valid {
				assert.InDelta(t, tt.value, n.Float(), 1e-9)
			} else {
				assert.True(t, math.IsNaN(n.Float()))
			}
		})
	}
}

func TestNumberAbsentKey(t *testing.T) {
	var rec MatchRecord
	require.NoError(t, json.Unmarshal([]byte(`{"team1":"A","team2":"B","team1_goals":"2"}`), &rec))

	assert.True(t, rec.Team1Goals.Valid)
	assert.False(t, rec.Team2Goals.Present)
	assert.False(t, rec.HasOutcome())
}

func TestNumberMarshal(t *testing.T) {
	out, err := json.Marshal(struct {
		A Number `json:"a"`
		B Number `json:"b"`
	}{A: NewNumber(2.5), B: Blank()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2.5,"b":""}`, string(out))
}

func TestParseMatchDate(t *testing.T) {
	d, err := ParseMatchDate("05/03/2024")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, 3, int(d.Month()))
	assert.Equal(t, 5, d.Day())

	d, err = ParseMatchDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, 5, d.Day())

	_, err = ParseMatchDate("March 5")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestLeagueTable(t *testing.T) {
	table := NewLeagueTable([]League{{ID: 237, Name: "Premier League"}, {ID: 10, Name: "Serie A"}})

	assert.Equal(t, "Premier League", table.Name(237))
	assert.Equal(t, "?", table.Name(1))
	assert.Equal(t, []int64{10, 237}, table.IDs())
}
