package features

import (
	"math"

	"github.com/yourusername/match-predictor/internal/models"
)

// H2HCounters are the raw head-to-head aggregates with missing values as NaN.
type H2HCounters struct {
	GamesPlayed       float64
	Team1Wins         float64
	Team2Wins         float64
	Draws             float64
	Team1Scored       float64
	Team2Scored       float64
	Team1HomeWins     float64
	Team1HomeDraws    float64
	Team1HomeLosses   float64
	Team1HomeScored   float64
	Team1HomeConceded float64
	Team2HomeWins     float64
	Team2HomeDraws    float64
	Team2HomeLosses   float64
	Team2HomeScored   float64
	Team2HomeConceded float64
}

// CountersFrom converts provider counters to floats.
func CountersFrom(h models.HeadToHead) H2HCounters {
	return H2HCounters{
		GamesPlayed:       h.GamesPlayed.Float(),
		Team1Wins:         h.Team1Wins.Float(),
		Team2Wins:         h.Team2Wins.Float(),
		Draws:             h.Draws.Float(),
		Team1Scored:       h.Team1Scored.Float(),
		Team2Scored:       h.Team2Scored.Float(),
		Team1HomeWins:     h.Team1HomeWins.Float(),
		Team1HomeDraws:    h.Team1HomeDraws.Float(),
		Team1HomeLosses:   h.Team1HomeLosses.Float(),
		Team1HomeScored:   h.Team1HomeScored.Float(),
		Team1HomeConceded: h.Team1HomeConceded.Float(),
		Team2HomeWins:     h.Team2HomeWins.Float(),
		Team2HomeDraws:    h.Team2HomeDraws.Float(),
		Team2HomeLosses:   h.Team2HomeLosses.Float(),
		Team2HomeScored:   h.Team2HomeScored.Float(),
		Team2HomeConceded: h.Team2HomeConceded.Float(),
	}
}

// H2HRates are the per-game derivatives of the head-to-head counters.
type H2HRates struct {
	Team1WinRate          float64
	Team2WinRate          float64
	DrawRate              float64
	Team1GoalsPerGame     float64
	Team2GoalsPerGame     float64
	Team1HomeWinRate      float64
	Team2HomeWinRate      float64
	Team1HomeGoalsPerGame float64
	Team2HomeGoalsPerGame float64
	TotalGoals            float64
}

// DeriveH2HRates divides the counters by games played or by the home-split
// totals. A zero or missing denominator yields NaN.
func DeriveH2HRates(c H2HCounters) H2HRates {
	t1Home := c.Team1HomeWins + c.Team1HomeDraws + c.Team1HomeLosses
	t2Home := c.Team2HomeWins + c.Team2HomeDraws + c.Team2HomeLosses

	return H2HRates{
		Team1WinRate:          ratio(c.Team1Wins, c.GamesPlayed),
		Team2WinRate:          ratio(c.Team2Wins, c.GamesPlayed),
		DrawRate:              ratio(c.Draws, c.GamesPlayed),
		Team1GoalsPerGame:     ratio(c.Team1Scored, c.GamesPlayed),
		Team2GoalsPerGame:     ratio(c.Team2Scored, c.GamesPlayed),
		Team1HomeWinRate:      ratio(c.Team1HomeWins, t1Home),
		Team2HomeWinRate:      ratio(c.Team2HomeWins, t2Home),
		Team1HomeGoalsPerGame: ratio(c.Team1HomeScored, t1Home),
		Team2HomeGoalsPerGame: ratio(c.Team2HomeScored, t2Home),
		TotalGoals:            c.Team1Scored + c.Team2Scored,
	}
}

func ratio(num, denom float64) float64 {
	if math.IsNaN(num) || math.IsNaN(denom) || denom == 0 {
		return math.NaN()
	}
	return num / denom
}

// PresentCounters returns the counter columns whose key was present in h.
func PresentCounters(h models.HeadToHead) []Column {
	fields := []models.Number{
		h.Team1Wins, h.Team2Wins, h.Draws, h.Team1Scored, h.Team2Scored,
		h.Team1HomeWins, h.Team1HomeDraws, h.Team1HomeLosses, h.Team1HomeScored, h.Team1HomeConceded,
		h.Team2HomeWins, h.Team2HomeDraws, h.Team2HomeLosses, h.Team2HomeScored, h.Team2HomeConceded,
	}
	var present []Column
	for i, n := range fields {
		if n.Present {
			present = append(present, H2HCounterColumns[i])
		}
	}
	return present
}
