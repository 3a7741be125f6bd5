package features

import "math"

// DeriveRankDiff returns team1 rank minus team2 rank, NaN when either is missing.
func DeriveRankDiff(team1, team2 float64) float64 {
	if math.IsNaN(team1) || math.IsNaN(team2) {
		return math.NaN()
	}
	return team1 - team2
}
