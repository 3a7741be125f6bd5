package features

import "math"

// OddsFeatures are derived from a complete 1X2 decimal odds triple.
type OddsFeatures struct {
	RatioHomeAway float64
	Min           float64
	Max           float64
	Sum           float64
	ImpliedHome   float64
	ImpliedDraw   float64
	ImpliedAway   float64
	ImpliedSum    float64
	ImpliedDiff   float64
}

// MissingOdds has every field set to NaN.
func MissingOdds() OddsFeatures {
	nan := math.NaN()
	return OddsFeatures{nan, nan, nan, nan, nan, nan, nan, nan, nan}
}

// DeriveOdds computes odds features. It returns MissingOdds and false unless
// all three prices are present.
func DeriveOdds(home, draw, away float64) (OddsFeatures, bool) {
	if math.IsNaN(home) || math.IsNaN(draw) || math.IsNaN(away) {
		return MissingOdds(), false
	}

	implied := func(o float64) float64 {
		if o == 0 {
			return math.NaN()
		}
		return 1 / o
	}

	f := OddsFeatures{
		RatioHomeAway: ratio(home, away),
		Min:           math.Min(home, math.Min(draw, away)),
		Max:           math.Max(home, math.Max(draw, away)),
		Sum:           home + draw + away,
		ImpliedHome:   implied(home),
		ImpliedDraw:   implied(draw),
		ImpliedAway:   implied(away),
	}
	f.ImpliedSum = f.ImpliedHome + f.ImpliedDraw + f.ImpliedAway
	f.ImpliedDiff = f.ImpliedHome - f.ImpliedAway
	return f, true
}
