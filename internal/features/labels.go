package features

import (
	"strconv"

	"github.com/yourusername/match-predictor/internal/models"
)

// Winner classes
const (
	HomeWin = "1"
	Draw    = "X"
	AwayWin = "2"
)

var doubleChance = map[string]string{
	HomeWin: "1X",
	AwayWin: "X2",
	Draw:    "1X",
}

// OutcomeLabels are the training targets derived from a final score.
type OutcomeLabels struct {
	Winner         string
	BTTS           int
	Over15         int
	Over25         int
	DoubleChance   string
	GoalDifference float64
}

// DeriveOutcomeLabels computes every target label from the two goal counts.
func DeriveOutcomeLabels(home, away float64) OutcomeLabels {
	winner := Draw
	switch {
	case home > away:
		winner = HomeWin
	case home < away:
		winner = AwayWin
	}

	total := home + away
	return OutcomeLabels{
		Winner:         winner,
		BTTS:           boolToInt(home > 0 && away > 0),
		Over15:         boolToInt(total > 1.5),
		Over25:         boolToInt(total > 2.5),
		DoubleChance:   doubleChance[winner],
		GoalDifference: home - away,
	}
}

// Label returns the class label for target. Binary targets are "0" or "1".
func (l OutcomeLabels) Label(target models.PredictionTarget) string {
	switch target {
	case models.TargetWinner:
		return l.Winner
	case models.TargetDoubleChance:
		return l.DoubleChance
	case models.TargetBTTS:
		return strconv.Itoa(l.BTTS)
	case models.TargetOver15:
		return strconv.Itoa(l.Over15)
	case models.TargetOver25:
		return strconv.Itoa(l.Over25)
	}
	return ""
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
