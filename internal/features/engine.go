package features

import (
	"fmt"
	"time"

	"github.com/yourusername/match-predictor/internal/models"
)

// Engineered is the typed feature record of one match. Missing values are NaN.
// LeagueCode is filled by Materialize from a fitted league encoder.
type Engineered struct {
	League     string
	Sources    Source
	Team1Rank  float64
	Team2Rank  float64
	RankDiff   float64
	LeagueCode float64
	H2H        H2HCounters
	Rates      H2HRates
	Team1Form  FormStats
	Team2Form  FormStats
	Odds       OddsFeatures
}

// Value returns the value of column c.
func (e *Engineered) Value(c Column) (float64, error) {
	i, ok := columnIndex[c]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
	}
	return columnDefs[i].value(e), nil
}

// Engine derives features for historical and upcoming matches. Recent form is
// always looked up in the historical index, never in the batch being scored.
type Engine struct {
	form    *FormIndex
	leagues models.LeagueTable
}

// NewEngine creates an engine over a form index and the league table used to
// name upcoming matches.
func NewEngine(form *FormIndex, leagues models.LeagueTable) *Engine {
	return &Engine{form: form, leagues: leagues}
}

// FromRecord engineers a historical match.
func (e *Engine) FromRecord(rec models.MatchRecord) (Engineered, error) {
	day, err := rec.Day()
	if err != nil {
		return Engineered{}, err
	}
	odds := rec.Odds
	return e.build(rec.League, rec.Season, rec.Team1, rec.Team2, day,
		rec.Team1Rank, rec.Team2Rank, rec.HeadToHead, &odds), nil
}

// FromUpcoming engineers a scheduled match.
func (e *Engine) FromUpcoming(m models.UpcomingMatch) (Engineered, error) {
	day, err := m.Day()
	if err != nil {
		return Engineered{}, err
	}
	return e.build(e.leagues.Name(m.LeagueID), m.Season, m.HomeName, m.AwayName, day,
		m.HomeRank, m.AwayRank, m.HeadToHead, m.Odds), nil
}

// LeagueName returns the display name of an upcoming match's league.
func (e *Engine) LeagueName(m models.UpcomingMatch) string {
	return e.leagues.Name(m.LeagueID)
}

func (e *Engine) build(league, season, team1, team2 string, day time.Time,
	rank1, rank2 models.Number, h models.HeadToHead, odds *models.Odds) Engineered {
	out := Engineered{
		League:    league,
		Team1Rank: rank1.Float(),
		Team2Rank: rank2.Float(),
		H2H:       CountersFrom(h),
		Team1Form: e.form.Form(league, season, team1, day),
		Team2Form: e.form.Form(league, season, team2, day),
		Odds:      MissingOdds(),
	}
	if rank1.Present || rank2.Present {
		out.Sources |= SourceRanks
	}
	if hasH2H(h) {
		out.Sources |= SourceH2H
	}
	out.RankDiff = DeriveRankDiff(out.Team1Rank, out.Team2Rank)
	out.Rates = DeriveH2HRates(out.H2H)

	if odds != nil {
		if odds.Home.Present || odds.Draw.Present || odds.Away.Present {
			out.Sources |= SourceOdds
		}
		out.Odds, _ = DeriveOdds(odds.Home.Float(), odds.Draw.Float(), odds.Away.Float())
	}
	return out
}

func hasH2H(h models.HeadToHead) bool {
	for _, n := range []models.Number{
		h.GamesPlayed, h.Team1Wins, h.Team2Wins, h.Draws, h.Team1Scored, h.Team2Scored,
		h.Team1HomeWins, h.Team1HomeDraws, h.Team1HomeLosses, h.Team1HomeScored, h.Team1HomeConceded,
		h.Team2HomeWins, h.Team2HomeDraws, h.Team2HomeLosses, h.Team2HomeScored, h.Team2HomeConceded,
	} {
		if n.Present {
			return true
		}
	}
	return false
}

// Materialize encodes the league of every row and lays the rows out in schema
// order. It returns the number of rows whose league fell back to the first
// known class.
func Materialize(rows []Engineered, schema Schema, leagues *LabelEncoder) (Frame, int, error) {
	if err := schema.Validate(); err != nil {
		return Frame{}, 0, err
	}
	defs := make([]columnDef, schema.Len())
	for j, c := range schema.Columns {
		defs[j] = columnDefs[columnIndex[c]]
	}

	frame := Frame{Schema: schema, Rows: make([][]float64, len(rows))}
	fallbacks := 0
	for i := range rows {
		row := rows[i]
		code, fallback := leagues.TransformOrFallback(row.League)
		if fallback {
			fallbacks++
		}
		row.LeagueCode = float64(code)

		values := make([]float64, len(defs))
		for j, d := range defs {
			values[j] = d.value(&row)
		}
		frame.Rows[i] = values
	}
	return frame, fallbacks, nil
}

// AbsentColumns returns the schema columns whose raw inputs were missing from
// every row, as opposed to present but blank.
func AbsentColumns(rows []Engineered, schema Schema) []Column {
	var seen Source
	for _, r := range rows {
		seen |= r.Sources
	}
	var absent []Column
	for _, c := range schema.Columns {
		i, ok := columnIndex[c]
		if !ok {
			continue
		}
		if req := columnDefs[i].requires; req != 0 && seen&req == 0 {
			absent = append(absent, c)
		}
	}
	return absent
}
