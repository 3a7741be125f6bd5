package features

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
)

// EngineVersion changes whenever a column's definition changes.
const EngineVersion = "2"

// Column is a named feature column.
type Column string

// Feature columns
const (
	ColTeam1Rank             Column = "team1_rank"
	ColTeam2Rank             Column = "team2_rank"
	ColH2HTeam1Wins          Column = "h2h_team1_wins"
	ColH2HTeam2Wins          Column = "h2h_team2_wins"
	ColH2HDraws              Column = "h2h_draws"
	ColH2HTeam1Scored        Column = "h2h_team1_scored"
	ColH2HTeam2Scored        Column = "h2h_team2_scored"
	ColH2HTeam1HomeWins      Column = "h2h_team1_home_wins"
	ColH2HTeam1HomeDraws     Column = "h2h_team1_home_draws"
	ColH2HTeam1HomeLosses    Column = "h2h_team1_home_losses"
	ColH2HTeam1HomeScored    Column = "h2h_team1_home_scored"
	ColH2HTeam1HomeConceded  Column = "h2h_team1_home_conceded"
	ColH2HTeam2HomeWins      Column = "h2h_team2_home_wins"
	ColH2HTeam2HomeDraws     Column = "h2h_team2_home_draws"
	ColH2HTeam2HomeLosses    Column = "h2h_team2_home_losses"
	ColH2HTeam2HomeScored    Column = "h2h_team2_home_scored"
	ColH2HTeam2HomeConceded  Column = "h2h_team2_home_conceded"
	ColRankDiff              Column = "Rank_Diff"
	ColLeagueEncoded         Column = "League_Encoded"
	ColTeam1WinRate          Column = "H2H_Team1_Win_Rate"
	ColTeam2WinRate          Column = "H2H_Team2_Win_Rate"
	ColDrawRate              Column = "H2H_Draw_Rate"
	ColTeam1GoalsPerGame     Column = "H2H_Team1_Goals_Per_Game"
	ColTeam2GoalsPerGame     Column = "H2H_Team2_Goals_Per_Game"
	ColTeam1HomeWinRate      Column = "H2H_Team1_Home_Win_Rate"
	ColTeam2HomeWinRate      Column = "H2H_Team2_Home_Win_Rate"
	ColTeam1HomeGoalsPerGame Column = "H2H_Team1_Home_Goals_Per_Game"
	ColTeam2HomeGoalsPerGame Column = "H2H_Team2_Home_Goals_Per_Game"
	ColH2HTotalGoals         Column = "H2H_Total_Goals"
	ColTeam1FormPoints       Column = "team1_last5_avg_points"
	ColTeam2FormPoints       Column = "team2_last5_avg_points"
	ColTeam1FormGoals        Column = "team1_last5_avg_goals"
	ColTeam2FormGoals        Column = "team2_last5_avg_goals"
	ColOddsRatioHomeAway     Column = "odds_ratio_home_away"
	ColOddsMin               Column = "odds_min"
	ColOddsMax               Column = "odds_max"
	ColOddsSum               Column = "odds_sum"
	ColImpliedProbHome       Column = "implied_prob_home"
	ColImpliedProbDraw       Column = "implied_prob_draw"
	ColImpliedProbAway       Column = "implied_prob_away"
	ColImpliedProbSum        Column = "implied_prob_sum"
	ColImpliedProbDiff       Column = "implied_prob_diff"
)

// Source is a bit set of the raw input groups a row carried.
type Source uint8

// Input groups
const (
	SourceRanks Source = 1 << iota
	SourceH2H
	SourceOdds
)

type columnDef struct {
	name     Column
	requires Source
	value    func(*Engineered) float64
}

var columnDefs = []columnDef{
	{ColTeam1Rank, SourceRanks, func(e *Engineered) float64 { return e.Team1Rank }},
	{ColTeam2Rank, SourceRanks, func(e *Engineered) float64 { return e.Team2Rank }},
	{ColH2HTeam1Wins, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team1Wins }},
	{ColH2HTeam2Wins, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team2Wins }},
	{ColH2HDraws, SourceH2H, func(e *Engineered) float64 { return e.H2H.Draws }},
	{ColH2HTeam1Scored, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team1Scored }},
	{ColH2HTeam2Scored, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team2Scored }},
	{ColH2HTeam1HomeWins, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team1HomeWins }},
	{ColH2HTeam1HomeDraws, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team1HomeDraws }},
	{ColH2HTeam1HomeLosses, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team1HomeLosses }},
	{ColH2HTeam1HomeScored, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team1HomeScored }},
	{ColH2HTeam1HomeConceded, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team1HomeConceded }},
	{ColH2HTeam2HomeWins, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team2HomeWins }},
	{ColH2HTeam2HomeDraws, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team2HomeDraws }},
	{ColH2HTeam2HomeLosses, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team2HomeLosses }},
	{ColH2HTeam2HomeScored, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team2HomeScored }},
	{ColH2HTeam2HomeConceded, SourceH2H, func(e *Engineered) float64 { return e.H2H.Team2HomeConceded }},
	{ColRankDiff, SourceRanks, func(e *Engineered) float64 { return e.RankDiff }},
	{ColLeagueEncoded, 0, func(e *Engineered) float64 { return e.LeagueCode }},
	{ColTeam1WinRate, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team1WinRate }},
	{ColTeam2WinRate, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team2WinRate }},
	{ColDrawRate, SourceH2H, func(e *Engineered) float64 { return e.Rates.DrawRate }},
	{ColTeam1GoalsPerGame, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team1GoalsPerGame }},
	{ColTeam2GoalsPerGame, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team2GoalsPerGame }},
	{ColTeam1HomeWinRate, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team1HomeWinRate }},
	{ColTeam2HomeWinRate, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team2HomeWinRate }},
	{ColTeam1HomeGoalsPerGame, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team1HomeGoalsPerGame }},
	{ColTeam2HomeGoalsPerGame, SourceH2H, func(e *Engineered) float64 { return e.Rates.Team2HomeGoalsPerGame }},
	{ColH2HTotalGoals, SourceH2H, func(e *Engineered) float64 { return e.Rates.TotalGoals }},
	{ColTeam1FormPoints, 0, func(e *Engineered) float64 { return e.Team1Form.Points }},
	{ColTeam2FormPoints, 0, func(e *Engineered) float64 { return e.Team2Form.Points }},
	{ColTeam1FormGoals, 0, func(e *Engineered) float64 { return e.Team1Form.Goals }},
	{ColTeam2FormGoals, 0, func(e *Engineered) float64 { return e.Team2Form.Goals }},
	{ColOddsRatioHomeAway, SourceOdds, func(e *Engineered) float64 { return e.Odds.RatioHomeAway }},
	{ColOddsMin, SourceOdds, func(e *Engineered) float64 { return e.Odds.Min }},
	{ColOddsMax, SourceOdds, func(e *Engineered) float64 { return e.Odds.Max }},
	{ColOddsSum, SourceOdds, func(e *Engineered) float64 { return e.Odds.Sum }},
	{ColImpliedProbHome, SourceOdds, func(e *Engineered) float64 { return e.Odds.ImpliedHome }},
	{ColImpliedProbDraw, SourceOdds, func(e *Engineered) float64 { return e.Odds.ImpliedDraw }},
	{ColImpliedProbAway, SourceOdds, func(e *Engineered) float64 { return e.Odds.ImpliedAway }},
	{ColImpliedProbSum, SourceOdds, func(e *Engineered) float64 { return e.Odds.ImpliedSum }},
	{ColImpliedProbDiff, SourceOdds, func(e *Engineered) float64 { return e.Odds.ImpliedDiff }},
}

var columnIndex = func() map[Column]int {
	m := make(map[Column]int, len(columnDefs))
	for i, d := range columnDefs {
		m[d.name] = i
	}
	return m
}()

// H2HCounterColumns are the raw head-to-head counter columns.
var H2HCounterColumns = []Column{
	ColH2HTeam1Wins, ColH2HTeam2Wins, ColH2HDraws, ColH2HTeam1Scored, ColH2HTeam2Scored,
	ColH2HTeam1HomeWins, ColH2HTeam1HomeDraws, ColH2HTeam1HomeLosses, ColH2HTeam1HomeScored, ColH2HTeam1HomeConceded,
	ColH2HTeam2HomeWins, ColH2HTeam2HomeDraws, ColH2HTeam2HomeLosses, ColH2HTeam2HomeScored, ColH2HTeam2HomeConceded,
}

// Known reports whether the engine produces column c.
func Known(c Column) bool {
	_, ok := columnIndex[c]
	return ok
}

// Schema is an ordered list of feature columns.
type Schema struct {
	Columns []Column `json:"columns"`
}

// CanonicalSchema returns every column the engine produces in canonical order.
func CanonicalSchema() Schema {
	cols := make([]Column, len(columnDefs))
	for i, d := range columnDefs {
		cols[i] = d.name
	}
	return Schema{Columns: cols}
}

// Len returns the number of columns.
func (s Schema) Len() int {
	return len(s.Columns)
}

// Index returns the position of c, or -1.
func (s Schema) Index(c Column) int {
	for i, col := range s.Columns {
		if col == c {
			return i
		}
	}
	return -1
}

// Names returns the column names as strings.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = string(c)
	}
	return names
}

// Validate checks that every column is known and appears once.
func (s Schema) Validate() error {
	seen := make(map[Column]bool, len(s.Columns))
	for _, c := range s.Columns {
		if !Known(c) {
			return fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
		if seen[c] {
			return fmt.Errorf("duplicate feature column: %s", c)
		}
		seen[c] = true
	}
	return nil
}

// Version hashes the engine version and the ordered column list.
func (s Schema) Version() string {
	sum := sha256.Sum256([]byte(EngineVersion + "\n" + strings.Join(s.Names(), "\n")))
	return hex.EncodeToString(sum[:8])
}

// Frame is a numeric matrix whose columns follow Schema. Missing cells are NaN.
type Frame struct {
	Schema Schema
	Rows   [][]float64
}

// Len returns the number of rows.
func (f Frame) Len() int {
	return len(f.Rows)
}

// Column returns a copy of the values of c.
func (f Frame) Column(c Column) ([]float64, bool) {
	j := f.Schema.Index(c)
	if j < 0 {
		return nil, false
	}
	out := make([]float64, len(f.Rows))
	for i, row := range f.Rows {
		out[i] = row[j]
	}
	return out, true
}

// Without returns a frame with the given columns removed.
func (f Frame) Without(cols ...Column) Frame {
	if len(cols) == 0 {
		return f
	}
	drop := make(map[Column]bool, len(cols))
	for _, c := range cols {
		drop[c] = true
	}
	keep := make([]int, 0, f.Schema.Len())
	kept := make([]Column, 0, f.Schema.Len())
	for j, c := range f.Schema.Columns {
		if !drop[c] {
			keep = append(keep, j)
			kept = append(kept, c)
		}
	}
	out := Frame{Schema: Schema{Columns: kept}, Rows: make([][]float64, len(f.Rows))}
	for i, row := range f.Rows {
		r := make([]float64, len(keep))
		for k, j := range keep {
			r[k] = row[j]
		}
		out.Rows[i] = r
	}
	return out
}

// EmptyColumns returns the columns whose every cell is NaN.
func (f Frame) EmptyColumns() []Column {
	var empty []Column
	for j, c := range f.Schema.Columns {
		allMissing := true
		for _, row := range f.Rows {
			if !math.IsNaN(row[j]) {
				allMissing = false
				break
			}
		}
		if allMissing {
			empty = append(empty, c)
		}
	}
	return empty
}

// Subset returns the rows at the given indices.
func (f Frame) Subset(rows []int) Frame {
	out := Frame{Schema: f.Schema, Rows: make([][]float64, len(rows))}
	for i, r := range rows {
		out.Rows[i] = f.Rows[r]
	}
	return out
}
