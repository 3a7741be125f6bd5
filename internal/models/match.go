package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MatchDateLayout is the provider's date format.
const MatchDateLayout = "02/01/2006"

// HeadToHead holds the aggregate head-to-head counters between the two
// teams of a match, as reported by the provider.
type HeadToHead struct {
	GamesPlayed       Number `json:"h2h_games_played" validate:"required"`
	Team1Wins         Number `json:"h2h_team1_wins" validate:"required"`
	Team2Wins         Number `json:"h2h_team2_wins" validate:"required"`
	Draws             Number `json:"h2h_draws" validate:"required"`
	Team1Scored       Number `json:"h2h_team1_scored" validate:"required"`
	Team2Scored       Number `json:"h2h_team2_scored" validate:"required"`
	Team1HomeWins     Number `json:"h2h_team1_home_wins" validate:"required"`
	Team1HomeDraws    Number `json:"h2h_team1_home_draws" validate:"required"`
	Team1HomeLosses   Number `json:"h2h_team1_home_losses" validate:"required"`
	Team1HomeScored   Number `json:"h2h_team1_home_scored" validate:"required"`
	Team1HomeConceded Number `json:"h2h_team1_home_conceded" validate:"required"`
	Team2HomeWins     Number `json:"h2h_team2_home_wins" validate:"required"`
	Team2HomeDraws    Number `json:"h2h_team2_home_draws" validate:"required"`
	Team2HomeLosses   Number `json:"h2h_team2_home_losses" validate:"required"`
	Team2HomeScored   Number `json:"h2h_team2_home_scored" validate:"required"`
	Team2HomeConceded Number `json:"h2h_team2_home_conceded" validate:"required"`
}

// Odds is a decimal 1X2 odds triple.
type Odds struct {
	Home Number `json:"home_win"`
	Draw Number `json:"draw"`
	Away Number `json:"away_win"`
}

// Complete reports whether all three prices coerced to numbers.
func (o Odds) Complete() bool {
	return o.Home.Valid && o.Draw.Valid && o.Away.Valid
}

// MatchRecord is one finished historical match.
type MatchRecord struct {
	MatchID    int64  `json:"match_id,omitempty"`
	Date       string `json:"date" validate:"required"`
	Time       string `json:"time" validate:"required"`
	League     string `json:"league" validate:"required"`
	LeagueID   int64  `json:"league_id,omitempty"`
	Season     string `json:"season,omitempty"`
	IsCup      bool   `json:"is_cup"`
	Team1      string `json:"team1" validate:"required"`
	Team2      string `json:"team2" validate:"required"`
	Team1ID    int64  `json:"team1_id,omitempty"`
	Team2ID    int64  `json:"team2_id,omitempty"`
	Team1Goals Number `json:"team1_goals" validate:"required"`
	Team2Goals Number `json:"team2_goals" validate:"required"`
	Team1Rank  Number `json:"team1_rank" validate:"required_unless=IsCup true"`
	Team2Rank  Number `json:"team2_rank" validate:"required_unless=IsCup true"`
	HeadToHead
	Odds
}

// Day returns the match date at midnight UTC.
func (m MatchRecord) Day() (time.Time, error) {
	return ParseMatchDate(m.Date)
}

// HasOutcome reports whether both goal counts are numeric.
func (m MatchRecord) HasOutcome() bool {
	return m.Team1Goals.Valid && m.Team2Goals.Valid
}

// Key identifies a fixture for duplicate detection.
func (m MatchRecord) Key() string {
	return strings.Join([]string{m.Date, m.Team1, m.Team2}, "|")
}

// UpcomingMatch is a scheduled match whose outcome is unknown.
type UpcomingMatch struct {
	MatchID  int64  `json:"match_id"`
	LeagueID int64  `json:"league_id"`
	Season   string `json:"season,omitempty"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	HomeName string `json:"home_name"`
	AwayName string `json:"away_name"`
	HomeID   int64  `json:"home_id"`
	AwayID   int64  `json:"away_id"`
	Odds     *Odds  `json:"odds,omitempty"`
	HomeRank Number `json:"team1_rank"`
	AwayRank Number `json:"team2_rank"`
	HeadToHead
}

// Day returns the match date at midnight UTC.
func (u UpcomingMatch) Day() (time.Time, error) {
	return ParseMatchDate(u.Date)
}

// ParseMatchDate parses the provider date format, falling back to ISO dates.
func ParseMatchDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(MatchDateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// League is one entry of the league reference table.
type League struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LeagueTable maps league ids to display names.
type LeagueTable map[int64]string

// NewLeagueTable builds a lookup from reference entries.
func NewLeagueTable(leagues []League) LeagueTable {
	table := make(LeagueTable, len(leagues))
	for _, l := range leagues {
		table[l.ID] = l.Name
	}
	return table
}

// Name returns the display name for id, or "?" when unknown.
func (t LeagueTable) Name(id int64) string {
	if name, ok := t[id]; ok {
		return name
	}
	return "?"
}

// IDs returns the configured league ids in ascending order.
func (t LeagueTable) IDs() []int64 {
	ids := make([]int64, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
