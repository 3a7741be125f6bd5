package datasource

import (
	"context"
	"errors"

	"github.com/yourusername/match-predictor/internal/models"
)

// MatchSource defines the interface for fetching football data from an
// external provider. All calls are best-effort; callers skip what fails.
type MatchSource interface {
	// HistoricalMatches lists matches of the given leagues played in the last weeks.
	HistoricalMatches(ctx context.Context, leagueIDs []int64, weeks int) ([]MatchSummary, error)

	// UpcomingMatches lists unfinished matches scheduled in the next days.
	UpcomingMatches(ctx context.Context, leagueIDs []int64, days int) ([]MatchSummary, error)

	// MatchDetails retrieves the full record of one match.
	MatchDetails(ctx context.Context, matchID int64) (*MatchDetails, error)

	// HeadToHead retrieves the aggregate head-to-head counters of two teams.
	HeadToHead(ctx context.Context, team1ID, team2ID int64) (models.HeadToHead, error)

	// Standings retrieves the current table of a league.
	Standings(ctx context.Context, leagueID int64) ([]Standing, error)

	// Name returns the name of the data source
	Name() string
}

// MatchSummary is a match as listed per league.
type MatchSummary struct {
	MatchID  int64  `json:"match_id"`
	LeagueID int64  `json:"league_id"`
	Season   string `json:"season,omitempty"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Status   string `json:"status"`
	HomeName string `json:"home_name"`
	AwayName string `json:"away_name"`
	HomeID   int64  `json:"home_id"`
	AwayID   int64  `json:"away_id"`
	IsCup    bool   `json:"is_cup"`
}

// Finished reports whether the provider marks the match as played.
func (m MatchSummary) Finished() bool {
	return m.Status == StatusFinished
}

// Team is a team reference.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MatchDetails is the detailed record of one match.
type MatchDetails struct {
	MatchID   int64
	Status    string
	Date      string
	Time      string
	League    models.League
	Home      Team
	Away      Team
	HomeGoals models.Number
	AwayGoals models.Number
	Odds      *models.Odds
	IsCup     *bool
}

// Finished reports whether the match has been played.
func (d *MatchDetails) Finished() bool {
	return d.Status == StatusFinished
}

// Standing is one team's row in a league table.
type Standing struct {
	TeamID   int64         `json:"team_id"`
	TeamName string        `json:"team_name"`
	Position models.Number `json:"position"`
}

// StatusFinished is the provider status of a played match.
const StatusFinished = "finished"

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// Sentinel errors matched with errors.Is against a DataSourceError's cause
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the code of a DataSourceError, or ErrCodeUnknown.
func ErrorCode(err error) string {
	var dsErr DataSourceError
	if errors.As(err, &dsErr) {
		return dsErr.Code
	}
	return ErrCodeUnknown
}
