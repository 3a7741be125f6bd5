package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/models"
)

const soccerDataSourceName = "soccerdata"

var minOdds = decimal.NewFromInt(1)

// SoccerDataClient implements MatchSource for the SoccerDataAPI.
type SoccerDataClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	authToken  string
	standings  *cache.Cache
	logger     *logrus.Entry
	now        func() time.Time
}

// NewSoccerDataClient creates a new SoccerDataAPI client. Standings are
// cached per league for standingsTTL.
func NewSoccerDataClient(httpClient *RateLimitedHTTPClient, baseURL, authToken string, standingsTTL time.Duration, logger *logrus.Logger) *SoccerDataClient {
	if standingsTTL <= 0 {
		standingsTTL = time.Hour
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &SoccerDataClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		authToken:  authToken,
		standings:  cache.New(standingsTTL, standingsTTL*2),
		logger:     logger.WithField("source", soccerDataSourceName),
		now:        time.Now,
	}
}

// Name returns the data source name
func (c *SoccerDataClient) Name() string {
	return soccerDataSourceName
}

type teamRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type listedMatch struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
	IsCup  *bool  `json:"is_cup"`
	Teams  struct {
		Home teamRef `json:"home"`
		Away teamRef `json:"away"`
	} `json:"teams"`
}

type leagueMatches struct {
	LeagueID int64 `json:"league_id"`
	IsCup    *bool `json:"is_cup"`
	Season   struct {
		Year string `json:"year"`
	} `json:"season"`
	Stage []struct {
		Matches []listedMatch `json:"matches"`
	} `json:"stage"`
}

type matchPayload struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Time   string `json:"time"`
	Status string `json:"status"`
	IsCup  *bool  `json:"is_cup"`
	League struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"league"`
	Teams struct {
		Home teamRef `json:"home"`
		Away teamRef `json:"away"`
	} `json:"teams"`
	Goals struct {
		HomeFT models.Number `json:"home_ft_goals"`
		AwayFT models.Number `json:"away_ft_goals"`
	} `json:"goals"`
	Odds struct {
		MatchWinner *struct {
			Home json.RawMessage `json:"home"`
			Draw json.RawMessage `json:"draw"`
			Away json.RawMessage `json:"away"`
		} `json:"match_winner"`
	} `json:"odds"`
}

type h2hPayload struct {
	Stats struct {
		Overall struct {
			GamesPlayed models.Number `json:"overall_games_played"`
			Team1Wins   models.Number `json:"overall_team1_wins"`
			Team2Wins   models.Number `json:"overall_team2_wins"`
			Draws       models.Number `json:"overall_draws"`
			Team1Scored models.Number `json:"overall_team1_scored"`
			Team2Scored models.Number `json:"overall_team2_scored"`
		} `json:"overall"`
		Team1AtHome struct {
			Wins     models.Number `json:"team1_wins_at_home"`
			Draws    models.Number `json:"team1_draws_at_home"`
			Losses   models.Number `json:"team1_losses_at_home"`
			Scored   models.Number `json:"team1_scored_at_home"`
			Conceded models.Number `json:"team1_conceded_at_home"`
		} `json:"team1_at_home"`
		Team2AtHome struct {
			Wins     models.Number `json:"team2_wins_at_home"`
			Draws    models.Number `json:"team2_draws_at_home"`
			Losses   models.Number `json:"team2_losses_at_home"`
			Scored   models.Number `json:"team2_scored_at_home"`
			Conceded models.Number `json:"team2_conceded_at_home"`
		} `json:"team2_at_home"`
	} `json:"stats"`
}

type standingsPayload struct {
	Stage []struct {
		Standings []Standing `json:"standings"`
	} `json:"stage"`
}

// HistoricalMatches lists matches played between weeks ago and an hour ago.
// A league that fails is logged and skipped.
func (c *SoccerDataClient) HistoricalMatches(ctx context.Context, leagueIDs []int64, weeks int) ([]MatchSummary, error) {
	now := c.now().UTC()
	from := dayOf(now.AddDate(0, 0, -7*weeks))
	to := dayOf(now.Add(-time.Hour))
	return c.collect(ctx, leagueIDs, func(m MatchSummary, day time.Time) bool {
		return !day.Before(from) && !day.After(to)
	})
}

// UpcomingMatches lists unfinished matches from today through days ahead.
func (c *SoccerDataClient) UpcomingMatches(ctx context.Context, leagueIDs []int64, days int) ([]MatchSummary, error) {
	now := c.now().UTC()
	from := dayOf(now)
	to := dayOf(now.AddDate(0, 0, days))
	return c.collect(ctx, leagueIDs, func(m MatchSummary, day time.Time) bool {
		return !m.Finished() && !day.Before(from) && !day.After(to)
	})
}

func (c *SoccerDataClient) collect(ctx context.Context, leagueIDs []int64, keep func(MatchSummary, time.Time) bool) ([]MatchSummary, error) {
	var out []MatchSummary
	failed := 0
	for _, leagueID := range leagueIDs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		matches, err := c.listMatches(ctx, leagueID)
		if err != nil {
			failed++
			c.logger.WithError(err).WithField("league_id", leagueID).Error("Failed to list league matches")
			continue
		}
		for _, m := range matches {
			day, err := models.ParseMatchDate(m.Date)
			if err != nil {
				c.logger.WithFields(logrus.Fields{"match_id": m.MatchID, "date": m.Date}).Warn("Date parsing failed")
				continue
			}
			if keep(m, day) {
				out = append(out, m)
			}
		}
	}
	if failed > 0 && failed == len(leagueIDs) {
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeNetworkError, "every league request failed", ErrNetworkError)
	}
	return out, nil
}

func (c *SoccerDataClient) listMatches(ctx context.Context, leagueID int64) ([]MatchSummary, error) {
	body, err := c.get(ctx, "/matches/", url.Values{"league_id": {strconv.FormatInt(leagueID, 10)}})
	if err != nil {
		return nil, err
	}

	// The endpoint returns either one league object or a list of them.
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '{' {
		body = append(append([]byte{'['}, body...), ']')
	}
	var leagues []leagueMatches
	if err := json.Unmarshal(body, &leagues); err != nil {
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeInvalidData, "failed to parse matches", err)
	}

	var out []MatchSummary
	for _, lg := range leagues {
		for _, stage := range lg.Stage {
			for _, m := range stage.Matches {
				if m.Date == "" {
					continue
				}
				isCup := m.IsCup
				if isCup == nil {
					isCup = lg.IsCup
				}
				out = append(out, MatchSummary{
					MatchID:  m.ID,
					LeagueID: leagueID,
					Season:   lg.Season.Year,
					Date:     m.Date,
					Time:     m.Time,
					Status:   m.Status,
					HomeName: nameOr(m.Teams.Home.Name),
					AwayName: nameOr(m.Teams.Away.Name),
					HomeID:   m.Teams.Home.ID,
					AwayID:   m.Teams.Away.ID,
					IsCup:    isCup != nil && *isCup,
				})
			}
		}
	}
	return out, nil
}

// MatchDetails retrieves detailed information for a specific match
func (c *SoccerDataClient) MatchDetails(ctx context.Context, matchID int64) (*MatchDetails, error) {
	body, err := c.get(ctx, "/match/", url.Values{"match_id": {strconv.FormatInt(matchID, 10)}})
	if err != nil {
		return nil, err
	}
	var p matchPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeInvalidData, "failed to parse match details", err)
	}

	d := &MatchDetails{
		MatchID:   p.ID,
		Status:    p.Status,
		Date:      p.Date,
		Time:      p.Time,
		League:    models.League{ID: p.League.ID, Name: p.League.Name},
		Home:      Team(p.Teams.Home),
		Away:      Team(p.Teams.Away),
		HomeGoals: p.Goals.HomeFT,
		AwayGoals: p.Goals.AwayFT,
		IsCup:     p.IsCup,
	}
	if d.MatchID == 0 {
		d.MatchID = matchID
	}
	if w := p.Odds.MatchWinner; w != nil {
		d.Odds = &models.Odds{Home: parseOdds(w.Home), Draw: parseOdds(w.Draw), Away: parseOdds(w.Away)}
	}
	return d, nil
}

// HeadToHead fetches head-to-head statistics between two teams
func (c *SoccerDataClient) HeadToHead(ctx context.Context, team1ID, team2ID int64) (models.HeadToHead, error) {
	body, err := c.get(ctx, "/head-to-head/", url.Values{
		"team_1_id": {strconv.FormatInt(team1ID, 10)},
		"team_2_id": {strconv.FormatInt(team2ID, 10)},
	})
	if err != nil {
		return models.HeadToHead{}, err
	}
	var p h2hPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return models.HeadToHead{}, NewDataSourceError(soccerDataSourceName, ErrCodeInvalidData, "failed to parse head-to-head", err)
	}
	s := p.Stats
	return models.HeadToHead{
		GamesPlayed:       s.Overall.GamesPlayed,
		Team1Wins:         s.Overall.Team1Wins,
		Team2Wins:         s.Overall.Team2Wins,
		Draws:             s.Overall.Draws,
		Team1Scored:       s.Overall.Team1Scored,
		Team2Scored:       s.Overall.Team2Scored,
		Team1HomeWins:     s.Team1AtHome.Wins,
		Team1HomeDraws:    s.Team1AtHome.Draws,
		Team1HomeLosses:   s.Team1AtHome.Losses,
		Team1HomeScored:   s.Team1AtHome.Scored,
		Team1HomeConceded: s.Team1AtHome.Conceded,
		Team2HomeWins:     s.Team2AtHome.Wins,
		Team2HomeDraws:    s.Team2AtHome.Draws,
		Team2HomeLosses:   s.Team2AtHome.Losses,
		Team2HomeScored:   s.Team2AtHome.Scored,
		Team2HomeConceded: s.Team2AtHome.Conceded,
	}, nil
}

// Standings fetches the current table of a league, served from cache when fresh
func (c *SoccerDataClient) Standings(ctx context.Context, leagueID int64) ([]Standing, error) {
	key := strconv.FormatInt(leagueID, 10)
	if cached, found := c.standings.Get(key); found {
		if rows, ok := cached.([]Standing); ok {
			return rows, nil
		}
	}

	body, err := c.get(ctx, "/standing/", url.Values{"league_id": {key}})
	if err != nil {
		return nil, err
	}
	var p standingsPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeInvalidData, "failed to parse standings", err)
	}
	var rows []Standing
	if len(p.Stage) > 0 {
		rows = p.Stage[0].Standings
	}
	c.standings.SetDefault(key, rows)
	return rows, nil
}

// get performs an authenticated GET and returns the body of a 200 response
func (c *SoccerDataClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	query.Set("auth_token", c.authToken)
	endpoint := c.baseURL + path + "?" + query.Encode()

	resp, err := c.httpClient.Get(ctx, endpoint)
	if err != nil {
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeNetworkError, "request to "+path+" failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeAuthenticationFailed, "invalid auth token", ErrAuthenticationFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", ErrRateLimitExceeded)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeNotFound, path+" not found", ErrNotFound)
	case resp.StatusCode >= 500:
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), ErrServerError)
	case resp.StatusCode != http.StatusOK:
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeUnknown, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewDataSourceError(soccerDataSourceName, ErrCodeNetworkError, "failed to read response", err)
	}
	return body, nil
}

// parseOdds decodes a decimal price given as a JSON number or string.
// Prices that are missing or not above 1 are blank.
func parseOdds(raw json.RawMessage) models.Number {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return models.Blank()
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.GreaterThan(minOdds) {
		return models.Blank()
	}
	return models.NewNumber(d.Round(3).InexactFloat64())
}

func nameOr(name string) string {
	if name == "" {
		return "?"
	}
	return name
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
