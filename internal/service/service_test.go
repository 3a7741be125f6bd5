package service

import (
	"context"
	"io"

	"github.com/yourusername/match-predictor/internal/datasource"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/models"
)

func testPipelineLogger() *logger.PipelineLogger {
	return logger.NewPipelineLogger(logger.NewLoggerWithOutput("error", io.Discard))
}

func n(v float64) models.Number { return models.NewNumber(v) }

func fullH2H() models.HeadToHead {
	return models.HeadToHead{
		GamesPlayed: n(10), Team1Wins: n(5), Team2Wins: n(3), Draws: n(2),
		Team1Scored: n(15), Team2Scored: n(11),
		Team1HomeWins: n(3), Team1HomeDraws: n(1), Team1HomeLosses: n(1),
		Team1HomeScored: n(9), Team1HomeConceded: n(5),
		Team2HomeWins: n(2), Team2HomeDraws: n(1), Team2HomeLosses: n(2),
		Team2HomeScored: n(6), Team2HomeConceded: n(6),
	}
}

func fullRecord(id int64, date, team1, team2 string, g1, g2 float64) models.MatchRecord {
	return models.MatchRecord{
		MatchID:    id,
		Date:       date,
		Time:       "15:00",
		League:     "Premier League",
		LeagueID:   228,
		Team1:      team1,
		Team2:      team2,
		Team1Goals: n(g1),
		Team2Goals: n(g2),
		Team1Rank:  n(1),
		Team2Rank:  n(2),
		HeadToHead: fullH2H(),
		Odds:       models.Odds{Home: n(2.1), Draw: n(3.3), Away: n(3.6)},
	}
}

// fakeSource is an in-memory MatchSource
type fakeSource struct {
	historical  []datasource.MatchSummary
	upcoming    []datasource.MatchSummary
	details     map[int64]*datasource.MatchDetails
	h2h         map[[2]int64]models.HeadToHead
	standings   map[int64][]datasource.Standing
	listErr     error
	detailCalls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) HistoricalMatches(ctx context.Context, leagueIDs []int64, weeks int) ([]datasource.MatchSummary, error) {
	return f.historical, f.listErr
}

func (f *fakeSource) UpcomingMatches(ctx context.Context, leagueIDs []int64, days int) ([]datasource.MatchSummary, error) {
	return f.upcoming, f.listErr
}

func (f *fakeSource) MatchDetails(ctx context.Context, matchID int64) (*datasource.MatchDetails, error) {
	f.detailCalls++
	d, ok := f.details[matchID]
	if !ok {
		return nil, datasource.NewDataSourceError("fake", datasource.ErrCodeNotFound, "no such match", datasource.ErrNotFound)
	}
	return d, nil
}

func (f *fakeSource) HeadToHead(ctx context.Context, team1ID, team2ID int64) (models.HeadToHead, error) {
	h, ok := f.h2h[[2]int64{team1ID, team2ID}]
	if !ok {
		return models.HeadToHead{}, datasource.NewDataSourceError("fake", datasource.ErrCodeNotFound, "no h2h", datasource.ErrNotFound)
	}
	return h, nil
}

func (f *fakeSource) Standings(ctx context.Context, leagueID int64) ([]datasource.Standing, error) {
	return f.standings[leagueID], nil
}
