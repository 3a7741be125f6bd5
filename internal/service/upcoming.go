package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/datasource"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

// UpcomingOptions configures an upcoming fetch
type UpcomingOptions struct {
	LeagueIDs  []int64
	Days       int
	OutputPath string
}

// FetchUpcoming lists the unfinished matches of the next days and writes
// them with odds, ranks and head-to-head counters attached where available.
// An empty list is written when nothing is scheduled.
func (s *IngestionService) FetchUpcoming(ctx context.Context, opts UpcomingOptions) ([]models.UpcomingMatch, *IngestionMetrics, error) {
	m := NewIngestionMetrics("upcoming")
	if len(opts.LeagueIDs) == 0 {
		return nil, m, ErrNoLeagues
	}

	summaries, err := s.source.UpcomingMatches(ctx, opts.LeagueIDs, opts.Days)
	if err != nil {
		m.RecordError(datasource.ErrorCode(err))
		return nil, m, fmt.Errorf("failed to list upcoming matches: %w", err)
	}
	m.RecordListed(len(summaries))

	upcoming := make([]models.UpcomingMatch, 0, len(summaries))
	for _, summary := range summaries {
		if err := ctx.Err(); err != nil {
			return nil, m, err
		}

		match := models.UpcomingMatch{
			MatchID:  summary.MatchID,
			LeagueID: summary.LeagueID,
			Season:   summary.Season,
			Date:     summary.Date,
			Time:     summary.Time,
			HomeName: summary.HomeName,
			AwayName: summary.AwayName,
			HomeID:   summary.HomeID,
			AwayID:   summary.AwayID,
		}

		details, err := s.source.MatchDetails(ctx, summary.MatchID)
		switch {
		case err != nil:
			m.RecordError(datasource.ErrorCode(err))
			s.log.WithError(err).WithField("match_id", summary.MatchID).Warn("Failed to fetch odds for upcoming match")
		case details.Odds != nil:
			odds := *details.Odds
			match.Odds = &odds
		}

		ranks := s.ranks(ctx, summary.LeagueID)
		match.HomeRank = rankOf(ranks, summary.HomeID)
		match.AwayRank = rankOf(ranks, summary.AwayID)
		match.HeadToHead = s.headToHead(ctx, summary.HomeID, summary.AwayID)

		if match.Odds == nil {
			s.log.LogDataQuality(stageUpcoming, "odds unavailable", logrus.Fields{"match_id": match.MatchID})
		}
		upcoming = append(upcoming, match)
		m.RecordSaved()
	}

	if err := storage.SaveUpcoming(opts.OutputPath, upcoming); err != nil {
		return nil, m, fmt.Errorf("failed to write upcoming matches: %w", err)
	}

	m.Finish()
	s.log.LogStageCounters(stageUpcoming, m.Counters())
	return upcoming, m, nil
}
