package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/datasource"
	"github.com/yourusername/match-predictor/internal/logger"
	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

const (
	stageFetch    = "fetch"
	stageUpcoming = "fetch_upcoming"
)

// HistoricalOptions configures a historical fetch
type HistoricalOptions struct {
	LeagueIDs  []int64
	Weeks      int
	CorpusPath string
	// Merge keeps matches already in the corpus; fresh records replace
	// existing ones with the same (date, team1, team2).
	Merge bool
}

// IngestionService builds the historical corpus and the upcoming list from
// the upstream provider
type IngestionService struct {
	source    datasource.MatchSource
	validator *DataValidator
	log       *logger.PipelineLogger
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(source datasource.MatchSource, validator *DataValidator, pipelineLog *logger.PipelineLogger) *IngestionService {
	return &IngestionService{
		source:    source,
		validator: validator,
		log:       pipelineLog,
	}
}

// IngestHistorical lists recent matches of every league, builds a record for
// each finished one and writes the corpus. Records with empty essential
// fields are ignored; upstream failures are logged and skipped.
func (s *IngestionService) IngestHistorical(ctx context.Context, opts HistoricalOptions) (*IngestionMetrics, error) {
	m := NewIngestionMetrics("historical")
	if len(opts.LeagueIDs) == 0 {
		return m, ErrNoLeagues
	}

	s.log.WithFields(logrus.Fields{
		"source":  s.source.Name(),
		"leagues": len(opts.LeagueIDs),
		"weeks":   opts.Weeks,
	}).Info("Starting historical fetch")

	summaries, err := s.source.HistoricalMatches(ctx, opts.LeagueIDs, opts.Weeks)
	if err != nil {
		m.RecordError(datasource.ErrorCode(err))
		return m, fmt.Errorf("failed to list historical matches: %w", err)
	}
	m.RecordListed(len(summaries))

	fresh := make([]models.MatchRecord, 0, len(summaries))
	for _, summary := range summaries {
		if err := ctx.Err(); err != nil {
			return m, err
		}

		rec, ok := s.buildRecord(ctx, summary, m)
		if !ok {
			continue
		}
		if empty := s.validator.EmptyFields(&rec); len(empty) > 0 {
			m.RecordIgnored()
			s.log.LogDataQuality(stageFetch, "empty essential fields", logrus.Fields{
				"match_id": rec.MatchID,
				"team1":    rec.Team1,
				"team2":    rec.Team2,
				"fields":   empty,
			})
			continue
		}
		fresh = append(fresh, rec)
		m.RecordSaved()
	}

	corpus := fresh
	if opts.Merge {
		existing, err := storage.LoadMatches(opts.CorpusPath)
		if err != nil && !errors.Is(err, storage.ErrNotExist) {
			return m, fmt.Errorf("failed to load existing corpus: %w", err)
		}
		corpus = mergeRecords(existing, fresh, m)
	}

	if err := storage.SaveMatches(opts.CorpusPath, corpus); err != nil {
		return m, fmt.Errorf("failed to write corpus: %w", err)
	}

	m.Finish()
	counters := m.Counters()
	counters["corpus"] = len(corpus)
	s.log.LogStageCounters(stageFetch, counters)
	return m, nil
}

func (s *IngestionService) buildRecord(ctx context.Context, summary datasource.MatchSummary, m *IngestionMetrics) (models.MatchRecord, bool) {
	details, err := s.source.MatchDetails(ctx, summary.MatchID)
	if err != nil {
		m.RecordError(datasource.ErrorCode(err))
		s.log.WithError(err).WithField("match_id", summary.MatchID).Warn("Failed to fetch match details")
		return models.MatchRecord{}, false
	}
	if !details.Finished() {
		m.RecordSkipped()
		return models.MatchRecord{}, false
	}

	leagueID := details.League.ID
	if leagueID == 0 {
		leagueID = summary.LeagueID
	}
	isCup := summary.IsCup
	if details.IsCup != nil {
		isCup = *details.IsCup
	}

	rec := models.MatchRecord{
		MatchID:    details.MatchID,
		Date:       firstNonEmpty(details.Date, summary.Date),
		Time:       firstNonEmpty(details.Time, summary.Time),
		League:     details.League.Name,
		LeagueID:   leagueID,
		Season:     summary.Season,
		IsCup:      isCup,
		Team1:      firstNonEmpty(details.Home.Name, summary.HomeName),
		Team2:      firstNonEmpty(details.Away.Name, summary.AwayName),
		Team1ID:    firstNonZero(details.Home.ID, summary.HomeID),
		Team2ID:    firstNonZero(details.Away.ID, summary.AwayID),
		Team1Goals: details.HomeGoals,
		Team2Goals: details.AwayGoals,
		Odds:       blankOdds(),
	}
	if details.Odds != nil {
		rec.Odds = *details.Odds
	}

	ranks := s.ranks(ctx, leagueID)
	rec.Team1Rank = rankOf(ranks, rec.Team1ID)
	rec.Team2Rank = rankOf(ranks, rec.Team2ID)
	rec.HeadToHead = s.headToHead(ctx, rec.Team1ID, rec.Team2ID)
	return rec, true
}

// ranks returns team positions of a league, or nil when standings fail
func (s *IngestionService) ranks(ctx context.Context, leagueID int64) map[int64]models.Number {
	if leagueID == 0 {
		return nil
	}
	rows, err := s.source.Standings(ctx, leagueID)
	if err != nil {
		s.log.WithError(err).WithField("league_id", leagueID).Warn("Failed to fetch standings")
		return nil
	}
	out := make(map[int64]models.Number, len(rows))
	for _, row := range rows {
		out[row.TeamID] = row.Position
	}
	return out
}

// headToHead returns the counters of two teams, or blank counters on failure
func (s *IngestionService) headToHead(ctx context.Context, team1ID, team2ID int64) models.HeadToHead {
	if team1ID == 0 || team2ID == 0 {
		return models.HeadToHead{}
	}
	h, err := s.source.HeadToHead(ctx, team1ID, team2ID)
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"team1_id": team1ID,
			"team2_id": team2ID,
		}).Warn("Failed to fetch head-to-head")
		return models.HeadToHead{}
	}
	return h
}

func mergeRecords(existing, fresh []models.MatchRecord, m *IngestionMetrics) []models.MatchRecord {
	out := make([]models.MatchRecord, 0, len(existing)+len(fresh))
	index := make(map[string]int, len(existing)+len(fresh))
	for _, rec := range existing {
		if i, ok := index[rec.Key()]; ok {
			out[i] = rec
			continue
		}
		index[rec.Key()] = len(out)
		out = append(out, rec)
	}
	for _, rec := range fresh {
		if i, ok := index[rec.Key()]; ok {
			m.RecordDuplicate()
			out[i] = rec
			continue
		}
		index[rec.Key()] = len(out)
		out = append(out, rec)
	}
	return out
}

func rankOf(ranks map[int64]models.Number, teamID int64) models.Number {
	if pos, ok := ranks[teamID]; ok && teamID != 0 {
		return pos
	}
	return models.Blank()
}

func blankOdds() models.Odds {
	return models.Odds{Home: models.Blank(), Draw: models.Blank(), Away: models.Blank()}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int64) int64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
