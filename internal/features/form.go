package features

import (
	"sort"
	"time"

	"github.com/yourusername/match-predictor/internal/models"
)

// DefaultFormWindow is the number of prior matches averaged for recent form.
const DefaultFormWindow = 5

// FormStats is a team's average points and goals over its recent matches.
type FormStats struct {
	Points float64
	Goals  float64
}

type formKey struct {
	group string
	team  string
}

type formEntry struct {
	day    time.Time
	points float64
	goals  float64
}

// FormIndex answers recent-form queries against a historical corpus. Each
// team's matches are kept per group (league, and season when the corpus
// carries one) sorted by date.
type FormIndex struct {
	window    int
	histories map[formKey][]formEntry
	seasoned  map[string]bool
}

// NewFormIndex indexes every record that has a parseable date and a numeric
// score. A window below one falls back to DefaultFormWindow.
func NewFormIndex(records []models.MatchRecord, window int) *FormIndex {
	if window < 1 {
		window = DefaultFormWindow
	}
	idx := &FormIndex{
		window:    window,
		histories: make(map[formKey][]formEntry),
		seasoned:  make(map[string]bool),
	}

	for _, rec := range records {
		if !rec.HasOutcome() {
			continue
		}
		day, err := rec.Day()
		if err != nil {
			continue
		}
		if rec.Season != "" {
			idx.seasoned[rec.League] = true
		}
		group := groupKey(rec.League, rec.Season)
		g1, g2 := rec.Team1Goals.Value, rec.Team2Goals.Value
		idx.add(formKey{group, rec.Team1}, formEntry{day, points(g1, g2), g1})
		idx.add(formKey{group, rec.Team2}, formEntry{day, points(g2, g1), g2})
	}

	for key, entries := range idx.histories {
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].day.Before(entries[j].day) })
		idx.histories[key] = entries
	}
	return idx
}

func (f *FormIndex) add(key formKey, e formEntry) {
	f.histories[key] = append(f.histories[key], e)
}

// Window returns the configured window size.
func (f *FormIndex) Window() int {
	return f.window
}

// Form returns the averages over at most the last window matches of team in
// the group strictly before day. With no prior matches it returns (0, 0).
func (f *FormIndex) Form(league, season, team string, day time.Time) FormStats {
	if !f.seasoned[league] {
		season = ""
	}
	entries := f.histories[formKey{groupKey(league, season), team}]

	end := sort.Search(len(entries), func(i int) bool { return !entries[i].day.Before(day) })
	start := end - f.window
	if start < 0 {
		start = 0
	}
	n := end - start
	if n == 0 {
		return FormStats{}
	}

	var stats FormStats
	for _, e := range entries[start:end] {
		stats.Points += e.points
		stats.Goals += e.goals
	}
	stats.Points /= float64(n)
	stats.Goals /= float64(n)
	return stats
}

func groupKey(league, season string) string {
	if season == "" {
		return league
	}
	return league + "\x00" + season
}

func points(scored, conceded float64) float64 {
	switch {
	case scored > conceded:
		return 3
	case scored == conceded:
		return 1
	}
	return 0
}
