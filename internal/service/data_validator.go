package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/match-predictor/internal/models"
	"github.com/yourusername/match-predictor/internal/storage"
)

// EssentialFields are the corpus keys every match must carry.
var EssentialFields = []string{
	"date", "time", "league", "is_cup", "team1", "team2", "team1_goals", "team2_goals",
	"h2h_games_played", "h2h_team1_wins", "h2h_team2_wins", "h2h_draws",
	"h2h_team1_scored", "h2h_team2_scored",
	"h2h_team1_home_wins", "h2h_team1_home_draws", "h2h_team1_home_losses",
	"h2h_team1_home_scored", "h2h_team1_home_conceded",
	"h2h_team2_home_wins", "h2h_team2_home_draws", "h2h_team2_home_losses",
	"h2h_team2_home_scored", "h2h_team2_home_conceded",
}

// Issue is one finding of a corpus validation run. Match is 1-based.
type Issue struct {
	Match   int    `json:"match"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Field == "" {
		return fmt.Sprintf("%s in match %d", i.Message, i.Match)
	}
	return fmt.Sprintf("%s: %s in match %d", i.Message, i.Field, i.Match)
}

// ValidationReport collects errors and warnings for a corpus.
type ValidationReport struct {
	Records  int     `json:"records"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Valid reports whether the corpus has no errors. Warnings are allowed.
func (r *ValidationReport) Valid() bool {
	return len(r.Errors) == 0
}

// DataValidator checks match records for missing and empty fields
type DataValidator struct {
	validate *validator.Validate
	logger   *logrus.Entry
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if n, ok := field.Interface().(models.Number); ok {
			return n.String()
		}
		return nil
	}, models.Number{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if logger == nil {
		logger = logrus.New()
		logger.SetLevel(logrus.PanicLevel)
	}
	return &DataValidator{
		validate: v,
		logger:   logger.WithField("component", "data_validator"),
	}
}

// EmptyFields returns the essential fields of rec that are empty or did not
// coerce to a number. Ranks are exempt for cup matches.
func (v *DataValidator) EmptyFields(rec *models.MatchRecord) []string {
	err := v.validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	sort.Strings(fields)
	return fields
}

// ValidateCorpus checks the corpus file. A missing essential key or a
// duplicate (date, team1, team2) fixture is an error; an empty value is a
// warning.
func (v *DataValidator) ValidateCorpus(path string) (*ValidationReport, error) {
	var raw []map[string]json.RawMessage
	if err := storage.ReadJSON(path, &raw); err != nil {
		return nil, err
	}
	var records []models.MatchRecord
	if err := storage.ReadJSON(path, &records); err != nil {
		return nil, err
	}

	report := &ValidationReport{Records: len(raw), Errors: []Issue{}, Warnings: []Issue{}}
	seen := make(map[string]int, len(records))

	for i, fields := range raw {
		n := i + 1
		for _, key := range EssentialFields {
			value, ok := fields[key]
			if !ok {
				report.Errors = append(report.Errors, Issue{Match: n, Field: key, Message: "missing field"})
				continue
			}
			if isEmptyJSON(value) {
				report.Warnings = append(report.Warnings, Issue{Match: n, Field: key, Message: "empty field"})
			}
		}

		rec := records[i]
		for _, field := range v.EmptyFields(&rec) {
			if _, ok := fields[field]; !ok || isEmptyJSON(fields[field]) {
				continue
			}
			report.Warnings = append(report.Warnings, Issue{Match: n, Field: field, Message: "non-numeric field"})
		}

		key := rec.Key()
		if first, dup := seen[key]; dup {
			report.Errors = append(report.Errors, Issue{
				Match:   n,
				Message: fmt.Sprintf("duplicate of match %d (%s vs %s on %s)", first, rec.Team1, rec.Team2, rec.Date),
			})
			continue
		}
		seen[key] = n
	}

	for _, issue := range report.Warnings {
		v.logger.WithField("match", issue.Match).Warn(issue.String())
	}
	for _, issue := range report.Errors {
		v.logger.WithField("match", issue.Match).Error(issue.String())
	}
	return report, nil
}

func isEmptyJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return true
	}
	var s string
	if raw[0] == '"' && json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s) == ""
	}
	return false
}
