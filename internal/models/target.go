package models

import (
	"fmt"
	"strings"
)

// PredictionTarget is one independent classification problem.
type PredictionTarget string

// Prediction targets
const (
	TargetWinner       PredictionTarget = "Winner"
	TargetBTTS         PredictionTarget = "BTTS"
	TargetOver15       PredictionTarget = "Over_1_5"
	TargetOver25       PredictionTarget = "Over_2_5"
	TargetDoubleChance PredictionTarget = "Double_Chance"
)

// AllTargets lists every target in training order.
var AllTargets = []PredictionTarget{
	TargetWinner,
	TargetBTTS,
	TargetOver15,
	TargetOver25,
	TargetDoubleChance,
}

// Categorical reports whether the target's labels are text classes that need
// a label encoder.
func (t PredictionTarget) Categorical() bool {
	return t == TargetWinner || t == TargetDoubleChance
}

// SnapshotKey is the lower-case key used in prediction files.
func (t PredictionTarget) SnapshotKey() string {
	return strings.ToLower(string(t))
}

// Valid reports whether t is a known target.
func (t PredictionTarget) Valid() bool {
	for _, known := range AllTargets {
		if t == known {
			return true
		}
	}
	return false
}

// ParseTarget accepts either the target name or its snapshot key.
func ParseTarget(s string) (PredictionTarget, error) {
	for _, t := range AllTargets {
		if strings.EqualFold(s, string(t)) || s == t.SnapshotKey() {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownTarget, s)
}

// ParseTargets parses a list of target names.
func ParseTargets(names []string) ([]PredictionTarget, error) {
	targets := make([]PredictionTarget, 0, len(names))
	for _, name := range names {
		t, err := ParseTarget(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}
