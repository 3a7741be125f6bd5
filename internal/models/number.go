package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric field from the upstream provider. Values arrive as JSON
// numbers, numeric strings, empty strings or null; Number keeps track of
// whether the key was present at all and whether it coerced to a number.
type Number struct {
	Value   float64
	Valid   bool
	Present bool
}

// NewNumber returns a valid Number holding v.
func NewNumber(v float64) Number {
	return Number{Value: v, Valid: true, Present: true}
}

// Blank returns a Number that was present but empty.
func Blank() Number {
	return Number{Present: true}
}

// Float returns the value, or NaN when the field did not coerce.
func (n Number) Float() float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Value
}

// IsBlank reports whether the field is missing or did not coerce.
func (n Number) IsBlank() bool {
	return !n.Valid
}

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{Present: true}
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil
		}
		n.parse(s)
		return nil
	}
	if raw[0] == 't' || raw[0] == 'f' {
		return nil
	}
	n.parse(string(raw))
	return nil
}

func (n *Number) parse(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	n.Value = v
	n.Valid = true
}

// MarshalJSON writes valid numbers as JSON numbers and everything else as "".
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte(`""`), nil
	}
	return []byte(strconv.FormatFloat(n.Value, 'f', -1, 64)), nil
}

// String returns the textual form used in validation messages.
func (n Number) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}
