package features

import (
	"encoding/json"
	"fmt"
	"sort"
)

// LabelEncoder maps string categories to integer codes in sorted order.
type LabelEncoder struct {
	classes []string
	index   map[string]int
}

// FitLabelEncoder fits an encoder on the distinct values.
func FitLabelEncoder(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	classes := make([]string, 0)
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return newLabelEncoder(classes)
}

func newLabelEncoder(classes []string) *LabelEncoder {
	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &LabelEncoder{classes: classes, index: index}
}

// Classes returns the fitted classes.
func (e *LabelEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Len returns the number of classes.
func (e *LabelEncoder) Len() int {
	return len(e.classes)
}

// Transform returns the code for v.
func (e *LabelEncoder) Transform(v string) (int, error) {
	code, ok := e.index[v]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnseenLabel, v)
	}
	return code, nil
}

// TransformOrFallback returns the code for v, or the code of the first known
// class when v was not seen. The boolean reports whether the fallback was used.
func (e *LabelEncoder) TransformOrFallback(v string) (int, bool) {
	if code, ok := e.index[v]; ok {
		return code, false
	}
	return 0, true
}

// Inverse returns the class for code.
func (e *LabelEncoder) Inverse(code int) (string, error) {
	if len(e.classes) == 0 {
		return "", ErrEmptyEncoder
	}
	if code < 0 || code >= len(e.classes) {
		return "", fmt.Errorf("label code %d out of range [0,%d)", code, len(e.classes))
	}
	return e.classes[code], nil
}

// MarshalJSON implements json.Marshaler.
func (e *LabelEncoder) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Classes []string `json:"classes"`
	}{e.classes})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *LabelEncoder) UnmarshalJSON(data []byte) error {
	var raw struct {
		Classes []string `json:"classes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !sort.StringsAreSorted(raw.Classes) {
		return fmt.Errorf("label encoder classes are not sorted")
	}
	*e = *newLabelEncoder(raw.Classes)
	return nil
}
