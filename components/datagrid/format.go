package datagrid

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// DefaultPlaceholder renders a missing value.
const DefaultPlaceholder = "N/A"

// Formatter renders row values for display and export.
type Formatter struct {
	Placeholder string
	// PercentFields are normalized with NormalizePercent before display.
	PercentFields map[string]bool
	// Ratios derive a percentage column from two other fields when the row
	// does not carry one.
	Ratios map[string]RatioField
}

// RatioField derives Key as Numerator/Denominator in percent.
type RatioField struct {
	Key         string `json:"key" yaml:"key"`
	Numerator   string `json:"numerator" yaml:"numerator"`
	Denominator string `json:"denominator" yaml:"denominator"`
}

// NewFormatter returns a formatter with the default placeholder.
func NewFormatter(percentFields ...string) Formatter {
	f := Formatter{Placeholder: DefaultPlaceholder, PercentFields: map[string]bool{}}
	for _, key := range percentFields {
		f.PercentFields[key] = true
	}
	return f
}

// WithRatios returns a copy of f that derives the given ratio columns.
func (f Formatter) WithRatios(ratios ...RatioField) Formatter {
	merged := make(map[string]RatioField, len(f.Ratios)+len(ratios))
	for k, v := range f.Ratios {
		merged[k] = v
	}
	for _, r := range ratios {
		if r.Key != "" {
			merged[r.Key] = r
		}
	}
	f.Ratios = merged
	return f
}

// Display renders value, substituting the placeholder for nil or blank values.
func (f Formatter) Display(value any) string {
	placeholder := f.Placeholder
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if value == nil {
		return placeholder
	}
	s, err := cast.ToStringE(value)
	if err != nil {
		return placeholder
	}
	if strings.TrimSpace(s) == "" || strings.EqualFold(s, "null") {
		return placeholder
	}
	return s
}

// Field renders row[key], normalizing percentage columns. A blank ratio column
// is derived from its numerator and denominator.
func (f Formatter) Field(row Row, key string) string {
	value := row[key]
	if ratio, ok := f.Ratios[key]; ok && isBlank(value) {
		return cast.ToString(RatioPercent(row[ratio.Numerator], row[ratio.Denominator]))
	}
	if f.PercentFields[key] {
		if pct, ok := NormalizePercent(value); ok {
			return cast.ToString(pct)
		}
	}
	return f.Display(value)
}

// NormalizePercent accepts a 0–1 fraction or a 0–100 value and returns the rounded
// percentage clamped to [0,100].
func NormalizePercent(raw any) (int, bool) {
	if raw == nil {
		return 0, false
	}
	if s, ok := raw.(string); ok {
		raw = strings.TrimSuffix(strings.TrimSpace(s), "%")
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if v <= 1 {
		v *= 100
	}
	v = math.Max(0, math.Min(100, v))
	return int(math.Round(v)), true
}

// RatioPercent returns numerator/denominator as a percentage. A zero, missing or
// unparseable denominator yields 0.
func RatioPercent(numerator, denominator any) int {
	den, err := cast.ToFloat64E(denominator)
	if err != nil || denominator == nil || den == 0 || math.IsNaN(den) {
		return 0
	}
	num, err := cast.ToFloat64E(numerator)
	if err != nil || math.IsNaN(num) {
		return 0
	}
	ratio := num / den * 100
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	ratio = math.Max(0, math.Min(100, ratio))
	return int(math.Round(ratio))
}
