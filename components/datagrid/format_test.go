package datagrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePercent(t *testing.T) {
	cases := map[string]struct {
		in   any
		want int
		ok   bool
	}{
		"fraction":      {in: 0.5, want: 50, ok: true},
		"whole":         {in: 50, want: 50, ok: true},
		"string suffix": {in: "72.4%", want: 72, ok: true},
		"one":           {in: 1, want: 100, ok: true},
		"clamped high":  {in: 130, want: 100, ok: true},
		"clamped low":   {in: -0.2, want: 0, ok: true},
		"nil":           {in: nil, ok: false},
		"garbage":       {in: "abc", ok: false},
	}
	for name, tc := range cases {
		got, ok := NormalizePercent(tc.in)
		assert.Equal(t, tc.ok, ok, name)
		if tc.ok {
			assert.Equal(t, tc.want, got, name)
		}
	}
}

func TestRatioPercent(t *testing.T) {
	assert.Equal(t, 50, RatioPercent(5, 10))
	assert.Equal(t, 0, RatioPercent(5, 0))
	assert.Equal(t, 0, RatioPercent(5, nil))
	assert.Equal(t, 0, RatioPercent(5, "n/a"))
	assert.Equal(t, 100, RatioPercent(30, 10))
	assert.Equal(t, 33, RatioPercent("1", "3"))
}

func TestFormatterPlaceholder(t *testing.T) {
	f := NewFormatter("ctr")
	assert.Equal(t, DefaultPlaceholder, f.Display(nil))
	assert.Equal(t, DefaultPlaceholder, f.Display("  "))
	assert.Equal(t, DefaultPlaceholder, f.Display("null"))
	assert.Equal(t, "0", f.Display(0))
	assert.Equal(t, "Acme", f.Display("Acme"))

	row := Row{"ctr": 0.125, "name": nil}
	assert.Equal(t, "13", f.Field(row, "ctr"))
	assert.Equal(t, DefaultPlaceholder, f.Field(row, "name"))
	assert.Equal(t, DefaultPlaceholder, f.Field(row, "missing"))

	custom := Formatter{Placeholder: "-"}
	assert.Equal(t, "-", custom.Display(nil))
}

func TestFormatterDerivesBlankRatioColumns(t *testing.T) {
	f := NewFormatter("achievement_pct").WithRatios(RatioField{Key: "achievement_pct", Numerator: "achieved", Denominator: "target"})

	assert.Equal(t, "40", f.Field(Row{"achieved": 20, "target": 50}, "achievement_pct"))
	assert.Equal(t, "0", f.Field(Row{"achieved": 20, "target": 0}, "achievement_pct"))
	assert.Equal(t, "0", f.Field(Row{"achieved": 20}, "achievement_pct"))
	assert.Equal(t, "40", f.Field(Row{"achieved": 20, "target": 50, "achievement_pct": " "}, "achievement_pct"))
	assert.Equal(t, "75", f.Field(Row{"achieved": 20, "target": 0, "achievement_pct": 0.75}, "achievement_pct"), "server value wins")
}

func TestKPIGoalsPresetDerivesAchievement(t *testing.T) {
	entity, ok := NewRegistry().Entity("kpi_goals")
	require.True(t, ok)
	ctrl, err := NewController(Options{Entity: entity, Client: &fakeClient{}})
	require.NoError(t, err)
	assert.Equal(t, "0", ctrl.Formatter().Field(Row{"achieved": 3, "target": 0}, "achievement_pct"))
	assert.Equal(t, "30", ctrl.Formatter().Field(Row{"achieved": 3, "target": 10}, "achievement_pct"))
}
