package datagrid

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChartCacheStoresEntry(t *testing.T) {
	cache := NewChartCache(time.Minute, clockwork.NewFakeClock())
	calls := 0
	render := func() (string, error) {
		calls++
		return "html", nil
	}

	val1, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	val2, err := cache.GetOrRender("key", render)
	require.NoError(t, err)

	assert.Equal(t, "html", val1)
	assert.Equal(t, val1, val2)
	assert.Equal(t, 1, calls)
}

func TestChartCacheExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	cache := NewChartCache(time.Minute, clock)
	calls := 0
	render := func() (string, error) {
		calls++
		return "fresh", nil
	}

	_, err := cache.GetOrRender("key", render)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = cache.GetOrRender("key", render)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestRenderPercentBar(t *testing.T) {
	renderer := NewChartRenderer(clockwork.NewFakeClock())
	result := ListResult{Rows: []Row{
		{"kpi_name": "Signups", "achievement_pct": 0.42},
		{"kpi_name": "Churn", "achievement_pct": "88%"},
	}}

	html, err := renderer.RenderPercentBar("Achievement", result, "kpi_name", "achievement_pct")
	require.NoError(t, err)
	assert.Contains(t, html, "Signups")
	assert.Contains(t, html, "echarts")

	again, err := renderer.RenderPercentBar("Achievement", result, "kpi_name", "achievement_pct")
	require.NoError(t, err)
	assert.Equal(t, html, again)

	_, err = renderer.RenderPercentBar("Empty", ListResult{}, "kpi_name", "achievement_pct")
	assert.Error(t, err)
}
