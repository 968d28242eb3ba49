package datagrid

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/jonboulle/clockwork"
)

const defaultChartHeight = "320px"

// ChartCache is an in-memory TTL cache for rendered chart HTML.
type ChartCache struct {
	ttl     time.Duration
	clock   clockwork.Clock
	mu      sync.RWMutex
	entries map[string]cachedChart
}

type cachedChart struct {
	html    string
	expires time.Time
}

// NewChartCache builds a cache with the provided TTL. A nil clock uses wall time.
func NewChartCache(ttl time.Duration, clock clockwork.Clock) *ChartCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ChartCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]cachedChart),
	}
}

// GetOrRender returns a cached entry or renders/stores a new one.
func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if html, ok := c.get(key); ok {
		return html, nil
	}
	html, err := render()
	if err != nil {
		return "", err
	}
	c.set(key, html)
	return html, nil
}

func (c *ChartCache) get(key string) (string, bool) {
	if c == nil || c.ttl <= 0 {
		return "", false
	}
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}
	if c.clock.Now().After(entry.expires) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return "", false
	}
	return entry.html, true
}

func (c *ChartCache) set(key, html string) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[key] = cachedChart{html: html, expires: c.clock.Now().Add(c.ttl)}
	c.mu.Unlock()
}

// ChartRenderer draws summary charts of a loaded page.
type ChartRenderer struct {
	Cache *ChartCache
	Theme string
}

// NewChartRenderer returns a renderer with a five minute cache.
func NewChartRenderer(clock clockwork.Clock) *ChartRenderer {
	return &ChartRenderer{
		Cache: NewChartCache(5*time.Minute, clock),
		Theme: types.ThemeWesteros,
	}
}

// RenderPercentBar renders one bar per row of valueKey normalized to a percentage,
// labelled by labelKey. Rows whose value is not numeric plot as zero.
func (r *ChartRenderer) RenderPercentBar(title string, result ListResult, labelKey, valueKey string) (string, error) {
	if len(result.Rows) == 0 {
		return "", fmt.Errorf("datagrid: no rows to chart")
	}
	formatter := NewFormatter()
	labels := make([]string, len(result.Rows))
	values := make([]opts.BarData, len(result.Rows))
	for i, row := range result.Rows {
		labels[i] = formatter.Display(row[labelKey])
		pct, _ := NormalizePercent(row[valueKey])
		values[i] = opts.BarData{Value: pct}
	}

	render := func() (string, error) {
		bar := charts.NewBar()
		bar.SetGlobalOptions(
			charts.WithTitleOpts(opts.Title{Title: title}),
			charts.WithInitializationOpts(opts.Initialization{Theme: r.Theme, Width: "100%", Height: defaultChartHeight}),
			charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
			charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 100}),
		)
		bar.SetXAxis(labels)
		bar.AddSeries(valueKey, values)
		var buf bytes.Buffer
		if err := bar.Render(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	if r.Cache == nil {
		return render()
	}
	return r.Cache.GetOrRender(chartKey(title, labelKey, valueKey, labels, values), render)
}

func chartKey(title, labelKey, valueKey string, labels []string, values []opts.BarData) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%s", title, labelKey, valueKey)
	for i := range labels {
		fmt.Fprintf(h, "|%s=%v", labels[i], values[i].Value)
	}
	return hex.EncodeToString(h.Sum(nil))
}
