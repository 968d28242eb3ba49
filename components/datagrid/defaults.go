package datagrid

import (
	"fmt"
	"time"
)

// PeriodQuarter marks entities whose default filters are the current quarter and
// financial year.
const PeriodQuarter = "quarter"

// FinancialYearStart is the first month of the financial year used by period defaults.
const FinancialYearStart = time.April

// CalendarQuarter returns 1..4 for t.
func CalendarQuarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// FinancialYear labels the financial year containing t, e.g. "2026-2027".
func FinancialYear(t time.Time, start time.Month) string {
	year := t.Year()
	if t.Month() < start {
		year--
	}
	return fmt.Sprintf("%d-%d", year, year+1)
}

// PeriodFilters returns the quarter + financial_year filters for t.
func PeriodFilters(t time.Time) Filters {
	return Filters{
		"quarter":        {fmt.Sprintf("Q%d", CalendarQuarter(t))},
		"financial_year": {FinancialYear(t, FinancialYearStart)},
	}
}

// DefaultEntities returns the built-in admin grids.
func DefaultEntities() []EntityConfig {
	return []EntityConfig{
		{
			Code:       "leads",
			Name:       "Leads",
			Collection: "/leads",
			Columns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "name", Label: "Name"},
				{Key: "email", Label: "Email"},
				{Key: "phone", Label: "Phone"},
				{Key: "source", Label: "Source"},
				{Key: "status", Label: "Status"},
				{Key: "created_at", Label: "Created", Hidden: true},
				{Key: ActionColumn, Label: "Actions"},
			},
			FallbackColumns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "name", Label: "Name"},
				{Key: "email", Label: "Email"},
				{Key: "status", Label: "Status"},
			},
			RequiredFields: []string{"name", "email"},
			AllowedFields:  []string{"name", "email", "phone", "source", "status", "notes"},
		},
		{
			Code:       "kpi_goals",
			Name:       "KPI Goals",
			Collection: "/kpi-goals",
			Columns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "kpi_name", Label: "KPI"},
				{Key: "owner", Label: "Owner"},
				{Key: "target", Label: "Target"},
				{Key: "achieved", Label: "Achieved"},
				{Key: "achievement_pct", Label: "Achievement %"},
				{Key: "quarter", Label: "Quarter"},
				{Key: "financial_year", Label: "FY", Hidden: true},
				{Key: ActionColumn, Label: "Actions"},
			},
			FallbackColumns: []Column{
				{Key: "kpi_name", Label: "KPI"},
				{Key: "target", Label: "Target"},
				{Key: "achieved", Label: "Achieved"},
				{Key: "achievement_pct", Label: "Achievement %"},
			},
			RequiredFields: []string{"kpi_name", "target", "quarter", "financial_year"},
			AllowedFields:  []string{"kpi_name", "owner", "target", "achieved", "quarter", "financial_year"},
			PercentFields:  []string{"achievement_pct"},
			RatioFields:    []RatioField{{Key: "achievement_pct", Numerator: "achieved", Denominator: "target"}},
			DefaultPeriod:  PeriodQuarter,
			Schema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"target":   map[string]any{"type": []string{"number", "string"}},
					"achieved": map[string]any{"type": []string{"number", "string", "null"}},
				},
			},
		},
		{
			Code:       "service_contacts",
			Name:       "Service Contacts",
			Collection: "/service-contacts",
			Columns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "name", Label: "Name"},
				{Key: "service", Label: "Service"},
				{Key: "email", Label: "Email"},
				{Key: "phone", Label: "Phone"},
				{Key: ActionColumn, Label: "Actions"},
			},
			FallbackColumns: []Column{
				{Key: "name", Label: "Name"},
				{Key: "service", Label: "Service"},
				{Key: "email", Label: "Email"},
			},
			RequiredFields: []string{"name", "service"},
			AllowedFields:  []string{"name", "service", "email", "phone"},
		},
		{
			Code:        "seo_insights",
			Name:        "SEO Insights",
			Collection:  "/seo-insights",
			SearchParam: "q",
			Columns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "url", Label: "URL"},
				{Key: "keyword", Label: "Keyword"},
				{Key: "position", Label: "Position"},
				{Key: "ctr", Label: "CTR"},
				{Key: "impressions", Label: "Impressions"},
				{Key: ActionColumn, Label: "Actions"},
			},
			FallbackColumns: []Column{
				{Key: "url", Label: "URL"},
				{Key: "keyword", Label: "Keyword"},
				{Key: "position", Label: "Position"},
			},
			RequiredFields: []string{"url", "keyword"},
			PercentFields:  []string{"ctr"},
		},
		{
			Code:       "jobs",
			Name:       "Jobs",
			Collection: "/jobs",
			Columns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "queue", Label: "Queue"},
				{Key: "status", Label: "Status"},
				{Key: "attempts", Label: "Attempts"},
				{Key: "progress", Label: "Progress"},
				{Key: "failed_at", Label: "Failed At"},
				{Key: "exception", Label: "Exception", Hidden: true},
				{Key: ActionColumn, Label: "Actions"},
			},
			FallbackColumns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "queue", Label: "Queue"},
				{Key: "status", Label: "Status"},
			},
			PercentFields: []string{"progress"},
			WriteRoles:    []int{1},
		},
		{
			Code:       "chats",
			Name:       "Chat Transcripts",
			Collection: "/chats",
			ListMethod: "POST",
			Columns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "visitor", Label: "Visitor"},
				{Key: "agent", Label: "Agent"},
				{Key: "channel", Label: "Channel"},
				{Key: "started_at", Label: "Started"},
				{Key: "duration", Label: "Duration"},
				{Key: ActionColumn, Label: "Actions"},
			},
			FallbackColumns: []Column{
				{Key: "visitor", Label: "Visitor"},
				{Key: "agent", Label: "Agent"},
				{Key: "started_at", Label: "Started"},
			},
			WriteRoles: []int{1},
		},
		{
			Code:       "content_calendar",
			Name:       "Content Calendar",
			Collection: "/content-pipeline",
			Columns: []Column{
				{Key: "id", Label: "ID"},
				{Key: "title", Label: "Title"},
				{Key: "stage", Label: "Stage"},
				{Key: "owner", Label: "Owner"},
				{Key: "publish_date", Label: "Publish Date"},
				{Key: ActionColumn, Label: "Actions"},
			},
			FallbackColumns: []Column{
				{Key: "title", Label: "Title"},
				{Key: "stage", Label: "Stage"},
				{Key: "publish_date", Label: "Publish Date"},
			},
			RequiredFields: []string{"title", "stage"},
			AllowedFields:  []string{"title", "stage", "owner", "publish_date", "brief"},
		},
	}
}
