package datagrid

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/jonboulle/clockwork"
)

// EntityConfig parameterizes a grid for one REST collection.
type EntityConfig struct {
	Code            string         `json:"code" yaml:"code"`
	Name            string         `json:"name" yaml:"name"`
	Collection      string         `json:"collection" yaml:"collection"`
	ListMethod      string         `json:"list_method,omitempty" yaml:"list_method,omitempty"`
	SearchParam     string         `json:"search_param,omitempty" yaml:"search_param,omitempty"`
	PerPage         int            `json:"per_page,omitempty" yaml:"per_page,omitempty"`
	Columns         []Column       `json:"columns" yaml:"columns"`
	FallbackColumns []Column       `json:"fallback_columns,omitempty" yaml:"fallback_columns,omitempty"`
	RequiredFields  []string       `json:"required_fields,omitempty" yaml:"required_fields,omitempty"`
	AllowedFields   []string       `json:"allowed_fields,omitempty" yaml:"allowed_fields,omitempty"`
	PercentFields   []string       `json:"percent_fields,omitempty" yaml:"percent_fields,omitempty"`
	RatioFields     []RatioField   `json:"ratio_fields,omitempty" yaml:"ratio_fields,omitempty"`
	Schema          map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	DefaultFilters  Filters        `json:"default_filters,omitempty" yaml:"default_filters,omitempty"`
	// DefaultPeriod adds time-scoped defaults; "quarter" selects the current calendar
	// quarter and financial year.
	DefaultPeriod string `json:"default_period,omitempty" yaml:"default_period,omitempty"`
	WriteRoles    []int  `json:"write_roles,omitempty" yaml:"write_roles,omitempty"`
	Placeholder   string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	// Defaults overrides the computed default filter state.
	Defaults DefaultsFunc `json:"-" yaml:"-"`
}

func (e EntityConfig) normalized() EntityConfig {
	e.ListMethod = strings.ToUpper(strings.TrimSpace(e.ListMethod))
	if e.ListMethod != http.MethodPost {
		e.ListMethod = http.MethodGet
	}
	if e.SearchParam == "" {
		e.SearchParam = "search"
	}
	if !validPerPage(e.PerPage) {
		e.PerPage = AllowedPerPage[0]
	}
	if e.Name == "" {
		e.Name = e.Code
	}
	if e.Placeholder == "" {
		e.Placeholder = DefaultPlaceholder
	}
	e.Collection = "/" + strings.Trim(e.Collection, "/")
	return e
}

func (e EntityConfig) defaultsFunc(clock clockwork.Clock) DefaultsFunc {
	if e.Defaults != nil {
		return e.Defaults
	}
	static := e.DefaultFilters.Clone()
	period := e.DefaultPeriod
	return func() FilterState {
		filters := static.Clone()
		if period == PeriodQuarter {
			for k, v := range PeriodFilters(clock.Now()) {
				filters[k] = v
			}
		}
		return FilterState{Filters: filters}
	}
}

// memberPath returns <collection>/<id> with the id path-escaped.
func (e EntityConfig) memberPath(id string) string {
	return strings.TrimRight(e.Collection, "/") + "/" + url.PathEscape(id)
}

// payloadFor strips fields the server does not accept and any id key.
func (e EntityConfig) payloadFor(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	if len(e.AllowedFields) == 0 {
		for k, v := range payload {
			if k == "id" {
				continue
			}
			out[k] = v
		}
		return out
	}
	for _, key := range e.AllowedFields {
		if key == "id" {
			continue
		}
		if v, ok := payload[key]; ok {
			out[key] = v
		}
	}
	return out
}

func (e EntityConfig) canWrite(session SessionContext) bool {
	if len(e.WriteRoles) == 0 {
		return true
	}
	if session == nil {
		return false
	}
	role, ok := session.Role()
	if !ok {
		return false
	}
	for _, allowed := range e.WriteRoles {
		if role == allowed {
			return true
		}
	}
	return false
}

func (e EntityConfig) fallbackColumns(visible []Column) []Column {
	if len(e.FallbackColumns) > 0 {
		return e.FallbackColumns
	}
	return visible
}
