package datagrid

import (
	"context"
	"net/url"
	"time"

	"github.com/spf13/cast"
)

// ActionColumn is the column key reserved for row actions. It can never be hidden.
const ActionColumn = "action"

// AllowedPerPage lists the page sizes a grid accepts.
var AllowedPerPage = []int{25, 50, 100}

// Client is the REST surface a grid depends on. Implementations return *RemoteError
// for non-2xx responses so the controller can surface the server message verbatim.
type Client interface {
	List(ctx context.Context, req ListRequest) ([]byte, error)
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, payload map[string]any) error
	Put(ctx context.Context, path string, payload map[string]any) error
	Delete(ctx context.Context, path string) error
	Export(ctx context.Context, req ListRequest) (ExportFile, error)
}

// SessionContext exposes the persisted client session. Both values are optional.
type SessionContext interface {
	Token() (string, bool)
	Role() (int, bool)
}

// StateHook is notified after every grid state transition.
type StateHook interface {
	GridUpdated(ctx context.Context, event GridEvent) error
}

// ListRequest describes a list or export call against a collection.
type ListRequest struct {
	Collection string
	Method     string
	Params     url.Values
}

// Row is an opaque record. Only the id key is meaningful to the controller.
type Row map[string]any

// ID returns the row id rendered as a string, or "" when the row has none.
func (r Row) ID() string {
	if r == nil {
		return ""
	}
	v, ok := r["id"]
	if !ok || v == nil {
		return ""
	}
	return cast.ToString(v)
}

func (r Row) clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filters maps filter keys to one or more values.
type Filters map[string][]string

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Get returns the first value for key.
func (f Filters) Get(key string) string {
	if vals := f[key]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// ListQuery is the committed query used for the next fetch.
type ListQuery struct {
	Page              int     `json:"page"`
	PerPage           int     `json:"per_page"`
	AppliedFilters    Filters `json:"applied_filters"`
	AppliedSearchText string  `json:"applied_search_text"`
}

// ListResult is the normalized last fetched page.
type ListResult struct {
	Rows        []Row `json:"rows"`
	Total       int   `json:"total"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
}

// EmptyResult is the zero-row result a grid falls back to.
func EmptyResult() ListResult {
	return ListResult{Rows: []Row{}, Total: 0, CurrentPage: 1, LastPage: 1}
}

func (r ListResult) clone() ListResult {
	rows := make([]Row, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = row.clone()
	}
	r.Rows = rows
	return r
}

// Column describes a displayable column.
type Column struct {
	Key    string `json:"key" yaml:"key"`
	Label  string `json:"label" yaml:"label"`
	Hidden bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// ColumnState is a column with its current visibility.
type ColumnState struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Visible bool   `json:"visible"`
}

// ExportFile is a downloadable export artifact.
type ExportFile struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
	Source      string `json:"source"`
	Rows        int    `json:"rows,omitempty"`
}

const (
	ExportSourceServer = "server"
	ExportSourceClient = "client"
)

// ModalMode enumerates the CRUD modal states.
type ModalMode string

const (
	ModalClosed ModalMode = "closed"
	ModalCreate ModalMode = "create"
	ModalEdit   ModalMode = "edit"
	ModalView   ModalMode = "view"
)

// ModalState captures the open create/edit/view dialog.
type ModalState struct {
	Mode        ModalMode         `json:"mode"`
	TargetID    string            `json:"target_id,omitempty"`
	Row         Row               `json:"row,omitempty"`
	Error       string            `json:"error,omitempty"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

// GridEvent describes a state transition consumers might care about.
type GridEvent struct {
	Grid       string    `json:"grid"`
	Reason     string    `json:"reason"`
	Generation uint64    `json:"generation,omitempty"`
	TargetID   string    `json:"target_id,omitempty"`
	At         time.Time `json:"at"`
}

// GridState is a point-in-time snapshot handed to the presentation layer.
type GridState struct {
	Grid         string                   `json:"grid"`
	Query        ListQuery                `json:"query"`
	Result       ListResult               `json:"result"`
	Selection    FilterState              `json:"selection"`
	Columns      []ColumnState            `json:"columns"`
	PageStrip    []PageItem               `json:"page_strip"`
	Loading      bool                     `json:"loading"`
	Banner       string                   `json:"banner,omitempty"`
	Modal        ModalState               `json:"modal"`
	Pending      map[string]PendingAction `json:"pending,omitempty"`
	Notification *Notification            `json:"notification,omitempty"`
	CanMutate    bool                     `json:"can_mutate"`
}
