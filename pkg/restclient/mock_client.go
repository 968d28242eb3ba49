package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cast"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// MockClient is an in-memory datagrid.Client serving nested envelopes. It is meant
// for demos and tests.
type MockClient struct {
	mu          sync.Mutex
	collections map[string][]datagrid.Row
	columns     map[string][]datagrid.Column
	nextID      int

	// LegacyDelete answers DELETE with 405 so callers exercise the method override.
	LegacyDelete bool
	// ServerExport enables the export endpoint; otherwise it answers 404.
	ServerExport bool
}

var _ datagrid.Client = (*MockClient)(nil)

// NewMockClient builds an empty mock.
func NewMockClient() *MockClient {
	return &MockClient{
		collections: map[string][]datagrid.Row{},
		columns:     map[string][]datagrid.Column{},
		nextID:      1000,
	}
}

// Seed replaces the rows of collection.
func (m *MockClient) Seed(collection string, rows []datagrid.Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := collectionKey(collection)
	m.collections[key] = append([]datagrid.Row(nil), rows...)
}

// SeedEntity seeds count generated rows for every column of entity.
func (m *MockClient) SeedEntity(entity datagrid.EntityConfig, count int) {
	rows := make([]datagrid.Row, count)
	for i := range rows {
		row := datagrid.Row{"id": i + 1}
		for _, col := range entity.Columns {
			if col.Key == "id" || col.Key == datagrid.ActionColumn {
				continue
			}
			row[col.Key] = fmt.Sprintf("%s %d", col.Label, i+1)
		}
		for _, key := range entity.PercentFields {
			row[key] = float64((i*37)%100) / 100
		}
		rows[i] = row
	}
	m.Seed(entity.Collection, rows)
	m.mu.Lock()
	m.columns[collectionKey(entity.Collection)] = entity.Columns
	m.mu.Unlock()
}

// List filters rows by exact match on plain parameters and paginates them.
func (m *MockClient) List(_ context.Context, req datagrid.ListRequest) ([]byte, error) {
	rows := m.filtered(req)
	page := cast.ToInt(req.Params.Get("page"))
	perPage := cast.ToInt(req.Params.Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = datagrid.AllowedPerPage[0]
	}
	last := (len(rows) + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	start := (page - 1) * perPage
	if start > len(rows) {
		start = len(rows)
	}
	end := start + perPage
	if end > len(rows) {
		end = len(rows)
	}
	return json.Marshal(map[string]any{
		"data": map[string]any{
			"data":         rows[start:end],
			"current_page": page,
			"per_page":     perPage,
			"total":        len(rows),
			"last_page":    last,
		},
	})
}

// Get returns {data: row}.
func (m *MockClient) Get(_ context.Context, path string) ([]byte, error) {
	collection, id := splitMember(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.collections[collection] {
		if row.ID() == id {
			return json.Marshal(map[string]any{"data": row})
		}
	}
	return nil, &datagrid.RemoteError{StatusCode: http.StatusNotFound, Message: "Record not found"}
}

// Post creates a row, or deletes one when payload carries _method=DELETE.
func (m *MockClient) Post(_ context.Context, path string, payload map[string]any) error {
	if strings.EqualFold(cast.ToString(payload["_method"]), http.MethodDelete) {
		return m.remove(path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := collectionKey(path)
	m.nextID++
	row := datagrid.Row{"id": m.nextID}
	for k, v := range payload {
		row[k] = v
	}
	m.collections[key] = append([]datagrid.Row{row}, m.collections[key]...)
	return nil
}

// Put merges payload into the row at path.
func (m *MockClient) Put(_ context.Context, path string, payload map[string]any) error {
	collection, id := splitMember(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.collections[collection] {
		if row.ID() == id {
			for k, v := range payload {
				row[k] = v
			}
			return nil
		}
	}
	return &datagrid.RemoteError{StatusCode: http.StatusNotFound, Message: "Record not found"}
}

// Delete removes the row at path.
func (m *MockClient) Delete(_ context.Context, path string) error {
	if m.LegacyDelete {
		return &datagrid.RemoteError{StatusCode: http.StatusMethodNotAllowed}
	}
	return m.remove(path)
}

// Export renders every filtered row as CSV using the seeded columns.
func (m *MockClient) Export(_ context.Context, req datagrid.ListRequest) (datagrid.ExportFile, error) {
	if !m.ServerExport {
		return datagrid.ExportFile{}, &datagrid.RemoteError{StatusCode: http.StatusNotFound}
	}
	rows := m.filtered(req)
	m.mu.Lock()
	columns := m.columns[collectionKey(req.Collection)]
	m.mu.Unlock()
	if len(columns) == 0 {
		columns = inferColumns(rows)
	}
	var buf bytes.Buffer
	if err := datagrid.WriteCSV(&buf, exportable(columns), rows, datagrid.NewFormatter()); err != nil {
		return datagrid.ExportFile{}, err
	}
	name := strings.Trim(req.Collection, "/")
	return datagrid.ExportFile{
		Name:        datagrid.DefaultExportName(name, time.Now(), "csv"),
		ContentType: datagrid.ContentTypeCSV,
		Data:        buf.Bytes(),
		Source:      datagrid.ExportSourceServer,
		Rows:        len(rows),
	}, nil
}

func (m *MockClient) remove(path string) error {
	collection, id := splitMember(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.collections[collection]
	for i, row := range rows {
		if row.ID() == id {
			m.collections[collection] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return &datagrid.RemoteError{StatusCode: http.StatusNotFound, Message: "Record not found"}
}

var reservedParams = map[string]bool{"page": true, "per_page": true, "export": true, "search": true, "q": true}

func (m *MockClient) filtered(req datagrid.ListRequest) []datagrid.Row {
	m.mu.Lock()
	all := append([]datagrid.Row(nil), m.collections[collectionKey(req.Collection)]...)
	m.mu.Unlock()

	search := strings.ToLower(firstNonEmpty(req.Params.Get("search"), req.Params.Get("q")))
	out := make([]datagrid.Row, 0, len(all))
	for _, row := range all {
		if matches(row, req, search) {
			out = append(out, row)
		}
	}
	return out
}

func matches(row datagrid.Row, req datagrid.ListRequest, search string) bool {
	for key, values := range req.Params {
		if reservedParams[key] {
			continue
		}
		field := strings.TrimSuffix(key, "[]")
		value := cast.ToString(row[field])
		if _, present := row[field]; !present {
			continue
		}
		hit := false
		for _, v := range values {
			if value == v {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if search == "" {
		return true
	}
	for _, v := range row {
		if strings.Contains(strings.ToLower(cast.ToString(v)), search) {
			return true
		}
	}
	return false
}

func inferColumns(rows []datagrid.Row) []datagrid.Column {
	keys := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			keys[k] = true
		}
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)
	cols := make([]datagrid.Column, len(sorted))
	for i, k := range sorted {
		cols[i] = datagrid.Column{Key: k, Label: k}
	}
	return cols
}

func exportable(columns []datagrid.Column) []datagrid.Column {
	out := make([]datagrid.Column, 0, len(columns))
	for _, col := range columns {
		if col.Key != datagrid.ActionColumn {
			out = append(out, col)
		}
	}
	return out
}

func collectionKey(path string) string {
	return "/" + strings.Trim(path, "/")
}

func splitMember(path string) (string, string) {
	path = strings.Trim(path, "/")
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "/" + path, ""
	}
	return "/" + path[:idx], unescape(path[idx+1:])
}

func unescape(s string) string {
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
