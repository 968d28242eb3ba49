package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/components/datagrid/commands"
	"github.com/goliatone/go-datagrid/components/datagrid/queries"
	"github.com/goliatone/go-datagrid/pkg/restclient"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(_ context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

func newHandlers(t *testing.T) (*Handlers, *restclient.MockClient) {
	t.Helper()
	reg := datagrid.NewEmptyRegistry()
	leads, _ := datagrid.NewRegistry().Entity("leads")
	if err := reg.Register(leads); err != nil {
		t.Fatalf("register: %v", err)
	}
	client := restclient.NewMockClient()
	client.SeedEntity(leads, 40)
	logger, _ := test.NewNullLogger()
	grids, err := datagrid.NewGrids(reg, datagrid.Options{Client: client, Logger: logrus.NewEntry(logger)})
	if err != nil {
		t.Fatalf("NewGrids: %v", err)
	}
	return &Handlers{
		SetPage:      commands.NewSetPageCommand(grids, nil),
		SetPerPage:   commands.NewSetPerPageCommand(grids, nil),
		ApplyFilters: commands.NewApplyFiltersCommand(grids, nil),
		ClearFilters: commands.NewClearFiltersCommand(grids, nil),
		ToggleColumn: commands.NewToggleColumnCommand(grids, nil),
		CreateRow:    commands.NewCreateRowCommand(grids, nil),
		UpdateRow:    commands.NewUpdateRowCommand(grids, nil),
		DeleteRow:    commands.NewDeleteRowCommand(grids, nil),
		Export:       commands.NewExportCommand(grids, ExportWriter(), nil),
		State:        queries.NewGridStateQuery(grids),
	}, client
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) datagrid.GridState {
	t.Helper()
	var state datagrid.GridState
	if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v (%s)", err, rec.Body.String())
	}
	return state
}

func TestHandleStateRefresh(t *testing.T) {
	api, _ := newHandlers(t)
	req := httptest.NewRequest(http.MethodGet, "/grids/leads?refresh=true", nil)
	rec := httptest.NewRecorder()
	api.HandleState(rec, req, "leads")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	state := decodeState(t, rec)
	if state.Result.Total != 40 || len(state.Result.Rows) != 25 {
		t.Fatalf("unexpected result %+v", state.Result)
	}
}

func TestHandleStateUnknownGrid(t *testing.T) {
	api, _ := newHandlers(t)
	rec := httptest.NewRecorder()
	api.HandleState(rec, httptest.NewRequest(http.MethodGet, "/grids/nope", nil), "nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestHandleSetPage(t *testing.T) {
	api, _ := newHandlers(t)
	api.HandleState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/grids/leads?refresh=1", nil), "leads")
	req := httptest.NewRequest(http.MethodPost, "/grids/leads/page", strings.NewReader(`{"page":9}`))
	rec := httptest.NewRecorder()
	api.HandleSetPage(rec, req, "leads")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	state := decodeState(t, rec)
	// 40 rows at 25 per page clamp page 9 to the last page.
	if state.Query.Page != 2 || len(state.Result.Rows) != 15 {
		t.Fatalf("unexpected page state %+v", state.Query)
	}
}

func TestHandleSetPerPageRejectsInvalid(t *testing.T) {
	api, _ := newHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/grids/leads/per-page", strings.NewReader(`{"per_page":10}`))
	rec := httptest.NewRecorder()
	api.HandleSetPerPage(rec, req, "leads")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleCreateRowValidation(t *testing.T) {
	api, _ := newHandlers(t)
	req := httptest.NewRequest(http.MethodPost, "/grids/leads/rows", strings.NewReader(`{"name":"Ada"}`))
	rec := httptest.NewRecorder()
	api.HandleCreateRow(rec, req, "leads")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := resp.FieldErrors["email"]; !ok {
		t.Fatalf("expected email field error, got %+v", resp)
	}
}

func TestHandleCreateAndDeleteRow(t *testing.T) {
	api, _ := newHandlers(t)
	body, _ := json.Marshal(map[string]any{"name": "Ada", "email": "ada@example.com"})
	rec := httptest.NewRecorder()
	api.HandleCreateRow(rec, httptest.NewRequest(http.MethodPost, "/grids/leads/rows", bytes.NewReader(body)), "leads")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if state := decodeState(t, rec); state.Result.Total != 41 {
		t.Fatalf("expected 41 rows, got %d", state.Result.Total)
	}

	rec = httptest.NewRecorder()
	api.HandleDeleteRow(rec, httptest.NewRequest(http.MethodDelete, "/grids/leads/rows/1", nil), "leads", "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if state := decodeState(t, rec); state.Result.Total != 40 {
		t.Fatalf("expected 40 rows, got %d", state.Result.Total)
	}

	rec = httptest.NewRecorder()
	api.HandleDeleteRow(rec, httptest.NewRequest(http.MethodDelete, "/grids/leads/rows/1", nil), "leads", "1")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 for missing row, got %d", rec.Code)
	}
	var resp ErrorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Error != "Record not found" {
		t.Fatalf("expected server message, got %q", resp.Error)
	}
}

func TestHandleApplyFiltersUsesPathGrid(t *testing.T) {
	apply := &stubCommander[commands.ApplyFiltersInput]{}
	api := &Handlers{ApplyFilters: apply}
	req := httptest.NewRequest(http.MethodPost, "/grids/leads/filters", strings.NewReader(`{"grid":"other","filters":{"status":["open"]},"search":"acme"}`))
	rec := httptest.NewRecorder()
	api.HandleApplyFilters(rec, req, "leads")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if apply.calls != 1 || apply.last.Grid != "leads" || apply.last.Search != "acme" {
		t.Fatalf("unexpected command input %+v", apply.last)
	}
}

func TestHandleUnconfiguredCommand(t *testing.T) {
	api := &Handlers{}
	rec := httptest.NewRecorder()
	api.HandleClearFilters(rec, httptest.NewRequest(http.MethodPost, "/grids/leads/filters/clear", nil), "leads")
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", rec.Code)
	}
}

func TestHandleExportFallsBackToLoadedRows(t *testing.T) {
	api, _ := newHandlers(t)
	api.HandleState(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/grids/leads?refresh=1", nil), "leads")

	rec := httptest.NewRecorder()
	api.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/grids/leads/export", nil), "leads")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Export-Source"); got != datagrid.ExportSourceClient {
		t.Fatalf("expected client export, got %q", got)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "leads_") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 26 {
		t.Fatalf("expected header plus 25 rows, got %d", len(lines))
	}
}

func TestHandleExportWithoutRows(t *testing.T) {
	api, _ := newHandlers(t)
	rec := httptest.NewRecorder()
	api.HandleExport(rec, httptest.NewRequest(http.MethodGet, "/grids/leads/export", nil), "leads")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		datagrid.ErrForbidden:                  http.StatusForbidden,
		datagrid.ErrActionInFlight:             http.StatusConflict,
		&datagrid.ValidationError{}:            http.StatusUnprocessableEntity,
		&datagrid.RemoteError{StatusCode: 409}: http.StatusBadGateway,
		commands.ErrUnknownGrid:                http.StatusNotFound,
		errors.New("boom"):                     http.StatusInternalServerError,
	}
	for err, want := range cases {
		if got := StatusFor(err); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
}
