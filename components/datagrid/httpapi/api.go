package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/components/datagrid/commands"
	"github.com/goliatone/go-datagrid/components/datagrid/queries"
)

// Handlers exposes HTTP endpoints backed by shared commands. Mutating handlers
// answer with the grid snapshot so clients can re-render in one round trip.
type Handlers struct {
	SetPage      gocommand.Commander[commands.SetPageInput]
	SetPerPage   gocommand.Commander[commands.SetPerPageInput]
	ApplyFilters gocommand.Commander[commands.ApplyFiltersInput]
	ClearFilters gocommand.Commander[commands.ClearFiltersInput]
	ToggleColumn gocommand.Commander[commands.ToggleColumnInput]
	CreateRow    gocommand.Commander[commands.CreateRowInput]
	UpdateRow    gocommand.Commander[commands.UpdateRowInput]
	DeleteRow    gocommand.Commander[commands.DeleteRowInput]
	Export       gocommand.Commander[commands.ExportInput]
	State        gocommand.Querier[queries.GridStateInput, datagrid.GridState]
}

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Error       string            `json:"error"`
	FieldErrors map[string]string `json:"field_errors,omitempty"`
}

func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request, grid string) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	h.writeState(w, r, grid, refresh, http.StatusOK)
}

func (h *Handlers) HandleSetPage(w http.ResponseWriter, r *http.Request, grid string) {
	var payload commands.SetPageInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Grid = grid
	execute(h, w, r, grid, h.SetPage, payload, http.StatusOK)
}

func (h *Handlers) HandleSetPerPage(w http.ResponseWriter, r *http.Request, grid string) {
	var payload commands.SetPerPageInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Grid = grid
	execute(h, w, r, grid, h.SetPerPage, payload, http.StatusOK)
}

func (h *Handlers) HandleApplyFilters(w http.ResponseWriter, r *http.Request, grid string) {
	var payload commands.ApplyFiltersInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Grid = grid
	execute(h, w, r, grid, h.ApplyFilters, payload, http.StatusOK)
}

func (h *Handlers) HandleClearFilters(w http.ResponseWriter, r *http.Request, grid string) {
	execute(h, w, r, grid, h.ClearFilters, commands.ClearFiltersInput{Grid: grid}, http.StatusOK)
}

func (h *Handlers) HandleToggleColumn(w http.ResponseWriter, r *http.Request, grid string) {
	var payload commands.ToggleColumnInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Grid = grid
	execute(h, w, r, grid, h.ToggleColumn, payload, http.StatusOK)
}

func (h *Handlers) HandleCreateRow(w http.ResponseWriter, r *http.Request, grid string) {
	var payload map[string]any
	if !decode(w, r, &payload) {
		return
	}
	execute(h, w, r, grid, h.CreateRow, commands.CreateRowInput{Grid: grid, Payload: payload}, http.StatusCreated)
}

func (h *Handlers) HandleUpdateRow(w http.ResponseWriter, r *http.Request, grid, id string) {
	var payload map[string]any
	if !decode(w, r, &payload) {
		return
	}
	execute(h, w, r, grid, h.UpdateRow, commands.UpdateRowInput{Grid: grid, ID: id, Payload: payload}, http.StatusOK)
}

func (h *Handlers) HandleDeleteRow(w http.ResponseWriter, r *http.Request, grid, id string) {
	execute(h, w, r, grid, h.DeleteRow, commands.DeleteRowInput{Grid: grid, ID: id}, http.StatusOK)
}

// HandleExport streams the export produced by a command built with ExportWriter.
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request, grid string) {
	if h.Export == nil {
		http.Error(w, "export not configured", http.StatusNotImplemented)
		return
	}
	input := commands.ExportInput{Grid: grid, Format: r.URL.Query().Get("format")}
	if err := h.Export.Execute(withResponse(r.Context(), w), input); err != nil {
		writeError(w, err)
	}
}

func execute[T any](h *Handlers, w http.ResponseWriter, r *http.Request, grid string, cmd gocommand.Commander[T], msg T, status int) {
	if cmd == nil {
		writeError(w, errNotConfigured)
		return
	}
	if err := cmd.Execute(r.Context(), msg); err != nil {
		writeError(w, err)
		return
	}
	h.writeState(w, r, grid, false, status)
}

var errNotConfigured = errors.New("httpapi: handler not configured")

func (h *Handlers) writeState(w http.ResponseWriter, r *http.Request, grid string, refresh bool, status int) {
	if h.State == nil {
		w.WriteHeader(status)
		return
	}
	state, err := h.State.Query(r.Context(), queries.GridStateInput{Grid: grid, Refresh: refresh})
	if err != nil && state.Grid == "" {
		writeError(w, err)
		return
	}
	writeJSON(w, status, state)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: datagrid.UserMessage(err, err.Error())}
	var verr *datagrid.ValidationError
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		resp.FieldErrors = verr.Fields
	}
	writeJSON(w, StatusFor(err), resp)
}

// StatusFor maps grid errors onto HTTP status codes.
func StatusFor(err error) int {
	var verr *datagrid.ValidationError
	var rerr *datagrid.RemoteError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, commands.ErrUnknownGrid), errors.Is(err, queries.ErrUnknownGrid):
		return http.StatusNotFound
	case errors.Is(err, datagrid.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, datagrid.ErrActionInFlight):
		return http.StatusConflict
	case errors.Is(err, datagrid.ErrInvalidPerPage):
		return http.StatusBadRequest
	case errors.Is(err, errNotConfigured):
		return http.StatusNotImplemented
	case errors.As(err, &rerr), errors.Is(err, datagrid.ErrMalformedResponse), errors.Is(err, datagrid.ErrExportFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
