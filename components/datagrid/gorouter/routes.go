package gorouter

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/components/datagrid/commands"
	"github.com/goliatone/go-datagrid/components/datagrid/httpapi"
	"github.com/goliatone/go-datagrid/components/datagrid/queries"
)

// ViewerResolver extracts the viewer id used for column preferences.
type ViewerResolver func(router.Context) string

// Config wires go-router with grid commands, queries, and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Grids          commands.GridLookup
	Preferences    datagrid.ColumnPreferenceStore
	Telemetry      commands.Telemetry
	Broadcast      *datagrid.BroadcastHook
	Charts         *datagrid.ChartRenderer
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths of grid endpoints. Every path is
// mounted under BasePath and must carry the :grid parameter.
type RouteConfig struct {
	State        string
	Page         string
	PerPage      string
	Filters      string
	ClearFilters string
	ToggleColumn string
	SaveColumns  string
	Rows         string
	RowID        string
	Export       string
	Chart        string
	WebSocket    string
}

type endpoints struct {
	setPage      *commands.SetPageCommand
	setPerPage   *commands.SetPerPageCommand
	applyFilters *commands.ApplyFiltersCommand
	clearFilters *commands.ClearFiltersCommand
	toggle       *commands.ToggleColumnCommand
	saveColumns  *commands.SaveColumnsCommand
	create       *commands.CreateRowCommand
	update       *commands.UpdateRowCommand
	remove       *commands.DeleteRowCommand
	state        *queries.GridStateQuery
	grids        commands.GridLookup
	telemetry    commands.Telemetry
	viewer       ViewerResolver
}

// Register mounts grid routes (JSON, export, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Grids == nil {
		return errors.New("gorouter: grids are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/admin/grids"
	}
	viewer := cfg.ViewerResolver
	if viewer == nil {
		viewer = defaultViewerResolver
	}
	store := cfg.Preferences
	if store == nil {
		store = datagrid.NewInMemoryColumnPreferences()
	}

	e := &endpoints{
		setPage:      commands.NewSetPageCommand(cfg.Grids, cfg.Telemetry),
		setPerPage:   commands.NewSetPerPageCommand(cfg.Grids, cfg.Telemetry),
		applyFilters: commands.NewApplyFiltersCommand(cfg.Grids, cfg.Telemetry),
		clearFilters: commands.NewClearFiltersCommand(cfg.Grids, cfg.Telemetry),
		toggle:       commands.NewToggleColumnCommand(cfg.Grids, cfg.Telemetry),
		saveColumns:  commands.NewSaveColumnsCommand(cfg.Grids, store, cfg.Telemetry),
		create:       commands.NewCreateRowCommand(cfg.Grids, cfg.Telemetry),
		update:       commands.NewUpdateRowCommand(cfg.Grids, cfg.Telemetry),
		remove:       commands.NewDeleteRowCommand(cfg.Grids, cfg.Telemetry),
		state:        queries.NewGridStateQuery(cfg.Grids),
		grids:        cfg.Grids,
		telemetry:    cfg.Telemetry,
		viewer:       viewer,
	}

	group := cfg.Router.Group(base)
	registerAPI(group, e, routes)
	if cfg.Charts != nil {
		registerChart(group, cfg.Grids, cfg.Charts, routes.Chart)
	}
	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerAPI[T any](r router.Router[T], e *endpoints, routes RouteConfig) {
	r.Get(routes.State, router.WrapHandler(func(ctx router.Context) error {
		refresh, _ := strconv.ParseBool(ctx.Query("refresh"))
		return e.respondState(ctx, refresh, http.StatusOK)
	}))

	r.Post(routes.Page, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SetPageInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Grid = ctx.Param("grid")
		return e.run(ctx, e.setPage.Execute(ctx.Context(), payload), http.StatusOK)
	}))

	r.Post(routes.PerPage, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SetPerPageInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Grid = ctx.Param("grid")
		return e.run(ctx, e.setPerPage.Execute(ctx.Context(), payload), http.StatusOK)
	}))

	r.Post(routes.Filters, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ApplyFiltersInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Grid = ctx.Param("grid")
		return e.run(ctx, e.applyFilters.Execute(ctx.Context(), payload), http.StatusOK)
	}))

	r.Post(routes.ClearFilters, router.WrapHandler(func(ctx router.Context) error {
		input := commands.ClearFiltersInput{Grid: ctx.Param("grid")}
		return e.run(ctx, e.clearFilters.Execute(ctx.Context(), input), http.StatusOK)
	}))

	r.Post(routes.ToggleColumn, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ToggleColumnInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Grid = ctx.Param("grid")
		return e.run(ctx, e.toggle.Execute(ctx.Context(), payload), http.StatusOK)
	}))

	r.Post(routes.SaveColumns, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SaveColumnsInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		payload.Grid = ctx.Param("grid")
		payload.ViewerID = e.viewer(ctx)
		return e.run(ctx, e.saveColumns.Execute(ctx.Context(), payload), http.StatusOK)
	}))

	r.Post(routes.Rows, router.WrapHandler(func(ctx router.Context) error {
		var payload map[string]any
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		input := commands.CreateRowInput{Grid: ctx.Param("grid"), Payload: payload}
		return e.run(ctx, e.create.Execute(ctx.Context(), input), http.StatusCreated)
	}))

	r.Put(routes.RowID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("row id is required"))
		}
		var payload map[string]any
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		input := commands.UpdateRowInput{Grid: ctx.Param("grid"), ID: id, Payload: payload}
		return e.run(ctx, e.update.Execute(ctx.Context(), input), http.StatusOK)
	}))

	r.Delete(routes.RowID, router.WrapHandler(func(ctx router.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return respondError(ctx, http.StatusBadRequest, errors.New("row id is required"))
		}
		input := commands.DeleteRowInput{Grid: ctx.Param("grid"), ID: id}
		return e.run(ctx, e.remove.Execute(ctx.Context(), input), http.StatusOK)
	}))

	r.Get(routes.Export, router.WrapHandler(func(ctx router.Context) error {
		var file datagrid.ExportFile
		sink := func(_ context.Context, f datagrid.ExportFile) error {
			file = f
			return nil
		}
		cmd := commands.NewExportCommand(e.grids, sink, e.telemetry)
		input := commands.ExportInput{Grid: ctx.Param("grid"), Format: ctx.Query("format")}
		if err := cmd.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", file.ContentType)
		ctx.SetHeader("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
		ctx.SetHeader("X-Export-Source", file.Source)
		return ctx.Send(file.Data)
	}))
}

func (e *endpoints) run(ctx router.Context, err error, status int) error {
	if err != nil {
		var verr *datagrid.ValidationError
		if errors.As(err, &verr) {
			return ctx.JSON(http.StatusUnprocessableEntity, httpapi.ErrorResponse{
				Error:       "validation failed",
				FieldErrors: verr.Fields,
			})
		}
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return e.respondState(ctx, false, status)
}

func (e *endpoints) respondState(ctx router.Context, refresh bool, status int) error {
	state, err := e.state.Query(ctx.Context(), queries.GridStateInput{Grid: ctx.Param("grid"), Refresh: refresh})
	if err != nil && state.Grid == "" {
		return respondError(ctx, httpapi.StatusFor(err), err)
	}
	return ctx.JSON(status, state)
}

// registerWebSocket streams grid events; a comma separated ?grid= narrows them.
func registerWebSocket[T any](r router.Router[T], hook *datagrid.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe(strings.Split(ws.Query("grid"), ",")...)
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultViewerResolver(ctx router.Context) string {
	if v, ok := ctx.Locals("user_id").(string); ok {
		return v
	}
	return ctx.Header("X-Viewer-ID")
}

func respondError(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, httpapi.ErrorResponse{Error: datagrid.UserMessage(err, err.Error())})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.State == "" {
		routes.State = "/:grid"
	}
	if routes.Page == "" {
		routes.Page = "/:grid/page"
	}
	if routes.PerPage == "" {
		routes.PerPage = "/:grid/per-page"
	}
	if routes.Filters == "" {
		routes.Filters = "/:grid/filters"
	}
	if routes.ClearFilters == "" {
		routes.ClearFilters = "/:grid/filters/clear"
	}
	if routes.ToggleColumn == "" {
		routes.ToggleColumn = "/:grid/columns/toggle"
	}
	if routes.SaveColumns == "" {
		routes.SaveColumns = "/:grid/columns"
	}
	if routes.Rows == "" {
		routes.Rows = "/:grid/rows"
	}
	if routes.RowID == "" {
		routes.RowID = "/:grid/rows/:id"
	}
	if routes.Export == "" {
		routes.Export = "/:grid/export"
	}
	if routes.Chart == "" {
		routes.Chart = "/:grid/chart"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/_ws/events"
	}
	return routes
}
