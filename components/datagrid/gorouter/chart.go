package gorouter

import (
	"errors"
	"net/http"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/components/datagrid/commands"
	"github.com/goliatone/go-datagrid/components/datagrid/httpapi"
)

var errNoPercentColumn = errors.New("grid has no percentage column to chart")

// registerChart serves an HTML bar chart of the current page. ?value= picks the
// plotted column (defaults to the first percent field), ?label= the axis column.
func registerChart[T any](r router.Router[T], grids commands.GridLookup, charts *datagrid.ChartRenderer, path string) {
	r.Get(path, router.WrapHandler(func(ctx router.Context) error {
		ctrl, ok := grids.Controller(ctx.Param("grid"))
		if !ok {
			return respondError(ctx, http.StatusNotFound, commands.ErrUnknownGrid)
		}
		entity := ctrl.Entity()
		label, value, err := chartKeys(entity, ctx.Query("label"), ctx.Query("value"))
		if err != nil {
			return respondError(ctx, http.StatusBadRequest, err)
		}
		html, err := charts.RenderPercentBar(entity.Name, ctrl.Result(), label, value)
		if err != nil {
			return respondError(ctx, httpapi.StatusFor(err), err)
		}
		ctx.SetHeader("Content-Type", "text/html; charset=utf-8")
		return ctx.Send([]byte(html))
	}))
}

func chartKeys(entity datagrid.EntityConfig, label, value string) (string, string, error) {
	if value == "" {
		if len(entity.PercentFields) == 0 {
			return "", "", errNoPercentColumn
		}
		value = entity.PercentFields[0]
	}
	if label == "" {
		label = "id"
		for _, col := range entity.Columns {
			if col.Key != "id" && col.Key != datagrid.ActionColumn && col.Key != value {
				label = col.Key
				break
			}
		}
	}
	return label, value, nil
}
