package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

type listCmd struct {
	Entity  string   `required:"" help:"Entity grid code (e.g. leads, kpi_goals)."`
	Page    int      `default:"1" help:"Page to fetch; clamped to the last page."`
	PerPage int      `name:"per-page" help:"Rows per page (25, 50 or 100)."`
	Filter  []string `help:"Filter as key=value; repeat a key to send several values."`
	Search  string   `help:"Free-text search."`
}

func (cmd *listCmd) Run(ctx context.Context, root *cli) error {
	rt, err := root.runtime()
	if err != nil {
		return err
	}
	ctrl, err := rt.controller(cmd.Entity)
	if err != nil {
		return err
	}
	filters, err := parseFilters(cmd.Filter)
	if err != nil {
		return err
	}

	perPage := cmd.PerPage
	if perPage == 0 {
		perPage = rt.cfg.PerPage
	}
	if perPage != ctrl.Query().PerPage {
		if err := ctrl.SetPerPage(ctx, perPage); err != nil {
			return err
		}
	}
	if len(filters) > 0 || cmd.Search != "" {
		if err := ctrl.ApplyFilters(ctx, datagrid.FilterState{Filters: filters, Search: cmd.Search}); err != nil {
			return err
		}
	} else if err := ctrl.Load(ctx); err != nil {
		return err
	}
	if cmd.Page > 1 {
		if err := ctrl.SetPage(ctx, cmd.Page); err != nil {
			return err
		}
	}
	return printState(os.Stdout, ctrl.State(), ctrl.Formatter())
}

func printState(out io.Writer, state datagrid.GridState, formatter datagrid.Formatter) error {
	columns := make([]datagrid.ColumnState, 0, len(state.Columns))
	for _, col := range state.Columns {
		if col.Visible && col.Key != datagrid.ActionColumn {
			columns = append(columns, col)
		}
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = strings.ToUpper(col.Label)
	}
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range state.Result.Rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = formatter.Field(row, col.Key)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%s  (%d total)\n", pageStrip(state.PageStrip), state.Result.Total)
	if state.Banner != "" {
		fmt.Fprintf(out, "! %s\n", state.Banner)
	}
	return nil
}

func pageStrip(items []datagrid.PageItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch {
		case item.Ellipsis:
			parts = append(parts, "…")
		case item.Current:
			parts = append(parts, "["+strconv.Itoa(item.Page)+"]")
		default:
			parts = append(parts, strconv.Itoa(item.Page))
		}
	}
	return strings.Join(parts, " ")
}
