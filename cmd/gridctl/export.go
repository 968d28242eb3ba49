package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/components/datagrid/commands"
)

type exportCmd struct {
	Entity string   `required:"" help:"Entity grid code."`
	Out    string   `default:"." type:"path" help:"Directory the export is written to."`
	Format string   `default:"csv" enum:"csv,xlsx" help:"Export format (csv,xlsx)."`
	Filter []string `help:"Filter as key=value; repeat a key to send several values."`
	Search string   `help:"Free-text search."`
}

func (cmd *exportCmd) Run(ctx context.Context, root *cli) error {
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
	// The client-side fallback and xlsx both render the loaded page.
	if err := ctrl.ApplyFilters(ctx, datagrid.FilterState{Filters: filters, Search: cmd.Search}); err != nil {
		return err
	}

	var written datagrid.ExportFile
	sink := commands.DirSink(cmd.Out)
	export := commands.NewExportCommand(rt.grids, func(ctx context.Context, file datagrid.ExportFile) error {
		written = file
		return sink(ctx, file)
	}, datagrid.LogTelemetry(rt.logger))
	if err := export.Execute(ctx, commands.ExportInput{Grid: cmd.Entity, Format: cmd.Format}); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Wrote %s (%s export, %d bytes)\n",
		filepath.Join(cmd.Out, filepath.Base(written.Name)), written.Source, len(written.Data))
	if n, ok := ctrl.Notifications().Current(); ok {
		rt.logger.WithField("kind", n.Kind).Info(n.Message)
	}
	return nil
}
