package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportSink receives a finished export.
type ExportSink func(ctx context.Context, file datagrid.ExportFile) error

// DirSink writes exports into dir using the export's filename.
func DirSink(dir string) ExportSink {
	return func(_ context.Context, file datagrid.ExportFile) error {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("commands: create export dir: %w", err)
		}
		path := filepath.Join(dir, filepath.Base(file.Name))
		if err := os.WriteFile(path, file.Data, 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("commands: write export %s: %w", path, err)
		}
		return nil
	}
}

// ExportInput selects the grid and format. csv runs the server-first export; xlsx
// renders the loaded page.
type ExportInput struct {
	Grid   string `json:"grid"`
	Format string `json:"format"`
}

// ExportCommand runs an export and hands the file to the sink.
type ExportCommand struct {
	grids     GridLookup
	sink      ExportSink
	telemetry Telemetry
}

// NewExportCommand creates the command.
func NewExportCommand(grids GridLookup, sink ExportSink, telemetry Telemetry) *ExportCommand {
	return &ExportCommand{grids: grids, sink: sink, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ExportInput] = (*ExportCommand)(nil)

func (c *ExportCommand) Execute(ctx context.Context, msg ExportInput) error {
	if c.sink == nil {
		return errors.New("export command requires sink")
	}
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	var file datagrid.ExportFile
	switch strings.ToLower(strings.TrimSpace(msg.Format)) {
	case "", FormatCSV:
		file, err = ctrl.Export(ctx)
	case FormatXLSX:
		file, err = ctrl.ExportXLSX()
	default:
		return fmt.Errorf("commands: unsupported export format %q", msg.Format)
	}
	if err != nil {
		return err
	}
	if err := c.sink(ctx, file); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.export", map[string]any{
		"grid":   msg.Grid,
		"source": file.Source,
		"name":   file.Name,
	})
	return nil
}
