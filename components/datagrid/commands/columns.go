package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// SaveColumnsInput captures a viewer's hidden columns for a grid.
type SaveColumnsInput struct {
	Grid     string   `json:"grid"`
	ViewerID string   `json:"viewer_id"`
	Hidden   []string `json:"hidden"`
}

// SaveColumnsCommand applies hidden columns to the grid and persists them.
type SaveColumnsCommand struct {
	grids     GridLookup
	store     datagrid.ColumnPreferenceStore
	telemetry Telemetry
}

// NewSaveColumnsCommand creates the command.
func NewSaveColumnsCommand(grids GridLookup, store datagrid.ColumnPreferenceStore, telemetry Telemetry) *SaveColumnsCommand {
	return &SaveColumnsCommand{grids: grids, store: store, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveColumnsInput] = (*SaveColumnsCommand)(nil)

func (c *SaveColumnsCommand) Execute(ctx context.Context, msg SaveColumnsInput) error {
	if c.store == nil {
		return errors.New("columns command requires preference store")
	}
	if msg.ViewerID == "" {
		return errors.New("columns command requires viewer id")
	}
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	ctrl.RestoreColumns(msg.Hidden)
	if err := ctrl.SaveColumnPreferences(ctx, c.store, msg.ViewerID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.columns.save", map[string]any{
		"grid":       msg.Grid,
		"viewer_id":  msg.ViewerID,
		"hidden_cnt": len(ctrl.HiddenColumns()),
	})
	return nil
}

// ToggleColumnInput flips the visibility of one column.
type ToggleColumnInput struct {
	Grid string `json:"grid"`
	Key  string `json:"key"`
}

// ToggleColumnCommand toggles a column without persisting it.
type ToggleColumnCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

func NewToggleColumnCommand(grids GridLookup, telemetry Telemetry) *ToggleColumnCommand {
	return &ToggleColumnCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ToggleColumnInput] = (*ToggleColumnCommand)(nil)

func (c *ToggleColumnCommand) Execute(ctx context.Context, msg ToggleColumnInput) error {
	if msg.Key == "" {
		return errors.New("toggle column command requires key")
	}
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	ctrl.ToggleColumn(msg.Key)
	c.telemetry.Record(ctx, "datagrid.command.columns.toggle", map[string]any{
		"grid":    msg.Grid,
		"key":     msg.Key,
		"visible": ctrl.ColumnVisible(msg.Key),
	})
	return nil
}
