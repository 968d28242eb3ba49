package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
)

// CreateRowInput carries a create payload.
type CreateRowInput struct {
	Grid    string         `json:"grid"`
	Payload map[string]any `json:"payload"`
}

// CreateRowCommand validates and creates a record.
type CreateRowCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

// NewCreateRowCommand creates the command.
func NewCreateRowCommand(grids GridLookup, telemetry Telemetry) *CreateRowCommand {
	return &CreateRowCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateRowInput] = (*CreateRowCommand)(nil)

func (c *CreateRowCommand) Execute(ctx context.Context, msg CreateRowInput) error {
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	if err := ctrl.Create(ctx, msg.Payload); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.create", map[string]any{"grid": msg.Grid})
	return nil
}

// UpdateRowInput carries an update payload for ID.
type UpdateRowInput struct {
	Grid    string         `json:"grid"`
	ID      string         `json:"id"`
	Payload map[string]any `json:"payload"`
}

// UpdateRowCommand validates and updates a record.
type UpdateRowCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

// NewUpdateRowCommand creates the command.
func NewUpdateRowCommand(grids GridLookup, telemetry Telemetry) *UpdateRowCommand {
	return &UpdateRowCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[UpdateRowInput] = (*UpdateRowCommand)(nil)

func (c *UpdateRowCommand) Execute(ctx context.Context, msg UpdateRowInput) error {
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	if err := ctrl.Update(ctx, msg.ID, msg.Payload); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.update", map[string]any{"grid": msg.Grid, "id": msg.ID})
	return nil
}

// DeleteRowInput names the record to delete.
type DeleteRowInput struct {
	Grid string `json:"grid"`
	ID   string `json:"id"`
}

// DeleteRowCommand deletes a record, falling back to a method override.
type DeleteRowCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

// NewDeleteRowCommand creates the command.
func NewDeleteRowCommand(grids GridLookup, telemetry Telemetry) *DeleteRowCommand {
	return &DeleteRowCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteRowInput] = (*DeleteRowCommand)(nil)

func (c *DeleteRowCommand) Execute(ctx context.Context, msg DeleteRowInput) error {
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	if err := ctrl.Delete(ctx, msg.ID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.delete", map[string]any{"grid": msg.Grid, "id": msg.ID})
	return nil
}
