package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// SetPageInput moves a grid to Page.
type SetPageInput struct {
	Grid string `json:"grid"`
	Page int    `json:"page"`
}

// SetPageCommand clamps and fetches a page.
type SetPageCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

// NewSetPageCommand creates the command.
func NewSetPageCommand(grids GridLookup, telemetry Telemetry) *SetPageCommand {
	return &SetPageCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetPageInput] = (*SetPageCommand)(nil)

// Execute delegates to Controller.SetPage.
func (c *SetPageCommand) Execute(ctx context.Context, msg SetPageInput) error {
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	if err := ctrl.SetPage(ctx, msg.Page); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.page", map[string]any{"grid": msg.Grid, "page": msg.Page})
	return nil
}

// SetPerPageInput changes the page size of a grid.
type SetPerPageInput struct {
	Grid    string `json:"grid"`
	PerPage int    `json:"per_page"`
}

// SetPerPageCommand changes the page size and returns to page 1.
type SetPerPageCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

// NewSetPerPageCommand creates the command.
func NewSetPerPageCommand(grids GridLookup, telemetry Telemetry) *SetPerPageCommand {
	return &SetPerPageCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetPerPageInput] = (*SetPerPageCommand)(nil)

func (c *SetPerPageCommand) Execute(ctx context.Context, msg SetPerPageInput) error {
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	if err := ctrl.SetPerPage(ctx, msg.PerPage); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.per_page", map[string]any{"grid": msg.Grid, "per_page": msg.PerPage})
	return nil
}

// ApplyFiltersInput replaces the selection and commits it.
type ApplyFiltersInput struct {
	Grid    string           `json:"grid"`
	Filters datagrid.Filters `json:"filters"`
	Search  string           `json:"search"`
}

// ApplyFiltersCommand commits filters and fetches page 1.
type ApplyFiltersCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

// NewApplyFiltersCommand creates the command.
func NewApplyFiltersCommand(grids GridLookup, telemetry Telemetry) *ApplyFiltersCommand {
	return &ApplyFiltersCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyFiltersInput] = (*ApplyFiltersCommand)(nil)

func (c *ApplyFiltersCommand) Execute(ctx context.Context, msg ApplyFiltersInput) error {
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	if err := ctrl.ApplyFilters(ctx, datagrid.FilterState{Filters: msg.Filters, Search: msg.Search}); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.filters", map[string]any{
		"grid":    msg.Grid,
		"filters": len(msg.Filters),
		"search":  msg.Search != "",
	})
	return nil
}

// ClearFiltersInput restores a grid's default filters.
type ClearFiltersInput struct {
	Grid string `json:"grid"`
}

// ClearFiltersCommand resets filters to defaults and fetches page 1.
type ClearFiltersCommand struct {
	grids     GridLookup
	telemetry Telemetry
}

// NewClearFiltersCommand creates the command.
func NewClearFiltersCommand(grids GridLookup, telemetry Telemetry) *ClearFiltersCommand {
	return &ClearFiltersCommand{grids: grids, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ClearFiltersInput] = (*ClearFiltersCommand)(nil)

func (c *ClearFiltersCommand) Execute(ctx context.Context, msg ClearFiltersInput) error {
	ctrl, err := resolve(c.grids, msg.Grid)
	if err != nil {
		return err
	}
	if err := ctrl.ClearFilters(ctx); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "datagrid.command.filters.clear", map[string]any{"grid": msg.Grid})
	return nil
}
