package goadmin

import (
	"context"
	"errors"
	"fmt"

	datagridpkg "github.com/goliatone/go-datagrid/pkg/datagrid"
)

// MenuBuilder ensures grid entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures grid link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires entity grids + feature flags into an admin shell.
type Config struct {
	EnableGrids    bool
	MenuCode       string
	MenuBuilder    MenuBuilder
	Grids          *datagridpkg.Grids
	RoutePrefix    string
	Icon           string
	PositionOffset int
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg Config
}

// New creates an Admin helper that can seed grid menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnableGrids && cfg.Grids == nil {
		return nil, errors.New("goadmin: grids are required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.RoutePrefix == "" {
		cfg.RoutePrefix = "admin.grids"
	}
	if cfg.Icon == "" {
		cfg.Icon = "table"
	}
	return &Admin{cfg: cfg}, nil
}

// Grids exposes the configured grids when enabled.
func (a *Admin) Grids() *datagridpkg.Grids {
	if !a.cfg.EnableGrids {
		return nil
	}
	return a.cfg.Grids
}

// Bootstrap seeds one menu entry per grid when grid support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnableGrids || a.cfg.MenuBuilder == nil {
		return nil
	}
	for idx, code := range a.cfg.Grids.Codes() {
		ctrl, ok := a.cfg.Grids.Controller(code)
		if !ok {
			continue
		}
		item := MenuItem{
			Label:    ctrl.Entity().Name,
			Route:    a.cfg.RoutePrefix + "." + code,
			Icon:     a.cfg.Icon,
			Position: a.cfg.PositionOffset + idx,
		}
		if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, item); err != nil {
			return fmt.Errorf("goadmin: menu item %s: %w", code, err)
		}
	}
	return nil
}
