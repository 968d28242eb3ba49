package commands

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// ErrUnknownGrid is returned when a command names a grid that is not registered.
var ErrUnknownGrid = errors.New("commands: unknown grid")

// GridLookup resolves controllers by entity code. *datagrid.Grids satisfies it.
type GridLookup interface {
	Controller(code string) (*datagrid.Controller, bool)
}

func resolve(grids GridLookup, code string) (*datagrid.Controller, error) {
	if grids == nil {
		return nil, errors.New("commands: grid lookup not configured")
	}
	ctrl, ok := grids.Controller(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrid, code)
	}
	return ctrl, nil
}
