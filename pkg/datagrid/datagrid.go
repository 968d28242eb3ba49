package datagrid

import (
	core "github.com/goliatone/go-datagrid/components/datagrid"
)

// Controller exposes the underlying components/datagrid.Controller type.
type Controller = core.Controller

// Options re-export for convenience.
type Options = core.Options

// Grids re-export.
type Grids = core.Grids

// Registry re-export.
type Registry = core.Registry

// EntityConfig re-export.
type EntityConfig = core.EntityConfig

// NewController proxies to the internal constructor.
func NewController(opts Options) (*Controller, error) {
	return core.NewController(opts)
}

// NewGrids builds a controller per preset entity plus any registered entity.
func NewGrids(reg *Registry, opts Options) (*Grids, error) {
	if reg == nil {
		reg = core.NewRegistry()
	}
	return core.NewGrids(reg, opts)
}

// NewRegistry returns a registry seeded with the preset entities.
func NewRegistry() *Registry {
	return core.NewRegistry()
}
