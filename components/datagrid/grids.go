package datagrid

import (
	"fmt"
	"sort"
	"sync"
)

// Grids holds one controller per entity. Transports and commands resolve grids by code.
type Grids struct {
	mu          sync.RWMutex
	controllers map[string]*Controller
}

// NewGrids builds a controller for every registry entity. base supplies the shared
// collaborators; its Entity field is ignored. A non-nil base.Notifier is shared by
// every grid.
func NewGrids(reg *Registry, base Options) (*Grids, error) {
	g := &Grids{controllers: map[string]*Controller{}}
	if reg == nil {
		return g, nil
	}
	for _, entity := range reg.Entities() {
		if err := g.Add(entity, base); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Add builds and stores a controller for entity, replacing any existing one.
func (g *Grids) Add(entity EntityConfig, base Options) error {
	opts := base
	opts.Entity = entity
	ctrl, err := NewController(opts)
	if err != nil {
		return fmt.Errorf("datagrid: grid %s: %w", entity.Code, err)
	}
	g.Put(ctrl)
	return nil
}

// Put stores ctrl under its entity code.
func (g *Grids) Put(ctrl *Controller) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.controllers[ctrl.Entity().Code] = ctrl
}

// Controller returns the grid registered under code.
func (g *Grids) Controller(code string) (*Controller, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ctrl, ok := g.controllers[code]
	return ctrl, ok
}

// Codes lists grid codes sorted.
func (g *Grids) Codes() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.controllers))
	for code := range g.controllers {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}
