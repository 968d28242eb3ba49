package datagrid

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// EntityHook lets packages register grids during init().
type EntityHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []EntityHook
)

// RegisterEntityHook registers a hook executed against new registries.
func RegisterEntityHook(h EntityHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Registry stores entity configurations discoverable via presets, hooks or manifests.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]EntityConfig
	sources  map[string]string
}

// NewRegistry builds a registry seeded with DefaultEntities and global hooks.
func NewRegistry() *Registry {
	reg := NewEmptyRegistry()
	for _, entity := range DefaultEntities() {
		_ = reg.Register(entity)
	}
	_ = reg.ApplyHooks()
	return reg
}

// NewEmptyRegistry builds a registry without presets.
func NewEmptyRegistry() *Registry {
	return &Registry{
		entities: map[string]EntityConfig{},
		sources:  map[string]string{},
	}
}

// ApplyHooks executes registered entity hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// Register adds or replaces an entity configuration.
func (r *Registry) Register(entity EntityConfig) error {
	if entity.Code == "" {
		return errors.New("datagrid: entity code is required")
	}
	if entity.Collection == "" {
		return fmt.Errorf("datagrid: entity %s: %w", entity.Code, errMissingCollection)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[entity.Code] = entity
	return nil
}

// Entity returns the configuration for code.
func (r *Registry) Entity(code string) (EntityConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, ok := r.entities[code]
	return entity, ok
}

// Source returns the manifest path an entity was loaded from, if any.
func (r *Registry) Source(code string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sources[code]
}

// Entities lists registered entities sorted by code.
func (r *Registry) Entities() []EntityConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]EntityConfig, 0, len(r.entities))
	for _, entity := range r.entities {
		out = append(out, entity)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (r *Registry) recordSource(code, source string) {
	if source == "" {
		return
	}
	r.mu.Lock()
	r.sources[code] = source
	r.mu.Unlock()
}
