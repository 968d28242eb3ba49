package activity

import (
	"context"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

const defaultChannel = "datagrid"

// Config toggles activity emission.
type Config struct {
	Enabled bool
	Channel string
	// Actor resolves the acting user for grid events; optional.
	Actor func(ctx context.Context) string
}

// Emitter sends events to hooks and doubles as a datagrid.StateHook that turns
// successful create, update and delete transitions into events.
type Emitter struct {
	hooks Hooks
	cfg   Config
}

var _ datagrid.StateHook = (*Emitter)(nil)

func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	if cfg.Channel == "" {
		cfg.Channel = defaultChannel
	}
	return &Emitter{hooks: hooks, cfg: cfg}
}

// Enabled reports whether events reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

func (e *Emitter) Emit(ctx context.Context, evt Event) error {
	if !e.Enabled() {
		return nil
	}
	if evt.Channel == "" {
		evt.Channel = e.cfg.Channel
	}
	if evt.ActorID == "" && e.cfg.Actor != nil {
		evt.ActorID = e.cfg.Actor(ctx)
	}
	return e.hooks.Notify(ctx, evt)
}

var mutationVerbs = map[string]bool{"create": true, "update": true, "delete": true}

// GridUpdated emits an event for completed mutations and ignores every other
// transition.
func (e *Emitter) GridUpdated(ctx context.Context, event datagrid.GridEvent) error {
	if !mutationVerbs[event.Reason] {
		return nil
	}
	return e.Emit(ctx, Event{
		Verb:           event.Reason,
		ObjectType:     event.Grid,
		ObjectID:       event.TargetID,
		DefinitionCode: event.Grid + ":" + event.Reason,
		OccurredAt:     event.At,
	})
}
