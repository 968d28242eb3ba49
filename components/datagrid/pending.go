package datagrid

import "sync"

// PendingKind enumerates in-flight CRUD actions.
type PendingKind string

const (
	PendingIdle     PendingKind = "idle"
	PendingCreating PendingKind = "creating"
	PendingUpdating PendingKind = "updating"
	PendingDeleting PendingKind = "deleting"
)

// newRecordKey is the pending-table key used for create, which has no id yet.
const newRecordKey = ""

// PendingAction is the in-flight action for one target.
type PendingAction struct {
	Kind     PendingKind `json:"kind"`
	TargetID string      `json:"target_id,omitempty"`
}

// Idle reports whether nothing is in flight.
func (p PendingAction) Idle() bool {
	return p.Kind == "" || p.Kind == PendingIdle
}

type pendingTable struct {
	mu      sync.Mutex
	actions map[string]PendingAction
}

func newPendingTable() *pendingTable {
	return &pendingTable{actions: map[string]PendingAction{}}
}

// begin marks target busy, failing when an action for it is already running.
func (t *pendingTable) begin(kind PendingKind, target string) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, busy := t.actions[target]; busy {
		return nil, ErrActionInFlight
	}
	t.actions[target] = PendingAction{Kind: kind, TargetID: target}
	return func() {
		t.mu.Lock()
		delete(t.actions, target)
		t.mu.Unlock()
	}, nil
}

func (t *pendingTable) get(target string) PendingAction {
	t.mu.Lock()
	defer t.mu.Unlock()
	if action, ok := t.actions[target]; ok {
		return action
	}
	return PendingAction{Kind: PendingIdle, TargetID: target}
}

func (t *pendingTable) snapshot() map[string]PendingAction {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.actions) == 0 {
		return nil
	}
	out := make(map[string]PendingAction, len(t.actions))
	for k, v := range t.actions {
		out[k] = v
	}
	return out
}
