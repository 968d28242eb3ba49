package datagrid

import (
	"sort"
	"sync"
)

// ColumnVisibility tracks hidden column keys. The action column is always visible.
type ColumnVisibility struct {
	mu       sync.RWMutex
	columns  []Column
	defaults map[string]bool
	hidden   map[string]bool
}

// NewColumnVisibility seeds hidden columns from Column.Hidden.
func NewColumnVisibility(columns []Column) *ColumnVisibility {
	v := &ColumnVisibility{
		columns:  append([]Column(nil), columns...),
		defaults: map[string]bool{},
		hidden:   map[string]bool{},
	}
	for _, col := range columns {
		if col.Hidden && col.Key != ActionColumn {
			v.defaults[col.Key] = true
			v.hidden[col.Key] = true
		}
	}
	return v
}

// Toggle flips visibility of key. Toggling the action column is a no-op.
func (v *ColumnVisibility) Toggle(key string) {
	if key == ActionColumn || key == "" {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.hidden[key] {
		delete(v.hidden, key)
		return
	}
	v.hidden[key] = true
}

// Reset restores the configured defaults.
func (v *ColumnVisibility) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden = make(map[string]bool, len(v.defaults))
	for k := range v.defaults {
		v.hidden[k] = true
	}
}

// ShowAll clears every hidden key.
func (v *ColumnVisibility) ShowAll() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden = map[string]bool{}
}

// Restore replaces the hidden set, ignoring the action column.
func (v *ColumnVisibility) Restore(hidden []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hidden = make(map[string]bool, len(hidden))
	for _, key := range hidden {
		if key == ActionColumn || key == "" {
			continue
		}
		v.hidden[key] = true
	}
}

// Visible reports whether key is shown.
func (v *ColumnVisibility) Visible(key string) bool {
	if key == ActionColumn {
		return true
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return !v.hidden[key]
}

// Hidden returns the hidden keys sorted.
func (v *ColumnVisibility) Hidden() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.hidden))
	for k := range v.hidden {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// States returns every configured column with its visibility.
func (v *ColumnVisibility) States() []ColumnState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]ColumnState, len(v.columns))
	for i, col := range v.columns {
		out[i] = ColumnState{
			Key:     col.Key,
			Label:   col.Label,
			Visible: col.Key == ActionColumn || !v.hidden[col.Key],
		}
	}
	return out
}

// VisibleColumns returns configured columns that are shown, excluding the action column.
func (v *ColumnVisibility) VisibleColumns() []Column {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]Column, 0, len(v.columns))
	for _, col := range v.columns {
		if col.Key == ActionColumn || v.hidden[col.Key] {
			continue
		}
		out = append(out, col)
	}
	return out
}
