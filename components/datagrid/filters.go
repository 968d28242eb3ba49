package datagrid

import (
	"strings"
	"sync"
)

// FilterState is one side of the reconciler: filter values plus free-text search.
type FilterState struct {
	Filters Filters `json:"filters"`
	Search  string  `json:"search"`
}

func (s FilterState) clone() FilterState {
	return FilterState{Filters: s.Filters.Clone(), Search: s.Search}
}

// DefaultsFunc produces the default filter state for a grid.
type DefaultsFunc func() FilterState

// FilterReconciler keeps the edited selection apart from the applied filters so that
// typing in a filter control never issues a request.
type FilterReconciler struct {
	mu        sync.RWMutex
	selection FilterState
	applied   FilterState
	defaults  DefaultsFunc
}

// NewFilterReconciler seeds both sides from defaults.
func NewFilterReconciler(defaults DefaultsFunc) *FilterReconciler {
	if defaults == nil {
		defaults = func() FilterState { return FilterState{Filters: Filters{}} }
	}
	initial := normalizeFilterState(defaults())
	return &FilterReconciler{
		selection: initial.clone(),
		applied:   initial.clone(),
		defaults:  defaults,
	}
}

// SetSelection merges partial into the selection. A key mapped to no values is removed.
func (r *FilterReconciler) SetSelection(partial Filters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range partial {
		if len(v) == 0 {
			delete(r.selection.Filters, k)
			continue
		}
		r.selection.Filters[k] = append([]string(nil), v...)
	}
}

// SetSearch updates the selection search text.
func (r *FilterReconciler) SetSearch(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection.Search = text
}

// Selection returns the in-progress edits.
func (r *FilterReconciler) Selection() FilterState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.selection.clone()
}

// Applied returns the committed state read by fetches.
func (r *FilterReconciler) Applied() FilterState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.applied.clone()
}

// Commit copies selection into applied and returns the applied snapshot.
func (r *FilterReconciler) Commit() FilterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = r.selection.clone()
	r.applied.Search = strings.TrimSpace(r.applied.Search)
	return r.applied.clone()
}

// Replace overwrites the selection with state and commits it in one step.
func (r *FilterReconciler) Replace(state FilterState) FilterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection.Filters = normalizeFilters(state.Filters)
	r.selection.Search = state.Search
	r.applied = r.selection.clone()
	r.applied.Search = strings.TrimSpace(r.applied.Search)
	return r.applied.clone()
}

// ResetSelectionToDefaults restores the defaults and commits them.
func (r *FilterReconciler) ResetSelectionToDefaults() FilterState {
	r.mu.Lock()
	r.selection = normalizeFilterState(r.defaults())
	r.mu.Unlock()
	return r.Commit()
}

// DiscardSelection drops uncommitted edits.
func (r *FilterReconciler) DiscardSelection() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selection = r.applied.clone()
}

// Dirty reports whether the selection differs from the applied state.
func (r *FilterReconciler) Dirty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !filterStatesEqual(r.selection, r.applied)
}

func normalizeFilterState(s FilterState) FilterState {
	return FilterState{Filters: normalizeFilters(s.Filters), Search: s.Search}
}

func normalizeFilters(f Filters) Filters {
	out := Filters{}
	for k, v := range f {
		if len(v) == 0 {
			continue
		}
		out[k] = append([]string(nil), v...)
	}
	return out
}

func filterStatesEqual(a, b FilterState) bool {
	if a.Search != b.Search || len(a.Filters) != len(b.Filters) {
		return false
	}
	for k, av := range a.Filters {
		bv, ok := b.Filters[k]
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if av[i] != bv[i] {
				return false
			}
		}
	}
	return true
}
