package datagrid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterReconcilerKeepsSelectionApart(t *testing.T) {
	r := NewFilterReconciler(func() FilterState {
		return FilterState{Filters: Filters{"status": {"open"}}}
	})

	r.SetSelection(Filters{"owner": {"me"}})
	r.SetSearch("acme")
	assert.True(t, r.Dirty())
	assert.Equal(t, Filters{"status": {"open"}}, r.Applied().Filters)
	assert.Empty(t, r.Applied().Search)

	applied := r.Commit()
	assert.Equal(t, Filters{"status": {"open"}, "owner": {"me"}}, applied.Filters)
	assert.Equal(t, "acme", applied.Search)
	assert.False(t, r.Dirty())
}

func TestFilterReconcilerSetSelectionRemovesEmptyKeys(t *testing.T) {
	r := NewFilterReconciler(nil)
	r.SetSelection(Filters{"status": {"open"}})
	r.SetSelection(Filters{"status": nil})
	assert.Empty(t, r.Selection().Filters)
}

func TestFilterReconcilerDiscardAndReset(t *testing.T) {
	calls := 0
	r := NewFilterReconciler(func() FilterState {
		calls++
		return FilterState{Filters: Filters{"quarter": {"Q1"}}}
	})
	r.SetSelection(Filters{"quarter": {"Q3"}})
	r.Commit()

	r.SetSelection(Filters{"quarter": {"Q4"}})
	r.DiscardSelection()
	assert.Equal(t, "Q3", r.Selection().Filters.Get("quarter"))

	reset := r.ResetSelectionToDefaults()
	assert.Equal(t, "Q1", reset.Filters.Get("quarter"))
	assert.Equal(t, reset, r.Applied())
	assert.Equal(t, 2, calls, "defaults are recomputed on reset")
}

func TestFilterReconcilerReturnsCopies(t *testing.T) {
	r := NewFilterReconciler(nil)
	r.SetSelection(Filters{"a": {"1"}})
	sel := r.Selection()
	sel.Filters["a"][0] = "mutated"
	assert.Equal(t, "1", r.Selection().Filters.Get("a"))
}

func TestFilterReconcilerCommitTrimsSearch(t *testing.T) {
	r := NewFilterReconciler(nil)
	r.SetSearch("  spaced  ")
	assert.Equal(t, "spaced", r.Commit().Search)
}
