package datagrid

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// ColumnPreferenceStore persists hidden columns per viewer and grid.
type ColumnPreferenceStore interface {
	HiddenColumns(ctx context.Context, viewerID, grid string) ([]string, bool, error)
	SaveHiddenColumns(ctx context.Context, viewerID, grid string, hidden []string) error
}

// InMemoryColumnPreferences is a concurrency-safe default store.
type InMemoryColumnPreferences struct {
	mu   sync.RWMutex
	data map[string][]string
}

// NewInMemoryColumnPreferences builds an empty store.
func NewInMemoryColumnPreferences() *InMemoryColumnPreferences {
	return &InMemoryColumnPreferences{data: make(map[string][]string)}
}

// HiddenColumns returns the stored hidden keys; ok is false when nothing was saved.
func (s *InMemoryColumnPreferences) HiddenColumns(_ context.Context, viewerID, grid string) ([]string, bool, error) {
	if viewerID == "" {
		return nil, false, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	hidden, ok := s.data[key(viewerID, grid)]
	if !ok {
		return nil, false, nil
	}
	return append([]string(nil), hidden...), true, nil
}

// SaveHiddenColumns stores hidden keys, dropping the action column.
func (s *InMemoryColumnPreferences) SaveHiddenColumns(_ context.Context, viewerID, grid string, hidden []string) error {
	if viewerID == "" {
		return errors.New("datagrid: column preferences require viewer id")
	}
	cleaned := make([]string, 0, len(hidden))
	for _, k := range hidden {
		if k != "" && k != ActionColumn {
			cleaned = append(cleaned, k)
		}
	}
	sort.Strings(cleaned)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key(viewerID, grid)] = cleaned
	return nil
}

func key(viewerID, grid string) string {
	return viewerID + "::" + grid
}

// LoadColumnPreferences restores the hidden columns saved for viewerID. Nothing
// changes when the viewer has no saved preference.
func (c *Controller) LoadColumnPreferences(ctx context.Context, store ColumnPreferenceStore, viewerID string) error {
	if store == nil {
		return nil
	}
	hidden, ok, err := store.HiddenColumns(ctx, viewerID, c.entity.Code)
	if err != nil || !ok {
		return err
	}
	c.RestoreColumns(hidden)
	return nil
}

// SaveColumnPreferences persists the current hidden columns for viewerID.
func (c *Controller) SaveColumnPreferences(ctx context.Context, store ColumnPreferenceStore, viewerID string) error {
	if store == nil {
		return nil
	}
	return store.SaveHiddenColumns(ctx, viewerID, c.entity.Code, c.columns.Hidden())
}
