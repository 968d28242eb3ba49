package queries

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

// ErrUnknownGrid is returned for unregistered grid codes.
var ErrUnknownGrid = errors.New("queries: unknown grid")

type gridLookup interface {
	Controller(code string) (*datagrid.Controller, bool)
}

func resolve(grids gridLookup, code string) (*datagrid.Controller, error) {
	if grids == nil {
		return nil, errors.New("queries: grid lookup not configured")
	}
	ctrl, ok := grids.Controller(code)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGrid, code)
	}
	return ctrl, nil
}

// GridStateInput selects a grid. Refresh refetches the current page first.
type GridStateInput struct {
	Grid    string `json:"grid"`
	Refresh bool   `json:"refresh"`
}

// GridStateQuery returns the presentation snapshot of a grid.
type GridStateQuery struct {
	grids gridLookup
}

// NewGridStateQuery builds the query.
func NewGridStateQuery(grids gridLookup) *GridStateQuery {
	return &GridStateQuery{grids: grids}
}

var _ gocommand.Querier[GridStateInput, datagrid.GridState] = (*GridStateQuery)(nil)

// Query resolves the grid snapshot. A failed refresh still returns the snapshot,
// which carries the banner and notification the failure produced.
func (q *GridStateQuery) Query(ctx context.Context, in GridStateInput) (datagrid.GridState, error) {
	ctrl, err := resolve(q.grids, in.Grid)
	if err != nil {
		return datagrid.GridState{}, err
	}
	if in.Refresh {
		if err := ctrl.FetchPage(ctx); err != nil && !errors.Is(err, datagrid.ErrStaleResponse) {
			return ctrl.State(), err
		}
	}
	return ctrl.State(), nil
}

// RowInput names a single record.
type RowInput struct {
	Grid string `json:"grid"`
	ID   string `json:"id"`
}

// RowQuery fetches one record, falling back to the loaded page.
type RowQuery struct {
	grids gridLookup
}

func NewRowQuery(grids gridLookup) *RowQuery {
	return &RowQuery{grids: grids}
}

var _ gocommand.Querier[RowInput, datagrid.Row] = (*RowQuery)(nil)

func (q *RowQuery) Query(ctx context.Context, in RowInput) (datagrid.Row, error) {
	ctrl, err := resolve(q.grids, in.Grid)
	if err != nil {
		return nil, err
	}
	return ctrl.View(ctx, in.ID)
}
