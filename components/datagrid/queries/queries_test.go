package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/pkg/restclient"
)

func newGrids(t *testing.T) *datagrid.Grids {
	t.Helper()
	client := restclient.NewMockClient()
	reg := datagrid.NewRegistry()
	for _, entity := range reg.Entities() {
		client.SeedEntity(entity, 30)
	}
	logger, _ := test.NewNullLogger()
	grids, err := datagrid.NewGrids(reg, datagrid.Options{Client: client, Logger: logrus.NewEntry(logger)})
	if err != nil {
		t.Fatalf("NewGrids: %v", err)
	}
	return grids
}

func TestGridStateQuery(t *testing.T) {
	query := NewGridStateQuery(newGrids(t))

	state, err := query.Query(context.Background(), GridStateInput{Grid: "leads"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(state.Result.Rows) != 0 {
		t.Fatalf("expected empty snapshot before refresh, got %d rows", len(state.Result.Rows))
	}

	state, err = query.Query(context.Background(), GridStateInput{Grid: "leads", Refresh: true})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if state.Grid != "leads" || state.Result.Total != 30 || state.Result.LastPage != 2 {
		t.Fatalf("unexpected snapshot %+v", state.Result)
	}
	if len(state.PageStrip) == 0 {
		t.Fatalf("expected page strip")
	}
}

func TestGridStateQueryUnknownGrid(t *testing.T) {
	_, err := NewGridStateQuery(newGrids(t)).Query(context.Background(), GridStateInput{Grid: "missing"})
	if !errors.Is(err, ErrUnknownGrid) {
		t.Fatalf("expected ErrUnknownGrid, got %v", err)
	}
}

func TestRowQuery(t *testing.T) {
	query := NewRowQuery(newGrids(t))
	row, err := query.Query(context.Background(), RowInput{Grid: "leads", ID: "7"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if row.ID() != "7" {
		t.Fatalf("expected row 7, got %v", row)
	}
	if _, err := query.Query(context.Background(), RowInput{Grid: "leads", ID: "999"}); err == nil {
		t.Fatalf("expected not found error")
	}
}
