package datagrid_test

import (
	"testing"

	"github.com/goliatone/go-datagrid/pkg/datagrid"
	"github.com/goliatone/go-datagrid/pkg/restclient"
)

func TestNewGridsDefaultsToPresetRegistry(t *testing.T) {
	grids, err := datagrid.NewGrids(nil, datagrid.Options{Client: restclient.NewMockClient()})
	if err != nil {
		t.Fatalf("NewGrids returned error: %v", err)
	}
	if _, ok := grids.Controller("leads"); !ok {
		t.Fatalf("expected preset leads grid")
	}
}

func TestNewControllerRequiresClient(t *testing.T) {
	if _, err := datagrid.NewController(datagrid.Options{Entity: datagrid.EntityConfig{Code: "x", Collection: "/x"}}); err == nil {
		t.Fatalf("expected error without client")
	}
}
