package main

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-datagrid/components/datagrid"
	"github.com/goliatone/go-datagrid/pkg/config"
	"github.com/goliatone/go-datagrid/pkg/restclient"
	"github.com/goliatone/go-datagrid/pkg/session"
)

const mockRows = 120

type runtime struct {
	cfg      *config.Config
	logger   *logrus.Entry
	registry *datagrid.Registry
	grids    *datagrid.Grids
	session  *session.FileStore
}

func (c *cli) runtime() (*runtime, error) {
	cfg, err := config.Load(c.EnvFile...)
	if err != nil {
		return nil, err
	}
	logger := logrus.NewEntry(cfg.Logger()).WithField("app", "gridctl")

	reg := datagrid.NewRegistry()
	if cfg.Manifest != "" {
		if _, err := reg.LoadManifestFile(cfg.Manifest); err != nil {
			return nil, err
		}
	}

	store, err := session.OpenFileStore(cfg.SessionFile)
	if err != nil {
		return nil, err
	}

	var client datagrid.Client
	if c.Mock {
		mock := restclient.NewMockClient()
		for _, entity := range reg.Entities() {
			mock.SeedEntity(entity, mockRows)
		}
		client = mock
	} else {
		client, err = restclient.NewHTTPClient(restclient.HTTPConfig{
			BaseURL: cfg.BaseURL,
			Session: store,
			Timeout: cfg.Timeout,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
	}

	grids, err := datagrid.NewGrids(reg, datagrid.Options{
		Client:         client,
		Session:        store,
		Logger:         logger,
		Telemetry:      datagrid.LogTelemetry(logger),
		RequestTimeout: cfg.Timeout,
		NotifyAfter:    cfg.NotifyAfter,
	})
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, registry: reg, grids: grids, session: store}, nil
}

func (rt *runtime) controller(code string) (*datagrid.Controller, error) {
	ctrl, ok := rt.grids.Controller(code)
	if !ok {
		return nil, fmt.Errorf("gridctl: unknown entity %q (known: %s)", code, strings.Join(rt.grids.Codes(), ", "))
	}
	return ctrl, nil
}

// parseFilters turns repeated key=value flags into filters; repeated keys
// accumulate values.
func parseFilters(raw []string) (datagrid.Filters, error) {
	filters := datagrid.Filters{}
	for _, item := range raw {
		key, value, ok := strings.Cut(item, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("gridctl: filter %q must be key=value", item)
		}
		filters[key] = append(filters[key], strings.TrimSpace(value))
	}
	return filters, nil
}
