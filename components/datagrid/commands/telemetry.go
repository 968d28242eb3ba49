package commands

import "github.com/goliatone/go-datagrid/components/datagrid"

// Telemetry receives one datagrid.command.* event per executed command.
type Telemetry = datagrid.Telemetry

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return datagrid.NopTelemetry
	}
	return t
}
