package datagrid

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// Telemetry records grid events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function to Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

// NopTelemetry discards every event.
var NopTelemetry Telemetry = TelemetryFunc(func(context.Context, string, map[string]any) {})

// LogTelemetry writes events as debug lines with the payload as fields.
func LogTelemetry(logger *logrus.Entry) Telemetry {
	if logger == nil {
		return NopTelemetry
	}
	return TelemetryFunc(func(_ context.Context, event string, payload map[string]any) {
		logger.WithFields(logrus.Fields(payload)).WithField("event", event).Debug("telemetry")
	})
}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return NopTelemetry
	}
	return t
}

type noopStateHook struct{}

func (noopStateHook) GridUpdated(context.Context, GridEvent) error { return nil }

// StateHooks fans a grid event out to every hook and joins their errors.
type StateHooks []StateHook

func (hooks StateHooks) GridUpdated(ctx context.Context, event GridEvent) error {
	var errs []error
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook.GridUpdated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
