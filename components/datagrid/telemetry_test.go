package datagrid

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogTelemetryWritesDebugFields(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	LogTelemetry(logrus.NewEntry(logger)).Record(context.Background(), "datagrid.fetch", map[string]any{"page": 2})
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.DebugLevel, entry.Level)
	assert.Equal(t, "datagrid.fetch", entry.Data["event"])
	assert.Equal(t, 2, entry.Data["page"])
}

func TestLogTelemetryNilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		LogTelemetry(nil).Record(context.Background(), "x", nil)
	})
}
