package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, 3500*time.Millisecond, cfg.NotifyAfter)
	assert.Equal(t, 25, cfg.PerPage)
	assert.Equal(t, logrus.InfoLevel, cfg.Logger().GetLevel())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("DATAGRID_BASE_URL", "https://crm.example.com/api")
	t.Setenv("DATAGRID_TIMEOUT", "3s")
	t.Setenv("DATAGRID_PER_PAGE", "100")
	t.Setenv("DATAGRID_LOG_LEVEL", "debug")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/api", cfg.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.PerPage)
	assert.Equal(t, logrus.DebugLevel, cfg.Logger().GetLevel())
}

func TestParseRejectsInvalidValues(t *testing.T) {
	t.Setenv("DATAGRID_PER_PAGE", "30")
	_, err := Parse()
	assert.ErrorContains(t, err, "DATAGRID_PER_PAGE")

	t.Setenv("DATAGRID_PER_PAGE", "25")
	t.Setenv("DATAGRID_LOG_LEVEL", "chatty")
	_, err = Parse()
	assert.ErrorContains(t, err, "DATAGRID_LOG_LEVEL")
}

func TestLoadReadsEnvFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("DATAGRID_MANIFEST=grids.yaml\n"), 0o600))
	t.Setenv("DATAGRID_MANIFEST", "")
	require.NoError(t, os.Unsetenv("DATAGRID_MANIFEST"))

	n, err := LoadEnv([]string{file, filepath.Join(dir, "missing.env")})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, "grids.yaml", cfg.Manifest)
}
