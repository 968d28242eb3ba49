package datagrid

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
version: 1
name: crm
base_url: https://api.example.com
entities:
  - code: invoices
    name: Invoices
    collection: /invoices
    list_method: POST
    per_page: 50
    columns:
      - key: id
        label: ID
      - key: amount
        label: Amount
      - key: paid_pct
        label: Paid
        hidden: true
      - key: action
        label: Actions
    required_fields: [amount]
    percent_fields: [paid_pct]
    default_filters:
      status: [open]
    write_roles: [1, 2]
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	assert.Equal(t, "crm", doc.Name)
	assert.Equal(t, "https://api.example.com", doc.BaseURL)
	require.Len(t, doc.Entities, 1)

	entity := doc.Entities[0]
	assert.Equal(t, "invoices", entity.Code)
	assert.Equal(t, "POST", entity.ListMethod)
	assert.Equal(t, 50, entity.PerPage)
	assert.True(t, entity.Columns[2].Hidden)
	assert.Equal(t, Filters{"status": {"open"}}, entity.DefaultFilters)
	assert.Equal(t, []int{1, 2}, entity.WriteRoles)
}

func TestDecodeManifestRejectsUnknownVersion(t *testing.T) {
	_, err := DecodeManifest(strings.NewReader("version: 7\nentities: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported manifest version")
}

func TestRegistryLoadManifestFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "grids.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o600))

	reg := NewEmptyRegistry()
	doc, err := reg.LoadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	entity, ok := reg.Entity("invoices")
	require.True(t, ok)
	assert.Equal(t, "/invoices", entity.Collection)
	assert.Equal(t, path, reg.Source("invoices"))
}

func TestRegistryLoadManifestFileMissing(t *testing.T) {
	_, err := NewEmptyRegistry().LoadManifestFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestWriteManifestRoundTrip(t *testing.T) {
	doc := &GridManifestDocument{Version: ManifestVersion, Name: "presets", Entities: DefaultEntities()}
	var buf bytes.Buffer
	require.NoError(t, WriteManifest(&buf, doc))

	decoded, err := DecodeManifest(&buf)
	require.NoError(t, err)
	require.Len(t, decoded.Entities, len(doc.Entities))
	assert.Equal(t, doc.Entities[0].Code, decoded.Entities[0].Code)
	assert.Equal(t, doc.Entities[0].Columns, decoded.Entities[0].Columns)
}
