package datagrid

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// GridManifestDocument models a YAML/JSON manifest describing entity grids.
type GridManifestDocument struct {
	Version  string         `json:"version" yaml:"version"`
	Name     string         `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL  string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Entities []EntityConfig `json:"entities" yaml:"entities"`
	Source   string         `json:"-" yaml:"-"`
}

// LoadManifestFile reads a manifest from disk, registers it and returns the document.
func (r *Registry) LoadManifestFile(path string) (*GridManifestDocument, error) {
	doc, err := ReadManifest(path)
	if err != nil {
		return nil, err
	}
	if err := r.LoadManifestDocument(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadManifestDocument registers every entity of a decoded manifest.
func (r *Registry) LoadManifestDocument(doc *GridManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("datagrid: manifest document is nil")
	}
	for _, entity := range doc.Entities {
		if err := r.Register(entity); err != nil {
			return fmt.Errorf("datagrid: register entity %s from %s: %w", entity.Code, doc.Source, err)
		}
		r.recordSource(entity.Code, doc.Source)
	}
	return nil
}

// ReadManifest loads a manifest file from disk without registering it.
func ReadManifest(path string) (*GridManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("datagrid: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("datagrid: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest parses a YAML (or JSON) manifest.
func DecodeManifest(r io.Reader) (*GridManifestDocument, error) {
	var doc GridManifestDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, err
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if doc.Version != manifestVersionV1 {
		return nil, fmt.Errorf("unsupported manifest version %q", doc.Version)
	}
	return &doc, nil
}

// WriteManifest encodes doc as YAML.
func WriteManifest(w io.Writer, doc *GridManifestDocument) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("datagrid: write manifest: %w", err)
	}
	return encoder.Close()
}
