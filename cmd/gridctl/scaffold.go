package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ettle/strcase"

	"github.com/goliatone/go-datagrid/components/datagrid"
)

type scaffoldCmd struct {
	Code         string   `required:"" help:"Entity grid code (e.g. acme.things)."`
	Collection   string   `required:"" help:"REST collection path (e.g. /things)."`
	Name         string   `help:"Display name (defaults to a title derived from the code)."`
	ManifestPath string   `name:"manifest" required:"" type:"path" help:"Manifest YAML file to update."`
	Column       []string `help:"Column as key or key:Label; repeat for each column (defaults to id and name)."`
	Required     []string `help:"Fields required on create/update."`
	Percent      []string `help:"Fields rendered as normalized percentages."`
	ListMethod   string   `name:"list-method" default:"GET" enum:"GET,POST" help:"List request method."`
	SearchParam  string   `name:"search-param" default:"search" help:"Query parameter carrying free-text search."`
	Overwrite    bool     `help:"Replace an existing manifest entry with the same code."`
}

func (cmd *scaffoldCmd) Run(_ context.Context) error {
	if strings.TrimSpace(cmd.Code) == "" {
		return errors.New("gridctl: entity code is required")
	}
	manifestPath, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("gridctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(manifestPath)
	if err != nil {
		return err
	}
	entity, err := cmd.entity()
	if err != nil {
		return err
	}

	replaced := false
	for idx := range doc.Entities {
		if doc.Entities[idx].Code != cmd.Code {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("gridctl: manifest already defines entity %s (use --overwrite to replace)", cmd.Code)
		}
		doc.Entities[idx] = entity
		replaced = true
		break
	}
	if !replaced {
		doc.Entities = append(doc.Entities, entity)
	}
	sort.Slice(doc.Entities, func(i, j int) bool {
		return doc.Entities[i].Code < doc.Entities[j].Code
	})

	if err := writeManifest(manifestPath, doc); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "✓ Added %s (%s) to %s\n", cmd.Code, entity.Collection, manifestPath)
	return nil
}

func (cmd *scaffoldCmd) entity() (datagrid.EntityConfig, error) {
	columns, err := parseColumns(cmd.Column)
	if err != nil {
		return datagrid.EntityConfig{}, err
	}
	name := cmd.Name
	if name == "" {
		name = deriveName(cmd.Code)
	}
	return datagrid.EntityConfig{
		Code:           cmd.Code,
		Name:           name,
		Collection:     "/" + strings.Trim(cmd.Collection, "/"),
		ListMethod:     cmd.ListMethod,
		SearchParam:    cmd.SearchParam,
		Columns:        append(columns, datagrid.Column{Key: datagrid.ActionColumn, Label: "Actions"}),
		RequiredFields: cmd.Required,
		PercentFields:  cmd.Percent,
	}, nil
}

func parseColumns(raw []string) ([]datagrid.Column, error) {
	if len(raw) == 0 {
		raw = []string{"id:ID", "name"}
	}
	columns := make([]datagrid.Column, 0, len(raw))
	for _, item := range raw {
		key, label, _ := strings.Cut(item, ":")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("gridctl: column %q has no key", item)
		}
		if key == datagrid.ActionColumn {
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" {
			label = deriveName(key)
		}
		columns = append(columns, datagrid.Column{Key: strcase.ToSnake(key), Label: label})
	}
	return columns, nil
}

// deriveName titles the last dotted segment of code: acme.kpi_goals -> Kpi Goals.
func deriveName(code string) string {
	parts := strings.Split(code, ".")
	slug := strings.TrimSpace(parts[len(parts)-1])
	if slug == "" {
		slug = code
	}
	words := strings.Split(strcase.ToSnake(slug), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func loadOrInitManifest(path string) (*datagrid.GridManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &datagrid.GridManifestDocument{
				Version:  datagrid.ManifestVersion,
				Entities: []datagrid.EntityConfig{},
				Source:   path,
			}, nil
		}
		return nil, fmt.Errorf("gridctl: stat manifest: %w", err)
	}
	return datagrid.ReadManifest(path)
}

func writeManifest(path string, doc *datagrid.GridManifestDocument) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("gridctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	file, err := os.Create(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("gridctl: create manifest %s: %w", path, err)
	}
	defer file.Close()
	return datagrid.WriteManifest(file, doc)
}
