// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/philquery/pkg/types"
)

// Export is the document written by ExportYAML and ExportJSON.
type Export struct {
	SyncedAt *time.Time              `json:"synced_at,omitempty" yaml:"synced_at,omitempty"`
	Count    int                     `json:"count" yaml:"count"`
	Sources  []types.AvailableSource `json:"sources" yaml:"sources"`
}

// ExportYAML writes the catalogue matching opts to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, opts ListOptions) error {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// ExportJSON writes the catalogue matching opts to w as indented JSON.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, opts ListOptions) error {
	doc, err := s.export(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

const exportLimit = 100000

func (s *Store) export(ctx context.Context, opts ListOptions) (Export, error) {
	opts.Limit = exportLimit
	sources, err := s.List(ctx, opts)
	if err != nil {
		return Export{}, fmt.Errorf("querying for export: %w", err)
	}
	doc := Export{Count: len(sources), Sources: sources}
	if at, ok, err := s.SyncedAt(ctx); err != nil {
		return Export{}, err
	} else if ok {
		doc.SyncedAt = &at
	}
	return doc, nil
}
