// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/philquery/internal/catalog"
	"github.com/pdiddy/philquery/pkg/types"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "Manage the local catalogue of corpus sources (sync, list, export)",
	Long: `Sources manages a local SQLite catalogue of the texts the backend can
draw on. The catalogue backs the Available Sources sidebar and keeps it
usable while the backend is unreachable.`,
}

// --- sync subcommand ---

var sourcesSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch the source list from the backend into the catalogue",
	Long: `Sync fetches the available sources from the backend and replaces the
catalogue contents. Entries missing a title, author or URL are skipped. On
failure the catalogue is left unchanged.`,
	RunE: runSourcesSync,
}

func runSourcesSync(cmd *cobra.Command, args []string) error {
	cfg, logger, client, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Refresh(context.Background(), client)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Synced %d sources into %s\n", n, store.Path())
	return nil
}

// --- list subcommand ---

var sourcesListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List catalogued sources, optionally filtered by title or author",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSourcesList,
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := catalog.ListOptions{Limit: limit}
	if len(args) > 0 {
		opts.Query = args[0]
	}
	sources, err := store.List(context.Background(), opts)
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sources)
	}
	formatSourceTable(os.Stdout, sources)
	return nil
}

func formatSourceTable(w io.Writer, sources []types.AvailableSource) {
	if len(sources) == 0 {
		fmt.Fprintln(w, "No sources found. Run 'philquery sources sync' first.")
		return
	}
	fmt.Fprintf(w, "%-4s  %-40s  %-24s  %s\n", "#", "TITLE", "AUTHOR", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for i, s := range sources {
		fmt.Fprintf(w, "%-4d  %-40s  %-24s  %s\n", i+1, truncate(s.Title, 40), truncate(s.Author, 24), s.URL)
	}
	fmt.Fprintf(w, "\n%d sources\n", len(sources))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// --- export subcommand ---

var sourcesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the catalogue as YAML or JSON",
	RunE:  runSourcesExport,
}

func runSourcesExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	output, _ := cmd.Flags().GetString("output")

	store, err := openCatalog()
	if err != nil {
		return err
	}
	defer store.Close()

	w := io.Writer(os.Stdout)
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("creating %s: %w", output, err)
		}
		defer f.Close()
		w = f
	}

	ctx := context.Background()
	switch format {
	case "yaml":
		err = store.ExportYAML(ctx, w, catalog.ListOptions{})
	case "json":
		err = store.ExportJSON(ctx, w, catalog.ListOptions{})
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	if output != "" {
		fmt.Fprintf(os.Stderr, "Exported catalogue to %s\n", output)
	}
	return nil
}

func openCatalog() (*catalog.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return catalog.NewStore(cfg.Catalog)
}

func init() {
	sourcesListCmd.Flags().Int("limit", 0, "maximum number of sources to list (default 500)")
	sourcesListCmd.Flags().Bool("json", false, "output as JSON")

	sourcesExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	sourcesExportCmd.Flags().StringP("output", "o", "", "write to file instead of stdout")

	sourcesCmd.AddCommand(sourcesSyncCmd)
	sourcesCmd.AddCommand(sourcesListCmd)
	sourcesCmd.AddCommand(sourcesExportCmd)
	rootCmd.AddCommand(sourcesCmd)
}
