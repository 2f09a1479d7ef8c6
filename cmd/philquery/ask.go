// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/philquery/internal/answer"
	"github.com/pdiddy/philquery/internal/metrics"
	"github.com/pdiddy/philquery/pkg/types"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Send one question to the backend and print the answer",
	Long: `Ask sends a question to the backend in the chosen mode and prints the
formatted result. The default text output shows the raw answer followed by
the sources consulted; --format html prints the sanitized answer markup, and
json or yaml print the whole result record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, logger, client, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	modeFlag, _ := cmd.Flags().GetString("mode")
	chunks, _ := cmd.Flags().GetInt("chunks")
	format, _ := cmd.Flags().GetString("format")

	qm := cfg.Query.Mode
	if modeFlag != "" {
		if qm, err = types.ParseQueryMode(modeFlag); err != nil {
			return err
		}
	}
	if chunks == 0 {
		chunks = cfg.Query.ChunkCount
	}

	svc := answer.NewService(client, metrics.New(prometheus.NewRegistry()), logger)
	result, err := svc.Ask(context.Background(), strings.Join(args, " "), chunks, qm)
	if err != nil {
		return err
	}
	return writeResult(os.Stdout, result, format)
}

func writeResult(w io.Writer, result types.QueryResult, format string) error {
	switch format {
	case "text", "":
		formatResultText(w, result)
		return nil
	case "html":
		_, err := fmt.Fprintln(w, result.Markup)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(result)
	default:
		return fmt.Errorf("unsupported format %q: use text, html, json or yaml", format)
	}
}

func formatResultText(w io.Writer, result types.QueryResult) {
	fmt.Fprintf(w, "Query: %s\n", result.Query)
	fmt.Fprintf(w, "Mode:  %s\n", result.Mode)
	fmt.Fprintln(w, strings.Repeat("-", 72))
	fmt.Fprintln(w, strings.TrimSpace(result.Answer))

	if len(result.Sources) == 0 {
		return
	}
	fmt.Fprintf(w, "\nSources Consulted (%d)\n", len(result.Sources))
	fmt.Fprintln(w, strings.Repeat("-", 72))
	for i, c := range result.Sources {
		fmt.Fprintf(w, "%2d. %s", i+1, c.Title)
		if c.Author != "" {
			fmt.Fprintf(w, " (%s)", c.Author)
		}
		fmt.Fprintln(w)
		if c.Excerpt != "" {
			fmt.Fprintf(w, "    %q\n", c.Excerpt)
		}
		if c.Resolved() {
			fmt.Fprintf(w, "    %s\n", c.URL)
		}
	}
}

func init() {
	askCmd.Flags().String("mode", "", "query mode: understanding or retrieval (default from config)")
	askCmd.Flags().Int("chunks", 0, fmt.Sprintf("passages to consult, %d-%d (default from config)", types.MinChunkCount, types.MaxChunkCount))
	askCmd.Flags().String("format", "text", "output format: text, html, json or yaml")

	rootCmd.AddCommand(askCmd)
}
