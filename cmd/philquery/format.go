// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/philquery/internal/citations"
	"github.com/pdiddy/philquery/internal/format"
	"github.com/pdiddy/philquery/pkg/types"
)

var formatCmd = &cobra.Command{
	Use:   "format [file]",
	Short: "Render answer text to sanitized HTML without contacting the backend",
	Long: `Format reads answer text from a file (or stdin when no file is given)
and prints the sanitized HTML the web page would show for it.

With --citations, a JSON file holding a backend citations field (an array of
citation objects, an array of bracket references, or a string of either) is
parsed as well and the output becomes a JSON object with the markup and the
citation records.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFormat,
}

// formatOutput is the JSON shape printed by format --json.
type formatOutput struct {
	Mode      types.QueryMode        `json:"mode"`
	Markup    string                 `json:"answer_html"`
	Citations []types.CitationRecord `json:"citations"`
}

func runFormat(cmd *cobra.Command, args []string) error {
	modeFlag, _ := cmd.Flags().GetString("mode")
	citationsPath, _ := cmd.Flags().GetString("citations")
	asJSON, _ := cmd.Flags().GetBool("json")

	mode, err := types.ParseQueryMode(modeFlag)
	if err != nil {
		return err
	}

	content, err := readInput(args)
	if err != nil {
		return err
	}
	markup := format.Format(string(content), mode)

	if citationsPath == "" && !asJSON {
		fmt.Fprintln(os.Stdout, markup)
		return nil
	}

	records := []types.CitationRecord{}
	if citationsPath != "" {
		data, err := os.ReadFile(citationsPath)
		if err != nil {
			return fmt.Errorf("reading citations: %w", err)
		}
		records = citations.Parse(citations.Detect(json.RawMessage(data)))
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(formatOutput{Mode: mode, Markup: string(markup), Citations: records})
}

func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", args[0], err)
	}
	return data, nil
}

func init() {
	formatCmd.Flags().String("mode", string(types.ModeUnderstanding), "formatting mode: understanding or retrieval")
	formatCmd.Flags().String("citations", "", "JSON file holding a citations field to parse")
	formatCmd.Flags().Bool("json", false, "print markup and citations as JSON")

	rootCmd.AddCommand(formatCmd)
}
