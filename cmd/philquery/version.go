// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of philquery",
	Run: func(cmd *cobra.Command, args []string) {
		short, _ := cmd.Flags().GetBool("short")
		writeVersion(os.Stdout, short, readRevision())
	},
}

// writeVersion prints the release, and unless short, the VCS revision and
// Go toolchain the binary was built with.
func writeVersion(w io.Writer, short bool, revision string) {
	if short {
		fmt.Fprintln(w, version)
		return
	}
	fmt.Fprintf(w, "philquery %s\n", version)
	if revision != "" {
		fmt.Fprintf(w, "  revision: %s\n", revision)
	}
	fmt.Fprintf(w, "  go:       %s\n", runtime.Version())
}

// readRevision returns the vcs.revision stamped by the Go toolchain, if any.
func readRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

func init() {
	versionCmd.Flags().Bool("short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}
