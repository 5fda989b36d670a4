// Package main provides the entry point for the corrax CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/corraxdev/corrax/cmd/corrax/commands"
	"github.com/corraxdev/corrax/internal/version"
)

var (
	verbose bool
	quiet   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "corrax",
		Short: "Corrax static analysis engine",
		Long: `Corrax analyzes source repositories for taint flows, points-to
relationships, clones, typestate and concurrency violations, heap
aliasing, slicing and repository-level structure.

Commands:
  analyze   Run the analysis pipeline over one or more source files
  config    Inspect and validate the effective configuration
  lsp       Start an LSP server publishing diagnostics over stdio
  mcp       Start an MCP server exposing analysis as a tool over stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress output")

	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewLSPCommand())
	rootCmd.AddCommand(commands.NewMCPCommand())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "corrax %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
