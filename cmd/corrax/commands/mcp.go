package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corraxdev/corrax/internal/observability"
	"github.com/corraxdev/corrax/internal/result"
)

// NewMCPCommand builds the `corrax mcp` command: a stdio MCP server
// exposing the corrax_analyze tool to an agent host.
func NewMCPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server exposing analysis as a tool over stdio",
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return runMCP(cobraCmd.Context(), debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and always-on tracing")

	return cmd
}

func runMCP(ctx context.Context, debug bool) error {
	providers, err := initObservability(observability.ModeMCP, debug)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	opMetrics, err := observability.NewOperationMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init operation metrics: %w", err)
	}

	stageMetrics, err := observability.NewStageMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init stage metrics: %w", err)
	}

	analyze := newInlineAnalyzeFunc(stageMetrics)

	srv := result.NewMCPServer(analyze, result.MCPDeps{
		Logger:  providers.Logger,
		Metrics: opMetrics,
		Tracer:  providers.Tracer,
	})

	return srv.Run(ctx)
}
