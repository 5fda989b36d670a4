package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/corraxdev/corrax/internal/observability"
	"github.com/corraxdev/corrax/internal/result"
)

// NewLSPCommand builds the `corrax lsp` command: a long-lived stdio LSP
// server publishing diagnostics built from the pipeline's per-file
// errors on every document open/change/save.
func NewLSPCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start an LSP server publishing analysis diagnostics over stdio",
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			return runLSP(cobraCmd.Context(), debug)
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging and always-on tracing")

	return cmd
}

func runLSP(ctx context.Context, debug bool) error {
	providers, err := initObservability(observability.ModeLSP, debug)
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

	srv := result.NewLSPServer(analyze, result.LSPDeps{
		Logger:  providers.Logger,
		Metrics: opMetrics,
		Tracer:  providers.Tracer,
	})

	_ = ctx // server blocks on stdio; cancellation is out of scope for stdio transports

	return srv.Run()
}
