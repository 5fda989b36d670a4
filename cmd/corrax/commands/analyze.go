package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/corraxdev/corrax/cmd/corrax/internal/naiveir"
	"github.com/corraxdev/corrax/cmd/corrax/internal/wiring"
	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/observability"
	"github.com/corraxdev/corrax/internal/parserfacade"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// declaredLanguages is every language the default parser is registered
// for; a real grammar binding would register the same set with its own
// Parser implementations instead.
var declaredLanguages = []parserfacade.Language{
	parserfacade.LanguageGo, parserfacade.LanguagePython, parserfacade.LanguageJavaScript,
	parserfacade.LanguageTypeScript, parserfacade.LanguageRust, parserfacade.LanguageJava,
	parserfacade.LanguageKotlin, parserfacade.LanguageC, parserfacade.LanguageCPP,
}

type analyzeFlags struct {
	preset       string
	configPath   string
	cacheDir     string
	outputFormat string
	noColor      bool
	debug        bool
}

// NewAnalyzeCommand builds the `corrax analyze` command: it wires a
// complete Orchestrator (every analysis stage, the default parser,
// observability) and runs it over the given paths.
func NewAnalyzeCommand() *cobra.Command {
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Run the analysis pipeline over one or more source files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cobraCmd *cobra.Command, args []string) error {
			return runAnalyze(cobraCmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.preset, "preset", "balanced", "analysis preset: fast, balanced, thorough, custom")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to a declarative config document")
	cmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "", "directory for the on-disk document cache tier (disabled when empty)")
	cmd.Flags().StringVar(&flags.outputFormat, "format", "text", "output format: text or json")
	cmd.Flags().BoolVar(&flags.noColor, "no-color", false, "disable colored output")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "enable debug logging and always-on tracing")

	return cmd
}

func runAnalyze(ctx context.Context, paths []string, flags *analyzeFlags) error {
	if flags.noColor {
		color.NoColor = true //nolint:reassign // intentional override of library global, see cmd/uast/validate.go
	}

	providers, err := initObservability(observability.ModeCLI, flags.debug)
	if err != nil {
		return fmt.Errorf("init observability: %w", err)
	}

	defer func() {
		if shutdownErr := providers.Shutdown(context.Background()); shutdownErr != nil {
			providers.Logger.Warn("observability shutdown failed", "error", shutdownErr)
		}
	}()

	stageMetrics, err := observability.NewStageMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("init stage metrics: %w", err)
	}

	cfg, err := loadConfig(parsePreset(flags.preset), flags.configPath)
	if err != nil {
		return err
	}

	sources, err := readSources(paths)
	if err != nil {
		return err
	}

	orch := newOrchestrator(cfg, flags.cacheDir, stageMetrics)

	res, err := orch.Run(ctx, sources)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	return renderResult(os.Stdout, res, flags.outputFormat)
}

// newOrchestrator assembles an Orchestrator with every analysis stage
// registered and the naive default Parser/BuildIRFunc pair. A real
// deployment would register language-specific tree-sitter-backed
// parsers here instead of naiveir.Parser; internal/ir and the analysis
// packages never know the difference, since both only ever see an
// *ir.IRDocument.
func newOrchestrator(cfg *config.ValidatedConfig, cacheDir string, metrics *observability.StageMetrics) *pipeline.Orchestrator {
	facade := parserfacade.New()
	for _, lang := range declaredLanguages {
		facade.Register(lang, naiveir.Parser)
	}

	return pipeline.New(pipeline.Options{
		Facade:        facade,
		BuildIR:       naiveir.BuildIR,
		Registry:      wiring.NewRegistry(),
		Config:        cfg,
		CacheDiskRoot: cacheDir,
		Metrics:       metrics,
	})
}

func readSources(paths []string) ([]pipeline.Source, error) {
	sources := make([]pipeline.Source, 0, len(paths))

	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}

		lang := parserfacade.DetectLanguage(filepath.Clean(p), content)

		sources = append(sources, pipeline.Source{
			Path:     p,
			Language: lang,
			Content:  content,
		})
	}

	return sources, nil
}
