package commands

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/observability"
	"github.com/corraxdev/corrax/internal/parserfacade"
	"github.com/corraxdev/corrax/internal/pipeline"
	"github.com/corraxdev/corrax/internal/result"
)

// newInlineAnalyzeFunc builds a result.AnalyzeFunc running the fast
// preset over a single in-memory source: the shape both the LSP and MCP
// surfaces need for one-shot, low-latency analysis of a buffer or tool
// argument rather than a whole repository.
func newInlineAnalyzeFunc(metrics *observability.StageMetrics) result.AnalyzeFunc {
	return func(ctx context.Context, path string, content []byte) (*pipeline.Result, error) {
		cfg, err := loadConfig(config.PresetFast, "")
		if err != nil {
			return nil, err
		}

		orch := newOrchestrator(cfg, "", metrics)

		lang := parserfacade.DetectLanguage(path, content)

		return orch.Run(ctx, []pipeline.Source{{Path: path, Language: lang, Content: content}})
	}
}
