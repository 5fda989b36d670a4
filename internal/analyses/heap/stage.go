package heap

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage wires heap safety checking into the pipeline as
// pipeline.StageHeap, gated by config.StageHeap.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageHeap, func(ctx context.Context, repo *pipeline.RepoView, cfg *config.ValidatedConfig) error {
		summary := Analyze(repo, Config{PTA: cfg.EffectivePTA()})

		pipeline.SetSummary(ctx, pipeline.StageHeap, summary)

		return nil
	})
}
