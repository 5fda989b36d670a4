package clone

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage wires clone detection into the pipeline as
// pipeline.StageClone, gated by config.StageClone.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageClone, func(ctx context.Context, repo *pipeline.RepoView, cfg *config.ValidatedConfig) error {
		summary := Analyze(repo, Config{CloneConfig: cfg.EffectiveClone()})

		pipeline.SetSummary(ctx, pipeline.StageClone, summary)

		return nil
	})
}
