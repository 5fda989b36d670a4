package repomap

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage wires repository relevance ranking into the pipeline as
// pipeline.StageRepomap, gated by config.StageRepomap.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageRepomap, func(ctx context.Context, repo *pipeline.RepoView, cfg *config.ValidatedConfig) error {
		summary := Analyze(repo, Config{TopK: cfg.EffectiveRepomap().TopK})

		pipeline.SetSummary(ctx, pipeline.StageRepomap, summary)

		return nil
	})
}
