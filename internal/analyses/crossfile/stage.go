package crossfile

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds cross-file resolution to registry as a
// KindCrossFile stage (pipeline.StageCrossFile, gated by
// config.StageCrossFile).
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageCrossFile, func(ctx context.Context, repo *pipeline.RepoView, _ *config.ValidatedConfig) error {
		summary := Resolve(repo)

		pipeline.SetSummary(ctx, pipeline.StageCrossFile, summary)

		return nil
	})
}
