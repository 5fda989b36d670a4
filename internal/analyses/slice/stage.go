package slice

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage wires program slicing into the pipeline as
// pipeline.StageSlicing, gated by config.StageSlicing. Slicing has no
// dedicated tunable block in config.ValidatedConfig; it runs with the
// package's own default node cap.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageSlicing, func(ctx context.Context, repo *pipeline.RepoView, _ *config.ValidatedConfig) error {
		summary := Analyze(repo, Config{})

		pipeline.SetSummary(ctx, pipeline.StageSlicing, summary)

		return nil
	})
}
