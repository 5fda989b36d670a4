package typestate

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage wires typestate checking into the pipeline as
// pipeline.StageTypestate, gated by config.StageTypestate. Typestate
// has no dedicated tunable block in config.ValidatedConfig; it runs
// with the package's builtin protocol set.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageTypestate, func(ctx context.Context, repo *pipeline.RepoView, _ *config.ValidatedConfig) error {
		summary := Analyze(repo, Config{})

		pipeline.SetSummary(ctx, pipeline.StageTypestate, summary)

		return nil
	})
}
