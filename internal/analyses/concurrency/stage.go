package concurrency

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage wires concurrency hazard detection into the pipeline as
// pipeline.StageConcurrency, gated by config.StageConcurrency.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageConcurrency, func(ctx context.Context, repo *pipeline.RepoView, _ *config.ValidatedConfig) error {
		summary := Analyze(repo, Config{})

		pipeline.SetSummary(ctx, pipeline.StageConcurrency, summary)

		return nil
	})
}
