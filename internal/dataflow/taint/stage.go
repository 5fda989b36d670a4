package taint

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds the taint cross-file stage to registry, using
// matchers to classify sources, sinks, and sanitizers and external (which
// may be nil) as the SMT orchestrator's stage-3 solver.
func RegisterStage(registry *pipeline.Registry, matchers Matchers, external ExternalSolver) {
	registry.RegisterCrossFileStage(pipeline.StageTaint, func(ctx context.Context, repo *pipeline.RepoView, cfg *config.ValidatedConfig) error {
		summary := Analyze(repo, Config{
			TaintConfig:    cfg.EffectiveTaint(),
			Matchers:       matchers,
			ExternalSolver: external,
		})

		pipeline.SetSummary(ctx, pipeline.StageTaint, summary)

		return nil
	})
}
