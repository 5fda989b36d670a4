package pta

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/graphs"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// Summary is the points-to stage's pipeline-attached result: the
// flow-insensitive Result plus which algorithm fired, and the
// alias-resolved call graph built on top of the alias facts. No other
// stage reads it back; heap runs pta.Analyze itself.
type Summary struct {
	Algorithm AlgorithmUsed
	VarCount  int
	Result    *Result
	CallGraph *graphs.CallGraph
}

// RegisterStage wires points-to analysis into the pipeline as
// pipeline.StagePointsTo, gated by config.StagePTA.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StagePointsTo, func(ctx context.Context, repo *pipeline.RepoView, cfg *config.ValidatedConfig) error {
		result := Analyze(repo, cfg.EffectivePTA())

		pipeline.SetSummary(ctx, pipeline.StagePointsTo, Summary{
			Algorithm: result.Algorithm,
			VarCount:  result.VarCount,
			Result:    result,
			CallGraph: ResolveCallGraph(repo, result),
		})

		return nil
	})
}
