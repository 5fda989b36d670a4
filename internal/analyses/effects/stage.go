package effects

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds effect analysis to registry as a KindPerFile stage
// (pipeline.StageEffects, structural, always on).
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterFileStage(pipeline.StageEffects, func(ctx context.Context, doc *ir.IRDocument, _ *config.ValidatedConfig) error {
		summary := AnalyzeDocument(doc)

		pipeline.UpdateSummary(ctx, pipeline.StageEffects, func(current any) any {
			merged, _ := current.(Summary)
			merged.Effects = append(merged.Effects, summary.Effects...)
			merged.PureFns += summary.PureFns
			merged.IOFns += summary.IOFns

			return merged
		})

		return nil
	})
}
