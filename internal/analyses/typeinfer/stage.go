package typeinfer

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds type inference to registry as a KindPerFile stage
// (pipeline.StageTypeInference, structural, always on).
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterFileStage(pipeline.StageTypeInference, func(ctx context.Context, doc *ir.IRDocument, _ *config.ValidatedConfig) error {
		summary := InferDocument(doc)

		pipeline.UpdateSummary(ctx, pipeline.StageTypeInference, func(current any) any {
			merged, _ := current.(Summary)
			merged.TypedNodes += summary.TypedNodes
			merged.LiteralTypes += summary.LiteralTypes
			merged.Propagated += summary.Propagated

			return merged
		})

		return nil
	})
}
