package escape

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds escape analysis to registry as a KindPerFile stage
// (pipeline.StageEscape, gated by config.StageEscape). Escape has no
// dedicated tunable block in config.ValidatedConfig; it runs with the
// package's own default iteration cap.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterFileStage(pipeline.StageEscape, func(ctx context.Context, doc *ir.IRDocument, _ *config.ValidatedConfig) error {
		summary := AnalyzeDocument(doc, Config{})

		pipeline.UpdateSummary(ctx, pipeline.StageEscape, func(current any) any {
			merged, _ := current.(Summary)
			merged.Sites = append(merged.Sites, summary.Sites...)
			merged.Iterations = max(merged.Iterations, summary.Iterations)
			merged.Truncated = merged.Truncated || summary.Truncated

			return merged
		})

		return nil
	})
}
