package lexical

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds lexical indexing to registry as a KindPerFile
// stage (pipeline.StageLexical, gated by config.StageLexical). The
// run's summary is the *Index itself: every file folds its terms into
// one shared index under the summary store's lock.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterFileStage(pipeline.StageLexical, func(ctx context.Context, doc *ir.IRDocument, _ *config.ValidatedConfig) error {
		freqs := DocumentTerms(doc)

		pipeline.UpdateSummary(ctx, pipeline.StageLexical, func(current any) any {
			ix, ok := current.(*Index)
			if !ok {
				ix = NewIndex()
			}

			ix.Remove(doc.File.Path)
			ix.Add(doc.File.Path, freqs)

			return ix
		})

		return nil
	})
}
