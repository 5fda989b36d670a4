package chunking

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds the chunker to registry as a KindPerFile stage
// (pipeline.StageChunking, gated by config.StageChunking). The computed
// chunk vector is attached to the document itself; the summary only
// carries counts.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterFileStage(pipeline.StageChunking, func(ctx context.Context, doc *ir.IRDocument, cfg *config.ValidatedConfig) error {
		doc.Chunks = Chunk(doc, cfg.EffectiveChunking())

		pipeline.UpdateSummary(ctx, pipeline.StageChunking, func(current any) any {
			merged, ok := current.(Summary)
			if !ok {
				merged = Summary{ByKind: make(map[ir.ChunkKind]int)}
			}

			for _, c := range doc.Chunks {
				merged.TotalChunks++
				merged.ByKind[c.Kind]++
			}

			return merged
		})

		return nil
	})
}
