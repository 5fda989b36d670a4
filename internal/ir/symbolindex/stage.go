package symbolindex

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// RegisterStage binds symbol indexing to registry as a KindCrossFile
// stage (pipeline.StageSymbols, structural, always on). Documents whose
// IR builder emitted no occurrences still contribute their declaration
// nodes as synthesized definition occurrences, so the index is never
// empty just because a thin parser skipped occurrence extraction. The
// run's summary is the *Index itself.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterCrossFileStage(pipeline.StageSymbols, func(ctx context.Context, repo *pipeline.RepoView, _ *config.ValidatedConfig) error {
		idx := New()

		for _, doc := range repo.Documents() {
			if len(doc.Occurrences) == 0 {
				synthesizeOccurrences(doc)
			}

			idx.Add(doc)
		}

		pipeline.SetSummary(ctx, pipeline.StageSymbols, idx)

		return nil
	})
}

// declOccurrenceKinds maps declaration node kinds to the SyntaxKind their
// synthesized occurrence carries.
var declOccurrenceKinds = map[ir.Kind]string{
	ir.KindFunction:  "function",
	ir.KindMethod:    "method",
	ir.KindClass:     "class",
	ir.KindStruct:    "struct",
	ir.KindInterface: "interface",
	ir.KindVariable:  "variable",
}

func synthesizeOccurrences(doc *ir.IRDocument) {
	for _, n := range doc.Nodes {
		kind, ok := declOccurrenceKinds[n.Kind]
		if !ok {
			continue
		}

		doc.Occurrences = append(doc.Occurrences, ir.Occurrence{
			Symbol:     n.Name,
			File:       n.File,
			StartLine:  n.StartLine,
			EndLine:    n.EndLine,
			IsDef:      true,
			SyntaxKind: kind,
		})
	}
}
