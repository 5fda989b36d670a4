package graphs

import (
	"context"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// Summary aggregates the flow-graphs stage's per-procedure counts.
type Summary struct {
	Functions    int
	Blocks       int
	DefUses      int
	SSADefs      int
	Phis         int
	DerivedEdges int
}

// PDGSummary aggregates the PDG stage's dependence-edge counts.
type PDGSummary struct {
	Functions   int
	DataDeps    int
	ControlDeps int
}

// RegisterStage binds the two structural graph stages. StageFlowGraphs
// derives any missing intra-procedural flow edges (making downstream
// solvers work even over a minimal IR builder) and accounts CFG/DFG/SSA
// sizes; StagePDG builds each procedure's dependence graph and accounts
// its edges. Both are per-file and ungated: derived graphs always exist
// for whatever runs after them.
func RegisterStage(registry *pipeline.Registry) {
	registry.RegisterFileStage(pipeline.StageFlowGraphs, func(ctx context.Context, doc *ir.IRDocument, _ *config.ValidatedConfig) error {
		derived := DeriveFlowEdges(doc)

		var s Summary

		for _, fn := range Functions(doc) {
			cfg := BuildCFG(doc, fn)
			dfg := BuildDFG(doc, fn)
			ssa := BuildSSA(doc, fn, cfg)

			s.Functions++
			s.Blocks += len(cfg.Blocks)
			s.DefUses += len(dfg.DefUses)
			s.SSADefs += len(ssa.Defs)
			s.Phis += len(ssa.Phis)
		}

		s.DerivedEdges = derived

		pipeline.UpdateSummary(ctx, pipeline.StageFlowGraphs, func(current any) any {
			merged, _ := current.(Summary)
			merged.Functions += s.Functions
			merged.Blocks += s.Blocks
			merged.DefUses += s.DefUses
			merged.SSADefs += s.SSADefs
			merged.Phis += s.Phis
			merged.DerivedEdges += s.DerivedEdges

			return merged
		})

		return nil
	})

	registry.RegisterFileStage(pipeline.StagePDG, func(ctx context.Context, doc *ir.IRDocument, _ *config.ValidatedConfig) error {
		var s PDGSummary

		for _, fn := range Functions(doc) {
			pdg := BuildPDG(doc, fn)

			s.Functions++

			for _, e := range pdg.Edges {
				if e.Kind == DepData {
					s.DataDeps++
				} else {
					s.ControlDeps++
				}
			}
		}

		pipeline.UpdateSummary(ctx, pipeline.StagePDG, func(current any) any {
			merged, _ := current.(PDGSummary)
			merged.Functions += s.Functions
			merged.DataDeps += s.DataDeps
			merged.ControlDeps += s.ControlDeps

			return merged
		})

		return nil
	})
}
