package graphs

import (
	"github.com/corraxdev/corrax/internal/ir"
)

// DeriveFlowEdges fills in the intra-procedural flow edges a thin IR
// builder leaves out: sequential EdgeCFGNext edges between a function's
// statements in source order, and EdgeDFGRead edges from each use to the
// definition reaching it. Functions that already carry a CFG edge are
// left alone — a real IR builder's flow is authoritative — and every
// derived edge is deduplicated against the document, so the pass is
// idempotent. Returns how many edges were added.
func DeriveFlowEdges(doc *ir.IRDocument) int {
	existing := make(map[[3]string]bool, len(doc.Edges))
	for _, e := range doc.Edges {
		existing[[3]string{e.From, e.To, string(e.Kind)}] = true
	}

	added := 0

	add := func(from, to string, kind ir.EdgeKind) {
		key := [3]string{from, to, string(kind)}
		if existing[key] {
			return
		}

		existing[key] = true

		doc.AddEdge(ir.NewEdge(from, to, kind))

		added++
	}

	for _, fn := range Functions(doc) {
		stmts := Statements(doc, fn)

		if !hasCFGEdges(doc, stmts) && len(stmts) > 0 {
			// The entry edge from the procedure node is what lets a
			// solver seeded at procedure entries reach the body.
			add(fn.ID, stmts[0].ID, ir.EdgeCFGNext)

			for i := 0; i+1 < len(stmts); i++ {
				add(stmts[i].ID, stmts[i+1].ID, ir.EdgeCFGNext)
			}
		}

		dfg := BuildDFG(doc, fn)
		for _, du := range dfg.DefUses {
			add(du.Use, du.Def, ir.EdgeDFGRead)
		}
	}

	return added
}

func hasCFGEdges(doc *ir.IRDocument, stmts []*ir.Node) bool {
	inFunc := make(map[string]bool, len(stmts))
	for _, s := range stmts {
		inFunc[s.ID] = true
	}

	for _, e := range doc.Edges {
		if e.Kind == ir.EdgeCFGNext && inFunc[e.From] {
			return true
		}
	}

	return false
}
