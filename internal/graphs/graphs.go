// Package graphs builds the derived graphs the analysis stages consume:
// per-procedure control-flow graphs with branch conditions, def-use
// chains, SSA numbering with phi placement at merges, program dependence
// graphs, and the repository call graph. Derived graphs reference only
// node ids present in the IR, are recomputed from it within a run, and
// are never persisted.
package graphs

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
)

// statementKinds are the node kinds that participate in a procedure's
// control flow. Declaration-only kinds (parameters, fields) and the
// procedure node itself are excluded.
var statementKinds = map[ir.Kind]bool{
	ir.KindAssignment: true,
	ir.KindCallSite:   true,
	ir.KindBranch:     true,
	ir.KindLoop:       true,
	ir.KindReturnSite: true,
	ir.KindVariable:   true,
	ir.KindIdentifier: true,
}

// Functions returns doc's Function and Method nodes sorted by start
// line, ties broken by name.
func Functions(doc *ir.IRDocument) []*ir.Node {
	var fns []*ir.Node

	for _, n := range doc.Nodes {
		if n.Kind == ir.KindFunction || n.Kind == ir.KindMethod {
			fns = append(fns, n)
		}
	}

	sort.Slice(fns, func(i, j int) bool {
		if fns[i].StartLine != fns[j].StartLine {
			return fns[i].StartLine < fns[j].StartLine
		}

		return fns[i].Name < fns[j].Name
	})

	return fns
}

// Statements returns the statement nodes fn contains via EdgeContains,
// sorted by start line. Source order is the tiebreak of last resort:
// two statements on one line keep their edge-vector order.
func Statements(doc *ir.IRDocument, fn *ir.Node) []*ir.Node {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	var stmts []*ir.Node

	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeContains || e.From != fn.ID {
			continue
		}

		n, ok := byID[e.To]
		if !ok || !statementKinds[n.Kind] {
			continue
		}

		stmts = append(stmts, n)
	}

	sort.SliceStable(stmts, func(i, j int) bool {
		return stmts[i].StartLine < stmts[j].StartLine
	})

	return stmts
}
