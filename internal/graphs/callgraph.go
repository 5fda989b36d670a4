package graphs

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
)

// CallGraph is the repository call graph: call-site node id to callee
// function node ids, plus the reverse index. Direct edges come from
// EdgeCalls; indirect-call targets resolved by alias analysis are folded
// in through BuildCallGraph's extra parameter.
type CallGraph struct {
	Callees map[string][]string
	Callers map[string][]string
}

// BuildCallGraph assembles the call graph over docs. extra carries
// alias-resolved indirect-call targets (call-site node id -> callee
// function node ids), the points-to stage's contribution; pass nil when
// points-to did not run. Target lists come out sorted and deduplicated.
func BuildCallGraph(docs []*ir.IRDocument, extra map[string][]string) *CallGraph {
	cg := &CallGraph{
		Callees: make(map[string][]string),
		Callers: make(map[string][]string),
	}

	for _, doc := range docs {
		for _, e := range doc.Edges {
			if e.Kind == ir.EdgeCalls {
				cg.addEdge(e.From, e.To)
			}
		}
	}

	for site, targets := range extra {
		for _, t := range targets {
			cg.addEdge(site, t)
		}
	}

	for site := range cg.Callees {
		cg.Callees[site] = sortedUnique(cg.Callees[site])
	}

	for callee := range cg.Callers {
		cg.Callers[callee] = sortedUnique(cg.Callers[callee])
	}

	return cg
}

func (cg *CallGraph) addEdge(site, callee string) {
	cg.Callees[site] = append(cg.Callees[site], callee)
	cg.Callers[callee] = append(cg.Callers[callee], site)
}

func sortedUnique(ids []string) []string {
	sort.Strings(ids)

	out := ids[:0]

	for i, id := range ids {
		if i == 0 || ids[i-1] != id {
			out = append(out, id)
		}
	}

	return out
}
