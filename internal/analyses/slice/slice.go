// Package slice computes backward program slices over the merged
// repository graph's data and control dependence edges: given a
// criterion node (typically a call site or return site worth auditing),
// it returns every node that node's value transitively depends on.
package slice

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// dependenceEdges are the IR edge kinds a slice walks backward across.
// EdgeDFGWrite/EdgeAlias/EdgeDFGRead all point from the dependent node
// to the node providing its value (see pta's copy-constraint comment);
// EdgeCFGNext is walked in reverse too, since a node's reachability can
// depend on the branch condition that preceded it.
var dependenceEdges = map[ir.EdgeKind]bool{
	ir.EdgeDFGWrite: true,
	ir.EdgeDFGRead:  true,
	ir.EdgeAlias:    true,
	ir.EdgeCFGNext:  true,
}

// Slice is the backward dependence closure of one criterion node.
type Slice struct {
	Criterion string
	Function  string
	Nodes     []string
	Truncated bool
}

// Summary is the whole-repository slicing outcome: one slice per
// criterion node (every CallSite and ReturnSite).
type Summary struct {
	Slices []Slice
}

// Config bounds the backward closure walk.
type Config struct {
	MaxNodes int
}

const defaultMaxNodes = 500

// Analyze computes a backward slice for every CallSite and ReturnSite
// node across every document in repo.
func Analyze(repo *pipeline.RepoView, cfg Config) Summary {
	maxNodes := cfg.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}

	var slices []Slice

	for _, doc := range repo.Documents() {
		slices = append(slices, analyzeDocument(doc, maxNodes)...)
	}

	return Summary{Slices: slices}
}

// AnalyzeDocument computes slices for a single file, for use as a
// KindPerFile stage.
func AnalyzeDocument(doc *ir.IRDocument, cfg Config) Summary {
	maxNodes := cfg.MaxNodes
	if maxNodes <= 0 {
		maxNodes = defaultMaxNodes
	}

	return Summary{Slices: analyzeDocument(doc, maxNodes)}
}

func analyzeDocument(doc *ir.IRDocument, maxNodes int) []Slice {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	preds := make(map[string][]string) // node -> nodes it depends on (edge.To of its data edges, edge.From of CFG edges into it)
	for _, e := range doc.Edges {
		if !dependenceEdges[e.Kind] {
			continue
		}

		if e.Kind == ir.EdgeCFGNext {
			preds[e.To] = append(preds[e.To], e.From)
			continue
		}

		preds[e.From] = append(preds[e.From], e.To)
	}

	owner := ownerFunctions(doc, byID)

	var slices []Slice

	for _, n := range doc.Nodes {
		if n.Kind != ir.KindCallSite && n.Kind != ir.KindReturnSite {
			continue
		}

		nodes, truncated := backwardClosure(n.ID, preds, maxNodes)

		slices = append(slices, Slice{
			Criterion: n.ID,
			Function:  owner[n.ID],
			Nodes:     nodes,
			Truncated: truncated,
		})
	}

	sort.Slice(slices, func(i, j int) bool { return slices[i].Criterion < slices[j].Criterion })

	return slices
}

func backwardClosure(start string, preds map[string][]string, maxNodes int) ([]string, bool) {
	visited := map[string]bool{start: true}
	queue := []string{start}
	truncated := false

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, p := range preds[cur] {
			if visited[p] {
				continue
			}

			if len(visited) >= maxNodes {
				truncated = true

				break
			}

			visited[p] = true
			queue = append(queue, p)
		}
	}

	out := make([]string, 0, len(visited))
	for id := range visited {
		if id == start {
			continue
		}

		out = append(out, id)
	}

	sort.Strings(out)

	return out, truncated
}

func ownerFunctions(doc *ir.IRDocument, byID map[string]*ir.Node) map[string]string {
	out := make(map[string]string)

	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeContains {
			continue
		}

		owner, ok := byID[e.From]
		if !ok || (owner.Kind != ir.KindFunction && owner.Kind != ir.KindMethod) {
			continue
		}

		out[e.To] = owner.Name
	}

	return out
}
