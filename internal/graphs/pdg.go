package graphs

import (
	"github.com/corraxdev/corrax/internal/ir"
)

// DepKind distinguishes a PDG edge's dependence flavor.
type DepKind string

// PDG edge kinds.
const (
	DepData    DepKind = "data"
	DepControl DepKind = "control"
)

// PDGEdge is one dependence: To's execution or value depends on From.
type PDGEdge struct {
	From string
	To   string
	Kind DepKind
}

// PDG is one procedure's program dependence graph: the union of def-use
// data dependences and branch control dependences. The slice package
// does not read it; it walks IR edges directly.
type PDG struct {
	Function string
	Edges    []PDGEdge

	dependsOn map[string][]PDGEdge
}

// DependencesOf returns the edges into nodeID: everything nodeID
// depends on.
func (p *PDG) DependencesOf(nodeID string) []PDGEdge {
	return p.dependsOn[nodeID]
}

// BuildPDG combines fn's DFG def-use chains with control dependences
// derived from its CFG: every node in a block reached only through a
// branch's conditional edge is control-dependent on that branch. The
// control region is the conditional successor's straight-line extent up
// to the first merge block (a block with more than one predecessor),
// an approximation that is exact for structured if/else regions and
// conservative for unstructured flow.
func BuildPDG(doc *ir.IRDocument, fn *ir.Node) *PDG {
	pdg := &PDG{Function: fn.ID, dependsOn: make(map[string][]PDGEdge)}

	dfg := BuildDFG(doc, fn)
	for _, du := range dfg.DefUses {
		pdg.add(PDGEdge{From: du.Def, To: du.Use, Kind: DepData})
	}

	cfg := BuildCFG(doc, fn)
	for _, e := range cfg.Edges {
		if e.Condition == "" {
			continue
		}

		branch := cfg.Blocks[e.From].Nodes[len(cfg.Blocks[e.From].Nodes)-1]

		for _, block := range controlRegion(cfg, e.To) {
			for _, nodeID := range cfg.Blocks[block].Nodes {
				pdg.add(PDGEdge{From: branch, To: nodeID, Kind: DepControl})
			}
		}
	}

	return pdg
}

func (p *PDG) add(e PDGEdge) {
	for _, existing := range p.dependsOn[e.To] {
		if existing == e {
			return
		}
	}

	p.Edges = append(p.Edges, e)
	p.dependsOn[e.To] = append(p.dependsOn[e.To], e)
}

// controlRegion walks forward from start through single-predecessor
// blocks, stopping at merges, with a visited set so loop back-edges
// terminate.
func controlRegion(cfg *CFG, start int) []int {
	var region []int

	visited := make(map[int]bool)

	for cur := start; !visited[cur]; {
		if len(cfg.Predecessors(cur)) > 1 {
			break
		}

		visited[cur] = true
		region = append(region, cur)

		succs := cfg.Successors(cur)
		if len(succs) != 1 {
			break
		}

		cur = succs[0]
	}

	return region
}
