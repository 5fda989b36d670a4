package graphs

import (
	"github.com/corraxdev/corrax/internal/ir"
)

// BasicBlock is a maximal straight-line run of statement nodes: control
// enters at the first node and leaves after the last.
type BasicBlock struct {
	ID    int
	Nodes []string
}

// CFGEdge is a control edge between two basic blocks. Condition carries
// the source block's terminating branch condition text when the edge is
// conditional; Negated marks the false successor.
type CFGEdge struct {
	From      int
	To        int
	Condition string
	Negated   bool
}

// CFG is one procedure's control-flow graph.
type CFG struct {
	Function string
	Blocks   []BasicBlock
	Edges    []CFGEdge

	blockOf map[string]int
}

// BlockOf returns the block index holding nodeID, or -1.
func (c *CFG) BlockOf(nodeID string) int {
	if b, ok := c.blockOf[nodeID]; ok {
		return b
	}

	return -1
}

// Predecessors returns the block ids with an edge into block.
func (c *CFG) Predecessors(block int) []int {
	var preds []int

	for _, e := range c.Edges {
		if e.To == block {
			preds = append(preds, e.From)
		}
	}

	return preds
}

// Successors returns the block ids block has an edge to.
func (c *CFG) Successors(block int) []int {
	var succs []int

	for _, e := range c.Edges {
		if e.From == block {
			succs = append(succs, e.To)
		}
	}

	return succs
}

// BuildCFG derives fn's control-flow graph from doc's EdgeCFGNext edges:
// statement nodes become block members via standard leader analysis (a
// node leads a block when it is the procedure's first statement, has
// more than one predecessor, or follows a node with more than one
// successor), and the branch-condition convention matches the dataflow
// stages': the first recorded successor of a Branch node is its true
// edge, any other its false edge.
func BuildCFG(doc *ir.IRDocument, fn *ir.Node) *CFG {
	stmts := Statements(doc, fn)
	cfg := &CFG{Function: fn.ID, blockOf: make(map[string]int)}

	if len(stmts) == 0 {
		return cfg
	}

	inFunc := make(map[string]*ir.Node, len(stmts))
	for _, s := range stmts {
		inFunc[s.ID] = s
	}

	succs := make(map[string][]string)
	predCount := make(map[string]int)

	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeCFGNext {
			continue
		}

		if _, ok := inFunc[e.From]; !ok {
			continue
		}

		if _, ok := inFunc[e.To]; !ok {
			continue
		}

		succs[e.From] = append(succs[e.From], e.To)
		predCount[e.To]++
	}

	leaders := findLeaders(stmts, succs, predCount)
	cfg.Blocks = formBlocks(stmts, succs, leaders, cfg.blockOf)
	cfg.Edges = blockEdges(cfg, succs, inFunc)

	return cfg
}

func findLeaders(stmts []*ir.Node, succs map[string][]string, predCount map[string]int) map[string]bool {
	leaders := map[string]bool{stmts[0].ID: true}

	for _, s := range stmts {
		if predCount[s.ID] > 1 {
			leaders[s.ID] = true
		}

		if len(succs[s.ID]) > 1 {
			for _, t := range succs[s.ID] {
				leaders[t] = true
			}
		}
	}

	return leaders
}

// formBlocks walks each leader's straight-line run: follow the unique
// successor chain until the next leader, a fan-out, or a dead end.
func formBlocks(stmts []*ir.Node, succs map[string][]string, leaders map[string]bool, blockOf map[string]int) []BasicBlock {
	var blocks []BasicBlock

	for _, s := range stmts {
		if !leaders[s.ID] {
			continue
		}

		block := BasicBlock{ID: len(blocks)}

		for cur := s.ID; ; {
			block.Nodes = append(block.Nodes, cur)
			blockOf[cur] = block.ID

			next := succs[cur]
			if len(next) != 1 || leaders[next[0]] {
				break
			}

			cur = next[0]
		}

		blocks = append(blocks, block)
	}

	return blocks
}

func blockEdges(cfg *CFG, succs map[string][]string, inFunc map[string]*ir.Node) []CFGEdge {
	var edges []CFGEdge

	seen := make(map[[2]int]bool)

	for _, b := range cfg.Blocks {
		last := b.Nodes[len(b.Nodes)-1]
		lastNode := inFunc[last]

		for i, t := range succs[last] {
			to := cfg.blockOf[t]

			key := [2]int{b.ID, to}
			if seen[key] {
				continue
			}

			seen[key] = true

			edge := CFGEdge{From: b.ID, To: to}

			if cond, ok := lastNode.Attr(ir.AttrCondition); ok && lastNode.Kind == ir.KindBranch {
				edge.Condition = cond
				edge.Negated = i > 0
			}

			edges = append(edges, edge)
		}
	}

	return edges
}
