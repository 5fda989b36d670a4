package pta

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// FlowResult holds the per-program-point points-to state a flow-sensitive
// run produces: ProgramPoint is the IR node id at which the state holds,
// observed after that node executes.
type FlowResult struct {
	AtPoint       map[string]map[Var]PointsToSet
	WidenedPoints []string
}

// At returns the points-to set for v observed after point, or nil if the
// point was never reached.
func (f *FlowResult) At(point string, v Var) PointsToSet {
	pt, ok := f.AtPoint[point]
	if !ok {
		return nil
	}

	return pt[v]
}

// RunFlowSensitive computes per-program-point points-to sets over repo's
// merged CFG (EdgeCFGNext), applying a strong update whenever an
// assignment's right-hand side resolves to a single abstract object at
// that point (replace) and a weak update otherwise (union), per §4.4.4's
// flow-sensitive extension. Meet-over-paths joins predecessor states at
// merge points. Once a program point has been visited more than
// widenAfterIterations times, each variable its incoming state lacks
// takes its set from flowInsensitive; sets already present are kept.
func RunFlowSensitive(repo *pipeline.RepoView, cg *constraintGraph, flowInsensitive map[Var]PointsToSet, widenAfterIterations int) *FlowResult {
	if widenAfterIterations <= 0 {
		widenAfterIterations = 3
	}

	successors := make(map[string][]string)
	predecessors := make(map[string][]string)
	assignments := make(map[string]*ir.Node)
	order := make([]string, 0)

	for _, doc := range repo.Documents() {
		for _, n := range doc.Nodes {
			order = append(order, n.ID)

			if n.Kind == ir.KindAssignment {
				assignments[n.ID] = n
			}
		}

		for _, e := range doc.Edges {
			if e.Kind != ir.EdgeCFGNext {
				continue
			}

			successors[e.From] = append(successors[e.From], e.To)
			predecessors[e.To] = append(predecessors[e.To], e.From)
		}
	}

	sort.Strings(order)

	result := &FlowResult{AtPoint: make(map[string]map[Var]PointsToSet, len(order))}

	visits := make(map[string]int)

	worklist := append([]string(nil), order...)
	inWorklist := make(map[string]bool, len(order))

	for _, id := range worklist {
		inWorklist[id] = true
	}

	for len(worklist) > 0 {
		id := worklist[0]
		worklist = worklist[1:]
		inWorklist[id] = false

		visits[id]++

		incoming := meetPredecessors(predecessors[id], result.AtPoint)

		if visits[id] > widenAfterIterations {
			incoming = widenToFlowInsensitive(incoming, flowInsensitive)
			result.WidenedPoints = append(result.WidenedPoints, id)
		}

		next := applyAssignment(assignments[id], incoming, cg)

		if statesEqual(result.AtPoint[id], next) {
			continue
		}

		result.AtPoint[id] = next

		for _, succ := range successors[id] {
			if !inWorklist[succ] {
				worklist = append(worklist, succ)
				inWorklist[succ] = true
			}
		}
	}

	return result
}

func meetPredecessors(preds []string, at map[string]map[Var]PointsToSet) map[Var]PointsToSet {
	out := make(map[Var]PointsToSet)

	for _, p := range preds {
		for v, set := range at[p] {
			merged, ok := out[v]
			if !ok {
				merged = make(PointsToSet, len(set))
				out[v] = merged
			}

			for o := range set {
				merged[o] = struct{}{}
			}
		}
	}

	return out
}

// applyAssignment performs a strong update (replace) of each defined
// variable when the objects its used variables carry at this point form
// a singleton, and a weak update (union with the incoming state)
// otherwise. An assignment with no objects on its right-hand side leaves
// the state unchanged.
func applyAssignment(node *ir.Node, incoming map[Var]PointsToSet, cg *constraintGraph) map[Var]PointsToSet {
	out := make(map[Var]PointsToSet, len(incoming))
	for v, set := range incoming {
		out[v] = set
	}

	if node == nil {
		return out
	}

	for _, def := range splitAttrValue(node, ir.AttrDefs) {
		v := Var(def)

		sources := splitAttrValue(node, ir.AttrUses)

		rhs := make(PointsToSet)

		for _, src := range sources {
			for o := range incoming[Var(src)] {
				rhs[o] = struct{}{}
			}

			if obj, ok := cg.allocOf[Var(src)]; ok {
				rhs[obj] = struct{}{}
			}
		}

		if len(rhs) == 0 {
			continue
		}

		if len(rhs) == 1 {
			out[v] = rhs

			continue
		}

		merged := make(PointsToSet, len(out[v])+len(rhs))
		for o := range out[v] {
			merged[o] = struct{}{}
		}

		for o := range rhs {
			merged[o] = struct{}{}
		}

		out[v] = merged
	}

	return out
}

func widenToFlowInsensitive(incoming map[Var]PointsToSet, flowInsensitive map[Var]PointsToSet) map[Var]PointsToSet {
	out := make(map[Var]PointsToSet, len(incoming))
	for v, set := range incoming {
		out[v] = set
	}

	for v, set := range flowInsensitive {
		if _, ok := out[v]; !ok {
			out[v] = set
		}
	}

	return out
}

func statesEqual(a, b map[Var]PointsToSet) bool {
	if len(a) != len(b) {
		return false
	}

	for v, sa := range a {
		sb, ok := b[v]
		if !ok || len(sa) != len(sb) {
			return false
		}

		for o := range sa {
			if _, ok := sb[o]; !ok {
				return false
			}
		}
	}

	return true
}

func splitAttrValue(n *ir.Node, key string) []string {
	raw, ok := n.Attr(key)
	if !ok || raw == "" {
		return nil
	}

	var out []string

	start := 0

	for i := 0; i <= len(raw); i++ {
		if i == len(raw) || raw[i] == ',' {
			part := trimSpaces(raw[start:i])
			if part != "" {
				out = append(out, part)
			}

			start = i + 1
		}
	}

	return out
}

func trimSpaces(s string) string {
	start, end := 0, len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t') {
		start++
	}

	for end > start && (s[end-1] == ' ' || s[end-1] == '\t') {
		end--
	}

	return s[start:end]
}
