// Package pta implements points-to analysis over the merged repository
// graph: a fast unification-based algorithm (Steensgaard), a precise
// subset-based algorithm (Andersen) with SCC cycle elimination and wave
// propagation, and a flow-sensitive variant tracking per-program-point
// points-to sets with strong/weak updates. Auto mode picks between
// Steensgaard and Andersen based on the size of the pointer-relevant
// variable set.
package pta

import (
	"sort"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// Var identifies a pointer-relevant program variable: a Variable,
// Parameter, or Field IR node.
type Var string

// Object identifies an abstract allocation-site object. The IR models
// symbols, not a per-statement heap, so each declared Var doubles as the
// allocation site for whatever it may point to: a conservative,
// documented simplification (see DESIGN.md) standing in for explicit
// `new`/literal/composite-literal allocation nodes a statement-level IR
// would carry.
type Object string

// AlgorithmUsed records which algorithm actually ran, for the result
// summary (§4.4.4: "record the choice in the result summary").
type AlgorithmUsed string

// Algorithm constants.
const (
	AlgorithmSteensgaard AlgorithmUsed = "steensgaard"
	AlgorithmAndersen    AlgorithmUsed = "andersen"
)

// PointsToSet is the set of abstract objects a Var may point to.
type PointsToSet map[Object]struct{}

// Result is the full points-to analysis outcome.
type Result struct {
	Algorithm AlgorithmUsed
	PointsTo  map[Var]PointsToSet
	// FlowSensitive holds a per-program-point result. Analyze does not
	// run the flow-sensitive variant and leaves it nil; RunFlowSensitive
	// returns its FlowResult directly.
	FlowSensitive *FlowResult
	VarCount      int
}

// MayAlias reports whether a and b's points-to sets intersect.
func (r *Result) MayAlias(a, b Var) bool {
	sa, sb := r.PointsTo[a], r.PointsTo[b]
	if len(sa) == 0 || len(sb) == 0 {
		return false
	}

	for o := range sa {
		if _, ok := sb[o]; ok {
			return true
		}
	}

	return false
}

// MustAlias reports whether a and b's points-to sets are both singleton
// and identical (§4.4.4: "must-alias queries derive from singleton
// intersections").
func (r *Result) MustAlias(a, b Var) bool {
	sa, sb := r.PointsTo[a], r.PointsTo[b]
	if len(sa) != 1 || len(sb) != 1 {
		return false
	}

	for o := range sa {
		_, ok := sb[o]

		return ok
	}

	return false
}

// Analyze builds the pointer-constraint graph from repo and runs the
// algorithm cfg.Mode selects, or the auto-mode threshold switch when
// cfg.Mode is PTAModeAuto.
func Analyze(repo *pipeline.RepoView, cfg config.PTAConfig) *Result {
	cg := buildConstraintGraph(repo, cfg.FieldSensitive)

	mode := cfg.Mode
	if mode == config.PTAModeAuto || mode == "" {
		threshold := cfg.AutoThreshold
		if threshold <= 0 {
			threshold = defaultAutoThreshold
		}

		if len(cg.vars) < threshold {
			mode = config.PTAModePrecise
		} else {
			mode = config.PTAModeFast
		}
	}

	if mode == config.PTAModePrecise {
		pointsTo := runAndersen(cg)

		return &Result{Algorithm: AlgorithmAndersen, PointsTo: pointsTo, VarCount: len(cg.vars)}
	}

	pointsTo := runSteensgaard(cg)

	return &Result{Algorithm: AlgorithmSteensgaard, PointsTo: pointsTo, VarCount: len(cg.vars)}
}

const defaultAutoThreshold = 5000

// constraintGraph is the shared pointer-constraint model both algorithms
// consume: a set of variables, each with its own allocation-site object,
// and a set of copy edges (p = q) extracted from assignment/reference
// dataflow edges.
type constraintGraph struct {
	vars           []Var
	allocOf        map[Var]Object
	fieldSensitive bool
	// copyEdges[p] = {q...} meaning p = q for each q: PointsTo(p) ⊇ PointsTo(q).
	copyEdges map[Var][]Var
}

// buildConstraintGraph walks every document's Variable/Parameter/Field
// nodes as pointer-relevant Vars (each implicitly allocating its own
// Object) and derives copy constraints from EdgeDFGWrite, EdgeAlias and
// EdgeDFGRead edges between them: an edge from p to q is treated as p = q.
func buildConstraintGraph(repo *pipeline.RepoView, fieldSensitive bool) *constraintGraph {
	cg := &constraintGraph{
		allocOf:        make(map[Var]Object),
		fieldSensitive: fieldSensitive,
		copyEdges:      make(map[Var][]Var),
	}

	byID := make(map[string]*ir.Node)

	for _, doc := range repo.Documents() {
		for _, n := range doc.Nodes {
			byID[n.ID] = n

			if !isPointerRelevant(n) {
				continue
			}

			v := varFor(n, fieldSensitive)
			if _, seen := cg.allocOf[v]; seen {
				continue
			}

			cg.vars = append(cg.vars, v)
			cg.allocOf[v] = Object(n.ID)
		}
	}

	for _, doc := range repo.Documents() {
		for _, e := range doc.Edges {
			if e.Kind != ir.EdgeDFGWrite && e.Kind != ir.EdgeAlias && e.Kind != ir.EdgeDFGRead {
				continue
			}

			from, ok1 := byID[e.From]
			to, ok2 := byID[e.To]

			if !ok1 || !ok2 || !isPointerRelevant(from) || !isPointerRelevant(to) {
				continue
			}

			// Every one of these edge kinds points from the dependent
			// variable to the one providing its value: EdgeDFGWrite
			// and EdgeAlias from the written/aliasing variable to its
			// source, EdgeDFGRead from the variable whose value was
			// just consumed to the variable it read from. The copy
			// constraint "written = source" means
			// PointsTo(written) ⊇ PointsTo(source).
			written, source := varFor(from, fieldSensitive), varFor(to, fieldSensitive)

			if written == source {
				continue
			}

			cg.copyEdges[written] = append(cg.copyEdges[written], source)
		}
	}

	sort.Slice(cg.vars, func(i, j int) bool { return cg.vars[i] < cg.vars[j] })

	return cg
}

func isPointerRelevant(n *ir.Node) bool {
	switch n.Kind {
	case ir.KindVariable, ir.KindParameter, ir.KindField:
		return true
	default:
		return false
	}
}

func varFor(n *ir.Node, fieldSensitive bool) Var {
	if fieldSensitive || n.Kind != ir.KindField {
		return Var(n.ID)
	}
	// Field-insensitive mode collapses a field node onto its containing
	// object's identity, approximated here by the node's base name (the
	// receiver) rather than the field-qualified id.
	return Var(n.File + ":" + baseName(n.Name))
}

func baseName(s string) string {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return s[:i]
		}
	}

	return s
}
