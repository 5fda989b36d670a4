package taint

import (
	"strings"

	"github.com/corraxdev/corrax/internal/dataflow/ifds"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// graphProblem adapts the merged repository view into an ifds.Problem[Fact]:
// nodes are addressed by IR node id (ifds.NodeID is a string alias),
// EdgeCFGNext edges are normal-flow successors, EdgeCalls edges identify
// call sites, and EdgeContains edges identify a function's return sites
// for interprocedural return-flow propagation. The IR's granularity is
// symbol-level (functions, call sites, return sites) rather than a full
// per-statement CFG, so "call-to-return" here means "control returns to
// whatever this call site's own CFG-next edge points to", and a
// procedure's exit set is every ReturnSite node it Contains.
type graphProblem struct {
	nodes map[ifds.NodeID]*ir.Node

	// successors holds EdgeCFGNext targets per node.
	successors map[ifds.NodeID][]ifds.NodeID
	// callTargets holds EdgeCalls targets per call-site node (a function
	// or method entry).
	callTargets map[ifds.NodeID][]ifds.NodeID
	// callersOf is the reverse of callTargets: every call site targeting
	// a given callee entry.
	callersOf map[ifds.NodeID][]ifds.NodeID
	// functionOf maps a return-site node to its owning function/method
	// entry, via EdgeContains.
	functionOf map[ifds.NodeID]ifds.NodeID
	// returnSitesOf maps a function/method entry to its ReturnSite nodes.
	returnSitesOf map[ifds.NodeID][]ifds.NodeID
	// paramsByFunc maps a function/method entry to its Parameter nodes,
	// via EdgeContains.
	paramsByFunc map[ifds.NodeID][]*ir.Node
	// entryPoints lists every function/method node with no incoming
	// EdgeCalls edge: the repository's unreached-by-call roots.
	entryPoints []ifds.NodeID

	matchers Matchers
	cfg      Config
	smt      *SmtOrchestrator
	conv     PathConditionConverter
}

func newGraphProblem(repo *pipeline.RepoView, matchers Matchers, cfg Config) *graphProblem {
	g := &graphProblem{
		nodes:         make(map[ifds.NodeID]*ir.Node),
		successors:    make(map[ifds.NodeID][]ifds.NodeID),
		callTargets:   make(map[ifds.NodeID][]ifds.NodeID),
		callersOf:     make(map[ifds.NodeID][]ifds.NodeID),
		functionOf:    make(map[ifds.NodeID]ifds.NodeID),
		returnSitesOf: make(map[ifds.NodeID][]ifds.NodeID),
		paramsByFunc:  make(map[ifds.NodeID][]*ir.Node),
		matchers:      matchers,
		cfg:           cfg,
		smt:           NewSmtOrchestrator(cfg.ExternalSolver),
	}

	hasIncomingCall := make(map[ifds.NodeID]bool)
	functionNodes := make(map[ifds.NodeID]bool)

	for _, doc := range repo.Documents() {
		for _, n := range doc.Nodes {
			g.nodes[ifds.NodeID(n.ID)] = n

			if n.Kind == ir.KindFunction || n.Kind == ir.KindMethod {
				functionNodes[ifds.NodeID(n.ID)] = true
			}
		}

		for _, e := range doc.Edges {
			from, to := ifds.NodeID(e.From), ifds.NodeID(e.To)

			switch e.Kind {
			case ir.EdgeCFGNext:
				g.successors[from] = append(g.successors[from], to)
			case ir.EdgeCalls:
				g.callTargets[from] = append(g.callTargets[from], to)
				g.callersOf[to] = append(g.callersOf[to], from)
				hasIncomingCall[to] = true
			case ir.EdgeContains:
				target, ok := g.nodes[to]
				if !ok {
					continue
				}

				switch target.Kind {
				case ir.KindReturnSite:
					g.functionOf[to] = from
					g.returnSitesOf[from] = append(g.returnSitesOf[from], to)
				case ir.KindParameter:
					g.paramsByFunc[from] = append(g.paramsByFunc[from], target)
				}
			}
		}
	}

	for fn := range functionNodes {
		if !hasIncomingCall[fn] {
			g.entryPoints = append(g.entryPoints, fn)
		}
	}

	return g
}

func (g *graphProblem) EntryPoints() []ifds.NodeID { return g.entryPoints }

func (g *graphProblem) Zero() Fact { return Zero }

// Successors reports n's plain CFG-next edges. Call-site nodes are
// dispatched to stepCall via CallTargets before the solver ever consults
// Successors, so every edge reported here is EdgeNormal; CallToReturnFlow
// is driven separately off ReturnSiteOf.
func (g *graphProblem) Successors(n ifds.NodeID) []ifds.Edge {
	out := make([]ifds.Edge, 0, len(g.successors[n]))
	for _, to := range g.successors[n] {
		out = append(out, ifds.Edge{To: to, Kind: ifds.EdgeNormal})
	}

	return out
}

func (g *graphProblem) CallTargets(n ifds.NodeID) []ifds.NodeID {
	return g.callTargets[n]
}

func (g *graphProblem) ReturnSiteOf(callSite ifds.NodeID) (ifds.NodeID, bool) {
	succ := g.successors[callSite]
	if len(succ) == 0 {
		return "", false
	}

	return succ[0], true
}

func (g *graphProblem) Returns(exit ifds.NodeID) []ifds.ReturnTarget {
	fn, ok := g.functionOf[exit]
	if !ok {
		return nil
	}

	var out []ifds.ReturnTarget

	for _, callSite := range g.callersOf[fn] {
		rs, ok := g.ReturnSiteOf(callSite)
		if !ok {
			continue
		}

		out = append(out, ifds.ReturnTarget{CallSite: callSite, ReturnSite: rs})
	}

	return out
}

// NormalFlow implements source introduction, sanitizer kill, branch
// condition accumulation with an SMT feasibility gate, and plain
// propagation along DFG assignment edges.
func (g *graphProblem) NormalFlow(from, to ifds.NodeID, d Fact) []Fact {
	fromNode := g.nodes[from]

	if d.IsZero() {
		if anyMatch(g.matchers.Sources, fromNode) {
			return []Fact{d, g.taintedFactFor(fromNode)}
		}

		return []Fact{d}
	}

	if anyMatch(g.matchers.Sanitizers, fromNode) && nodeUses(fromNode, d.Location) {
		return nil
	}

	next := g.propagateAssignment(fromNode, d)

	if raw, ok := fromNode.Attr(ir.AttrCondition); ok && fromNode.Kind == ir.KindBranch {
		return g.gateOnBranch(raw, from, to, next)
	}

	return next
}

// propagateAssignment keeps d alive unconditionally and, when fromNode
// assigns a defined variable from an expression that uses d, also taints
// the defined variable (field-sensitive tracking keeps the dotted field
// path; otherwise only the base identifier is tainted).
func (g *graphProblem) propagateAssignment(fromNode *ir.Node, d Fact) []Fact {
	out := []Fact{d}

	if fromNode == nil || fromNode.Kind != ir.KindAssignment {
		return out
	}

	if !nodeUses(fromNode, d.Location) {
		return out
	}

	for _, def := range splitAttr(fromNode, ir.AttrDefs) {
		loc := def
		if !g.cfg.FieldSensitive {
			loc = baseIdentifier(def)
		}

		out = append(out, d.withLocation(loc))
	}

	return out
}

// gateOnBranch accumulates the branch's condition (or its negation, for
// the false successor) onto every non-zero fact in facts, SMT-checking
// feasibility before retaining the resulting path-sensitive state.
func (g *graphProblem) gateOnBranch(raw string, from, to ifds.NodeID, facts []Fact) []Fact {
	cond, ok := g.conv.Convert(raw)
	if !ok {
		// Conversion failure: conservatively retain every fact unchanged.
		return facts
	}

	if g.isFalseBranch(from, to) {
		cond = cond.negated()
	}

	out := make([]Fact, 0, len(facts))

	for _, f := range facts {
		if f.IsZero() {
			out = append(out, f)

			continue
		}

		gated := f.withCondition(cond)
		if g.smt.Check(gated.conditions()) == Infeasible {
			continue
		}

		out = append(out, gated)
	}

	return out
}

// isFalseBranch reports whether to is the branch node's "else" successor.
// Convention: the first CFG-next successor recorded for a branch node is
// the true successor; any other is the false successor.
func (g *graphProblem) isFalseBranch(from, to ifds.NodeID) bool {
	succ := g.successors[from]
	if len(succ) == 0 {
		return false
	}

	return succ[0] != to
}

// CallFlow maps a tainted actual argument into the callee's matching
// formal parameter by name. The IR does not record an explicit
// actual-to-formal binding edge, so this is a conservative name-based
// match: a tainted local reaching a call site taints the callee's
// parameter of the same name, when one exists.
func (g *graphProblem) CallFlow(_, calleeEntry ifds.NodeID, d Fact) []Fact {
	if d.IsZero() {
		return []Fact{d}
	}

	for _, param := range g.paramsOf(calleeEntry) {
		if baseIdentifier(param.Name) == baseIdentifier(d.Location) {
			return []Fact{d}
		}
	}

	if g.cfg.RelaxedReturnFlow {
		return []Fact{d}
	}

	return nil
}

// ReturnFlow passes a tainted fact back to the return site unchanged when
// the callee's exit node uses it; the fact is not renamed to the call
// site's assignment target. The zero fact always returns.
func (g *graphProblem) ReturnFlow(calleeExit, _ ifds.NodeID, d Fact) []Fact {
	if d.IsZero() {
		return []Fact{d}
	}

	exitNode := g.nodes[calleeExit]
	if exitNode != nil && nodeUses(exitNode, d.Location) {
		return []Fact{d}
	}

	return nil
}

// CallToReturnFlow preserves every fact that does not name a parameter of
// any target reachable from the call site, i.e. locals untouched by the
// call.
func (g *graphProblem) CallToReturnFlow(callSite, _ ifds.NodeID, d Fact) []Fact {
	if d.IsZero() {
		return []Fact{d}
	}

	for _, target := range g.callTargets[callSite] {
		for _, param := range g.paramsOf(target) {
			if baseIdentifier(param.Name) == baseIdentifier(d.Location) {
				return nil
			}
		}
	}

	return []Fact{d}
}

func (g *graphProblem) paramsOf(fn ifds.NodeID) []*ir.Node {
	return g.paramsByFunc[fn]
}

func (g *graphProblem) taintedFactFor(n *ir.Node) Fact {
	if n == nil {
		return Zero
	}

	defs := splitAttr(n, ir.AttrDefs)
	if len(defs) == 0 {
		return Fact{Location: n.Name}
	}

	loc := defs[0]
	if !g.cfg.FieldSensitive {
		loc = baseIdentifier(loc)
	}

	return Fact{Location: loc}
}

func nodeUses(n *ir.Node, loc string) bool {
	if n == nil {
		return false
	}

	for _, u := range splitAttr(n, ir.AttrUses) {
		if baseIdentifier(u) == baseIdentifier(loc) {
			return true
		}
	}

	return false
}

func splitAttr(n *ir.Node, key string) []string {
	raw, ok := n.Attr(key)
	if !ok || raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}

func baseIdentifier(s string) string {
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		return s[:idx]
	}

	return s
}
