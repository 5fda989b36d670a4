package ifds

import "sync"

// PathEdge is a reachability witness (d1, node, d2) in the exploded
// supergraph: d1 is the fact that held at the procedure entry node's
// procedure, d2 the fact reachable at node within that same activation.
type PathEdge[F comparable] struct {
	D1   F
	Node NodeID
	D2   F
}

// summaryKey identifies a call site plus the incoming fact it was
// invoked with, the unit summary_edges and the incoming-context index
// are both keyed by.
type summaryKey[F comparable] struct {
	CallSite NodeID
	DIn      F
}

// callerCtx records a caller's own path-edge context at the moment a
// call edge was taken, so a later-discovered callee exit can propagate
// its result back without re-walking the caller's procedure.
type callerCtx[F comparable] struct {
	CallerD1 F
}

// jumpKey indexes the IDE jump-function cache by (node, fact): the
// composed value reaching that (node, fact) pair along any path edge
// discovered so far, merged via EdgeFunctions.Meet on each new arrival.
// This is a per-node simplification of the classical per-path jump
// function, chosen since clients (constant-propagation-style value
// composition) only ever need the merged value at a node, not the
// individual path contributions.
type jumpKey[F comparable] struct {
	Node NodeID
	Fact F
}

// Stats reports tabulation counters useful for diagnosing solver cost,
// surfaced on a completed Result.
type Stats struct {
	PathEdgesExplored int
	SummaryReuses     int
	JumpCacheHits      int
	Truncated          bool
}

// Result is a completed tabulation: every path edge discovered, the
// summary edges computed per call site, and run statistics. Clients
// (taint, points-to) read PathEdges to find which facts reached which
// nodes; Path supports path reconstruction for finding emission.
type Result[F comparable] struct {
	PathEdges map[NodeID]map[PathEdge[F]]struct{}
	Summaries map[summaryKey[F]]map[F]struct{}
	Stats     Stats

	predecessor map[PathStep[F]]PathStep[F]
}

// PathStep is one (node, fact) pair in a reconstructed path.
type PathStep[F comparable] struct {
	Node NodeID
	Fact F
}

// Reaches reports whether fact d is known reachable at node.
func (r *Result[F]) Reaches(node NodeID, d F) bool {
	facts, ok := r.PathEdges[node]
	if !ok {
		return false
	}

	for pe := range facts {
		if pe.D2 == d {
			return true
		}
	}

	return false
}

// Path reconstructs the sequence of (node, fact) pairs that led to d
// reaching node, oldest first, using the predecessor relation recorded
// during tabulation. Returns nil if node/d was never reached.
func (r *Result[F]) Path(node NodeID, d F) []PathStep[F] {
	cur := PathStep[F]{Node: node, Fact: d}

	var path []PathStep[F]

	seen := map[PathStep[F]]bool{}

	for {
		path = append([]PathStep[F]{cur}, path...)

		if seen[cur] {
			break
		}

		seen[cur] = true

		prev, ok := r.predecessor[cur]
		if !ok {
			break
		}

		cur = prev
	}

	return path
}

// Limits bounds a Solve call's resource consumption; a limit of 0 means
// unbounded. When a limit is hit, Solve returns early with Stats.Truncated
// set rather than erroring: partial results are still useful to a client
// under a conservative-soundness contract.
type Limits struct {
	MaxPathEdges int
	MaxIterations int
}

// Solver runs the IFDS/IDE tabulation algorithm over a Problem, optionally
// composing IDE edge-function values when constructed via NewIDESolver.
type Solver[F comparable, V any] struct {
	problem Problem[F]
	edges   EdgeFunctions[F, V]
	limits  Limits

	mu          sync.Mutex
	pathEdges   map[NodeID]map[PathEdge[F]]struct{}
	worklist    []PathEdge[F]
	summaries   map[summaryKey[F]]map[F]struct{}
	incoming    map[summaryKey[F]][]callerCtx[F]
	jumpCache   map[jumpKey[F]]V
	predecessor map[PathStep[F]]PathStep[F]

	stats Stats
}

// NewIFDSSolver builds a solver for a pure reachability (IFDS) problem:
// the IDE value layer degenerates to a unit type whose edge functions are
// all identity, so no client code needs to think about it.
func NewIFDSSolver[F comparable](p Problem[F], limits Limits) *Solver[F, struct{}] {
	return NewIDESolver[F, struct{}](p, identityEdges[F]{}, limits)
}

// NewIDESolver builds a solver composing edges's value-domain functions
// alongside the reachability tabulation.
func NewIDESolver[F comparable, V any](p Problem[F], edges EdgeFunctions[F, V], limits Limits) *Solver[F, V] {
	return &Solver[F, V]{
		problem:     p,
		edges:       edges,
		limits:      limits,
		pathEdges:   make(map[NodeID]map[PathEdge[F]]struct{}),
		summaries:   make(map[summaryKey[F]]map[F]struct{}),
		incoming:    make(map[summaryKey[F]][]callerCtx[F]),
		jumpCache:   make(map[jumpKey[F]]V),
		predecessor: make(map[PathStep[F]]PathStep[F]),
	}
}

// Solve runs tabulation to a fixpoint (or until a configured limit is
// hit) and returns the discovered path edges and summary edges.
func (s *Solver[F, V]) Solve() *Result[F] {
	zero := s.problem.Zero()

	for _, e := range s.problem.EntryPoints() {
		s.insertPathEdge(zero, e, zero, NodeID(""), zero)
	}

	iterations := 0

	for len(s.worklist) > 0 {
		if s.limits.MaxIterations > 0 && iterations >= s.limits.MaxIterations {
			s.stats.Truncated = true
			break
		}

		iterations++

		pe := s.worklist[len(s.worklist)-1]
		s.worklist = s.worklist[:len(s.worklist)-1]
		s.stats.PathEdgesExplored++

		s.step(pe)
	}

	return &Result[F]{
		PathEdges:   s.pathEdges,
		Summaries:   s.summaries,
		Stats:       s.stats,
		predecessor: s.predecessor,
	}
}

// step dispatches a popped path edge to call, return, or normal-edge
// processing based on the node's role in the client's call graph.
func (s *Solver[F, V]) step(pe PathEdge[F]) {
	n := pe.Node

	if targets := s.problem.CallTargets(n); len(targets) > 0 {
		s.stepCall(pe, targets)
		return
	}

	if rets := s.problem.Returns(n); len(rets) > 0 {
		s.stepReturn(pe, rets)
		return
	}

	s.stepNormal(pe)
}

func (s *Solver[F, V]) stepNormal(pe PathEdge[F]) {
	for _, edge := range s.problem.Successors(pe.Node) {
		if edge.Kind != EdgeNormal {
			continue
		}

		for _, d3 := range s.problem.NormalFlow(pe.Node, edge.To, pe.D2) {
			s.insertPathEdge(pe.D1, edge.To, d3, pe.Node, pe.D2)
			s.composeEdge(pe.Node, edge.To, pe.D2, d3, s.edges.NormalEdge)
		}
	}
}

func (s *Solver[F, V]) stepCall(pe PathEdge[F], calleeEntries []NodeID) {
	callSite := pe.Node

	returnSite, hasReturn := s.problem.ReturnSiteOf(callSite)

	for _, entry := range calleeEntries {
		for _, d3 := range s.problem.CallFlow(callSite, entry, pe.D2) {
			key := summaryKey[F]{CallSite: callSite, DIn: d3}

			s.mu.Lock()
			s.incoming[key] = append(s.incoming[key], callerCtx[F]{CallerD1: pe.D1})
			summary, hasSummary := s.summaries[key]
			s.mu.Unlock()

			if hasSummary && hasReturn {
				s.stats.SummaryReuses++

				for dr := range summary {
					s.insertPathEdge(pe.D1, returnSite, dr, callSite, pe.D2)
				}
			}

			s.insertPathEdge(d3, entry, d3, callSite, pe.D2)
			s.composeEdge(callSite, entry, pe.D2, d3, s.edges.CallEdge)
		}
	}

	if !hasReturn {
		return
	}

	for _, d3 := range s.problem.CallToReturnFlow(callSite, returnSite, pe.D2) {
		s.insertPathEdge(pe.D1, returnSite, d3, callSite, pe.D2)
		s.composeEdge(callSite, returnSite, pe.D2, d3, s.edges.CallToReturnEdge)
	}
}

func (s *Solver[F, V]) stepReturn(pe PathEdge[F], targets []ReturnTarget) {
	exit := pe.Node

	for _, t := range targets {
		key := summaryKey[F]{CallSite: t.CallSite, DIn: pe.D1}

		s.mu.Lock()
		callers := append([]callerCtx[F](nil), s.incoming[key]...)
		s.mu.Unlock()

		if len(callers) == 0 {
			continue
		}

		for _, dr := range s.problem.ReturnFlow(exit, t.ReturnSite, pe.D2) {
			s.mu.Lock()

			set, ok := s.summaries[key]
			if !ok {
				set = make(map[F]struct{})
				s.summaries[key] = set
			}

			set[dr] = struct{}{}

			s.mu.Unlock()

			for _, c := range callers {
				s.insertPathEdge(c.CallerD1, t.ReturnSite, dr, exit, pe.D2)
				s.composeEdge(exit, t.ReturnSite, pe.D2, dr, s.edges.ReturnEdge)
			}
		}
	}
}

// insertPathEdge adds (d1, node, d2) to the path-edge set and worklist if
// it is new, recording a predecessor link for path reconstruction.
func (s *Solver[F, V]) insertPathEdge(d1 F, node NodeID, d2 F, fromNode NodeID, fromFact F) {
	if s.limits.MaxPathEdges > 0 && s.stats.PathEdgesExplored >= s.limits.MaxPathEdges {
		s.stats.Truncated = true
		return
	}

	pe := PathEdge[F]{D1: d1, Node: node, D2: d2}

	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.pathEdges[node]
	if !ok {
		set = make(map[PathEdge[F]]struct{})
		s.pathEdges[node] = set
	}

	if _, exists := set[pe]; exists {
		return
	}

	set[pe] = struct{}{}
	s.worklist = append(s.worklist, pe)

	if fromNode != "" {
		s.predecessor[PathStep[F]{Node: node, Fact: d2}] = PathStep[F]{Node: fromNode, Fact: fromFact}
	}
}

// composeEdge evaluates and caches the IDE edge-function value for a
// (from, to, dSrc->dTgt) transition, meeting it with any cached value
// already reaching (to, dTgt) along a different path.
func (s *Solver[F, V]) composeEdge(
	from, to NodeID, dSrc, dTgt F, edgeFn func(NodeID, NodeID, F, F) func(V) V,
) {
	key := jumpKey[F]{Node: to, Fact: dTgt}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, hadSrc := s.jumpCache[jumpKey[F]{Node: from, Fact: dSrc}]
	if !hadSrc {
		src = s.edges.Top()
	}

	next := edgeFn(from, to, dSrc, dTgt)(src)

	if existing, ok := s.jumpCache[key]; ok {
		s.stats.JumpCacheHits++
		s.jumpCache[key] = s.edges.Meet(existing, next)

		return
	}

	s.jumpCache[key] = next
}

// Value returns the composed IDE value reaching (node, fact), or Top if
// no path edge has reached it.
func (s *Solver[F, V]) Value(node NodeID, fact F) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := s.jumpCache[jumpKey[F]{Node: node, Fact: fact}]; ok {
		return v
	}

	return s.edges.Top()
}
