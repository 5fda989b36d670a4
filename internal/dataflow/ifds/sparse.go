package ifds

// Role classifies a node's relevance to a dataflow problem, used by the
// sparse-CFG optimization to skip runs of nodes the tabulation would
// otherwise visit with no effect on the fact set.
type Role int

// Node roles a Classifier assigns.
const (
	RoleIrrelevant Role = iota
	RoleGenerator
	RoleKiller
	RoleUser
	RoleBoundary
)

// Classifier assigns each node a Role for a specific problem instance.
// Boundary nodes (procedure entry/exit, call sites, return sites) are
// never collapsed regardless of the classifier's answer, since the
// solver's call/return handling depends on visiting them directly.
type Classifier func(n NodeID) Role

// SparseProblem wraps a Problem so that Successors skips maximal runs of
// RoleIrrelevant nodes, replacing them with a single direct edge to the
// next non-irrelevant node. Flow functions still see the same from/to
// pair they would without sparsification restricted to relevant nodes,
// so results are identical to running the solver on the dense CFG;
// SkippedNodes reports how many intermediate nodes a given collapsed
// edge bypassed, for diagnostics.
type SparseProblem[F comparable] struct {
	Problem[F]

	classify     Classifier
	isBoundary   func(NodeID) bool
	skippedNodes map[[2]NodeID]int
}

// NewSparseProblem builds a sparse view of p. isBoundary should report
// true for any node the underlying Problem treats specially (call sites,
// return sites, exits) — SparseProblem never collapses through them.
func NewSparseProblem[F comparable](p Problem[F], classify Classifier, isBoundary func(NodeID) bool) *SparseProblem[F] {
	return &SparseProblem[F]{
		Problem:      p,
		classify:     classify,
		isBoundary:   isBoundary,
		skippedNodes: make(map[[2]NodeID]int),
	}
}

// Successors returns n's normal successors with maximal irrelevant runs
// collapsed into a single edge, preserving call-to-return edges as-is
// (those never pass through irrelevant runs by construction: they are
// emitted directly by the call site).
func (sp *SparseProblem[F]) Successors(n NodeID) []Edge {
	direct := sp.Problem.Successors(n)

	out := make([]Edge, 0, len(direct))

	for _, e := range direct {
		if e.Kind != EdgeNormal {
			out = append(out, e)
			continue
		}

		target, skipped := sp.collapse(n, e.To)
		out = append(out, Edge{To: target, Kind: EdgeNormal})

		if skipped > 0 {
			sp.skippedNodes[[2]NodeID{n, target}] = skipped
		}
	}

	return out
}

// collapse follows a chain of RoleIrrelevant, non-boundary nodes with
// exactly one normal successor, returning the first relevant or boundary
// node reached and the count of nodes skipped along the way.
func (sp *SparseProblem[F]) collapse(from, to NodeID) (NodeID, int) {
	skipped := 0
	cur := to

	for {
		if sp.isBoundary(cur) || sp.classify(cur) != RoleIrrelevant {
			return cur, skipped
		}

		succs := sp.Problem.Successors(cur)

		normal := make([]Edge, 0, 1)
		for _, e := range succs {
			if e.Kind == EdgeNormal {
				normal = append(normal, e)
			}
		}

		if len(normal) != 1 {
			return cur, skipped
		}

		skipped++
		cur = normal[0].To

		if cur == from {
			return cur, skipped
		}
	}
}

// SkippedNodes reports how many irrelevant nodes a collapsed edge (from,
// to) bypassed, or 0 if that edge was never collapsed.
func (sp *SparseProblem[F]) SkippedNodes(from, to NodeID) int {
	return sp.skippedNodes[[2]NodeID{from, to}]
}
