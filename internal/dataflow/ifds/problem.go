// Package ifds implements the IFDS/IDE tabulation framework: dataflow
// problems are reduced to reachability (IFDS) or composed edge-function
// evaluation (IDE) over an exploded supergraph of (node, fact) pairs.
// Clients (taint, points-to) supply a Problem describing their flow
// functions; this package owns the worklist, path-edge set, summary-edge
// cache, and jump-function cache.
package ifds

// NodeID identifies a program point in the client's control-flow graph.
// Its concrete form (e.g. an ir.Node id) is opaque to the solver.
type NodeID string

// EdgeKind classifies a normal (non-call, non-return) successor edge.
type EdgeKind int

// Edge kinds the solver's Successors traversal distinguishes.
const (
	EdgeNormal EdgeKind = iota
	EdgeCallToReturn
)

// Edge is one outgoing intraprocedural edge from a node.
type Edge struct {
	To   NodeID
	Kind EdgeKind
}

// ReturnTarget pairs a call site with the return site control flows back
// to once the callee completes, attached to a procedure's exit node.
type ReturnTarget struct {
	CallSite   NodeID
	ReturnSite NodeID
}

// Problem is the client-supplied IFDS dataflow problem: a client
// describes facts F (tainted locations, points-to targets, ...) and how
// they propagate across normal, call, return, and call-to-return edges.
// F must be comparable since facts are set elements throughout.
type Problem[F comparable] interface {
	// EntryPoints are the procedure-entry nodes tabulation seeds from,
	// each with the zero fact.
	EntryPoints() []NodeID

	// Zero returns the zero/bottom fact ("reachable with no taint").
	Zero() F

	// Successors returns n's intraprocedural normal and call-to-return
	// edges. Call edges are not reported here; see CallTargets.
	Successors(n NodeID) []Edge

	// CallTargets returns the callee entry nodes reachable from call
	// site n, or nil if n is not a call site. More than one entry
	// models dynamic dispatch.
	CallTargets(n NodeID) []NodeID

	// ReturnSiteOf returns the node control resumes at after a call at
	// callSite completes.
	ReturnSiteOf(callSite NodeID) (NodeID, bool)

	// Returns reports, for an exit node n, every (call site, return
	// site) pair across the program whose call targets a procedure
	// n belongs to. Nil if n is not an exit node.
	Returns(n NodeID) []ReturnTarget

	// NormalFlow computes the facts reachable at to given d holds at
	// from, along a normal (non-call) edge.
	NormalFlow(from, to NodeID, d F) []F

	// CallFlow computes the facts passed into calleeEntry given d holds
	// at callSite just before the call.
	CallFlow(callSite, calleeEntry NodeID, d F) []F

	// ReturnFlow computes the facts that hold at returnSite given d
	// holds at calleeExit when the callee completes.
	ReturnFlow(calleeExit, returnSite NodeID, d F) []F

	// CallToReturnFlow computes the facts that bypass the callee
	// entirely (e.g. locals the call cannot affect).
	CallToReturnFlow(callSite, returnSite NodeID, d F) []F
}

// EdgeFunctions extends a Problem with IDE's value-composition layer:
// each flow function above has a matching edge function mapping a
// source value to a target value, composed along every reachable path
// edge into the jump-function cache.
type EdgeFunctions[F comparable, V any] interface {
	NormalEdge(from, to NodeID, dSrc, dTgt F) func(V) V
	CallEdge(callSite, calleeEntry NodeID, dSrc, dTgt F) func(V) V
	ReturnEdge(calleeExit, returnSite NodeID, dSrc, dTgt F) func(V) V
	CallToReturnEdge(callSite, returnSite NodeID, dSrc, dTgt F) func(V) V

	// Top is the identity/neutral value new path edges start from.
	Top() V
	// Meet combines two values reaching the same (node, fact) along
	// different paths (e.g. min for constant propagation, OR for
	// reachability-flavored lattices).
	Meet(a, b V) V
}

// identityEdges adapts a plain Problem[F] into an IDE problem with
// V = struct{} and every edge function the identity, so a pure IFDS
// reachability client never has to think about IDE's value layer.
type identityEdges[F comparable] struct{}

func (identityEdges[F]) NormalEdge(NodeID, NodeID, F, F) func(struct{}) struct{} {
	return identityFunc
}

func (identityEdges[F]) CallEdge(NodeID, NodeID, F, F) func(struct{}) struct{} {
	return identityFunc
}

func (identityEdges[F]) ReturnEdge(NodeID, NodeID, F, F) func(struct{}) struct{} {
	return identityFunc
}

func (identityEdges[F]) CallToReturnEdge(NodeID, NodeID, F, F) func(struct{}) struct{} {
	return identityFunc
}

func (identityEdges[F]) Top() struct{} { return struct{}{} }

func (identityEdges[F]) Meet(struct{}, struct{}) struct{} { return struct{}{} }

func identityFunc(v struct{}) struct{} { return v }
