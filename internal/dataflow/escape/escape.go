// Package escape implements an intra-procedural, flow-insensitive-over-
// def-use-chains escape analysis: for every allocation site (a declared
// Variable, Parameter, or Field within a function), it determines the
// most conservative way that allocation's value is observed to leave
// the function, per the escape lattice in EscapeState.
package escape

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// EscapeState classifies how far an allocation's value is known to
// travel. Zero value is NoEscape.
type EscapeState int

// Escape states, ordered from least to most conservative by rank();
// merge() always keeps the more conservative (higher-rank) operand.
const (
	NoEscape EscapeState = iota
	ArgEscape
	ReturnEscape
	FieldEscape
	ArrayEscape
	GlobalEscape
	Unknown
)

func (s EscapeState) String() string {
	switch s {
	case NoEscape:
		return "no_escape"
	case ArgEscape:
		return "arg_escape"
	case ReturnEscape:
		return "return_escape"
	case FieldEscape:
		return "field_escape"
	case ArrayEscape:
		return "array_escape"
	case GlobalEscape:
		return "global_escape"
	default:
		return "unknown"
	}
}

// rank orders states from least conservative (0) to most conservative;
// FieldEscape and ArrayEscape share a rank, per the lattice's "⊑" tie.
func rank(s EscapeState) int {
	switch s {
	case NoEscape:
		return 0
	case ArgEscape:
		return 1
	case ReturnEscape:
		return 2
	case FieldEscape, ArrayEscape:
		return 3
	case GlobalEscape:
		return 4
	default:
		return 5
	}
}

// merge returns the more conservative of a and b. Ties at the
// FieldEscape/ArrayEscape rank keep a, so repeated merges are stable.
func merge(a, b EscapeState) EscapeState {
	if rank(b) > rank(a) {
		return b
	}

	return a
}

// Site is one allocation site's computed escape result.
type Site struct {
	NodeID   string
	Function string
	State    EscapeState
}

// Summary is the whole-repository escape analysis outcome.
type Summary struct {
	Sites      []Site
	Iterations int
	Truncated  bool
}

// Config bounds the def-use propagation fixpoint.
type Config struct {
	MaxIterations int
}

const defaultMaxIterations = 20

// Analyze computes escape states for every allocation site across every
// document in repo. Escape is intra-procedural, so this is equivalent
// to running AnalyzeDocument per file and concatenating the results;
// running it once over the whole repo just amortizes the fixpoint loop.
func Analyze(repo *pipeline.RepoView, cfg Config) Summary {
	return analyze(buildEscapeGraph(repo.Documents()), cfg)
}

// AnalyzeDocument computes escape states for a single file, for use as a
// KindPerFile pipeline stage.
func AnalyzeDocument(doc *ir.IRDocument, cfg Config) Summary {
	return analyze(buildEscapeGraph([]*ir.IRDocument{doc}), cfg)
}

func analyze(g *escapeGraph, cfg Config) Summary {
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	state := make(map[string]EscapeState, len(g.sites))
	for id := range g.sites {
		state[id] = g.directSignal(id)
	}

	truncated := true
	iterations := 0

	for iterations = 0; iterations < maxIter; iterations++ {
		changed := false

		for written, sources := range g.copyEdges {
			for _, source := range sources {
				if _, ok := g.sites[source]; !ok {
					continue
				}

				merged := merge(state[source], state[written])
				if merged != state[source] {
					state[source] = merged
					changed = true
				}
			}
		}

		if !changed {
			truncated = false

			break
		}
	}

	sites := make([]Site, 0, len(g.sites))
	for id, fn := range g.sites {
		sites = append(sites, Site{NodeID: id, Function: fn, State: state[id]})
	}

	sort.Slice(sites, func(i, j int) bool {
		if sites[i].Function != sites[j].Function {
			return sites[i].Function < sites[j].Function
		}

		return sites[i].NodeID < sites[j].NodeID
	})

	return Summary{Sites: sites, Iterations: iterations, Truncated: truncated}
}

// escapeGraph is the per-repo model the fixpoint runs over: allocation
// sites keyed by node id mapped to their owning function, plus copy
// edges (def-use) and the direct-signal inputs (contained in the
// allocation site's owning function) used to seed each site's initial
// state.
type escapeGraph struct {
	sites      map[string]string // node id -> owning function node id
	copyEdges  map[string][]string
	returnUses map[string]bool // node id used by some ReturnSite
	argUses    map[string]bool // node id used as a call-site argument
	fieldDefs  map[string]bool // node id written into a Field
	arrayDefs  map[string]bool // node id written into an array-typed target
	globalDefs map[string]bool // node id written into a node with no owning function
}

func buildEscapeGraph(docs []*ir.IRDocument) *escapeGraph {
	g := &escapeGraph{
		sites:      make(map[string]string),
		copyEdges:  make(map[string][]string),
		returnUses: make(map[string]bool),
		argUses:    make(map[string]bool),
		fieldDefs:  make(map[string]bool),
		arrayDefs:  make(map[string]bool),
		globalDefs: make(map[string]bool),
	}

	for _, doc := range docs {
		byID := make(map[string]*ir.Node, len(doc.Nodes))
		ownerOf := make(map[string]string, len(doc.Nodes))

		for _, n := range doc.Nodes {
			byID[n.ID] = n
		}

		for _, e := range doc.Edges {
			if e.Kind != ir.EdgeContains {
				continue
			}

			owner, ok := byID[e.From]
			if !ok || (owner.Kind != ir.KindFunction && owner.Kind != ir.KindMethod) {
				continue
			}

			target, ok := byID[e.To]
			if !ok {
				continue
			}

			ownerOf[target.ID] = owner.ID

			if target.Kind == ir.KindVariable || target.Kind == ir.KindParameter || target.Kind == ir.KindField {
				g.sites[target.ID] = owner.ID
			}
		}

		for _, e := range doc.Edges {
			from, okFrom := byID[e.From]
			to, okTo := byID[e.To]

			if !okFrom || !okTo {
				continue
			}

			switch e.Kind {
			case ir.EdgeDFGWrite, ir.EdgeAlias, ir.EdgeDFGRead:
				written, source := from.ID, to.ID
				if e.Kind == ir.EdgeDFGRead {
					written, source = to.ID, from.ID
				}

				if written == source {
					continue
				}

				g.copyEdges[written] = append(g.copyEdges[written], source)

				switch to.Kind {
				case ir.KindReturnSite:
					g.returnUses[from.ID] = true
				case ir.KindCallSite:
					g.argUses[from.ID] = true
				case ir.KindField:
					g.fieldDefs[from.ID] = true

					if isArrayTyped(to) {
						g.arrayDefs[from.ID] = true
					}
				case ir.KindVariable:
					if _, owned := ownerOf[to.ID]; !owned {
						g.globalDefs[from.ID] = true
					}
				}
			}
		}
	}

	return g
}

func isArrayTyped(n *ir.Node) bool {
	t := n.TypeName
	if t == "" {
		t, _ = n.Attr(ir.AttrTypeName)
	}

	for i := 0; i < len(t); i++ {
		if t[i] == '[' {
			return true
		}
	}

	return false
}

// directSignal seeds an allocation site's initial escape state from the
// edges observed to touch it directly, before any fixpoint propagation.
func (g *escapeGraph) directSignal(id string) EscapeState {
	state := NoEscape

	if g.globalDefs[id] {
		state = merge(state, GlobalEscape)
	}

	if g.arrayDefs[id] {
		state = merge(state, ArrayEscape)
	} else if g.fieldDefs[id] {
		state = merge(state, FieldEscape)
	}

	if g.returnUses[id] {
		state = merge(state, ReturnEscape)
	}

	if g.argUses[id] {
		state = merge(state, ArgEscape)
	}

	return state
}
