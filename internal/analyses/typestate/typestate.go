package typestate

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// Violation is one detected protocol misuse: an invalid call on a
// tracked variable, or a function exiting with the variable stuck in a
// non-accepting state (an unreleased resource).
type Violation struct {
	Variable string
	Function string
	Protocol string
	Call     string // empty for an unreleased-at-exit violation.
	Line     int
}

// Summary is the whole-repository typestate checking outcome.
type Summary struct {
	Violations []Violation
}

// Config selects which protocols to check; an empty Protocols list uses
// the builtin set.
type Config struct {
	Protocols []Protocol
}

// Analyze checks every tracked variable's call sequence against its
// matching protocol across every document in repo.
func Analyze(repo *pipeline.RepoView, cfg Config) Summary {
	protocols := cfg.Protocols
	if len(protocols) == 0 {
		protocols = builtinProtocols
	}

	var violations []Violation

	for _, doc := range repo.Documents() {
		violations = append(violations, analyzeDocument(doc, protocols)...)
	}

	return Summary{Violations: violations}
}

// AnalyzeDocument checks a single file, for use as a KindPerFile stage.
func AnalyzeDocument(doc *ir.IRDocument, cfg Config) Summary {
	protocols := cfg.Protocols
	if len(protocols) == 0 {
		protocols = builtinProtocols
	}

	return Summary{Violations: analyzeDocument(doc, protocols)}
}

// call is one observed use of a tracked variable within a function.
type call struct {
	site *ir.Node
	line int
}

func analyzeDocument(doc *ir.IRDocument, protocols []Protocol) []Violation {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	owner := ownerFunctions(doc, byID)

	// calls[varID] is the ordered sequence of CallSite uses of that
	// variable, established via EdgeDFGRead edges from the variable to
	// the call site, mirroring how pta treats DFGRead as "value flows
	// from this node into the read".
	calls := make(map[string][]call)

	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeDFGRead {
			continue
		}

		v, ok := byID[e.From]
		if !ok || v.Kind != ir.KindVariable {
			continue
		}

		site, ok := byID[e.To]
		if !ok || site.Kind != ir.KindCallSite {
			continue
		}

		calls[v.ID] = append(calls[v.ID], call{site: site, line: site.StartLine})
	}

	var violations []Violation

	for _, n := range doc.Nodes {
		if n.Kind != ir.KindVariable {
			continue
		}

		seq := calls[n.ID]
		if len(seq) == 0 {
			continue
		}

		sort.Slice(seq, func(i, j int) bool { return seq[i].line < seq[j].line })

		proto, ok := matchProtocol(protocols, n)
		if !ok {
			continue
		}

		violations = append(violations, checkSequence(proto, n, owner[n.ID], seq)...)
	}

	return violations
}

// ownerFunctions maps a variable's node ID to the name of the enclosing
// Function/Method, via EdgeContains.
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

func matchProtocol(protocols []Protocol, v *ir.Node) (Protocol, bool) {
	for _, p := range protocols {
		if p.matchesType(v.TypeName, v.Name) {
			return p, true
		}
	}

	return Protocol{}, false
}

func checkSequence(p Protocol, v *ir.Node, fn string, seq []call) []Violation {
	var violations []Violation

	cur := p.Initial

	for _, c := range seq {
		next, ok := p.step(cur, c.site.Name)
		if !ok {
			if p.governs(c.site.Name) {
				violations = append(violations, Violation{
					Variable: v.Name,
					Function: fn,
					Protocol: p.Name,
					Call:     c.site.Name,
					Line:     c.line,
				})
			}
			// Calls this protocol doesn't recognize at all (ordinary
			// reads unrelated to the protocol) leave the state as-is.
			continue
		}

		cur = next
	}

	if !p.Accepting[cur] {
		last := seq[len(seq)-1]

		violations = append(violations, Violation{
			Variable: v.Name,
			Function: fn,
			Protocol: p.Name,
			Line:     last.line,
		})
	}

	return violations
}
