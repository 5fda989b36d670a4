// Package heap implements a lightweight separation-logic-flavored memory
// safety check: it looks for double-free and use-after-free patterns by
// combining points-to aliasing (so releasing one alias is seen as
// releasing all of them) with the order calls occur in within a
// function. It is intentionally conservative: a flagged pair is a
// candidate to review, not a proof of a bug, since the underlying alias
// analysis is itself approximate.
package heap

import (
	"sort"
	"strings"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/dataflow/pta"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// releaseNames are CallSite name suffixes treated as releasing whatever
// they're invoked on back to the allocator.
var releaseNames = []string{"Free", "Close", "Release", "Dispose"}

func isRelease(name string) bool {
	for _, suffix := range releaseNames {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}

	return false
}

// Kind classifies a heap safety finding.
type Kind string

const (
	DoubleFree     Kind = "double_free"
	UseAfterFree   Kind = "use_after_free"
)

// Finding is one heap safety candidate.
type Finding struct {
	Function string
	VarA     string
	VarB     string
	Kind     Kind
	Line     int
}

// Summary is the whole-repository heap safety check outcome.
type Summary struct {
	Findings []Finding
}

// Config bounds the points-to analysis heap checking builds on.
type Config struct {
	PTA config.PTAConfig
}

// Analyze checks every function's release and use call sites for
// double-free and use-after-free candidates across repo.
func Analyze(repo *pipeline.RepoView, cfg Config) Summary {
	result := pta.Analyze(repo, cfg.PTA)

	var findings []Finding

	for _, doc := range repo.Documents() {
		findings = append(findings, analyzeDocument(doc, result)...)
	}

	return Summary{Findings: findings}
}

type event struct {
	varID    string
	varName  string
	site     *ir.Node
	release  bool
}

func analyzeDocument(doc *ir.IRDocument, result *pta.Result) []Finding {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	owner := make(map[string]string) // callsite ID -> enclosing function name
	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeContains {
			continue
		}

		o, ok := byID[e.From]
		if !ok || (o.Kind != ir.KindFunction && o.Kind != ir.KindMethod) {
			continue
		}

		owner[e.To] = o.Name
	}

	var events []event

	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeDFGRead && e.Kind != ir.EdgeDFGWrite {
			continue
		}

		v, ok := byID[e.From]
		if !ok || (v.Kind != ir.KindVariable && v.Kind != ir.KindParameter) {
			continue
		}

		site, ok := byID[e.To]
		if !ok || site.Kind != ir.KindCallSite {
			continue
		}

		events = append(events, event{
			varID: v.ID, varName: v.Name, site: site, release: isRelease(site.Name),
		})
	}

	sort.Slice(events, func(i, j int) bool { return events[i].site.StartLine < events[j].site.StartLine })

	return detectFindings(events, owner, result)
}

// detectFindings walks the line-ordered event stream per function,
// tracking which variables (or their aliases) have already been
// released, and reports a second release or any subsequent use as a
// finding.
func detectFindings(events []event, owner map[string]string, result *pta.Result) []Finding {
	var findings []Finding

	// released[fnName] holds the event that released a variable, keyed
	// by the releasing variable's own ID; aliasing is checked by walking
	// this set rather than keying by abstract object, since Result
	// exposes alias queries, not an inverse object index.
	released := make(map[string]map[string]event)

	for _, ev := range events {
		fn := owner[ev.site.ID]
		if fn == "" {
			continue
		}

		if released[fn] == nil {
			released[fn] = make(map[string]event)
		}

		_, aliasVar, found := findAliasedRelease(released[fn], ev.varID, result)

		switch {
		case found && ev.release:
			findings = append(findings, Finding{
				Function: fn, VarA: aliasVar, VarB: ev.varName,
				Kind: DoubleFree, Line: ev.site.StartLine,
			})
		case found && !ev.release:
			findings = append(findings, Finding{
				Function: fn, VarA: aliasVar, VarB: ev.varName,
				Kind: UseAfterFree, Line: ev.site.StartLine,
			})
		}

		if ev.release {
			released[fn][ev.varID] = ev
		}
	}

	return findings
}

func findAliasedRelease(released map[string]event, varID string, result *pta.Result) (event, string, bool) {
	if ev, ok := released[varID]; ok {
		return ev, ev.varName, true
	}

	if result == nil {
		return event{}, "", false
	}

	for otherID, ev := range released {
		if result.MayAlias(pta.Var(varID), pta.Var(otherID)) {
			return ev, ev.varName, true
		}
	}

	return event{}, "", false
}
