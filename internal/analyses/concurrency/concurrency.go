// Package concurrency flags two classes of static concurrency hazard
// over the merged repository graph: data races, where a variable is
// written from more than one function with at least one of the writes
// not guarded by a mutex, and deadlocks, where two functions acquire the same pair
// of locks in opposite order (a lock-order inversion, the standard
// precondition for a cyclic-wait deadlock).
package concurrency

import (
	"sort"
	"strings"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// HazardKind classifies a detected concurrency hazard.
type HazardKind string

// Hazard kinds.
const (
	KindDataRace HazardKind = "data_race"
	KindDeadlock HazardKind = "deadlock"
)

// Hazard is one detected concurrency finding.
type Hazard struct {
	Kind      HazardKind
	Variable  string // the racing variable, for KindDataRace.
	Functions []string
	LockA     string // the two locks involved, for KindDeadlock.
	LockB     string
}

// Summary is the whole-repository concurrency check outcome.
type Summary struct {
	Hazards []Hazard
}

// Config has no tunables yet; concurrency runs with builtin heuristics.
type Config struct{}

// Analyze runs both the data-race and deadlock checks over repo.
func Analyze(repo *pipeline.RepoView, _ Config) Summary {
	docs := repo.Documents()

	var hazards []Hazard
	hazards = append(hazards, detectRaces(docs)...)
	hazards = append(hazards, detectDeadlocks(docs)...)

	return Summary{Hazards: hazards}
}

var lockSuffixes = []string{"Lock", "RLock"}
var unlockSuffixes = []string{"Unlock", "RUnlock"}

func hasSuffixAny(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}

	return false
}

// writeEvent is one write to a shared variable, annotated with the
// enclosing function and whether a lock was held at the time: a write
// is considered guarded if it falls between a Lock and its matching
// Unlock in source-line order within the same function.
type writeEvent struct {
	function string
	guarded  bool
}

func detectRaces(docs []*ir.IRDocument) []Hazard {
	writes := make(map[string][]writeEvent) // keyed by variable node ID

	for _, doc := range docs {
		byID := nodeIndex(doc)
		owner := ownerFunctions(doc, byID)

		locked := make(map[string]bool) // function name -> currently inside a critical section

		type siteEvent struct {
			site  *ir.Node
			varID string
			write bool
		}

		var sites []siteEvent

		for _, e := range doc.Edges {
			if e.Kind != ir.EdgeDFGRead && e.Kind != ir.EdgeDFGWrite {
				continue
			}

			v, ok := byID[e.From]
			if !ok || (v.Kind != ir.KindVariable && v.Kind != ir.KindField) {
				continue
			}

			site, ok := byID[e.To]
			if !ok || site.Kind != ir.KindCallSite {
				continue
			}

			sites = append(sites, siteEvent{site: site, varID: v.ID, write: e.Kind == ir.EdgeDFGWrite})
		}

		sort.Slice(sites, func(i, j int) bool { return sites[i].site.StartLine < sites[j].site.StartLine })

		for _, s := range sites {
			fn := owner[s.site.ID]
			if fn == "" {
				continue
			}

			switch {
			case hasSuffixAny(s.site.Name, lockSuffixes):
				locked[fn] = true
			case hasSuffixAny(s.site.Name, unlockSuffixes):
				locked[fn] = false
			default:
				// Ordinary write to a shared variable.
				if s.write && isSharedCandidate(byID[s.varID]) {
					writes[s.varID] = append(writes[s.varID], writeEvent{function: fn, guarded: locked[fn]})
				}
			}
		}
	}

	return buildRaceHazards(writes)
}

// isSharedCandidate excludes local-looking variables by kind; the IR
// has no escape/scope flag at this layer, so this only filters Field
// nodes (struct fields: the common home of cross-goroutine shared
// state) in from Variable nodes that heap/escape would mark as having
// left the function, which this package does not itself compute.
func isSharedCandidate(n *ir.Node) bool {
	return n != nil && n.Kind == ir.KindField
}

func buildRaceHazards(writes map[string][]writeEvent) []Hazard {
	var hazards []Hazard

	for varID, events := range writes {
		functions := make(map[string]bool)

		anyUnguarded := false

		for _, ev := range events {
			functions[ev.function] = true
			if !ev.guarded {
				anyUnguarded = true
			}
		}

		if len(functions) < 2 || !anyUnguarded {
			continue
		}

		names := make([]string, 0, len(functions))
		for f := range functions {
			names = append(names, f)
		}

		sort.Strings(names)

		hazards = append(hazards, Hazard{Kind: KindDataRace, Variable: varID, Functions: names})
	}

	sort.Slice(hazards, func(i, j int) bool { return hazards[i].Variable < hazards[j].Variable })

	return hazards
}

func nodeIndex(doc *ir.IRDocument) map[string]*ir.Node {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	return byID
}

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
