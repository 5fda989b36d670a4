package concurrency

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
)

// lockEdge records that lockA was acquired at an earlier source line
// than lockB within one function; releases in between are not tracked.
type lockEdge struct {
	a, b string // variable IDs, in acquisition order
}

// detectDeadlocks builds a lock-order graph from every function's lock
// acquisition sequence and reports any pair of variables locked in both
// orders somewhere in the repository: the classical static precondition
// for a lock-order-inversion deadlock.
func detectDeadlocks(docs []*ir.IRDocument) []Hazard {
	var edges []lockEdge

	for _, doc := range docs {
		byID := nodeIndex(doc)
		owner := ownerFunctions(doc, byID)

		edges = append(edges, lockOrderEdges(doc, byID, owner)...)
	}

	return buildDeadlockHazards(edges)
}

func lockOrderEdges(doc *ir.IRDocument, byID map[string]*ir.Node, owner map[string]string) []lockEdge {
	type lockSite struct {
		varID string
		line  int
	}

	perFunction := make(map[string][]lockSite)

	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeDFGRead && e.Kind != ir.EdgeDFGWrite {
			continue
		}

		v, ok := byID[e.From]
		if !ok || (v.Kind != ir.KindVariable && v.Kind != ir.KindField) {
			continue
		}

		site, ok := byID[e.To]
		if !ok || site.Kind != ir.KindCallSite || !hasSuffixAny(site.Name, lockSuffixes) {
			continue
		}

		fn := owner[site.ID]
		if fn == "" {
			continue
		}

		perFunction[fn] = append(perFunction[fn], lockSite{varID: v.ID, line: site.StartLine})
	}

	var edges []lockEdge

	for _, sites := range perFunction {
		sort.Slice(sites, func(i, j int) bool { return sites[i].line < sites[j].line })

		for i := 0; i < len(sites); i++ {
			for j := i + 1; j < len(sites); j++ {
				if sites[i].varID == sites[j].varID {
					continue
				}

				edges = append(edges, lockEdge{a: sites[i].varID, b: sites[j].varID})
			}
		}
	}

	return edges
}

// buildDeadlockHazards reports every unordered pair {x, y} for which
// both x-before-y and y-before-x edges were observed anywhere.
func buildDeadlockHazards(edges []lockEdge) []Hazard {
	order := make(map[[2]string]bool, len(edges))

	for _, e := range edges {
		order[[2]string{e.a, e.b}] = true
	}

	seen := make(map[[2]string]bool)

	var hazards []Hazard

	for pair := range order {
		reverse := [2]string{pair[1], pair[0]}
		if !order[reverse] {
			continue
		}

		a, b := pair[0], pair[1]
		if a > b {
			a, b = b, a
		}

		key := [2]string{a, b}
		if seen[key] {
			continue
		}

		seen[key] = true

		hazards = append(hazards, Hazard{Kind: KindDeadlock, LockA: a, LockB: b})
	}

	sort.Slice(hazards, func(i, j int) bool {
		if hazards[i].LockA != hazards[j].LockA {
			return hazards[i].LockA < hazards[j].LockA
		}

		return hazards[i].LockB < hazards[j].LockB
	})

	return hazards
}
