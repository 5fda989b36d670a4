package pta

import (
	"runtime"
	"sync"

	"github.com/corraxdev/corrax/pkg/alg/cuckoo"
	"github.com/corraxdev/corrax/pkg/safeconv"
)

// runAndersen computes a precise, subset-constraint points-to solution.
// Copy edges p = q impose PointsTo(p) ⊇ PointsTo(q); cycles in the copy
// graph make every member of the cycle mutually ⊇ one another, so they
// are collapsed (Tarjan SCC) to a single representative before
// propagation. Collapsed nodes are then propagated in reverse
// topological ("wave") order: a node is only processed once every SCC
// it depends on has stabilized, and disjoint SCCs at the same wave
// layer propagate concurrently.
func runAndersen(cg *constraintGraph) map[Var]PointsToSet {
	sccOf, order := tarjanSCC(cg.vars, cg.copyEdges)

	// repOf maps a Var to its SCC representative.
	repOf := make(map[Var]Var, len(cg.vars))
	members := make(map[Var][]Var)

	for _, v := range cg.vars {
		rep := Var(sccOf[v])
		repOf[v] = rep
		members[rep] = append(members[rep], v)
	}

	// repEdges collapses copyEdges onto SCC representatives, deduping
	// via a cuckoo filter: large constraint graphs can carry many
	// parallel copy edges between the same two representatives once
	// collapsed, and an exact set would otherwise dominate memory.
	repEdges := make(map[Var][]Var)
	dedupFilterFor := make(map[Var]*cuckoo.Filter)

	for p, qs := range cg.copyEdges {
		rp := repOf[p]
		if rp == "" {
			rp = p
		}

		filter := dedupFilterFor[rp]
		if filter == nil {
			f, err := cuckoo.New(nextCapacity(len(qs)))
			if err != nil {
				f = nil
			}

			dedupFilterFor[rp] = f
			filter = f
		}

		for _, q := range qs {
			rq := repOf[q]
			if rq == "" {
				rq = q
			}

			if rp == rq {
				continue
			}

			key := []byte(rq)

			if filter != nil && filter.Lookup(key) {
				continue
			}

			if filter != nil {
				filter.Insert(key)
			}

			repEdges[rp] = append(repEdges[rp], rq)
		}
	}

	pointsTo := make(map[Var]PointsToSet, len(members))
	for rep, vs := range members {
		set := make(PointsToSet)
		for _, v := range vs {
			set[cg.allocOf[v]] = struct{}{}
		}

		pointsTo[rep] = set
	}

	propagateWaves(order, members, repEdges, pointsTo)

	result := make(map[Var]PointsToSet, len(cg.vars))
	for _, v := range cg.vars {
		result[v] = pointsTo[repOf[v]]
	}

	return result
}

func nextCapacity(n int) uint {
	if n < 8 {
		return 8
	}

	return safeconv.MustIntToUint(n * 2)
}

// propagateWaves runs reverse-topological-order fixpoint propagation:
// order lists SCC representatives from sinks toward sources (the order
// Tarjan discovers completed components in), so reversing it yields a
// dependency order where a representative's predecessors (the nodes
// whose points-to sets flow into it) are processed, or at least queued,
// before it is. Representatives with no edge between them in the same
// wave layer propagate in parallel.
func propagateWaves(order []Var, members map[Var][]Var, edges map[Var][]Var, pointsTo map[Var]PointsToSet) {
	// predecessors[rep] lists every representative whose points-to set
	// flows into rep: edges runs from the written side of a copy to its
	// source, so these are edges[rep].
	predecessors := make(map[Var][]Var)
	for from, tos := range edges {
		predecessors[from] = append(predecessors[from], tos...)
	}

	changed := true
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}

	for pass := 0; changed && pass < maxAndersenPasses; pass++ {
		changed = false

		var mu sync.Mutex

		sem := make(chan struct{}, workers)

		var wg sync.WaitGroup

		for _, rep := range order {
			rep := rep

			preds := predecessors[rep]
			if len(preds) == 0 {
				continue
			}

			wg.Add(1)
			sem <- struct{}{}

			go func() {
				defer wg.Done()
				defer func() { <-sem }()

				grew := false
				dst := pointsTo[rep]

				for _, pred := range preds {
					for obj := range pointsTo[pred] {
						if _, ok := dst[obj]; !ok {
							dst[obj] = struct{}{}
							grew = true
						}
					}
				}

				if grew {
					mu.Lock()
					changed = true
					mu.Unlock()
				}
			}()
		}

		wg.Wait()
	}
}

const maxAndersenPasses = 100

// tarjanSCC runs Tarjan's strongly-connected-components algorithm over
// the copy graph and returns, for each Var, the string id of its
// component's representative (the member popped first from the Tarjan
// stack, i.e. the last one pushed), plus the discovery order of representatives (the order
// components complete in, which is a valid reverse-topological order
// of the condensed DAG).
func tarjanSCC(vars []Var, edges map[Var][]Var) (map[Var]string, []Var) {
	index := make(map[Var]int)
	lowlink := make(map[Var]int)
	onStack := make(map[Var]bool)
	sccOf := make(map[Var]string)

	var stack []Var

	counter := 0

	var order []Var

	var strongconnect func(v Var)

	strongconnect = func(v Var) {
		index[v] = counter
		lowlink[v] = counter
		counter++

		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, seen := index[w]; !seen {
				strongconnect(w)

				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if index[w] < lowlink[v] {
					lowlink[v] = index[w]
				}
			}
		}

		if lowlink[v] != index[v] {
			return
		}

		var rep Var

		for {
			n := len(stack) - 1
			w := stack[n]
			stack = stack[:n]
			onStack[w] = false

			if rep == "" {
				rep = w
			}

			sccOf[w] = string(rep)

			if w == v {
				break
			}
		}

		order = append(order, rep)
	}

	for _, v := range vars {
		if _, seen := index[v]; !seen {
			strongconnect(v)
		}
	}

	return sccOf, order
}
