// Package depgraph tracks file-level import dependencies and computes the
// set of files affected by a change, for incremental re-analysis.
package depgraph

import (
	"sort"
	"sync"

	"github.com/corraxdev/corrax/pkg/alg/mapx"
	"github.com/corraxdev/corrax/pkg/toposort"
)

// Graph is a thread-safe directed graph of file dependencies: an edge from
// A to B means "A imports B". It tolerates cycles, unlike toposort.Graph's
// usual topological-order callers; ComputeAffectedFiles walks it with a
// visited set rather than assuming acyclicity.
type Graph struct {
	mu sync.RWMutex
	g  *toposort.Graph
}

// New creates an empty dependency graph.
func New() *Graph {
	return &Graph{g: toposort.NewGraph()}
}

// AddFile registers path as a node, even if it has no edges yet.
func (dg *Graph) AddFile(path string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	dg.g.AddNode(path)
}

// AddEdge records that src imports dst. External imports (stdlib, third
// party modules) should never be passed here; callers filter those out
// before calling AddEdge, since this graph only models intra-repo files.
func (dg *Graph) AddEdge(src, dst string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	dg.g.AddEdge(src, dst)
}

// RemoveFile deletes every edge touching path; path itself stays in the
// graph as a node with no edges. Files that imported path are no longer
// its dependents afterwards, so a later ComputeAffectedFiles call that
// includes path does not reach them.
func (dg *Graph) RemoveFile(path string) {
	dg.mu.Lock()
	defer dg.mu.Unlock()

	for _, dep := range dg.g.FindChildren(path) {
		dg.g.RemoveEdge(path, dep)
	}

	for _, dependent := range dg.g.FindParents(path) {
		dg.g.RemoveEdge(dependent, path)
	}
}

// Dependencies returns the files that path directly imports.
func (dg *Graph) Dependencies(path string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	return dg.g.FindChildren(path)
}

// Dependents returns the files that directly import path.
func (dg *Graph) Dependents(path string) []string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	return dg.g.FindParents(path)
}

// ComputeAffectedFiles returns every file transitively dependent on any
// file in changed, changed files themselves included. It walks reverse
// edges breadth-first with a visited set, so import cycles (A -> B -> C ->
// A) terminate instead of looping and every cycle member ends up in the
// result.
func (dg *Graph) ComputeAffectedFiles(changed []string) map[string]struct{} {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	affected := make(map[string]struct{}, len(changed))
	queue := make([]string, 0, len(changed))

	for _, f := range changed {
		if _, seen := affected[f]; !seen {
			affected[f] = struct{}{}
			queue = append(queue, f)
		}
	}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, parent := range dg.g.FindParents(cur) {
			if _, seen := affected[parent]; seen {
				continue
			}

			affected[parent] = struct{}{}
			queue = append(queue, parent)
		}
	}

	return affected
}

// AffectedFilesSorted is ComputeAffectedFiles as a path-sorted slice,
// for callers that need a deterministic processing order over the
// affected set.
func (dg *Graph) AffectedFilesSorted(changed []string) []string {
	return mapx.SortedKeys(dg.ComputeAffectedFiles(changed))
}

// Cycles reports import cycles reachable from each of the given seed
// files, one warning-worthy cycle per seed at most. Callers surface these
// as warnings; a cycle is never an error by itself, since many real
// codebases have them at the file level.
func (dg *Graph) Cycles(seeds []string) [][]string {
	dg.mu.RLock()
	defer dg.mu.RUnlock()

	seen := make(map[string]struct{})

	var cycles [][]string

	for _, seed := range seeds {
		if _, ok := seen[seed]; ok {
			continue
		}

		cyc := dg.g.FindCycle(seed)
		if len(cyc) == 0 {
			continue
		}

		for _, member := range cyc {
			seen[member] = struct{}{}
		}

		sorted := mapx.CloneSlice(cyc)
		sort.Strings(sorted)
		cycles = append(cycles, sorted)
	}

	return cycles
}
