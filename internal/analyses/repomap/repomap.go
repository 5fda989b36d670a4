// Package repomap ranks functions and methods by repository-wide
// importance, the way an engineer skimming an unfamiliar codebase would
// prioritize what to read first: PageRank over the call graph surfaces
// structurally central functions, and a HyperLogLog sketch of each
// function's distinct callers adds a cheap breadth signal PageRank alone
// misses (a function called identically many times by one caller scores
// high on PageRank but is locally, not broadly, important).
package repomap

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
	"github.com/corraxdev/corrax/pkg/alg/hll"
)

const (
	damping         = 0.85
	iterations      = 20
	hllPrecision    = 14
	defaultTopK     = 50
	pageRankWeight  = 0.7
	callerBreadthWt = 0.3
)

// Entry is one function's repository-relevance ranking.
type Entry struct {
	Function        string
	File            string
	PageRank        float64
	DistinctCallers uint64
	Score           float64
}

// Summary is the whole-repository relevance ranking outcome.
type Summary struct {
	Entries   []Entry
	Truncated bool
}

// Config bounds how many ranked entries are returned.
type Config struct {
	TopK int
}

// Analyze ranks every Function/Method node across repo.
func Analyze(repo *pipeline.RepoView, cfg Config) Summary {
	topK := cfg.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	nodes, edges, files, names := buildCallGraph(repo.Documents())
	ranks := pageRank(nodes, edges, damping, iterations)
	breadth := callerBreadth(nodes, edges)

	entries := make([]Entry, 0, len(nodes))

	maxRank, maxBreadth := maxOf(ranks, nodes), maxBreadthOf(breadth, nodes)

	for _, id := range nodes {
		normRank := safeDiv(ranks[id], maxRank)
		normBreadth := safeDiv(float64(breadth[id]), maxBreadth)

		entries = append(entries, Entry{
			Function:        names[id],
			File:            files[id],
			PageRank:        ranks[id],
			DistinctCallers: breadth[id],
			Score:           pageRankWeight*normRank + callerBreadthWt*normBreadth,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}

		return entries[i].Function < entries[j].Function
	})

	truncated := false

	if len(entries) > topK {
		entries = entries[:topK]
		truncated = true
	}

	return Summary{Entries: entries, Truncated: truncated}
}

func buildCallGraph(docs []*ir.IRDocument) (nodes []string, edges map[string][]string, files map[string]string, names map[string]string) {
	edges = make(map[string][]string)
	files = make(map[string]string)
	names = make(map[string]string)

	seen := make(map[string]bool)

	for _, doc := range docs {
		byID := make(map[string]*ir.Node, len(doc.Nodes))
		for _, n := range doc.Nodes {
			byID[n.ID] = n
		}

		for _, n := range doc.Nodes {
			if n.Kind != ir.KindFunction && n.Kind != ir.KindMethod {
				continue
			}

			if !seen[n.ID] {
				seen[n.ID] = true
				nodes = append(nodes, n.ID)
				names[n.ID] = n.Name
				files[n.ID] = n.File
			}
		}

		for _, e := range doc.Edges {
			if e.Kind != ir.EdgeCalls {
				continue
			}

			from, ok1 := byID[e.From]
			to, ok2 := byID[e.To]

			if !ok1 || !ok2 {
				continue
			}

			if from.Kind != ir.KindFunction && from.Kind != ir.KindMethod {
				continue
			}

			if to.Kind != ir.KindFunction && to.Kind != ir.KindMethod {
				continue
			}

			edges[from.ID] = append(edges[from.ID], to.ID)
		}
	}

	sort.Strings(nodes)

	return nodes, edges, files, names
}

// callerBreadth estimates, per callee, the number of distinct callers
// via a HyperLogLog sketch seeded with each caller's node id.
func callerBreadth(nodes []string, edges map[string][]string) map[string]uint64 {
	sketches := make(map[string]*hll.Sketch, len(nodes))

	get := func(id string) *hll.Sketch {
		sk, ok := sketches[id]
		if !ok {
			var err error

			sk, err = hll.New(hllPrecision)
			if err != nil {
				return nil
			}

			sketches[id] = sk
		}

		return sk
	}

	for from, tos := range edges {
		for _, to := range tos {
			if sk := get(to); sk != nil {
				sk.Add([]byte(from))
			}
		}
	}

	out := make(map[string]uint64, len(nodes))

	for _, id := range nodes {
		if sk, ok := sketches[id]; ok {
			out[id] = sk.Count()
		}
	}

	return out
}

func maxOf(m map[string]float64, keys []string) float64 {
	max := 0.0

	for _, k := range keys {
		if v := m[k]; v > max {
			max = v
		}
	}

	return max
}

func maxBreadthOf(m map[string]uint64, keys []string) float64 {
	var max uint64

	for _, k := range keys {
		if v := m[k]; v > max {
			max = v
		}
	}

	return float64(max)
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}

	return a / b
}
