package pta

import (
	"github.com/corraxdev/corrax/internal/graphs"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// ResolveCallGraph assembles the repository call graph the points-to
// stage publishes: direct EdgeCalls edges plus indirect targets
// recovered from alias facts. A call site whose callee name is a local
// variable (not a function) resolves to every function whose name some
// alias of that variable carries — the `f = handler; f(...)` pattern at
// this IR's granularity.
func ResolveCallGraph(repo *pipeline.RepoView, result *Result) *graphs.CallGraph {
	docs := repo.Documents()

	funcsByName := make(map[string][]*ir.Node)
	varsByName := make(map[string][]*ir.Node)
	hasDirect := make(map[string]bool)

	for _, doc := range docs {
		for _, n := range doc.Nodes {
			switch n.Kind {
			case ir.KindFunction, ir.KindMethod:
				funcsByName[n.Name] = append(funcsByName[n.Name], n)
			case ir.KindVariable, ir.KindParameter:
				varsByName[n.Name] = append(varsByName[n.Name], n)
			}
		}

		for _, e := range doc.Edges {
			if e.Kind == ir.EdgeCalls {
				hasDirect[e.From] = true
			}
		}
	}

	extra := make(map[string][]string)

	for _, doc := range docs {
		for _, site := range doc.Nodes {
			if site.Kind != ir.KindCallSite || hasDirect[site.ID] {
				continue
			}

			for _, target := range indirectTargets(site, doc.File.Path, funcsByName, varsByName, result) {
				extra[site.ID] = append(extra[site.ID], target)
			}
		}
	}

	return graphs.BuildCallGraph(docs, extra)
}

// indirectTargets resolves one unlinked call site: the callee name must
// be a same-file variable, and every variable it may-aliases whose name
// matches a function resolves the site to that function.
func indirectTargets(
	site *ir.Node, path string, funcsByName, varsByName map[string][]*ir.Node, result *Result,
) []string {
	var targets []string

	for _, callee := range varsByName[site.Name] {
		if callee.File != path {
			continue
		}

		for fnName, fns := range funcsByName {
			for _, aliased := range varsByName[fnName] {
				if !result.MayAlias(Var(callee.ID), Var(aliased.ID)) {
					continue
				}

				for _, fn := range fns {
					targets = append(targets, fn.ID)
				}

				break
			}
		}
	}

	return targets
}
