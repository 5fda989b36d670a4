// Package crossfile links per-file IR into a repository-wide graph:
// call sites whose callee lives in another file gain an EdgeCalls edge
// to that file's function node, and identifiers naming a declaration
// elsewhere gain EdgeReferences edges. Per-file IR construction cannot
// see across file boundaries; this stage is where those seams close.
package crossfile

import (
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// QualResolution marks an edge added by this stage, distinguishing it
// from edges the IR builder authored.
const QualResolution = "resolution"

// resolutionCrossFile is QualResolution's value on every edge this
// stage appends.
const resolutionCrossFile = "cross_file"

// Summary is the resolution outcome attached to the run result.
type Summary struct {
	ResolvedCalls   int
	UnresolvedCalls int
	References      int
}

// callableKinds are the declaration kinds a call site may resolve to.
var callableKinds = map[ir.Kind]bool{
	ir.KindFunction: true,
	ir.KindMethod:   true,
}

// referableKinds are the declaration kinds an identifier may reference.
var referableKinds = map[ir.Kind]bool{
	ir.KindFunction:  true,
	ir.KindMethod:    true,
	ir.KindClass:     true,
	ir.KindStruct:    true,
	ir.KindInterface: true,
}

// Resolve links every document's unresolved call sites and identifiers
// against declarations in other documents, appending deduplicated
// cross-file edges in place. Candidate targets are matched by name; a
// name declared in several files links to all of them (the conservative
// over-approximation a later points-to pass can narrow). Iteration
// orders are path- and line-sorted throughout, so repeated runs produce
// identical edge vectors.
func Resolve(repo *pipeline.RepoView) Summary {
	decls := declIndex(repo)

	var s Summary

	for _, doc := range repo.Documents() {
		existing := edgeSet(doc)

		for _, n := range doc.Nodes {
			switch {
			case n.Kind == ir.KindCallSite:
				resolveCall(doc, n, decls, existing, &s)
			case n.Kind == ir.KindIdentifier:
				resolveReference(doc, n, decls, existing, &s)
			}
		}
	}

	return s
}

func resolveCall(doc *ir.IRDocument, site *ir.Node, decls map[string][]*ir.Node, existing map[[3]string]bool, s *Summary) {
	if hasCallEdge(existing, site.ID) {
		s.ResolvedCalls++

		return
	}

	resolved := false

	for _, target := range decls[site.Name] {
		if !callableKinds[target.Kind] || target.File == doc.File.Path {
			continue
		}

		if addEdge(doc, existing, site.ID, target.ID, ir.EdgeCalls) {
			resolved = true
		}
	}

	if resolved {
		s.ResolvedCalls++
	} else {
		s.UnresolvedCalls++
	}
}

func resolveReference(doc *ir.IRDocument, id *ir.Node, decls map[string][]*ir.Node, existing map[[3]string]bool, s *Summary) {
	for _, target := range decls[id.Name] {
		if !referableKinds[target.Kind] || target.File == doc.File.Path {
			continue
		}

		if addEdge(doc, existing, id.ID, target.ID, ir.EdgeReferences) {
			s.References++
		}
	}
}

// declIndex maps declaration name to its nodes across the repository,
// each list sorted by file then start line.
func declIndex(repo *pipeline.RepoView) map[string][]*ir.Node {
	decls := make(map[string][]*ir.Node)

	for _, doc := range repo.Documents() {
		for _, n := range doc.Nodes {
			if referableKinds[n.Kind] {
				decls[n.Name] = append(decls[n.Name], n)
			}
		}
	}

	for name := range decls {
		sort.Slice(decls[name], func(i, j int) bool {
			a, b := decls[name][i], decls[name][j]
			if a.File != b.File {
				return a.File < b.File
			}

			return a.StartLine < b.StartLine
		})
	}

	return decls
}

func edgeSet(doc *ir.IRDocument) map[[3]string]bool {
	set := make(map[[3]string]bool, len(doc.Edges))
	for _, e := range doc.Edges {
		set[[3]string{e.From, e.To, string(e.Kind)}] = true
	}

	return set
}

func hasCallEdge(existing map[[3]string]bool, siteID string) bool {
	for key := range existing {
		if key[0] == siteID && key[2] == string(ir.EdgeCalls) {
			return true
		}
	}

	return false
}

func addEdge(doc *ir.IRDocument, existing map[[3]string]bool, from, to string, kind ir.EdgeKind) bool {
	key := [3]string{from, to, string(kind)}
	if existing[key] {
		return false
	}

	existing[key] = true

	doc.AddEdge(ir.NewEdge(from, to, kind).WithQualifier(QualResolution, resolutionCrossFile))

	return true
}
