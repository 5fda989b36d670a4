package pta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// TestResolveCallGraphIndirectThroughAlias covers the
// `f = handler; f(...)` pattern: the call site names a variable, the
// variable aliases the function's name binding, and the call graph
// resolves the site to the function.
func TestResolveCallGraphIndirectThroughAlias(t *testing.T) {
	t.Parallel()

	doc := ir.NewIRDocument(ir.FileID{Path: "cg.go", Language: "go"}, ir.Fingerprint{})

	fn := ir.NewNode("cg.go", ir.KindFunction, "handler", 10, 20)
	handlerVar := ir.NewNode("cg.go", ir.KindVariable, "handler", 2, 2)
	f := ir.NewNode("cg.go", ir.KindVariable, "f", 3, 3)
	site := ir.NewNode("cg.go", ir.KindCallSite, "f", 4, 4)

	doc.AddNode(fn)
	doc.AddNode(handlerVar)
	doc.AddNode(f)
	doc.AddNode(site)

	// f = handler.
	doc.AddEdge(ir.NewEdge(f.ID, handlerVar.ID, ir.EdgeAlias))

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	result := Analyze(repo, config.PTAConfig{Mode: config.PTAModePrecise})
	cg := ResolveCallGraph(repo, result)

	require.Contains(t, cg.Callees, site.ID)
	assert.Equal(t, []string{fn.ID}, cg.Callees[site.ID])
	assert.Equal(t, []string{site.ID}, cg.Callers[fn.ID])
}

// TestResolveCallGraphKeepsDirectEdges checks direct EdgeCalls edges
// pass through untouched and suppress indirect resolution for the same
// site.
func TestResolveCallGraphKeepsDirectEdges(t *testing.T) {
	t.Parallel()

	doc := ir.NewIRDocument(ir.FileID{Path: "cg.go", Language: "go"}, ir.Fingerprint{})

	fn := ir.NewNode("cg.go", ir.KindFunction, "handler", 10, 20)
	site := ir.NewNode("cg.go", ir.KindCallSite, "handler", 4, 4)

	doc.AddNode(fn)
	doc.AddNode(site)
	doc.AddEdge(ir.NewEdge(site.ID, fn.ID, ir.EdgeCalls))

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	result := Analyze(repo, config.PTAConfig{Mode: config.PTAModePrecise})
	cg := ResolveCallGraph(repo, result)

	assert.Equal(t, []string{fn.ID}, cg.Callees[site.ID])
}
