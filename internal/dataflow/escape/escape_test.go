package escape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

func newDoc() *ir.IRDocument {
	return ir.NewIRDocument(ir.FileID{Path: "e.go", Language: "go"}, ir.Fingerprint{})
}

func TestAnalyzeFlagsReturnEscape(t *testing.T) {
	t.Parallel()

	fn := ir.NewNode("e.go", ir.KindFunction, "build", 1, 10)
	local := ir.NewNode("e.go", ir.KindVariable, "buf", 2, 2)
	ret := ir.NewNode("e.go", ir.KindReturnSite, "return", 3, 3)

	doc := newDoc()
	doc.AddNode(fn)
	doc.AddNode(local)
	doc.AddNode(ret)
	doc.AddEdge(ir.NewEdge(fn.ID, local.ID, ir.EdgeContains))
	doc.AddEdge(ir.NewEdge(fn.ID, ret.ID, ir.EdgeContains))
	doc.AddEdge(ir.NewEdge(local.ID, ret.ID, ir.EdgeDFGWrite))

	summary := AnalyzeDocument(doc, Config{})

	require.Len(t, summary.Sites, 1)
	assert.Equal(t, ReturnEscape, summary.Sites[0].State)
	assert.False(t, summary.Truncated)
}

func TestAnalyzeFlagsNoEscapeForPurelyLocalVariable(t *testing.T) {
	t.Parallel()

	fn := ir.NewNode("e.go", ir.KindFunction, "compute", 1, 10)
	local := ir.NewNode("e.go", ir.KindVariable, "sum", 2, 2)

	doc := newDoc()
	doc.AddNode(fn)
	doc.AddNode(local)
	doc.AddEdge(ir.NewEdge(fn.ID, local.ID, ir.EdgeContains))

	summary := AnalyzeDocument(doc, Config{})

	require.Len(t, summary.Sites, 1)
	assert.Equal(t, NoEscape, summary.Sites[0].State)
}

func TestAnalyzePropagatesEscapeAlongCopyChain(t *testing.T) {
	t.Parallel()

	fn := ir.NewNode("e.go", ir.KindFunction, "build", 1, 10)
	a := ir.NewNode("e.go", ir.KindVariable, "a", 2, 2)
	b := ir.NewNode("e.go", ir.KindVariable, "b", 3, 3)
	ret := ir.NewNode("e.go", ir.KindReturnSite, "return", 4, 4)

	doc := newDoc()
	doc.AddNode(fn)
	doc.AddNode(a)
	doc.AddNode(b)
	doc.AddNode(ret)
	doc.AddEdge(ir.NewEdge(fn.ID, a.ID, ir.EdgeContains))
	doc.AddEdge(ir.NewEdge(fn.ID, b.ID, ir.EdgeContains))
	doc.AddEdge(ir.NewEdge(fn.ID, ret.ID, ir.EdgeContains))

	// b := a; return b
	doc.AddEdge(ir.NewEdge(b.ID, a.ID, ir.EdgeDFGWrite))
	doc.AddEdge(ir.NewEdge(b.ID, ret.ID, ir.EdgeDFGWrite))

	summary := AnalyzeDocument(doc, Config{})

	states := map[string]EscapeState{}
	for _, s := range summary.Sites {
		states[s.NodeID] = s.State
	}

	assert.Equal(t, ReturnEscape, states[b.ID])
	assert.Equal(t, ReturnEscape, states[a.ID], "escape propagates backward along the copy chain to the original source")
}

func TestMergeKeepsMoreConservativeState(t *testing.T) {
	t.Parallel()

	assert.Equal(t, GlobalEscape, merge(NoEscape, GlobalEscape))
	assert.Equal(t, GlobalEscape, merge(GlobalEscape, ArgEscape))
	assert.Equal(t, Unknown, merge(GlobalEscape, Unknown))
}

func TestAnalyzeAcrossRepoAggregatesAllDocuments(t *testing.T) {
	t.Parallel()

	fn := ir.NewNode("r.go", ir.KindFunction, "handle", 1, 5)
	p := ir.NewNode("r.go", ir.KindParameter, "req", 1, 1)
	call := ir.NewNode("r.go", ir.KindCallSite, "log.Print", 2, 2)

	doc := newDoc()
	doc.AddNode(fn)
	doc.AddNode(p)
	doc.AddNode(call)
	doc.AddEdge(ir.NewEdge(fn.ID, p.ID, ir.EdgeContains))
	doc.AddEdge(ir.NewEdge(p.ID, call.ID, ir.EdgeDFGWrite))

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	summary := Analyze(repo, Config{})

	require.Len(t, summary.Sites, 1)
	assert.Equal(t, ArgEscape, summary.Sites[0].State)
}
