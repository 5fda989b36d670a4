package clone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

func newDoc(path string) *ir.IRDocument {
	return ir.NewIRDocument(ir.FileID{Path: path, Language: "go"}, ir.Fingerprint{})
}

// addFunc builds a function node with n statement members of the given
// kinds, wired with EdgeContains, and returns the function node.
func addFunc(doc *ir.IRDocument, name string, startLine int, kinds ...ir.Kind) *ir.Node {
	fn := ir.NewNode(doc.File.Path, ir.KindFunction, name, startLine, startLine+len(kinds)+1)
	doc.AddNode(fn)

	for i, k := range kinds {
		member := ir.NewNode(doc.File.Path, k, name+"_stmt", startLine+i+1, startLine+i+1)
		doc.AddNode(member)
		doc.AddEdge(ir.NewEdge(fn.ID, member.ID, ir.EdgeContains))
	}

	return fn
}

func TestAnalyzeDetectsExactClonePair(t *testing.T) {
	t.Parallel()

	kinds := []ir.Kind{ir.KindVariable, ir.KindCallSite, ir.KindReturnSite, ir.KindVariable, ir.KindCallSite}

	doc := newDoc("a.go")
	addFunc(doc, "one", 1, kinds...)
	addFunc(doc, "two", 20, kinds...)

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	summary := Analyze(repo, Config{})

	require.NotEmpty(t, summary.Pairs)
	assert.Equal(t, Type1, summary.Pairs[0].Type)
	assert.InDelta(t, 1.0, summary.Pairs[0].Similarity, 0.001)
}

func TestAnalyzeSkipsUnrelatedFunctions(t *testing.T) {
	t.Parallel()

	doc := newDoc("b.go")
	addFunc(doc, "alpha", 1, ir.KindVariable, ir.KindCallSite, ir.KindReturnSite, ir.KindVariable, ir.KindCallSite)
	addFunc(doc, "beta", 20, ir.KindParameter, ir.KindBranch, ir.KindLoop, ir.KindAssignment, ir.KindCallSite)

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	summary := Analyze(repo, Config{})

	for _, p := range summary.Pairs {
		assert.NotEqual(t, Type1, p.Type)
	}
}

func TestAnalyzeFlagsReorderedStatementsAsType4(t *testing.T) {
	t.Parallel()

	doc := newDoc("c.go")
	addFunc(doc, "forward", 1, ir.KindVariable, ir.KindCallSite, ir.KindReturnSite, ir.KindBranch, ir.KindLoop, ir.KindAssignment)
	addFunc(doc, "reordered", 20, ir.KindLoop, ir.KindAssignment, ir.KindVariable, ir.KindBranch, ir.KindCallSite, ir.KindReturnSite)

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	summary := Analyze(repo, Config{})

	found := false

	for _, p := range summary.Pairs {
		if p.Type == Type4 {
			found = true
		}
	}

	assert.True(t, found, "expected a Type4 pair for reordered-but-equal statement kinds")
}

func TestBagJaccardIdenticalBagsIsOne(t *testing.T) {
	t.Parallel()

	bag := map[string]int{"call": 2, "var": 1}

	assert.InDelta(t, 1.0, bagJaccard(bag, bag), 0.0001)
}

func TestBagJaccardDisjointBagsIsZero(t *testing.T) {
	t.Parallel()

	a := map[string]int{"call": 2}
	b := map[string]int{"loop": 3}

	assert.Equal(t, 0.0, bagJaccard(a, b))
}
