package repomap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

func newDoc() *ir.IRDocument {
	return ir.NewIRDocument(ir.FileID{Path: "rm.go", Language: "go"}, ir.Fingerprint{})
}

func TestAnalyzeRanksHubFunctionAboveLeaf(t *testing.T) {
	t.Parallel()

	doc := newDoc()

	hub := ir.NewNode("rm.go", ir.KindFunction, "hub", 1, 5)
	leaf := ir.NewNode("rm.go", ir.KindFunction, "leaf", 10, 15)
	caller1 := ir.NewNode("rm.go", ir.KindFunction, "caller1", 20, 25)
	caller2 := ir.NewNode("rm.go", ir.KindFunction, "caller2", 30, 35)

	doc.AddNode(hub)
	doc.AddNode(leaf)
	doc.AddNode(caller1)
	doc.AddNode(caller2)

	doc.AddEdge(ir.NewEdge(caller1.ID, hub.ID, ir.EdgeCalls))
	doc.AddEdge(ir.NewEdge(caller2.ID, hub.ID, ir.EdgeCalls))
	doc.AddEdge(ir.NewEdge(caller1.ID, leaf.ID, ir.EdgeCalls))

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	summary := Analyze(repo, Config{TopK: 10})

	require.NotEmpty(t, summary.Entries)

	scoreByName := make(map[string]float64)
	for _, e := range summary.Entries {
		scoreByName[e.Function] = e.Score
	}

	assert.Greater(t, scoreByName["hub"], scoreByName["leaf"])
}

func TestAnalyzeTruncatesToTopK(t *testing.T) {
	t.Parallel()

	doc := newDoc()

	for i := 0; i < 5; i++ {
		fn := ir.NewNode("rm.go", ir.KindFunction, "fn", i*10+1, i*10+5)
		doc.AddNode(fn)
	}

	repo := pipeline.NewRepoView()
	repo.Put(doc)

	summary := Analyze(repo, Config{TopK: 2})

	assert.Len(t, summary.Entries, 2)
	assert.True(t, summary.Truncated)
}
