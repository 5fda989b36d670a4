package pta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// buildAliasRepo constructs p, q, r where q := p and r := p, so q and r
// may alias through p's allocation site, and s is assigned independently
// and must not alias either.
func buildAliasRepo(t *testing.T) *pipeline.RepoView {
	t.Helper()

	p := ir.NewNode("a.go", ir.KindVariable, "p", 1, 1)
	q := ir.NewNode("a.go", ir.KindVariable, "q", 2, 2)
	r := ir.NewNode("a.go", ir.KindVariable, "r", 3, 3)
	s := ir.NewNode("a.go", ir.KindVariable, "s", 4, 4)

	doc := ir.NewIRDocument(ir.FileID{Path: "a.go", Language: "go"}, ir.Fingerprint{})
	doc.AddNode(p)
	doc.AddNode(q)
	doc.AddNode(r)
	doc.AddNode(s)

	doc.AddEdge(ir.NewEdge(q.ID, p.ID, ir.EdgeDFGWrite))
	doc.AddEdge(ir.NewEdge(r.ID, p.ID, ir.EdgeDFGWrite))

	view := pipeline.NewRepoView()
	view.Put(doc)

	return view
}

func TestAndersenAliasesCopiesOfSameSource(t *testing.T) {
	t.Parallel()

	repo := buildAliasRepo(t)
	cg := buildConstraintGraph(repo, false)

	pointsTo := runAndersen(cg)

	qVar := varForName(repo, "q")
	rVar := varForName(repo, "r")
	sVar := varForName(repo, "s")

	require.NotEmpty(t, pointsTo[qVar])
	require.NotEmpty(t, pointsTo[rVar])

	result := &Result{PointsTo: pointsTo}

	assert.True(t, result.MayAlias(qVar, rVar))
	assert.False(t, result.MayAlias(qVar, sVar))
}

func TestSteensgaardUnifiesTransitively(t *testing.T) {
	t.Parallel()

	repo := buildAliasRepo(t)
	cg := buildConstraintGraph(repo, false)

	pointsTo := runSteensgaard(cg)

	qVar := varForName(repo, "q")
	rVar := varForName(repo, "r")

	result := &Result{PointsTo: pointsTo}
	assert.True(t, result.MayAlias(qVar, rVar))
}

func TestAnalyzeAutoModePicksPreciseBelowThreshold(t *testing.T) {
	t.Parallel()

	repo := buildAliasRepo(t)

	res := Analyze(repo, config.PTAConfig{Mode: config.PTAModeAuto, AutoThreshold: 1000})

	assert.Equal(t, AlgorithmAndersen, res.Algorithm)
	assert.Equal(t, 4, res.VarCount)
}

func TestAnalyzeAutoModePicksFastAboveThreshold(t *testing.T) {
	t.Parallel()

	repo := buildAliasRepo(t)

	res := Analyze(repo, config.PTAConfig{Mode: config.PTAModeAuto, AutoThreshold: 1})

	assert.Equal(t, AlgorithmSteensgaard, res.Algorithm)
}

func TestMustAliasRequiresSingletonMatch(t *testing.T) {
	t.Parallel()

	repo := buildAliasRepo(t)
	cg := buildConstraintGraph(repo, false)

	pointsTo := runAndersen(cg)
	result := &Result{PointsTo: pointsTo}

	// q and r each carry their own allocation-site identity in addition
	// to the object copied in from p, so their points-to sets overlap
	// (MayAlias) without being the same singleton set (not MustAlias).
	qVar := varForName(repo, "q")
	rVar := varForName(repo, "r")

	assert.False(t, result.MustAlias(qVar, rVar))

	pVar := varForName(repo, "p")
	assert.True(t, result.MustAlias(pVar, pVar))
}

func varForName(repo *pipeline.RepoView, name string) Var {
	for _, doc := range repo.Documents() {
		for _, n := range doc.Nodes {
			if n.Name == name {
				return Var(n.ID)
			}
		}
	}

	return ""
}
