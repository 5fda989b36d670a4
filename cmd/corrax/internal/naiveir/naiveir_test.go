package naiveir_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/cmd/corrax/internal/naiveir"
	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/parserfacade"
)

const sampleGo = `package sample

func Add(a, b int) int {
	return a + b
}

func Sub(a, b int) int {
	return a - b
}
`

func buildDoc(t *testing.T, path, source string) *ir.IRDocument {
	t.Helper()

	ast, err := naiveir.Parser.Parse(context.Background(), path, []byte(source), parserfacade.LanguageGo)
	require.NoError(t, err)
	require.NotNil(t, ast.Root)

	doc, err := naiveir.BuildIR(ast, ir.ComputeFingerprint([]byte(source)))
	require.NoError(t, err)

	return doc
}

func nodesOfKind(doc *ir.IRDocument, kind ir.Kind) []*ir.Node {
	var out []*ir.Node

	for _, n := range doc.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}

	return out
}

func TestParseAndBuildIR(t *testing.T) {
	t.Parallel()

	doc := buildDoc(t, "sample.go", sampleGo)

	var funcs []string
	for _, n := range nodesOfKind(doc, ir.KindFunction) {
		funcs = append(funcs, n.Name)
	}

	assert.ElementsMatch(t, []string{"Add", "Sub"}, funcs)

	returns := nodesOfKind(doc, ir.KindReturnSite)
	require.Len(t, returns, 2)

	uses, ok := returns[0].Attr(ir.AttrUses)
	require.True(t, ok)
	assert.Equal(t, "a,b", uses)

	// file->Add, Add->return, file->Sub, Sub->return.
	assert.Equal(t, 4, doc.EdgeCount())
}

func TestBuildIRScriptStatementsLandInModuleScope(t *testing.T) {
	t.Parallel()

	doc := buildDoc(t, "script.py", "x = input()\neval(x)\n")

	fns := nodesOfKind(doc, ir.KindFunction)
	require.Len(t, fns, 1)
	assert.Equal(t, "<module>", fns[0].Name)

	calls := nodesOfKind(doc, ir.KindCallSite)
	require.Len(t, calls, 2)

	byName := map[string]*ir.Node{calls[0].Name: calls[0], calls[1].Name: calls[1]}

	source, ok := byName["input"]
	require.True(t, ok)
	defs, _ := source.Attr(ir.AttrDefs)
	assert.Equal(t, "x", defs)

	sink, ok := byName["eval"]
	require.True(t, ok)
	uses, _ := sink.Attr(ir.AttrUses)
	assert.Equal(t, "x", uses)
}

func TestBuildIRBranchCondition(t *testing.T) {
	t.Parallel()

	doc := buildDoc(t, "b.go", "func check() {\n\tif x > 10 {\n\t\treturn\n\t}\n}\n")

	branches := nodesOfKind(doc, ir.KindBranch)
	require.Len(t, branches, 1)

	cond, ok := branches[0].Attr(ir.AttrCondition)
	require.True(t, ok)
	assert.Equal(t, "x > 10", cond)
}

func TestBuildIRImports(t *testing.T) {
	t.Parallel()

	doc := buildDoc(t, "m.py", "import os\nimport \"lib/util.py\"\nfrom helpers.py import render\n")

	assert.ElementsMatch(t, []string{"lib/util.py", "helpers.py"}, doc.Imports)
}

func TestParseEmptySource(t *testing.T) {
	t.Parallel()

	ast, err := naiveir.Parser.Parse(context.Background(), "empty.go", nil, parserfacade.LanguageGo)
	require.NoError(t, err)

	doc, err := naiveir.BuildIR(ast, ir.Fingerprint{})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.NodeCount())
}
