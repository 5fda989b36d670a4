package lexical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/ir"
)

func TestTokenizeSplitsIdentifiers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "camel case", raw: "parseConfigFile", want: []string{"parse", "config", "file"}},
		{name: "snake case", raw: "max_retry_count", want: []string{"max", "retry", "count"}},
		{name: "mixed punctuation", raw: "foo.bar(baz)", want: []string{"foo", "bar", "baz"}},
		{name: "single chars dropped", raw: "a.b(c)", want: nil},
		{name: "acronym run kept whole", raw: "HTTPServer", want: []string{"httpserver"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, Tokenize(tc.raw))
		})
	}
}

func TestDocumentTermsCoversNamesDefsUsesOccurrences(t *testing.T) {
	t.Parallel()

	doc := ir.NewIRDocument(ir.FileID{Path: "lx.go", Language: "go"}, ir.Fingerprint{})
	doc.AddNode(ir.NewNode("lx.go", ir.KindFunction, "renderPage", 1, 5))

	v := ir.NewNode("lx.go", ir.KindVariable, "total", 2, 2)
	v.WithAttr(ir.AttrDefs, "total")
	v.WithAttr(ir.AttrUses, "price,quantity")
	doc.AddNode(v)

	doc.Occurrences = append(doc.Occurrences, ir.Occurrence{Symbol: "renderPage", File: "lx.go", StartLine: 1})

	freqs := DocumentTerms(doc)

	assert.Equal(t, 2, freqs["render"])
	assert.Equal(t, 2, freqs["page"])
	assert.Equal(t, 2, freqs["total"])
	assert.Equal(t, 1, freqs["price"])
	assert.Equal(t, 1, freqs["quantity"])
}

func TestIndexLookupRanksByCount(t *testing.T) {
	t.Parallel()

	ix := NewIndex()
	ix.Add("a.go", map[string]int{"render": 1})
	ix.Add("b.go", map[string]int{"render": 3})

	postings := ix.Lookup("Render")

	require.Len(t, postings, 2)
	assert.Equal(t, "b.go", postings[0].Path)
	assert.Equal(t, 3, postings[0].Count)
	assert.Equal(t, "a.go", postings[1].Path)
}

func TestIndexRemoveDropsFilePostings(t *testing.T) {
	t.Parallel()

	ix := NewIndex()
	ix.Add("a.go", map[string]int{"render": 1, "parse": 2})
	ix.Add("b.go", map[string]int{"render": 1})

	ix.Remove("a.go")

	assert.Equal(t, 1, ix.TermCount())
	assert.Empty(t, ix.Lookup("parse"))
	require.Len(t, ix.Lookup("render"), 1)
	assert.Equal(t, "b.go", ix.Lookup("render")[0].Path)
}
