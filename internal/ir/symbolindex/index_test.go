package symbolindex_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/internal/ir/symbolindex"
)

func TestIndexLookupOrdersDefsFirst(t *testing.T) {
	t.Parallel()

	idx := symbolindex.New()
	doc := ir.NewIRDocument(ir.FileID{Path: "a.go", Language: "go"}, ir.Fingerprint{})
	doc.Occurrences = []ir.Occurrence{
		{Symbol: "foo", File: "a.go", StartLine: 10, IsDef: false},
		{Symbol: "foo", File: "a.go", StartLine: 2, IsDef: true},
	}
	idx.Add(doc)

	occs := idx.Lookup("foo")
	assert.Len(t, occs, 2)
	assert.True(t, occs[0].IsDef)
	assert.Equal(t, 2, occs[0].StartLine)

	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, []string{"foo"}, idx.Symbols())
	assert.Empty(t, idx.Lookup("missing"))
}
