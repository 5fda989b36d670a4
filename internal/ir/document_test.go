package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corraxdev/corrax/internal/ir"
)

func TestComputeFingerprintStable(t *testing.T) {
	t.Parallel()

	f1 := ir.ComputeFingerprint([]byte("package main"))
	f2 := ir.ComputeFingerprint([]byte("package main"))
	assert.Equal(t, f1, f2)

	f3 := ir.ComputeFingerprint([]byte("package other"))
	assert.NotEqual(t, f1, f3)
	assert.False(t, f1.IsZero())
}

func TestCacheKeyString(t *testing.T) {
	t.Parallel()

	key := ir.CacheKey{
		File:        ir.FileID{Path: "a/b.go", Language: "go"},
		Fingerprint: ir.ComputeFingerprint([]byte("x")),
	}

	s1 := key.String()
	s2 := key.String()
	assert.Equal(t, s1, s2)
}

func TestIRDocumentNodeByID(t *testing.T) {
	t.Parallel()

	doc := ir.NewIRDocument(ir.FileID{Path: "a.go", Language: "go"}, ir.ComputeFingerprint([]byte("x")))
	n := ir.NewNode("a.go", ir.KindFunction, "Foo", 1, 2)
	doc.AddNode(n)

	found, ok := doc.NodeByID(n.ID)
	require.True(t, ok)
	assert.Equal(t, n, found)

	_, ok = doc.NodeByID("missing")
	assert.False(t, ok)

	assert.Equal(t, 1, doc.NodeCount())
	assert.Equal(t, 0, doc.EdgeCount())
}
