package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corraxdev/corrax/internal/ir"
)

func TestAllocatorReusesFreedNodes(t *testing.T) {
	t.Parallel()

	alloc := ir.NewAllocator()
	n1 := alloc.NewNode("a.go", ir.KindFunction, "Foo", 1, 2)
	id := n1.ID
	alloc.Put(n1)

	n2 := alloc.Get()
	assert.Same(t, n1, n2)
	assert.Empty(t, n2.ID)

	n3 := alloc.NewNode("a.go", ir.KindFunction, "Foo", 1, 2)
	assert.Equal(t, id, n3.ID)
}
