package lru_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/corraxdev/corrax/pkg/alg/lru"
)

func TestRemoveDeletesEntry(t *testing.T) {
	t.Parallel()

	c := lru.New[string, int](lru.WithMaxEntries[string, int](testMaxEntries))
	c.Put("a", 1)
	c.Put("b", 2)

	assert.True(t, c.Remove("a"))
	assert.Equal(t, 1, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestRemoveMissingKeyReturnsFalse(t *testing.T) {
	t.Parallel()

	c := lru.New[string, int](lru.WithMaxEntries[string, int](testMaxEntries))

	assert.False(t, c.Remove("nope"))
}

func TestRemoveThenPutAllowsReinsertion(t *testing.T) {
	t.Parallel()

	c := lru.New[string, int](lru.WithMaxEntries[string, int](testMaxEntries))
	c.Put("a", 1)
	c.Remove("a")
	c.Put("a", 2)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, 1, c.Len())
}
