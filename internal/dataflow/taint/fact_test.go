package taint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFactWithConditionIsComparable(t *testing.T) {
	t.Parallel()

	base := Fact{Location: "x"}
	cond := PathCondition{Var: "n", Op: OpLt, Literal: Literal{Kind: LitInt, Int: 5}}

	a := base.withCondition(cond)
	b := base.withCondition(cond)

	assert.Equal(t, a, b, "identical conditions must intern to the same key")
	assert.Equal(t, []PathCondition{cond}, a.conditions())
}

func TestFactWithConditionOrderIndependent(t *testing.T) {
	t.Parallel()

	c1 := PathCondition{Var: "a", Op: OpEq, Literal: Literal{Kind: LitInt, Int: 1}}
	c2 := PathCondition{Var: "b", Op: OpEq, Literal: Literal{Kind: LitInt, Int: 2}}

	first := Fact{Location: "x"}.withCondition(c1).withCondition(c2)
	second := Fact{Location: "x"}.withCondition(c2).withCondition(c1)

	assert.Equal(t, first, second)
}

func TestZeroFactIsZero(t *testing.T) {
	t.Parallel()

	assert.True(t, Zero.IsZero())
	assert.False(t, Fact{Location: "x"}.IsZero())
}
