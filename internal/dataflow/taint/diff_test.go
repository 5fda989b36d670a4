package taint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffClassifiesNewResolvedAndUnchanged(t *testing.T) {
	t.Parallel()

	shared := Vulnerability{Source: "FormValue", Sink: "Exec", Path: []string{"a", "b", "c"}}
	resolved := Vulnerability{Source: "FormValue", Sink: "WriteFile", Path: []string{"a", "d"}}
	fresh := Vulnerability{Source: "Header.Get", Sink: "Exec", Path: []string{"x", "y"}}

	before := Summary{Vulnerabilities: []Vulnerability{shared, resolved}}
	after := Summary{Vulnerabilities: []Vulnerability{shared, fresh}}

	entries := Diff(before, after)

	statuses := map[matchKey]DiffStatus{}
	for _, e := range entries {
		statuses[keyOf(e.Vulnerability)] = e.Status
	}

	assert.Equal(t, DiffUnchanged, statuses[keyOf(shared)])
	assert.Equal(t, DiffResolved, statuses[keyOf(resolved)])
	assert.Equal(t, DiffNew, statuses[keyOf(fresh)])
}
