package clone

import (
	"sort"
	"strings"

	"github.com/corraxdev/corrax/internal/ir"
)

// shingleSeparator joins a window of node kinds into one shingle string,
// matching the teacher clones package's "|"-joined node-type shingle.
const shingleSeparator = "|"

// function is one candidate clone unit: a Function/Method node plus the
// IR nodes it Contains, in source order.
type function struct {
	id      string
	name    string
	owner   *ir.Node
	members []*ir.Node
}

// collectFunctions groups every Function/Method node in doc with its
// EdgeContains descendants, ordered by start line (the IR's closest
// analogue to the teacher's pre-order UAST traversal).
func collectFunctions(doc *ir.IRDocument) []function {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	members := make(map[string][]*ir.Node)

	for _, e := range doc.Edges {
		if e.Kind != ir.EdgeContains {
			continue
		}

		owner, ok := byID[e.From]
		if !ok || (owner.Kind != ir.KindFunction && owner.Kind != ir.KindMethod) {
			continue
		}

		target, ok := byID[e.To]
		if !ok {
			continue
		}

		members[owner.ID] = append(members[owner.ID], target)
	}

	out := make([]function, 0, len(members))

	for _, n := range doc.Nodes {
		if n.Kind != ir.KindFunction && n.Kind != ir.KindMethod {
			continue
		}

		ms := members[n.ID]
		sort.Slice(ms, func(i, j int) bool { return ms[i].StartLine < ms[j].StartLine })

		out = append(out, function{id: n.ID, name: n.Name, owner: n, members: ms})
	}

	return out
}

// shingles returns k-gram shingles over the function's member node kinds:
// sequences of k consecutive Kind values, shingle-separator-joined. This
// is identifier-agnostic by construction (it never reads Node.Name),
// which is what makes plain Type-1/Type-2 clones both detectable by the
// same signature.
func shingles(fn function, k int) [][]byte {
	if len(fn.members) < k {
		return nil
	}

	kinds := make([]string, len(fn.members))
	for i, m := range fn.members {
		kinds[i] = string(m.Kind)
	}

	out := make([][]byte, 0, len(fn.members)-k+1)

	for i := 0; i+k <= len(kinds); i++ {
		out = append(out, []byte(strings.Join(kinds[i:i+k], shingleSeparator)))
	}

	return out
}

// kindBag is a multiset of member kinds, order-independent, used to spot
// Type-4 (semantic/reordered) clones: two functions whose statements
// were reordered or restructured keep the same kind multiset but lose
// positional shingle overlap.
func kindBag(fn function) map[string]int {
	bag := make(map[string]int, len(fn.members))
	for _, m := range fn.members {
		bag[string(m.Kind)]++
	}

	return bag
}

// bagJaccard computes Jaccard similarity between two kind multisets,
// treating each (kind, count) pair as a distinct element so a function
// using a kind three times only fully overlaps another using it three
// times too.
func bagJaccard(a, b map[string]int) float64 {
	inter, union := 0, 0

	for k, ca := range a {
		cb := b[k]

		if ca < cb {
			inter += ca
			union += cb
		} else {
			inter += cb
			union += ca
		}
	}

	for k, cb := range b {
		if _, ok := a[k]; !ok {
			union += cb
		}
	}

	if union == 0 {
		return 0
	}

	return float64(inter) / float64(union)
}

// sourceText approximates a function's source text as its members' names
// in order, one name per line, for the go-diff near-miss confirmation
// pass (which diffs line by line).
// The IR carries no raw source text at this granularity, so this is a
// deliberately coarse proxy: good enough to distinguish a near-identical
// reordering from a coincidental structural match.
func sourceText(fn function) string {
	names := make([]string, len(fn.members))
	for i, m := range fn.members {
		names[i] = m.Name
	}

	return strings.Join(names, "\n")
}
