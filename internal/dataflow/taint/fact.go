package taint

import (
	"sort"
	"strings"
	"sync"
)

// Fact is the dataflow fact IFDS/IDE tracks for taint: a tainted abstract
// location (variable name, field path when field-sensitive, or a
// synthetic heap-cell name) paired with the accumulated path condition
// under which that taint was observed. Facts must be comparable to serve
// as IFDS dataflow facts and map keys; the condition conjunction is
// interned to a string key (condSet) rather than carried as a slice, so
// two identically-conditioned facts compare equal in O(1).
type Fact struct {
	Location string
	condSet  condKey
}

// Zero is the fact representing "reachable, untainted" (⊥ in the IFDS
// literature): the absence of any tracked taint.
var Zero = Fact{}

// IsZero reports whether f is the zero fact.
func (f Fact) IsZero() bool { return f.Location == "" }

// conditions returns the PathConditions accumulated for this fact.
func (f Fact) conditions() []PathCondition {
	return internedConditions(f.condSet)
}

// condKey is an interned, comparable key for a sorted conjunction of
// PathConditions.
type condKey string

var (
	internMu    sync.Mutex
	internTable = map[condKey][]PathCondition{}
)

// withLocation returns a fact naming loc, carrying the same path
// conditions as f.
func (f Fact) withLocation(loc string) Fact {
	return Fact{Location: loc, condSet: f.condSet}
}

// withCondition returns a fact with cond appended to the conjunction,
// interning the resulting set.
func (f Fact) withCondition(cond PathCondition) Fact {
	existing := internedConditions(f.condSet)
	next := make([]PathCondition, len(existing), len(existing)+1)
	copy(next, existing)
	next = append(next, cond)

	return Fact{Location: f.Location, condSet: internConditions(next)}
}

func internConditions(conds []PathCondition) condKey {
	sorted := make([]PathCondition, len(conds))
	copy(sorted, conds)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Var != sorted[j].Var {
			return sorted[i].Var < sorted[j].Var
		}

		return sorted[i].Op < sorted[j].Op
	})

	var b strings.Builder
	for _, c := range sorted {
		b.WriteString(c.String())
		b.WriteByte(';')
	}

	key := condKey(b.String())

	internMu.Lock()
	defer internMu.Unlock()

	if _, ok := internTable[key]; !ok {
		internTable[key] = sorted
	}

	return key
}

func internedConditions(key condKey) []PathCondition {
	if key == "" {
		return nil
	}

	internMu.Lock()
	defer internMu.Unlock()

	return internTable[key]
}
