// Package clone implements types 1-4 duplicate code detection over the
// merged repository graph: MinHash signatures of per-function shingles
// feed an LSH index for candidate retrieval, near-miss candidates are
// confirmed with a diff-ratio pass, and a separate multiset check flags
// semantically equivalent but reordered (Type-4) pairs that token
// shingling alone would miss.
package clone

import (
	"sort"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/pipeline"
	"github.com/corraxdev/corrax/pkg/alg/lsh"
	"github.com/corraxdev/corrax/pkg/alg/minhash"
)

// Type classifies a detected clone pair.
type Type string

// Clone type constants, per the classical type 1-4 taxonomy.
const (
	Type1 Type = "type_1" // exact: identical shingle sequence.
	Type2 Type = "type_2" // renamed: identical structure, different identifiers.
	Type3 Type = "type_3" // near-miss: similar structure, small edits.
	Type4 Type = "type_4" // semantic: same statement multiset, reordered.
)

// Shingling and LSH parameters, matching the teacher clones package's
// banding scheme (numBands * numRows = numHashes).
const (
	shingleSize = 5
	numHashes   = 128
	numBands    = 16
	numRows     = 8
)

// similarityExact is the MinHash similarity above which a pair is
// classified Type1 rather than Type2 (an exact shingle match implies
// the function bodies agree token-for-token at this granularity).
const similarityExact = 0.999

// bagOnlyThreshold is the bag-Jaccard floor for flagging a pair Type4
// when its MinHash shingle similarity fell below the LSH query
// threshold: same statement kinds, different order.
const bagOnlyThreshold = 0.85

// Pair is one detected clone relationship.
type Pair struct {
	FuncA      string
	FuncB      string
	Similarity float64
	Type       Type
	Confirmed  bool // set when a near-miss pair passed diff-ratio confirmation.
}

// Config is the effective clone-detection configuration.
type Config struct {
	config.CloneConfig
}

// Summary is the whole-repository clone detection outcome.
type Summary struct {
	Pairs          []Pair
	TotalFunctions int
}

// Analyze detects clone pairs across every function in repo.
func Analyze(repo *pipeline.RepoView, cfg Config) Summary {
	minTokens := cfg.MinTokens
	if minTokens <= 0 {
		minTokens = shingleSize
	}

	threshold := cfg.SimilarityThreshold
	if threshold <= 0 {
		threshold = 0.5
	}

	var fns []function

	for _, doc := range repo.Documents() {
		fns = append(fns, collectFunctions(doc)...)
	}

	entries := buildEntries(fns, minTokens)
	pairs := detectClones(entries, threshold)
	pairs = append(pairs, detectSemanticClones(entries, pairs, threshold)...)

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Similarity != pairs[j].Similarity {
			return pairs[i].Similarity > pairs[j].Similarity
		}

		return pairs[i].FuncA < pairs[j].FuncA
	})

	return Summary{Pairs: pairs, TotalFunctions: len(fns)}
}

// entry pairs a function with its MinHash signature and bag-of-kinds,
// computed once and reused across LSH query and Type-4 detection.
type entry struct {
	fn   function
	sig  *minhash.Signature
	bag  map[string]int
}

func buildEntries(fns []function, minTokens int) []entry {
	entries := make([]entry, 0, len(fns))

	for _, fn := range fns {
		shs := shingles(fn, minTokens)
		if len(shs) == 0 {
			continue
		}

		sig, err := minhash.New(numHashes)
		if err != nil {
			continue
		}

		for _, s := range shs {
			sig.Add(s)
		}

		entries = append(entries, entry{fn: fn, sig: sig, bag: kindBag(fn)})
	}

	return entries
}

// pairKey canonically orders two function ids so (a, b) and (b, a)
// collide in the seen-set.
type pairKey struct{ a, b string }

func keyFor(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}

	return pairKey{a: a, b: b}
}

func detectClones(entries []entry, threshold float64) []Pair {
	if len(entries) == 0 {
		return nil
	}

	idx, err := lsh.New(numBands, numRows)
	if err != nil {
		return nil
	}

	bySig := make(map[string]*entry, len(entries))

	for i := range entries {
		e := &entries[i]
		bySig[e.fn.id] = e

		if insertErr := idx.Insert(e.fn.id, e.sig); insertErr != nil {
			continue
		}
	}

	seen := make(map[pairKey]bool)

	var pairs []Pair

	for _, e := range entries {
		candidates, err := idx.QueryThreshold(e.sig, threshold)
		if err != nil {
			continue
		}

		for _, candidateID := range candidates {
			if candidateID == e.fn.id {
				continue
			}

			key := keyFor(e.fn.id, candidateID)
			if seen[key] {
				continue
			}

			seen[key] = true

			other, ok := bySig[candidateID]
			if !ok {
				continue
			}

			sim, err := e.sig.Similarity(other.sig)
			if err != nil || sim < threshold {
				continue
			}

			pairs = append(pairs, buildPair(&e, *other, sim))
		}
	}

	return pairs
}

func buildPair(a *entry, b entry, similarity float64) Pair {
	cloneType := Type2
	if similarity >= similarityExact {
		cloneType = Type1
	} else if similarity < 0.8 {
		cloneType = Type3
	}

	pair := Pair{FuncA: a.fn.name, FuncB: b.fn.name, Similarity: similarity, Type: cloneType}

	if cloneType == Type3 {
		pair.Confirmed = confirmNearMiss(a.fn, b.fn)
	}

	return pair
}

// detectSemanticClones flags pairs with high bag-of-kinds overlap that
// detectClones's LSH/shingle pass did not already report: these are
// candidate Type-4 (reordered/restructured) clones, a different failure
// mode than near-miss edits.
func detectSemanticClones(entries []entry, existing []Pair, threshold float64) []Pair {
	seen := make(map[pairKey]bool, len(existing))
	for _, p := range existing {
		seen[keyFor(p.FuncA, p.FuncB)] = true
	}

	var pairs []Pair

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]

			key := keyFor(a.fn.id, b.fn.id)
			if seen[key] {
				continue
			}

			sim := bagJaccard(a.bag, b.bag)
			if sim < bagOnlyThreshold || sim < threshold {
				continue
			}

			seen[key] = true

			pairs = append(pairs, Pair{FuncA: a.fn.name, FuncB: b.fn.name, Similarity: sim, Type: Type4})
		}
	}

	return pairs
}
