// Package lexical builds the in-memory inverted index the lexical stage
// contributes to a run: identifier-grained terms drawn from a document's
// node names, def/use lists, and occurrence symbols, mapped to per-file
// postings. The on-disk search index named as a downstream consumer is
// an external collaborator; this package only produces the in-run term
// surface it would be fed from.
package lexical

import (
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/corraxdev/corrax/internal/ir"
)

// Posting is one file's term frequency.
type Posting struct {
	Path  string
	Count int
}

// Index is the repo-wide inverted index: term -> postings. Safe for
// concurrent Add calls, since the lexical stage runs per file across the
// worker pool.
type Index struct {
	mu    sync.RWMutex
	terms map[string]map[string]int
}

// NewIndex returns an empty Index.
func NewIndex() *Index {
	return &Index{terms: make(map[string]map[string]int)}
}

// Add folds one document's term frequencies into the index.
func (ix *Index) Add(path string, freqs map[string]int) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for term, n := range freqs {
		byFile, ok := ix.terms[term]
		if !ok {
			byFile = make(map[string]int, 1)
			ix.terms[term] = byFile
		}

		byFile[path] += n
	}
}

// Remove drops every posting for path, used when a file disappears
// between incremental runs.
func (ix *Index) Remove(path string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for term, byFile := range ix.terms {
		delete(byFile, path)

		if len(byFile) == 0 {
			delete(ix.terms, term)
		}
	}
}

// Lookup returns term's postings ordered by descending count, ties
// broken by path, so callers see a deterministic ranking.
func (ix *Index) Lookup(term string) []Posting {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	byFile := ix.terms[normalize(term)]

	postings := make([]Posting, 0, len(byFile))
	for path, n := range byFile {
		postings = append(postings, Posting{Path: path, Count: n})
	}

	sort.Slice(postings, func(i, j int) bool {
		if postings[i].Count != postings[j].Count {
			return postings[i].Count > postings[j].Count
		}

		return postings[i].Path < postings[j].Path
	})

	return postings
}

// TermCount reports how many distinct terms the index holds.
func (ix *Index) TermCount() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	return len(ix.terms)
}

// DocumentTerms computes a document's term frequencies: every node name,
// every name in its def/use attribute lists, and every occurrence symbol,
// split into identifier sub-words.
func DocumentTerms(doc *ir.IRDocument) map[string]int {
	freqs := make(map[string]int)

	add := func(raw string) {
		for _, term := range Tokenize(raw) {
			freqs[term]++
		}
	}

	for _, n := range doc.Nodes {
		add(n.Name)

		if defs, ok := n.Attr(ir.AttrDefs); ok {
			for _, d := range strings.Split(defs, ",") {
				add(d)
			}
		}

		if uses, ok := n.Attr(ir.AttrUses); ok {
			for _, u := range strings.Split(uses, ",") {
				add(u)
			}
		}
	}

	for _, occ := range doc.Occurrences {
		add(occ.Symbol)
	}

	return freqs
}

// Tokenize splits raw into lower-cased identifier terms: non-alphanumeric
// runs separate identifiers, and camelCase boundaries split one identifier
// into sub-words. Single-character terms are dropped as noise.
func Tokenize(raw string) []string {
	var terms []string

	for _, ident := range splitNonAlnum(raw) {
		for _, word := range splitCamel(ident) {
			if len(word) > 1 {
				terms = append(terms, strings.ToLower(word))
			}
		}
	}

	return terms
}

func normalize(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}

func splitNonAlnum(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func splitCamel(ident string) []string {
	var words []string

	start := 0

	runes := []rune(ident)
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]) {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}

	return append(words, string(runes[start:]))
}
