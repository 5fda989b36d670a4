// Package symbolindex builds a reverse symbol -> occurrences index over a
// set of IRDocuments, serving "find references" style queries for the IDE
// and retrieval consumers named in the system overview.
package symbolindex

import (
	"sort"
	"sync"

	"github.com/corraxdev/corrax/internal/ir"
	"github.com/corraxdev/corrax/pkg/alg/mapx"
)

// Index is a thread-safe reverse index from symbol name to its occurrences.
type Index struct {
	mu      sync.RWMutex
	entries map[string][]ir.Occurrence
}

// New creates an empty Index.
func New() *Index {
	return &Index{entries: make(map[string][]ir.Occurrence)}
}

// Add indexes every occurrence in doc. Safe for concurrent use across
// documents; the symbols stage calls Add once per document.
func (idx *Index) Add(doc *ir.IRDocument) {
	if len(doc.Occurrences) == 0 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, occ := range doc.Occurrences {
		idx.entries[occ.Symbol] = append(idx.entries[occ.Symbol], occ)
	}
}

// Lookup returns all occurrences of symbol, definitions first, then
// references ordered by file and line for determinism.
func (idx *Index) Lookup(symbol string) []ir.Occurrence {
	idx.mu.RLock()
	occs := append([]ir.Occurrence(nil), idx.entries[symbol]...)
	idx.mu.RUnlock()

	sort.Slice(occs, func(i, j int) bool {
		if occs[i].IsDef != occs[j].IsDef {
			return occs[i].IsDef
		}

		if occs[i].File != occs[j].File {
			return occs[i].File < occs[j].File
		}

		return occs[i].StartLine < occs[j].StartLine
	})

	return occs
}

// Symbols returns all indexed symbol names, sorted.
func (idx *Index) Symbols() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return mapx.SortedKeys(idx.entries)
}

// Len returns the number of distinct symbols indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.entries)
}
