package pipeline

import (
	"sort"
	"sync"

	"github.com/corraxdev/corrax/internal/ir"
)

// RepoView is the merged, read-mostly repository view cross-file stages
// operate over: every file's IRDocument, addressable by path. It lives
// as long as its Orchestrator: the build wave installs each processed
// file's IRDocument, and documents of files an incremental run does not
// reprocess stay in the view from the earlier run.
type RepoView struct {
	mu    sync.RWMutex
	docs  map[string]*ir.IRDocument
}

// NewRepoView returns an empty RepoView.
func NewRepoView() *RepoView {
	return &RepoView{docs: make(map[string]*ir.IRDocument)}
}

// Put installs or replaces a file's IRDocument.
func (v *RepoView) Put(doc *ir.IRDocument) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.docs[doc.File.Path] = doc
}

// Remove drops a file's IRDocument, used when a file is deleted between
// incremental runs.
func (v *RepoView) Remove(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()

	delete(v.docs, path)
}

// Get returns a file's IRDocument, if present.
func (v *RepoView) Get(path string) (*ir.IRDocument, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	d, ok := v.docs[path]

	return d, ok
}

// Paths returns every file path currently in the view, sorted: cross-file
// stages that must impose deterministic output ordering (§5) iterate in
// this order rather than map iteration order.
func (v *RepoView) Paths() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()

	paths := make([]string, 0, len(v.docs))
	for p := range v.docs {
		paths = append(paths, p)
	}

	sort.Strings(paths)

	return paths
}

// Documents returns every IRDocument, ordered by Paths.
func (v *RepoView) Documents() []*ir.IRDocument {
	paths := v.Paths()

	v.mu.RLock()
	defer v.mu.RUnlock()

	docs := make([]*ir.IRDocument, len(paths))
	for i, p := range paths {
		docs[i] = v.docs[p]
	}

	return docs
}

// Len reports how many files are in the view.
func (v *RepoView) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return len(v.docs)
}
