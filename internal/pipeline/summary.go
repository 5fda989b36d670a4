package pipeline

import (
	"context"
	"sync"
)

// SummaryStore collects the analysis summary each stage implementation
// produces (points-to pairs, taint findings, clone pairs, ...) for
// attachment to the run's Result, keyed by Stage. This package has no
// dependency on any concrete summary shape: stage implementations decide
// what they store and callers type-assert Result.Summaries[stage]
// themselves.
type SummaryStore struct {
	mu   sync.Mutex
	data map[Stage]any
}

func newSummaryStore() *SummaryStore {
	return &SummaryStore{data: make(map[Stage]any)}
}

type summaryStoreKey struct{}

func withSummaryStore(ctx context.Context, s *SummaryStore) context.Context {
	return context.WithValue(ctx, summaryStoreKey{}, s)
}

// SetSummary records value as stage's summary for the run currently
// executing on ctx. A stage implementation calls this from within its
// FileStageFunc/CrossFileStageFunc using the ctx it was handed; calling
// it with a ctx the orchestrator did not construct is a silent no-op,
// since there is no run to attach the summary to.
func SetSummary(ctx context.Context, stage Stage, value any) {
	s, ok := ctx.Value(summaryStoreKey{}).(*SummaryStore)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[stage] = value
}

// UpdateSummary replaces stage's summary with merge(current), holding the
// store's lock across the call. Per-file stages run concurrently across
// the worker pool, so a stage that accumulates one repo-wide summary out
// of per-document results must fold each document in through this rather
// than read-modify-write via SetSummary. merge receives nil on the first
// call for a stage.
func UpdateSummary(ctx context.Context, stage Stage, merge func(current any) any) {
	s, ok := ctx.Value(summaryStoreKey{}).(*SummaryStore)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[stage] = merge(s.data[stage])
}

func (s *SummaryStore) snapshot() map[Stage]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[Stage]any, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}

	return out
}
