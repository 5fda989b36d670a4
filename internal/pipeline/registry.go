package pipeline

import (
	"context"
	"fmt"

	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/internal/ir"
)

// FileStageFunc implements a KindPerFile stage: it mutates or reads doc
// in place, returning a per-file error (never aborting the pipeline).
type FileStageFunc func(ctx context.Context, doc *ir.IRDocument, cfg *config.ValidatedConfig) error

// CrossFileStageFunc implements a KindCrossFile stage over the full
// merged repository view. A non-nil error is pipeline-fatal: cross-file
// stages have no "skip this file" escape hatch, since they don't operate
// per file.
type CrossFileStageFunc func(ctx context.Context, repo *RepoView, cfg *config.ValidatedConfig) error

// Registry binds stage identifiers to their implementations. Concrete
// analyses (taint, points-to, clone, ...) register themselves here; the
// orchestrator itself knows nothing about any stage's internals beyond
// Kind and its declared dependencies.
type Registry struct {
	fileStages  map[Stage]FileStageFunc
	crossStages map[Stage]CrossFileStageFunc
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		fileStages:  make(map[Stage]FileStageFunc),
		crossStages: make(map[Stage]CrossFileStageFunc),
	}
}

// RegisterFileStage binds a per-file stage implementation. Panics on a
// kind mismatch or double registration: both are wiring bugs, not
// runtime conditions a caller should need to handle.
func (r *Registry) RegisterFileStage(stage Stage, fn FileStageFunc) {
	d, ok := catalog[stage]
	if !ok {
		panic(fmt.Sprintf("pipeline: %s is not a declared stage", stage))
	}

	if d.kind != KindPerFile {
		panic(fmt.Sprintf("pipeline: %s is not a per-file stage", stage))
	}

	if _, exists := r.fileStages[stage]; exists {
		panic(fmt.Sprintf("pipeline: %s already registered", stage))
	}

	r.fileStages[stage] = fn
}

// RegisterCrossFileStage binds a cross-file stage implementation.
func (r *Registry) RegisterCrossFileStage(stage Stage, fn CrossFileStageFunc) {
	d, ok := catalog[stage]
	if !ok {
		panic(fmt.Sprintf("pipeline: %s is not a declared stage", stage))
	}

	if d.kind != KindCrossFile {
		panic(fmt.Sprintf("pipeline: %s is not a cross-file stage", stage))
	}

	if _, exists := r.crossStages[stage]; exists {
		panic(fmt.Sprintf("pipeline: %s already registered", stage))
	}

	r.crossStages[stage] = fn
}
