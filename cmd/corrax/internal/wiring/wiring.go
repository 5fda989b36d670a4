// Package wiring assembles the one pipeline.Registry corrax's binary
// actually runs: every analysis stage's RegisterStage call, in one
// place, so a new stage package only ever needs a single line added
// here to stop being dead code.
package wiring

import (
	"github.com/corraxdev/corrax/internal/analyses/chunking"
	"github.com/corraxdev/corrax/internal/analyses/clone"
	"github.com/corraxdev/corrax/internal/analyses/concurrency"
	"github.com/corraxdev/corrax/internal/analyses/crossfile"
	"github.com/corraxdev/corrax/internal/analyses/effects"
	"github.com/corraxdev/corrax/internal/analyses/heap"
	"github.com/corraxdev/corrax/internal/analyses/lexical"
	"github.com/corraxdev/corrax/internal/analyses/repomap"
	"github.com/corraxdev/corrax/internal/analyses/slice"
	"github.com/corraxdev/corrax/internal/analyses/typeinfer"
	"github.com/corraxdev/corrax/internal/analyses/typestate"
	"github.com/corraxdev/corrax/internal/dataflow/escape"
	"github.com/corraxdev/corrax/internal/dataflow/pta"
	"github.com/corraxdev/corrax/internal/dataflow/taint"
	"github.com/corraxdev/corrax/internal/graphs"
	"github.com/corraxdev/corrax/internal/ir/symbolindex"
	"github.com/corraxdev/corrax/internal/pipeline"
)

// NewRegistry builds a pipeline.Registry with every analysis stage
// corrax ships registered against it. Stages still gate on the run's
// ValidatedConfig (see internal/pipeline/stage.go's enabled()); a stage
// registered here but disabled by the active preset simply never runs.
func NewRegistry() *pipeline.Registry {
	registry := pipeline.NewRegistry()

	chunking.RegisterStage(registry)
	lexical.RegisterStage(registry)
	crossfile.RegisterStage(registry)
	graphs.RegisterStage(registry)
	symbolindex.RegisterStage(registry)
	typeinfer.RegisterStage(registry)
	pta.RegisterStage(registry)
	taint.RegisterStage(registry, taint.Matchers{
		Sources:    taint.DefaultWebSources(),
		Sinks:      taint.DefaultSinks(),
		Sanitizers: taint.DefaultSanitizers(),
	}, nil)
	escape.RegisterStage(registry)
	effects.RegisterStage(registry)
	clone.RegisterStage(registry)
	typestate.RegisterStage(registry)
	heap.RegisterStage(registry)
	concurrency.RegisterStage(registry)
	slice.RegisterStage(registry)
	repomap.RegisterStage(registry)

	return registry
}
