// Package pipeline orchestrates the staged analysis run: a DAG-ordered
// sequence of per-file and cross-file stages over a worker pool, with
// tiered-cache lookups, dependency-graph-scoped incremental re-runs, and a
// per-file failure budget.
package pipeline

import (
	"github.com/corraxdev/corrax/internal/config"
	"github.com/corraxdev/corrax/pkg/toposort"
)

// Stage names every node in the pipeline DAG. Most, but not all, have a
// matching config.StageID: structural stages (parsing, IR build, flow
// graphs, symbols, type inference, PDG, effects) always run and carry no
// independent on/off toggle, so they have no config counterpart.
type Stage string

// Core stage catalog, matching the dependency order of the stage
// catalog: Parsing -> IR Build -> Chunking -> Lexical -> Cross-File ->
// Flow Graphs -> Symbols -> Type Inference -> Points-To -> Escape ->
// PDG -> Taint -> Clone -> Effects -> Slicing -> Concurrency -> Heap ->
// Typestate -> RepoMap.
const (
	StageParsing        Stage = "parsing"
	StageIRBuild        Stage = "ir_build"
	StageChunking       Stage = "chunking"
	StageLexical        Stage = "lexical"
	StageCrossFile      Stage = "cross_file_resolution"
	StageFlowGraphs     Stage = "flow_graphs"
	StageSymbols        Stage = "symbols"
	StageTypeInference  Stage = "type_inference"
	StagePointsTo       Stage = "pta"
	StageEscape         Stage = "escape"
	StagePDG            Stage = "pdg"
	StageTaint          Stage = "taint"
	StageClone          Stage = "clone"
	StageEffects        Stage = "effects"
	StageSlicing        Stage = "slicing"
	StageConcurrency    Stage = "concurrency"
	StageHeap           Stage = "heap"
	StageTypestate      Stage = "typestate"
	StageRepomap        Stage = "repomap"
)

// Kind distinguishes stages that run once per file, in the worker pool,
// from stages that run once over the full merged repository view.
type Kind int

const (
	// KindPerFile stages run independently per file and are safely
	// parallelized across the worker pool; their cached results are
	// keyed by CacheKey(FileID, fingerprint).
	KindPerFile Kind = iota
	// KindCrossFile stages run once, after every per-file stage's IR is
	// available, over the merged repository view.
	KindCrossFile
)

// def is a stage's static declaration: its kind, its declared
// dependencies, and the config.StageID gating it (empty for structural
// stages that always run).
type def struct {
	kind      Kind
	dependsOn []Stage
	gate      config.StageID
}

// catalog is the full static stage DAG, declarative data per the
// pipeline's stable-identifier contract. Edges encode "runs after".
var catalog = map[Stage]def{
	StageParsing:       {kind: KindPerFile},
	StageIRBuild:       {kind: KindPerFile, dependsOn: []Stage{StageParsing}},
	StageChunking:      {kind: KindPerFile, dependsOn: []Stage{StageIRBuild}, gate: config.StageChunking},
	StageLexical:       {kind: KindPerFile, dependsOn: []Stage{StageIRBuild}, gate: config.StageLexical},
	StageCrossFile:     {kind: KindCrossFile, dependsOn: []Stage{StageChunking, StageLexical}, gate: config.StageCrossFile},
	StageFlowGraphs:    {kind: KindPerFile, dependsOn: []Stage{StageCrossFile}},
	StageSymbols:       {kind: KindCrossFile, dependsOn: []Stage{StageFlowGraphs}},
	StageTypeInference: {kind: KindPerFile, dependsOn: []Stage{StageSymbols}},
	StagePointsTo:      {kind: KindCrossFile, dependsOn: []Stage{StageTypeInference}, gate: config.StagePTA},
	StageEscape:        {kind: KindPerFile, dependsOn: []Stage{StagePointsTo}, gate: config.StageEscape},
	StagePDG:           {kind: KindPerFile, dependsOn: []Stage{StageEscape}},
	StageTaint:         {kind: KindCrossFile, dependsOn: []Stage{StagePDG}, gate: config.StageTaint},
	StageClone:         {kind: KindCrossFile, dependsOn: []Stage{StageTaint}, gate: config.StageClone},
	StageEffects:       {kind: KindPerFile, dependsOn: []Stage{StageClone}},
	StageSlicing:       {kind: KindCrossFile, dependsOn: []Stage{StageEffects}, gate: config.StageSlicing},
	StageConcurrency:   {kind: KindCrossFile, dependsOn: []Stage{StageSlicing}, gate: config.StageConcurrency},
	StageHeap:          {kind: KindCrossFile, dependsOn: []Stage{StageConcurrency}, gate: config.StageHeap},
	StageTypestate:     {kind: KindCrossFile, dependsOn: []Stage{StageHeap}, gate: config.StageTypestate},
	StageRepomap:       {kind: KindCrossFile, dependsOn: []Stage{StageTypestate}, gate: config.StageRepomap},
}

// buildDAG materializes catalog as a toposort.Graph, reusing the same
// Graph type internal/depgraph wraps for the file-import graph: this one
// is a true DAG (Toposort, not BFS-over-parents, orders it) since the
// stage catalog never contains cycles by construction.
func buildDAG() *toposort.Graph {
	g := toposort.NewGraph()

	for stage := range catalog {
		g.AddNode(string(stage))
	}

	for stage, d := range catalog {
		for _, dep := range d.dependsOn {
			g.AddEdge(string(dep), string(stage))
		}
	}

	return g
}

// orderedStages returns every declared stage in dependency order. Panics
// if the static catalog contains a cycle, which would be a programming
// error in this file, never a runtime condition.
func orderedStages() []Stage {
	g := buildDAG()

	order, ok := g.Toposort()
	if !ok {
		panic("pipeline: stage catalog contains a cycle")
	}

	stages := make([]Stage, len(order))
	for i, name := range order {
		stages[i] = Stage(name)
	}

	return stages
}

// enabled reports whether stage should run under cfg: structural stages
// with no gate always run; gated stages defer to the gate's toggle.
func enabled(stage Stage, cfg *config.ValidatedConfig) bool {
	d := catalog[stage]
	if d.gate == "" {
		return true
	}

	return cfg.IsStageEnabled(d.gate)
}
