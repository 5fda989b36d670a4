package config

import (
	"fmt"
	"sort"
)

// override is one layer of partial field overrides applied during
// Build(), in merge-precedence order. Only non-nil pointer fields are
// applied; nil means "this layer does not touch this field."
type override struct {
	source Source

	taintMaxDepth              *int
	taintMaxPaths              *int
	taintWorklistMaxIterations *int
	taintWidenAfterIterations  *int
	taintFieldSensitive        *bool
	taintUsePointsTo           *bool
	taintRelaxedReturnFlow     *bool

	ptaMode           *PTAMode
	ptaAutoThreshold  *int
	ptaFieldSensitive *bool

	cloneMinTokens           *int
	cloneSimilarityThreshold *float64

	chunkingMinSize *int
	chunkingMaxSize *int

	lexicalEnabled *bool

	parallelNumWorkers          *int
	parallelMaxFailuresFraction *float64
	parallelStageTimeoutSeconds *int

	cacheMemoryBudgetBytes *int64

	repomapTopK *int

	stages map[StageID]bool
}

// Builder assembles a ValidatedConfig from a preset plus zero or more
// override layers (file, env, builder calls), applied in that order,
// with the stage gate applied last and unconditionally. StrictMode
// governs whether an override targeting a disabled stage is a fatal
// DisabledStageOverrideError or a dropped-with-warning no-op.
type Builder struct {
	preset     Preset
	strictMode bool
	layers     []override
	gate       map[StageID]bool
}

// NewBuilder starts a Builder seeded with preset's defaults.
func NewBuilder(preset Preset) *Builder {
	return &Builder{preset: preset, gate: map[StageID]bool{}}
}

// WithStrictMode toggles whether a disabled-stage override is fatal.
func (b *Builder) WithStrictMode(strict bool) *Builder {
	b.strictMode = strict
	return b
}

// WithFileOverrides appends a file-sourced override layer, typically
// produced by Document.ToOverride.
func (b *Builder) WithFileOverrides(o override) *Builder {
	o.source = SourceFile
	b.layers = append(b.layers, o)

	return b
}

// WithEnvOverrides appends an environment-sourced override layer.
func (b *Builder) WithEnvOverrides(o override) *Builder {
	o.source = SourceEnv
	b.layers = append(b.layers, o)

	return b
}

// WithBuilderOverrides appends a programmatic override layer, the
// highest-precedence layer short of the stage gate.
func (b *Builder) WithBuilderOverrides(o override) *Builder {
	o.source = SourceBuilder
	b.layers = append(b.layers, o)

	return b
}

// WithStageGate sets the final enabled/disabled state for a stage,
// applied after every override layer.
func (b *Builder) WithStageGate(stage StageID, enabled bool) *Builder {
	b.gate[stage] = enabled
	return b
}

// Build merges preset defaults with every override layer in precedence
// order, applies the stage gate, validates ranges and cross-stage
// rules, and returns an immutable ValidatedConfig. Configuration errors
// abort before any analysis work, per the fatal/non-fatal error
// taxonomy.
func (b *Builder) Build() (*ValidatedConfig, error) {
	eff := presetDefaults(b.preset)
	prov := newProvenance()
	recordAll(prov, &eff, SourcePreset)

	// Layers apply in source precedence (file, env, builder), whatever
	// order the With*Overrides calls were made in.
	rank := map[Source]int{SourceFile: 0, SourceEnv: 1, SourceBuilder: 2}
	layers := append([]override(nil), b.layers...)
	sort.SliceStable(layers, func(i, j int) bool { return rank[layers[i].source] < rank[layers[j].source] })

	for _, layer := range layers {
		applyOverride(&eff, prov, layer)
	}

	var droppedWarnings []CrossStageWarning

	for stage, enabled := range b.gate {
		if !enabled && eff.stages[stage] {
			// The stage itself is being turned off; any override applied
			// to it above is now moot, but only strict mode treats a
			// present override as an error rather than silently dropped.
			if b.strictMode && hasOverrideFor(b.layers, stage) {
				return nil, &DisabledStageOverrideError{Stage: stage}
			}

			if hasOverrideFor(b.layers, stage) {
				droppedWarnings = append(droppedWarnings, CrossStageWarning{
					Severity: SeverityLow,
					Reason:   fmt.Sprintf("override for disabled stage %q dropped", stage),
				})
			}
		}

		eff.stages[stage] = enabled
		prov.record(fmt.Sprintf("stages.%s", stage), SourceStage)
	}

	if err := validateRanges(&eff); err != nil {
		return nil, err
	}

	warnings, err := validateCrossStage(&eff)
	if err != nil {
		return nil, err
	}

	warnings = append(droppedWarnings, warnings...)

	return &ValidatedConfig{
		preset:     b.preset,
		eff:        eff,
		provenance: prov,
		warnings:   warnings,
	}, nil
}

func hasOverrideFor(layers []override, stage StageID) bool {
	for _, l := range layers {
		if _, ok := l.stages[stage]; ok {
			return true
		}

		if overrideTouchesStageFields(l, stage) {
			return true
		}
	}

	return false
}

// overrideTouchesStageFields reports whether o sets any field that
// belongs to stage, independent of whether o also carries an explicit
// stage-gate entry for it.
func overrideTouchesStageFields(o override, stage StageID) bool {
	switch stage {
	case StageTaint:
		return o.taintMaxDepth != nil || o.taintMaxPaths != nil ||
			o.taintWorklistMaxIterations != nil || o.taintWidenAfterIterations != nil ||
			o.taintFieldSensitive != nil || o.taintUsePointsTo != nil ||
			o.taintRelaxedReturnFlow != nil
	case StagePTA:
		return o.ptaMode != nil || o.ptaAutoThreshold != nil || o.ptaFieldSensitive != nil
	case StageClone:
		return o.cloneMinTokens != nil || o.cloneSimilarityThreshold != nil
	case StageChunking:
		return o.chunkingMinSize != nil || o.chunkingMaxSize != nil
	case StageLexical:
		return o.lexicalEnabled != nil
	case StageRepomap:
		return o.repomapTopK != nil
	default:
		return false
	}
}

func recordAll(p *Provenance, e *effective, source Source) {
	for _, f := range knownFieldPaths {
		p.record(f, source)
	}

	for stage := range e.stages {
		p.record(fmt.Sprintf("stages.%s", stage), source)
	}
}

//nolint:cyclop // straightforward field-by-field merge, not worth splitting further.
func applyOverride(e *effective, prov *Provenance, o override) {
	if o.taintMaxDepth != nil {
		e.taint.MaxDepth = *o.taintMaxDepth
		prov.record("taint.max_depth", o.source)
	}

	if o.taintMaxPaths != nil {
		e.taint.MaxPaths = *o.taintMaxPaths
		prov.record("taint.max_paths", o.source)
	}

	if o.taintWorklistMaxIterations != nil {
		e.taint.WorklistMaxIterations = *o.taintWorklistMaxIterations
		prov.record("taint.worklist_max_iterations", o.source)
	}

	if o.taintWidenAfterIterations != nil {
		e.taint.WidenAfterIterations = *o.taintWidenAfterIterations
		prov.record("taint.widen_after_iterations", o.source)
	}

	if o.taintFieldSensitive != nil {
		e.taint.FieldSensitive = *o.taintFieldSensitive
		prov.record("taint.field_sensitive", o.source)
	}

	if o.taintUsePointsTo != nil {
		e.taint.UsePointsTo = *o.taintUsePointsTo
		prov.record("taint.use_points_to", o.source)
	}

	if o.taintRelaxedReturnFlow != nil {
		e.taint.RelaxedReturnFlow = *o.taintRelaxedReturnFlow
		prov.record("taint.relaxed_return_flow", o.source)
	}

	if o.ptaMode != nil {
		e.pta.Mode = *o.ptaMode
		prov.record("pta.mode", o.source)
	}

	if o.ptaAutoThreshold != nil {
		e.pta.AutoThreshold = *o.ptaAutoThreshold
		prov.record("pta.auto_threshold", o.source)
	}

	if o.ptaFieldSensitive != nil {
		e.pta.FieldSensitive = *o.ptaFieldSensitive
		prov.record("pta.field_sensitive", o.source)
	}

	if o.cloneMinTokens != nil {
		e.clone.MinTokens = *o.cloneMinTokens
		prov.record("clone.min_tokens", o.source)
	}

	if o.cloneSimilarityThreshold != nil {
		e.clone.SimilarityThreshold = *o.cloneSimilarityThreshold
		prov.record("clone.similarity_threshold", o.source)
	}

	if o.chunkingMinSize != nil {
		e.chunking.MinSize = *o.chunkingMinSize
		prov.record("chunking.min_size", o.source)
	}

	if o.chunkingMaxSize != nil {
		e.chunking.MaxSize = *o.chunkingMaxSize
		prov.record("chunking.max_size", o.source)
	}

	if o.lexicalEnabled != nil {
		e.lexical.Enabled = *o.lexicalEnabled
		prov.record("lexical.enabled", o.source)
	}

	if o.parallelNumWorkers != nil {
		e.parallel.NumWorkers = *o.parallelNumWorkers
		prov.record("parallel.num_workers", o.source)
	}

	if o.parallelMaxFailuresFraction != nil {
		e.parallel.MaxFailuresFraction = *o.parallelMaxFailuresFraction
		prov.record("parallel.max_failures_fraction", o.source)
	}

	if o.parallelStageTimeoutSeconds != nil {
		e.parallel.StageTimeoutSeconds = *o.parallelStageTimeoutSeconds
		prov.record("parallel.stage_timeout_seconds", o.source)
	}

	if o.cacheMemoryBudgetBytes != nil {
		e.cache.MemoryBudgetBytes = *o.cacheMemoryBudgetBytes
		prov.record("cache.memory_budget_bytes", o.source)
	}

	if o.repomapTopK != nil {
		e.repomap.TopK = *o.repomapTopK
		prov.record("repomap.top_k", o.source)
	}

	for stage, enabled := range o.stages {
		e.stages[stage] = enabled
		prov.record(fmt.Sprintf("stages.%s", stage), o.source)
	}
}
