package config

import "github.com/corraxdev/corrax/pkg/units"

// Preset names a bundled cost/precision tradeoff. Custom supplies no
// defaults at all; every field must come from a file, env, or builder
// override. Build() runs the same range validation as for other presets,
// so a left-unset field whose zero value is out of range (the chunking
// sizes always, an enabled stage's own fields) fails with a RangeError.
type Preset string

// Declared presets, in increasing cost-class order.
const (
	PresetFast     Preset = "fast"
	PresetBalanced Preset = "balanced"
	PresetThorough Preset = "thorough"
	PresetCustom   Preset = "custom"
)

// presetDefaults returns the baseline effective config for preset, or
// the zero value for PresetCustom (the builder/file/env layers must
// supply everything).
func presetDefaults(preset Preset) effective {
	switch preset {
	case PresetFast:
		return fastDefaults()
	case PresetBalanced:
		return balancedDefaults()
	case PresetThorough:
		return thoroughDefaults()
	case PresetCustom:
		return effective{stages: map[StageID]bool{}}
	default:
		return effective{stages: map[StageID]bool{}}
	}
}

func baseStages(enabled ...StageID) map[StageID]bool {
	set := make(map[StageID]bool, len(allStages))
	for _, s := range allStages {
		set[s] = false
	}

	for _, s := range enabled {
		set[s] = true
	}

	return set
}

// fastDefaults targets under five seconds on low-thousands-of-LOC
// repositories: parsing, chunking, and lexical indexing only.
func fastDefaults() effective {
	return effective{
		taint:    TaintConfig{},
		pta:      PTAConfig{Mode: PTAModeFast},
		clone:    CloneConfig{},
		chunking: ChunkingConfig{MinSize: 20, MaxSize: 200},
		lexical:  LexicalConfig{Enabled: true},
		parallel: ParallelConfig{NumWorkers: 0, MaxFailuresFraction: 0.1, StageTimeoutSeconds: 10},
		cache:    CacheConfig{MemoryBudgetBytes: 64 * units.MiB},
		repomap:  RepomapConfig{TopK: 20},
		stages:   baseStages(StageParsing, StageChunking, StageLexical),
	}
}

// balancedDefaults targets under thirty seconds on tens-of-thousands-of-
// LOC repositories: adds cross-file resolution, taint, auto-mode PTA.
func balancedDefaults() effective {
	return effective{
		taint: TaintConfig{
			MaxDepth:              50,
			MaxPaths:              1000,
			WorklistMaxIterations: 200_000,
			WidenAfterIterations:  3,
			FieldSensitive:        false,
			UsePointsTo:           true,
		},
		pta:      PTAConfig{Mode: PTAModeAuto, AutoThreshold: 5000, FieldSensitive: false},
		clone:    CloneConfig{},
		chunking: ChunkingConfig{MinSize: 20, MaxSize: 200},
		lexical:  LexicalConfig{Enabled: true},
		parallel: ParallelConfig{NumWorkers: 0, MaxFailuresFraction: 0.1, StageTimeoutSeconds: 60},
		cache:    CacheConfig{MemoryBudgetBytes: 512 * units.MiB},
		repomap:  RepomapConfig{TopK: 50},
		stages: baseStages(
			StageParsing, StageChunking, StageLexical, StageCrossFile,
			StageTaint, StagePTA,
		),
	}
}

// thoroughDefaults targets under five minutes on hundreds-of-thousands-
// of-LOC repositories: every analysis stage, precise (Andersen) PTA,
// interprocedural taint, clone detection, slicing.
func thoroughDefaults() effective {
	return effective{
		taint: TaintConfig{
			MaxDepth:              500,
			MaxPaths:              20_000,
			WorklistMaxIterations: 2_000_000,
			WidenAfterIterations:  3,
			FieldSensitive:        true,
			UsePointsTo:           true,
		},
		pta:      PTAConfig{Mode: PTAModePrecise, AutoThreshold: 5000, FieldSensitive: true},
		clone:    CloneConfig{MinTokens: 30, SimilarityThreshold: 0.8},
		chunking: ChunkingConfig{MinSize: 10, MaxSize: 400},
		lexical:  LexicalConfig{Enabled: true},
		parallel: ParallelConfig{NumWorkers: 0, MaxFailuresFraction: 0.1, StageTimeoutSeconds: 300},
		cache:    CacheConfig{MemoryBudgetBytes: 4 * units.GiB},
		repomap:  RepomapConfig{TopK: 100},
		stages: baseStages(
			StageParsing, StageChunking, StageLexical, StageCrossFile,
			StageTaint, StagePTA, StageClone, StageEscape, StageTypestate,
			StageHeap, StageConcurrency, StageSlicing, StageRepomap,
		),
	}
}
