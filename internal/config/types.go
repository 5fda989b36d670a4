// Package config provides the validated, versioned configuration system:
// presets, per-stage overrides, cross-stage validation, and provenance
// tracking over the merge of preset defaults, a declarative file, the
// environment, and builder calls.
package config

// StageID names a pipeline stage that can be toggled on or off and that
// owns a slice of per-stage configuration.
type StageID string

// Canonical stage names. These are the keys accepted in a declarative
// document's "stages" and "overrides" tables.
const (
	StageParsing     StageID = "parsing"
	StageChunking    StageID = "chunking"
	StageLexical     StageID = "lexical"
	StageCrossFile   StageID = "cross_file_resolution"
	StageTaint       StageID = "taint"
	StagePTA         StageID = "pta"
	StageClone       StageID = "clone"
	StageEscape      StageID = "escape"
	StageTypestate   StageID = "typestate"
	StageHeap        StageID = "heap"
	StageConcurrency StageID = "concurrency"
	StageSlicing     StageID = "slicing"
	StageRepomap     StageID = "repomap"
)

// allStages lists every stage in declaration order, used to walk the
// stage table deterministically and to validate "stages" keys.
var allStages = []StageID{
	StageParsing, StageChunking, StageLexical, StageCrossFile,
	StageTaint, StagePTA, StageClone, StageEscape, StageTypestate,
	StageHeap, StageConcurrency, StageSlicing, StageRepomap,
}

// PTAMode selects the points-to analysis algorithm.
type PTAMode string

// Points-to modes. Auto picks Fast or Precise at run start based on the
// number of pointer-relevant variables against pta.auto_threshold.
const (
	PTAModeAuto    PTAMode = "auto"
	PTAModeFast    PTAMode = "fast"    // Steensgaard unification.
	PTAModePrecise PTAMode = "precise" // Andersen subset.
)

// TaintConfig is the effective taint-analysis configuration.
type TaintConfig struct {
	MaxDepth              int  `mapstructure:"max_depth"`
	MaxPaths              int  `mapstructure:"max_paths"`
	WorklistMaxIterations int  `mapstructure:"worklist_max_iterations"`
	WidenAfterIterations  int  `mapstructure:"widen_after_iterations"`
	FieldSensitive        bool `mapstructure:"field_sensitive"`
	UsePointsTo           bool `mapstructure:"use_points_to"`
	RelaxedReturnFlow     bool `mapstructure:"relaxed_return_flow"`
}

// PTAConfig is the effective points-to analysis configuration.
type PTAConfig struct {
	Mode           PTAMode `mapstructure:"mode"`
	AutoThreshold  int     `mapstructure:"auto_threshold"`
	FieldSensitive bool    `mapstructure:"field_sensitive"`
}

// CloneConfig is the effective clone-detection configuration.
type CloneConfig struct {
	MinTokens           int     `mapstructure:"min_tokens"`
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
}

// ChunkingConfig is the effective chunker configuration.
type ChunkingConfig struct {
	MinSize int `mapstructure:"min_size"`
	MaxSize int `mapstructure:"max_size"`
}

// LexicalConfig is the effective lexical-indexing configuration. The
// index implementation itself is an external collaborator; the core
// only carries the knobs that gate whether it runs.
type LexicalConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ParallelConfig is the effective worker-pool and failure-budget
// configuration.
type ParallelConfig struct {
	NumWorkers int `mapstructure:"num_workers"` // 0 = auto (runtime.NumCPU() - 1, at least 1).
	// MaxFailuresFraction bounds the fraction of files that may fail a
	// per-file stage before the orchestrator aborts the run.
	MaxFailuresFraction float64 `mapstructure:"max_failures_fraction"`
	// StageTimeoutSeconds bounds a single stage's wall-clock execution
	// per file; 0 disables the timeout.
	StageTimeoutSeconds int `mapstructure:"stage_timeout_seconds"`
}

// CacheConfig is the effective incremental-cache configuration.
type CacheConfig struct {
	MemoryBudgetBytes int64 `mapstructure:"memory_budget_bytes"`
}

// RepomapConfig is the effective repo-map configuration.
type RepomapConfig struct {
	TopK int `mapstructure:"top_k"`
}

// effective is the fully merged, validated configuration snapshot handed
// to ValidatedConfig. It is never mutated after Build(); every accessor
// on ValidatedConfig returns a copy or read-only view.
type effective struct {
	taint    TaintConfig
	pta      PTAConfig
	clone    CloneConfig
	chunking ChunkingConfig
	lexical  LexicalConfig
	parallel ParallelConfig
	cache    CacheConfig
	repomap  RepomapConfig
	stages   map[StageID]bool
}
