package config

import (
	"fmt"
)

// documentVersion is the only declarative document version this build
// understands.
const documentVersion = 1

// Document is the versioned declarative configuration document, format
// v1: `version: u32` (required), `preset: string`, an optional `stages`
// table of booleans keyed by canonical stage name, and an optional
// `overrides` table of per-stage field maps. Unknown top-level keys,
// unknown stage names, and unknown override field paths are all
// rejected by LoadDocument (through ValidateDocument).
type Document struct {
	Version   uint32                    `mapstructure:"version" yaml:"version"`
	Preset    string                    `mapstructure:"preset" yaml:"preset"`
	Stages    map[string]bool           `mapstructure:"stages" yaml:"stages"`
	Overrides map[string]map[string]any `mapstructure:"overrides" yaml:"overrides"`
}

var documentTopLevelKeys = []string{"version", "preset", "stages", "overrides"}

var knownDocumentKeys = map[string]bool{
	"version": true, "preset": true, "stages": true, "overrides": true,
}

// ValidateDocument checks the document-level invariants required before
// any field-level validation: version presence/support, known stage
// names, and known override field paths. Unlike range/cross-stage
// validation this never needs the preset's effective config.
func ValidateDocument(raw map[string]any, doc *Document) error {
	for key := range raw {
		if !knownDocumentKeys[key] {
			return &UnknownFieldError{Field: key, Suggestions: nearestStrings(key, documentTopLevelKeys, 3)}
		}
	}

	if _, hasVersion := raw["version"]; !hasVersion {
		return &MissingVersionError{}
	}

	if doc.Version != documentVersion {
		return &UnsupportedVersionError{Got: doc.Version, Want: documentVersion}
	}

	for name := range doc.Stages {
		if !isKnownStage(name) {
			return &UnknownFieldError{Field: "stages." + name, Suggestions: suggestStage(name)}
		}
	}

	for stageName, fields := range doc.Overrides {
		if !isKnownStage(stageName) {
			return &UnknownFieldError{Field: "overrides." + stageName, Suggestions: suggestStage(stageName)}
		}

		for field := range fields {
			path := stageName + "." + field
			if !isKnownFieldPath(path) {
				return &UnknownFieldError{Field: path, Suggestions: suggestFields(path)}
			}
		}
	}

	return nil
}

func isKnownStage(name string) bool {
	for _, s := range allStages {
		if string(s) == name {
			return true
		}
	}

	return false
}

func suggestStage(name string) []string {
	names := make([]string, len(allStages))
	for i, s := range allStages {
		names[i] = string(s)
	}

	return nearestStrings(name, names, 3)
}

func isKnownFieldPath(path string) bool {
	for _, p := range knownFieldPaths {
		if p == path {
			return true
		}
	}

	return false
}

// ToOverride converts a parsed Document's "overrides" table into an
// override layer for Builder.WithFileOverrides. The layer carries
// neither the preset (the caller passes it to NewBuilder) nor the
// "stages" table: stage toggles become stage-gate calls, applied by the
// caller via Builder.WithStageGate.
func (d *Document) ToOverride() (override, error) {
	o := override{stages: map[StageID]bool{}}

	for stage, fields := range d.Overrides {
		for field, value := range fields {
			if err := assignOverrideField(&o, stage, field, value); err != nil {
				return override{}, err
			}
		}
	}

	return o, nil
}

//nolint:cyclop // field-path dispatch table, not meaningfully smaller split up.
func assignOverrideField(o *override, stage, field string, value any) error {
	path := stage + "." + field

	switch path {
	case "taint.max_depth":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.taintMaxDepth = &v
	case "taint.max_paths":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.taintMaxPaths = &v
	case "taint.worklist_max_iterations":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.taintWorklistMaxIterations = &v
	case "taint.widen_after_iterations":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.taintWidenAfterIterations = &v
	case "taint.field_sensitive":
		v, err := toBool(path, value)
		if err != nil {
			return err
		}

		o.taintFieldSensitive = &v
	case "taint.use_points_to":
		v, err := toBool(path, value)
		if err != nil {
			return err
		}

		o.taintUsePointsTo = &v
	case "taint.relaxed_return_flow":
		v, err := toBool(path, value)
		if err != nil {
			return err
		}

		o.taintRelaxedReturnFlow = &v
	case "pta.mode":
		s, ok := value.(string)
		if !ok {
			return &RangeError{Field: path, Value: value}
		}

		mode := PTAMode(s)
		o.ptaMode = &mode
	case "pta.auto_threshold":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.ptaAutoThreshold = &v
	case "pta.field_sensitive":
		v, err := toBool(path, value)
		if err != nil {
			return err
		}

		o.ptaFieldSensitive = &v
	case "clone.min_tokens":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.cloneMinTokens = &v
	case "clone.similarity_threshold":
		v, err := toFloat(path, value)
		if err != nil {
			return err
		}

		o.cloneSimilarityThreshold = &v
	case "chunking.min_size":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.chunkingMinSize = &v
	case "chunking.max_size":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.chunkingMaxSize = &v
	case "lexical.enabled":
		v, err := toBool(path, value)
		if err != nil {
			return err
		}

		o.lexicalEnabled = &v
	case "parallel.num_workers":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.parallelNumWorkers = &v
	case "parallel.max_failures_fraction":
		v, err := toFloat(path, value)
		if err != nil {
			return err
		}

		o.parallelMaxFailuresFraction = &v
	case "parallel.stage_timeout_seconds":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.parallelStageTimeoutSeconds = &v
	case "cache.memory_budget_bytes":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		v64 := int64(v)
		o.cacheMemoryBudgetBytes = &v64
	case "repomap.top_k":
		v, err := toInt(path, value)
		if err != nil {
			return err
		}

		o.repomapTopK = &v
	default:
		return &UnknownFieldError{Field: path, Suggestions: suggestFields(path)}
	}

	return nil
}

func toInt(field string, value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("%s: expected integer, got %T", field, value)
	}
}

func toFloat(field string, value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%s: expected number, got %T", field, value)
	}
}

func toBool(field string, value any) (bool, error) {
	v, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s: expected boolean, got %T", field, value)
	}

	return v, nil
}
