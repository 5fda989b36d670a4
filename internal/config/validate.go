package config

const (
	taintMaxDepthMin           = 1
	taintMaxDepthMax           = 1000
	taintMaxPathsMin           = 1
	taintMaxPathsMax           = 100_000
	taintWorklistIterationsMin = 1
	taintWorklistIterationsMax = 10_000_000
	ptaAutoThresholdMin        = 100
	ptaAutoThresholdMax        = 1_000_000
	cloneMinTokensMin          = 5
	cloneMinTokensMax          = 10_000
	chunkSizeMin               = 1
	chunkSizeMax               = 100_000
	parallelWorkersMin         = 0
	parallelWorkersMax         = 256
	cacheMemoryBudgetBytesMax  = int64(1) << 40
	maxFailuresFractionMin     = 0.0
	maxFailuresFractionMax     = 1.0
	stageTimeoutSecondsMin     = 0
	stageTimeoutSecondsMax     = 86_400
)

// validateRanges checks every numeric field against its closed range,
// skipping fields that are zero/disabled for stages not enabled (e.g. a
// Fast preset's unset taint fields never run the taint stage, so a zero
// max_depth there is not a range violation).
func validateRanges(e *effective) error {
	if e.stages[StageTaint] {
		if e.taint.MaxDepth < taintMaxDepthMin || e.taint.MaxDepth > taintMaxDepthMax {
			return &RangeError{Field: "taint.max_depth", Value: e.taint.MaxDepth, Min: taintMaxDepthMin, Max: taintMaxDepthMax}
		}

		if e.taint.MaxPaths < taintMaxPathsMin || e.taint.MaxPaths > taintMaxPathsMax {
			return &RangeError{Field: "taint.max_paths", Value: e.taint.MaxPaths, Min: taintMaxPathsMin, Max: taintMaxPathsMax}
		}

		if e.taint.WorklistMaxIterations < taintWorklistIterationsMin || e.taint.WorklistMaxIterations > taintWorklistIterationsMax {
			return &RangeError{
				Field: "taint.worklist_max_iterations", Value: e.taint.WorklistMaxIterations,
				Min: taintWorklistIterationsMin, Max: taintWorklistIterationsMax,
			}
		}
	}

	if e.stages[StagePTA] {
		if e.pta.AutoThreshold < ptaAutoThresholdMin || e.pta.AutoThreshold > ptaAutoThresholdMax {
			return &RangeError{Field: "pta.auto_threshold", Value: e.pta.AutoThreshold, Min: ptaAutoThresholdMin, Max: ptaAutoThresholdMax}
		}
	}

	if e.stages[StageClone] {
		if e.clone.MinTokens < cloneMinTokensMin || e.clone.MinTokens > cloneMinTokensMax {
			return &RangeError{Field: "clone.min_tokens", Value: e.clone.MinTokens, Min: cloneMinTokensMin, Max: cloneMinTokensMax}
		}

		if e.clone.SimilarityThreshold <= 0.0 || e.clone.SimilarityThreshold > 1.0 {
			return &RangeError{Field: "clone.similarity_threshold", Value: e.clone.SimilarityThreshold, Min: "(0.0", Max: "1.0]"}
		}
	}

	if e.chunking.MinSize < chunkSizeMin || e.chunking.MinSize > chunkSizeMax {
		return &RangeError{Field: "chunking.min_size", Value: e.chunking.MinSize, Min: chunkSizeMin, Max: chunkSizeMax}
	}

	if e.chunking.MaxSize < chunkSizeMin || e.chunking.MaxSize > chunkSizeMax {
		return &RangeError{Field: "chunking.max_size", Value: e.chunking.MaxSize, Min: chunkSizeMin, Max: chunkSizeMax}
	}

	if e.chunking.MinSize >= e.chunking.MaxSize {
		return &CrossStageConflictError{Reason: "chunking.min_size must be less than chunking.max_size"}
	}

	if e.parallel.NumWorkers < parallelWorkersMin || e.parallel.NumWorkers > parallelWorkersMax {
		return &RangeError{Field: "parallel.num_workers", Value: e.parallel.NumWorkers, Min: parallelWorkersMin, Max: parallelWorkersMax}
	}

	if e.parallel.MaxFailuresFraction < maxFailuresFractionMin || e.parallel.MaxFailuresFraction > maxFailuresFractionMax {
		return &RangeError{
			Field: "parallel.max_failures_fraction", Value: e.parallel.MaxFailuresFraction,
			Min: maxFailuresFractionMin, Max: maxFailuresFractionMax,
		}
	}

	if e.parallel.StageTimeoutSeconds < stageTimeoutSecondsMin || e.parallel.StageTimeoutSeconds > stageTimeoutSecondsMax {
		return &RangeError{
			Field: "parallel.stage_timeout_seconds", Value: e.parallel.StageTimeoutSeconds,
			Min: stageTimeoutSecondsMin, Max: stageTimeoutSecondsMax,
		}
	}

	if e.cache.MemoryBudgetBytes < 0 || e.cache.MemoryBudgetBytes > cacheMemoryBudgetBytesMax {
		return &RangeError{Field: "cache.memory_budget_bytes", Value: e.cache.MemoryBudgetBytes, Min: 0, Max: cacheMemoryBudgetBytesMax}
	}

	return nil
}

// validateCrossStage enforces the fatal cross-stage rules and collects
// non-fatal warnings. A fatal rule returns immediately; warnings
// accumulate and are returned alongside a nil error.
func validateCrossStage(e *effective) ([]CrossStageWarning, error) {
	if e.stages[StageTaint] && e.taint.UsePointsTo && !e.stages[StagePTA] {
		return nil, &CrossStageConflictError{Reason: "taint.use_points_to requires the pta stage to be enabled"}
	}

	var warnings []CrossStageWarning

	if e.stages[StageTaint] && e.taint.FieldSensitive && e.pta.Mode == PTAModeFast {
		warnings = append(warnings, CrossStageWarning{
			Severity: SeverityMedium,
			Reason:   "taint.field_sensitive is true but pta.mode is fast (unification); recommend precise",
		})
	}

	if e.stages[StagePTA] && e.pta.FieldSensitive && !e.taint.FieldSensitive {
		warnings = append(warnings, CrossStageWarning{
			Severity: SeverityLow,
			Reason:   "pta.field_sensitive is true while taint.field_sensitive is false; wasted precision",
		})
	}

	return warnings, nil
}
