package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/corraxdev/corrax/pkg/levenshtein"
)

// Sentinel error kinds. Build() wraps one of these in a richer error type
// below; callers can still errors.Is against these for coarse handling.
var (
	ErrRange                 = errors.New("config: value out of range")
	ErrUnknownField          = errors.New("config: unknown field")
	ErrMissingVersion        = errors.New("config: version is required")
	ErrUnsupportedVersion    = errors.New("config: unsupported document version")
	ErrDisabledStageOverride = errors.New("config: override for a disabled stage")
	ErrCrossStageConflict    = errors.New("config: cross-stage conflict")
)

// Severity classifies a CrossStageWarning.
type Severity string

// Warning severities. Warnings never fail Build(); only CrossStageConflict
// and the other fatal kinds above do.
const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
)

// RangeError reports a numeric field outside its closed range.
type RangeError struct {
	Field    string
	Value    any
	Min, Max any
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s: field %q = %v, want range [%v, %v]", ErrRange, e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// UnknownFieldError reports a field path that does not exist in the
// schema, with Levenshtein-nearest known field paths as suggestions.
type UnknownFieldError struct {
	Field       string
	Suggestions []string
}

func (e *UnknownFieldError) Error() string {
	if len(e.Suggestions) == 0 {
		return fmt.Sprintf("%s: %q", ErrUnknownField, e.Field)
	}

	return fmt.Sprintf("%s: %q (did you mean %v?)", ErrUnknownField, e.Field, e.Suggestions)
}

func (e *UnknownFieldError) Unwrap() error { return ErrUnknownField }

// knownFieldPaths enumerates every valid field path accepted in a
// declarative document's "overrides" table, used to build suggestions
// for UnknownFieldError.
var knownFieldPaths = []string{
	"taint.max_depth", "taint.max_paths", "taint.worklist_max_iterations",
	"taint.widen_after_iterations", "taint.field_sensitive", "taint.use_points_to",
	"taint.relaxed_return_flow",
	"pta.mode", "pta.auto_threshold", "pta.field_sensitive",
	"clone.min_tokens", "clone.similarity_threshold",
	"chunking.min_size", "chunking.max_size",
	"lexical.enabled",
	"parallel.num_workers",
	"parallel.max_failures_fraction",
	"parallel.stage_timeout_seconds",
	"cache.memory_budget_bytes",
	"repomap.top_k",
}

// suggestFields returns the up-to-3 known field paths closest to field by
// Levenshtein distance, ascending.
func suggestFields(field string) []string {
	return nearestStrings(field, knownFieldPaths, 3)
}

// nearestStrings returns the up-to-n entries of candidates closest to
// target by Levenshtein distance, ascending.
func nearestStrings(target string, candidates []string, n int) []string {
	type scored struct {
		value string
		dist  int
	}

	var lev levenshtein.Context

	scores := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		scores = append(scores, scored{c, lev.Distance(target, c)})
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].dist < scores[j].dist })

	out := make([]string, 0, n)

	for i := 0; i < len(scores) && i < n; i++ {
		out = append(out, scores[i].value)
	}

	return out
}

// MissingVersionError reports a declarative document with no version field.
type MissingVersionError struct{}

func (e *MissingVersionError) Error() string { return ErrMissingVersion.Error() }
func (e *MissingVersionError) Unwrap() error { return ErrMissingVersion }

// UnsupportedVersionError reports a declarative document whose version
// this build does not understand.
type UnsupportedVersionError struct {
	Got, Want uint32
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: got %d, support %d", ErrUnsupportedVersion, e.Got, e.Want)
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedVersion }

// DisabledStageOverrideError reports an override targeting a stage the
// stage gate has disabled, raised only in strict mode.
type DisabledStageOverrideError struct {
	Stage StageID
}

func (e *DisabledStageOverrideError) Error() string {
	return fmt.Sprintf("%s: stage %q is disabled", ErrDisabledStageOverride, e.Stage)
}

func (e *DisabledStageOverrideError) Unwrap() error { return ErrDisabledStageOverride }

// CrossStageConflictError reports two stages' effective configuration
// disagreeing in a way Build() treats as fatal.
type CrossStageConflictError struct {
	Reason string
}

func (e *CrossStageConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCrossStageConflict, e.Reason)
}

func (e *CrossStageConflictError) Unwrap() error { return ErrCrossStageConflict }

// CrossStageWarning is a non-fatal finding recorded on the build result
// and retrievable from ValidatedConfig.Warnings().
type CrossStageWarning struct {
	Severity Severity
	Reason   string
}

func (w CrossStageWarning) String() string {
	return fmt.Sprintf("[%s] %s", w.Severity, w.Reason)
}
