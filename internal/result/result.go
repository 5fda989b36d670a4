// Package result adapts a pipeline.Result onto corrax's two interactive
// consumer surfaces: an LSP server for editor diagnostics and an MCP
// server exposing analysis as an agent-invokable tool. Neither consumer
// touches the pipeline directly; both go through the AnalyzeFunc this
// package asks the embedder to supply, so internal/pipeline never needs
// to know glsp or the MCP SDK exist.
package result

import (
	"context"

	"github.com/corraxdev/corrax/internal/pipeline"
)

// AnalyzeFunc runs the pipeline over a single in-memory source (an open
// editor buffer, or an inline MCP tool argument) and returns its result.
// Supplied by the embedder (cmd/corrax), never implemented here: this
// package only knows how to present a *pipeline.Result, not produce one.
type AnalyzeFunc func(ctx context.Context, path string, content []byte) (*pipeline.Result, error)

// Severity mirrors the three levels LSP diagnostics and MCP tool status
// both care about, independent of either SDK's own type.
type Severity int

// Declared severities, ordered most to least urgent.
const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
)

// Diagnostic is a single finding localized to a file, translated from a
// pipeline.FileError.
type Diagnostic struct {
	Path     string
	Line     int
	Message  string
	Source   string
	Severity Severity
}

// FromResult flattens res.Errors into path-scoped diagnostics. Stage and
// parse errors carry no line information (§7's (path, stage, kind,
// message) contract is file-scoped, not line-scoped), so every
// diagnostic anchors to line 1 and lets Message name the stage.
func FromResult(res *pipeline.Result) []Diagnostic {
	if res == nil {
		return nil
	}

	diags := make([]Diagnostic, 0, len(res.Errors))

	for _, fe := range res.Errors {
		diags = append(diags, Diagnostic{
			Path:     fe.Path,
			Line:     1,
			Message:  string(fe.Stage) + ": " + fe.Message,
			Source:   "corrax." + string(fe.Kind),
			Severity: severityFor(fe.Kind),
		})
	}

	return diags
}

// ForPath filters diags to a single path, the shape an LSP
// publishDiagnostics notification needs (one file at a time).
func ForPath(diags []Diagnostic, path string) []Diagnostic {
	filtered := make([]Diagnostic, 0, len(diags))

	for _, d := range diags {
		if d.Path == path {
			filtered = append(filtered, d)
		}
	}

	return filtered
}

func severityFor(kind pipeline.ErrorKind) Severity {
	switch kind {
	case pipeline.ErrorKindParse:
		return SeverityError
	case pipeline.ErrorKindTimeout:
		return SeverityWarning
	case pipeline.ErrorKindCache:
		return SeverityInformation
	case pipeline.ErrorKindStage:
		return SeverityError
	default:
		return SeverityError
	}
}
