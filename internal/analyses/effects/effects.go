// Package effects summarizes each procedure's observable behavior: the
// names it reads and writes, the callees it invokes, and whether any of
// those callees touch the outside world. Effect rows feed the result
// surface and give the purity signal downstream consumers (slicing,
// retrieval ranking) can filter on.
package effects

import (
	"sort"
	"strings"

	"github.com/corraxdev/corrax/internal/graphs"
	"github.com/corraxdev/corrax/internal/ir"
)

// ioCallPrefixes marks callee names that reach outside the process:
// console, file, network, and environment surfaces. Matching is a
// case-insensitive prefix check on the call's base name.
var ioCallPrefixes = []string{
	"print", "fprint", "sprint", "log", "open", "read", "write",
	"send", "recv", "fetch", "request", "exec", "system", "getenv", "input",
}

// Effect is one procedure's summary.
type Effect struct {
	Function string
	File     string
	Reads    []string
	Writes   []string
	Calls    []string
	IO       bool
	Pure     bool
}

// Summary aggregates per-procedure effects across the analyzed files.
type Summary struct {
	Effects []Effect
	PureFns int
	IOFns   int
}

// AnalyzeDocument computes an Effect per function in doc, ordered the
// way graphs.Functions orders them.
func AnalyzeDocument(doc *ir.IRDocument) Summary {
	var s Summary

	for _, fn := range graphs.Functions(doc) {
		eff := analyzeFunction(doc, fn)

		s.Effects = append(s.Effects, eff)

		if eff.Pure {
			s.PureFns++
		}

		if eff.IO {
			s.IOFns++
		}
	}

	return s
}

func analyzeFunction(doc *ir.IRDocument, fn *ir.Node) Effect {
	eff := Effect{Function: fn.Name, File: doc.File.Path}

	reads := make(map[string]bool)
	writes := make(map[string]bool)
	calls := make(map[string]bool)

	for _, stmt := range graphs.Statements(doc, fn) {
		for _, use := range namesOf(stmt, ir.AttrUses) {
			reads[use] = true
		}

		for _, def := range namesOf(stmt, ir.AttrDefs) {
			writes[def] = true
		}

		if stmt.Kind == ir.KindCallSite {
			calls[stmt.Name] = true

			if isIOCall(stmt.Name) {
				eff.IO = true
			}
		}
	}

	eff.Reads = sortedKeys(reads)
	eff.Writes = sortedKeys(writes)
	eff.Calls = sortedKeys(calls)
	eff.Pure = !eff.IO && len(eff.Calls) == 0

	return eff
}

func isIOCall(name string) bool {
	base := strings.ToLower(name)
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		base = base[idx+1:]
	}

	for _, prefix := range ioCallPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}

	return false
}

func namesOf(n *ir.Node, key string) []string {
	raw, ok := n.Attr(key)
	if !ok || raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	names := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			names = append(names, p)
		}
	}

	return names
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
