package taint

import "github.com/corraxdev/corrax/internal/ir"

// Matcher is a predicate over an IR node, used to classify sources,
// sinks, and sanitizers. A nil Matcher never matches.
type Matcher func(n *ir.Node) bool

// Matchers bundles the three predicate families a taint run needs.
// Sources and sinks are evaluated against call sites, assignments, and
// parameters (per the taint client contract); sanitizers are evaluated
// against the identifier a flow passes through.
type Matchers struct {
	Sources    []Matcher
	Sinks      []Matcher
	Sanitizers []Matcher
}

func anyMatch(matchers []Matcher, n *ir.Node) bool {
	for _, m := range matchers {
		if m != nil && m(n) {
			return true
		}
	}

	return false
}

// NameMatcher returns a Matcher that matches a node of any kind whose
// Name equals any of names exactly; KindAndNameMatcher adds a kind check.
func NameMatcher(names ...string) Matcher {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}

	return func(n *ir.Node) bool {
		if n == nil {
			return false
		}

		_, ok := set[n.Name]

		return ok
	}
}

// KindAndNameMatcher returns a Matcher restricted to nodes of the given
// kind before checking name membership.
func KindAndNameMatcher(kind ir.Kind, names ...string) Matcher {
	inner := NameMatcher(names...)

	return func(n *ir.Node) bool {
		return n != nil && n.Kind == kind && inner(n)
	}
}

// DefaultWebSources returns source matchers for the call-site shapes a
// typical HTTP-facing Go handler reads untrusted input from.
func DefaultWebSources() []Matcher {
	return []Matcher{
		KindAndNameMatcher(ir.KindCallSite,
			"FormValue", "URL.Query", "Header.Get", "ReadAll", "Body.Read",
			"PathValue", "Cookie",
		),
	}
}

// DefaultSinks returns sink matchers for call-site shapes that commonly
// perform a dangerous operation on tainted input: SQL execution, shell
// exec, filesystem writes, and raw HTML writes.
func DefaultSinks() []Matcher {
	return []Matcher{
		KindAndNameMatcher(ir.KindCallSite,
			"Exec", "Query", "QueryRow", "Command", "CommandContext",
			"WriteFile", "Write", "Fprintf", "ExecContext",
		),
	}
}

// DefaultSanitizers returns sanitizer matchers for call-site shapes
// commonly used to neutralize tainted input before it reaches a sink.
func DefaultSanitizers() []Matcher {
	return []Matcher{
		KindAndNameMatcher(ir.KindCallSite,
			"QuoteMeta", "EscapeString", "HTMLEscapeString", "Clean",
			"ValidateUUID", "Sanitize",
		),
	}
}
