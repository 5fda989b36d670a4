// Package typeinfer is the local type-inference pass: literal nodes get
// a type from their token shape, declared type attributes are promoted
// onto the node, and types propagate along value-flow edges to nodes
// that would otherwise stay untyped. It is deliberately intra-file and
// best-effort; a node the pass cannot type keeps an empty TypeName
// rather than a guess.
package typeinfer

import (
	"strconv"
	"strings"

	"github.com/corraxdev/corrax/internal/ir"
)

// Builtin type names assigned by literal inference.
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeBool   = "bool"
	TypeString = "string"
	TypeNull   = "null"
)

// Summary counts the pass's outcome for one or more documents.
type Summary struct {
	TypedNodes   int
	LiteralTypes int
	Propagated   int
}

// valueFlowKinds are the edge kinds a type flows backward across: the
// dependent node (From) adopts its provider's (To) type.
var valueFlowKinds = map[ir.EdgeKind]bool{
	ir.EdgeDFGWrite: true,
	ir.EdgeDFGRead:  true,
	ir.EdgeAlias:    true,
}

const maxPasses = 10

// InferDocument runs the pass over doc in place.
func InferDocument(doc *ir.IRDocument) Summary {
	var s Summary

	for _, n := range doc.Nodes {
		if n.TypeName != "" {
			continue
		}

		if declared, ok := n.Attr(ir.AttrTypeName); ok && declared != "" {
			n.TypeName = declared

			continue
		}

		if n.Kind == ir.KindLiteral {
			if t := LiteralType(n.Name); t != "" {
				n.TypeName = t
				s.LiteralTypes++
			}
		}
	}

	s.Propagated = propagate(doc)

	for _, n := range doc.Nodes {
		if n.TypeName != "" {
			s.TypedNodes++
		}
	}

	return s
}

// propagate iterates the value-flow edges until no untyped node adopts a
// provider's type, bounded by maxPasses against pathological alias
// cycles.
func propagate(doc *ir.IRDocument) int {
	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	total := 0

	for pass := 0; pass < maxPasses; pass++ {
		changed := 0

		for _, e := range doc.Edges {
			if !valueFlowKinds[e.Kind] {
				continue
			}

			dependent, provider := byID[e.From], byID[e.To]
			if dependent == nil || provider == nil {
				continue
			}

			if dependent.TypeName == "" && provider.TypeName != "" {
				dependent.TypeName = provider.TypeName
				changed++
			}
		}

		total += changed

		if changed == 0 {
			break
		}
	}

	return total
}

// LiteralType classifies a literal token: quoted strings, integer and
// float numbers, booleans, and null-likes. Unrecognized tokens yield "".
func LiteralType(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}

	switch token {
	case "true", "false", "True", "False":
		return TypeBool
	case "null", "nil", "None":
		return TypeNull
	}

	if len(token) >= 2 {
		if first := token[0]; (first == '"' || first == '\'' || first == '`') && token[len(token)-1] == first {
			return TypeString
		}
	}

	if _, err := strconv.ParseInt(token, 0, 64); err == nil {
		return TypeInt
	}

	if _, err := strconv.ParseFloat(token, 64); err == nil {
		return TypeFloat
	}

	return ""
}
