// Package ir defines the semantic intermediate representation: nodes,
// edges, the per-file IRDocument, chunks, and content fingerprints.
// It is the typed model every analysis stage reads and writes.
package ir

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
)

// Kind enumerates the semantic artifact a Node represents.
type Kind string

// Node kind constants. Mirrors the set of artifacts a source-level analyzer
// needs to name a stable identifier around: declarations, call/branch sites,
// and the literals and references that flow between them.
const (
	KindFile       Kind = "File"
	KindFunction   Kind = "Function"
	KindMethod     Kind = "Method"
	KindClass      Kind = "Class"
	KindInterface  Kind = "Interface"
	KindStruct     Kind = "Struct"
	KindVariable   Kind = "Variable"
	KindParameter  Kind = "Parameter"
	KindField      Kind = "Field"
	KindLiteral    Kind = "Literal"
	KindBranch     Kind = "Branch"
	KindLoop       Kind = "Loop"
	KindCallSite   Kind = "CallSite"
	KindReturnSite Kind = "ReturnSite"
	KindImport     Kind = "Import"
	KindAssignment Kind = "Assignment"
	KindIdentifier Kind = "Identifier"
)

// Attr keys used in Node.Attrs and Edge.Qualifiers. Kept as named constants
// rather than free-form strings so producers and consumers agree on shape.
const (
	AttrLanguage  = "language"
	AttrDefs      = "defs"
	AttrUses      = "uses"
	AttrCondition = "condition"
	AttrTypeName  = "type_name"
)

// Node is a semantic artifact extracted from source.
//
// Identifiers are derived deterministically from (file, kind, name,
// start_line) so re-parsing an unchanged file yields identical ids; see
// NewNodeID. Nodes are value-equal by ID.
type Node struct {
	ID        string
	Kind      Kind
	File      string
	Name      string
	TypeName  string
	StartLine int
	EndLine   int
	Attrs     map[string]string
}

// NewNodeID derives a stable node identifier from (file, kind, name,
// startLine). The derivation is injective within a repository: two nodes
// with the same tuple are the same node, by construction.
func NewNodeID(file string, kind Kind, name string, startLine int) string {
	h := sha256.New()
	h.Write([]byte(file))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(name))
	h.Write([]byte{0})

	var lineBuf [8]byte
	binary.LittleEndian.PutUint64(lineBuf[:], uint64(int64(startLine)))
	h.Write(lineBuf[:])

	return fmt.Sprintf("%x", h.Sum(nil)[:16])
}

// NewNode constructs a Node with a derived ID.
func NewNode(file string, kind Kind, name string, startLine, endLine int) *Node {
	return &Node{
		ID:        NewNodeID(file, kind, name, startLine),
		Kind:      kind,
		File:      file,
		Name:      name,
		StartLine: startLine,
		EndLine:   endLine,
	}
}

// WithAttr sets an attribute and returns the node for chaining during
// construction. Lazily allocates the attribute map.
func (n *Node) WithAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string, 1)
	}

	n.Attrs[key] = value

	return n
}

// Attr returns an attribute value and whether it was present.
func (n *Node) Attr(key string) (string, bool) {
	if n.Attrs == nil {
		return "", false
	}

	v, ok := n.Attrs[key]

	return v, ok
}

// EdgeKind enumerates the typed relation a directed Edge represents.
type EdgeKind string

// Edge kind constants, per the data model.
const (
	EdgeCalls      EdgeKind = "Calls"
	EdgeImport     EdgeKind = "Import"
	EdgeReferences EdgeKind = "References"
	EdgeInherits   EdgeKind = "Inherits"
	EdgeContains   EdgeKind = "Contains"
	EdgeCFGNext    EdgeKind = "CFG-next"
	EdgeDFGRead    EdgeKind = "DFG-read"
	EdgeDFGWrite   EdgeKind = "DFG-write"
	EdgeAlias      EdgeKind = "Alias"
)

// Edge is a typed directed relation between two nodes, identified by id.
type Edge struct {
	From       string
	To         string
	Kind       EdgeKind
	Qualifiers map[string]string
}

// NewEdge constructs an Edge.
func NewEdge(from, to string, kind EdgeKind) Edge {
	return Edge{From: from, To: to, Kind: kind}
}

// WithQualifier sets a qualifier and returns the edge for chaining.
func (e Edge) WithQualifier(key, value string) Edge {
	if e.Qualifiers == nil {
		e.Qualifiers = make(map[string]string, 1)
	}

	e.Qualifiers[key] = value

	return e
}
