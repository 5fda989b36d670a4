package graphs

import (
	"strings"

	"github.com/corraxdev/corrax/internal/ir"
)

// DefUse links one definition of a name to one of its uses, both
// identified by statement node id.
type DefUse struct {
	Name string
	Def  string
	Use  string
}

// DFG is one procedure's data-flow graph: def-use chains forward, use-def
// chains as the inverted index. Cross-procedure value flow is the call
// graph's concern, not this one's.
type DFG struct {
	Function string
	DefUses  []DefUse

	useDefs map[string][]string
}

// DefsReaching returns the definition node ids feeding useNodeID.
func (d *DFG) DefsReaching(useNodeID string) []string {
	return d.useDefs[useNodeID]
}

// BuildDFG derives fn's def-use chains. Within a block the last
// definition of a name reaches each use; across blocks the analysis is
// a forward pass in statement order, so a use ahead of any definition
// (a parameter or free variable) simply has no chain. Uses on the
// defining statement itself read the incoming value, not the new one:
// the prior definition is charged before the statement's own defs are
// recorded.
func BuildDFG(doc *ir.IRDocument, fn *ir.Node) *DFG {
	dfg := &DFG{Function: fn.ID, useDefs: make(map[string][]string)}

	lastDef := make(map[string]string)

	for _, s := range Statements(doc, fn) {
		for _, use := range attrNames(s, ir.AttrUses) {
			def, ok := lastDef[use]
			if !ok {
				continue
			}

			dfg.DefUses = append(dfg.DefUses, DefUse{Name: use, Def: def, Use: s.ID})
			dfg.useDefs[s.ID] = append(dfg.useDefs[s.ID], def)
		}

		for _, def := range attrNames(s, ir.AttrDefs) {
			lastDef[def] = s.ID
		}
	}

	return dfg
}

// attrNames splits a comma-separated def/use attribute into trimmed,
// non-empty names.
func attrNames(n *ir.Node, key string) []string {
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
