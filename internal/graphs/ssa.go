package graphs

import (
	"fmt"
	"sort"

	"github.com/corraxdev/corrax/internal/ir"
)

// SSADef is one versioned definition: the statement node that defined
// Name, renamed to Name#Version.
type SSADef struct {
	Name    string
	Version int
	NodeID  string
}

// Phi merges differing versions of Name flowing into a join block,
// producing a fresh version.
type Phi struct {
	Block   int
	Name    string
	Version int
	Args    []int
}

// SSAForm is one procedure's SSA numbering over its CFG: every
// definition carries a unique version, and phi nodes sit at merges whose
// predecessors disagree on a name's reaching version.
type SSAForm struct {
	Function string
	Defs     []SSADef
	Phis     []Phi
}

// VersionName renders a versioned name, the way slices and reports show it.
func VersionName(name string, version int) string {
	return fmt.Sprintf("%s#%d", name, version)
}

// ssaState tracks reaching versions per name at one program point.
type ssaState map[string]int

func (s ssaState) clone() ssaState {
	out := make(ssaState, len(s))
	for k, v := range s {
		out[k] = v
	}

	return out
}

// BuildSSA renames every definition in cfg's procedure and places phi
// nodes at merge blocks. Block states are iterated to a fixpoint bounded
// by a small multiple of the block count, which covers loop back-edges:
// a phi's version is allocated the first time its block sees a
// disagreement and reused on later passes, so the numbering is stable.
func BuildSSA(doc *ir.IRDocument, fn *ir.Node, cfg *CFG) *SSAForm {
	form := &SSAForm{Function: fn.ID}
	if len(cfg.Blocks) == 0 {
		return form
	}

	byID := make(map[string]*ir.Node, len(doc.Nodes))
	for _, n := range doc.Nodes {
		byID[n.ID] = n
	}

	nextVersion := make(map[string]int)
	defVersions := make(map[string]map[string]int, len(cfg.Blocks))
	phiAt := make(map[int]map[string]*Phi)
	outStates := make(map[int]ssaState, len(cfg.Blocks))

	maxPasses := 2*len(cfg.Blocks) + 2
	for pass := 0; pass < maxPasses; pass++ {
		if !ssaPass(cfg, byID, nextVersion, defVersions, phiAt, outStates) {
			break
		}
	}

	collectDefs(cfg, defVersions, form)
	collectPhis(phiAt, form)

	return form
}

// ssaPass runs one sweep over every block in id order, reporting whether
// any out-state changed.
func ssaPass(
	cfg *CFG, byID map[string]*ir.Node, nextVersion map[string]int,
	defVersions map[string]map[string]int, phiAt map[int]map[string]*Phi, outStates map[int]ssaState,
) bool {
	changed := false

	for _, b := range cfg.Blocks {
		in := mergeStates(cfg, b.ID, phiAt, outStates, nextVersion)
		out := runBlock(b, byID, in, nextVersion, defVersions)

		if !statesEqual(outStates[b.ID], out) {
			outStates[b.ID] = out
			changed = true
		}
	}

	return changed
}

// mergeStates joins the predecessors' out-states, materializing a phi for
// every name whose reaching versions disagree.
func mergeStates(cfg *CFG, block int, phiAt map[int]map[string]*Phi, outStates map[int]ssaState, nextVersion map[string]int) ssaState {
	preds := cfg.Predecessors(block)
	if len(preds) == 0 {
		return make(ssaState)
	}

	merged := make(ssaState)
	disagreed := make(map[string]bool)

	for _, name := range namesAcross(preds, outStates) {
		versions := versionsOf(name, preds, outStates)

		if len(versions) == 1 {
			merged[name] = versions[0]

			continue
		}

		disagreed[name] = true

		phi := phiFor(phiAt, block, name, nextVersion)
		phi.Args = versions
		merged[name] = phi.Version
	}

	// A phi materialized on an earlier pass stays authoritative even if
	// later passes converge, so the numbering never flip-flops.
	for name, phi := range phiAt[block] {
		if !disagreed[name] {
			merged[name] = phi.Version
		}
	}

	return merged
}

func phiFor(phiAt map[int]map[string]*Phi, block int, name string, nextVersion map[string]int) *Phi {
	if phiAt[block] == nil {
		phiAt[block] = make(map[string]*Phi)
	}

	phi, ok := phiAt[block][name]
	if !ok {
		nextVersion[name]++
		phi = &Phi{Block: block, Name: name, Version: nextVersion[name]}
		phiAt[block][name] = phi
	}

	return phi
}

// runBlock walks a block's statements, bumping a name's version at each
// definition and recording which version each defining statement got.
func runBlock(
	b BasicBlock, byID map[string]*ir.Node, in ssaState, nextVersion map[string]int, defVersions map[string]map[string]int,
) ssaState {
	state := in.clone()

	for _, nodeID := range b.Nodes {
		n := byID[nodeID]
		if n == nil {
			continue
		}

		for _, def := range attrNames(n, ir.AttrDefs) {
			if defVersions[nodeID] == nil {
				defVersions[nodeID] = make(map[string]int)
			}

			v, ok := defVersions[nodeID][def]
			if !ok {
				nextVersion[def]++
				v = nextVersion[def]
				defVersions[nodeID][def] = v
			}

			state[def] = v
		}
	}

	return state
}

func collectDefs(cfg *CFG, defVersions map[string]map[string]int, form *SSAForm) {
	for _, b := range cfg.Blocks {
		for _, nodeID := range b.Nodes {
			versions := defVersions[nodeID]

			names := make([]string, 0, len(versions))
			for name := range versions {
				names = append(names, name)
			}

			sort.Strings(names)

			for _, name := range names {
				form.Defs = append(form.Defs, SSADef{Name: name, Version: versions[name], NodeID: nodeID})
			}
		}
	}
}

func collectPhis(phiAt map[int]map[string]*Phi, form *SSAForm) {
	blocks := make([]int, 0, len(phiAt))
	for b := range phiAt {
		blocks = append(blocks, b)
	}

	sort.Ints(blocks)

	for _, b := range blocks {
		names := make([]string, 0, len(phiAt[b]))
		for name := range phiAt[b] {
			names = append(names, name)
		}

		sort.Strings(names)

		for _, name := range names {
			form.Phis = append(form.Phis, *phiAt[b][name])
		}
	}
}

func namesAcross(preds []int, outStates map[int]ssaState) []string {
	seen := make(map[string]bool)

	var names []string

	for _, p := range preds {
		for name := range outStates[p] {
			if !seen[name] {
				seen[name] = true

				names = append(names, name)
			}
		}
	}

	sort.Strings(names)

	return names
}

// versionsOf collects the distinct reaching versions of name across
// preds, sorted. Predecessors with no binding for name are skipped: an
// undefined path contributes nothing rather than a bottom version.
func versionsOf(name string, preds []int, outStates map[int]ssaState) []int {
	seen := make(map[int]bool)

	var versions []int

	for _, p := range preds {
		v, ok := outStates[p][name]
		if !ok {
			continue
		}

		if !seen[v] {
			seen[v] = true

			versions = append(versions, v)
		}
	}

	sort.Ints(versions)

	return versions
}

func statesEqual(a, b ssaState) bool {
	if len(a) != len(b) {
		return false
	}

	for k, v := range a {
		if b[k] != v {
			return false
		}
	}

	return true
}
