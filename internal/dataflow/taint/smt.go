package taint

// Verdict is the feasibility result an SmtOrchestrator stage returns for
// a conjunction of PathConditions.
type Verdict int

// Verdict constants.
const (
	Feasible Verdict = iota
	Infeasible
	Unknown
)

// ExternalSolver is the feature-gated stage-3 hook: a full-theory SMT
// binding the embedder may supply. corrax does not depend on one
// directly; when nil, the orchestrator stops at stage 2 and returns
// whatever that stage concluded.
type ExternalSolver interface {
	// Check reports the feasibility of the conjunction of conditions.
	Check(conditions []PathCondition) (Verdict, error)
}

// SmtOrchestrator runs the staged feasibility check described for the
// path-sensitive taint extension: a cheap contradiction check first, a
// specialized per-theory pass second, and an optional external solver
// third. Each stage only runs when the previous one was inconclusive.
type SmtOrchestrator struct {
	external ExternalSolver
}

// NewSmtOrchestrator returns an orchestrator. external may be nil.
func NewSmtOrchestrator(external ExternalSolver) *SmtOrchestrator {
	return &SmtOrchestrator{external: external}
}

// Check determines whether the conjunction of conditions is satisfiable.
func (o *SmtOrchestrator) Check(conditions []PathCondition) Verdict {
	if v := checkContradictions(conditions); v == Infeasible {
		return Infeasible
	}

	if v := checkTheories(conditions); v != Unknown {
		return v
	}

	if o.external == nil {
		return Unknown
	}

	v, err := o.external.Check(conditions)
	if err != nil {
		return Unknown
	}

	return v
}

// checkContradictions is stage 1: a sub-millisecond pass looking for a
// directly contradictory pair on the same variable (x == 1 and x == 2;
// x == nil and x != nil; equality vs. a conflicting null check).
func checkContradictions(conditions []PathCondition) Verdict {
	byVar := make(map[string][]PathCondition)
	for _, c := range conditions {
		byVar[c.Var] = append(byVar[c.Var], c)
	}

	for _, cs := range byVar {
		for i := range cs {
			for j := i + 1; j < len(cs); j++ {
				if contradicts(cs[i], cs[j]) {
					return Infeasible
				}
			}
		}
	}

	return Unknown
}

func contradicts(a, b PathCondition) bool {
	if a.Op == OpNull && b.Op == OpNotNull {
		return true
	}

	if a.Op == OpNotNull && b.Op == OpNull {
		return true
	}

	if (a.Op == OpEq && b.Op == OpNull) || (a.Op == OpNull && b.Op == OpEq) {
		return true
	}

	if a.Op == OpEq && b.Op == OpEq {
		return !literalsEqual(a.Literal, b.Literal)
	}

	if a.Op == OpEq && b.Op == OpNeq {
		return literalsEqual(a.Literal, b.Literal)
	}

	if a.Op == OpNeq && b.Op == OpEq {
		return literalsEqual(a.Literal, b.Literal)
	}

	return rangeContradicts(a, b)
}

func literalsEqual(a, b Literal) bool {
	if a.Kind != b.Kind {
		return false
	}

	switch a.Kind {
	case LitInt:
		return a.Int == b.Int
	case LitFloat:
		return a.Real == b.Real
	case LitBool:
		return a.Bool == b.Bool
	case LitString:
		return a.Str == b.Str
	default:
		return true
	}
}

// checkTheories is stage 2: linear bound checking over
// integer/float ranges on the same variable, e.g. "n < 5" and "n > 10".
func checkTheories(conditions []PathCondition) Verdict {
	byVar := make(map[string][]PathCondition)
	for _, c := range conditions {
		if c.Literal.Kind == LitInt || c.Literal.Kind == LitFloat {
			byVar[c.Var] = append(byVar[c.Var], c)
		}
	}

	for _, cs := range byVar {
		if rangeInfeasible(cs) {
			return Infeasible
		}
	}

	return Unknown
}

func rangeInfeasible(cs []PathCondition) bool {
	var (
		hasLower, hasUpper     bool
		lower, upper           float64
		lowerExcl, upperExcl   bool
	)

	for _, c := range cs {
		v := literalValue(c.Literal)

		switch c.Op {
		case OpGt, OpGe:
			if !hasLower || v > lower {
				lower = v
				lowerExcl = c.Op == OpGt
				hasLower = true
			}
		case OpLt, OpLe:
			if !hasUpper || v < upper {
				upper = v
				upperExcl = c.Op == OpLt
				hasUpper = true
			}
		}
	}

	if !hasLower || !hasUpper {
		return false
	}

	if lower > upper {
		return true
	}

	if lower == upper && (lowerExcl || upperExcl) {
		return true
	}

	return false
}

func literalValue(l Literal) float64 {
	if l.Kind == LitInt {
		return float64(l.Int)
	}

	return l.Real
}

func rangeContradicts(a, b PathCondition) bool {
	if a.Literal.Kind != LitInt && a.Literal.Kind != LitFloat {
		return false
	}

	if b.Literal.Kind != LitInt && b.Literal.Kind != LitFloat {
		return false
	}

	return rangeInfeasible([]PathCondition{a, b})
}
