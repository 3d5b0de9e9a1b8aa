package termdomain

import (
	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/terms"
)

// normalize restores "every term's surrogate equals the semantic value
// implied by its functor and its children's surrogates" starting from the
// changed set, in two passes.
//
// The downward pass (parents towards children, deepest first) re-derives
// the relation between a changed App term and its children for invertible
// operators and lets the underlying domain's own constraint propagation
// narrow whichever side was less precise; non-linear operators have no
// generic inverse and are left alone, which is sound, just less precise.
//
// The upward pass (children towards parents, shallowest first) recomputes
// a term's surrogate from its children with the operator's forward
// transfer, which works for every operator.
func (s *T[D]) normalize() {
	if len(s.changed) == 0 {
		return
	}

	frontier := make(map[terms.ID]bool, len(s.changed))
	for id := range s.changed {
		frontier[id] = true
	}
	for len(frontier) > 0 {
		batch := extremeBucket(s.ttbl, frontier, true)
		next := map[terms.ID]bool{}
		for _, id := range batch {
			delete(frontier, id)
			if s.ttbl.Kind(id) != terms.KindApp {
				continue
			}
			a, b := s.ttbl.Args(id)
			if s.refineDown(id, a, b) {
				next[a] = true
				next[b] = true
			}
		}
		for id := range next {
			frontier[id] = true
		}
	}

	frontier = make(map[terms.ID]bool, len(s.changed))
	for id := range s.changed {
		for _, p := range s.ttbl.Parents(id) {
			frontier[p] = true
		}
	}
	for len(frontier) > 0 {
		batch := extremeBucket(s.ttbl, frontier, false)
		next := map[terms.ID]bool{}
		for _, id := range batch {
			delete(frontier, id)
			a, b := s.ttbl.Args(id)
			if s.refineUp(id, a, b) {
				for _, p := range s.ttbl.Parents(id) {
					next[p] = true
				}
			}
		}
		for id := range next {
			frontier[id] = true
		}
	}

	s.changed = map[terms.ID]struct{}{}
	if s.impl.IsBottom() {
		s.isBottom = true
	}
}

// extremeBucket pulls every ID at the deepest (deepest=true) or shallowest
// depth present in frontier, without mutating it.
func extremeBucket(t *terms.Table, frontier map[terms.ID]bool, deepest bool) []terms.ID {
	best := 0
	first := true
	for id := range frontier {
		d := t.Depth(id)
		if first || (deepest && d > best) || (!deepest && d < best) {
			best = d
			first = false
		}
	}
	var out []terms.ID
	for id := range frontier {
		if t.Depth(id) == best {
			out = append(out, id)
		}
	}
	return out
}

// refineDown re-derives the invertible-linear relation svT = svA op svB
// and reasserts it via Assume, which refines whichever of the three
// surrogates the domain can narrow. It reports whether the result is a
// strict refinement, in which case the children need re-checking.
func (s *T[D]) refineDown(id, a, b terms.ID) bool {
	svT, okT := s.svm[id]
	svA, okA := s.svm[a]
	svB, okB := s.svm[b]
	if !okT || !okA || !okB {
		return false
	}

	var expr domain.LinExpr
	switch s.ttbl.Ftor(id) {
	case domain.OpAdd:
		expr = domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: svT}, {Coeff: -1, Var: svA}, {Coeff: -1, Var: svB}}}
	case domain.OpSub:
		expr = domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: svT}, {Coeff: -1, Var: svA}, {Coeff: 1, Var: svB}}}
	default:
		return false
	}

	before := s.impl
	after := before.Assume(domain.ConstraintSystem{{Op: domain.CmpEq, Expr: expr}})
	s.impl = after
	return after.Leq(before) && !before.Leq(after)
}

// refineUp computes the operator's forward transfer into a scratch
// surrogate and meets it into svT via an equality, so information svT
// already carried is never lost. It reports whether svT strictly refined.
func (s *T[D]) refineUp(id, a, b terms.ID) bool {
	svT, okT := s.svm[id]
	svA, okA := s.svm[a]
	svB, okB := s.svm[b]
	if !okT || !okA || !okB {
		return false
	}
	tmp, next := s.alloc.Next()
	s.alloc = next
	before := s.impl
	after := before.Apply(s.ttbl.Ftor(id), tmp, svA, svB)
	after = after.Assume(domain.ConstraintSystem{{
		Op:   domain.CmpEq,
		Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: svT}, {Coeff: -1, Var: tmp}}},
	}})
	after = after.Forget(tmp)
	s.impl = after
	return after.Leq(before) && !before.Leq(after)
}

// ToLinearConstraints projects impl onto the surrogates still visible from
// VM, exports impl's own linear constraints, and renames them back into
// the program-variable vocabulary. Two program variables bound to the same
// term become an explicit equality; a constraint that mentions a surrogate
// with no live program variable is an internal artifact and is dropped.
func (t T[D]) ToLinearConstraints() domain.LCS {
	if t.isBottom {
		return domain.LCS{{Op: domain.CmpEq, Expr: domain.Const(1)}} // 1 == 0: unsatisfiable
	}

	s := t.clone()
	s.normalize()

	termVars := map[terms.ID][]domain.Var{}
	for v, id := range s.vm {
		termVars[id] = append(termVars[id], v)
	}

	rev := map[domain.Var]domain.Var{} // surrogate -> its representative program var
	var live []domain.Var
	var eqs domain.ConstraintSystem
	for id, vs := range termVars {
		sv, ok := s.svm[id]
		if !ok {
			continue
		}
		live = append(live, sv)
		rev[sv] = vs[0]
		for _, v := range vs[1:] {
			eqs = append(eqs, domain.Constraint{
				Op:   domain.CmpEq,
				Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: vs[0]}, {Coeff: -1, Var: v}}},
			})
		}
	}

	projected := s.impl.Project(live)
	out := make(domain.ConstraintSystem, 0, len(eqs))
	for _, c := range projected.ToLinearConstraints() {
		renamed, ok := renameIntoProgramVars(c, rev)
		if ok {
			out = append(out, renamed)
		}
	}
	return append(out, eqs...)
}

func renameIntoProgramVars(c domain.Constraint, rev map[domain.Var]domain.Var) (domain.Constraint, bool) {
	ts := make([]domain.LinTerm, len(c.Expr.Terms))
	for i, lt := range c.Expr.Terms {
		v, ok := rev[lt.Var]
		if !ok {
			return domain.Constraint{}, false
		}
		ts[i] = domain.LinTerm{Coeff: lt.Coeff, Var: v}
	}
	return domain.Constraint{Op: c.Op, Expr: domain.LinExpr{Const: c.Expr.Const, Terms: ts}}, true
}
