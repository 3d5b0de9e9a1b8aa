package intervals

import "github.com/gretadolcetti/crab/domain"

// Assume narrows the state with each constraint in cs in turn, iterating a
// few rounds so that an equality relating several variables (as produced
// by the term-equivalence domain's normalize) propagates in both
// directions: each round isolates every variable of every constraint and
// intersects its current interval with what the rest of the constraint
// implies.
func (s State) Assume(cs domain.ConstraintSystem) State {
	if s.isBottom {
		return s
	}
	out := s.clone()
	for round := 0; round < 3; round++ {
		changed := false
		for _, c := range cs {
			if out.isBottom {
				return out
			}
			if out.propagate(c) {
				changed = true
			}
		}
		if !changed {
			break
		}
	}
	return out
}

// propagate isolates each variable in c's expression in turn and
// intersects its current interval with the bound implied by the rest of
// the expression. It reports whether anything narrowed.
func (s *State) propagate(c domain.Constraint) bool {
	changed := false
	for i, lt := range c.Expr.Terms {
		if lt.Coeff == 0 {
			continue
		}
		rest := Point(c.Expr.Const)
		for j, other := range c.Expr.Terms {
			if j == i {
				continue
			}
			rest = rest.Add(s.Get(other.Var).Scale(other.Coeff))
		}
		// coeff*v + rest `op` 0  =>  v `op'` (-rest)/coeff
		bound := rest.Scale(-1).Div(Point(lt.Coeff))
		before := s.Get(lt.Var)
		var candidate Interval
		flip := lt.Coeff < 0
		switch c.Op {
		case domain.CmpEq:
			candidate = before.Meet(bound)
		case domain.CmpLeq, domain.CmpLt:
			if !flip {
				candidate = before.Meet(Interval{Hi: bound.Hi})
			} else {
				candidate = before.Meet(Interval{Lo: bound.Lo})
			}
		case domain.CmpGeq, domain.CmpGt:
			if !flip {
				candidate = before.Meet(Interval{Lo: bound.Lo})
			} else {
				candidate = before.Meet(Interval{Hi: bound.Hi})
			}
		default:
			// CmpNeq: a disequality cannot narrow an interval in general;
			// the one case it can refute is both sides pinned to the same
			// point, which is exactly the contradiction the engine's
			// congruence scenario exercises (x == y, then x != y).
			candidate = before
			if before.Lo != nil && before.Hi != nil && before.Lo.Cmp(before.Hi) == 0 &&
				bound.Lo != nil && bound.Hi != nil && bound.Lo.Cmp(bound.Hi) == 0 &&
				before.Lo.Cmp(bound.Lo) == 0 {
				candidate = Interval{Lo: big_(1), Hi: big_(0)} // empty: the disequality is violated
			}
		}
		if candidate.isBottom() {
			s.isBottom = true
			s.vars = map[domain.Var]Interval{}
			return true
		}
		if !before.Leq(candidate) {
			s.set(lt.Var, candidate)
			changed = true
		}
	}
	return changed
}

// ToLinearConstraints exports each tracked variable's interval as up to
// two inequalities.
func (s State) ToLinearConstraints() domain.LCS {
	if s.isBottom {
		return domain.LCS{{Op: domain.CmpEq, Expr: domain.Const(1)}}
	}
	var out domain.ConstraintSystem
	for v, iv := range s.vars {
		if iv.Lo != nil {
			// v - lo >= 0
			out = append(out, domain.Constraint{
				Op:   domain.CmpGeq,
				Expr: domain.LinExpr{Const: -iv.Lo.Int64(), Terms: []domain.LinTerm{{Coeff: 1, Var: v}}},
			})
		}
		if iv.Hi != nil {
			out = append(out, domain.Constraint{
				Op:   domain.CmpLeq,
				Expr: domain.LinExpr{Const: -iv.Hi.Int64(), Terms: []domain.LinTerm{{Coeff: 1, Var: v}}},
			})
		}
	}
	return out
}
