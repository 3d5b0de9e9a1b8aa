package intervals

import (
	"github.com/gretadolcetti/crab/domain"
)

// State is a non-relational map from variable to Interval, implementing
// domain.Value[State]. A missing entry is top ((-inf, +inf)); the
// distinguished bottom element is a flag, not a per-variable interval.
type State struct {
	vars     map[domain.Var]Interval
	isBottom bool
}

func (State) Top() State {
	return State{vars: map[domain.Var]Interval{}}
}

func (s State) Bottom() State {
	return State{vars: map[domain.Var]Interval{}, isBottom: true}
}

func (s State) IsBottom() bool { return s.isBottom }
func (s State) IsTop() bool    { return !s.isBottom && len(s.vars) == 0 }

func (s State) clone() State {
	vars := make(map[domain.Var]Interval, len(s.vars))
	for k, v := range s.vars {
		vars[k] = v
	}
	return State{vars: vars, isBottom: s.isBottom}
}

// Get returns v's interval, or Unbounded if v is untracked.
func (s State) Get(v domain.Var) Interval {
	if s.isBottom {
		return Interval{Lo: big_(1), Hi: big_(0)} // an empty interval
	}
	if iv, ok := s.vars[v]; ok {
		return iv
	}
	return Unbounded()
}

func (s *State) set(v domain.Var, iv Interval) {
	if iv.isBottom() {
		s.isBottom = true
		s.vars = map[domain.Var]Interval{}
		return
	}
	if iv.Lo == nil && iv.Hi == nil {
		delete(s.vars, v)
		return
	}
	s.vars[v] = iv
}

func (s State) Leq(other State) bool {
	if s.isBottom {
		return true
	}
	if other.isBottom {
		return false
	}
	for v, iv := range other.vars {
		if !s.Get(v).Leq(iv) {
			return false
		}
	}
	return true
}

func eachVar(a, b State) map[domain.Var]bool {
	out := make(map[domain.Var]bool, len(a.vars)+len(b.vars))
	for v := range a.vars {
		out[v] = true
	}
	for v := range b.vars {
		out[v] = true
	}
	return out
}

func (s State) pointwise(other State, f func(a, b Interval) Interval) State {
	out := s.Top()
	for v := range eachVar(s, other) {
		out.set(v, f(s.Get(v), other.Get(v)))
	}
	return out
}

func (s State) Join(other State) State {
	if s.isBottom {
		return other
	}
	if other.isBottom {
		return s
	}
	return s.pointwise(other, Interval.Join)
}

func (s State) Meet(other State) State {
	if s.isBottom || other.isBottom {
		return s.Bottom()
	}
	out := s.pointwise(other, Interval.Meet)
	return out
}

func (s State) Widening(other State) State {
	if s.isBottom {
		return other
	}
	if other.isBottom {
		return s
	}
	return s.pointwise(other, Interval.Widening)
}

func (s State) WideningThresholds(other State, thresholds []int64) State {
	if s.isBottom {
		return other
	}
	if other.isBottom {
		return s
	}
	return s.pointwise(other, func(a, b Interval) Interval { return a.WideningThresholds(b, thresholds) })
}

func (s State) Narrowing(other State) State {
	if s.isBottom || other.isBottom {
		return s
	}
	return s.pointwise(other, Interval.Narrowing)
}

func (s State) eval(e domain.LinExpr) Interval {
	acc := Point(e.Const)
	for _, lt := range e.Terms {
		acc = acc.Add(s.Get(lt.Var).Scale(lt.Coeff))
	}
	return acc
}

func (s State) Assign(v domain.Var, e domain.LinExpr) State {
	if s.isBottom {
		return s
	}
	out := s.clone()
	out.set(v, out.eval(e))
	return out
}

func (s State) Apply(op domain.Op, x, y, z domain.Var) State {
	if s.isBottom {
		return s
	}
	out := s.clone()
	out.set(x, applyOp(op, s.Get(y), s.Get(z)))
	return out
}

func (s State) ApplyImm(op domain.Op, x, y domain.Var, k int64) State {
	if s.isBottom {
		return s
	}
	out := s.clone()
	out.set(x, applyOp(op, s.Get(y), Point(k)))
	return out
}

func applyOp(op domain.Op, a, b Interval) Interval {
	switch op {
	case domain.OpAdd:
		return a.Add(b)
	case domain.OpSub:
		return a.Sub(b)
	case domain.OpMul:
		return a.Mul(b)
	case domain.OpDiv, domain.OpSDiv:
		return a.Div(b)
	default:
		// Bitwise operators have no sound, precise interval abstraction
		// here; top is always sound.
		return Unbounded()
	}
}

func (s State) Forget(v domain.Var) State {
	if s.isBottom {
		return s
	}
	out := s.clone()
	delete(out.vars, v)
	return out
}

func (s State) Expand(from, to domain.Var) State {
	if s.isBottom {
		return s
	}
	out := s.clone()
	out.set(to, s.Get(from))
	return out
}

func (s State) Rename(from, to domain.Var) State {
	if s.isBottom {
		return s
	}
	out := s.clone()
	delete(out.vars, from)
	out.set(to, s.Get(from))
	return out
}

func (s State) Project(vars []domain.Var) State {
	if s.isBottom {
		return s
	}
	keep := make(map[domain.Var]bool, len(vars))
	for _, v := range vars {
		keep[v] = true
	}
	out := s.Top()
	for v, iv := range s.vars {
		if keep[v] {
			out.set(v, iv)
		}
	}
	return out
}
