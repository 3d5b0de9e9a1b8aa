package termdomain

import (
	"testing"

	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/intervals"
)

const (
	varA domain.Var = 1
	varB domain.Var = 2
	varX domain.Var = 3
	varY domain.Var = 4
)

func top() T[intervals.State] {
	return T[intervals.State]{}.Top()
}

// interval reads v's current numeric value out of s by following its term
// to the surrogate the underlying domain actually tracks, the same lookup
// Get performs internally, so tests can assert on Lo/Hi directly.
func interval(s T[intervals.State], v domain.Var) intervals.Interval {
	id, ok := s.vm[v]
	if !ok {
		return intervals.Unbounded()
	}
	sv, ok := s.svm[id]
	if !ok {
		return intervals.Unbounded()
	}
	return s.Get(v).Get(sv)
}

// Binding the same constant to two variables hash-conses them onto one
// term; contradicting that term's already-fixed value is then a meet
// against bottom, regardless of which variable named it.
func TestEqualConstantTermContradictionIsBottom(t *testing.T) {
	s := top()
	s = s.Assign(varX, domain.Const(5))
	s = s.Assign(varY, domain.Const(5))
	s = s.Assume(domain.ConstraintSystem{{
		Op:   domain.CmpEq,
		Expr: domain.LinExpr{Const: -10, Terms: []domain.LinTerm{{Coeff: 1, Var: varX}}},
	}})

	if !s.IsBottom() {
		t.Fatal("asserting x == 10 against a term already fixed at 5 should be bottom")
	}
}

// x and y are both built as a+b independently; the term table hash-conses
// App(Add, a, b) so they denote the same term and share a surrogate, so
// refining one through that shared term refines the other.
func TestSharedTermSharesRefinement(t *testing.T) {
	s := top()
	s = s.Apply(domain.OpAdd, varX, varA, varB)
	s = s.Apply(domain.OpAdd, varY, varA, varB)

	s = s.Assume(domain.ConstraintSystem{{
		Op:   domain.CmpGeq,
		Expr: domain.LinExpr{Const: -10, Terms: []domain.LinTerm{{Coeff: 1, Var: varX}}},
	}})

	y := interval(s, varY)
	if y.Lo == nil || y.Lo.Int64() != 10 {
		t.Fatalf("interval(y) = %s, want lower bound 10 (shared with x's term)", y)
	}
}

// x == y, x >= 5, asserted together so the underlying domain's own
// multi-round propagation carries the bound across the equality.
func TestEqualityAssumePropagates(t *testing.T) {
	s := top()
	s = s.Assume(domain.ConstraintSystem{
		{Op: domain.CmpEq, Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: varX}, {Coeff: -1, Var: varY}}}},
		{Op: domain.CmpGeq, Expr: domain.LinExpr{Const: -5, Terms: []domain.LinTerm{{Coeff: 1, Var: varX}}}},
	})

	y := interval(s, varY)
	if y.Lo == nil || y.Lo.Int64() != 5 {
		t.Fatalf("interval(y) = %s, want lower bound 5 via the asserted equality", y)
	}
}

// Two variables built as v1+v0 and v0+v1 respectively are numerically equal
// (both 1) but denote different term shapes, which assume does not merge;
// asserting the equality must keep the state live, and asserting
// the disequality afterwards must then make it bottom.
func TestEqualityThenDisequalityScenario(t *testing.T) {
	v0, v1 := domain.Var(10), domain.Var(11)
	s := top()
	s = s.Assume(domain.ConstraintSystem{
		{Op: domain.CmpEq, Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: v0}}}},
		{Op: domain.CmpEq, Expr: domain.LinExpr{Const: -1, Terms: []domain.LinTerm{{Coeff: 1, Var: v1}}}},
	})
	s = s.Apply(domain.OpAdd, varX, v1, v0)
	s = s.Apply(domain.OpAdd, varY, v0, v1)

	s = s.Assume(domain.ConstraintSystem{{
		Op:   domain.CmpEq,
		Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: varX}, {Coeff: -1, Var: varY}}},
	}})
	if s.IsBottom() {
		t.Fatal("x == y should succeed: both are 1")
	}

	s = s.Assume(domain.ConstraintSystem{{
		Op:   domain.CmpNeq,
		Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: varX}, {Coeff: -1, Var: varY}}},
	}})
	if !s.IsBottom() {
		t.Fatal("x != y should contradict x == y == 1")
	}
}

const (
	varW domain.Var = 5
	varZ domain.Var = 6
)

func setInterval(s T[intervals.State], v domain.Var, lo, hi int64) T[intervals.State] {
	return s.Set(v, func(sv domain.Var, impl intervals.State) intervals.State {
		return impl.Assume(domain.ConstraintSystem{
			{Op: domain.CmpGeq, Expr: domain.LinExpr{Const: -lo, Terms: []domain.LinTerm{{Coeff: 1, Var: sv}}}},
			{Op: domain.CmpLeq, Expr: domain.LinExpr{Const: -hi, Terms: []domain.LinTerm{{Coeff: 1, Var: sv}}}},
		})
	})
}

// Both sides tie x, y, w, z to the same four-term shape modulo
// anti-unification, but their numeric states disagree (x = 5 on the left,
// x = 10 on the right): the meet aligns the shapes, delegates numerically,
// and finds the contradiction.
func TestMeetOfNumericallyInconsistentStatesIsBottom(t *testing.T) {
	left := top()
	left = left.Assign(varX, domain.Const(5))
	left = left.Assign(varW, domain.VarExpr(varX))
	left = left.Assign(varZ, domain.Const(3))
	left = left.Apply(domain.OpAdd, varY, varX, varZ) // y = 8

	right := top()
	right = right.Assign(varY, domain.Const(8))
	right = right.Assign(varW, domain.VarExpr(varY))
	right = right.Assign(varZ, domain.Const(2))
	right = right.Apply(domain.OpAdd, varX, varW, varZ) // x = 10

	if m := left.Meet(right); !m.IsBottom() {
		t.Fatal("meet of states with x = 5 on one side and x = 10 on the other should be bottom")
	}
}

// Meet refines every variable to the intersection of what the two sides
// know once their term shapes have been aligned.
func TestMeetRefinesIntervals(t *testing.T) {
	left := top()
	left = setInterval(left, varX, 5, 8)
	left = left.Assign(varW, domain.VarExpr(varX))
	left = setInterval(left, varZ, 1, 10)
	left = left.Apply(domain.OpAdd, varY, varX, varZ) // y in [6, 18]

	right := top()
	right = setInterval(right, varY, 2, 7)
	right = right.Assign(varW, domain.VarExpr(varY))
	right = setInterval(right, varZ, 3, 5)
	right = right.Apply(domain.OpAdd, varX, varW, varZ) // x in [5, 12]

	m := left.Meet(right)
	if m.IsBottom() {
		t.Fatal("meet should be satisfiable")
	}

	want := map[domain.Var][2]int64{
		varX: {5, 8},
		varY: {6, 7},
		varZ: {3, 5},
		varW: {5, 7},
	}
	for v, bounds := range want {
		iv := interval(m, v)
		if iv.Lo == nil || iv.Hi == nil || iv.Lo.Int64() != bounds[0] || iv.Hi.Int64() != bounds[1] {
			t.Errorf("meet[%d] = %s, want [%d, %d]", v, iv, bounds[0], bounds[1])
		}
	}
}

// Bind y := x, narrow x, forget y: y resets to top but x keeps its
// refinement, because Expand shares the term rather than copying a value.
func TestForgetDropsPrecisionButNotSharedTerm(t *testing.T) {
	s := top()
	s = s.Assign(varX, domain.VarExpr(varX))
	s = s.Expand(varX, varY)
	s = s.Assume(domain.ConstraintSystem{{
		Op:   domain.CmpGeq,
		Expr: domain.LinExpr{Const: -10, Terms: []domain.LinTerm{{Coeff: 1, Var: varX}}},
	}})

	if y := interval(s, varY); y.Lo == nil || y.Lo.Int64() != 10 {
		t.Fatalf("interval(y) before forget = %s, want lower bound 10", y)
	}

	s = s.Forget(varY)

	if _, ok := s.vm[varY]; ok {
		t.Fatal("forget should drop y's binding entirely")
	}

	x := interval(s, varX)
	if x.Lo == nil || x.Lo.Int64() != 10 {
		t.Fatalf("interval(x) after forgetting y = %s, want lower bound 10 preserved", x)
	}
}
