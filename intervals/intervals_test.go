package intervals

import (
	"testing"

	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/internal/lawcheck"
)

const (
	varX domain.Var = 1
	varY domain.Var = 2
	varZ domain.Var = 3
)

func TestLattice(t *testing.T) {
	a := State{}.Top().Assign(varX, domain.Const(5))
	b := State{}.Top().Assign(varX, domain.Const(8))
	lawcheck.Laws(t, a, b)
}

func TestAssignAndApply(t *testing.T) {
	s := State{}.Top()
	s = s.Assign(varX, domain.Const(5))
	s = s.Assign(varY, domain.Const(3))
	s = s.Apply(domain.OpAdd, varZ, varX, varY)

	z := s.Get(varZ)
	if z.Lo == nil || z.Lo.Int64() != 8 || z.Hi == nil || z.Hi.Int64() != 8 {
		t.Fatalf("z = %s, want [8, 8]", z)
	}
}

func TestAssumeNarrowsThroughEquality(t *testing.T) {
	s := State{}.Top()
	s.set(varX, AtLeast(5))
	s.set(varY, Unbounded())

	// x == y, with x in [5, +inf): y should narrow to [5, +inf) too.
	s = s.Assume(domain.ConstraintSystem{{
		Op:   domain.CmpEq,
		Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: varX}, {Coeff: -1, Var: varY}}},
	}})

	y := s.Get(varY)
	if y.Lo == nil || y.Lo.Int64() != 5 {
		t.Fatalf("y = %s, want lower bound 5", y)
	}
}

func TestWideningStabilizes(t *testing.T) {
	x := Point(0)
	old := x
	for i := 0; i < 20; i++ {
		x = x.Join(Point(int64(i)))
		old = old.Widening(x)
	}
	if old.Hi != nil {
		t.Fatalf("widened interval still bounded above: %s", old)
	}
}
