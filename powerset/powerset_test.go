package powerset

import (
	"testing"

	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/internal/lawcheck"
	"github.com/gretadolcetti/crab/intervals"
)

const varX domain.Var = 1

func disjunct(lo, hi int64) intervals.State {
	s := intervals.State{}.Top()
	s = s.Assume(domain.ConstraintSystem{
		{Op: domain.CmpGeq, Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: varX}}, Const: -lo}},
		{Op: domain.CmpLeq, Expr: domain.LinExpr{Terms: []domain.LinTerm{{Coeff: 1, Var: varX}}, Const: -hi}},
	})
	return s
}

func TestLattice(t *testing.T) {
	a := New(Params{ExactMeet: true, MaxDisjuncts: 4}, disjunct(0, 5))
	b := New(Params{ExactMeet: true, MaxDisjuncts: 4}, disjunct(10, 15))
	lawcheck.Laws(t, a, b)
}

func TestSmashesWhenDisjunctsExceedCap(t *testing.T) {
	params := Params{ExactMeet: true, MaxDisjuncts: 3}
	p := New(params, disjunct(0, 0))

	for _, bounds := range [][2]int64{{10, 10}, {20, 20}, {30, 30}} {
		p = p.Join(New(params, disjunct(bounds[0], bounds[1])))
	}

	if len(p.Disjuncts()) != 1 {
		t.Fatalf("smashing should collapse to exactly one disjunct, got %d", len(p.Disjuncts()))
	}

	only := p.Disjuncts()[0]
	x := only.Get(varX)
	if x.Lo == nil || x.Lo.Int64() != 0 {
		t.Fatalf("smashed disjunct lo = %v, want 0", x.Lo)
	}
	if x.Hi == nil || x.Hi.Int64() != 30 {
		t.Fatalf("smashed disjunct hi = %v, want 30", x.Hi)
	}
}

func TestDisjunctsStayApartUnderCap(t *testing.T) {
	params := Params{ExactMeet: true, MaxDisjuncts: 4}
	p := New(params, disjunct(0, 0))
	p = p.Join(New(params, disjunct(10, 10)))

	if len(p.Disjuncts()) != 2 {
		t.Fatalf("expected 2 disjuncts under the cap, got %d", len(p.Disjuncts()))
	}
}

func TestTransferPromotingDisjunctToTop(t *testing.T) {
	params := Params{ExactMeet: true, MaxDisjuncts: 4}
	p := New(params, disjunct(0, 0))
	p = p.Join(New(params, disjunct(10, 10)))

	p = p.Forget(varX)
	if !p.IsTop() {
		t.Fatalf("forgetting the only constrained variable should promote to top")
	}
	if len(p.Disjuncts()) != 1 {
		t.Fatalf("top should be a single disjunct, got %d", len(p.Disjuncts()))
	}
}
