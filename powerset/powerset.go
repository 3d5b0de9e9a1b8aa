// Package powerset lifts any abstract domain D to a bounded disjunction of
// D-disjuncts: the simplest instance of the disjunctive-state pattern
// every practical abstract interpreter eventually needs, capped by a hard
// max-disjuncts threshold and smashing (joining every disjunct into one)
// rather than ever growing unboundedly.
package powerset

import "github.com/gretadolcetti/crab/domain"

// Params configures a P[D] value; it travels with every value produced
// from one (join, meet, widening, ...) so a whole analysis is consistent.
type Params struct {
	// ExactMeet chooses Cartesian pairwise meet over smash-then-delegate.
	ExactMeet bool
	// MaxDisjuncts triggers Smash once exceeded. Must be at least 1.
	MaxDisjuncts int
}

// DefaultParams matches common practice: exact meet, a small disjunct cap.
var DefaultParams = Params{ExactMeet: true, MaxDisjuncts: 4}

// P is a non-empty ordered sequence of D-disjuncts.
type P[D domain.Value[D]] struct {
	params    Params
	disjuncts []D
	// top is true for the single ⊤ disjunct representation; bottom is
	// true for the single ⊥ disjunct representation. Both are modeled as
	// a length-1 disjuncts slice plus this flag rather than a special
	// empty slice, so every method can assume len(disjuncts) >= 1.
	top    bool
	bottom bool
}

// Top returns the powerset top. The receiver's params are kept when they
// are set; the zero value (used as a pure factory) falls back to
// DefaultParams.
func (p P[D]) Top() P[D] {
	var zero D
	params := p.params
	if params.MaxDisjuncts < 1 {
		params = DefaultParams
	}
	return P[D]{params: params, disjuncts: []D{zero.Top()}, top: true}
}

// Bottom returns the powerset bottom (an empty disjunction).
func (p P[D]) Bottom() P[D] {
	var zero D
	out := p.Top()
	out.top = false
	out.bottom = true
	out.disjuncts = []D{zero.Bottom()}
	return out
}

// New wraps a single disjunct under params.
func New[D domain.Value[D]](params Params, d D) P[D] {
	if params.MaxDisjuncts < 1 {
		params.MaxDisjuncts = 1
	}
	p := P[D]{params: params, disjuncts: []D{d}}
	p.top = d.IsTop()
	p.bottom = d.IsBottom()
	return p
}

func (p P[D]) IsBottom() bool { return p.bottom }
func (p P[D]) IsTop() bool    { return p.top }

// Disjuncts exposes the current disjunct sequence, read-only by
// convention: callers must not mutate the returned slice's domain values
// in place (they are value types, so an assignment into the slice would
// not leak anyway, but replacing an element should go through the
// constructors instead).
func (p P[D]) Disjuncts() []D { return p.disjuncts }

// smash replaces the disjunct sequence with their join in D, collapsing
// all disjunctive precision to a single disjunct.
func (p P[D]) smash() D {
	acc := p.disjuncts[0]
	for _, d := range p.disjuncts[1:] {
		acc = acc.Join(d)
	}
	return acc
}

func single[D domain.Value[D]](params Params, d D) P[D] {
	return New(params, d)
}

// mapEach applies f to every disjunct, drops any that become bottom, and
// collapses to the single bottom disjunct if all of them did. A disjunct
// that becomes top promotes the whole disjunction to top.
func (p P[D]) mapEach(f func(D) D) P[D] {
	if p.top || p.bottom {
		return single(p.params, f(p.disjuncts[0]))
	}
	var out []D
	for _, d := range p.disjuncts {
		nd := f(d)
		if nd.IsBottom() {
			continue
		}
		if nd.IsTop() {
			return p.Top()
		}
		out = append(out, nd)
	}
	if len(out) == 0 {
		return p.Bottom()
	}
	return P[D]{params: p.params, disjuncts: out}
}

func (p P[D]) Assign(v domain.Var, e domain.LinExpr) P[D] {
	return p.mapEach(func(d D) D { return d.Assign(v, e) })
}

func (p P[D]) Apply(op domain.Op, x, y, z domain.Var) P[D] {
	return p.mapEach(func(d D) D { return d.Apply(op, x, y, z) })
}

func (p P[D]) ApplyImm(op domain.Op, x, y domain.Var, k int64) P[D] {
	return p.mapEach(func(d D) D { return d.ApplyImm(op, x, y, k) })
}

func (p P[D]) Assume(cs domain.ConstraintSystem) P[D] {
	return p.mapEach(func(d D) D { return d.Assume(cs) })
}

func (p P[D]) Forget(v domain.Var) P[D] {
	return p.mapEach(func(d D) D { return d.Forget(v) })
}

func (p P[D]) Expand(from, to domain.Var) P[D] {
	return p.mapEach(func(d D) D { return d.Expand(from, to) })
}

func (p P[D]) Rename(from, to domain.Var) P[D] {
	return p.mapEach(func(d D) D { return d.Rename(from, to) })
}

func (p P[D]) Project(vars []domain.Var) P[D] {
	return p.mapEach(func(d D) D { return d.Project(vars) })
}

// ToLinearConstraints reports the disjunction's constraints as their join
// in D: the powerset's own vocabulary has no notion of disjunctive linear
// constraints, so a sound single-state summary is the best available
// export.
func (p P[D]) ToLinearConstraints() domain.LCS {
	return p.smash().ToLinearConstraints()
}
