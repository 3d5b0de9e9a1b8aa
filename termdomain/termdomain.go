// Package termdomain implements T[D], the term-equivalence abstract domain:
// a relational lifting of any value domain D that tracks which program
// variables currently denote the same symbolic term (constant, free
// variable, or functor application), and delegates all numeric reasoning
// to D over fresh surrogate variables allocated one per distinct term.
//
// The domain maintains three maps alongside the term table: VM binds
// program variables to terms, SVM binds terms to the surrogate D tracks
// their value under, and changed records which terms' numeric information
// has been strengthened since the last normalize.
package termdomain

import (
	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/terms"
)

// T is the term-equivalence domain over an underlying value domain D.
type T[D domain.Value[D]] struct {
	isBottom bool
	ttbl     *terms.Table
	impl     D
	alloc    Alloc
	vm       map[domain.Var]terms.ID
	svm      map[terms.ID]domain.Var
	changed  map[terms.ID]struct{}
}

// Top returns the domain's top element: no variable is bound to any term.
func (T[D]) Top() T[D] {
	var zero D
	return T[D]{
		ttbl:    terms.NewTable(),
		impl:    zero.Top(),
		alloc:   NewAlloc(),
		vm:      map[domain.Var]terms.ID{},
		svm:     map[terms.ID]domain.Var{},
		changed: map[terms.ID]struct{}{},
	}
}

// Bottom returns the domain's bottom element (unreachable state).
func (t T[D]) Bottom() T[D] {
	b := t.Top()
	b.isBottom = true
	return b
}

func (t T[D]) IsBottom() bool { return t.isBottom }

// IsTop reports whether the state tracks no variables at all, which is how
// top is represented (an empty VM is semantically top for every variable).
func (t T[D]) IsTop() bool { return !t.isBottom && len(t.vm) == 0 }

func (t T[D]) clone() T[D] {
	vm := make(map[domain.Var]terms.ID, len(t.vm))
	for k, v := range t.vm {
		vm[k] = v
	}
	svm := make(map[terms.ID]domain.Var, len(t.svm))
	for k, v := range t.svm {
		svm[k] = v
	}
	changed := make(map[terms.ID]struct{}, len(t.changed))
	for k := range t.changed {
		changed[k] = struct{}{}
	}
	return T[D]{
		isBottom: t.isBottom,
		ttbl:     t.ttbl.Clone(),
		impl:     t.impl,
		alloc:    t.alloc,
		vm:       vm,
		svm:      svm,
		changed:  changed,
	}
}

// termOfVarBind returns the term currently bound to v, implicitly binding
// v to a fresh free term if it has none (a missing VM entry has always
// meant top for that variable; referencing it now just gives it a handle).
func (s *T[D]) termOfVarBind(v domain.Var) terms.ID {
	if id, ok := s.vm[v]; ok {
		return id
	}
	id := s.ttbl.FreshVar()
	s.vm[v] = id
	return id
}

// ensureSurrogate returns the surrogate D tracks id's value under,
// allocating and seeding one if this is the first time id needs to be
// numerically visible. A fresh surrogate for a constant term is seeded
// with that constant; a fresh surrogate for a Var or App term starts
// unconstrained, which is sound because nothing has asserted anything
// about it yet.
func (s *T[D]) ensureSurrogate(id terms.ID) domain.Var {
	if sv, ok := s.svm[id]; ok {
		return sv
	}
	sv, next := s.alloc.Next()
	s.alloc = next
	s.svm[id] = sv
	if s.ttbl.Kind(id) == terms.KindConst {
		s.impl = s.impl.Assign(sv, domain.Const(s.ttbl.Const(id)))
	}
	return sv
}

// buildTerm returns the term for App(op, a, b), creating it and computing
// its surrogate's numeric value from a and b's surrogates only if the term
// did not already exist. A pre-existing App already had its surrogate
// computed the first time it was built, so its numeric relation to its
// children holds by induction.
func (s *T[D]) buildTerm(op domain.Op, a, b terms.ID) terms.ID {
	id, created := s.ttbl.ApplyFtor(op, a, b)
	if !created {
		return id
	}
	sv, next := s.alloc.Next()
	s.alloc = next
	s.svm[id] = sv
	sa := s.ensureSurrogate(a)
	sb := s.ensureSurrogate(b)
	s.impl = s.impl.Apply(op, sv, sa, sb)
	return id
}

// buildLinexpr assembles e as a chain of App(OpAdd,.,.) and
// App(OpMul,Const,.) terms, one addend at a time.
func (s *T[D]) buildLinexpr(e domain.LinExpr) terms.ID {
	var acc terms.ID
	have := false

	if e.Const != 0 || len(e.Terms) == 0 {
		acc = s.ttbl.MakeConst(e.Const)
		s.ensureSurrogate(acc)
		have = true
	}

	for _, lt := range e.Terms {
		vt := s.termOfVarBind(lt.Var)
		s.ensureSurrogate(vt)
		var addend terms.ID
		if lt.Coeff == 1 {
			addend = vt
		} else {
			ct := s.ttbl.MakeConst(lt.Coeff)
			s.ensureSurrogate(ct)
			addend = s.buildTerm(domain.OpMul, ct, vt)
		}
		if !have {
			acc = addend
			have = true
		} else {
			acc = s.buildTerm(domain.OpAdd, acc, addend)
		}
	}
	return acc
}

// Assign implements x := e.
func (t T[D]) Assign(x domain.Var, e domain.LinExpr) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()
	id := s.buildLinexpr(e)
	s.vm[x] = id
	return s
}

// Apply implements x := y op z.
func (t T[D]) Apply(op domain.Op, x, y, z domain.Var) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()
	ty := s.termOfVarBind(y)
	tz := s.termOfVarBind(z)
	id := s.buildTerm(op, ty, tz)
	s.vm[x] = id
	return s
}

// ApplyImm implements x := y op k for an immediate k.
func (t T[D]) ApplyImm(op domain.Op, x, y domain.Var, k int64) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()
	ty := s.termOfVarBind(y)
	tk := s.ttbl.MakeConst(k)
	id := s.buildTerm(op, ty, tk)
	s.vm[x] = id
	return s
}

// Forget drops x's binding, but never deletes the term itself or its
// surrogate: other variables may be bound to the same term (Expand shares
// term IDs across variables precisely so that forgetting one does not
// erase what another still knows), and other terms' children may still
// reference it.
func (t T[D]) Forget(v domain.Var) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()
	delete(s.vm, v)
	return s
}

// Expand binds to to the same term as from: term-level sharing, no numeric
// work.
func (t T[D]) Expand(from, to domain.Var) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()
	if id, ok := s.vm[from]; ok {
		s.vm[to] = id
	} else {
		delete(s.vm, to)
	}
	return s
}

// Rename moves from's binding to to.
func (t T[D]) Rename(from, to domain.Var) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()
	if id, ok := s.vm[from]; ok {
		delete(s.vm, from)
		s.vm[to] = id
	} else {
		delete(s.vm, to)
	}
	return s
}

// Project forgets every tracked variable not in vars.
func (t T[D]) Project(vars []domain.Var) T[D] {
	if t.isBottom {
		return t
	}
	keep := make(map[domain.Var]bool, len(vars))
	for _, v := range vars {
		keep[v] = true
	}
	var drop []domain.Var
	for v := range t.vm {
		if !keep[v] {
			drop = append(drop, v)
		}
	}
	s := t
	for _, v := range drop {
		s = s.Forget(v)
	}
	return s
}

// Assume renames cs into surrogate space, asserts it in impl, marks every
// referenced variable's term as changed, and normalizes.
func (t T[D]) Assume(cs domain.ConstraintSystem) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()

	surrogateCS := make(domain.ConstraintSystem, len(cs))
	touched := map[domain.Var]bool{}
	for i, c := range cs {
		ts := make([]domain.LinTerm, len(c.Expr.Terms))
		for j, lt := range c.Expr.Terms {
			touched[lt.Var] = true
			id := s.termOfVarBind(lt.Var)
			sv := s.ensureSurrogate(id)
			ts[j] = domain.LinTerm{Coeff: lt.Coeff, Var: sv}
		}
		surrogateCS[i] = domain.Constraint{Op: c.Op, Expr: domain.LinExpr{Const: c.Expr.Const, Terms: ts}}
	}

	s.impl = s.impl.Assume(surrogateCS)
	for v := range touched {
		s.markChanged(s.vm[v])
	}
	s.normalize()
	if s.impl.IsBottom() {
		s.isBottom = true
	}
	return s
}

// Set rebinds x to a fresh free term and lets the caller constrain its
// surrogate directly in the underlying domain. The seed callback exists
// because the concrete shape of the constraint (an interval, an octagon
// face) is a value-domain concern this domain deliberately does not name.
func (t T[D]) Set(x domain.Var, seed func(sv domain.Var, impl D) D) T[D] {
	if t.isBottom {
		return t
	}
	s := t.clone()
	id := s.ttbl.FreshVar()
	sv, next := s.alloc.Next()
	s.alloc = next
	s.svm[id] = sv
	s.impl = seed(sv, s.impl)
	s.vm[x] = id
	return s
}

// Get normalizes and returns the underlying domain restricted to x's
// surrogate, or D's top value if x is unbound.
func (t T[D]) Get(x domain.Var) D {
	s := t.clone()
	s.normalize()
	var zero D
	id, ok := s.vm[x]
	if !ok {
		return zero.Top()
	}
	sv, ok := s.svm[id]
	if !ok {
		return zero.Top()
	}
	return s.impl.Project([]domain.Var{sv})
}

func (s *T[D]) markChanged(id terms.ID) {
	s.changed[id] = struct{}{}
}
