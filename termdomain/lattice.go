package termdomain

import (
	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/terms"
	"github.com/gretadolcetti/crab/warn"
)

// Leq normalizes both sides, structurally maps every shared variable's
// term through the term table's MapLeq, then realigns the two states onto a common,
// freshly allocated surrogate vocabulary before delegating to the
// underlying domain's Leq.
func (t T[D]) Leq(other T[D]) bool {
	if t.isBottom {
		return true
	}
	if other.isBottom {
		return false
	}

	a := t.clone()
	a.normalize()
	b := other.clone()
	b.normalize()

	// A variable the other side constrains but this side never bound is
	// top here; binding it to a fresh free term now lets the structural
	// and numeric comparison below see the asymmetry instead of skipping
	// the variable entirely.
	for v := range b.vm {
		if _, ok := a.vm[v]; !ok {
			a.termOfVarBind(v)
		}
	}

	genMap := map[terms.ID]terms.ID{} // other's ID -> a's ID
	for v, tMine := range a.vm {
		tOther, ok := b.vm[v]
		if !ok {
			// v is unbound (top) on the other side; leq holds trivially
			// for it regardless of what a knows.
			continue
		}
		if !a.ttbl.MapLeq(b.ttbl, tMine, tOther, genMap) {
			return false
		}
	}

	pa := Pair(a.alloc, b.alloc)
	implA := a.impl
	implB := b.impl
	var renamed []domain.Var
	for tOther, tMine := range genMap {
		svA, okA := a.svm[tMine]
		svB, okB := b.svm[tOther]
		if !okA && !okB {
			continue
		}
		vt, next := pa.Next()
		pa = next
		if okA {
			implA = implA.Assign(vt, domain.VarExpr(svA))
		}
		if okB {
			implB = implB.Assign(vt, domain.VarExpr(svB))
		}
		renamed = append(renamed, vt)
	}

	implA = implA.Project(renamed)
	implB = implB.Project(renamed)
	return implA.Leq(implB)
}

// combine is shared by Join, Widening, WideningThresholds, and Meet: generalize
// every shared variable's term pair, realign both sides onto the
// generalized surrogate vocabulary, then delegate to combineImpl.
func (t T[D]) combine(other T[D], combineImpl func(a, b D) D) T[D] {
	if t.isBottom {
		return other
	}
	if other.isBottom {
		return t
	}

	outTbl := terms.NewTable()
	generMap := map[terms.PairKey]terms.ID{}
	outVM := map[domain.Var]terms.ID{}

	type alignment struct {
		out, a, b terms.ID
	}
	var alignments []alignment

	for v, tA := range t.vm {
		tB, ok := other.vm[v]
		if !ok {
			continue // unbound on the other side: stays unbound (top) in the result, which is sound.
		}
		tOut := t.ttbl.Generalize(other.ttbl, tA, tB, outTbl, generMap)
		outVM[v] = tOut
		alignments = append(alignments, alignment{tOut, tA, tB})
	}

	pa := Pair(t.alloc, other.alloc)
	implA := t.impl
	implB := other.impl
	outSVM := map[terms.ID]domain.Var{}
	var vts []domain.Var

	for _, al := range alignments {
		svA, okA := t.svm[al.a]
		svB, okB := other.svm[al.b]
		if !okA && !okB {
			continue
		}
		vt, next := pa.Next()
		pa = next
		if okA {
			implA = implA.Assign(vt, domain.VarExpr(svA))
		}
		if okB {
			implB = implB.Assign(vt, domain.VarExpr(svB))
		}
		outSVM[al.out] = vt
		vts = append(vts, vt)
	}

	implA = implA.Project(vts)
	implB = implB.Project(vts)

	return T[D]{
		ttbl:    outTbl,
		impl:    combineImpl(implA, implB),
		alloc:   pa,
		vm:      outVM,
		svm:     outSVM,
		changed: map[terms.ID]struct{}{},
	}
}

func (t T[D]) Join(other T[D]) T[D] {
	return t.combine(other, func(a, b D) D { return a.Join(b) })
}

func (t T[D]) Widening(other T[D]) T[D] {
	return t.combine(other, func(a, b D) D { return a.Widening(b) })
}

func (t T[D]) WideningThresholds(other T[D], thresholds []int64) T[D] {
	return t.combine(other, func(a, b D) D { return a.WideningThresholds(b, thresholds) })
}

// Meet generalizes both states onto a common surrogate vocabulary, the
// same realignment Join performs, then delegates to the underlying
// domain's meet. Structure the two sides disagree on is anti-unified away
// first, so the result over-approximates the exact intersection; numeric
// inconsistency between aligned terms still surfaces as bottom.
func (t T[D]) Meet(other T[D]) T[D] {
	if t.isBottom || other.isBottom {
		return t.Bottom()
	}
	if t.IsTop() {
		return other
	}
	if other.IsTop() {
		return t
	}
	out := t.combine(other, func(a, b D) D { return a.Meet(b) })
	if out.impl.IsBottom() {
		out.isBottom = true
	}
	return out
}

// Narrowing is a conservative no-op with a warning; the iterator's
// narrowing-iteration cap compensates.
func (t T[D]) Narrowing(other T[D]) T[D] {
	warn.Warnf("termdomain: narrowing is a no-op, keeping the left operand")
	return t
}
