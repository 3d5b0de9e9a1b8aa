// Package fixpoint implements the interleaved forward fixpoint iterator:
// given a CFG, a weak topological ordering of it, and a value domain, it
// computes sound pre/post invariants at every node by alternating ascending
// (join/widen) and descending (meet/narrow) phases at each loop head.
package fixpoint

import (
	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/wto"
)

// Analyze is the user-supplied per-node transformer: the abstract
// semantics of the statements a node carries. It must be monotone in pre;
// the iterator does not and cannot check this. It receives a copy of the
// incoming value and must not assume anything about its identity across
// calls.
type Analyze[N comparable, D domain.Value[D]] func(n N, pre D) D

// Hooks groups every callback the iterator invokes.
type Hooks[N comparable, D domain.Value[D]] struct {
	Analyze     Analyze[N, D]
	ProcessPre  func(n N, v D)
	ProcessPost func(n N, v D)
}

// Thresholds bounds the ascending and descending phases of every cycle.
type Thresholds struct {
	// Widening is the number of plain-join iterations (W) before the
	// ascending phase switches to widening.
	Widening int
	// Narrowing caps the number of descending-phase refinements of the
	// head's pre (N); each refinement is followed by one more analyze.
	Narrowing int
	// Values, if non-empty, are widening thresholds: extrapolate snaps to
	// the smallest threshold still above the new value instead of jumping
	// straight to infinity.
	Values []int64
}

// DefaultThresholds delays widening by two plain joins and caps narrowing
// at two descending refinements.
var DefaultThresholds = Thresholds{Widening: 2, Narrowing: 2}

// Iterator drives one fixpoint computation. Its pre/post tables exist only
// for the duration of Run.
type Iterator[N comparable, D domain.Value[D]] struct {
	g    domain.Graph[N]
	w    *wto.Wto[N]
	h    Hooks[N, D]
	th   Thresholds
	pre  map[N]D
	post map[N]D
}

// New builds an iterator for a fixed graph, WTO, and hook set. The same
// Iterator can be Run multiple times with different initial values; each
// Run discards the previous tables.
func New[N comparable, D domain.Value[D]](g domain.Graph[N], w *wto.Wto[N], h Hooks[N, D], th Thresholds) *Iterator[N, D] {
	return &Iterator[N, D]{g: g, w: w, h: h, th: th}
}

// Run computes the fixpoint starting from init at the entry node, then
// invokes ProcessPre/ProcessPost exactly once per node in WTO order before
// releasing the tables.
func (it *Iterator[N, D]) Run(init D) {
	it.pre = map[N]D{it.g.Entry(): init}
	it.post = map[N]D{}

	wto.Dispatch(it.w.Components(), it)

	if it.h.ProcessPre != nil || it.h.ProcessPost != nil {
		wto.Dispatch(it.w.Components(), postProcessor[N, D]{it})
	}

	it.pre = nil
	it.post = nil
}

func (it *Iterator[N, D]) bottom() D {
	var zero D
	return zero.Bottom()
}

func (it *Iterator[N, D]) getPost(n N) D {
	if v, ok := it.post[n]; ok {
		return v
	}
	return it.bottom()
}

// joinPreds computes the join over post(p) for every predecessor p of n
// that satisfies keep (or every predecessor, if keep is nil).
func (it *Iterator[N, D]) joinPreds(n N, keep func(p N) bool) D {
	result := it.bottom()
	for _, p := range it.g.Predecessors(n) {
		if keep != nil && !keep(p) {
			continue
		}
		result = result.Join(it.getPost(p))
	}
	return result
}

// VisitVertex implements wto.Visitor for a plain, non-cycle node.
func (it *Iterator[N, D]) VisitVertex(n N) {
	var pre D
	if n == it.g.Entry() {
		pre = it.pre[n]
	} else {
		pre = it.joinPreds(n, nil)
	}
	it.pre[n] = pre
	it.post[n] = it.h.Analyze(n, pre)
}

// VisitCycle implements wto.Visitor for a loop: the ascending phase widens
// up to a post-fixpoint, then the descending phase narrows back down for
// up to Thresholds.Narrowing iterations.
func (it *Iterator[N, D]) VisitCycle(c *wto.Cycle[N]) {
	h := c.Head
	headNesting := it.w.Nesting(h)

	preH := it.joinPreds(h, func(p N) bool {
		return !it.w.Nesting(p).GT(headNesting)
	})

	for i := 1; ; i++ {
		it.pre[h] = preH
		it.post[h] = it.h.Analyze(h, preH)
		wto.Dispatch(c.Components, it)

		newPre := it.joinPreds(h, nil)
		if newPre.Leq(preH) {
			preH = newPre
			it.pre[h] = preH
			break
		}
		preH = it.extrapolate(i, preH, newPre)
	}

	// The cap is checked before refining, so the last refinement is always
	// followed by one more analyze of the head: post(h) never lags one
	// refinement behind the stored pre(h).
	for i := 1; ; i++ {
		it.post[h] = it.h.Analyze(h, preH)
		wto.Dispatch(c.Components, it)

		newPre := it.joinPreds(h, nil)
		if preH.Leq(newPre) {
			break
		}
		if i > it.th.Narrowing {
			break
		}
		if i == 1 {
			preH = preH.Meet(newPre)
		} else {
			preH = preH.Narrowing(newPre)
		}
		it.pre[h] = preH
	}
}

func (it *Iterator[N, D]) extrapolate(i int, old, new D) D {
	if i <= it.th.Widening {
		return old.Join(new)
	}
	if len(it.th.Values) > 0 {
		return old.WideningThresholds(new, it.th.Values)
	}
	return old.Widening(new)
}

// postProcessor wraps an Iterator so a second WTO traversal, after the
// fixpoint has stabilized, invokes ProcessPre/ProcessPost instead of
// analyzing. Cycles are walked node-by-node just like vertices; loop heads
// only get one pre/post pair by this point, so there is nothing left to
// iterate.
type postProcessor[N comparable, D domain.Value[D]] struct {
	it *Iterator[N, D]
}

func (p postProcessor[N, D]) VisitVertex(n N) { p.report(n) }

func (p postProcessor[N, D]) VisitCycle(c *wto.Cycle[N]) {
	p.report(c.Head)
	wto.Dispatch(c.Components, p)
}

func (p postProcessor[N, D]) report(n N) {
	if p.it.h.ProcessPre != nil {
		p.it.h.ProcessPre(n, p.it.pre[n])
	}
	if p.it.h.ProcessPost != nil {
		p.it.h.ProcessPost(n, p.it.post[n])
	}
}
