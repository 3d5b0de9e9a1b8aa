// Package intervals implements a simple non-relational interval domain: a
// map from variable to [lo, hi] with a nil bound meaning infinity. It
// exists to exercise and test the engine end to end (the fixpoint
// iterator, and the value domain the term-equivalence domain delegates
// numeric reasoning to); the engine itself only ever sees a value domain
// through the contract in package domain, so any other implementation
// slots in the same way.
package intervals

import (
	"fmt"
	"math/big"

	"github.com/gretadolcetti/crab/warn"
)

// Interval is [Lo, Hi]. A nil Lo is -infinity; a nil Hi is +infinity.
type Interval struct {
	Lo, Hi *big.Int
}

func big_(n int64) *big.Int { return big.NewInt(n) }

// Point returns the singleton interval [n, n].
func Point(n int64) Interval { return Interval{Lo: big_(n), Hi: big_(n)} }

// Unbounded returns (-infinity, +infinity).
func Unbounded() Interval { return Interval{} }

// AtLeast returns [n, +infinity).
func AtLeast(n int64) Interval { return Interval{Lo: big_(n)} }

// AtMost returns (-infinity, n].
func AtMost(n int64) Interval { return Interval{Hi: big_(n)} }

func (iv Interval) String() string {
	l, h := "-inf", "+inf"
	if iv.Lo != nil {
		l = iv.Lo.String()
	}
	if iv.Hi != nil {
		h = iv.Hi.String()
	}
	return fmt.Sprintf("[%s, %s]", l, h)
}

func (iv Interval) isBottom() bool {
	return iv.Lo != nil && iv.Hi != nil && iv.Lo.Cmp(iv.Hi) > 0
}

func loLeq(a, b *big.Int) bool {
	if a == nil {
		return true
	}
	if b == nil {
		return false
	}
	return a.Cmp(b) <= 0
}

func hiLeq(a, b *big.Int) bool {
	if b == nil {
		return true
	}
	if a == nil {
		return false
	}
	return a.Cmp(b) <= 0
}

func loMin(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return nil
	}
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func loMax(a, b *big.Int) *big.Int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func hiMax(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return nil
	}
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func hiMin(a, b *big.Int) *big.Int {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

// Leq is subset inclusion.
func (a Interval) Leq(b Interval) bool {
	if a.isBottom() {
		return true
	}
	return loLeq(b.Lo, a.Lo) && hiLeq(a.Hi, b.Hi)
}

// Join is the convex union.
func (a Interval) Join(b Interval) Interval {
	if a.isBottom() {
		return b
	}
	if b.isBottom() {
		return a
	}
	return Interval{Lo: loMin(a.Lo, b.Lo), Hi: hiMax(a.Hi, b.Hi)}
}

// Meet is the intersection.
func (a Interval) Meet(b Interval) Interval {
	return Interval{Lo: loMax(a.Lo, b.Lo), Hi: hiMin(a.Hi, b.Hi)}
}

// Widening keeps a bound unchanged if b did not move past it, otherwise
// jumps it straight to infinity: the classic unstable-bound widening.
func (a Interval) Widening(b Interval) Interval {
	out := a
	if a.Lo != nil && (b.Lo == nil || b.Lo.Cmp(a.Lo) < 0) {
		out.Lo = nil
	}
	if a.Hi != nil && (b.Hi == nil || b.Hi.Cmp(a.Hi) > 0) {
		out.Hi = nil
	}
	return out
}

// WideningThresholds snaps a widened bound to the tightest threshold still
// sound, instead of jumping straight to infinity.
func (a Interval) WideningThresholds(b Interval, thresholds []int64) Interval {
	out := a.Join(b)
	if a.Lo != nil && (b.Lo == nil || b.Lo.Cmp(a.Lo) < 0) {
		out.Lo = snapLo(b.Lo, thresholds)
	}
	if a.Hi != nil && (b.Hi == nil || b.Hi.Cmp(a.Hi) > 0) {
		out.Hi = snapHi(b.Hi, thresholds)
	}
	return out
}

func snapLo(v *big.Int, thresholds []int64) *big.Int {
	var best *big.Int
	for _, t := range thresholds {
		bt := big_(t)
		if v == nil || bt.Cmp(v) <= 0 {
			if best == nil || bt.Cmp(best) > 0 {
				best = bt
			}
		}
	}
	return best // nil if no threshold is low enough: -infinity
}

func snapHi(v *big.Int, thresholds []int64) *big.Int {
	var best *big.Int
	for _, t := range thresholds {
		bt := big_(t)
		if v == nil || bt.Cmp(v) >= 0 {
			if best == nil || bt.Cmp(best) < 0 {
				best = bt
			}
		}
	}
	return best
}

// Narrowing keeps any bound that was already finite, otherwise adopts the
// new bound.
func (a Interval) Narrowing(b Interval) Interval {
	out := a
	if a.Lo == nil {
		out.Lo = b.Lo
	}
	if a.Hi == nil {
		out.Hi = b.Hi
	}
	return out
}

func addBound(a, b *big.Int) *big.Int {
	if a == nil || b == nil {
		return nil
	}
	return new(big.Int).Add(a, b)
}

func negBound(a *big.Int) *big.Int {
	if a == nil {
		return nil
	}
	return new(big.Int).Neg(a)
}

// Add is interval addition.
func (a Interval) Add(b Interval) Interval {
	return Interval{Lo: addBound(a.Lo, b.Lo), Hi: addBound(a.Hi, b.Hi)}
}

// Sub is interval subtraction.
func (a Interval) Sub(b Interval) Interval {
	return a.Add(Interval{Lo: negBound(b.Hi), Hi: negBound(b.Lo)})
}

// Scale multiplies every element by the scalar k.
func (a Interval) Scale(k int64) Interval {
	if k == 0 {
		return Point(0)
	}
	bk := big_(k)
	mulBound := func(x *big.Int) *big.Int {
		if x == nil {
			return nil
		}
		return new(big.Int).Mul(x, bk)
	}
	lo, hi := mulBound(a.Lo), mulBound(a.Hi)
	if k < 0 {
		lo, hi = hi, lo
	}
	return Interval{Lo: lo, Hi: hi}
}

// Mul is interval multiplication by corner evaluation.
func (a Interval) Mul(b Interval) Interval {
	if a.Lo != nil && a.Hi != nil && a.Lo.Cmp(a.Hi) == 0 {
		return b.Scale(a.Lo.Int64())
	}
	if b.Lo != nil && b.Hi != nil && b.Lo.Cmp(b.Hi) == 0 {
		return a.Scale(b.Lo.Int64())
	}
	if a.Lo == nil || a.Hi == nil || b.Lo == nil || b.Hi == nil {
		return Unbounded()
	}
	corners := []*big.Int{
		new(big.Int).Mul(a.Lo, b.Lo),
		new(big.Int).Mul(a.Lo, b.Hi),
		new(big.Int).Mul(a.Hi, b.Lo),
		new(big.Int).Mul(a.Hi, b.Hi),
	}
	lo, hi := corners[0], corners[0]
	for _, c := range corners[1:] {
		if c.Cmp(lo) < 0 {
			lo = c
		}
		if c.Cmp(hi) > 0 {
			hi = c
		}
	}
	return Interval{Lo: lo, Hi: hi}
}

// Div is sound but coarse integer division: if the divisor can be zero the
// result defaults to unbounded, with a warning.
func (a Interval) Div(b Interval) Interval {
	if (b.Lo == nil || b.Lo.Sign() <= 0) && (b.Hi == nil || b.Hi.Sign() >= 0) {
		warn.Warnf("intervals: division by a range that may include zero, returning top")
		return Unbounded()
	}
	if b.Lo != nil && b.Hi != nil && b.Lo.Cmp(b.Hi) == 0 {
		d := b.Lo
		div := func(x *big.Int) *big.Int {
			if x == nil {
				return nil
			}
			q := new(big.Int)
			q.Quo(x, d)
			return q
		}
		lo, hi := div(a.Lo), div(a.Hi)
		if d.Sign() < 0 {
			lo, hi = hi, lo
		}
		return Interval{Lo: lo, Hi: hi}
	}
	warn.Warnf("intervals: division by a non-singleton range, returning top")
	return Unbounded()
}
