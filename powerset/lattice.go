package powerset

import "github.com/gretadolcetti/crab/domain"

// Smash collapses p to a single disjunct equal to the join of its current
// disjuncts. Exported so callers can force it explicitly (e.g. before a
// widening point) instead of waiting for MaxDisjuncts to trigger it.
func (p P[D]) Smash() P[D] {
	if len(p.disjuncts) <= 1 {
		return p
	}
	return single(p.params, p.smash())
}

// Join concatenates both disjunct sequences, drops any disjunct that is
// leq another (redundancy pruning is optional and quadratic; skipping it
// is always sound), then smashes if the cap is exceeded.
func (p P[D]) Join(other P[D]) P[D] {
	if p.bottom {
		return other
	}
	if other.bottom {
		return p
	}
	if p.top || other.top {
		return p.Top()
	}

	merged := append(append([]D{}, p.disjuncts...), other.disjuncts...)
	merged = pruneRedundant(merged)

	out := P[D]{params: p.params, disjuncts: merged}
	if len(out.disjuncts) > out.params.MaxDisjuncts {
		out = out.Smash()
	}
	return out
}

// pruneRedundant drops any disjunct that is leq some other disjunct in the
// slice. Quadratic; skipping it entirely would also be sound, only the
// MaxDisjuncts cap is load-bearing for termination.
func pruneRedundant[D domain.Value[D]](ds []D) []D {
	keep := make([]bool, len(ds))
	for i := range ds {
		keep[i] = true
	}
	for i := range ds {
		if !keep[i] {
			continue
		}
		for j := range ds {
			if i == j || !keep[j] {
				continue
			}
			if ds[i].Leq(ds[j]) {
				keep[i] = false
				break
			}
		}
	}
	var out []D
	for i, d := range ds {
		if keep[i] {
			out = append(out, d)
		}
	}
	return out
}

// Meet is Cartesian pairwise meet, dropping bottom results, when
// ExactMeet is set; otherwise both sides are smashed first and D's own
// meet is delegated to.
func (p P[D]) Meet(other P[D]) P[D] {
	if p.bottom || other.bottom {
		return p.Bottom()
	}
	if p.top {
		return other
	}
	if other.top {
		return p
	}

	if !p.params.ExactMeet {
		a := p.Smash()
		b := other.Smash()
		return single(p.params, a.disjuncts[0].Meet(b.disjuncts[0]))
	}

	var out []D
	for _, a := range p.disjuncts {
		for _, b := range other.disjuncts {
			m := a.Meet(b)
			if !m.IsBottom() {
				out = append(out, m)
			}
		}
	}
	if len(out) == 0 {
		return p.Bottom()
	}
	res := P[D]{params: p.params, disjuncts: out}
	if len(res.disjuncts) > res.params.MaxDisjuncts {
		res = res.Smash()
	}
	return res
}

// Widening and Narrowing always smash both sides first and delegate to D:
// comparing disjunct sequences pointwise would not guarantee termination.
func (p P[D]) Widening(other P[D]) P[D] {
	if p.bottom {
		return other
	}
	a := p.Smash()
	b := other.Smash()
	return single(p.params, a.disjuncts[0].Widening(b.disjuncts[0]))
}

func (p P[D]) WideningThresholds(other P[D], thresholds []int64) P[D] {
	if p.bottom {
		return other
	}
	a := p.Smash()
	b := other.Smash()
	return single(p.params, a.disjuncts[0].WideningThresholds(b.disjuncts[0], thresholds))
}

func (p P[D]) Narrowing(other P[D]) P[D] {
	a := p.Smash()
	b := other.Smash()
	return single(p.params, a.disjuncts[0].Narrowing(b.disjuncts[0]))
}

// Leq smashes both sides and delegates, for the same reason as widening.
func (p P[D]) Leq(other P[D]) bool {
	if p.bottom {
		return true
	}
	if other.bottom {
		return false
	}
	a := p.Smash()
	b := other.Smash()
	return a.disjuncts[0].Leq(b.disjuncts[0])
}
