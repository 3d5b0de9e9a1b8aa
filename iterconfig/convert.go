package iterconfig

import (
	"github.com/gretadolcetti/crab/fixpoint"
	"github.com/gretadolcetti/crab/powerset"
)

// Thresholds converts the loaded iterator settings into fixpoint.Thresholds.
func (c IteratorConfig) Thresholds() fixpoint.Thresholds {
	return fixpoint.Thresholds{
		Widening:  c.WideningDelay,
		Narrowing: c.NarrowingIters,
		Values:    c.WideningThresholds,
	}
}

// Params converts the loaded powerset settings into powerset.Params.
func (c PowersetConfig) Params() powerset.Params {
	return powerset.Params{ExactMeet: c.ExactMeet, MaxDisjuncts: c.MaxDisjuncts}
}
