package termdomain

import (
	"sync/atomic"

	"github.com/gretadolcetti/crab/domain"
)

// tagBits is how many low bits of a surrogate Var are given to the
// allocator's monotonic counter; the remaining high bits carry the tag.
// Two allocators with different tags can never hand out the same Var, no
// matter how many surrogates either has already allocated.
const tagBits = 40

var nextTag int64

func freshTag() int64 {
	return atomic.AddInt64(&nextTag, 1)
}

// Alloc is a monotonically increasing surrogate-variable stream, tagged so
// that combining two domain values (join, widening, leq) can mint a
// derived allocator whose surrogates cannot collide with either ancestor's.
type Alloc struct {
	tag     int64
	counter int64
}

// NewAlloc returns a fresh allocator with a globally unique tag.
func NewAlloc() Alloc {
	return Alloc{tag: freshTag()}
}

// Pair returns a fresh allocator for a value derived from a and b (a join,
// widening, or leq comparison). Its tag is unrelated to either ancestor's,
// so surrogates it draws are disjoint from anything either a or b has ever
// allocated, regardless of how their counters compare.
func Pair(a, b Alloc) Alloc {
	_ = a
	_ = b
	return NewAlloc()
}

// Next returns the next surrogate variable in the stream and the advanced
// allocator; Alloc is a value type, so callers must keep the returned copy.
func (a Alloc) Next() (domain.Var, Alloc) {
	a.counter++
	v := domain.Var(a.tag<<tagBits | a.counter)
	return v, a
}
