package fixpoint

import (
	"testing"

	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/internal/cfgtest"
	"github.com/gretadolcetti/crab/intervals"
	"github.com/gretadolcetti/crab/wto"
)

const varX domain.Var = 1

// 0 (x := 0) -> 1 (head) -> 2 (x := x+1) -> 1 ; 1 -> 3 (exit)
func loopCFG() *cfgtest.Graph {
	return cfgtest.New(0).Edge(0, 1).Edge(1, 2).Edge(2, 1).Edge(1, 3)
}

func TestInterleavedFixpointWidensLoopHead(t *testing.T) {
	g := loopCFG()
	w := wto.Build[int](g)

	pre := map[int]intervals.State{}
	post := map[int]intervals.State{}

	analyze := func(n int, in intervals.State) intervals.State {
		switch n {
		case 0:
			return in.Assign(varX, domain.Const(0))
		case 2:
			return in.ApplyImm(domain.OpAdd, varX, varX, 1)
		default:
			return in
		}
	}

	it := New[int, intervals.State](g, w, Hooks[int, intervals.State]{
		Analyze:     analyze,
		ProcessPre:  func(n int, v intervals.State) { pre[n] = v },
		ProcessPost: func(n int, v intervals.State) { post[n] = v },
	}, Thresholds{Widening: 1, Narrowing: 2})

	it.Run(intervals.State{}.Top())

	head := pre[1]
	x := head.Get(varX)
	if x.Lo == nil || x.Lo.Int64() != 0 {
		t.Fatalf("pre(head)[x].Lo = %v, want 0", x.Lo)
	}
	if x.Hi != nil {
		t.Fatalf("pre(head)[x].Hi = %v, want +inf", x.Hi)
	}

	exit := pre[3]
	ex := exit.Get(varX)
	if ex.Lo == nil || ex.Lo.Int64() != 0 {
		t.Fatalf("pre(exit)[x].Lo = %v, want 0", ex.Lo)
	}
}
