package wto

import (
	"testing"

	"github.com/gretadolcetti/crab/internal/cfgtest"
)

// entry -> head; head -> body -> head; head -> exit.
func loopGraph() *cfgtest.Graph {
	return cfgtest.New(0).Edge(0, 1).Edge(1, 2).Edge(2, 1).Edge(1, 3)
}

func TestBuildIdentifiesLoopHead(t *testing.T) {
	g := loopGraph()
	w := Build[int](g)

	var head int
	var foundCycle bool
	Dispatch(w.Components(), visitFns{
		vertex: func(n int) {},
		cycle: func(c *Cycle[int]) {
			foundCycle = true
			head = c.Head
			Dispatch(c.Components, visitFns{vertex: func(n int) {}, cycle: func(c *Cycle[int]) {}})
		},
	})

	if !foundCycle {
		t.Fatal("expected a cycle in the WTO")
	}
	if head != 1 {
		t.Fatalf("cycle head = %d, want 1 (the loop head)", head)
	}
}

func TestNestingDistinguishesBackEdges(t *testing.T) {
	g := loopGraph()
	w := Build[int](g)

	// Node 2 (the body) must be nested under head 1; node 3 (the exit)
	// must not be.
	if got := w.Nesting(2); len(got) != 1 || got[0] != 1 {
		t.Fatalf("nesting(body) = %v, want [1]", got)
	}
	if got := w.Nesting(3); len(got) != 0 {
		t.Fatalf("nesting(exit) = %v, want []", got)
	}

	bodyNesting := w.Nesting(2)
	headNesting := w.Nesting(1)
	if !bodyNesting.GT(headNesting) {
		t.Fatal("nesting(body) should be strictly more nested than nesting(head)")
	}
	if headNesting.GT(bodyNesting) {
		t.Fatal("nesting(head) should not be more nested than nesting(body)")
	}
}

type visitFns struct {
	vertex func(n int)
	cycle  func(c *Cycle[int])
}

func (v visitFns) VisitVertex(n int)      { v.vertex(n) }
func (v visitFns) VisitCycle(c *Cycle[int]) { v.cycle(c) }
