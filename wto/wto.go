// Package wto builds a weak topological ordering of a CFG using Bourdoncle's
// algorithm: a single DFS that partitions the graph into a nested sequence
// of vertices and cycles, each cycle tagged with its head. The fixpoint
// iterator uses the resulting structure to decide where to widen and
// narrow, and Nesting to tell a back edge from one that merely re-enters a
// region from the outside.
package wto

import (
	"math"

	"github.com/gretadolcetti/crab/domain"
)

// Component is either a Vertex or a *Cycle. It is a closed tagged union by
// convention, not by interface method: callers switch on the concrete type.
type Component[N comparable] interface {
	component()
}

// Vertex wraps a single CFG node that is not part of any cycle it doesn't
// already belong to by virtue of an enclosing Cycle.
type Vertex[N comparable] struct {
	Node N
}

func (Vertex[N]) component() {}

// Cycle is a strongly connected region with a designated head and the
// sequence of components nested inside it, in WTO order. The head itself is
// not repeated inside Components.
type Cycle[N comparable] struct {
	Head       N
	Components []Component[N]
}

func (*Cycle[N]) component() {}

// Visitor is notified of each component as Wto.Accept walks the top-level
// sequence. A VisitCycle implementation that wants to descend into the
// cycle's body calls Dispatch on c.Components itself; the Cycle does not
// re-enter automatically.
type Visitor[N comparable] interface {
	VisitVertex(n N)
	VisitCycle(c *Cycle[N])
}

// Dispatch calls v.VisitVertex or v.VisitCycle for each component of cs, in
// order. Both Wto.Accept and a typical VisitCycle recursing into its own
// body call this.
func Dispatch[N comparable](cs []Component[N], v Visitor[N]) {
	for _, c := range cs {
		switch t := c.(type) {
		case Vertex[N]:
			v.VisitVertex(t.Node)
		case *Cycle[N]:
			v.VisitCycle(t)
		default:
			panic("wto: unhandled component type")
		}
	}
}

// Nesting is the sequence of cycle heads containing a node, outermost first.
// A node's own nesting never includes a head for which the node itself is
// that head.
type Nesting[N comparable] []N

// GT reports whether n is strictly more nested than other: other's head
// sequence is a proper prefix of n's.
func (n Nesting[N]) GT(other Nesting[N]) bool {
	if len(n) <= len(other) {
		return false
	}
	for i, h := range other {
		if n[i] != h {
			return false
		}
	}
	return true
}

// Wto is a built weak topological ordering over a fixed graph.
type Wto[N comparable] struct {
	components []Component[N]
	nesting    map[N]Nesting[N]
}

// Accept walks the top-level component sequence in WTO order.
func (w *Wto[N]) Accept(v Visitor[N]) { Dispatch(w.components, v) }

// Components exposes the top-level sequence directly, for callers (such as
// the fixpoint iterator) that want to dispatch without allocating a
// Visitor value per call.
func (w *Wto[N]) Components() []Component[N] { return w.components }

// Nesting returns n's containing cycle heads, outermost first. It is empty
// (length 0) if n is not inside any cycle, and nil if n was never reached
// from the entry.
func (w *Wto[N]) Nesting(n N) Nesting[N] { return w.nesting[n] }

// Build runs Bourdoncle's algorithm over g and returns its WTO.
func Build[N comparable](g domain.Graph[N]) *Wto[N] {
	b := &builder[N]{
		g:       g,
		num:     map[N]int{},
		nesting: map[N]Nesting[N]{},
	}
	var top []Component[N]
	b.visit(g.Entry(), nil, &top)
	reverse(top)
	return &Wto[N]{components: top, nesting: b.nesting}
}

type builder[N comparable] struct {
	g       domain.Graph[N]
	num     map[N]int
	dfn     int
	stack   []N
	nesting map[N]Nesting[N]
}

// visit is Bourdoncle's visit function. ctx is the chain of cycle heads
// enclosing v, outermost first; it does not include v. It returns v's DFN
// head, the minimum DFN reachable from v on the stack.
func (b *builder[N]) visit(v N, ctx Nesting[N], partition *[]Component[N]) int {
	b.push(v)
	b.dfn++
	b.num[v] = b.dfn
	head := b.num[v]
	loop := false

	for _, w := range b.g.Successors(v) {
		var min int
		if b.num[w] == 0 {
			min = b.visit(w, ctx, partition)
		} else {
			min = b.num[w]
		}
		if min <= head {
			head = min
			loop = true
		}
	}

	if head == b.num[v] {
		b.num[v] = math.MaxInt
		w := b.pop()
		if loop {
			for w != v {
				b.num[w] = 0
				w = b.pop()
			}
			b.component(v, ctx, partition)
		} else {
			b.nesting[v] = append(Nesting[N]{}, ctx...)
			*partition = append(*partition, Vertex[N]{Node: v})
		}
	}
	return head
}

// component builds the Cycle headed at v: every node reachable from v
// without leaving the strongly connected region discovered by visit.
func (b *builder[N]) component(v N, ctx Nesting[N], partition *[]Component[N]) {
	b.nesting[v] = append(Nesting[N]{}, ctx...)
	innerCtx := append(append(Nesting[N]{}, ctx...), v)

	var inner []Component[N]
	for _, w := range b.g.Successors(v) {
		if b.num[w] == 0 {
			b.visit(w, innerCtx, &inner)
		}
	}
	reverse(inner)
	*partition = append(*partition, &Cycle[N]{Head: v, Components: inner})
}

func (b *builder[N]) push(v N) { b.stack = append(b.stack, v) }

func (b *builder[N]) pop() N {
	n := len(b.stack) - 1
	v := b.stack[n]
	b.stack = b.stack[:n]
	return v
}

// reverse fixes up the order components were discovered in (last finished
// first, because component roots are only closed off once every successor
// has been explored) into WTO order. Cycle bodies are reversed where they
// are built, in component.
func reverse[N comparable](cs []Component[N]) {
	for i, j := 0, len(cs)-1; i < j; i, j = i+1, j-1 {
		cs[i], cs[j] = cs[j], cs[i]
	}
}
