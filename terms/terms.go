// Package terms implements the hash-consed DAG of symbolic terms that backs
// the term-equivalence domain: constants, free variables, and binary
// functor applications, with parent links for normalization and structural
// operations (MapLeq, Generalize) for comparing and anti-unifying terms
// across two independently built tables.
package terms

import (
	"github.com/gretadolcetti/crab/domain"
	"github.com/gretadolcetti/crab/warn"
)

// Kind is the tag of the Const | Var | App sum.
type Kind int

const (
	KindConst Kind = iota
	KindVar
	KindApp
)

func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindVar:
		return "var"
	case KindApp:
		return "app"
	default:
		return "?"
	}
}

// ID is a term's identity within its table. IDs are never reused and are
// only ever compared for equality within the same table: two terms are
// equivalent iff they share an ID, which only holds by construction when
// they come from the same Table.
type ID int

type term struct {
	kind Kind
	n    int64   // KindConst
	op   domain.Op
	a, b ID // KindApp
	depth int
}

// Table is an arena of hash-consed terms plus their reverse (parent) edges.
type Table struct {
	terms      []term
	parents    [][]ID
	constIndex map[int64]ID
	appIndex   map[appKey]ID
}

type appKey struct {
	op   domain.Op
	a, b ID
}

// NewTable returns an empty term table.
func NewTable() *Table {
	return &Table{
		constIndex: map[int64]ID{},
		appIndex:   map[appKey]ID{},
	}
}

// Clone deep-copies t. Lattice operations on the domains built over Table
// must never mutate an operand's table; they clone first.
func (t *Table) Clone() *Table {
	out := &Table{
		terms:      make([]term, len(t.terms)),
		parents:    make([][]ID, len(t.parents)),
		constIndex: make(map[int64]ID, len(t.constIndex)),
		appIndex:   make(map[appKey]ID, len(t.appIndex)),
	}
	copy(out.terms, t.terms)
	for i, ps := range t.parents {
		out.parents[i] = append([]ID{}, ps...)
	}
	for k, v := range t.constIndex {
		out.constIndex[k] = v
	}
	for k, v := range t.appIndex {
		out.appIndex[k] = v
	}
	return out
}

func (t *Table) addParent(child, parent ID) {
	t.parents[child] = append(t.parents[child], parent)
}

func (t *Table) alloc(tm term) ID {
	id := ID(len(t.terms))
	t.terms = append(t.terms, tm)
	t.parents = append(t.parents, nil)
	return id
}

// MakeConst returns the hash-consed ID for Const(n), creating it if absent.
func (t *Table) MakeConst(n int64) ID {
	if id, ok := t.constIndex[n]; ok {
		return id
	}
	id := t.alloc(term{kind: KindConst, n: n, depth: 0})
	t.constIndex[n] = id
	return id
}

// FreshVar allocates a new Var term with no structural sharing: every call
// returns a distinct ID, even for two calls in a row.
func (t *Table) FreshVar() ID {
	return t.alloc(term{kind: KindVar, depth: 0})
}

// FindConst looks up Const(n) without creating it.
func (t *Table) FindConst(n int64) (ID, bool) {
	id, ok := t.constIndex[n]
	return id, ok
}

// FindApp looks up App(op, a, b) without creating it.
func (t *Table) FindApp(op domain.Op, a, b ID) (ID, bool) {
	id, ok := t.appIndex[appKey{op, a, b}]
	return id, ok
}

// ApplyFtor returns the unique ID for App(op, a, b), creating it if absent.
// created reports whether a new term was allocated, which the
// term-equivalence domain uses to decide whether the underlying value
// domain needs to compute a surrogate for it.
func (t *Table) ApplyFtor(op domain.Op, a, b ID) (id ID, created bool) {
	if id, ok := t.FindApp(op, a, b); ok {
		return id, false
	}
	d := 1 + max(t.Depth(a), t.Depth(b))
	id = t.alloc(term{kind: KindApp, op: op, a: a, b: b, depth: d})
	t.appIndex[appKey{op, a, b}] = id
	t.addParent(a, id)
	t.addParent(b, id)
	return id, true
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// checkID aborts with a diagnostic if id does not refer to a term present
// in t. A violation is a programmer bug in a domain built on top of this
// table, never a condition a well-formed analysis can reach.
func (t *Table) checkID(id ID) {
	warn.Invariant(id >= 0 && int(id) < len(t.terms), "terms: id %d is not present in this table", id)
}

// Depth returns 0 for a leaf (Const or Var), 1+max(child depths) for App.
func (t *Table) Depth(id ID) int { t.checkID(id); return t.terms[id].depth }

// Parents returns the terms that reference id as a child.
func (t *Table) Parents(id ID) []ID { t.checkID(id); return t.parents[id] }

// Kind returns id's tag.
func (t *Table) Kind(id ID) Kind { t.checkID(id); return t.terms[id].kind }

// Const returns id's constant value; only valid if Kind(id) == KindConst.
func (t *Table) Const(id ID) int64 {
	warn.Invariant(t.Kind(id) == KindConst, "terms: Const called on non-Const id %d", id)
	return t.terms[id].n
}

// Ftor returns id's functor; only valid if Kind(id) == KindApp.
func (t *Table) Ftor(id ID) domain.Op {
	warn.Invariant(t.Kind(id) == KindApp, "terms: Ftor called on non-App id %d", id)
	return t.terms[id].op
}

// Args returns id's children; only valid if Kind(id) == KindApp.
func (t *Table) Args(id ID) (ID, ID) {
	warn.Invariant(t.Kind(id) == KindApp, "terms: Args called on non-App id %d", id)
	return t.terms[id].a, t.terms[id].b
}

// MapLeq attempts to extend genMap (mapping IDs of other into IDs of t) so
// that the term rooted at tOther in other maps onto the term rooted at
// tMine in t. It returns false if no such extension is structurally
// possible. A Var in other matches anything and gets bound; a bound entry
// must match on a second encounter.
func (t *Table) MapLeq(other *Table, tMine, tOther ID, genMap map[ID]ID) bool {
	if bound, ok := genMap[tOther]; ok {
		return bound == tMine
	}

	switch other.Kind(tOther) {
	case KindVar:
		genMap[tOther] = tMine
		return true
	case KindConst:
		if t.Kind(tMine) != KindConst {
			return false
		}
		if t.Const(tMine) != other.Const(tOther) {
			return false
		}
		genMap[tOther] = tMine
		return true
	case KindApp:
		if t.Kind(tMine) != KindApp {
			return false
		}
		op := t.Ftor(tMine)
		if op != other.Ftor(tOther) {
			return false
		}
		a, b := t.Args(tMine)
		oa, ob := other.Args(tOther)
		if !t.MapLeq(other, a, oa, genMap) {
			return false
		}
		if !t.MapLeq(other, b, ob, genMap) {
			return false
		}
		genMap[tOther] = tMine
		return true
	default:
		return false
	}
}

// PairKey identifies a (mine, other) term pair during generalization, so
// generMap can memoize shared structure.
type PairKey struct {
	A ID // in t (this table, "mine")
	B ID // in the other table
}

// Generalize computes the anti-unification of tA (in t) and tB (in other)
// into out, memoized by generMap so repeated sub-term pairs produce a
// single shared result. Identical Consts and matching-functor Apps recurse
// structurally; anything else becomes a fresh Var in out.
func (t *Table) Generalize(other *Table, tA, tB ID, out *Table, generMap map[PairKey]ID) ID {
	key := PairKey{tA, tB}
	if id, ok := generMap[key]; ok {
		return id
	}

	if t.Kind(tA) == KindConst && other.Kind(tB) == KindConst && t.Const(tA) == other.Const(tB) {
		id := out.MakeConst(t.Const(tA))
		generMap[key] = id
		return id
	}

	if t.Kind(tA) == KindApp && other.Kind(tB) == KindApp && t.Ftor(tA) == other.Ftor(tB) {
		aA, bA := t.Args(tA)
		aB, bB := other.Args(tB)
		outA := t.Generalize(other, aA, aB, out, generMap)
		outB := t.Generalize(other, bA, bB, out, generMap)
		id, _ := out.ApplyFtor(t.Ftor(tA), outA, outB)
		generMap[key] = id
		return id
	}

	id := out.FreshVar()
	generMap[key] = id
	return id
}
