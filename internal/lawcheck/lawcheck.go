// Package lawcheck holds the universal lattice-law checks every lattice
// must satisfy, generic over any domain.Value implementation, so every
// concrete domain and combinator in this module can exercise the same
// checks instead of duplicating them.
package lawcheck

import (
	"testing"

	"github.com/gretadolcetti/crab/domain"
)

// Laws checks the universal lattice laws for a and b: join/meet bounds,
// absorption with top/bottom, idempotence, and leq/join consistency.
func Laws[D domain.Value[D]](t *testing.T, a, b D) {
	t.Helper()
	var zero D
	top, bot := zero.Top(), zero.Bottom()

	join := a.Join(b)
	if !a.Leq(join) {
		t.Errorf("a !<= a join b")
	}
	if !b.Leq(join) {
		t.Errorf("b !<= a join b")
	}

	meet := a.Meet(b)
	if !meet.Leq(a) {
		t.Errorf("a meet b !<= a")
	}
	if !meet.Leq(b) {
		t.Errorf("a meet b !<= b")
	}

	if !a.Join(bot).Leq(a) || !a.Leq(a.Join(bot)) {
		t.Errorf("a join bottom != a")
	}
	if !a.Meet(top).Leq(a) || !a.Leq(a.Meet(top)) {
		t.Errorf("a meet top != a")
	}
	if !a.Join(top).Leq(top) || !top.Leq(a.Join(top)) {
		t.Errorf("a join top != top")
	}
	if !a.Meet(bot).Leq(bot) || !bot.Leq(a.Meet(bot)) {
		t.Errorf("a meet bottom != bottom")
	}

	if !a.Join(a).Leq(a) || !a.Leq(a.Join(a)) {
		t.Errorf("a join a != a")
	}
	if !a.Meet(a).Leq(a) || !a.Leq(a.Meet(a)) {
		t.Errorf("a meet a != a")
	}

	if a.Leq(b) {
		ab := a.Join(b)
		if !ab.Leq(b) || !b.Leq(ab) {
			t.Errorf("a leq b but a join b != b")
		}
	}
}
