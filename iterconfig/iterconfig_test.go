package iterconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func write(t *testing.T, dir, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, configName), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDefaultsWithNoConfig(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if c.Iterator.WideningDelay != defaultConfig.Iterator.WideningDelay {
		t.Fatalf("widening_delay = %d, want default %d", c.Iterator.WideningDelay, defaultConfig.Iterator.WideningDelay)
	}
	if c.Powerset.MaxDisjuncts != defaultConfig.Powerset.MaxDisjuncts {
		t.Fatalf("max_disjuncts = %d, want default %d", c.Powerset.MaxDisjuncts, defaultConfig.Powerset.MaxDisjuncts)
	}
}

// A nested directory's crab.conf wins over an ancestor's for the fields it
// sets, but an unset field still inherits from the ancestor.
func TestNearestConfigWinsFieldByField(t *testing.T) {
	root := t.TempDir()
	write(t, root, "[iterator]\nwidening_delay = 5\nnarrowing_iterations = 9\n")

	sub := filepath.Join(root, "pkg")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	write(t, sub, "[iterator]\nwidening_delay = 1\n")

	c, err := Load(sub)
	if err != nil {
		t.Fatal(err)
	}
	if c.Iterator.WideningDelay != 1 {
		t.Fatalf("widening_delay = %d, want the nearer file's 1", c.Iterator.WideningDelay)
	}
	if c.Iterator.NarrowingIters != 9 {
		t.Fatalf("narrowing_iterations = %d, want inherited 9 from the ancestor", c.Iterator.NarrowingIters)
	}
}

func TestPowersetParamsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "[powerset]\nexact_meet = false\nmax_disjuncts = 7\n")

	c, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	params := c.Powerset.Params()
	if params.ExactMeet {
		t.Fatal("exact_meet should be false")
	}
	if params.MaxDisjuncts != 7 {
		t.Fatalf("max_disjuncts = %d, want 7", params.MaxDisjuncts)
	}
}
