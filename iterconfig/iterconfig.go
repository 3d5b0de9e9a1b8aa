// Package iterconfig loads the fixpoint iterator's thresholds and the
// powerset combinator's parameters from a TOML file, walking up from a
// starting directory the same way the surrounding tooling resolves any
// other project-local configuration: the nearest file wins, and any field
// it leaves unset inherits from the next file up, ending at a built-in
// default.
package iterconfig

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds every operator-tunable knob: the iterator's phase bounds
// and the powerset's disjunction parameters.
type Config struct {
	Iterator IteratorConfig `toml:"iterator"`
	Powerset PowersetConfig `toml:"powerset"`
}

// IteratorConfig mirrors fixpoint.Thresholds; it is kept as its own type
// so TOML field names can stay snake_case without leaking into the Go API.
type IteratorConfig struct {
	WideningDelay    int     `toml:"widening_delay"`
	NarrowingIters   int     `toml:"narrowing_iterations"`
	WideningThresholds []int64 `toml:"widening_thresholds"`
}

// PowersetConfig mirrors powerset.Params.
type PowersetConfig struct {
	ExactMeet    bool `toml:"exact_meet"`
	MaxDisjuncts int  `toml:"max_disjuncts"`
}

var defaultConfig = Config{
	Iterator: IteratorConfig{WideningDelay: 2, NarrowingIters: 2},
	Powerset: PowersetConfig{ExactMeet: true, MaxDisjuncts: 4},
}

const configName = "crab.conf"

type loaded struct {
	cfg  Config
	meta toml.MetaData
}

func (c loaded) merge(o loaded) loaded {
	if o.meta.IsDefined("iterator", "widening_delay") {
		c.cfg.Iterator.WideningDelay = o.cfg.Iterator.WideningDelay
	}
	if o.meta.IsDefined("iterator", "narrowing_iterations") {
		c.cfg.Iterator.NarrowingIters = o.cfg.Iterator.NarrowingIters
	}
	if o.meta.IsDefined("iterator", "widening_thresholds") {
		c.cfg.Iterator.WideningThresholds = o.cfg.Iterator.WideningThresholds
	}
	if o.meta.IsDefined("powerset", "exact_meet") {
		c.cfg.Powerset.ExactMeet = o.cfg.Powerset.ExactMeet
	}
	if o.meta.IsDefined("powerset", "max_disjuncts") {
		c.cfg.Powerset.MaxDisjuncts = o.cfg.Powerset.MaxDisjuncts
	}
	return c
}

func parseConfigs(dir string) ([]loaded, error) {
	var out []loaded
	for dir != "" {
		f, err := os.Open(filepath.Join(dir, configName))
		if os.IsNotExist(err) {
			ndir := filepath.Dir(dir)
			if ndir == dir {
				break
			}
			dir = ndir
			continue
		}
		if err != nil {
			return nil, err
		}
		var cfg Config
		meta, err := toml.DecodeReader(f, &cfg)
		f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, loaded{cfg, meta})
		ndir := filepath.Dir(dir)
		if ndir == dir {
			break
		}
		dir = ndir
	}
	out = append(out, loaded{cfg: defaultConfig})

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// Load walks up from dir looking for crab.conf, merging every file it
// finds (nearest wins) on top of the built-in default.
func Load(dir string) (Config, error) {
	layers, err := parseConfigs(dir)
	if err != nil {
		return Config{}, err
	}
	conf := layers[0]
	for _, l := range layers[1:] {
		conf = conf.merge(l)
	}
	return conf.cfg, nil
}
