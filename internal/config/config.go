// Package config holds the ambient search knobs, loaded from YAML the
// same way the teacher loads a database.GeneratorConfig: a
// struct-of-knobs decoded with gopkg.in/yaml.v2, with environment
// variables providing defaults a flag can override.
package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Search holds the search loop's tunables, independent of any one
// puzzle. The puzzle's own constraints live in puzzle.Profile.
// `solve` takes its PRNG seed and temperature from its --seed and
// --temperature flags; it does not read the Temperature and Seed
// fields below.
type Search struct {
	// Temperature scales the softmax over mean_descendant_score during
	// selection (spec.md §4.6); higher favors exploration.
	Temperature float64 `yaml:"temperature"`
	// WallClockBudgetSeconds bounds a single `solve` invocation; zero
	// means run until the context is canceled.
	WallClockBudgetSeconds int `yaml:"wall_clock_budget_seconds"`
	// Seed seeds the loop's PRNG for the determinism property (spec.md
	// §8, P7). Zero is a valid seed, not "unset" — callers that want a
	// fresh seed each run should generate one before populating this
	// struct.
	Seed int64 `yaml:"seed"`
	// StoreDSN is the store.Open DSN; defaults to
	// ANAGRAMIST_STORE_DSN, then "sqlite:./anagramist.db".
	StoreDSN string `yaml:"store_dsn"`
	// OracleCachePath is decoded from YAML but nothing in this module
	// reads it; oracle.Cached keeps its memo in process memory only.
	OracleCachePath string `yaml:"oracle_cache_path"`
	// MaxOracleRetries bounds consecutive OracleError retries before
	// `solve` gives up with an error (spec.md §7).
	MaxOracleRetries int `yaml:"max_oracle_retries"`
}

// DefaultSearch returns the reference tunables used by the c1663
// regression fixture and by `solve` when no config file is given.
func DefaultSearch() Search {
	return Search{
		Temperature:      1.0,
		Seed:             1,
		StoreDSN:         storeDSNFromEnv(),
		MaxOracleRetries: 3,
	}
}

const defaultStoreDSN = "sqlite:./anagramist.db"

func storeDSNFromEnv() string {
	if dsn := os.Getenv("ANAGRAMIST_STORE_DSN"); dsn != "" {
		return dsn
	}
	return defaultStoreDSN
}

// LoadSearch reads a Search from a YAML file at path, starting from
// DefaultSearch so an omitted field keeps its default rather than
// zeroing out.
func LoadSearch(path string) (Search, error) {
	s := DefaultSearch()
	data, err := os.ReadFile(path)
	if err != nil {
		return Search{}, err
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Search{}, err
	}
	return s, nil
}
