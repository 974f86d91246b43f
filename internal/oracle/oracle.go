// Package oracle defines the scoring contract the search loop consults
// at backprop time. The core never depends on any model-specific
// behavior: an Oracle is a pure function from a canonical sentence to a
// real number in (-inf, 0], more negative meaning less likely.
//
// A production deployment wires in a neural scorer (a causal language
// model summing per-word log-probabilities, per spec.md §4.3) as a
// collaborator satisfying this interface; that implementation lives
// outside this module. Only the contract and two reference
// implementations used by the test suite ship here.
package oracle

import "context"

// Oracle scores a canonical sentence. For a fixed Oracle configuration,
// Score must be deterministic: identical input yields a bit-identical
// result within one process, and a documented tolerance across
// processes.
type Oracle interface {
	Score(ctx context.Context, sentence string) (float64, error)
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, sentence string) (float64, error)

// Score implements Oracle.
func (f Func) Score(ctx context.Context, sentence string) (float64, error) {
	return f(ctx, sentence)
}
