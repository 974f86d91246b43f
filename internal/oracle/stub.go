package oracle

import "context"

// Stub is the reference oracle used throughout the test suite
// (spec.md §8's "stub oracle returning -len(sentence)"). It is
// deterministic and allocation-free.
type Stub struct{}

// Score returns the negative length of sentence in runes.
func (Stub) Score(_ context.Context, sentence string) (float64, error) {
	return -float64(len([]rune(sentence))), nil
}

// Constant is a stub oracle that always returns the same score,
// regardless of sentence. Used by scenario S6 (spec.md §8): with a
// constant oracle, mean_descendant_score of any node must equal that
// constant after any number of roll-outs.
type Constant float64

// Score implements Oracle.
func (c Constant) Score(context.Context, string) (float64, error) {
	return float64(c), nil
}
