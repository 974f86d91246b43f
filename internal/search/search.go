// Package search implements the selection/expansion/backprop loop of
// spec.md §4.6: the Monte-Carlo-style driver that walks the logical
// tree of partial sentences, gated by the validator and scored by an
// oracle, persisting results through a store.Store.
//
// Grounded on the teacher's top-level orchestration style (cli.go /
// sqldef.go): a single Run loop owning its collaborators, logging one
// structured line per iteration via log/slog the way the teacher's
// generator logs one line per applied DDL statement.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/lonnen/anagramist/internal/anaerr"
	"github.com/lonnen/anagramist/internal/oracle"
	"github.com/lonnen/anagramist/internal/sentence"
	"github.com/lonnen/anagramist/internal/store"
	"github.com/lonnen/anagramist/internal/validate"
	"github.com/lonnen/anagramist/internal/vocab"
)

// Loop drives the search. Every field is either immutable after
// construction (Vocab, Validator, Oracle) or owned exclusively by this
// loop (RNG); the Store is the sole resource multiple processes may
// share, per spec.md §5.
type Loop struct {
	Store       store.Store
	Vocab       *vocab.Vocabulary
	Validator   *validate.Validator
	Oracle      oracle.Oracle
	RNG         *rand.Rand
	Temperature float64
	// MaxOracleRetries bounds consecutive OracleError retries before
	// the process gives up (spec.md §7).
	MaxOracleRetries int
	Log              *slog.Logger
}

// New builds a Loop with a deterministic PRNG seeded from seed,
// satisfying spec.md §8's replay/determinism property (P7).
func New(st store.Store, v *vocab.Vocabulary, validator *validate.Validator, o oracle.Oracle, seed int64, temperature float64) *Loop {
	return &Loop{
		Store:            st,
		Vocab:            v,
		Validator:        validator,
		Oracle:           o,
		RNG:              rand.New(rand.NewSource(seed)),
		Temperature:      temperature,
		MaxOracleRetries: 3,
		Log:              slog.Default(),
	}
}

// Result is returned by Run when a winning candidate is found.
type Result struct {
	Sentence string
	Score    float64
}

// Run executes iterations until a winning candidate is recorded, the
// search is exhausted (no node has a potential unexplored child), or
// ctx is canceled (spec.md §5's cooperative cancellation).
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	consecutiveOracleFailures := 0
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, exhausted, err := l.iterate(ctx)
		if err != nil {
			if errors.Is(err, anaerr.OracleError) {
				consecutiveOracleFailures++
				l.Log.Warn("oracle call failed, retrying with fresh selection", "attempt", consecutiveOracleFailures, "error", err)
				if consecutiveOracleFailures >= l.MaxOracleRetries {
					return nil, fmt.Errorf("search: %d consecutive oracle failures: %w", consecutiveOracleFailures, err)
				}
				continue
			}
			return nil, err
		}
		consecutiveOracleFailures = 0

		if result != nil {
			l.Log.Info("solution found", "sentence", result.Sentence, "score", result.Score)
			return result, nil
		}
		if exhausted {
			l.Log.Info("search exhausted: no node has a potential unexplored child")
			return nil, nil
		}
	}
}

// iterate runs one selection+expansion+backprop cycle.
func (l *Loop) iterate(ctx context.Context) (result *Result, exhausted bool, err error) {
	start, ok, err := l.selectStart(ctx)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, true, nil
	}

	path, terminal, hardValid, err := l.rollout(ctx, start)
	if err != nil {
		return nil, false, err
	}

	l.Log.Debug("roll-out complete", "start", start, "terminal", terminal, "steps", len(path), "hard_valid", hardValid)

	if hardValid {
		score, err := l.Oracle.Score(ctx, terminal)
		if err != nil {
			return nil, false, anaerr.New(anaerr.OracleError, "backprop.terminal", err)
		}
		if err := l.writeSolved(ctx, path, terminal, score); err != nil {
			return nil, false, err
		}
		return &Result{Sentence: terminal, Score: score}, false, nil
	}

	if err := l.handleFailedRollout(ctx, path, terminal); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

// selectStart implements spec.md §4.6 step 1–2: sample a status=open
// node weighted by softmax(temperature*mean_descendant_score), among
// nodes with a potential unexplored child. store.SampleWeighted
// already performs the weighted draw; this loop layers the
// unexplored-child filter on top and falls back to an exhaustive scan
// to distinguish "unlucky draw" from genuine exhaustion.
func (l *Loop) selectStart(ctx context.Context) (string, bool, error) {
	const sampleAttempts = 32
	for i := 0; i < sampleAttempts; i++ {
		candidate, ok, err := l.Store.SampleWeighted(ctx, []validate.Status{validate.StatusOpen}, l.Temperature, l.RNG)
		if err != nil {
			return "", false, anaerr.New(anaerr.StoreError, "selectStart", err)
		}
		if !ok {
			break // store has no open nodes yet; bootstrap from root below
		}
		eligible, err := l.hasUnexploredChild(ctx, candidate)
		if err != nil {
			return "", false, err
		}
		if eligible {
			return candidate, true, nil
		}
	}

	rootEligible, err := l.hasUnexploredChild(ctx, "")
	if err != nil {
		return "", false, err
	}
	if rootEligible {
		if _, ok, err := l.Store.Get(ctx, ""); err != nil {
			return "", false, anaerr.New(anaerr.StoreError, "selectStart", err)
		} else if !ok {
			return "", true, nil
		}
	}

	return l.scanForEligible(ctx, "")
}

// scanForEligible walks the materialised tree from root looking for
// any status=open node with a potential unexplored child, used only
// once repeated weighted sampling misses, to tell genuine exhaustion
// apart from bad luck.
func (l *Loop) scanForEligible(ctx context.Context, node string) (string, bool, error) {
	eligible, err := l.hasUnexploredChild(ctx, node)
	if err != nil {
		return "", false, err
	}
	if eligible {
		rec, ok, err := l.Store.Get(ctx, node)
		if err != nil {
			return "", false, anaerr.New(anaerr.StoreError, "scanForEligible", err)
		}
		if node == "" || (ok && rec.Status == validate.StatusOpen) {
			return node, true, nil
		}
	}

	children, err := l.Store.ChildrenOf(ctx, node)
	if err != nil {
		return "", false, anaerr.New(anaerr.StoreError, "scanForEligible", err)
	}
	for _, c := range children {
		if c.Status != validate.StatusOpen {
			continue
		}
		if found, ok, err := l.scanForEligible(ctx, c.Sentence); err != nil {
			return "", false, err
		} else if ok {
			return found, ok, nil
		}
	}
	return "", false, nil
}

func (l *Loop) hasUnexploredChild(ctx context.Context, s string) (bool, error) {
	playable := l.Vocab.Playable(l.Validator.Remaining(s))
	children, err := l.Store.ChildrenOf(ctx, s)
	if err != nil {
		return false, anaerr.New(anaerr.StoreError, "hasUnexploredChild", err)
	}
	return len(playable) > len(children), nil
}

// rollout implements spec.md §4.6 steps 3–5: a uniform random walk
// gated by soft validation, returning the full chain visited
// (including start) and the chain's terminal node. hardValid reports
// whether terminal is a winning, hard-validated completion.
func (l *Loop) rollout(ctx context.Context, start string) (path []string, terminal string, hardValid bool, err error) {
	path = []string{start}
	s := start
	for {
		select {
		case <-ctx.Done():
			return nil, "", false, ctx.Err()
		default:
		}

		b := l.Validator.Remaining(s)
		if b.IsEmpty() {
			outcome := l.Validator.Hard(s)
			return path, s, outcome.Valid && outcome.Terminal, nil
		}

		playable := l.Vocab.Playable(b)
		if len(playable) == 0 {
			if err := l.markInvalid(ctx, s); err != nil {
				return nil, "", false, err
			}
			return path, s, false, nil
		}

		next := playable[l.RNG.Intn(len(playable))]
		candidate := sentence.Append(s, string(next))

		if outcome := l.Validator.Soft(candidate); !outcome.Valid {
			if err := l.markInvalid(ctx, candidate); err != nil {
				return nil, "", false, err
			}
			return append(path, candidate), candidate, false, nil
		}

		s = candidate
		path = append(path, s)
	}
}

// markInvalid writes a status=1 placeholder with score=-Inf (spec.md
// §3: "-∞ denotes invalid"), so no further oracle call is spent on a
// sentence the validator has already condemned, and the -Inf score
// carries zero weight in any future softmax selection over its
// ancestors. Visits and MeanDescendantScore are left at zero: the
// backprop pass that follows walks this same node and performs the
// one true running-mean update, exactly as it does for a brand-new
// winning terminal. Setting them here too would double-count this
// node's own visit and divide -Inf by -Inf into NaN.
func (l *Loop) markInvalid(ctx context.Context, s string) error {
	if err := l.Store.Put(ctx, store.NodeRecord{
		Sentence:        s,
		Score:           math.Inf(-1),
		CumulativeScore: math.Inf(-1),
		Status:          validate.StatusHardInvalid,
	}); err != nil {
		return anaerr.New(anaerr.StoreError, "markInvalid", err)
	}
	return nil
}

// writeSolved persists the winning path per spec.md §4.6 step 6: the
// terminal gets status=0 and its real oracle score, then every node
// from terminal back to the root is backprop-updated exactly as a
// normal roll-out would be, so the search state remains well-formed if
// the caller keeps running after a win (e.g. to enumerate alternate
// solutions via `prune`).
func (l *Loop) writeSolved(ctx context.Context, path []string, terminal string, score float64) error {
	if err := l.materialize(ctx, path, terminal, score, validate.StatusOpen); err != nil {
		return err
	}
	return l.backprop(ctx, path, score)
}

// handleFailedRollout persists a losing roll-out: the invalid leaf
// (already written by markInvalid with score=-Inf) anchors the chain,
// every other new node on path is scored and linked to its parent's
// cumulative, and then every node from the leaf back to the root folds
// the leaf's score into its running mean_descendant_score.
func (l *Loop) handleFailedRollout(ctx context.Context, path []string, terminal string) error {
	if err := l.materialize(ctx, path, terminal, math.Inf(-1), validate.StatusHardInvalid); err != nil {
		return err
	}
	return l.backprop(ctx, path, math.Inf(-1))
}

// materialize ensures every node in path exists in the store,
// computing Score and CumulativeScore top-down (parent before child,
// per invariant I2) for whichever nodes are new. terminal is assigned
// terminalStatus/terminalScore directly instead of an oracle call: for
// a win the caller already has the real score; for a loss the leaf was
// already written by markInvalid and is skipped here.
func (l *Loop) materialize(ctx context.Context, path []string, terminal string, terminalScore float64, terminalStatus validate.Status) error {
	cumulative := 0.0
	if start := path[0]; start != "" {
		rec, ok, err := l.Store.Get(ctx, start)
		if err != nil {
			return anaerr.New(anaerr.StoreError, "materialize", err)
		}
		if ok {
			cumulative = rec.CumulativeScore
		}
	}

	for _, n := range path {
		if rec, ok, err := l.Store.Get(ctx, n); err != nil {
			return anaerr.New(anaerr.StoreError, "materialize", err)
		} else if ok {
			cumulative = rec.CumulativeScore
			continue // already materialised
		}

		if n == terminal {
			cumulative += terminalScore
			if terminalStatus == validate.StatusHardInvalid {
				continue // markInvalid already wrote this row
			}
			if err := l.Store.Put(ctx, store.NodeRecord{
				Sentence:        n,
				Score:           terminalScore,
				CumulativeScore: cumulative,
				Status:          terminalStatus,
			}); err != nil {
				return anaerr.New(anaerr.StoreError, "materialize", err)
			}
			continue
		}

		score, err := l.Oracle.Score(ctx, n)
		if err != nil {
			return anaerr.New(anaerr.OracleError, "materialize", err)
		}
		cumulative += score
		if err := l.Store.Put(ctx, store.NodeRecord{
			Sentence:        n,
			Score:           score,
			CumulativeScore: cumulative,
			Status:          validate.StatusOpen,
		}); err != nil {
			return anaerr.New(anaerr.StoreError, "materialize", err)
		}
	}
	return nil
}

// backprop implements spec.md §4.6 step 7b–d: walking from the roll-out
// terminal back to the root, increment visits and fold terminalScore
// into mean_descendant_score as a running mean. Brand-new nodes (just
// written by materialize with Visits=0) land on mean=terminalScore
// exactly, since a running mean seeded from zero visits collapses to
// the first sample.
func (l *Loop) backprop(ctx context.Context, path []string, terminalScore float64) error {
	var nodes []string
	for i := len(path) - 1; i >= 0; i-- {
		nodes = append(nodes, path[i])
	}
	for n, ok := sentence.Parent(path[0]); ok; n, ok = sentence.Parent(n) {
		nodes = append(nodes, n)
	}

	for _, n := range nodes {
		rec, found, err := l.Store.Get(ctx, n)
		if err != nil {
			return anaerr.New(anaerr.StoreError, "backprop", err)
		}
		if !found {
			return anaerr.New(anaerr.InvariantViolation, "backprop", fmt.Errorf("node %q missing from store during backprop", n))
		}
		rec.Visits++
		rec.MeanDescendantScore += (terminalScore - rec.MeanDescendantScore) / float64(rec.Visits)
		if err := l.Store.Put(ctx, rec); err != nil {
			return anaerr.New(anaerr.StoreError, "backprop", err)
		}
	}
	return nil
}
