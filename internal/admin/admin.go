// Package admin implements the inspect/trim/prune/check operations of
// spec.md §6, independent of any CLI framework so cmd/anagramist stays
// a thin formatter. Grounded on the teacher's package boundary between
// database (mechanism) and cmd/* (presentation): every function here
// takes a store.Store and returns plain data, the way
// database.RunDDLs takes a database.Database rather than owning flag
// parsing.
package admin

import (
	"context"
	"math"
	"strconv"

	"github.com/lonnen/anagramist/internal/anaerr"
	"github.com/lonnen/anagramist/internal/sentence"
	"github.com/lonnen/anagramist/internal/store"
	"github.com/lonnen/anagramist/internal/validate"
)

// CandidatesReport is the output of Candidates.
type CandidatesReport struct {
	Demographics   store.Demographics
	TopChildren    []store.NodeRecord
	TopDescendants []store.NodeRecord
}

// Candidates reports child demographics and the top-k children/
// descendants of prefix by score and mean_descendant_score
// respectively (spec.md §6's `candidates` verb).
func Candidates(ctx context.Context, st store.Store, prefix string, k int) (CandidatesReport, error) {
	demo, err := st.ChildrenDemographics(ctx, prefix)
	if err != nil {
		return CandidatesReport{}, err
	}
	topChildren, err := st.TopChildren(ctx, prefix, k)
	if err != nil {
		return CandidatesReport{}, err
	}
	topDescendants, err := st.TopDescendants(ctx, prefix, k)
	if err != nil {
		return CandidatesReport{}, err
	}
	return CandidatesReport{Demographics: demo, TopChildren: topChildren, TopDescendants: topDescendants}, nil
}

// Trim deletes every strict descendant of prefix and optionally
// overwrites prefix's own status (spec.md §6's `--trim`/`-status`
// flags, scenario S5).
func Trim(ctx context.Context, st store.Store, prefix string, newStatus *validate.Status) error {
	return st.Trim(ctx, prefix, newStatus)
}

// CheckRow is one line of `check`'s output: the verdict for a single
// prefix of the checked sentence.
type CheckRow struct {
	Sentence    string
	Status      validate.Status
	Score       float64 // math.Inf(-1) for an invalid prefix, per spec.md §3
	Constraints validate.Constraints
}

// Check evaluates every prefix of s (or only s itself if
// candidateOnly) against v, consulting st for any already-persisted
// score so a previously-scored prefix doesn't silently show 0 (spec.md
// §6's `check` verb, scenarios S3/S4).
func Check(ctx context.Context, st store.Store, v *validate.Validator, s string, candidateOnly bool) ([]CheckRow, error) {
	prefixes := prefixesOf(s)
	if candidateOnly {
		prefixes = prefixes[len(prefixes)-1:]
	}

	rows := make([]CheckRow, 0, len(prefixes))
	for _, p := range prefixes {
		outcome := v.Hard(p)
		row := CheckRow{Sentence: p, Status: outcome.Status, Constraints: v.Check(p)}
		if outcome.Valid {
			if rec, ok, err := st.Get(ctx, p); err == nil && ok {
				row.Score = rec.Score
			}
		} else {
			row.Score = math.Inf(-1)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// prefixesOf returns every non-empty token-prefix of s, in order from
// shortest to longest, ending with s itself.
func prefixesOf(s string) []string {
	toks := sentence.Tokens(s)
	out := make([]string, 0, len(toks))
	for i := range toks {
		out = append(out, sentence.Join(toks[:i+1]))
	}
	return out
}

// Prune implements spec.md §6's `prune` verb: for each word, find every
// stored sentence containing it as a token and trim at the first
// occurrence of that word, per the admin contract that pruning a word
// removes every branch built on top of playing it.
func Prune(ctx context.Context, st store.Store, words []string) error {
	for _, w := range words {
		sentences, err := allSentences(ctx, st)
		if err != nil {
			return err
		}
		for _, sent := range sentences {
			toks := sentence.Tokens(sent)
			for i, t := range toks {
				if t == w {
					trimPoint := sentence.Join(toks[:i+1])
					if err := st.Trim(ctx, trimPoint, nil); err != nil {
						return anaerr.New(anaerr.StoreError, "Prune", err)
					}
					break
				}
			}
		}
	}
	return nil
}

// allSentences walks the materialised tree from the root to enumerate
// every stored sentence. Store doesn't expose a bare "list everything"
// primitive (spec.md §4.5 only names tree-shaped queries), so Prune
// composes ChildrenOf recursively rather than requiring another store
// operation for what is an offline maintenance command, not a hot
// path.
func allSentences(ctx context.Context, st store.Store) ([]string, error) {
	var out []string
	var walk func(string) error
	walk = func(s string) error {
		children, err := st.ChildrenOf(ctx, s)
		if err != nil {
			return err
		}
		for _, c := range children {
			out = append(out, c.Sentence)
			if err := walk(c.Sentence); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(""); err != nil {
		return nil, err
	}
	return out, nil
}

// JSONTuple renders a CheckRow as the [sentence, c1, c2, c3, c4, score,
// status] tuple of spec.md §6. score is the literal string
// "-Infinity" for an invalid prefix, since encoding/json cannot
// round-trip a bare IEEE infinity.
func (r CheckRow) JSONTuple() []any {
	scoreField := any(r.Score)
	if math.IsInf(r.Score, -1) {
		scoreField = "-Infinity"
	}
	return []any{
		r.Sentence,
		r.Constraints.Contains,
		r.Constraints.VowelFloor,
		r.Constraints.LongestWordFeasible,
		r.Constraints.PunctuationOrder,
		scoreField,
		int(r.Status),
	}
}

// FormatRow renders a CheckRow in the plain "(status, score, sentence)"
// form of spec.md §6's non-JSON `check` output.
func FormatRow(r CheckRow) string {
	score := "-Infinity"
	if !math.IsInf(r.Score, -1) {
		score = strconv.FormatFloat(r.Score, 'g', -1, 64)
	}
	return "(" + strconv.Itoa(int(r.Status)) + ", " + score + ", " + r.Sentence + ")"
}
