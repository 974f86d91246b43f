// Package vocab holds the fixed token set a puzzle is allowed to play
// from, and answers the search loop's one hot-path question: "which
// tokens are still playable given this remaining bank?"
package vocab

import (
	"sort"

	"github.com/lonnen/anagramist/internal/bank"
)

// Token is a single playable unit: either a dictionary word (which may
// contain ASCII apostrophes) or a single punctuation character.
type Token string

// Vocabulary is an immutable set of Tokens, loaded once at process
// start. Reading a token list from disk is a collaborator concern
// (cmd/anagramist); this package only indexes an already-decided list.
type Vocabulary struct {
	tokens    []Token
	signature map[Token]bank.Bank
	set       map[Token]struct{}
	// buckets indexes tokens by their rarest letter (the letter with
	// the fewest tokens requiring it); rarest maps each token to that
	// letter, which Playable uses to screen tokens cheaply.
	buckets map[rune][]Token
	rarest  map[Token]rune
}

// New indexes tokens into a Vocabulary. Duplicate tokens are collapsed.
func New(tokens []Token) *Vocabulary {
	v := &Vocabulary{
		signature: make(map[Token]bank.Bank, len(tokens)),
		set:       make(map[Token]struct{}, len(tokens)),
	}
	seen := make(map[Token]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		v.tokens = append(v.tokens, t)
		v.set[t] = struct{}{}
		v.signature[t] = bank.New(string(t))
	}
	// Sort for deterministic iteration order (spec.md §4.2: Playable's
	// order is implementation-defined but must be deterministic given
	// identical inputs).
	sort.Slice(v.tokens, func(i, j int) bool { return v.tokens[i] < v.tokens[j] })

	letterFreq := make(map[rune]int)
	for _, t := range v.tokens {
		for r := range runeSet(string(t)) {
			letterFreq[r]++
		}
	}
	v.buckets = make(map[rune][]Token)
	v.rarest = make(map[Token]rune, len(v.tokens))
	for _, t := range v.tokens {
		rarest, found := rune(0), false
		best := int(^uint(0) >> 1) // max int
		for r := range runeSet(string(t)) {
			if f := letterFreq[r]; !found || f < best {
				rarest, best, found = r, f, true
			}
		}
		if found {
			v.buckets[rarest] = append(v.buckets[rarest], t)
			v.rarest[t] = rarest
		}
	}
	return v
}

func runeSet(s string) map[rune]struct{} {
	m := make(map[rune]struct{})
	for _, r := range s {
		m[r] = struct{}{}
	}
	return m
}

// All returns every token in the vocabulary, in deterministic order.
func (v *Vocabulary) All() []Token {
	out := make([]Token, len(v.tokens))
	copy(out, v.tokens)
	return out
}

// Contains reports whether token is a member of the vocabulary.
func (v *Vocabulary) Contains(t Token) bool {
	_, ok := v.set[t]
	return ok
}

// Playable returns every token whose multiset is a subset of b, in
// deterministic order (sorted lexically). It scans every token, first
// dropping those whose rarest letter is absent from b, and runs the
// full multiset test only on the rest. Every non-empty token, including
// a punctuation token, has a rarest letter.
func (v *Vocabulary) Playable(b bank.Bank) []Token {
	candidates := make(map[Token]struct{})
	for _, t := range v.tokens {
		rarest, bucketed := v.rarest[t]
		if !bucketed || b.Count(rarest) > 0 {
			candidates[t] = struct{}{}
		}
	}
	out := make([]Token, 0, len(candidates))
	for _, t := range v.tokens {
		if _, ok := candidates[t]; !ok {
			continue
		}
		if b.Contains(string(t)) {
			out = append(out, t)
		}
	}
	return out
}
