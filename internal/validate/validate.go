// Package validate implements the soft/hard prefix validation of
// spec.md §4.4: the guard that keeps the search loop from wasting
// roll-outs on prefixes no completion of which could win.
//
// Grounded on the teacher's schema.Generator control flow
// (schema/generator.go): an ordered list of checks run in sequence,
// the first failure short-circuiting the rest.
package validate

import (
	"strings"

	"github.com/lonnen/anagramist/internal/bank"
	"github.com/lonnen/anagramist/internal/puzzle"
	"github.com/lonnen/anagramist/internal/sentence"
	"github.com/lonnen/anagramist/internal/vocab"
)

// Status mirrors the NodeRecord status values of spec.md §3.
type Status int

const (
	StatusOpen           Status = 0
	StatusHardInvalid    Status = 1
	StatusManualExcluded Status = 7
)

// Outcome is the soft/hard validation verdict for a sentence, per
// spec.md §4.4. It is a plain value, never an error: a validation
// failure is a normal, expected roll-out result (spec.md §7).
type Outcome struct {
	Status Status
	Valid  bool
	// Terminal is true when the bank is empty and all hard checks
	// passed (a winning candidate).
	Terminal bool
	// Reason names the first failing check, empty when Valid.
	Reason string
}

// Validator checks sentences against a Bank remainder and a Profile.
type Validator struct {
	profile puzzle.Profile
	vocab   *vocab.Vocabulary
}

// New builds a Validator for profile, consulting v for the
// longest-word-feasibility check. v may be nil for profiles that don't
// set LongestWordLength.
func New(profile puzzle.Profile, v *vocab.Vocabulary) *Validator {
	return &Validator{profile: profile, vocab: v}
}

// puzzleBank returns the puzzle's letter bank as a Bank value. Spaces
// in the configured bank string are separators between words in the
// profile's human-readable form, not budgeted characters: the solver
// is free to place word boundaries anywhere, so only the concatenated
// non-space characters are counted.
func (v *Validator) puzzleBank() bank.Bank {
	return bank.New(strings.ReplaceAll(v.profile.Bank, " ", ""))
}

// remaining computes the bank left after s is subtracted from the
// puzzle bank, per invariant I4: no row stores a bank, it is always
// recomputed.
func (v *Validator) remaining(s string) bank.Bank {
	b := v.puzzleBank()
	for _, tok := range sentence.Tokens(s) {
		b = b.Subtract(tok)
	}
	return b
}

// Remaining exposes the bank left after s for callers outside this
// package (the search loop's expansion step needs it to enumerate
// playable tokens).
func (v *Validator) Remaining(s string) bank.Bank {
	return v.remaining(s)
}

// Soft runs the soft checks of spec.md §4.4: a soft-invalid verdict
// guarantees no extension of s could win. Soft validation never checks
// that the remaining bank is empty (that is a hard-only check).
func (v *Validator) Soft(s string) Outcome {
	if !v.puzzleBank().Contains(strings.Join(sentence.Tokens(s), "")) {
		return invalid("letters exceed puzzle bank")
	}

	remaining := v.remaining(s)

	if !remaining.IsEmpty() && !remaining.LettersOnly().HasVowel() {
		return invalid("no vowel left in remaining letters")
	}

	if v.profile.LongestWordLength > 0 && !v.canReachLongestWord(s, remaining) {
		return invalid("no playable word can reach required longest-word length")
	}

	if reason, ok := v.checkPunctuationPrefix(s); !ok {
		return invalid(reason)
	}

	if v.profile.RequiredFirstToken != "" {
		if toks := sentence.Tokens(s); len(toks) > 0 && toks[0] != v.profile.RequiredFirstToken {
			return invalid("first token does not match required anchor")
		}
	}

	if len(v.profile.ForbiddenVocabulary) > 0 {
		for _, tok := range sentence.Tokens(s) {
			for _, bad := range v.profile.ForbiddenVocabulary {
				if tok == bad {
					return invalid("forbidden token played")
				}
			}
		}
	}

	return Outcome{Status: StatusOpen, Valid: true}
}

// Hard runs Soft plus the additional checks that only make sense once
// the bank is fully consumed (spec.md §4.4).
func (v *Validator) Hard(s string) Outcome {
	soft := v.Soft(s)
	if !soft.Valid {
		return soft
	}

	if !v.remaining(s).IsEmpty() {
		return Outcome{Status: StatusOpen, Valid: true}
	}

	toks := sentence.Tokens(s)

	if v.profile.RequiredFirstToken != "" {
		if len(toks) == 0 || toks[0] != v.profile.RequiredFirstToken {
			return invalid("missing required first token")
		}
	}

	if v.profile.RequiredSuffix != "" && !strings.HasSuffix(s, v.profile.RequiredSuffix) {
		return invalid("missing required suffix")
	}

	if want := v.profile.RequiredPunctuation; len(want) > 0 {
		got := punctuationTokens(toks)
		if !equalStrings(got, want) {
			return invalid("punctuation sequence does not match required sequence exactly")
		}
	}

	if v.profile.LongestWordLength > 0 {
		longest, second := twoLongestWords(toks)
		if len([]rune(longest)) != v.profile.LongestWordLength {
			return invalid("longest word length mismatch")
		}
		if v.profile.SecondLongestWordLength > 0 && len([]rune(second)) != v.profile.SecondLongestWordLength {
			return invalid("second-longest word length mismatch")
		}
		if v.profile.RequireLongestAdjacency && !adjacent(toks, longest, second) {
			return invalid("longest and second-longest words are not adjacent")
		}
	}

	return Outcome{Status: StatusOpen, Valid: true, Terminal: true}
}

// Constraints reports the independent pass/fail verdict of each soft
// check, without the short-circuiting Soft uses internally. This
// backs the admin `check` command's per-constraint flags (spec.md §6),
// where a caller wants to see every violated rule, not just the first.
type Constraints struct {
	Contains            bool
	VowelFloor          bool
	LongestWordFeasible bool
	PunctuationOrder    bool
}

// Check evaluates every soft constraint independently. When s uses
// letters the puzzle bank does not hold, there is no remaining bank,
// so VowelFloor and LongestWordFeasible are reported false as well.
func (v *Validator) Check(s string) Constraints {
	_, punctOK := v.checkPunctuationPrefix(s)
	c := Constraints{
		Contains:         v.puzzleBank().Contains(strings.Join(sentence.Tokens(s), "")),
		PunctuationOrder: punctOK,
	}
	if c.Contains {
		remaining := v.remaining(s)
		c.VowelFloor = remaining.IsEmpty() || remaining.LettersOnly().HasVowel()
		c.LongestWordFeasible = v.profile.LongestWordLength == 0 || v.canReachLongestWord(s, remaining)
	}
	return c
}

func invalid(reason string) Outcome {
	return Outcome{Status: StatusHardInvalid, Valid: false, Reason: reason}
}

// canReachLongestWord implements the longest-word-feasibility check:
// either the required length is already achieved by a token in s, or
// some playable word of at least that length remains.
func (v *Validator) canReachLongestWord(s string, remaining bank.Bank) bool {
	for _, tok := range sentence.Tokens(s) {
		if len([]rune(tok)) >= v.profile.LongestWordLength {
			return true
		}
	}
	if v.vocab == nil {
		return true
	}
	for _, tok := range v.vocab.Playable(remaining) {
		if len([]rune(string(tok))) >= v.profile.LongestWordLength && !v.isForbidden(string(tok)) {
			return true
		}
	}
	return false
}

func (v *Validator) isForbidden(tok string) bool {
	for _, bad := range v.profile.ForbiddenVocabulary {
		if tok == bad {
			return true
		}
	}
	return false
}

// checkPunctuationPrefix enforces that the punctuation tokens already
// played in s are a prefix of the profile's required sequence.
func (v *Validator) checkPunctuationPrefix(s string) (string, bool) {
	want := v.profile.RequiredPunctuation
	if len(want) == 0 {
		return "", true
	}
	got := punctuationTokens(sentence.Tokens(s))
	if len(got) > len(want) {
		return "too much punctuation played", false
	}
	for i, tok := range got {
		if tok != want[i] {
			return "punctuation out of required order", false
		}
	}
	return "", true
}

func punctuationTokens(toks []string) []string {
	var out []string
	for _, tok := range toks {
		if sentence.IsPunctuation(tok) {
			out = append(out, tok)
		}
	}
	return out
}

func twoLongestWords(toks []string) (longest, second string) {
	for _, tok := range toks {
		if sentence.IsPunctuation(tok) {
			continue
		}
		if len(tok) > len(longest) {
			longest, second = tok, longest
		} else if len(tok) > len(second) && tok != longest {
			second = tok
		}
	}
	return longest, second
}

// adjacent reports whether longest and second appear next to each
// other, in either order, among the non-punctuation tokens of toks.
func adjacent(toks []string, longest, second string) bool {
	var words []string
	for _, tok := range toks {
		if !sentence.IsPunctuation(tok) {
			words = append(words, tok)
		}
	}
	for i := 0; i+1 < len(words); i++ {
		if (words[i] == longest && words[i+1] == second) ||
			(words[i] == second && words[i+1] == longest) {
			return true
		}
	}
	return false
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
