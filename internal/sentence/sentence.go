// Package sentence centralizes canonical-sentence tokenization so
// every component (validator, search loop, store, admin API) agrees on
// what a "token" is and how a sentence renders to and parses from its
// canonical string form.
//
// spec.md §3 states the canonical form is tokens joined by single
// spaces, but every worked example in spec.md (the c1663 required
// suffix "w!!", in §6) writes punctuation glued to the preceding word
// with no space. The two are reconciled by attaching punctuation
// tokens directly to whatever precedes them and using a single space
// only between two non-punctuation words — the natural-English
// rendering convention. This module's canonicalization choice is
// recorded as an Open Question resolution in DESIGN.md.
package sentence

import "strings"

// punctuationAlphabet is the puzzle's fixed set of standalone
// punctuation tokens (spec.md §3: "a single punctuation character
// drawn from the puzzle's punctuation alphabet").
var punctuationAlphabet = map[rune]bool{
	':': true, ',': true, '!': true, '?': true, ';': true, '.': true,
}

// IsPunctuation reports whether tok is a single-character punctuation
// token rather than a dictionary word.
func IsPunctuation(tok string) bool {
	r := []rune(tok)
	return len(r) == 1 && punctuationAlphabet[r[0]]
}

// Tokens splits a canonical sentence string into its ordered tokens.
// Words are separated by a single space; a punctuation token attaches
// to the end of the preceding chunk with no space, so each
// whitespace-delimited chunk may itself decompose into a word followed
// by zero or more trailing punctuation tokens.
func Tokens(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, chunk := range strings.Split(s, " ") {
		out = append(out, splitTrailingPunctuation(chunk)...)
	}
	return out
}

// splitTrailingPunctuation peels single trailing punctuation
// characters off chunk, in order, until a bare word (or nothing, if
// chunk was pure punctuation) remains.
func splitTrailingPunctuation(chunk string) []string {
	if chunk == "" {
		return nil
	}
	runes := []rune(chunk)
	end := len(runes)
	var trailing []string
	for end > 0 && punctuationAlphabet[runes[end-1]] {
		trailing = append(trailing, string(runes[end-1]))
		end--
	}
	var out []string
	if end > 0 {
		out = append(out, string(runes[:end]))
	}
	for i := len(trailing) - 1; i >= 0; i-- {
		out = append(out, trailing[i])
	}
	return out
}

// Join renders tokens into canonical string form: a single space
// before a word token, no space before a punctuation token.
func Join(tokens []string) string {
	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 && !IsPunctuation(tok) {
			b.WriteByte(' ')
		}
		b.WriteString(tok)
	}
	return b.String()
}

// Append returns the canonical string produced by playing tok after
// sentence.
func Append(sentence, tok string) string {
	if sentence == "" {
		return tok
	}
	if IsPunctuation(tok) {
		return sentence + tok
	}
	return sentence + " " + tok
}

// Parent returns the canonical string obtained by dropping sentence's
// last token, and ok=false if sentence is already empty (the empty
// sentence is its own terminator, per spec.md §3).
func Parent(sentence string) (parent string, ok bool) {
	toks := Tokens(sentence)
	if len(toks) == 0 {
		return "", false
	}
	return Join(toks[:len(toks)-1]), true
}
