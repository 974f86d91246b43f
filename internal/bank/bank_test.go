package bank

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
)

func TestContains(t *testing.T) {
	b := New("I am")
	assert.True(t, b.Contains("I"))
	assert.True(t, b.Contains("am"))
	assert.True(t, b.Contains("ma"))
	assert.False(t, b.Contains("amam"))
	assert.False(t, b.Contains("z"))
}

func TestSubtractThenSizeAndEmpty(t *testing.T) {
	b := New("ab")
	assert.Equal(t, 2, b.Size())
	assert.False(t, b.IsEmpty())

	b2 := b.Subtract("ab")
	assert.True(t, b2.IsEmpty())
	assert.Equal(t, 0, b2.Size())
}

func TestSubtractPanicsOnUncontainedWord(t *testing.T) {
	b := New("a")
	assert.Panics(t, func() {
		b.Subtract("ab")
	})
}

func TestSubtractIsInverseOfAdd(t *testing.T) {
	// P3: for any word w with bank.Contains(w), bank.Subtract(w).Add(w) == bank.
	f := func(seed string) bool {
		if seed == "" {
			return true
		}
		b := New(seed + seed) // guarantee every rune of seed is containable
		word := seed
		if !b.Contains(word) {
			return true
		}
		return b.Subtract(word).Add(word).Equal(b)
	}
	assert.NoError(t, quick.Check(f, nil))
}

func TestLettersOnlyZeroesPunctuationAndDigits(t *testing.T) {
	b := New("a1, b2!")
	lo := b.LettersOnly()
	assert.Equal(t, 0, lo.Count(','))
	assert.Equal(t, 0, lo.Count('!'))
	assert.Equal(t, 0, lo.Count('1'))
	assert.Equal(t, 1, lo.Count('a'))
	assert.Equal(t, 1, lo.Count('b'))
}

func TestHasVowel(t *testing.T) {
	assert.True(t, New("sky aeiou").HasVowel())
	assert.False(t, New("brrwynth").HasVowel())
	assert.False(t, New("").HasVowel())
}

func TestEqual(t *testing.T) {
	assert.True(t, New("abc").Equal(New("cba")))
	assert.False(t, New("abc").Equal(New("abcc")))
}
