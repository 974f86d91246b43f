package vocab

import (
	"testing"

	"github.com/lonnen/anagramist/internal/bank"
	"github.com/stretchr/testify/assert"
)

func TestPlayableSubsetAndContains(t *testing.T) {
	// P4: playable(bank) is a subset of the vocabulary and every
	// returned token satisfies bank.Contains(token).
	v := New([]Token{"I", "am", "ma", "zzz"})
	b := bank.New("I am")

	got := v.Playable(b)
	assert.ElementsMatch(t, []Token{"I", "am", "ma"}, got)
	for _, tok := range got {
		assert.True(t, v.Contains(tok))
		assert.True(t, b.Contains(string(tok)))
	}
}

func TestPlayableDeterministicOrder(t *testing.T) {
	v := New([]Token{"b", "a", "c"})
	b := bank.New("abc")
	first := v.Playable(b)
	second := v.Playable(b)
	assert.Equal(t, first, second)
	assert.Equal(t, []Token{"a", "b", "c"}, first)
}

func TestAllDeduplicates(t *testing.T) {
	v := New([]Token{"a", "a", "b"})
	assert.Len(t, v.All(), 2)
}

func TestContains(t *testing.T) {
	v := New([]Token{"hello"})
	assert.True(t, v.Contains("hello"))
	assert.False(t, v.Contains("goodbye"))
}

func TestPlayableEmptyBank(t *testing.T) {
	v := New([]Token{"a", "b"})
	assert.Empty(t, v.Playable(bank.New("")))
}
