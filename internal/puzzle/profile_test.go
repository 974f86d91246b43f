package puzzle

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestC1663IsInternallyConsistent(t *testing.T) {
	p := C1663
	assert.Equal(t, 101, len([]rune(p.Bank)))
	assert.True(t, strings.HasSuffix(p.Bank, p.RequiredSuffix))

	words := strings.Fields(strings.NewReplacer(":", "", ",", "", "!", "").Replace(p.Bank))
	var longest, second string
	for _, w := range words {
		if len(w) > len(longest) {
			second, longest = longest, w
		} else if len(w) > len(second) && w != longest {
			second = w
		}
	}
	assert.Len(t, longest, p.LongestWordLength)
	assert.Len(t, second, p.SecondLongestWordLength)
	assert.Contains(t, p.Bank, longest+" "+second)
}

func TestLoadProfileFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/profile.yaml"
	data := []byte("name: toy\nbank: \"I am\"\nrequired_first_token: \"I\"\n")
	assert.NoError(t, os.WriteFile(path, data, 0o644))

	p, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "toy", p.Name)
	assert.Equal(t, "I am", p.Bank)
	assert.Equal(t, "I", p.RequiredFirstToken)
}
