// Package puzzle declares the per-puzzle constraints the validator
// checks against: the letter bank, required anchors, punctuation
// order, and longest-word constraints of spec.md §6. Grounded on the
// teacher's database.Config/GeneratorConfig struct-of-knobs style
// (database/database.go).
package puzzle

import (
	"os"

	"gopkg.in/yaml.v2"
)

// Profile is a declarative puzzle configuration, loadable from YAML the
// same way the teacher loads a GeneratorConfig.
type Profile struct {
	// Name identifies the profile for logging/reporting.
	Name string `yaml:"name"`
	// Bank is the literal multiset of characters available to the
	// puzzle (spaces included; the search loop treats a single space
	// as the token separator, not a bank character).
	Bank string `yaml:"bank"`
	// RequiredFirstToken, if non-empty, must be the sentence's first
	// token.
	RequiredFirstToken string `yaml:"required_first_token"`
	// RequiredSuffix, if non-empty, must be the literal trailing
	// characters of the completed sentence.
	RequiredSuffix string `yaml:"required_suffix"`
	// RequiredPunctuation lists punctuation tokens in their required
	// order: a partial sentence's punctuation tokens must be a prefix of
	// this list, and a completed sentence's must equal it exactly.
	RequiredPunctuation []string `yaml:"required_punctuation"`
	// LongestWordLength, if > 0, is the length of the puzzle's longest
	// word; a completion must contain a word of exactly this length.
	LongestWordLength int `yaml:"longest_word_length"`
	// SecondLongestWordLength, if > 0, is the length of the puzzle's
	// second-longest word.
	SecondLongestWordLength int `yaml:"second_longest_word_length"`
	// RequireLongestAdjacency requires the longest and second-longest
	// words to appear adjacently (in either order) in the completion.
	RequireLongestAdjacency bool `yaml:"require_longest_adjacency"`
	// ForbiddenVocabulary lists tokens that may never be played (e.g.
	// tokens referring to the puzzle itself).
	ForbiddenVocabulary []string `yaml:"forbidden_vocabulary"`
}

// Load reads a Profile from a YAML file at path.
func Load(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// C1663 is the canonical 101-character Qwantzle-family profile named
// in spec.md §6: wire-exact bank, anchors, punctuation order, and
// longest/second-longest word lengths with required adjacency.
var C1663 = Profile{
	Name:                    "c1663",
	Bank:                    "I wonder: a comfortable creature, never quit warmly missing your playful little dog could ever grow!!",
	RequiredFirstToken:      "I",
	RequiredSuffix:          "w!!",
	RequiredPunctuation:     []string{":", ",", "!", "!"},
	LongestWordLength:       11,
	SecondLongestWordLength: 8,
	RequireLongestAdjacency: true,
	ForbiddenVocabulary:     []string{"qwantzle", "anacryptogram", "anagramist"},
}
