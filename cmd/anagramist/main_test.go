package main

import (
	"errors"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
)

func TestExitCodeForHelpIsZero(t *testing.T) {
	assert.Equal(t, 0, exitCodeFor(flags.ErrHelp))
}

func TestExitCodeForOtherErrorsIsOne(t *testing.T) {
	assert.Equal(t, 1, exitCodeFor(errors.New("boom")))
}

func TestLoadProfileFallsBackToC1663(t *testing.T) {
	p, err := loadProfile("", "")
	assert.NoError(t, err)
	assert.Equal(t, "c1663", p.Name)
}

func TestLoadProfileRejectsUnknownName(t *testing.T) {
	_, err := loadProfile("made-up", "")
	assert.Error(t, err)
}
