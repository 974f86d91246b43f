package anaerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesKind(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New(StoreError, "put", cause)

	assert.True(t, errors.Is(err, StoreError))
	assert.False(t, errors.Is(err, OracleError))
	assert.True(t, errors.Is(err, cause))
}

func TestErrorMessageIncludesKindAndOp(t *testing.T) {
	err := New(ConfigError, "load vocabulary", errors.New("missing file"))
	assert.Contains(t, err.Error(), "config error")
	assert.Contains(t, err.Error(), "load vocabulary")
	assert.Contains(t, err.Error(), "missing file")
}
