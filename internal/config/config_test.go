package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSearchUsesDefaultDSNWhenEnvUnset(t *testing.T) {
	os.Unsetenv("ANAGRAMIST_STORE_DSN")
	s := DefaultSearch()
	assert.Equal(t, defaultStoreDSN, s.StoreDSN)
	assert.Equal(t, 1.0, s.Temperature)
	assert.Equal(t, 3, s.MaxOracleRetries)
}

func TestDefaultSearchReadsEnvOverride(t *testing.T) {
	t.Setenv("ANAGRAMIST_STORE_DSN", "postgres://example/db")
	s := DefaultSearch()
	assert.Equal(t, "postgres://example/db", s.StoreDSN)
}

func TestLoadSearchOverlaysOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "search.yaml")
	require.NoError(t, os.WriteFile(path, []byte("temperature: 2.5\nseed: 99\n"), 0o644))

	s, err := LoadSearch(path)
	require.NoError(t, err)
	assert.Equal(t, 2.5, s.Temperature)
	assert.Equal(t, int64(99), s.Seed)
	// Fields omitted from the YAML keep DefaultSearch's values.
	assert.Equal(t, 3, s.MaxOracleRetries)
}

func TestLoadSearchMissingFileReturnsError(t *testing.T) {
	_, err := LoadSearch(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
