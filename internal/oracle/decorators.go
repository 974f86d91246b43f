package oracle

import (
	"context"
	"sync"
)

// Cached wraps another Oracle and memoizes its scores in process
// memory, keyed by the canonical sentence string. Grounded on the
// teacher's pluggable Logger decorator shape (database/logger.go):
// a thin interface-preserving wrapper, not a cache library.
//
// Oracle inference (a model forward pass) is the single most expensive
// operation in the search loop; the same prefix is frequently rescored
// across sibling roll-outs before its score is persisted, so an
// in-memory cache avoids redundant calls within one process without
// needing to touch the store.
type Cached struct {
	inner Oracle

	mu    sync.Mutex
	cache map[string]float64
}

// NewCached wraps inner with an in-memory score cache.
func NewCached(inner Oracle) *Cached {
	return &Cached{inner: inner, cache: make(map[string]float64)}
}

// Score implements Oracle.
func (c *Cached) Score(ctx context.Context, sentence string) (float64, error) {
	c.mu.Lock()
	if v, ok := c.cache[sentence]; ok {
		c.mu.Unlock()
		return v, nil
	}
	c.mu.Unlock()

	v, err := c.inner.Score(ctx, sentence)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	c.cache[sentence] = v
	c.mu.Unlock()
	return v, nil
}
