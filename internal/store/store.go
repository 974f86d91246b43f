// Package store defines the persistent sentence → NodeRecord mapping
// of spec.md §4.5 and §6: a durable key/value store backed by a single
// SQL table (sentence, parent, score, cumulative, mean_descendant,
// visits, status) with a secondary index on parent.
//
// Grounded on the teacher's database.Database abstraction
// (database/database.go) over per-engine sub-packages
// (database/{mysql,postgres,mssql,sqlite3}): Open dispatches on a DSN
// scheme the way the teacher's CLIs dispatch on a --type flag, and
// every backend shares the identical schema and query set, differing
// only in column types, upsert statement, placeholder syntax and
// recursive-CTE spelling (sqlcore.Dialect).
package store

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/lonnen/anagramist/internal/anaerr"
	"github.com/lonnen/anagramist/internal/validate"
)

// NodeRecord is the persisted value of spec.md §3.
type NodeRecord struct {
	Sentence            string
	Score               float64
	CumulativeScore     float64
	MeanDescendantScore float64
	Visits              int
	Status              validate.Status
}

// Demographics maps a status value to the number of children with
// that status, per spec.md §4.5's children_demographics.
type Demographics map[validate.Status]int

// Store is the persistence contract of spec.md §4.5.
type Store interface {
	// Get returns the record for sentence, and ok=false if it has
	// never been written (spec.md §3: an unwritten node exists only
	// as a missing row).
	Get(ctx context.Context, s string) (rec NodeRecord, ok bool, err error)

	// Put writes rec atomically, keyed by rec.Sentence. Per invariant
	// I5 the store never holds two rows with the same canonical
	// sentence; Put overwrites any existing row for that key.
	Put(ctx context.Context, rec NodeRecord) error

	// ChildrenOf returns every stored row whose parent is s.
	ChildrenOf(ctx context.Context, s string) ([]NodeRecord, error)

	// ChildrenDemographics summarizes ChildrenOf(s) by status.
	ChildrenDemographics(ctx context.Context, s string) (Demographics, error)

	// TopChildren returns up to k children of s ordered by Score
	// descending.
	TopChildren(ctx context.Context, s string, k int) ([]NodeRecord, error)

	// TopDescendants returns up to k strict descendants of s (any
	// depth) ordered by MeanDescendantScore descending.
	TopDescendants(ctx context.Context, s string, k int) ([]NodeRecord, error)

	// Trim deletes every strict descendant of s. If newStatus is
	// non-nil, s's own status is overwritten.
	Trim(ctx context.Context, s string, newStatus *validate.Status) error

	// SampleWeighted returns a sentence sampled proportionally to
	// softmax(temperature * MeanDescendantScore) among rows matching
	// statusFilter, falling back to a uniform pick if no row in the
	// filter has ever been scored. ok=false if no row matches. The draw
	// consumes rng rather than the package-global source, so a caller
	// seeding rng from configuration (search.Loop.RNG) gets the
	// reproducible-replay property of spec.md §4.6/§8 (P7) through
	// every backend, not just in-memory test fakes.
	SampleWeighted(ctx context.Context, statusFilter []validate.Status, temperature float64, rng *rand.Rand) (s string, ok bool, err error)

	// Close releases the underlying connection.
	Close() error
}

// Open dispatches on dsn's scheme (sqlite:, mysql:, postgres:,
// sqlserver:) to the matching backend, the way the teacher's CLIs
// dispatch on a --type flag. The scheme is stripped before the rest is
// handed to the registered backend opener; the postgres and sqlserver
// openers put it back for their drivers.
func Open(ctx context.Context, dsn string) (Store, error) {
	scheme, rest, ok := strings.Cut(dsn, ":")
	if !ok {
		return nil, anaerr.New(anaerr.ConfigError, "store.Open", fmt.Errorf("dsn %q has no scheme (expected sqlite:, mysql:, postgres:, or sqlserver:)", dsn))
	}
	open, ok := backends[scheme]
	if !ok {
		return nil, anaerr.New(anaerr.ConfigError, "store.Open", fmt.Errorf("unknown store backend %q", scheme))
	}
	s, err := open(ctx, rest)
	if err != nil {
		return nil, anaerr.New(anaerr.StoreError, "store.Open", err)
	}
	return s, nil
}

// backends is populated by each backend sub-package's init() via
// Register, so store.Open works without this package importing every
// driver directly (each driver pulls in cgo-free but still sizeable
// transitive dependencies; callers only pay for the backend they
// actually import in their main package).
var backends = map[string]func(ctx context.Context, dsn string) (Store, error){}

// Register adds a backend opener under scheme. Backend packages call
// this from their init().
func Register(scheme string, open func(ctx context.Context, dsn string) (Store, error)) {
	backends[scheme] = open
}
