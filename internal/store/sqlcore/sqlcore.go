// Package sqlcore implements the body of store.Store once against a
// plain *sql.DB, parameterized by a small Dialect so the four
// concrete backend packages (sqlitestore, mysqlstore, postgresstore,
// mssqlstore) can each stay a thin driver-registration shim, the way
// the teacher keeps its per-engine database.Database implementations
// thin wrappers around shared *sql.DB query logic
// (database/{sqlite3,mysql,postgres,mssql}/database.go).
package sqlcore

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/lonnen/anagramist/internal/anaerr"
	"github.com/lonnen/anagramist/internal/sentence"
	"github.com/lonnen/anagramist/internal/store"
	"github.com/lonnen/anagramist/internal/validate"
)

// Dialect captures the handful of ways the four supported engines'
// SQL dialects diverge for this single-table schema.
type Dialect struct {
	// Name identifies the dialect in error messages.
	Name string
	// Placeholder returns the positional parameter marker for the
	// i'th bound argument (1-indexed): "?" for sqlite/mysql, "$1" for
	// postgres, "@p1" for mssql.
	Placeholder func(i int) string
	// CreateTable is the full DDL for the node table, including its
	// secondary index on parent.
	CreateTable string
	// Upsert is a fmt format string for the dialect's insert-or-update
	// statement (ON CONFLICT, ON DUPLICATE KEY, or MERGE): Put fills its
	// first verb with the table name and the next seven with the
	// column placeholders, in column order.
	Upsert string
	// RecursiveCTE wraps body (a non-recursive seed ∪ UNION ALL
	// recursive member) in the dialect's recursive-CTE spelling:
	// "WITH RECURSIVE" everywhere except mssql, which just uses
	// "WITH".
	RecursiveCTE func(body string) string
}

// Store is the shared store.Store implementation. Exported so backend
// packages can embed it behind their own named type if they need to
// add engine-specific methods later.
type Store struct {
	db      *sql.DB
	dialect Dialect
}

const tableName = "anagramist_nodes"

// Open opens db (already sql.Open'd by the caller with the right
// driver name and DSN) and ensures the schema exists.
func Open(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: ping: %w", dialect.Name, err)
	}
	if _, err := db.ExecContext(ctx, dialect.CreateTable); err != nil {
		return nil, fmt.Errorf("%s: create schema: %w", dialect.Name, err)
	}
	return &Store{db: db, dialect: dialect}, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ph(i int) string { return s.dialect.Placeholder(i) }

func (s *Store) Get(ctx context.Context, sentence string) (store.NodeRecord, bool, error) {
	q := fmt.Sprintf(`SELECT sentence, score, cumulative, mean_descendant, visits, status
		FROM %s WHERE sentence = %s`, tableName, s.ph(1))
	row := s.db.QueryRowContext(ctx, q, sentence)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return store.NodeRecord{}, false, nil
	}
	if err != nil {
		return store.NodeRecord{}, false, anaerr.New(anaerr.StoreError, "Get", err)
	}
	return rec, true, nil
}

func (s *Store) Put(ctx context.Context, rec store.NodeRecord) error {
	// The root (sentence="") has no parent at all, as opposed to a
	// parent of "" — that empty string is itself the root's own key,
	// and every real top-level word's Parent resolves to it. Binding a
	// SQL NULL here (rather than the string "") keeps parent = ? child
	// lookups for the root from also matching the root's own row.
	var parentArg any
	if parent, ok := sentence.Parent(rec.Sentence); ok {
		parentArg = parent
	}
	q := fmt.Sprintf(s.dialect.Upsert, tableName,
		s.ph(1), s.ph(2), s.ph(3), s.ph(4), s.ph(5), s.ph(6), s.ph(7))
	_, err := s.db.ExecContext(ctx, q,
		rec.Sentence, parentArg, rec.Score, rec.CumulativeScore, rec.MeanDescendantScore, rec.Visits, int(rec.Status))
	if err != nil {
		return anaerr.New(anaerr.StoreError, "Put", err)
	}
	return nil
}

func (s *Store) ChildrenOf(ctx context.Context, sentence string) ([]store.NodeRecord, error) {
	q := fmt.Sprintf(`SELECT sentence, score, cumulative, mean_descendant, visits, status
		FROM %s WHERE parent = %s ORDER BY sentence`, tableName, s.ph(1))
	rows, err := s.db.QueryContext(ctx, q, sentence)
	if err != nil {
		return nil, anaerr.New(anaerr.StoreError, "ChildrenOf", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (s *Store) ChildrenDemographics(ctx context.Context, sentence string) (store.Demographics, error) {
	q := fmt.Sprintf(`SELECT status, COUNT(*) FROM %s WHERE parent = %s GROUP BY status`, tableName, s.ph(1))
	rows, err := s.db.QueryContext(ctx, q, sentence)
	if err != nil {
		return nil, anaerr.New(anaerr.StoreError, "ChildrenDemographics", err)
	}
	defer rows.Close()

	out := store.Demographics{}
	for rows.Next() {
		var status, count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, anaerr.New(anaerr.StoreError, "ChildrenDemographics", err)
		}
		out[validate.Status(status)] = count
	}
	return out, rows.Err()
}

func (s *Store) TopChildren(ctx context.Context, sentence string, k int) ([]store.NodeRecord, error) {
	q := fmt.Sprintf(`SELECT sentence, score, cumulative, mean_descendant, visits, status
		FROM %s WHERE parent = %s ORDER BY score DESC LIMIT %d`, tableName, s.ph(1), k)
	rows, err := s.db.QueryContext(ctx, q, sentence)
	if err != nil {
		return nil, anaerr.New(anaerr.StoreError, "TopChildren", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

// descendantsCTE builds the recursive query selecting every strict
// descendant of root (any depth), via the parent chain rather than
// string prefix matching, since punctuation tokens glue onto their
// parent without a separating space.
func (s *Store) descendantsCTE(root string) string {
	body := fmt.Sprintf(`descendants AS (
		SELECT sentence, parent, score, cumulative, mean_descendant, visits, status
		FROM %[1]s WHERE parent = %[2]s
		UNION ALL
		SELECT c.sentence, c.parent, c.score, c.cumulative, c.mean_descendant, c.visits, c.status
		FROM %[1]s c
		JOIN descendants d ON c.parent = d.sentence
	)`, tableName, s.ph(1))
	return s.dialect.RecursiveCTE(body)
}

func (s *Store) TopDescendants(ctx context.Context, root string, k int) ([]store.NodeRecord, error) {
	q := fmt.Sprintf(`%s SELECT sentence, score, cumulative, mean_descendant, visits, status
		FROM descendants ORDER BY mean_descendant DESC LIMIT %d`, s.descendantsCTE(root), k)
	rows, err := s.db.QueryContext(ctx, q, root)
	if err != nil {
		return nil, anaerr.New(anaerr.StoreError, "TopDescendants", err)
	}
	defer rows.Close()
	return scanAll(rows)
}

func (s *Store) Trim(ctx context.Context, root string, newStatus *validate.Status) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return anaerr.New(anaerr.StoreError, "Trim", err)
	}
	defer tx.Rollback()

	del := fmt.Sprintf(`DELETE FROM %s WHERE sentence IN (
		%s SELECT sentence FROM descendants
	)`, tableName, s.descendantsCTE(root))
	if _, err := tx.ExecContext(ctx, del, root); err != nil {
		return anaerr.New(anaerr.StoreError, "Trim", err)
	}

	if newStatus != nil {
		upd := fmt.Sprintf(`UPDATE %s SET status = %s WHERE sentence = %s`, tableName, s.ph(1), s.ph(2))
		if _, err := tx.ExecContext(ctx, upd, int(*newStatus), root); err != nil {
			return anaerr.New(anaerr.StoreError, "Trim", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return anaerr.New(anaerr.StoreError, "Trim", err)
	}
	return nil
}

// SampleWeighted loads every row matching statusFilter and samples one
// proportionally to softmax(temperature * mean_descendant), drawing
// from rng rather than the global math/rand source so the caller's
// seeded stream is what determines selection. This store is sized for
// a single puzzle's search tree (thousands to low millions of nodes),
// not a distributed corpus, so an in-memory softmax over the filtered
// rows is the right tradeoff against a window-function sample that
// four divergent SQL dialects would each spell differently.
func (s *Store) SampleWeighted(ctx context.Context, statusFilter []validate.Status, temperature float64, rng *rand.Rand) (string, bool, error) {
	if len(statusFilter) == 0 {
		return "", false, anaerr.New(anaerr.InvariantViolation, "SampleWeighted", fmt.Errorf("empty status filter"))
	}

	placeholders := make([]string, len(statusFilter))
	args := make([]any, len(statusFilter))
	for i, st := range statusFilter {
		placeholders[i] = s.ph(i + 1)
		args[i] = int(st)
	}
	q := fmt.Sprintf(`SELECT sentence, mean_descendant FROM %s WHERE status IN (%s)`,
		tableName, strings.Join(placeholders, ", "))

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return "", false, anaerr.New(anaerr.StoreError, "SampleWeighted", err)
	}
	defer rows.Close()

	type cand struct {
		sentence string
		score    float64
	}
	var cands []cand
	for rows.Next() {
		var c cand
		if err := rows.Scan(&c.sentence, &c.score); err != nil {
			return "", false, anaerr.New(anaerr.StoreError, "SampleWeighted", err)
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return "", false, anaerr.New(anaerr.StoreError, "SampleWeighted", err)
	}
	if len(cands) == 0 {
		return "", false, nil
	}

	weights := make([]float64, len(cands))
	max := math.Inf(-1)
	for _, c := range cands {
		if c.score > max {
			max = c.score
		}
	}
	var total float64
	for i, c := range cands {
		w := math.Exp(temperature * (c.score - max))
		weights[i] = w
		total += w
	}
	target := rng.Float64() * total
	var cum float64
	for i, w := range weights {
		cum += w
		if cum >= target {
			return cands[i].sentence, true, nil
		}
	}
	return cands[len(cands)-1].sentence, true, nil
}

func scanRecord(row *sql.Row) (store.NodeRecord, error) {
	var rec store.NodeRecord
	var status int
	if err := row.Scan(&rec.Sentence, &rec.Score, &rec.CumulativeScore, &rec.MeanDescendantScore, &rec.Visits, &status); err != nil {
		return store.NodeRecord{}, err
	}
	rec.Status = validate.Status(status)
	return rec, nil
}

func scanAll(rows *sql.Rows) ([]store.NodeRecord, error) {
	var out []store.NodeRecord
	for rows.Next() {
		var rec store.NodeRecord
		var status int
		if err := rows.Scan(&rec.Sentence, &rec.Score, &rec.CumulativeScore, &rec.MeanDescendantScore, &rec.Visits, &status); err != nil {
			return nil, anaerr.New(anaerr.StoreError, "scan", err)
		}
		rec.Status = validate.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}
