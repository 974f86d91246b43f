// Package sqlitestore is the default store.Store backend: a single
// file-backed SQLite database, opened via modernc.org/sqlite (a
// cgo-free driver, matching the teacher's own choice for its
// database/sqlite3 package).
package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/lonnen/anagramist/internal/store"
	"github.com/lonnen/anagramist/internal/store/sqlcore"
)

func init() {
	store.Register("sqlite", func(ctx context.Context, dsn string) (store.Store, error) {
		return Open(ctx, strings.TrimPrefix(dsn, "//"))
	})
}

var dialect = sqlcore.Dialect{
	Name:        "sqlite",
	Placeholder: func(int) string { return "?" },
	CreateTable: `CREATE TABLE IF NOT EXISTS anagramist_nodes (
		sentence TEXT PRIMARY KEY,
		parent TEXT,
		score REAL,
		cumulative REAL,
		mean_descendant REAL,
		visits INTEGER,
		status INTEGER
	);
	CREATE INDEX IF NOT EXISTS anagramist_nodes_parent_idx ON anagramist_nodes (parent);`,
	Upsert: `INSERT INTO %s (sentence, parent, score, cumulative, mean_descendant, visits, status)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT(sentence) DO UPDATE SET
			parent = excluded.parent,
			score = excluded.score,
			cumulative = excluded.cumulative,
			mean_descendant = excluded.mean_descendant,
			visits = excluded.visits,
			status = excluded.status`,
	RecursiveCTE: func(body string) string { return "WITH RECURSIVE " + body },
}

// Open opens (creating if necessary) the SQLite database at path,
// which may be a filesystem path or ":memory:".
func Open(ctx context.Context, path string) (store.Store, error) {
	// modernc.org/sqlite needs a busy timeout since this store is
	// written to by a single search loop but may be read concurrently
	// by the admin CLI (spec.md §5).
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite serializes writers; avoid SQLITE_BUSY under our own load
	return sqlcore.Open(ctx, db, dialect)
}
