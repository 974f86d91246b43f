// Package mysqlstore is the MySQL/MariaDB store.Store backend,
// grounded on the teacher's database/mysql package: same driver
// (github.com/go-sql-driver/mysql), same sql.Open("mysql", dsn) shape.
package mysqlstore

import (
	"context"
	"database/sql"
	"strings"

	driver "github.com/go-sql-driver/mysql"

	"github.com/lonnen/anagramist/internal/store"
	"github.com/lonnen/anagramist/internal/store/sqlcore"
)

func init() {
	store.Register("mysql", func(ctx context.Context, dsn string) (store.Store, error) {
		return Open(ctx, strings.TrimPrefix(dsn, "//"))
	})
}

var dialect = sqlcore.Dialect{
	Name:        "mysql",
	Placeholder: func(int) string { return "?" },
	CreateTable: `CREATE TABLE IF NOT EXISTS anagramist_nodes (
		sentence VARCHAR(1024) PRIMARY KEY,
		parent VARCHAR(1024),
		score DOUBLE,
		cumulative DOUBLE,
		mean_descendant DOUBLE,
		visits INT,
		status INT,
		INDEX anagramist_nodes_parent_idx (parent)
	);`,
	Upsert: `INSERT INTO %s (sentence, parent, score, cumulative, mean_descendant, visits, status)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		ON DUPLICATE KEY UPDATE
			parent = VALUES(parent),
			score = VALUES(score),
			cumulative = VALUES(cumulative),
			mean_descendant = VALUES(mean_descendant),
			visits = VALUES(visits),
			status = VALUES(status)`,
	RecursiveCTE: func(body string) string { return "WITH RECURSIVE " + body },
}

// Open opens the MySQL database addressed by dsn (in
// go-sql-driver/mysql's own DSN form, e.g.
// "user:pass@tcp(host:3306)/dbname").
func Open(ctx context.Context, dsn string) (store.Store, error) {
	if _, err := driver.ParseDSN(dsn); err != nil {
		return nil, err
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	return sqlcore.Open(ctx, db, dialect)
}
