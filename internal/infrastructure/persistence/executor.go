package persistence

import (
	"context"
	"database/sql"
)

// Executor abstracts over *sql.DB and *sql.Tx so repositories run inside or
// outside a transaction without knowing which
type Executor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// executor returns the transaction if present, or the DB connection
func executor(db *sql.DB, tx *sql.Tx) Executor {
	if tx != nil {
		return tx
	}
	return db
}
