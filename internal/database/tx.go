package database

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

const serializableAttempts = 3

// TxOptions returns the options for transactions that read state and
// then write based on it. Postgres runs them SERIALIZABLE so two such
// transactions cannot both commit against the same stale read; SQLite
// has a single writer and keeps the driver default.
func TxOptions(db *bun.DB) *sql.TxOptions {
	if db.Dialect().Name() == dialect.PG {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return &sql.TxOptions{}
}

// SerializationFailure reports whether err is a Postgres serialization
// abort (SQLSTATE 40001). The transaction did not commit and can be
// retried as-is.
func SerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

// RunSerializable runs fn in a transaction using TxOptions, retrying a
// serialization abort before giving up. fn must be safe to re-run from
// scratch.
func RunSerializable(ctx context.Context, db *bun.DB, fn func(ctx context.Context, tx bun.Tx) error) error {
	opts := TxOptions(db)
	var err error
	for attempt := 0; attempt < serializableAttempts; attempt++ {
		err = db.RunInTx(ctx, opts, fn)
		if !SerializationFailure(err) {
			return err
		}
	}
	return err
}
