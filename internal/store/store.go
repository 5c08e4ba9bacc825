// Package store holds the SQL queries behind every entity. Functions take
// a sqlx.ExtContext so they run the same against a pool or inside a
// transaction; queries are written with ? placeholders and rebound for
// the connected dialect.
package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/erazemk/lekarna/internal/model"
)

// WithTx runs fn in a transaction and commits if fn returns nil.
func WithTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return unavailable("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		// PostgreSQL reports deferred constraints at commit.
		if isConstraintError(err) {
			return classify("committing transaction", err)
		}
		return unavailable("committing transaction", err)
	}
	return nil
}

func get(ctx context.Context, db sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, db, dest, db.Rebind(query), args...)
}

func selectAll(ctx context.Context, db sqlx.ExtContext, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, db, dest, db.Rebind(query), args...)
}

func exec(ctx context.Context, db sqlx.ExtContext, query string, args ...any) (sql.Result, error) {
	return db.ExecContext(ctx, db.Rebind(query), args...)
}

// execCount runs an UPDATE or DELETE and returns the number of rows it
// changed.
func execCount(ctx context.Context, db sqlx.ExtContext, query string, args ...any) (int64, error) {
	result, err := exec(ctx, db, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// classify wraps err with the model error kind it belongs to.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrConstraintViolation),
		errors.Is(err, model.ErrStorageUnavailable):
		return fmt.Errorf("%s: %w", op, err)
	case isConstraintError(err):
		return fmt.Errorf("%s: %w: %w", op, model.ErrConstraintViolation, err)
	case isUnavailableError(err):
		return unavailable(op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func unavailable(op string, err error) error {
	if errors.Is(err, model.ErrStorageUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
}

func isConstraintError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	return false
}

func isUnavailableError(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR, sqlite3.SQLITE_CANTOPEN:
			return true
		}
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Connection exceptions, serialization/deadlock, operator intervention.
		return strings.HasPrefix(pgErr.Code, "08") ||
			strings.HasPrefix(pgErr.Code, "40") ||
			strings.HasPrefix(pgErr.Code, "57")
	}
	var connectErr *pgconn.ConnectError
	return errors.As(err, &connectErr)
}
