// Package pgx is the Postgres driver package: it wraps internal/conn/pgconn
// and internal/dbpool into the public Conn/PooledConn/Tx/Pool surface, each
// exposing the same monomorphic Execute/Query/FetchOne/FetchAll/FetchOptional
// methods so callers never juggle a different API depending on whether they
// hold a pooled connection, a bare one, or a transaction.
//
// Arguments are plain Go values (nil, bool, the integer and float kinds,
// string, []byte, time.Time, uuid.UUID); results are read with the
// standard-library-shaped *rows.Rows cursor from internal/rows. There is no
// struct-scanning layer — the scan callback passed to FetchOne/FetchAll/
// FetchOptional calls rows.Scan itself, the same division of labor
// database/sql's own Rows gives its callers.
package pgx

import (
	"context"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/conn/pgconn"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// Executor is the uniform query surface Conn, PooledConn, Tx, and Pool all
// implement. It is intentionally small: no Select-into-struct helpers, no
// query builder, nothing reflection-based.
type Executor interface {
	// Execute runs sql for its side effects and reports the rows affected.
	Execute(ctx context.Context, sql string, args ...any) (int64, error)
	// Query runs sql and returns a lazy, forward-only row cursor.
	Query(ctx context.Context, sql string, args ...any) (*rows.Rows, error)
	// FetchOne runs sql, requires exactly one row, and calls scan on it.
	// Zero rows is reported as an error; use FetchOptional when that case
	// is expected.
	FetchOne(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error
	// FetchAll runs sql and calls scan once per row, in order.
	FetchAll(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error
	// FetchOptional runs sql and calls scan on the first row if one
	// exists; found is false (and scan is not called) on an empty result.
	FetchOptional(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) (found bool, err error)
}

var (
	_ Executor = (*Conn)(nil)
	_ Executor = (*PooledConn)(nil)
	_ Executor = (*Tx)(nil)
	_ Executor = (*Pool)(nil)
)

// rawConn is what the shared helpers below need from whatever is actually
// running the query: pgconn.Conn itself, reached either directly, through a
// PooledConn, or mid-transaction.
type rawConn interface {
	Query(ctx context.Context, sql string, args ...typeinfo.RawValue) (*rows.Rows, error)
	Exec(ctx context.Context, sql string, args ...typeinfo.RawValue) (pgconn.CommandTag, error)
}

func encodeArgs(args []any) ([]typeinfo.RawValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	raw := make([]typeinfo.RawValue, len(args))
	for i, a := range args {
		v, err := argToRawValue(a)
		if err != nil {
			return nil, fmt.Errorf("pgx: argument %d: %w", i, err)
		}
		raw[i] = v
	}
	return raw, nil
}

func execute(ctx context.Context, rc rawConn, sql string, args []any) (int64, error) {
	raw, err := encodeArgs(args)
	if err != nil {
		return 0, err
	}
	tag, err := rc.Exec(ctx, sql, raw...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func query(ctx context.Context, rc rawConn, sql string, args []any) (*rows.Rows, error) {
	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	return rc.Query(ctx, sql, raw...)
}

func fetchAll(ctx context.Context, rc rawConn, sql string, scan func(*rows.Rows) error, args []any) error {
	r, err := query(ctx, rc, sql, args)
	if err != nil {
		return err
	}
	defer r.Close()
	for r.Next() {
		if err := scan(r); err != nil {
			return err
		}
	}
	return r.Err()
}

func fetchOptional(ctx context.Context, rc rawConn, sql string, scan func(*rows.Rows) error, args []any) (bool, error) {
	r, err := query(ctx, rc, sql, args)
	if err != nil {
		return false, err
	}
	defer r.Close()
	if !r.Next() {
		return false, r.Err()
	}
	if err := scan(r); err != nil {
		return false, err
	}
	return true, nil
}

func fetchOne(ctx context.Context, rc rawConn, sql string, scan func(*rows.Rows) error, args []any) error {
	found, err := fetchOptional(ctx, rc, sql, scan, args)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("pgx: FetchOne: no rows returned")
	}
	return nil
}
