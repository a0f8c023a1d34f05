// Package sqlitex is the SQLite driver package: Conn, PooledConn, Tx and
// Pool all expose the same Executor surface over internal/conn/liteconn,
// the way pgx does over pgconn and mysqlx does over myconn. liteconn's
// Query/Exec already take bind parameters directly (it drives
// database/sql's own *sql.Stmt under the hood), so sqlitex's shared
// helpers are the simpler, pgconn-shaped ones rather than mysqlx's
// always-Prepare-first ones.
package sqlitex

import (
	"context"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/conn/liteconn"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// Executor is the query surface Conn, PooledConn, Tx and Pool all share.
type Executor interface {
	Execute(ctx context.Context, sql string, args ...any) (int64, error)
	Query(ctx context.Context, sql string, args ...any) (*rows.Rows, error)
	FetchOne(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error
	FetchAll(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error
	FetchOptional(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) (found bool, err error)
}

var (
	_ Executor = (*Conn)(nil)
	_ Executor = (*PooledConn)(nil)
	_ Executor = (*Tx)(nil)
	_ Executor = (*Pool)(nil)
)

// rawConn is the subset of *liteconn.Conn the shared helpers below drive.
type rawConn interface {
	Query(ctx context.Context, sql string, args ...typeinfo.RawValue) (*rows.Rows, error)
	Exec(ctx context.Context, sql string, args ...typeinfo.RawValue) (liteconn.CommandTag, error)
}

func encodeArgs(args []any) ([]typeinfo.RawValue, error) {
	if len(args) == 0 {
		return nil, nil
	}
	raw := make([]typeinfo.RawValue, len(args))
	for i, a := range args {
		v, err := argToRawValue(a)
		if err != nil {
			return nil, err
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
	return tag.RowsAffected, nil
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
	return true, scan(r)
}

func fetchOne(ctx context.Context, rc rawConn, sql string, scan func(*rows.Rows) error, args []any) error {
	found, err := fetchOptional(ctx, rc, sql, scan, args)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("sqlitex: no rows returned")
	}
	return nil
}
