// Package mysqlx is the MySQL/MariaDB driver package: Conn, PooledConn, Tx
// and Pool all expose the same Executor surface over internal/conn/myconn,
// the way pgx does over pgconn. It adds no struct-scanning layer on top —
// callers get a *rows.Rows and a scan callback, matching database/sql's
// shape rather than an ORM's.
//
// myconn's own command surface has no single "Query/Exec with args" call
// the way pgconn and liteconn do: its COM_QUERY text protocol carries no
// bind parameters at all, so any call with placeholders has to go through
// COM_STMT_PREPARE/COM_STMT_EXECUTE. mysqlx always takes that path — even
// for a zero-argument statement — so there is one code path to reason
// about rather than a branch on argument count.
package mysqlx

import (
	"context"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/conn/myconn"
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

// rawConn is the subset of *myconn.Conn the shared helpers below drive.
// Conn, PooledConn.pc.Conn() and Tx.conn all satisfy it identically.
type rawConn interface {
	Prepare(ctx context.Context, sql string) (*myconn.PreparedStatement, error)
	ExecutePrepared(ctx context.Context, stmt *myconn.PreparedStatement, args ...typeinfo.RawValue) (*rows.Rows, error)
	ExecPrepared(ctx context.Context, stmt *myconn.PreparedStatement, args ...typeinfo.RawValue) (myconn.CommandTag, error)
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
	stmt, err := rc.Prepare(ctx, sql)
	if err != nil {
		return 0, err
	}
	raw, err := encodeArgs(args)
	if err != nil {
		return 0, err
	}
	tag, err := rc.ExecPrepared(ctx, stmt, raw...)
	if err != nil {
		return 0, err
	}
	return int64(tag.AffectedRows), nil
}

func query(ctx context.Context, rc rawConn, sql string, args []any) (*rows.Rows, error) {
	stmt, err := rc.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	raw, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	return rc.ExecutePrepared(ctx, stmt, raw...)
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
		return fmt.Errorf("mysqlx: no rows returned")
	}
	return nil
}
