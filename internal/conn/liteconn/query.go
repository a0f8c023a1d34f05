package liteconn

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/stmtcache"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/sqlitetype"
)

// CommandTag mirrors pgconn/myconn's result summary for a non-row-returning
// statement.
type CommandTag struct {
	RowsAffected int64
	LastInsertID int64
}

func (t CommandTag) String() string {
	return fmt.Sprintf("affected=%d last_insert_id=%d", t.RowsAffected, t.LastInsertID)
}

// ExecSQL runs query with no bind parameters, discarding any rows. It
// satisfies internal/transaction's Executor interface for
// BEGIN/SAVEPOINT/COMMIT/ROLLBACK.
func (c *Conn) ExecSQL(ctx context.Context, query string) error {
	_, err := c.submit(ctx, func(conn *sql.Conn) (any, error) {
		_, err := conn.ExecContext(ctx, query)
		return nil, err
	})
	return err
}

// Prepare parses sql into a cached *sql.Stmt, reusing a cache hit when
// the SQL text has already been prepared on this connection.
func (c *Conn) Prepare(ctx context.Context, query string) (*sql.Stmt, error) {
	if cached, ok := c.stmts.Get(query); ok {
		return cached.Handle.(*sql.Stmt), nil
	}
	val, err := c.submit(ctx, func(conn *sql.Conn) (any, error) {
		return conn.PrepareContext(ctx, query)
	})
	if err != nil {
		return nil, dberr.Wrap(dberr.KindProtocol, "liteconn: preparing statement", err)
	}
	stmt := val.(*sql.Stmt)
	if evicted, ok := c.stmts.Put(query, stmtcache.Statement{SQL: query, Handle: stmt}); ok {
		if old, ok := evicted.Handle.(*sql.Stmt); ok {
			old.Close()
		}
	}
	return stmt, nil
}

// argsToAny converts bound typeinfo.RawValue parameters to the any
// values database/sql's driver expects, preserving SQL NULL and
// SQLite's storage class (so a TEXT argument binds as a Go string, not
// the raw bytes, which the driver would otherwise store as a BLOB).
func argsToAny(args []typeinfo.RawValue) []any {
	out := make([]any, len(args))
	for i, a := range args {
		switch {
		case a.IsNil():
			out[i] = nil
		default:
			out[i] = argToAny(a)
		}
	}
	return out
}

func argToAny(a typeinfo.RawValue) any {
	info, ok := a.Type.(sqlitetype.Info)
	if !ok {
		return a.Bytes
	}
	switch info.Storage {
	case sqlitetype.StorageInteger:
		if v, err := sqlitetype.DecodeInteger(a); err == nil {
			return v
		}
	case sqlitetype.StorageReal:
		if v, err := sqlitetype.DecodeReal(a); err == nil {
			return v
		}
	case sqlitetype.StorageText:
		if v, err := sqlitetype.DecodeText(a); err == nil {
			return v
		}
	}
	return a.Bytes
}

// Query runs sql (via Prepare's cache) bound to args and returns a lazy,
// forward-only row stream.
func (c *Conn) Query(ctx context.Context, query string, args ...typeinfo.RawValue) (*rows.Rows, error) {
	stmt, err := c.Prepare(ctx, query)
	if err != nil {
		return nil, err
	}
	anyArgs := argsToAny(args)
	val, err := c.submit(ctx, func(conn *sql.Conn) (any, error) {
		return stmt.QueryContext(ctx, anyArgs...)
	})
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "liteconn: executing query", err)
	}
	sqlRows := val.(*sql.Rows)
	colNames, err := sqlRows.Columns()
	if err != nil {
		sqlRows.Close()
		return nil, err
	}
	cols := make([]rows.Column, len(colNames))
	for i, name := range colNames {
		cols[i] = rows.Column{Name: name}
	}
	return rows.New(&liteSource{conn: c, rows: sqlRows, cols: cols}), nil
}

// Exec runs sql bound to args to completion, discarding any rows, and
// returns the affected-rows/last-insert-id command tag.
func (c *Conn) Exec(ctx context.Context, query string, args ...typeinfo.RawValue) (CommandTag, error) {
	stmt, err := c.Prepare(ctx, query)
	if err != nil {
		return CommandTag{}, err
	}
	anyArgs := argsToAny(args)
	val, err := c.submit(ctx, func(conn *sql.Conn) (any, error) {
		return stmt.ExecContext(ctx, anyArgs...)
	})
	if err != nil {
		return CommandTag{}, dberr.Wrap(dberr.KindIO, "liteconn: executing statement", err)
	}
	res := val.(sql.Result)
	affected, _ := res.RowsAffected()
	lastID, _ := res.LastInsertId()
	return CommandTag{RowsAffected: affected, LastInsertID: lastID}, nil
}

// liteSource implements rows.Source over a *sql.Rows, driving every
// Next/Scan call through the connection's worker goroutine so it is
// never touched concurrently with another command on the same
// connection.
type liteSource struct {
	conn      *Conn
	rows      *sql.Rows
	cols      []rows.Column
	exhausted bool
}

func (s *liteSource) Columns() []rows.Column { return s.cols }

func (s *liteSource) NextRow() ([]typeinfo.RawValue, bool, error) {
	if s.exhausted {
		return nil, false, nil
	}
	val, err := s.conn.submit(context.Background(), func(conn *sql.Conn) (any, error) {
		if !s.rows.Next() {
			return nil, s.rows.Err()
		}
		dest := make([]any, len(s.cols))
		ptrs := make([]any, len(dest))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := s.rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		return dest, nil
	})
	if err != nil {
		s.exhausted = true
		return nil, false, dberr.Wrap(dberr.KindIO, "liteconn: reading row", err)
	}
	if val == nil {
		s.exhausted = true
		s.rows.Close()
		return nil, false, nil
	}
	dest := val.([]any)
	values := make([]typeinfo.RawValue, len(dest))
	for i, v := range dest {
		values[i] = rawValueFromAny(v)
	}
	return values, true, nil
}

func (s *liteSource) Drain() error {
	for !s.exhausted {
		if _, ok, err := s.NextRow(); err != nil {
			return err
		} else if !ok {
			return nil
		}
	}
	return nil
}

// rawValueFromAny maps a database/sql-decoded Go value back to a
// typeinfo.RawValue tagged with the SQLite storage class it came from,
// per SQLite's dynamic per-value typing.
func rawValueFromAny(v any) typeinfo.RawValue {
	switch t := v.(type) {
	case nil:
		return typeinfo.RawValue{IsNull: true, Type: sqlitetype.Info{Storage: sqlitetype.StorageNull}}
	case int64:
		return sqlitetype.EncodeInteger(t)
	case float64:
		return sqlitetype.EncodeReal(t)
	case []byte:
		return sqlitetype.EncodeBlob(t)
	case string:
		return sqlitetype.EncodeText(t)
	case time.Time:
		return sqlitetype.EncodeText(t.Format(time.RFC3339Nano))
	case bool:
		if t {
			return sqlitetype.EncodeInteger(1)
		}
		return sqlitetype.EncodeInteger(0)
	default:
		return sqlitetype.EncodeText(fmt.Sprintf("%v", t))
	}
}
