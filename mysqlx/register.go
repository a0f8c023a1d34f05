package mysqlx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sqlcore/sqlcore/internal/dbconfig"
	"github.com/sqlcore/sqlcore/internal/registry"
	"github.com/sqlcore/sqlcore/internal/rows"
)

// database adapts Pool to internal/registry's type-erased Database, the
// surface the Any-driver facade in the root sqlcore.go dispatches through.
// It is deliberately the thin, secondary surface — Pool/Conn/Tx's own
// Executor methods above are the real API.
type database struct {
	pool *Pool
}

func (d *database) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	return d.pool.Execute(ctx, sql, args...)
}

func (d *database) FetchOne(ctx context.Context, sql string, args ...any) (registry.Row, error) {
	row, found, err := d.fetchOptionalRow(ctx, sql, args)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("mysqlx: FetchOne: no rows returned")
	}
	return row, nil
}

func (d *database) FetchAll(ctx context.Context, sql string, args ...any) ([]registry.Row, error) {
	pc, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()
	r, err := pc.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var out []registry.Row
	for r.Next() {
		row, err := captureRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, r.Err()
}

func (d *database) FetchOptional(ctx context.Context, sql string, args ...any) (registry.Row, bool, error) {
	return d.fetchOptionalRow(ctx, sql, args)
}

func (d *database) fetchOptionalRow(ctx context.Context, sql string, args []any) (registry.Row, bool, error) {
	pc, err := d.pool.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}
	defer pc.Release()
	r, err := pc.Query(ctx, sql, args...)
	if err != nil {
		return nil, false, err
	}
	defer r.Close()
	if !r.Next() {
		return nil, false, r.Err()
	}
	row, err := captureRow(r)
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func (d *database) Close() error {
	d.pool.Close()
	return nil
}

// bufferedRow is a fully materialized row: every column copied out as a
// nilable string before the connection it was read over went back to the
// pool. Scan accepts *string/**string/*[]byte/**[]byte destinations — the
// Any-driver facade has no way to know a query's column types ahead of
// time, so unlike Pool/Conn/Tx's Scan it can't offer typed decoding via
// mysqlx.ScanTime/mysqlx.ScanInt64/etc.
type bufferedRow struct {
	cols []rows.Column
	vals []*string
}

func captureRow(r *rows.Rows) (*bufferedRow, error) {
	cols := r.Columns()
	ptrs := make([]*string, len(cols))
	dests := make([]any, len(cols))
	for i := range ptrs {
		dests[i] = &ptrs[i]
	}
	if err := r.Scan(dests...); err != nil {
		return nil, err
	}
	return &bufferedRow{cols: cols, vals: ptrs}, nil
}

func (r *bufferedRow) Scan(dest ...any) error {
	if len(dest) != len(r.vals) {
		return fmt.Errorf("mysqlx: Scan called with %d destinations, row has %d columns", len(dest), len(r.vals))
	}
	for i, d := range dest {
		v := r.vals[i]
		switch dp := d.(type) {
		case *string:
			if v == nil {
				return fmt.Errorf("mysqlx: column %q is NULL; scan into **string instead", r.cols[i].Name)
			}
			*dp = *v
		case **string:
			*dp = v
		case *[]byte:
			if v == nil {
				return fmt.Errorf("mysqlx: column %q is NULL; scan into **[]byte instead", r.cols[i].Name)
			}
			*dp = []byte(*v)
		case **[]byte:
			if v == nil {
				*dp = nil
			} else {
				b := []byte(*v)
				*dp = &b
			}
		default:
			return fmt.Errorf("mysqlx: Any-driver Scan supports only *string/**string/*[]byte/**[]byte destinations, got %T for column %q", d, r.cols[i].Name)
		}
	}
	return nil
}

func init() {
	factory := func(ctx context.Context, dsn string) (registry.Database, error) {
		pool, err := Open(ctx, dsn, dbconfig.PoolDefaults{})
		if err != nil {
			return nil, err
		}
		return &database{pool: pool}, nil
	}
	if err := registry.Register("mysql", factory); err != nil {
		slog.Error("mysqlx: failed to register with the Any-driver facade", "name", "mysql", "error", err)
	}
}
