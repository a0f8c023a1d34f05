package sqlitex

import (
	"context"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/conn/liteconn"
	"github.com/sqlcore/sqlcore/internal/dburl"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/transaction"
)

const defaultStatementCacheSize = 128

// Conn is a single SQLite connection. Most callers want Pool instead;
// Conn exists for one-off scripts and for Pool's own dial func. Unlike
// Postgres/MySQL, "Pool" here still means one goroutine per connection
// each owning its own *sql.Conn — SQLite's single-writer model makes a
// pool of more than one connection mostly useful for concurrent readers.
type Conn struct {
	c *liteconn.Conn
}

// Connect parses dsn (a sqlite://... URL or "sqlite::memory:") and opens
// a single connection, applying any PRAGMAs the DSN named before
// returning, bypassing the pool entirely.
func Connect(ctx context.Context, dsn string) (*Conn, error) {
	cfg, opts, err := dialConfig(dsn)
	if err != nil {
		return nil, err
	}
	c, err := liteconn.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := applyPragmas(ctx, c, opts); err != nil {
		c.Close()
		return nil, err
	}
	return &Conn{c: c}, nil
}

// dialConfig parses dsn into a liteconn.Config plus the parsed options
// (applyPragmas reads the rest of the options back out of the same
// parse once the connection is open).
func dialConfig(dsn string) (liteconn.Config, *dburl.SQLiteOptions, error) {
	parsed, err := dburl.Parse(dsn)
	if err != nil {
		return liteconn.Config{}, nil, err
	}
	if parsed.Driver != dburl.DriverSQLite {
		return liteconn.Config{}, nil, fmt.Errorf("sqlitex: dsn scheme is %q, not sqlite", parsed.Driver)
	}
	lite := parsed.SQLite
	cfg := liteconn.Config{
		Path:               lite.Path,
		StatementCacheSize: defaultStatementCacheSize,
	}
	return cfg, lite, nil
}

// applyPragmas issues PRAGMA statements for every setting dburl.Parse
// recognized on the connection string, plus any unrecognized query
// parameter as a literal PRAGMA name=value — the same passthrough
// dburl.SQLiteOptions.Pragmas documents.
func applyPragmas(ctx context.Context, c *liteconn.Conn, opts *dburl.SQLiteOptions) error {
	if opts.JournalMode != "" {
		if err := c.ExecSQL(ctx, fmt.Sprintf("PRAGMA journal_mode = %s", opts.JournalMode)); err != nil {
			return err
		}
	}
	if opts.Synchronous != "" {
		if err := c.ExecSQL(ctx, fmt.Sprintf("PRAGMA synchronous = %s", opts.Synchronous)); err != nil {
			return err
		}
	}
	if opts.ForeignKeys {
		if err := c.ExecSQL(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return err
		}
	}
	if opts.BusyTimeout > 0 {
		if err := c.ExecSQL(ctx, fmt.Sprintf("PRAGMA busy_timeout = %d", opts.BusyTimeout.Milliseconds())); err != nil {
			return err
		}
	}
	for name, value := range opts.Pragmas {
		if err := c.ExecSQL(ctx, fmt.Sprintf("PRAGMA %s = %s", name, value)); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the connection.
func (c *Conn) Close() error { return c.c.Close() }

// Ping round-trips a liveness probe.
func (c *Conn) Ping(ctx context.Context) error { return c.c.Ping(ctx) }

// Begin opens a transaction scope on this connection.
func (c *Conn) Begin(ctx context.Context) (*Tx, error) {
	h, err := c.c.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{conn: c.c, handle: h}, nil
}

func (c *Conn) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	return execute(ctx, c.c, sql, args)
}

func (c *Conn) Query(ctx context.Context, sql string, args ...any) (*rows.Rows, error) {
	return query(ctx, c.c, sql, args)
}

func (c *Conn) FetchOne(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	return fetchOne(ctx, c.c, sql, scan, args)
}

func (c *Conn) FetchAll(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	return fetchAll(ctx, c.c, sql, scan, args)
}

func (c *Conn) FetchOptional(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) (bool, error) {
	return fetchOptional(ctx, c.c, sql, scan, args)
}

// Tx is an open transaction scope. Commit or Rollback must be called
// exactly once; a Tx obtained from a PooledConn leaves the underlying
// connection checked out until then.
type Tx struct {
	conn    *liteconn.Conn
	handle  *transaction.Handle
	release func()
}

func (t *Tx) Commit(ctx context.Context) error {
	err := t.handle.Commit(ctx)
	if t.release != nil {
		t.release()
	}
	return err
}

func (t *Tx) Rollback(ctx context.Context) error {
	err := t.handle.Rollback(ctx)
	if t.release != nil {
		t.release()
	}
	return err
}

func (t *Tx) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	return execute(ctx, t.conn, sql, args)
}

func (t *Tx) Query(ctx context.Context, sql string, args ...any) (*rows.Rows, error) {
	return query(ctx, t.conn, sql, args)
}

func (t *Tx) FetchOne(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	return fetchOne(ctx, t.conn, sql, scan, args)
}

func (t *Tx) FetchAll(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	return fetchAll(ctx, t.conn, sql, scan, args)
}

func (t *Tx) FetchOptional(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) (bool, error) {
	return fetchOptional(ctx, t.conn, sql, scan, args)
}
