package mysqlx

import (
	"context"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/conn/myconn"
	"github.com/sqlcore/sqlcore/internal/dburl"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/transaction"
)

const defaultStatementCacheSize = 128

// Conn is a single, unpooled MySQL/MariaDB connection. Most callers want
// Pool instead; Conn exists for one-off scripts and for Pool's own dial
// func.
type Conn struct {
	c *myconn.Conn
}

// Connect parses dsn (a mysql://... URL) and opens a single connection,
// bypassing the pool entirely.
func Connect(ctx context.Context, dsn string) (*Conn, error) {
	cfg, _, err := dialConfig(dsn)
	if err != nil {
		return nil, err
	}
	c, err := myconn.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Conn{c: c}, nil
}

// dialConfig parses dsn into a myconn.Config plus the parsed options
// (callers that also need pool sizing read the options back out via
// dbconfig rather than re-parsing the DSN).
func dialConfig(dsn string) (myconn.Config, *dburl.MySQLOptions, error) {
	opts, err := dburl.Parse(dsn)
	if err != nil {
		return myconn.Config{}, nil, err
	}
	if opts.Driver != dburl.DriverMySQL {
		return myconn.Config{}, nil, fmt.Errorf("mysqlx: dsn scheme is %q, not mysql", opts.Driver)
	}
	my := opts.MySQL
	cacheSize := my.StatementCacheCapacity
	if cacheSize <= 0 {
		cacheSize = defaultStatementCacheSize
	}
	host := my.Host
	if my.Socket != "" {
		host = my.Socket
	}
	cfg := myconn.Config{
		Host:               host,
		Port:               fmt.Sprintf("%d", my.Port),
		User:               my.User,
		Password:           my.Password,
		Database:           my.Database,
		TLSConfig:          tlsConfigFor(my),
		StatementCacheSize: cacheSize,
	}
	return cfg, my, nil
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
	conn    *myconn.Conn
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
