package sqlitex

import (
	"context"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/conn/liteconn"
	"github.com/sqlcore/sqlcore/internal/dbconfig"
	"github.com/sqlcore/sqlcore/internal/dbpool"
	"github.com/sqlcore/sqlcore/internal/rows"
)

// Pool is a pooled set of SQLite connections sharing one dsn, each with
// the DSN's PRAGMAs applied as it's dialed. Execute, Query, FetchOne,
// FetchAll and FetchOptional each transparently Acquire a connection, run
// the statement, and Return it.
type Pool struct {
	inner  *dbpool.Pool[*liteconn.Conn]
	target string
}

// Open parses dsn, resolves pool sizing against defaults (pass
// dbconfig.PoolDefaults{} to take the package's own ceiling defaults),
// and returns a ready-to-use Pool. The pool dials lazily; Open itself
// does not block on a connection.
func Open(ctx context.Context, dsn string, defaults dbconfig.PoolDefaults) (*Pool, error) {
	cc, err := dbconfig.FromDSN(dsn)
	if err != nil {
		return nil, err
	}
	cfg, opts, err := dialConfig(dsn)
	if err != nil {
		return nil, err
	}
	poolCfg := cc.PoolConfig(defaults)
	dial := func(ctx context.Context) (*liteconn.Conn, error) {
		c, err := liteconn.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := applyPragmas(ctx, c, opts); err != nil {
			c.Close()
			return nil, err
		}
		return c, nil
	}
	inner := dbpool.New("sqlite", dsn, poolCfg, dial)
	return &Pool{inner: inner, target: fmt.Sprintf("sqlite:%s", opts.Path)}, nil
}

// Target is an identifier (the database path) suitable for use as a
// metrics label or log field.
func (p *Pool) Target() string { return p.target }

// Stats snapshots the pool's current bookkeeping.
func (p *Pool) Stats() dbpool.Stats { return p.inner.Stats() }

// Close drains and closes every pooled connection.
func (p *Pool) Close() { p.inner.Close() }

// Acquire checks out a connection, blocking until one is available or ctx
// is done.
func (p *Pool) Acquire(ctx context.Context) (*PooledConn, error) {
	pc, err := p.inner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &PooledConn{pc: pc}, nil
}

// Begin acquires a connection and opens a transaction on it; the
// connection is returned to the pool when the Tx is committed or rolled
// back.
func (p *Pool) Begin(ctx context.Context) (*Tx, error) {
	pooled, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	h, err := pooled.pc.Conn().Begin(ctx)
	if err != nil {
		pooled.Release()
		return nil, err
	}
	return &Tx{conn: pooled.pc.Conn(), handle: h, release: pooled.Release}, nil
}

func (p *Pool) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer pc.Release()
	return pc.Execute(ctx, sql, args...)
}

func (p *Pool) Query(ctx context.Context, sql string, args ...any) (*rows.Rows, error) {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer pc.Release()
	return pc.Query(ctx, sql, args...)
}

func (p *Pool) FetchOne(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pc.Release()
	return pc.FetchOne(ctx, sql, scan, args...)
}

func (p *Pool) FetchAll(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pc.Release()
	return pc.FetchAll(ctx, sql, scan, args...)
}

func (p *Pool) FetchOptional(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) (bool, error) {
	pc, err := p.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer pc.Release()
	return pc.FetchOptional(ctx, sql, scan, args...)
}

// PooledConn is a connection checked out of a Pool. Release must be
// called exactly once to return it.
type PooledConn struct {
	pc *dbpool.PooledConn[*liteconn.Conn]
}

// Release returns the connection to its pool.
func (p *PooledConn) Release() { p.pc.Return() }

// Begin opens a transaction scope on this checked-out connection. The
// caller still owns releasing the PooledConn itself once the Tx closes.
func (p *PooledConn) Begin(ctx context.Context) (*Tx, error) {
	h, err := p.pc.Conn().Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &Tx{conn: p.pc.Conn(), handle: h}, nil
}

func (p *PooledConn) Execute(ctx context.Context, sql string, args ...any) (int64, error) {
	return execute(ctx, p.pc.Conn(), sql, args)
}

func (p *PooledConn) Query(ctx context.Context, sql string, args ...any) (*rows.Rows, error) {
	return query(ctx, p.pc.Conn(), sql, args)
}

func (p *PooledConn) FetchOne(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	return fetchOne(ctx, p.pc.Conn(), sql, scan, args)
}

func (p *PooledConn) FetchAll(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error {
	return fetchAll(ctx, p.pc.Conn(), sql, scan, args)
}

func (p *PooledConn) FetchOptional(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) (bool, error) {
	return fetchOptional(ctx, p.pc.Conn(), sql, scan, args)
}
