package liteconn

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/stmtcache"
	"github.com/sqlcore/sqlcore/internal/transaction"
)

// State is the connection's lifecycle state, mirroring pgconn/myconn.
type State int

const (
	StateConnecting State = iota
	StateReady
	StateBusy
	StateBroken
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateBroken:
		return "broken"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config selects the SQLite database this connection opens.
type Config struct {
	// Path is a filesystem path, or ":memory:" for a private in-memory
	// database, or "file::memory:?cache=shared" for a shared one.
	Path               string
	StatementCacheSize int
}

// command is one unit of work handed to the connection's dedicated
// goroutine; fn runs with exclusive access to the underlying *sql.Conn.
type command struct {
	ctx    context.Context
	fn     func(conn *sql.Conn) (any, error)
	result chan<- commandResult
}

type commandResult struct {
	val any
	err error
}

// Conn drives one SQLite connection from a single dedicated goroutine,
// since the underlying engine (cgo or pure-Go) does not tolerate
// concurrent use of one connection handle. Callers submit work over a
// channel and receive the result the same way, the same discipline
// pgconn/myconn get for free from owning a single TCP connection.
type Conn struct {
	cfg Config
	db  *sql.DB
	sc  *sql.Conn

	state State
	stmts *stmtcache.Cache
	tx    *transaction.Manager

	cmds chan command
	quit chan struct{}
}

// Connect opens cfg.Path and starts the connection's worker goroutine.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	db, err := open(cfg.Path)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "liteconn: opening database", err)
	}
	sc, err := db.Conn(ctx)
	if err != nil {
		db.Close()
		return nil, dberr.Wrap(dberr.KindIO, "liteconn: reserving connection", err)
	}

	c := &Conn{
		cfg:   cfg,
		db:    db,
		sc:    sc,
		state: StateConnecting,
		stmts: stmtcache.New(cfg.StatementCacheSize),
		cmds:  make(chan command),
		quit:  make(chan struct{}),
	}
	c.tx = transaction.New(c)
	go c.loop()
	c.state = StateReady
	return c, nil
}

func (c *Conn) loop() {
	for {
		select {
		case cmd := <-c.cmds:
			val, err := cmd.fn(c.sc)
			cmd.result <- commandResult{val: val, err: err}
		case <-c.quit:
			return
		}
	}
}

// submit runs fn on the connection's dedicated goroutine and waits for
// its result, respecting ctx cancellation on both the handoff and the
// wait.
func (c *Conn) submit(ctx context.Context, fn func(conn *sql.Conn) (any, error)) (any, error) {
	resultCh := make(chan commandResult, 1)
	select {
	case c.cmds <- command{ctx: ctx, fn: fn, result: resultCh}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.quit:
		return nil, fmt.Errorf("liteconn: connection closed")
	}
	select {
	case r := <-resultCh:
		return r.val, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() State { return c.state }

// Ping is the cheapest liveness probe database/sql offers: PingContext
// on the reserved connection.
func (c *Conn) Ping(ctx context.Context) error {
	_, err := c.submit(ctx, func(conn *sql.Conn) (any, error) {
		return nil, conn.PingContext(ctx)
	})
	return err
}

// Begin opens a transaction scope on this connection, nesting via
// SAVEPOINT if one is already open.
func (c *Conn) Begin(ctx context.Context) (*transaction.Handle, error) {
	return c.tx.Begin(ctx)
}

// Close stops the worker goroutine, closes every cached prepared
// statement and the underlying connection/database handle.
func (c *Conn) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.state = StateClosed
	close(c.quit)

	for _, stmt := range c.stmts.Clear() {
		if s, ok := stmt.Handle.(*sql.Stmt); ok {
			s.Close()
		}
	}
	err := c.sc.Close()
	if dbErr := c.db.Close(); err == nil {
		err = dbErr
	}
	return err
}
