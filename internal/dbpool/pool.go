// Package dbpool implements a generic connection pool, one instance per
// (driver, DSN) pair, shared by the pgx/mysqlx/sqlitex driver packages.
//
// It generalizes the idle-LIFO + sync.Cond-waiter + background-reaper
// design of a single-tenant TCP proxy pool to "one pool per driver
// connection type", parameterized over the connection itself so each
// driver package can instantiate Pool[*pgconn.Conn], Pool[*myconn.Conn]
// or Pool[*liteconn.Conn] without type assertions on the hot path.
package dbpool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sqlcore/sqlcore/internal/dberr"
)

// Conn is what dbpool needs from a driver connection: a liveness probe
// and a way to tear it down. Driver connection types (pgconn.Conn,
// myconn.Conn, liteconn.Conn) satisfy this with their own Ping/Close.
type Conn interface {
	Ping(ctx context.Context) error
	Close() error
}

// Config holds the pool sizing and timing knobs. Zero-value fields fall
// back to the package defaults applied by New.
type Config struct {
	MinConns       int
	MaxConns       int
	IdleTimeout    time.Duration
	MaxLifetime    time.Duration
	AcquireTimeout time.Duration
	DialTimeout    time.Duration
}

const (
	defaultMaxConns       = 10
	defaultAcquireTimeout = 30 * time.Second
	defaultDialTimeout    = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.MaxConns <= 0 {
		c.MaxConns = defaultMaxConns
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = defaultAcquireTimeout
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = defaultDialTimeout
	}
	return c
}

// Stats is a point-in-time snapshot of a pool's bookkeeping.
type Stats struct {
	Driver    string
	DSN       string
	Active    int
	Idle      int
	Total     int
	Waiting   int
	MaxConns  int
	MinConns  int
	Exhausted int64
}

// OnExhausted is invoked (outside the pool's lock) every time Acquire
// finds the pool at MaxConns and must wait for a connection to free up.
type OnExhausted func(driver, dsn string)

// pooled wraps one live connection with the bookkeeping timestamps the
// reaper and lifetime checks need.
type pooled[T Conn] struct {
	conn      T
	createdAt time.Time
	lastUsed  time.Time
}

func (p *pooled[T]) isExpired(maxLifetime time.Duration) bool {
	return maxLifetime > 0 && time.Since(p.createdAt) > maxLifetime
}

func (p *pooled[T]) isIdleExpired(idleTimeout time.Duration) bool {
	return idleTimeout > 0 && time.Since(p.lastUsed) > idleTimeout
}

// Pool is a generic, per-(driver, DSN) connection pool: a LIFO idle
// stack, a sync.Cond for waiters, and background reap/warm-up loops.
type Pool[T Conn] struct {
	driver string
	dsn    string
	cfg    Config
	dial   func(ctx context.Context) (T, error)

	mu      sync.Mutex
	cond    *sync.Cond
	idle    []*pooled[T]
	active  map[*pooled[T]]struct{}
	total   int
	waiting int

	exhausted   int64
	closed      bool
	stopCh      chan struct{}
	onExhausted OnExhausted
}

// New creates a pool for driver/dsn. dial establishes one new connection
// already authenticated and ready for queries; it is called with a
// context carrying cfg.DialTimeout.
func New[T Conn](driver, dsn string, cfg Config, dial func(ctx context.Context) (T, error)) *Pool[T] {
	p := &Pool[T]{
		driver: driver,
		dsn:    dsn,
		cfg:    cfg.withDefaults(),
		dial:   dial,
		active: make(map[*pooled[T]]struct{}),
		stopCh: make(chan struct{}),
	}
	p.cond = sync.NewCond(&p.mu)

	go p.reapLoop()
	if p.cfg.MinConns > 0 {
		go p.warmUp()
	}
	return p
}

// SetOnExhausted installs the exhaustion callback. Not safe to call once
// Acquire has been invoked concurrently.
func (p *Pool[T]) SetOnExhausted(cb OnExhausted) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onExhausted = cb
}

// PooledConn is a connection checked out of a Pool. Callers must call
// Return (typically via a defer) exactly once to hand it back.
type PooledConn[T Conn] struct {
	pool *Pool[T]
	ent  *pooled[T]
}

// Conn returns the underlying driver connection.
func (pc *PooledConn[T]) Conn() T { return pc.ent.conn }

// Return releases the connection back to its pool.
func (pc *PooledConn[T]) Return() { pc.pool.release(pc.ent) }

// Acquire returns an idle connection if one is available and healthy,
// dials a new one if the pool is under MaxConns, or waits for a Return
// (or ctx/AcquireTimeout expiry) otherwise.
func (p *Pool[T]) Acquire(ctx context.Context) (*PooledConn[T], error) {
	deadline := time.Now().Add(p.cfg.AcquireTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	p.mu.Lock()
	for {
		select {
		case <-ctx.Done():
			p.mu.Unlock()
			return nil, ctx.Err()
		default:
		}

		if p.closed {
			p.mu.Unlock()
			return nil, dberr.New(dberr.KindPoolClosed, fmt.Sprintf("dbpool: pool closed for %s %s", p.driver, p.dsn))
		}

		for len(p.idle) > 0 {
			ent := p.idle[len(p.idle)-1]
			p.idle = p.idle[:len(p.idle)-1]

			if ent.isExpired(p.cfg.MaxLifetime) {
				ent.conn.Close()
				p.total--
				continue
			}
			if err := ent.conn.Ping(ctx); err != nil {
				ent.conn.Close()
				p.total--
				continue
			}
			ent.lastUsed = time.Now()
			p.active[ent] = struct{}{}
			p.mu.Unlock()
			return &PooledConn[T]{pool: p, ent: ent}, nil
		}

		if p.total < p.cfg.MaxConns {
			p.total++
			p.mu.Unlock()

			dialCtx, cancel := context.WithTimeout(ctx, p.cfg.DialTimeout)
			conn, err := p.dial(dialCtx)
			cancel()
			if err != nil {
				p.mu.Lock()
				p.total--
				p.mu.Unlock()
				return nil, dberr.Wrap(dberr.KindIO, fmt.Sprintf("dbpool: dialing %s %s", p.driver, p.dsn), err)
			}

			now := time.Now()
			ent := &pooled[T]{conn: conn, createdAt: now, lastUsed: now}
			p.mu.Lock()
			p.active[ent] = struct{}{}
			p.mu.Unlock()
			return &PooledConn[T]{pool: p, ent: ent}, nil
		}

		p.waiting++
		p.exhausted++
		cb := p.onExhausted
		p.mu.Unlock()

		if cb != nil {
			cb(p.driver, p.dsn)
		}

		p.mu.Lock()
		remaining := time.Until(deadline)
		if remaining <= 0 {
			p.waiting--
			p.mu.Unlock()
			return nil, dberr.New(dberr.KindPoolTimedOut, fmt.Sprintf("dbpool: acquire timeout (%s) for %s %s", p.cfg.AcquireTimeout, p.driver, p.dsn))
		}

		timer := time.AfterFunc(remaining, p.cond.Broadcast)
		p.cond.Wait() // releases p.mu, reacquires before returning
		timer.Stop()

		p.waiting--
		if p.closed {
			p.mu.Unlock()
			return nil, dberr.New(dberr.KindPoolClosed, fmt.Sprintf("dbpool: pool closing for %s %s", p.driver, p.dsn))
		}
		if time.Now().After(deadline) {
			p.mu.Unlock()
			return nil, dberr.New(dberr.KindPoolTimedOut, fmt.Sprintf("dbpool: acquire timeout (%s) for %s %s", p.cfg.AcquireTimeout, p.driver, p.dsn))
		}
		// retry from the top, p.mu still held
	}
}

// release returns ent to the idle stack, or closes it outright if the
// pool has been closed or the connection has outlived MaxLifetime.
// Signal (never Broadcast) wakes exactly one waiter, avoiding a
// thundering herd where N-1 woken goroutines just go back to sleep.
func (p *Pool[T]) release(ent *pooled[T]) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.active, ent)

	if p.closed || ent.isExpired(p.cfg.MaxLifetime) {
		ent.conn.Close()
		p.total--
		p.cond.Signal()
		return
	}

	ent.lastUsed = time.Now()
	p.idle = append(p.idle, ent)
	p.cond.Signal()
}

// Stats returns a snapshot of the pool's current bookkeeping.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Driver:    p.driver,
		DSN:       p.dsn,
		Active:    len(p.active),
		Idle:      len(p.idle),
		Total:     p.total,
		Waiting:   p.waiting,
		MaxConns:  p.cfg.MaxConns,
		MinConns:  p.cfg.MinConns,
		Exhausted: p.exhausted,
	}
}

// Drain closes every idle connection immediately and waits (with a
// bounded timeout) for active connections to be returned, force-closing
// whatever's left once the timeout elapses.
func (p *Pool[T]) Drain() {
	p.mu.Lock()
	for _, ent := range p.idle {
		ent.conn.Close()
		p.total--
	}
	p.idle = p.idle[:0]
	activeCount := len(p.active)
	p.mu.Unlock()

	if activeCount == 0 {
		return
	}

	slog.Info("dbpool: draining active connections", "count", activeCount, "driver", p.driver, "dsn", p.dsn)
	timeout := time.After(30 * time.Second)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.mu.Lock()
			if len(p.active) == 0 {
				p.mu.Unlock()
				return
			}
			p.mu.Unlock()
		case <-timeout:
			p.mu.Lock()
			for ent := range p.active {
				ent.conn.Close()
				p.total--
			}
			p.active = make(map[*pooled[T]]struct{})
			p.mu.Unlock()
			slog.Warn("dbpool: force-closed active connections after drain timeout", "driver", p.driver, "dsn", p.dsn)
			return
		}
	}
}

// Close stops the pool's background loops and drains it. Safe to call
// more than once.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.stopCh)
	p.cond.Broadcast() // wake every Acquire waiter so it sees p.closed
	p.mu.Unlock()

	p.Drain()
}

func (p *Pool[T]) reapLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.reapIdle()
		case <-p.stopCh:
			return
		}
	}
}

// reapIdle closes idle connections beyond MinConns that are either
// idle-timed-out or lifetime-expired, oldest first, preserving the
// newest MinConns idle entries at the back of the stack.
func (p *Pool[T]) reapIdle() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.idle) <= p.cfg.MinConns {
		return
	}
	excess := len(p.idle) - p.cfg.MinConns
	kept := make([]*pooled[T], 0, len(p.idle))
	for i, ent := range p.idle {
		if i < excess && (ent.isIdleExpired(p.cfg.IdleTimeout) || ent.isExpired(p.cfg.MaxLifetime)) {
			ent.conn.Close()
			p.total--
		} else {
			kept = append(kept, ent)
		}
	}
	p.idle = kept
}

// warmUp pre-dials MinConns idle connections right after construction
// so the first callers don't pay dial latency.
func (p *Pool[T]) warmUp() {
	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.DialTimeout*time.Duration(p.cfg.MinConns+1))
	defer cancel()

	for i := 0; i < p.cfg.MinConns; i++ {
		p.mu.Lock()
		if p.closed || p.total >= p.cfg.MaxConns {
			p.mu.Unlock()
			return
		}
		p.total++
		p.mu.Unlock()

		conn, err := p.dial(ctx)
		if err != nil {
			slog.Warn("dbpool: warm-up dial failed", "driver", p.driver, "dsn", p.dsn, "err", err)
			p.mu.Lock()
			p.total--
			p.mu.Unlock()
			return
		}

		now := time.Now()
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			conn.Close()
			return
		}
		p.idle = append(p.idle, &pooled[T]{conn: conn, createdAt: now, lastUsed: now})
		p.cond.Signal()
		p.mu.Unlock()
	}
}
