// Package transaction implements the nested-transaction depth bookkeeping
// shared by every driver: BEGIN/SAVEPOINT at depth > 0, COMMIT/RELEASE
// SAVEPOINT, ROLLBACK/ROLLBACK TO, and a best-effort finalizer safety net
// for transactions dropped without an explicit Commit or Rollback.
package transaction

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Executor is implemented by the driver connection a Manager drives:
// ExecSQL runs a statement that returns no rows (BEGIN, COMMIT, SAVEPOINT
// ...).
type Executor interface {
	ExecSQL(ctx context.Context, sql string) error
}

// Manager tracks nested-transaction depth for a single connection.
// Depth 0 means no transaction is open. Depth 1 is the outermost BEGIN;
// every deeper Begin call issues a SAVEPOINT instead, named
// `_sqlcore_savepoint_<depth>` so it cannot collide with an
// application-chosen savepoint name.
type Manager struct {
	mu    sync.Mutex
	depth int
	exec  Executor
}

// New creates a Manager driving exec.
func New(exec Executor) *Manager {
	return &Manager{exec: exec}
}

// Depth returns the current nesting depth (0 = no open transaction).
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.depth
}

func savepointName(depth int) string {
	return fmt.Sprintf("_sqlcore_savepoint_%d", depth)
}

// Handle represents one (possibly nested) transaction scope. Exactly one
// of Commit or Rollback must be called to close it; failing to do either
// before the Handle is garbage collected triggers a best-effort rollback
// via a runtime finalizer (a safety net, not the primary contract — Go
// offers no deterministic destructor, so GC timing governs how soon an
// abandoned transaction is cleaned up).
type Handle struct {
	mgr    *Manager
	depth  int // this handle's own depth (1 = outermost)
	closed bool
}

// Begin opens a new transaction scope, nesting via SAVEPOINT if one is
// already open.
func (m *Manager) Begin(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth++
	depth := m.depth
	var sql string
	if depth == 1 {
		sql = "BEGIN"
	} else {
		sql = "SAVEPOINT " + savepointName(depth)
	}
	if err := m.exec.ExecSQL(ctx, sql); err != nil {
		m.depth--
		return nil, err
	}
	h := &Handle{mgr: m, depth: depth}
	runtime.SetFinalizer(h, finalizeHandle)
	return h, nil
}

func finalizeHandle(h *Handle) {
	if h.closed {
		return
	}
	slog.Warn("transaction dropped without Commit or Rollback; rolling back as a safety net", "depth", h.depth)
	_ = h.Rollback(context.Background())
}

// Commit closes this transaction scope: COMMIT at depth 1, RELEASE
// SAVEPOINT at deeper scopes. Committing any scope other than the
// innermost-open one is an error — scopes must close in LIFO order.
func (h *Handle) Commit(ctx context.Context) error {
	h.mgr.mu.Lock()
	defer h.mgr.mu.Unlock()
	if h.closed {
		return fmt.Errorf("transaction: Commit called on an already-closed handle")
	}
	if h.depth != h.mgr.depth {
		return fmt.Errorf("transaction: scopes must be closed innermost-first (this handle is at depth %d, current depth is %d)", h.depth, h.mgr.depth)
	}
	var sql string
	if h.depth == 1 {
		sql = "COMMIT"
	} else {
		sql = "RELEASE SAVEPOINT " + savepointName(h.depth)
	}
	if err := h.mgr.exec.ExecSQL(ctx, sql); err != nil {
		return err
	}
	h.mgr.depth--
	h.closed = true
	runtime.SetFinalizer(h, nil)
	return nil
}

// Rollback closes this transaction scope: ROLLBACK at depth 1, ROLLBACK
// TO SAVEPOINT at deeper scopes. Rollback is idempotent — calling it on
// an already-closed handle is a no-op, which lets the finalizer safety
// net call it unconditionally.
func (h *Handle) Rollback(ctx context.Context) error {
	h.mgr.mu.Lock()
	defer h.mgr.mu.Unlock()
	if h.closed {
		return nil
	}
	var sql string
	if h.depth == 1 {
		sql = "ROLLBACK"
	} else {
		sql = "ROLLBACK TO SAVEPOINT " + savepointName(h.depth)
	}
	err := h.mgr.exec.ExecSQL(ctx, sql)
	if h.depth == h.mgr.depth {
		h.mgr.depth--
	}
	h.closed = true
	runtime.SetFinalizer(h, nil)
	return err
}
