// Package registry is the Any-driver facade's installation table: each
// driver subpackage (pgx, mysqlx, sqlitex) registers a DriverFactory
// under its own blank-import init(), and the root sqlcore.go routes a
// connection string to whichever factory matches. Per spec.md §9, this
// is deliberately a thin router, never a source of the core's own
// abstractions — the monomorphic Executor interface each driver package
// exposes is the real API; Database/Row below exist only so the Any
// facade has something uniform to dispatch through.
package registry

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Row is the type-erased result of a single-row fetch through the Any
// facade.
type Row interface {
	Scan(dest ...any) error
}

// Database is the minimal uniform surface every driver package's
// connection pool adapts itself to for Any-driver dispatch.
type Database interface {
	Execute(ctx context.Context, sql string, args ...any) (RowsAffected int64, err error)
	FetchOne(ctx context.Context, sql string, args ...any) (Row, error)
	FetchAll(ctx context.Context, sql string, args ...any) ([]Row, error)
	FetchOptional(ctx context.Context, sql string, args ...any) (Row, bool, error)
	Close() error
}

// DriverFactory opens a Database for a connection string already
// confirmed (by its scheme) to belong to this driver.
type DriverFactory func(ctx context.Context, dsn string) (Database, error)

type registrySnapshot struct {
	factories map[string]DriverFactory
}

// registry holds every installed driver factory behind an atomic.Value
// snapshot, the same lock-free-read/copy-on-write-mutate shape the
// teacher's router.Router uses for its tenant table — reads from
// Connect are on the hot path, writes happen only at process startup.
var (
	snap    atomic.Value // holds *registrySnapshot
	writeMu sync.Mutex
)

func init() {
	snap.Store(&registrySnapshot{factories: make(map[string]DriverFactory)})
}

func load() *registrySnapshot {
	return snap.Load().(*registrySnapshot)
}

// Register installs factory under name. Per spec.md §9
// "initialization-once": a second Register call for a name already
// taken returns an error instead of silently overwriting it. Intended
// to be called from a driver subpackage's init().
func Register(name string, factory DriverFactory) error {
	writeMu.Lock()
	defer writeMu.Unlock()

	cur := load()
	if _, exists := cur.factories[name]; exists {
		return fmt.Errorf("registry: driver %q already registered", name)
	}

	next := make(map[string]DriverFactory, len(cur.factories)+1)
	for k, v := range cur.factories {
		next[k] = v
	}
	next[name] = factory
	snap.Store(&registrySnapshot{factories: next})
	return nil
}

// Lookup returns the factory registered under name, if any.
func Lookup(name string) (DriverFactory, bool) {
	f, ok := load().factories[name]
	return f, ok
}

// Names returns every currently registered driver name.
func Names() []string {
	cur := load()
	out := make([]string, 0, len(cur.factories))
	for name := range cur.factories {
		out = append(out, name)
	}
	return out
}
