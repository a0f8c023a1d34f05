// Command sqlcore-example is a small, runnable demonstration of the
// library: it opens a driver-specific pool directly (the recommended,
// monomorphic way to use sqlcore), runs a handful of statements, then
// demonstrates the opt-in Any-driver facade against the same DSN.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/sqlcore/sqlcore"
	"github.com/sqlcore/sqlcore/internal/dbconfig"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/mysqlx"
	"github.com/sqlcore/sqlcore/pgx"
	"github.com/sqlcore/sqlcore/sqlitex"
)

func main() {
	dsn := flag.String("dsn", "sqlite::memory:", "connection string (postgres://, mysql://, or sqlite:)")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Printf("sqlcore-example starting against %s", *dsn)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := runMonomorphic(ctx, *dsn); err != nil {
		log.Fatalf("monomorphic example failed: %v", err)
	}
	if err := runAnyDriver(ctx, *dsn); err != nil {
		log.Fatalf("Any-driver example failed: %v", err)
	}

	log.Printf("sqlcore-example done")
}

// runMonomorphic picks the driver package matching the dsn's scheme at
// compile time and uses its Executor directly — no interface dispatch,
// no registry lookup. This is the path most callers should take.
func runMonomorphic(ctx context.Context, dsn string) error {
	switch scheme(dsn) {
	case "postgres", "postgresql":
		pool, err := pgx.Open(ctx, dsn, dbconfig.PoolDefaults{})
		if err != nil {
			return err
		}
		defer pool.Close()
		return demo(ctx, pool)
	case "mysql":
		pool, err := mysqlx.Open(ctx, dsn, dbconfig.PoolDefaults{})
		if err != nil {
			return err
		}
		defer pool.Close()
		return demo(ctx, pool)
	case "sqlite":
		pool, err := sqlitex.Open(ctx, dsn, dbconfig.PoolDefaults{})
		if err != nil {
			return err
		}
		defer pool.Close()
		return demo(ctx, pool)
	default:
		log.Printf("unrecognized scheme %q, skipping monomorphic demo", scheme(dsn))
		return nil
	}
}

// executor is the shape every driver package's Pool satisfies; it's
// declared here, not imported from a driver package, to show that a
// caller writing generic helper code needs nothing beyond the method set
// each package already documents as its Executor interface.
type executor interface {
	Execute(ctx context.Context, sql string, args ...any) (int64, error)
	FetchAll(ctx context.Context, sql string, scan func(*rows.Rows) error, args ...any) error
}

func demo(ctx context.Context, pool executor) error {
	if _, err := pool.Execute(ctx, "CREATE TABLE IF NOT EXISTS greetings (id INTEGER PRIMARY KEY, message TEXT)"); err != nil {
		return err
	}
	if _, err := pool.Execute(ctx, "INSERT INTO greetings (id, message) VALUES (1, 'hello from sqlcore')"); err != nil {
		return err
	}
	return pool.FetchAll(ctx, "SELECT message FROM greetings", func(r *rows.Rows) error {
		var message string
		if err := r.Scan(&message); err != nil {
			return err
		}
		log.Printf("greeting: %s", message)
		return nil
	})
}

// runAnyDriver shows the opt-in runtime-dispatch facade: the driver
// packages are blank-imported above purely for their init()-time
// registry.Register side effect, and sqlcore.Connect picks among them by
// the dsn's scheme at runtime instead of at compile time.
func runAnyDriver(ctx context.Context, dsn string) error {
	db, err := sqlcore.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.Execute(ctx, "INSERT INTO greetings (id, message) VALUES (2, 'hello from the Any-driver facade')")
	if err != nil {
		return err
	}
	log.Printf("Any-driver insert affected %d row(s); registered drivers: %v", n, sqlcore.Drivers())
	return nil
}

func scheme(dsn string) string {
	for i := 0; i < len(dsn); i++ {
		if dsn[i] == ':' {
			return dsn[:i]
		}
	}
	return ""
}
