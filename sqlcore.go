// Package sqlcore is the Any-driver facade: a thin router over whichever
// of pgx, mysqlx, sqlitex the caller has blank-imported. Per spec.md §9
// the monomorphic Executor interface each driver package exposes is the
// real API — Connect here exists only for callers who don't know which
// wire protocol they're talking to until a connection string arrives at
// runtime (a multi-tenant proxy, a CLI that takes --dsn, a config file).
// Everything it does is delegate to internal/registry; it adds no
// abstractions of its own.
package sqlcore

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/registry"
)

// Database is the uniform surface Connect returns: Execute/FetchOne/
// FetchAll/FetchOptional plus Close, dispatched to whichever driver
// actually opened the connection. Re-exported from internal/registry so
// callers never need to import that package directly.
type Database = registry.Database

// Row is the type-erased single-row result FetchOne/FetchAll/
// FetchOptional hand back.
type Row = registry.Row

// Connect parses dsn's scheme, looks up the driver registered under
// that name, and opens it. Returns an error wrapping dberr.KindConfiguration
// if no driver has registered under the dsn's scheme — typically because
// the caller forgot to blank-import the matching driver package
// (_ "github.com/sqlcore/sqlcore/pgx", _ "github.com/sqlcore/sqlcore/mysqlx",
// _ "github.com/sqlcore/sqlcore/sqlitex").
func Connect(ctx context.Context, dsn string) (Database, error) {
	name, err := schemeOf(dsn)
	if err != nil {
		return nil, err
	}
	factory, ok := registry.Lookup(name)
	if !ok {
		return nil, dberr.New(dberr.KindConfiguration, fmt.Sprintf(
			"sqlcore: no driver registered for scheme %q; blank-import the matching driver package", name))
	}
	return factory(ctx, dsn)
}

// Drivers returns the name of every driver package currently registered
// (i.e. blank-imported) in this process, useful for a startup log line
// or a diagnostics endpoint.
func Drivers() []string { return registry.Names() }

func schemeOf(dsn string) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", dberr.Wrap(dberr.KindConfiguration, "sqlcore: parsing connection string", err)
	}
	if u.Scheme == "" {
		return "", dberr.New(dberr.KindConfiguration, "sqlcore: connection string has no scheme")
	}
	return u.Scheme, nil
}
