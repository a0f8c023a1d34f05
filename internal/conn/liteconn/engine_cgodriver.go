//go:build sqlite_cgo

package liteconn

import (
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" database/sql driver
)

// cgoEngine is the opt-in build: mattn/go-sqlite3's cgo binding against
// the real libsqlite3, selected with `go build -tags sqlite_cgo` for
// deployments that already accept a cgo toolchain and want the
// battle-tested C implementation instead of the pure-Go port.
type cgoEngine struct{}

func (cgoEngine) driverName() string { return "sqlite3" }

var activeEngine engine = cgoEngine{}
