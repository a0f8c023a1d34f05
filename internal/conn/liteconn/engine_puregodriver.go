//go:build !sqlite_cgo

package liteconn

import (
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver
)

// pureGoEngine is the default build: modernc.org/sqlite's cgo-free,
// pure-Go SQLite implementation, keeping the module's default build
// cgo-free end to end (OQ-5).
type pureGoEngine struct{}

func (pureGoEngine) driverName() string { return "sqlite" }

var activeEngine engine = pureGoEngine{}
