// Package liteconn drives an embedded SQLite database from one dedicated
// goroutine per connection, since neither SQLite engine implementation
// available to Go (cgo or pure-Go) tolerates concurrent use of a single
// connection handle. Commands are submitted to that goroutine over a
// channel and their results delivered back the same way, giving SQLite
// the same single-connection-at-a-time discipline pgconn/myconn get for
// free from their own underlying TCP connection.
package liteconn

import "database/sql"

// engine opens the database/sql driver backing this build. Exactly one
// implementation is compiled in, selected by the sqlite_cgo build tag:
// the pure-Go modernc.org/sqlite driver by default, or the cgo
// mattn/go-sqlite3 driver when built with -tags sqlite_cgo.
type engine interface {
	// driverName is the name this engine registered with database/sql.
	driverName() string
}

// open establishes a *sql.DB against dsn using the compiled-in engine and
// immediately caps it at a single connection: SQLite's own file locking
// makes multiple connections to the same file from one process mostly
// pointless, and liteconn's single-goroutine worker model assumes
// exactly one underlying connection to serialize around.
func open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(activeEngine.driverName(), dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}
