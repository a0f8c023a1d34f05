// Package dburl parses the connection-string syntax accepted by each
// driver into a typed options struct, the same shape the teacher's
// internal/config gives a YAML-sourced TenantConfig, but assembled from
// a single URL instead of a tenant map entry.
package dburl

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sqlcore/sqlcore/internal/dberr"
)

// Driver identifies which of the three wire protocols a parsed
// connection string targets.
type Driver int

const (
	DriverPostgres Driver = iota
	DriverMySQL
	DriverSQLite
)

func (d Driver) String() string {
	switch d {
	case DriverPostgres:
		return "postgres"
	case DriverMySQL:
		return "mysql"
	case DriverSQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

// PostgresOptions holds the fields recognized on a postgres://... URL.
type PostgresOptions struct {
	Host                   string // a leading "/" means a Unix socket directory
	Port                   int
	Database               string
	User                   string
	Password               string
	SSLMode                string // disable, allow, prefer, require, verify-ca, verify-full
	SSLRootCert            string
	HostAddr               string
	ApplicationName        string
	Options                string
	StatementCacheCapacity int
}

// Redacted returns a copy with Password masked, safe to log.
func (o PostgresOptions) Redacted() PostgresOptions {
	if o.Password != "" {
		o.Password = "***REDACTED***"
	}
	return o
}

// MySQLOptions holds the fields recognized on a mysql://... URL.
type MySQLOptions struct {
	Host                   string
	Port                   int
	Database               string
	User                   string
	Password               string
	SSLMode                string
	SSLCA                  string
	StatementCacheCapacity int
	Socket                 string
}

// Redacted returns a copy with Password masked, safe to log.
func (o MySQLOptions) Redacted() MySQLOptions {
	if o.Password != "" {
		o.Password = "***REDACTED***"
	}
	return o
}

// SQLiteOptions holds the fields recognized on a sqlite://... URL (or
// the sqlite::memory: shorthand).
type SQLiteOptions struct {
	Path        string // filesystem path, ":memory:", or "file::memory:?cache=shared"
	JournalMode string // e.g. WAL, DELETE, MEMORY
	Synchronous string // e.g. OFF, NORMAL, FULL
	ForeignKeys bool
	BusyTimeout time.Duration
	// Pragmas holds any query parameter not otherwise recognized above,
	// applied as PRAGMA name = value at connect time.
	Pragmas map[string]string
}

// Redacted returns a copy unchanged; SQLite connection strings carry no
// credentials. Present for interface symmetry with the other drivers.
func (o SQLiteOptions) Redacted() SQLiteOptions { return o }

// ConnectOptions is the parsed result of a connection string: exactly
// one of Postgres, MySQL, or SQLite is populated, selected by Driver.
type ConnectOptions struct {
	Driver   Driver
	Postgres *PostgresOptions
	MySQL    *MySQLOptions
	SQLite   *SQLiteOptions
}

var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Parse parses a connection string into typed, driver-specific options.
// Recognized schemes are postgres, postgresql, mysql, and sqlite.
func Parse(dsn string) (ConnectOptions, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return ConnectOptions{}, dberr.Wrap(dberr.KindConfiguration, "dburl: parsing connection string", err)
	}

	switch u.Scheme {
	case "postgres", "postgresql":
		opts, err := parsePostgres(u)
		if err != nil {
			return ConnectOptions{}, err
		}
		return ConnectOptions{Driver: DriverPostgres, Postgres: opts}, nil
	case "mysql":
		opts, err := parseMySQL(u)
		if err != nil {
			return ConnectOptions{}, err
		}
		return ConnectOptions{Driver: DriverMySQL, MySQL: opts}, nil
	case "sqlite":
		opts, err := parseSQLite(u)
		if err != nil {
			return ConnectOptions{}, err
		}
		return ConnectOptions{Driver: DriverSQLite, SQLite: opts}, nil
	default:
		return ConnectOptions{}, dberr.New(dberr.KindConfiguration, fmt.Sprintf("dburl: unrecognized scheme %q", u.Scheme))
	}
}

func parsePostgres(u *url.URL) (*PostgresOptions, error) {
	q := u.Query()

	host := u.Hostname()
	if v := q.Get("host"); v != "" {
		host = v
	}

	port := 5432
	portStr := u.Port()
	if v := q.Get("port"); v != "" {
		portStr = v
	}
	if portStr != "" {
		p, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindConfiguration, "dburl: invalid postgres port", err)
		}
		port = p
	}

	sslMode := q.Get("sslmode")
	if sslMode == "" {
		sslMode = "prefer"
	}
	if !validSSLModes[sslMode] {
		return nil, dberr.New(dberr.KindConfiguration, fmt.Sprintf("dburl: invalid sslmode %q", sslMode))
	}

	opts := &PostgresOptions{
		Host:            host,
		Port:            port,
		Database:        strings.TrimPrefix(u.Path, "/"),
		User:            u.User.Username(),
		SSLMode:         sslMode,
		SSLRootCert:     q.Get("sslrootcert"),
		HostAddr:        q.Get("hostaddr"),
		ApplicationName: q.Get("application_name"),
		Options:         q.Get("options"),
	}
	if pw, ok := u.User.Password(); ok {
		opts.Password = pw
	}
	if v := q.Get("statement_cache_capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindConfiguration, "dburl: invalid statement_cache_capacity", err)
		}
		opts.StatementCacheCapacity = n
	}
	return opts, nil
}

func parseMySQL(u *url.URL) (*MySQLOptions, error) {
	q := u.Query()

	port := 3306
	if v := u.Port(); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindConfiguration, "dburl: invalid mysql port", err)
		}
		port = p
	}

	opts := &MySQLOptions{
		Host:     u.Hostname(),
		Port:     port,
		Database: strings.TrimPrefix(u.Path, "/"),
		User:     u.User.Username(),
		SSLMode:  q.Get("ssl-mode"),
		SSLCA:    q.Get("ssl-ca"),
		Socket:   q.Get("socket"),
	}
	if pw, ok := u.User.Password(); ok {
		opts.Password = pw
	}
	if v := q.Get("statement-cache-capacity"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindConfiguration, "dburl: invalid statement-cache-capacity", err)
		}
		opts.StatementCacheCapacity = n
	}
	return opts, nil
}

// recognizedSQLiteParams are query keys parsed into explicit
// SQLiteOptions fields rather than passed through as raw pragmas.
var recognizedSQLiteParams = map[string]bool{
	"journal_mode": true,
	"synchronous":  true,
	"foreign_keys": true,
	"busy_timeout": true,
}

func parseSQLite(u *url.URL) (*SQLiteOptions, error) {
	path := u.Opaque
	if path == "" {
		path = u.Host + u.Path
	}
	if path == "" {
		path = ":memory:"
	}

	// url.Parse splits "sqlite::memory:?cache=shared" query params into
	// u.RawQuery already; for the "//" form they land on u.Query() the
	// normal way.
	q := u.Query()

	opts := &SQLiteOptions{
		Path:        path,
		JournalMode: q.Get("journal_mode"),
		Synchronous: q.Get("synchronous"),
		Pragmas:     map[string]string{},
	}
	if v := q.Get("foreign_keys"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindConfiguration, "dburl: invalid foreign_keys", err)
		}
		opts.ForeignKeys = b
	}
	if v := q.Get("busy_timeout"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindConfiguration, "dburl: invalid busy_timeout", err)
		}
		opts.BusyTimeout = time.Duration(ms) * time.Millisecond
	}
	for k, vs := range q {
		if recognizedSQLiteParams[k] || len(vs) == 0 {
			continue
		}
		opts.Pragmas[k] = vs[0]
	}
	return opts, nil
}
