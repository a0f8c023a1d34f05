// Package dbconfig assembles a connection's effective settings from a
// parsed DSN (internal/dburl) plus an optional YAML pool-defaults file,
// generalizing the teacher's per-tenant YAML config to a single
// connection driven primarily by its DSN.
package dbconfig

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/dbpool"
	"github.com/sqlcore/sqlcore/internal/dburl"
	"gopkg.in/yaml.v3"
)

// PoolDefaults mirrors the teacher's PoolDefaults field-for-field: the
// ceilings applied when a ConnectConfig doesn't override them.
type PoolDefaults struct {
	MinConnections int           `yaml:"min_connections"`
	MaxConnections int           `yaml:"max_connections"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxLifetime    time.Duration `yaml:"max_lifetime"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// defaultsFile is the on-disk shape of a pool-defaults YAML file: a
// single top-level "defaults" key, the same key the teacher's top-level
// Config uses.
type defaultsFile struct {
	Defaults PoolDefaults `yaml:"defaults"`
}

// ConnectConfig is a parsed DSN plus optional per-connection pool
// overrides, the single-connection analogue of the teacher's
// TenantConfig.
type ConnectConfig struct {
	Options        dburl.ConnectOptions
	MinConnections *int
	MaxConnections *int
	IdleTimeout    *time.Duration
	MaxLifetime    *time.Duration
	AcquireTimeout *time.Duration
}

// FromDSN parses dsn and wraps it with no pool overrides; use the
// With* setters or set fields directly to override a default.
func FromDSN(dsn string) (*ConnectConfig, error) {
	opts, err := dburl.Parse(dsn)
	if err != nil {
		return nil, err
	}
	return &ConnectConfig{Options: opts}, nil
}

// EffectiveMinConnections returns the override or the default, exactly
// the teacher's TenantConfig.EffectiveMinConnections pattern.
func (c ConnectConfig) EffectiveMinConnections(d PoolDefaults) int {
	if c.MinConnections != nil {
		return *c.MinConnections
	}
	return d.MinConnections
}

// EffectiveMaxConnections returns the override or the default.
func (c ConnectConfig) EffectiveMaxConnections(d PoolDefaults) int {
	if c.MaxConnections != nil {
		return *c.MaxConnections
	}
	return d.MaxConnections
}

// EffectiveIdleTimeout returns the override or the default.
func (c ConnectConfig) EffectiveIdleTimeout(d PoolDefaults) time.Duration {
	if c.IdleTimeout != nil {
		return *c.IdleTimeout
	}
	return d.IdleTimeout
}

// EffectiveMaxLifetime returns the override or the default.
func (c ConnectConfig) EffectiveMaxLifetime(d PoolDefaults) time.Duration {
	if c.MaxLifetime != nil {
		return *c.MaxLifetime
	}
	return d.MaxLifetime
}

// EffectiveAcquireTimeout returns the override or the default.
func (c ConnectConfig) EffectiveAcquireTimeout(d PoolDefaults) time.Duration {
	if c.AcquireTimeout != nil {
		return *c.AcquireTimeout
	}
	return d.AcquireTimeout
}

// PoolConfig resolves c's effective settings against d into the config
// shape internal/dbpool.New accepts.
func (c ConnectConfig) PoolConfig(d PoolDefaults) dbpool.Config {
	return dbpool.Config{
		MinConns:       c.EffectiveMinConnections(d),
		MaxConns:       c.EffectiveMaxConnections(d),
		IdleTimeout:    c.EffectiveIdleTimeout(d),
		MaxLifetime:    c.EffectiveMaxLifetime(d),
		AcquireTimeout: c.EffectiveAcquireTimeout(d),
	}
}

func applyDefaultCeilings(d *PoolDefaults) {
	if d.MinConnections == 0 {
		d.MinConnections = 2
	}
	if d.MaxConnections == 0 {
		d.MaxConnections = 10
	}
	if d.IdleTimeout == 0 {
		d.IdleTimeout = 5 * time.Minute
	}
	if d.MaxLifetime == 0 {
		d.MaxLifetime = 30 * time.Minute
	}
	if d.AcquireTimeout == 0 {
		d.AcquireTimeout = 10 * time.Second
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// substituteEnvVars replaces ${VAR_NAME} patterns with environment
// variable values, identical to the teacher's config.substituteEnvVars.
func substituteEnvVars(data []byte) []byte {
	return envVarPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := envVarPattern.FindSubmatch(match)[1]
		if val, ok := os.LookupEnv(string(name)); ok {
			return []byte(val)
		}
		return match
	})
}

// LoadDefaults reads a YAML pool-defaults file with ${VAR} env
// substitution, for batch/test harnesses that want shared ceilings
// across many connections without repeating query-string overrides on
// every DSN.
func LoadDefaults(path string) (*PoolDefaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindConfiguration, "dbconfig: reading pool defaults file", err)
	}
	data = substituteEnvVars(data)

	var f defaultsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, dberr.Wrap(dberr.KindConfiguration, "dbconfig: parsing pool defaults file", err)
	}
	applyDefaultCeilings(&f.Defaults)
	return &f.Defaults, nil
}

// String renders d for logs without leaking anything sensitive; pool
// defaults carry no credentials.
func (d PoolDefaults) String() string {
	return fmt.Sprintf("min=%d max=%d idle_timeout=%s max_lifetime=%s acquire_timeout=%s",
		d.MinConnections, d.MaxConnections, d.IdleTimeout, d.MaxLifetime, d.AcquireTimeout)
}
