package dbconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sqlcore/sqlcore/internal/dburl"
)

func TestFromDSNParsesDriver(t *testing.T) {
	c, err := FromDSN("postgres://localhost/orders")
	if err != nil {
		t.Fatalf("FromDSN: %v", err)
	}
	if c.Options.Driver != dburl.DriverPostgres {
		t.Fatalf("expected DriverPostgres, got %v", c.Options.Driver)
	}
}

func TestEffectiveFallsBackToDefaults(t *testing.T) {
	c, err := FromDSN("mysql://localhost/catalog")
	if err != nil {
		t.Fatalf("FromDSN: %v", err)
	}
	d := PoolDefaults{MinConnections: 3, MaxConnections: 15, AcquireTimeout: 2 * time.Second}

	if got := c.EffectiveMinConnections(d); got != 3 {
		t.Fatalf("expected default min 3, got %d", got)
	}
	if got := c.EffectiveMaxConnections(d); got != 15 {
		t.Fatalf("expected default max 15, got %d", got)
	}
}

func TestEffectivePrefersOverride(t *testing.T) {
	c, err := FromDSN("mysql://localhost/catalog")
	if err != nil {
		t.Fatalf("FromDSN: %v", err)
	}
	override := 42
	c.MaxConnections = &override
	d := PoolDefaults{MaxConnections: 15}

	if got := c.EffectiveMaxConnections(d); got != 42 {
		t.Fatalf("expected override 42, got %d", got)
	}
}

func TestPoolConfigResolvesEffectiveValues(t *testing.T) {
	c, err := FromDSN("postgres://localhost/orders")
	if err != nil {
		t.Fatalf("FromDSN: %v", err)
	}
	idle := 90 * time.Second
	c.IdleTimeout = &idle
	d := PoolDefaults{MinConnections: 2, MaxConnections: 10, MaxLifetime: time.Hour, AcquireTimeout: 5 * time.Second}

	pc := c.PoolConfig(d)
	if pc.MinConns != 2 || pc.MaxConns != 10 {
		t.Fatalf("unexpected resolved conns: %+v", pc)
	}
	if pc.IdleTimeout != idle {
		t.Fatalf("expected overridden idle timeout, got %v", pc.IdleTimeout)
	}
	if pc.MaxLifetime != time.Hour {
		t.Fatalf("expected default max lifetime, got %v", pc.MaxLifetime)
	}
}

func TestLoadDefaultsWithEnvSubstitution(t *testing.T) {
	t.Setenv("SQLCORE_MAX_CONNS", "25")
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	contents := "defaults:\n  min_connections: 4\n  max_connections: ${SQLCORE_MAX_CONNS}\n  idle_timeout: 1m\n"
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := LoadDefaults(path)
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if d.MinConnections != 4 {
		t.Fatalf("expected min_connections=4, got %d", d.MinConnections)
	}
	if d.MaxConnections != 25 {
		t.Fatalf("expected env-substituted max_connections=25, got %d", d.MaxConnections)
	}
	if d.IdleTimeout != time.Minute {
		t.Fatalf("expected idle_timeout=1m, got %v", d.IdleTimeout)
	}
}

func TestLoadDefaultsAppliesCeilings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.yaml")
	if err := os.WriteFile(path, []byte("defaults: {}\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	d, err := LoadDefaults(path)
	if err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}
	if d.MinConnections != 2 || d.MaxConnections != 10 {
		t.Fatalf("expected package ceilings applied, got %+v", d)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "defaults.yaml")
	if err := os.WriteFile(path, []byte("defaults:\n  max_connections: 5\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	reloaded := make(chan *PoolDefaults, 1)
	w, err := NewWatcher(path, func(d *PoolDefaults) { reloaded <- d })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("defaults:\n  max_connections: 50\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case d := <-reloaded:
		if d.MaxConnections != 50 {
			t.Fatalf("expected reloaded max_connections=50, got %d", d.MaxConnections)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for hot-reload callback")
	}
}
