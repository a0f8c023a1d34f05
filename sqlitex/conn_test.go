package sqlitex

import "testing"

func TestDialConfigAppliesDefaultStatementCacheSize(t *testing.T) {
	cfg, _, err := dialConfig("sqlite:///tmp/test.db")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.StatementCacheSize != defaultStatementCacheSize {
		t.Fatalf("expected default statement cache size %d, got %d", defaultStatementCacheSize, cfg.StatementCacheSize)
	}
}

func TestDialConfigRejectsNonSQLiteScheme(t *testing.T) {
	if _, _, err := dialConfig("postgres://localhost/db"); err == nil {
		t.Fatal("expected an error for a non-sqlite dsn scheme")
	}
}

func TestDialConfigParsesPath(t *testing.T) {
	cfg, opts, err := dialConfig("sqlite:///var/data/app.db")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.Path == "" {
		t.Fatal("expected a non-empty path")
	}
	if opts.Path != cfg.Path {
		t.Fatalf("expected opts.Path == cfg.Path, got %q vs %q", opts.Path, cfg.Path)
	}
}

func TestDialConfigParsesPragmaOptions(t *testing.T) {
	_, opts, err := dialConfig("sqlite:///tmp/test.db?journal_mode=WAL&synchronous=NORMAL&foreign_keys=true&busy_timeout=5000&cache_size=-2000")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if opts.JournalMode != "WAL" {
		t.Fatalf("expected journal_mode=WAL, got %q", opts.JournalMode)
	}
	if opts.Synchronous != "NORMAL" {
		t.Fatalf("expected synchronous=NORMAL, got %q", opts.Synchronous)
	}
	if !opts.ForeignKeys {
		t.Fatal("expected foreign_keys=true to parse as true")
	}
	if opts.BusyTimeout.Milliseconds() != 5000 {
		t.Fatalf("expected busy_timeout=5000ms, got %v", opts.BusyTimeout)
	}
	if opts.Pragmas["cache_size"] != "-2000" {
		t.Fatalf("expected an unrecognized query param to pass through as a pragma, got %v", opts.Pragmas)
	}
}
