package pgx

import "testing"

func TestDialConfigAppliesDefaultStatementCacheSize(t *testing.T) {
	cfg, pg, err := dialConfig("postgres://user:pw@db.internal:5432/orders?sslmode=require")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.Host != "db.internal" || cfg.Port != "5432" || cfg.Database != "orders" || cfg.User != "user" || cfg.Password != "pw" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.StatementCacheSize != defaultStatementCacheSize {
		t.Fatalf("expected default statement cache size %d, got %d", defaultStatementCacheSize, cfg.StatementCacheSize)
	}
	if cfg.TLSConfig == nil {
		t.Fatal("expected sslmode=require to enable TLS")
	}
	if pg.SSLMode != "require" {
		t.Fatalf("expected sslmode=require, got %q", pg.SSLMode)
	}
}

func TestDialConfigRejectsNonPostgresScheme(t *testing.T) {
	if _, _, err := dialConfig("mysql://user@host:3306/db"); err == nil {
		t.Fatal("expected an error parsing a mysql:// dsn as postgres")
	}
}

func TestDialConfigHonorsExplicitStatementCacheCapacity(t *testing.T) {
	cfg, _, err := dialConfig("postgres://db.internal/orders?statement_cache_capacity=16")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.StatementCacheSize != 16 {
		t.Fatalf("expected statement cache size 16, got %d", cfg.StatementCacheSize)
	}
}

func TestDialConfigAppliesApplicationName(t *testing.T) {
	cfg, _, err := dialConfig("postgres://db.internal/orders?application_name=billing-svc")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.RuntimeParams["application_name"] != "billing-svc" {
		t.Fatalf("expected application_name runtime param, got %v", cfg.RuntimeParams)
	}
}
