package mysqlx

import "testing"

func TestDialConfigAppliesDefaultStatementCacheSize(t *testing.T) {
	cfg, my, err := dialConfig("mysql://user:pw@db.internal:3306/orders?ssl-mode=required")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.Host != "db.internal" || cfg.Port != "3306" || cfg.Database != "orders" || cfg.User != "user" || cfg.Password != "pw" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.StatementCacheSize != defaultStatementCacheSize {
		t.Fatalf("expected default statement cache size %d, got %d", defaultStatementCacheSize, cfg.StatementCacheSize)
	}
	if cfg.TLSConfig == nil {
		t.Fatal("expected ssl-mode=required to enable TLS")
	}
	if my.SSLMode != "required" {
		t.Fatalf("expected ssl-mode=required, got %q", my.SSLMode)
	}
}

func TestDialConfigRejectsNonMySQLScheme(t *testing.T) {
	if _, _, err := dialConfig("postgres://user@host:5432/db"); err == nil {
		t.Fatal("expected an error parsing a postgres:// dsn as mysql")
	}
}

func TestDialConfigHonorsExplicitStatementCacheCapacity(t *testing.T) {
	cfg, _, err := dialConfig("mysql://db.internal/orders?statement-cache-capacity=16")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.StatementCacheSize != 16 {
		t.Fatalf("expected statement cache size 16, got %d", cfg.StatementCacheSize)
	}
}

func TestDialConfigPrefersUnixSocketWhenSet(t *testing.T) {
	cfg, _, err := dialConfig("mysql://db.internal/orders?socket=/var/run/mysqld/mysqld.sock")
	if err != nil {
		t.Fatalf("dialConfig: %v", err)
	}
	if cfg.Host != "/var/run/mysqld/mysqld.sock" {
		t.Fatalf("expected socket path as host, got %q", cfg.Host)
	}
}
