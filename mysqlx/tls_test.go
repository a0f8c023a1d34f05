package mysqlx

import (
	"testing"

	"github.com/sqlcore/sqlcore/internal/dburl"
)

func TestTLSConfigForDisabledIsNil(t *testing.T) {
	if cfg := tlsConfigFor(&dburl.MySQLOptions{SSLMode: "disabled"}); cfg != nil {
		t.Fatal("expected ssl-mode=disabled to skip TLS entirely")
	}
}

func TestTLSConfigForEmptyModeIsNil(t *testing.T) {
	if cfg := tlsConfigFor(&dburl.MySQLOptions{}); cfg != nil {
		t.Fatal("expected an unset ssl-mode to skip TLS entirely")
	}
}

func TestTLSConfigForPreferredSkipsVerification(t *testing.T) {
	cfg := tlsConfigFor(&dburl.MySQLOptions{SSLMode: "preferred"})
	if cfg == nil || !cfg.InsecureSkipVerify {
		t.Fatal("expected ssl-mode=preferred to negotiate TLS without verifying the server certificate")
	}
}

func TestTLSConfigForVerifyIdentitySetsServerName(t *testing.T) {
	cfg := tlsConfigFor(&dburl.MySQLOptions{SSLMode: "verify_identity", Host: "db.internal"})
	if cfg == nil || cfg.InsecureSkipVerify {
		t.Fatal("expected ssl-mode=verify_identity to verify the server certificate")
	}
	if cfg.ServerName != "db.internal" {
		t.Fatalf("expected ServerName=db.internal, got %q", cfg.ServerName)
	}
}
