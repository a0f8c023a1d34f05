package pgx

import (
	"testing"

	"github.com/sqlcore/sqlcore/internal/dburl"
)

func TestTLSConfigForDisableIsNil(t *testing.T) {
	if cfg := tlsConfigFor(&dburl.PostgresOptions{SSLMode: "disable"}); cfg != nil {
		t.Fatal("expected sslmode=disable to skip TLS entirely")
	}
}

func TestTLSConfigForPreferSkipsVerification(t *testing.T) {
	cfg := tlsConfigFor(&dburl.PostgresOptions{SSLMode: "prefer"})
	if cfg == nil || !cfg.InsecureSkipVerify {
		t.Fatal("expected sslmode=prefer to negotiate TLS without verifying the server certificate")
	}
}

func TestTLSConfigForVerifyFullSetsServerName(t *testing.T) {
	cfg := tlsConfigFor(&dburl.PostgresOptions{SSLMode: "verify-full", Host: "db.internal"})
	if cfg == nil || cfg.InsecureSkipVerify {
		t.Fatal("expected sslmode=verify-full to verify the server certificate")
	}
	if cfg.ServerName != "db.internal" {
		t.Fatalf("expected ServerName=db.internal, got %q", cfg.ServerName)
	}
}
