package mysqlx

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"os"
	"strings"

	"github.com/sqlcore/sqlcore/internal/dburl"
)

// tlsConfigFor maps a parsed ssl-mode/ssl-ca pair to a *tls.Config, mirroring
// pgx's tlsConfigFor but against MySQL's ssl-mode vocabulary
// (disabled/preferred/required/verify_ca/verify_identity) rather than
// Postgres's sslmode one.
func tlsConfigFor(my *dburl.MySQLOptions) *tls.Config {
	mode := strings.ToLower(strings.ReplaceAll(my.SSLMode, "-", "_"))
	switch mode {
	case "", "disabled":
		return nil
	case "preferred", "required":
		cfg := &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
		applyRootCA(cfg, my.SSLCA)
		return cfg
	case "verify_ca":
		cfg := &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
		applyRootCA(cfg, my.SSLCA)
		cfg.VerifyPeerCertificate = verifyCAOnly(cfg)
		return cfg
	case "verify_identity":
		cfg := &tls.Config{ServerName: my.Host, MinVersion: tls.VersionTLS12}
		applyRootCA(cfg, my.SSLCA)
		return cfg
	default:
		slog.Warn("mysqlx: unrecognized ssl-mode, negotiating TLS without server verification", "mode", my.SSLMode)
		cfg := &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
		applyRootCA(cfg, my.SSLCA)
		return cfg
	}
}

func applyRootCA(cfg *tls.Config, path string) {
	if path == "" {
		return
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("mysqlx: failed to read ssl-ca file, falling back to system roots", "path", path, "error", err)
		return
	}
	pool := x509.NewCertPool()
	if pool.AppendCertsFromPEM(pem) {
		cfg.RootCAs = pool
	}
}

// verifyCAOnly validates the presented chain against cfg.RootCAs without
// checking the certificate's hostname, matching verify_ca's "trust this CA,
// don't care which name" semantics.
func verifyCAOnly(cfg *tls.Config) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		certs := make([]*x509.Certificate, len(rawCerts))
		for i, raw := range rawCerts {
			c, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			certs[i] = c
		}
		intermediates := x509.NewCertPool()
		for _, c := range certs[1:] {
			intermediates.AddCert(c)
		}
		_, err := certs[0].Verify(x509.VerifyOptions{Roots: cfg.RootCAs, Intermediates: intermediates})
		return err
	}
}
