package pgx

import (
	"crypto/tls"
	"crypto/x509"
	"log/slog"
	"os"

	"github.com/sqlcore/sqlcore/internal/dburl"
)

// tlsConfigFor translates sslmode into a client tls.Config, or nil to skip
// TLS negotiation entirely. require/verify-ca/verify-full all negotiate
// TLS; only verify-ca and verify-full validate the server's certificate,
// and only verify-full also checks the certificate's name against Host.
func tlsConfigFor(pg *dburl.PostgresOptions) *tls.Config {
	switch pg.SSLMode {
	case "", "disable":
		return nil
	case "allow", "prefer":
		return &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
	case "require":
		cfg := &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
		applyRootCert(cfg, pg.SSLRootCert)
		return cfg
	case "verify-ca":
		cfg := &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
		applyRootCert(cfg, pg.SSLRootCert)
		cfg.VerifyPeerCertificate = verifyCAOnly(cfg)
		return cfg
	case "verify-full":
		cfg := &tls.Config{ServerName: pg.Host, MinVersion: tls.VersionTLS12}
		applyRootCert(cfg, pg.SSLRootCert)
		return cfg
	default:
		slog.Warn("pgx: unrecognized sslmode, treating as prefer", "sslmode", pg.SSLMode)
		return &tls.Config{InsecureSkipVerify: true, MinVersion: tls.VersionTLS12}
	}
}

func applyRootCert(cfg *tls.Config, path string) {
	if path == "" {
		return
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("pgx: failed to read sslrootcert, falling back to the system root pool", "path", path, "error", err)
		return
	}
	pool := x509.NewCertPool()
	if pool.AppendCertsFromPEM(pem) {
		cfg.RootCAs = pool
	}
}

// verifyCAOnly returns a VerifyPeerCertificate callback that checks the
// presented chain against cfg.RootCAs (falling back to the system pool if
// none was configured) but, unlike the default verifier, is only reached
// when InsecureSkipVerify has already disabled hostname checking — giving
// verify-ca's "trust the CA, don't care about the name" semantics.
func verifyCAOnly(cfg *tls.Config) func([][]byte, [][]*x509.Certificate) error {
	return func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
		certs := make([]*x509.Certificate, len(rawCerts))
		for i, raw := range rawCerts {
			cert, err := x509.ParseCertificate(raw)
			if err != nil {
				return err
			}
			certs[i] = cert
		}
		if len(certs) == 0 {
			return nil
		}
		opts := x509.VerifyOptions{Roots: cfg.RootCAs, Intermediates: x509.NewCertPool()}
		for _, c := range certs[1:] {
			opts.Intermediates.AddCert(c)
		}
		_, err := certs[0].Verify(opts)
		return err
	}
}
