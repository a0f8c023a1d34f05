package sqlcore

import (
	"context"
	"testing"

	"github.com/sqlcore/sqlcore/internal/registry"
)

func TestSchemeOf(t *testing.T) {
	scheme, err := schemeOf("postgres://localhost:5432/app")
	if err != nil {
		t.Fatalf("schemeOf: %v", err)
	}
	if scheme != "postgres" {
		t.Fatalf("expected scheme %q, got %q", "postgres", scheme)
	}
}

func TestSchemeOfRejectsMissingScheme(t *testing.T) {
	if _, err := schemeOf("/just/a/path"); err == nil {
		t.Fatal("expected an error for a dsn with no scheme")
	}
}

func TestConnectErrorsForUnregisteredScheme(t *testing.T) {
	_, err := Connect(context.Background(), "nosuchdriver://host/db")
	if err == nil {
		t.Fatal("expected Connect to error for a scheme with no registered driver")
	}
}

func TestConnectDispatchesToRegisteredFactory(t *testing.T) {
	called := false
	if err := registry.Register("sqlcore-test-driver", func(ctx context.Context, dsn string) (registry.Database, error) {
		called = true
		return fakeDB{}, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	db, err := Connect(context.Background(), "sqlcore-test-driver://host/db")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !called {
		t.Fatal("expected the registered factory to be invoked")
	}
	if db == nil {
		t.Fatal("expected a non-nil Database")
	}
}

type fakeDB struct{}

func (fakeDB) Execute(ctx context.Context, sql string, args ...any) (int64, error) { return 0, nil }
func (fakeDB) FetchOne(ctx context.Context, sql string, args ...any) (registry.Row, error) {
	return nil, nil
}
func (fakeDB) FetchAll(ctx context.Context, sql string, args ...any) ([]registry.Row, error) {
	return nil, nil
}
func (fakeDB) FetchOptional(ctx context.Context, sql string, args ...any) (registry.Row, bool, error) {
	return nil, false, nil
}
func (fakeDB) Close() error { return nil }
