package registry

import (
	"context"
	"testing"
)

type fakeDB struct{}

func (fakeDB) Execute(ctx context.Context, sql string, args ...any) (int64, error) { return 0, nil }
func (fakeDB) FetchOne(ctx context.Context, sql string, args ...any) (Row, error)   { return nil, nil }
func (fakeDB) FetchAll(ctx context.Context, sql string, args ...any) ([]Row, error) { return nil, nil }
func (fakeDB) FetchOptional(ctx context.Context, sql string, args ...any) (Row, bool, error) {
	return nil, false, nil
}
func (fakeDB) Close() error { return nil }

func TestRegisterAndLookup(t *testing.T) {
	err := Register("test-driver-a", func(ctx context.Context, dsn string) (Database, error) {
		return fakeDB{}, nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	factory, ok := Lookup("test-driver-a")
	if !ok {
		t.Fatal("expected factory to be found")
	}
	db, err := factory(context.Background(), "test-driver-a://anything")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if _, ok := db.(fakeDB); !ok {
		t.Fatalf("expected fakeDB, got %T", db)
	}
}

func TestRegisterTwiceErrors(t *testing.T) {
	factory := func(ctx context.Context, dsn string) (Database, error) { return fakeDB{}, nil }
	if err := Register("test-driver-b", factory); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := Register("test-driver-b", factory); err == nil {
		t.Fatal("expected second Register for the same name to error")
	}
}

func TestLookupUnknownDriver(t *testing.T) {
	if _, ok := Lookup("test-driver-does-not-exist"); ok {
		t.Fatal("expected lookup of an unregistered driver to fail")
	}
}

func TestNamesIncludesRegistered(t *testing.T) {
	if err := Register("test-driver-c", func(ctx context.Context, dsn string) (Database, error) {
		return fakeDB{}, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	found := false
	for _, name := range Names() {
		if name == "test-driver-c" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected test-driver-c in Names()")
	}
}
