package liteconn

import (
	"context"
	"testing"

	"github.com/sqlcore/sqlcore/internal/typeinfo/sqlitetype"
)

func newTestConn(t *testing.T) *Conn {
	t.Helper()
	c, err := Connect(context.Background(), Config{Path: ":memory:", StatementCacheSize: 10})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestExecSQLCreatesTable(t *testing.T) {
	c := newTestConn(t)
	if err := c.ExecSQL(context.Background(), "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("ExecSQL: %v", err)
	}
}

func TestExecInsertsAndReportsRowsAffected(t *testing.T) {
	c := newTestConn(t)
	if err := c.ExecSQL(context.Background(), "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tag, err := c.Exec(context.Background(), "INSERT INTO widgets (name) VALUES (?)", sqlitetype.EncodeText("bolt"))
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if tag.RowsAffected != 1 {
		t.Fatalf("expected 1 row affected, got %d", tag.RowsAffected)
	}
	if tag.LastInsertID == 0 {
		t.Fatal("expected a non-zero last insert id")
	}
}

func TestQueryStreamsRows(t *testing.T) {
	c := newTestConn(t)
	ctx := context.Background()
	if err := c.ExecSQL(ctx, "CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := c.Exec(ctx, "INSERT INTO widgets (name) VALUES (?)", sqlitetype.EncodeText("bolt")); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := c.Exec(ctx, "INSERT INTO widgets (name) VALUES (?)", sqlitetype.EncodeText("nut")); err != nil {
		t.Fatalf("insert: %v", err)
	}

	rs, err := c.Query(ctx, "SELECT name FROM widgets ORDER BY id")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rs.Close()

	var names []string
	for rs.Next() {
		var name string
		if err := rs.Scan(&name); err != nil {
			t.Fatalf("Scan: %v", err)
		}
		names = append(names, name)
	}
	if err := rs.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}
	if len(names) != 2 || names[0] != "bolt" || names[1] != "nut" {
		t.Fatalf("unexpected rows: %v", names)
	}
}

func TestBeginCommitRollback(t *testing.T) {
	c := newTestConn(t)
	ctx := context.Background()
	if err := c.ExecSQL(ctx, "CREATE TABLE widgets (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	tx, err := c.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := c.ExecSQL(ctx, "INSERT INTO widgets DEFAULT VALUES"); err != nil {
		t.Fatalf("insert in tx: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("Rollback: %v", err)
	}

	rs, err := c.Query(ctx, "SELECT COUNT(*) FROM widgets")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	defer rs.Close()
	if !rs.Next() {
		t.Fatal("expected one row from COUNT(*)")
	}
	var count string
	if err := rs.Scan(&count); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if count != "0" {
		t.Fatalf("expected rollback to discard the insert, got count=%s", count)
	}
}

func TestPingOnOpenConnection(t *testing.T) {
	c := newTestConn(t)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestPreparedStatementIsCached(t *testing.T) {
	c := newTestConn(t)
	ctx := context.Background()
	if err := c.ExecSQL(ctx, "CREATE TABLE widgets (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatalf("create table: %v", err)
	}

	first, err := c.Prepare(ctx, "SELECT id FROM widgets")
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	second, err := c.Prepare(ctx, "SELECT id FROM widgets")
	if err != nil {
		t.Fatalf("Prepare (cached): %v", err)
	}
	if first != second {
		t.Fatal("expected the second Prepare to return the cached *sql.Stmt")
	}
}

func TestRawValueFromAnyMapsStorageClasses(t *testing.T) {
	cases := []struct {
		in   any
		want sqlitetype.StorageClass
	}{
		{nil, sqlitetype.StorageNull},
		{int64(1), sqlitetype.StorageInteger},
		{3.14, sqlitetype.StorageReal},
		{[]byte("blob"), sqlitetype.StorageBlob},
		{"text", sqlitetype.StorageText},
	}
	for _, tc := range cases {
		raw := rawValueFromAny(tc.in)
		info, ok := raw.Type.(sqlitetype.Info)
		if !ok {
			t.Fatalf("rawValueFromAny(%v): Type is not sqlitetype.Info", tc.in)
		}
		if info.Storage != tc.want {
			t.Fatalf("rawValueFromAny(%v): got storage %v, want %v", tc.in, info.Storage, tc.want)
		}
	}
}
