package sqlitex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sqlcore/sqlcore/internal/conn/liteconn"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/sqlitetype"
)

func TestArgToRawValueEncodesScalars(t *testing.T) {
	cases := []any{nil, true, int16(7), int32(7), int64(7), 7, float32(1.5), 1.5, "hi", []byte("hi"), time.Now()}
	for _, v := range cases {
		raw, err := argToRawValue(v)
		if err != nil {
			t.Fatalf("argToRawValue(%T): %v", v, err)
		}
		if v == nil && !raw.IsNull {
			t.Fatal("expected nil to encode as IsNull")
		}
	}
}

func TestArgToRawValueRejectsUnsupportedType(t *testing.T) {
	if _, err := argToRawValue(struct{}{}); err == nil {
		t.Fatal("expected an error for an unsupported argument type")
	}
}

// fakeSource is a canned rows.Source for a single text column.
type fakeSource struct {
	cols []rows.Column
	rows [][]typeinfo.RawValue
	i    int
}

func (f *fakeSource) NextRow() ([]typeinfo.RawValue, bool, error) {
	if f.i >= len(f.rows) {
		return nil, false, nil
	}
	r := f.rows[f.i]
	f.i++
	return r, true, nil
}
func (f *fakeSource) Drain() error           { f.i = len(f.rows); return nil }
func (f *fakeSource) Columns() []rows.Column { return f.cols }

type fakeRawConn struct {
	src *fakeSource
	tag liteconn.CommandTag
}

func (f *fakeRawConn) Query(ctx context.Context, sql string, args ...typeinfo.RawValue) (*rows.Rows, error) {
	return rows.New(f.src), nil
}

func (f *fakeRawConn) Exec(ctx context.Context, sql string, args ...typeinfo.RawValue) (liteconn.CommandTag, error) {
	return f.tag, nil
}

func textCol(name string) rows.Column {
	return rows.Column{Name: name, Type: sqlitetype.Info{Storage: sqlitetype.StorageText}}
}

func TestExecuteReturnsRowsAffectedFromTag(t *testing.T) {
	fc := &fakeRawConn{tag: liteconn.CommandTag{RowsAffected: 3}}
	n, err := execute(context.Background(), fc, "UPDATE t SET x = 1", nil)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows affected, got %d", n)
	}
}

func TestFetchAllScansEveryRow(t *testing.T) {
	fc := &fakeRawConn{src: &fakeSource{
		cols: []rows.Column{textCol("name")},
		rows: [][]typeinfo.RawValue{
			{{Bytes: []byte("alice")}},
			{{Bytes: []byte("bob")}},
		},
	}}
	var seen []string
	err := fetchAll(context.Background(), fc, "SELECT name FROM t", func(r *rows.Rows) error {
		var name string
		if err := r.Scan(&name); err != nil {
			return err
		}
		seen = append(seen, name)
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("fetchAll: %v", err)
	}
	if len(seen) != 2 || seen[0] != "alice" || seen[1] != "bob" {
		t.Fatalf("unexpected rows scanned: %v", seen)
	}
}

func TestFetchOptionalFalseOnEmptyResult(t *testing.T) {
	fc := &fakeRawConn{src: &fakeSource{cols: []rows.Column{textCol("name")}}}
	found, err := fetchOptional(context.Background(), fc, "SELECT name FROM t WHERE 1=0", func(r *rows.Rows) error {
		return nil
	}, nil)
	if err != nil {
		t.Fatalf("fetchOptional: %v", err)
	}
	if found {
		t.Fatal("expected found=false for an empty result set")
	}
}

func TestFetchOneErrorsOnEmptyResult(t *testing.T) {
	fc := &fakeRawConn{src: &fakeSource{cols: []rows.Column{textCol("name")}}}
	err := fetchOne(context.Background(), fc, "SELECT name FROM t WHERE 1=0", func(r *rows.Rows) error {
		return nil
	}, nil)
	if err == nil {
		t.Fatal("expected FetchOne to error on an empty result set")
	}
}

func TestFetchAllPropagatesScanError(t *testing.T) {
	boom := errors.New("boom")
	fc := &fakeRawConn{src: &fakeSource{
		cols: []rows.Column{textCol("name")},
		rows: [][]typeinfo.RawValue{{{Bytes: []byte("alice")}}},
	}}
	err := fetchAll(context.Background(), fc, "SELECT name FROM t", func(r *rows.Rows) error {
		return boom
	}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected scan error to propagate, got %v", err)
	}
}

func TestBufferedRowScanNullAndNonNull(t *testing.T) {
	row := &bufferedRow{
		cols: []rows.Column{{Name: "name"}, {Name: "nickname"}},
		vals: []*string{strPtr("alice"), nil},
	}
	var name string
	var nickname *string
	if err := row.Scan(&name, &nickname); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if name != "alice" {
		t.Fatalf("expected name=alice, got %q", name)
	}
	if nickname != nil {
		t.Fatal("expected nickname to remain nil for a NULL column")
	}
}

func TestBufferedRowScanNullIntoNonNilableErrors(t *testing.T) {
	row := &bufferedRow{cols: []rows.Column{{Name: "nickname"}}, vals: []*string{nil}}
	var nickname string
	if err := row.Scan(&nickname); err == nil {
		t.Fatal("expected an error scanning NULL into a non-nilable *string")
	}
}

func strPtr(s string) *string { return &s }
