package rows

import (
	"testing"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

type fakeSource struct {
	cols    []Column
	data    [][]typeinfo.RawValue
	pos     int
	drained bool
}

func (f *fakeSource) NextRow() ([]typeinfo.RawValue, bool, error) {
	if f.pos >= len(f.data) {
		return nil, false, nil
	}
	row := f.data[f.pos]
	f.pos++
	return row, true, nil
}

func (f *fakeSource) Drain() error {
	f.drained = true
	f.pos = len(f.data)
	return nil
}

func (f *fakeSource) Columns() []Column { return f.cols }

func newFake() *fakeSource {
	return &fakeSource{
		cols: []Column{{Name: "a"}, {Name: "b"}},
		data: [][]typeinfo.RawValue{
			{{Bytes: []byte("1")}, {Bytes: []byte("x")}},
			{{Bytes: []byte("2")}, {Bytes: []byte("y")}},
		},
	}
}

func TestNextAndScan(t *testing.T) {
	src := newFake()
	r := New(src)
	var a, b string
	if !r.Next() {
		t.Fatal("expected a first row")
	}
	if err := r.Scan(&a, &b); err != nil {
		t.Fatal(err)
	}
	if a != "1" || b != "x" {
		t.Fatalf("a=%q b=%q", a, b)
	}
	if !r.Next() {
		t.Fatal("expected a second row")
	}
	if r.Next() {
		t.Fatal("expected exhaustion")
	}
	if r.Err() != nil {
		t.Fatal(r.Err())
	}
}

func TestCloseImplicitlyDrainsUnreadRows(t *testing.T) {
	src := newFake()
	r := New(src)
	r.Next()
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if !src.drained {
		t.Fatal("expected Close to drain remaining rows")
	}
}

func TestCloseAfterExhaustionDoesNotDrain(t *testing.T) {
	src := newFake()
	r := New(src)
	for r.Next() {
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if src.drained {
		t.Fatal("Drain should not be called when the result set was already exhausted")
	}
}

func TestScanNull(t *testing.T) {
	src := &fakeSource{
		cols: []Column{{Name: "a"}},
		data: [][]typeinfo.RawValue{{{IsNull: true}}},
	}
	r := New(src)
	r.Next()
	var s *string
	if err := r.Scan(&s); err != nil {
		t.Fatal(err)
	}
	if s != nil {
		t.Fatal("expected nil for NULL column")
	}
}
