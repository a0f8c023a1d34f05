package ioutil

import "testing"

func TestWriteReadUint32BE(t *testing.T) {
	var w WriteBuf
	w.WriteUint32BE(1214)
	r := NewReadBuf(w.Bytes())
	got, err := r.ReadUint32BE()
	if err != nil {
		t.Fatal(err)
	}
	if got != 1214 {
		t.Fatalf("got %d, want 1214", got)
	}
}

func TestWriteReadCString(t *testing.T) {
	var w WriteBuf
	w.WriteCString("hello")
	w.WriteCString("world")
	r := NewReadBuf(w.Bytes())
	a, err := r.ReadCString()
	if err != nil || a != "hello" {
		t.Fatalf("a=%q err=%v", a, err)
	}
	b, err := r.ReadCString()
	if err != nil || b != "world" {
		t.Fatalf("b=%q err=%v", b, err)
	}
}

func TestReadCStringUnterminated(t *testing.T) {
	r := NewReadBuf([]byte("no-nul"))
	if _, err := r.ReadCString(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestLenencIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 250, 251, 1<<16 - 1, 1 << 16, 1<<24 - 1, 1 << 24, 1 << 40}
	for _, v := range cases {
		var w WriteBuf
		w.WriteLenencInt(v)
		r := NewReadBuf(w.Bytes())
		got, err := r.ReadLenencInt()
		if err != nil {
			t.Fatalf("v=%d err=%v", v, err)
		}
		if got != v {
			t.Fatalf("v=%d got=%d", v, got)
		}
	}
}

func TestReadBytesShort(t *testing.T) {
	r := NewReadBuf([]byte{1, 2})
	if _, err := r.ReadBytes(3); err == nil {
		t.Fatal("expected short-read error")
	}
}

func TestLenencStringRoundTrip(t *testing.T) {
	var w WriteBuf
	w.WriteLenencString("select 1")
	r := NewReadBuf(w.Bytes())
	got, err := r.ReadLenencString()
	if err != nil {
		t.Fatal(err)
	}
	if got != "select 1" {
		t.Fatalf("got %q", got)
	}
}
