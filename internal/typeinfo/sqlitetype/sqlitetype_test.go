package sqlitetype

import "testing"

func TestAffinityOf(t *testing.T) {
	cases := map[string]Affinity{
		"INTEGER":         AffinityInteger,
		"INT":             AffinityInteger,
		"VARCHAR(255)":    AffinityText,
		"TEXT":            AffinityText,
		"CLOB":            AffinityText,
		"BLOB":            AffinityBlob,
		"":                AffinityBlob,
		"REAL":            AffinityReal,
		"DOUBLE":          AffinityReal,
		"FLOAT":           AffinityReal,
		"NUMERIC(10,2)":   AffinityNumeric,
		"DECIMAL(10,2)":   AffinityNumeric,
		"BOOLEAN":         AffinityNumeric,
	}
	for decl, want := range cases {
		if got := AffinityOf(decl); got != want {
			t.Errorf("AffinityOf(%q) = %v, want %v", decl, got, want)
		}
	}
}

func TestIntegerRoundTrip(t *testing.T) {
	raw := EncodeInteger(-42)
	got, err := DecodeInteger(raw)
	if err != nil || got != -42 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestRealRoundTrip(t *testing.T) {
	raw := EncodeReal(3.14159)
	got, err := DecodeReal(raw)
	if err != nil || got != 3.14159 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestTextRoundTrip(t *testing.T) {
	raw := EncodeText("hello")
	got, err := DecodeText(raw)
	if err != nil || got != "hello" {
		t.Fatalf("got=%q err=%v", got, err)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	raw := EncodeBlob([]byte{1, 2, 3})
	got, err := DecodeBlob(raw)
	if err != nil || len(got) != 3 {
		t.Fatalf("got=%v err=%v", got, err)
	}
}

func TestCompatibleNullAlwaysMatches(t *testing.T) {
	null := Info{Storage: StorageNull}
	text := Info{Storage: StorageText, Affinity: AffinityText}
	if !null.Compatible(text) || !text.Compatible(null) {
		t.Fatal("NULL must be compatible with any storage class")
	}
}

func TestCoerceForAffinity(t *testing.T) {
	intVal := EncodeInteger(7)
	coerced := CoerceForAffinity(intVal, AffinityText)
	if s, _ := DecodeText(coerced); s != "7" {
		t.Fatalf("expected integer coerced to text '7', got %q", s)
	}

	textVal := EncodeText("99")
	coerced = CoerceForAffinity(textVal, AffinityInteger)
	if n, _ := DecodeInteger(coerced); n != 99 {
		t.Fatalf("expected text coerced to integer 99, got %d", n)
	}
}
