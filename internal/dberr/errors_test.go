package dberr

import (
	"errors"
	"testing"
)

func TestIsKindThroughWrap(t *testing.T) {
	inner := New(KindIO, "read failed")
	outer := Wrap(KindProtocol, "decoding frame", inner)
	if !IsKind(outer, KindProtocol) {
		t.Fatal("expected outer kind to match")
	}
	if IsKind(outer, KindIO) {
		t.Fatal("IsKind should only match the outermost *Error, not nested causes")
	}
	if !errors.Is(outer, outer) {
		t.Fatal("sanity: outer should equal itself")
	}
}

func TestDatabaseErrorConstraintMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      *DatabaseError
		check    func(*DatabaseError) bool
		expected bool
	}{
		{"mysql unique", NewDatabaseError("1062", "", "", "dup"), (*DatabaseError).IsUniqueViolation, true},
		{"pg unique", NewDatabaseError("", "23505", "ERROR", "dup"), (*DatabaseError).IsUniqueViolation, true},
		{"mysql fk", NewDatabaseError("1452", "", "", "fk"), (*DatabaseError).IsForeignKeyViolation, true},
		{"pg fk", NewDatabaseError("", "23503", "ERROR", "fk"), (*DatabaseError).IsForeignKeyViolation, true},
		{"mysql notnull", NewDatabaseError("1048", "", "", "nn"), (*DatabaseError).IsNotNullViolation, true},
		{"pg notnull", NewDatabaseError("", "23502", "ERROR", "nn"), (*DatabaseError).IsNotNullViolation, true},
		{"mysql check", NewDatabaseError("3819", "", "", "chk"), (*DatabaseError).IsCheckViolation, true},
		{"pg check", NewDatabaseError("", "23514", "ERROR", "chk"), (*DatabaseError).IsCheckViolation, true},
		{"unrelated", NewDatabaseError("1064", "42601", "ERROR", "syntax"), (*DatabaseError).IsUniqueViolation, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.check(c.err); got != c.expected {
				t.Fatalf("got %v, want %v", got, c.expected)
			}
		})
	}
}

func TestDatabaseErrorMessageNeverParaphrased(t *testing.T) {
	msg := "duplicate key value violates unique constraint \"users_email_key\""
	d := NewDatabaseError("", "23505", "ERROR", msg)
	if d.Message != msg {
		t.Fatalf("message was altered: %q", d.Message)
	}
}
