// Package typeinfo defines the database-agnostic contracts that the
// per-database type tables (pgtype, mytype, sqlitetype) implement: a
// TypeInfo descriptor, a borrowed RawValue view into a decoded row, and the
// Encode/Decode boundary between protocol bytes and typed Go values.
package typeinfo

import "fmt"

// Format is the wire representation of a column or argument value.
type Format int

const (
	FormatText Format = iota
	FormatBinary
)

// TypeInfo is a per-database type descriptor. Postgres identifies types by
// a 32-bit OID plus a catalog name; MySQL by a (column-type, flags,
// charset) triple; SQLite by a storage class plus column affinity. Drivers
// implement this interface once per database.
type TypeInfo interface {
	// Name is the human-readable type name (e.g. "int4", "VARCHAR", "TEXT").
	Name() string
	// Compatible reports whether a value of type other may be bound/decoded
	// as this type. Compatible must be reflexive (t.Compatible(t) == true)
	// and symmetric (a.Compatible(b) == b.Compatible(a)).
	Compatible(other TypeInfo) bool
}

// RawValue is a borrowed view into a single decoded column. Its Bytes slice
// is only valid for the lifetime of the Row it was drawn from — callers
// that need to keep the value past that point must Decode it into an owned
// Go value; RawValue itself is never silently cloned.
type RawValue struct {
	Bytes  []byte // nil means SQL NULL; non-nil but empty means a zero-length value
	IsNull bool
	Format Format
	Type   TypeInfo
}

// IsNil reports whether this value represents SQL NULL.
func (v RawValue) IsNil() bool { return v.IsNull }

// ArgumentBuffer accumulates encoded positional parameters for a single
// statement invocation: the encode buffer, the parallel declared TypeInfo
// list and (MySQL) the NULL bitmap, or (Postgres) the implicit per-value
// length prefix written by Encode itself.
type ArgumentBuffer struct {
	Buf     []byte
	Types   []TypeInfo
	IsNull  []bool // parallel to Types; used to build MySQL's NULL bitmap
}

// Reset empties the argument buffer for reuse across statement invocations.
func (a *ArgumentBuffer) Reset() {
	a.Buf = a.Buf[:0]
	a.Types = a.Types[:0]
	a.IsNull = a.IsNull[:0]
}

// Encoder appends a value's protocol-level bytes to buf, returning whether
// the value encoded as SQL NULL. Implementations are provided per Go type
// per database by the pgtype/mytype/sqlitetype packages.
type Encoder interface {
	Encode(buf *ArgumentBuffer, ty TypeInfo) (isNull bool, err error)
}

// Decoder consumes a RawValue and produces a typed Go value, writing it
// into the value pointed to by dest.
type Decoder interface {
	Decode(raw RawValue, dest any) error
}

// ColumnDecodeError reports a conversion failure at a specific column,
// preserving the original driver error without paraphrasing.
type ColumnDecodeError struct {
	Column int
	Name   string
	Type   TypeInfo
	Cause  error
}

func (e *ColumnDecodeError) Error() string {
	return fmt.Sprintf("typeinfo: decoding column %d (%q, type %s): %v", e.Column, e.Name, e.Type.Name(), e.Cause)
}

func (e *ColumnDecodeError) Unwrap() error { return e.Cause }
