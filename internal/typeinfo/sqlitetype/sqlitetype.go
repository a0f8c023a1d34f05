// Package sqlitetype implements typeinfo.TypeInfo for SQLite's storage
// classes and column affinity rules (SQLite §3 "Datatypes In SQLite"),
// which replace Postgres OIDs and MySQL column-type bytes as the third
// database's type system.
package sqlitetype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// StorageClass is one of SQLite's five fundamental storage classes. Unlike
// Postgres/MySQL, the storage class of a value is determined by the value
// itself, not solely by the declared column type.
type StorageClass int

const (
	StorageNull StorageClass = iota
	StorageInteger
	StorageReal
	StorageText
	StorageBlob
)

func (s StorageClass) String() string {
	switch s {
	case StorageNull:
		return "NULL"
	case StorageInteger:
		return "INTEGER"
	case StorageReal:
		return "REAL"
	case StorageText:
		return "TEXT"
	case StorageBlob:
		return "BLOB"
	default:
		return "UNKNOWN"
	}
}

// Affinity is the column affinity computed from a declared column type
// string per SQLite's type affinity rules.
type Affinity int

const (
	AffinityBlob Affinity = iota
	AffinityText
	AffinityNumeric
	AffinityInteger
	AffinityReal
)

func (a Affinity) String() string {
	switch a {
	case AffinityText:
		return "TEXT"
	case AffinityNumeric:
		return "NUMERIC"
	case AffinityInteger:
		return "INTEGER"
	case AffinityReal:
		return "REAL"
	default:
		return "BLOB"
	}
}

// AffinityOf computes a column's affinity from its declared type string,
// following the five rules in SQLite's "Determination Of Column Affinity"
// section, applied in order.
func AffinityOf(declaredType string) Affinity {
	t := strings.ToUpper(strings.TrimSpace(declaredType))
	switch {
	case t == "":
		return AffinityBlob
	case strings.Contains(t, "INT"):
		return AffinityInteger
	case strings.Contains(t, "CHAR"), strings.Contains(t, "CLOB"), strings.Contains(t, "TEXT"):
		return AffinityText
	case strings.Contains(t, "BLOB"):
		return AffinityBlob
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOA"), strings.Contains(t, "DOUB"):
		return AffinityReal
	default:
		return AffinityNumeric
	}
}

// Info is the concrete typeinfo.TypeInfo for SQLite: the storage class of
// the actual value, plus the declared column affinity (if known) that
// governs how literals are coerced.
type Info struct {
	Storage  StorageClass
	Affinity Affinity
}

func (i Info) Name() string {
	return i.Storage.String()
}

// Compatible is reflexive and symmetric: NULL is compatible with any
// storage class (SQLite permits NULL in any column), and otherwise a value
// is compatible with another of the same storage class, or when the two
// affinities agree that a value would be coerced the same way.
func (i Info) Compatible(other typeinfo.TypeInfo) bool {
	o, ok := other.(Info)
	if !ok {
		return false
	}
	if i.Storage == StorageNull || o.Storage == StorageNull {
		return true
	}
	if i.Storage == o.Storage {
		return true
	}
	return i.Affinity == o.Affinity
}

var _ typeinfo.TypeInfo = Info{}

// EncodeInteger appends the ASCII decimal text SQLite uses for its
// text-protocol (SQLite has no separate binary wire format; the core
// speaks to it over the libsqlite3/modernc.org/sqlite API directly, so
// Encode here means "value as bound through the engine interface").
func EncodeInteger(v int64) typeinfo.RawValue {
	return typeinfo.RawValue{Bytes: []byte(strconv.FormatInt(v, 10)), Type: Info{Storage: StorageInteger, Affinity: AffinityInteger}}
}

// DecodeInteger parses an INTEGER storage-class raw value.
func DecodeInteger(raw typeinfo.RawValue) (int64, error) {
	return strconv.ParseInt(string(raw.Bytes), 10, 64)
}

// EncodeReal appends the REAL storage-class textual form.
func EncodeReal(v float64) typeinfo.RawValue {
	return typeinfo.RawValue{Bytes: []byte(strconv.FormatFloat(v, 'g', -1, 64)), Type: Info{Storage: StorageReal, Affinity: AffinityReal}}
}

// DecodeReal parses a REAL storage-class raw value.
func DecodeReal(raw typeinfo.RawValue) (float64, error) {
	return strconv.ParseFloat(string(raw.Bytes), 64)
}

// EncodeText wraps a string as a TEXT storage-class raw value.
func EncodeText(v string) typeinfo.RawValue {
	return typeinfo.RawValue{Bytes: []byte(v), Type: Info{Storage: StorageText, Affinity: AffinityText}}
}

// DecodeText returns the underlying string of a TEXT storage-class value.
func DecodeText(raw typeinfo.RawValue) (string, error) {
	if raw.Type != nil {
		if info, ok := raw.Type.(Info); ok && info.Storage != StorageText && info.Storage != StorageNull {
			return "", fmt.Errorf("sqlitetype: cannot decode %s storage class as TEXT", info.Storage)
		}
	}
	return string(raw.Bytes), nil
}

// EncodeBlob wraps a byte slice as a BLOB storage-class raw value.
func EncodeBlob(v []byte) typeinfo.RawValue {
	return typeinfo.RawValue{Bytes: v, Type: Info{Storage: StorageBlob, Affinity: AffinityBlob}}
}

// DecodeBlob returns the underlying bytes of a BLOB storage-class value.
func DecodeBlob(raw typeinfo.RawValue) ([]byte, error) {
	return raw.Bytes, nil
}

// CoerceForAffinity applies SQLite's affinity-driven type conversion rules
// for a literal being inserted into a column of the given affinity: TEXT
// affinity converts INTEGER/REAL to TEXT; NUMERIC/INTEGER/REAL affinities
// attempt to convert TEXT/BLOB to a numeric storage class and fall back to
// the original storage class when the conversion is lossless-losing.
func CoerceForAffinity(v typeinfo.RawValue, aff Affinity) typeinfo.RawValue {
	info, ok := v.Type.(Info)
	if !ok {
		return v
	}
	switch aff {
	case AffinityText:
		if info.Storage == StorageInteger || info.Storage == StorageReal {
			return EncodeText(string(v.Bytes))
		}
	case AffinityInteger, AffinityNumeric, AffinityReal:
		if info.Storage == StorageText {
			if n, err := strconv.ParseInt(string(v.Bytes), 10, 64); err == nil {
				return EncodeInteger(n)
			}
			if f, err := strconv.ParseFloat(string(v.Bytes), 64); err == nil {
				return EncodeReal(f)
			}
		}
	}
	return v
}
