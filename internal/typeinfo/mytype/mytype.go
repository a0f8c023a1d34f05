// Package mytype implements typeinfo.TypeInfo and the binary Encode/Decode
// contracts for MySQL/MariaDB's COM_STMT_EXECUTE wire format.
package mytype

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// ColumnType is the MYSQL_TYPE_* wire constant (mysql_com.h), grounded on
// the constant table junftnt-go-mysql-pure defines for its own hand-rolled
// client.
type ColumnType uint8

const (
	TypeDecimal  ColumnType = 0
	TypeTiny     ColumnType = 1
	TypeShort    ColumnType = 2
	TypeLong     ColumnType = 3
	TypeFloat    ColumnType = 4
	TypeDouble   ColumnType = 5
	TypeNull     ColumnType = 6
	TypeTimestamp ColumnType = 7
	TypeLongLong ColumnType = 8
	TypeInt24    ColumnType = 9
	TypeDate     ColumnType = 10
	TypeTime     ColumnType = 11
	TypeDateTime ColumnType = 12
	TypeYear     ColumnType = 13
	TypeVarchar  ColumnType = 15
	TypeBit      ColumnType = 16
	TypeNewDecimal ColumnType = 246
	TypeBlob     ColumnType = 252
	TypeVarString ColumnType = 253
	TypeString   ColumnType = 254
)

// Flags are the column-definition flags (NOT_NULL, UNSIGNED, ...).
type Flags uint16

const (
	FlagNotNull Flags = 1 << 0
	FlagUnsigned Flags = 1 << 5
)

// Info is the concrete typeinfo.TypeInfo for MySQL: a (column-type, flags,
// charset) triple, matching how MySQL itself disambiguates e.g. signed vs
// unsigned integers and binary vs text strings sharing a column type.
type Info struct {
	Type    ColumnType
	Flags   Flags
	Charset uint16
}

var typeNames = map[ColumnType]string{
	TypeDecimal:    "DECIMAL",
	TypeTiny:       "TINYINT",
	TypeShort:      "SMALLINT",
	TypeLong:       "INT",
	TypeFloat:      "FLOAT",
	TypeDouble:     "DOUBLE",
	TypeNull:       "NULL",
	TypeTimestamp:  "TIMESTAMP",
	TypeLongLong:   "BIGINT",
	TypeInt24:      "MEDIUMINT",
	TypeDate:       "DATE",
	TypeTime:       "TIME",
	TypeDateTime:   "DATETIME",
	TypeYear:       "YEAR",
	TypeVarchar:    "VARCHAR",
	TypeBit:        "BIT",
	TypeNewDecimal: "DECIMAL",
	TypeBlob:       "BLOB",
	TypeVarString:  "VARCHAR",
	TypeString:     "CHAR",
}

func (i Info) Name() string {
	n, ok := typeNames[i.Type]
	if !ok {
		return "UNKNOWN"
	}
	if i.Flags&FlagUnsigned != 0 {
		return n + " UNSIGNED"
	}
	return n
}

// Compatible is reflexive and symmetric: two Infos are compatible when
// their column type matches and their signedness agrees.
func (i Info) Compatible(other typeinfo.TypeInfo) bool {
	o, ok := other.(Info)
	if !ok {
		return false
	}
	return i.Type == o.Type && (i.Flags&FlagUnsigned) == (o.Flags&FlagUnsigned)
}

var _ typeinfo.TypeInfo = Info{}

// EncodeInt appends the little-endian fixed-width integer encoding MySQL
// expects for the given column type (TINY=1 byte, SHORT=2, LONG=4,
// LONGLONG=8).
func EncodeInt(buf *typeinfo.ArgumentBuffer, ty ColumnType, v int64) error {
	switch ty {
	case TypeTiny:
		buf.Buf = append(buf.Buf, byte(v))
	case TypeShort:
		var w ioutil.WriteBuf
		w.WriteUint16LE(uint16(v))
		buf.Buf = append(buf.Buf, w.Bytes()...)
	case TypeLong, TypeInt24:
		var w ioutil.WriteBuf
		w.WriteUint32LE(uint32(v))
		buf.Buf = append(buf.Buf, w.Bytes()...)
	case TypeLongLong:
		var w ioutil.WriteBuf
		w.WriteUint64LE(uint64(v))
		buf.Buf = append(buf.Buf, w.Bytes()...)
	default:
		return fmt.Errorf("mytype: %v is not an integer column type", ty)
	}
	return nil
}

// DecodeInt decodes a little-endian fixed-width integer per column type.
func DecodeInt(raw typeinfo.RawValue) (int64, error) {
	info, ok := raw.Type.(Info)
	if !ok {
		return 0, fmt.Errorf("mytype: raw value has no mytype.Info")
	}
	r := ioutil.NewReadBuf(raw.Bytes)
	unsigned := info.Flags&FlagUnsigned != 0
	switch info.Type {
	case TypeTiny:
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if unsigned {
			return int64(b), nil
		}
		return int64(int8(b)), nil
	case TypeShort:
		v, err := r.ReadUint16LE()
		if err != nil {
			return 0, err
		}
		if unsigned {
			return int64(v), nil
		}
		return int64(int16(v)), nil
	case TypeLong, TypeInt24:
		v, err := r.ReadUint32LE()
		if err != nil {
			return 0, err
		}
		if unsigned {
			return int64(v), nil
		}
		return int64(int32(v)), nil
	case TypeLongLong:
		v, err := r.ReadUint64LE()
		if err != nil {
			return 0, err
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("mytype: %v is not an integer column type", info.Type)
	}
}

// EncodeFloat appends the 4-byte IEEE-754 little-endian float encoding.
func EncodeFloat(buf *typeinfo.ArgumentBuffer, v float32) {
	var w ioutil.WriteBuf
	w.WriteUint32LE(float32bits(v))
	buf.Buf = append(buf.Buf, w.Bytes()...)
}

// EncodeDouble appends the 8-byte IEEE-754 little-endian double encoding.
func EncodeDouble(buf *typeinfo.ArgumentBuffer, v float64) {
	var w ioutil.WriteBuf
	w.WriteUint64LE(float64bits(v))
	buf.Buf = append(buf.Buf, w.Bytes()...)
}

// DecodeFloat decodes a 4-byte IEEE-754 little-endian float.
func DecodeFloat(raw typeinfo.RawValue) (float32, error) {
	r := ioutil.NewReadBuf(raw.Bytes)
	v, err := r.ReadUint32LE()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// DecodeDouble decodes an 8-byte IEEE-754 little-endian double.
func DecodeDouble(raw typeinfo.RawValue) (float64, error) {
	r := ioutil.NewReadBuf(raw.Bytes)
	v, err := r.ReadUint64LE()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// EncodeDecimal appends a length-prefixed ASCII representation, matching
// MySQL's DECIMAL wire encoding (text, not BCD, unlike Postgres numeric).
func EncodeDecimal(buf *typeinfo.ArgumentBuffer, ascii string) {
	buf.Buf = appendLenencString(buf.Buf, ascii)
}

// DecodeDecimal decodes MySQL's length-prefixed ASCII DECIMAL encoding.
func DecodeDecimal(raw typeinfo.RawValue) (string, error) {
	return string(raw.Bytes), nil
}

// DateTimeParts mirrors the MySQL binary DATE/DATETIME/TIMESTAMP
// encoding's fixed field layout.
type DateTimeParts struct {
	Year        uint16
	Month       uint8
	Day         uint8
	Hour        uint8
	Minute      uint8
	Second      uint8
	Microsecond uint32
}

// EncodeDateTime appends the length-prefixed binary DATE/DATETIME/TIMESTAMP
// encoding: a length byte followed by 4, 7, or 11 fields depending on how
// much precision is non-zero, per the MySQL binary protocol.
func EncodeDateTime(buf *typeinfo.ArgumentBuffer, p DateTimeParts) {
	var body ioutil.WriteBuf
	switch {
	case p.Microsecond != 0:
		body.WriteUint16LE(p.Year)
		body.WriteByte(p.Month)
		body.WriteByte(p.Day)
		body.WriteByte(p.Hour)
		body.WriteByte(p.Minute)
		body.WriteByte(p.Second)
		body.WriteUint32LE(p.Microsecond)
	case p.Hour != 0 || p.Minute != 0 || p.Second != 0:
		body.WriteUint16LE(p.Year)
		body.WriteByte(p.Month)
		body.WriteByte(p.Day)
		body.WriteByte(p.Hour)
		body.WriteByte(p.Minute)
		body.WriteByte(p.Second)
	case p.Year != 0 || p.Month != 0 || p.Day != 0:
		body.WriteUint16LE(p.Year)
		body.WriteByte(p.Month)
		body.WriteByte(p.Day)
	}
	buf.Buf = append(buf.Buf, byte(body.Len()))
	buf.Buf = append(buf.Buf, body.Bytes()...)
}

// DecodeDateTime decodes the length-prefixed binary
// DATE/DATETIME/TIMESTAMP encoding. raw.Bytes must be the body only (the
// length byte is consumed by the row decoder before RawValue is built).
func DecodeDateTime(raw typeinfo.RawValue) (DateTimeParts, error) {
	var p DateTimeParts
	if len(raw.Bytes) == 0 {
		return p, nil
	}
	r := ioutil.NewReadBuf(raw.Bytes)
	var err error
	if p.Year, err = r.ReadUint16LE(); err != nil {
		return p, err
	}
	if p.Month, err = r.ReadByte(); err != nil {
		return p, err
	}
	if p.Day, err = r.ReadByte(); err != nil {
		return p, err
	}
	if r.Len() == 0 {
		return p, nil
	}
	if p.Hour, err = r.ReadByte(); err != nil {
		return p, err
	}
	if p.Minute, err = r.ReadByte(); err != nil {
		return p, err
	}
	if p.Second, err = r.ReadByte(); err != nil {
		return p, err
	}
	if r.Len() == 0 {
		return p, nil
	}
	if p.Microsecond, err = r.ReadUint32LE(); err != nil {
		return p, err
	}
	return p, nil
}

// ToTime converts DateTimeParts to a time.Time in UTC.
func (p DateTimeParts) ToTime() time.Time {
	return time.Date(int(p.Year), time.Month(maxInt(p.Month, 1)), int(maxInt(p.Day, 1)), int(p.Hour), int(p.Minute), int(p.Second), int(p.Microsecond)*1000, time.UTC)
}

// FromTime converts a time.Time into DateTimeParts.
func FromTime(t time.Time) DateTimeParts {
	t = t.UTC()
	return DateTimeParts{
		Year: uint16(t.Year()), Month: uint8(t.Month()), Day: uint8(t.Day()),
		Hour: uint8(t.Hour()), Minute: uint8(t.Minute()), Second: uint8(t.Second()),
		Microsecond: uint32(t.Nanosecond() / 1000),
	}
}

func maxInt(v uint8, min uint8) uint8 {
	if v < min {
		return min
	}
	return v
}

// EncodeString appends a length-encoded string, per MySQL's VARCHAR/
// VAR_STRING/BLOB/STRING binary encoding.
func EncodeString(buf *typeinfo.ArgumentBuffer, s string) {
	buf.Buf = appendLenencString(buf.Buf, s)
}

// DecodeString decodes a length-encoded string. raw.Bytes is the already
// length-delimited payload (the row decoder strips the length prefix).
func DecodeString(raw typeinfo.RawValue) (string, error) {
	return string(raw.Bytes), nil
}

func appendLenencString(dst []byte, s string) []byte {
	var w ioutil.WriteBuf
	w.WriteLenencString(s)
	return append(dst, w.Bytes()...)
}

func float32bits(v float32) uint32 {
	return math.Float32bits(v)
}

func float64bits(v float64) uint64 {
	return math.Float64bits(v)
}

// FormatDecimal renders a float as the ASCII text MySQL's DECIMAL wire
// encoding expects, for callers that only have a float64 in hand.
func FormatDecimal(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
