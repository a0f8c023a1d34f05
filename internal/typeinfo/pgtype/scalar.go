package pgtype

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// EncodeBool appends the 1-byte binary bool encoding.
func EncodeBool(buf *typeinfo.ArgumentBuffer, v bool) {
	if v {
		buf.Buf = append(buf.Buf, 1)
	} else {
		buf.Buf = append(buf.Buf, 0)
	}
}

// DecodeBool decodes the 1-byte binary bool encoding.
func DecodeBool(raw typeinfo.RawValue) (bool, error) {
	if len(raw.Bytes) != 1 {
		return false, fmt.Errorf("pgtype: bool must be 1 byte, got %d", len(raw.Bytes))
	}
	return raw.Bytes[0] != 0, nil
}

// EncodeInt16 appends a big-endian int2.
func EncodeInt16(buf *typeinfo.ArgumentBuffer, v int16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(v))
	buf.Buf = append(buf.Buf, tmp[:]...)
}

// DecodeInt16 decodes a big-endian int2.
func DecodeInt16(raw typeinfo.RawValue) (int16, error) {
	if len(raw.Bytes) != 2 {
		return 0, fmt.Errorf("pgtype: int2 must be 2 bytes, got %d", len(raw.Bytes))
	}
	return int16(binary.BigEndian.Uint16(raw.Bytes)), nil
}

// EncodeInt32 appends a big-endian int4.
func EncodeInt32(buf *typeinfo.ArgumentBuffer, v int32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], uint32(v))
	buf.Buf = append(buf.Buf, tmp[:]...)
}

// DecodeInt32 decodes a big-endian int4.
func DecodeInt32(raw typeinfo.RawValue) (int32, error) {
	if len(raw.Bytes) != 4 {
		return 0, fmt.Errorf("pgtype: int4 must be 4 bytes, got %d", len(raw.Bytes))
	}
	return int32(binary.BigEndian.Uint32(raw.Bytes)), nil
}

// EncodeInt64 appends a big-endian int8.
func EncodeInt64(buf *typeinfo.ArgumentBuffer, v int64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(v))
	buf.Buf = append(buf.Buf, tmp[:]...)
}

// DecodeInt64 decodes a big-endian int8.
func DecodeInt64(raw typeinfo.RawValue) (int64, error) {
	if len(raw.Bytes) != 8 {
		return 0, fmt.Errorf("pgtype: int8 must be 8 bytes, got %d", len(raw.Bytes))
	}
	return int64(binary.BigEndian.Uint64(raw.Bytes)), nil
}

// EncodeFloat32 appends the IEEE-754 big-endian float4 encoding.
func EncodeFloat32(buf *typeinfo.ArgumentBuffer, v float32) {
	EncodeInt32(buf, int32(math.Float32bits(v)))
}

// DecodeFloat32 decodes the IEEE-754 big-endian float4 encoding.
func DecodeFloat32(raw typeinfo.RawValue) (float32, error) {
	v, err := DecodeInt32(raw)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(v)), nil
}

// EncodeFloat64 appends the IEEE-754 big-endian float8 encoding.
func EncodeFloat64(buf *typeinfo.ArgumentBuffer, v float64) {
	EncodeInt64(buf, int64(math.Float64bits(v)))
}

// DecodeFloat64 decodes the IEEE-754 big-endian float8 encoding.
func DecodeFloat64(raw typeinfo.RawValue) (float64, error) {
	v, err := DecodeInt64(raw)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(uint64(v)), nil
}

// EncodeText appends s verbatim — text/varchar are raw UTF-8 on the wire in
// both binary and text format.
func EncodeText(buf *typeinfo.ArgumentBuffer, s string) {
	buf.Buf = append(buf.Buf, s...)
}

// DecodeText decodes raw UTF-8 bytes.
func DecodeText(raw typeinfo.RawValue) (string, error) {
	return string(raw.Bytes), nil
}

// EncodeBytea appends b verbatim — bytea is raw bytes on the wire.
func EncodeBytea(buf *typeinfo.ArgumentBuffer, b []byte) {
	buf.Buf = append(buf.Buf, b...)
}

// DecodeBytea decodes raw bytes, copying out of the borrowed RawValue.
func DecodeBytea(raw typeinfo.RawValue) ([]byte, error) {
	out := make([]byte, len(raw.Bytes))
	copy(out, raw.Bytes)
	return out, nil
}

// EncodeJSON appends data verbatim — json is raw UTF-8 text.
func EncodeJSON(buf *typeinfo.ArgumentBuffer, data []byte) {
	buf.Buf = append(buf.Buf, data...)
}

// DecodeJSON returns the raw UTF-8 JSON bytes, copied out.
func DecodeJSON(raw typeinfo.RawValue) ([]byte, error) {
	out := make([]byte, len(raw.Bytes))
	copy(out, raw.Bytes)
	return out, nil
}

const jsonbVersion byte = 0x01

// EncodeJSONB appends the version byte 0x01 followed by raw UTF-8 JSON.
func EncodeJSONB(buf *typeinfo.ArgumentBuffer, data []byte) {
	buf.Buf = append(buf.Buf, jsonbVersion)
	buf.Buf = append(buf.Buf, data...)
}

// DecodeJSONB strips the jsonb version byte and returns the JSON bytes.
func DecodeJSONB(raw typeinfo.RawValue) ([]byte, error) {
	if len(raw.Bytes) < 1 {
		return nil, fmt.Errorf("pgtype: jsonb value too short")
	}
	if raw.Bytes[0] != jsonbVersion {
		return nil, fmt.Errorf("pgtype: unsupported jsonb version byte 0x%02x", raw.Bytes[0])
	}
	out := make([]byte, len(raw.Bytes)-1)
	copy(out, raw.Bytes[1:])
	return out, nil
}
