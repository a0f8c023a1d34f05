package pgtype

import (
	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// Range flag bits (rangetypes.h).
const (
	RangeEmpty     byte = 0x01
	RangeLowerInc  byte = 0x02
	RangeUpperInc  byte = 0x04
	RangeLowerInf  byte = 0x08
	RangeUpperInf  byte = 0x10
)

// Range is a decoded Postgres range value: a flag byte plus optional
// length-prefixed lower/upper bound bytes in the subtype's own binary
// format.
type Range struct {
	Flags byte
	Lower typeinfo.RawValue // zero value (nil Bytes) when Flags has RangeLowerInf set
	Upper typeinfo.RawValue
}

// EncodeRange appends the flag byte followed by present bounds, each
// length-prefixed.
func EncodeRange(buf *typeinfo.ArgumentBuffer, flags byte, lower, upper []byte) {
	buf.Buf = append(buf.Buf, flags)
	if flags&RangeLowerInf == 0 && flags&RangeEmpty == 0 {
		var w ioutil.WriteBuf
		w.WriteInt32BE(int32(len(lower)))
		buf.Buf = append(buf.Buf, w.Bytes()...)
		buf.Buf = append(buf.Buf, lower...)
	}
	if flags&RangeUpperInf == 0 && flags&RangeEmpty == 0 {
		var w ioutil.WriteBuf
		w.WriteInt32BE(int32(len(upper)))
		buf.Buf = append(buf.Buf, w.Bytes()...)
		buf.Buf = append(buf.Buf, upper...)
	}
}

// DecodeRange decodes a range value for a given subtype OID.
func DecodeRange(raw typeinfo.RawValue, subtypeOID OID, format typeinfo.Format) (Range, error) {
	r := ioutil.NewReadBuf(raw.Bytes)
	flags, err := r.ReadByte()
	if err != nil {
		return Range{}, err
	}
	rg := Range{Flags: flags}
	info := NewInfo(subtypeOID)
	if flags&RangeEmpty != 0 {
		return rg, nil
	}
	if flags&RangeLowerInf == 0 {
		n, err := r.ReadInt32BE()
		if err != nil {
			return Range{}, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return Range{}, err
		}
		rg.Lower = typeinfo.RawValue{Bytes: b, Format: format, Type: info}
	}
	if flags&RangeUpperInf == 0 {
		n, err := r.ReadInt32BE()
		if err != nil {
			return Range{}, err
		}
		b, err := r.ReadBytes(int(n))
		if err != nil {
			return Range{}, err
		}
		rg.Upper = typeinfo.RawValue{Bytes: b, Format: format, Type: info}
	}
	return rg, nil
}
