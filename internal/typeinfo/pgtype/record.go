package pgtype

import (
	"fmt"

	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// RecordField is one column of a decoded composite (record) value.
type RecordField struct {
	OID   OID
	Value typeinfo.RawValue
}

// DecodeRecord decodes the binary record/composite encoding: a field
// count, then per field an OID and a length-prefixed (or -1 for NULL)
// binary value.
func DecodeRecord(raw typeinfo.RawValue, format typeinfo.Format) ([]RecordField, error) {
	r := ioutil.NewReadBuf(raw.Bytes)
	count, err := r.ReadInt32BE()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("pgtype: negative record field count %d", count)
	}
	fields := make([]RecordField, 0, count)
	for i := int32(0); i < count; i++ {
		oid, err := r.ReadUint32BE()
		if err != nil {
			return nil, err
		}
		fieldLen, err := r.ReadInt32BE()
		if err != nil {
			return nil, err
		}
		info := NewInfo(OID(oid))
		if fieldLen < 0 {
			fields = append(fields, RecordField{OID: OID(oid), Value: typeinfo.RawValue{IsNull: true, Format: format, Type: info}})
			continue
		}
		b, err := r.ReadBytes(int(fieldLen))
		if err != nil {
			return nil, err
		}
		fields = append(fields, RecordField{OID: OID(oid), Value: typeinfo.RawValue{Bytes: b, Format: format, Type: info}})
	}
	return fields, nil
}

// EncodeRecord appends a binary record encoding from already-encoded field
// bytes (nil entries encode as SQL NULL).
func EncodeRecord(buf *typeinfo.ArgumentBuffer, fieldOIDs []OID, fields [][]byte) error {
	if len(fieldOIDs) != len(fields) {
		return fmt.Errorf("pgtype: record field/oid length mismatch")
	}
	var w ioutil.WriteBuf
	w.WriteInt32BE(int32(len(fields)))
	buf.Buf = append(buf.Buf, w.Bytes()...)
	for i, f := range fields {
		var hdr ioutil.WriteBuf
		hdr.WriteUint32BE(uint32(fieldOIDs[i]))
		if f == nil {
			hdr.WriteInt32BE(-1)
			buf.Buf = append(buf.Buf, hdr.Bytes()...)
			continue
		}
		hdr.WriteInt32BE(int32(len(f)))
		buf.Buf = append(buf.Buf, hdr.Bytes()...)
		buf.Buf = append(buf.Buf, f...)
	}
	return nil
}
