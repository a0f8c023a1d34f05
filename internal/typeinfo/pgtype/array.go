package pgtype

import (
	"fmt"

	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// Array is the decoded shape of a one-dimensional Postgres array: each
// element is itself a RawValue (NULL-aware, still in the element's binary
// format) so callers decode elements with the same Decode functions used
// for scalars.
type Array struct {
	ElementOID OID
	HasNulls   bool
	Elements   []typeinfo.RawValue
}

// EncodeArray appends the binary array header (ndim, has-nulls flag,
// element oid, then per-dimension length/lower-bound) followed by each
// element as a length-prefixed (or -1 for NULL) binary value. Only
// one-dimensional arrays are supported, matching the core's scope.
func EncodeArray(buf *typeinfo.ArgumentBuffer, elementOID OID, elements [][]byte, nulls []bool) error {
	if len(elements) != len(nulls) {
		return fmt.Errorf("pgtype: array elements/nulls length mismatch")
	}
	hasNulls := int32(0)
	for _, n := range nulls {
		if n {
			hasNulls = 1
			break
		}
	}
	var w ioutil.WriteBuf
	w.WriteInt32BE(1) // ndim
	w.WriteInt32BE(hasNulls)
	w.WriteUint32BE(uint32(elementOID))
	w.WriteInt32BE(int32(len(elements)))
	w.WriteInt32BE(1) // lower bound
	buf.Buf = append(buf.Buf, w.Bytes()...)

	for i, el := range elements {
		if nulls[i] {
			var lenBuf ioutil.WriteBuf
			lenBuf.WriteInt32BE(-1)
			buf.Buf = append(buf.Buf, lenBuf.Bytes()...)
			continue
		}
		var lenBuf ioutil.WriteBuf
		lenBuf.WriteInt32BE(int32(len(el)))
		buf.Buf = append(buf.Buf, lenBuf.Bytes()...)
		buf.Buf = append(buf.Buf, el...)
	}
	return nil
}

// DecodeArray decodes a one-dimensional binary array into Array. Arrays
// with more than one dimension are rejected rather than silently
// flattened.
func DecodeArray(raw typeinfo.RawValue, format typeinfo.Format) (Array, error) {
	r := ioutil.NewReadBuf(raw.Bytes)
	ndim, err := r.ReadInt32BE()
	if err != nil {
		return Array{}, err
	}
	if ndim > 1 {
		return Array{}, fmt.Errorf("pgtype: multi-dimensional arrays are not supported (ndim=%d)", ndim)
	}
	hasNullsFlag, err := r.ReadInt32BE()
	if err != nil {
		return Array{}, err
	}
	elemOID, err := r.ReadUint32BE()
	if err != nil {
		return Array{}, err
	}
	arr := Array{ElementOID: OID(elemOID), HasNulls: hasNullsFlag != 0}
	if ndim == 0 {
		return arr, nil
	}
	length, err := r.ReadInt32BE()
	if err != nil {
		return Array{}, err
	}
	if _, err := r.ReadInt32BE(); err != nil { // lower bound, unused
		return Array{}, err
	}
	elemInfo := NewInfo(OID(elemOID))
	for i := int32(0); i < length; i++ {
		elLen, err := r.ReadInt32BE()
		if err != nil {
			return Array{}, err
		}
		if elLen < 0 {
			arr.Elements = append(arr.Elements, typeinfo.RawValue{IsNull: true, Format: format, Type: elemInfo})
			continue
		}
		b, err := r.ReadBytes(int(elLen))
		if err != nil {
			return Array{}, err
		}
		arr.Elements = append(arr.Elements, typeinfo.RawValue{Bytes: b, Format: format, Type: elemInfo})
	}
	return arr, nil
}
