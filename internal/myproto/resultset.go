package myproto

import (
	"fmt"

	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// DecodeResultSetColumnCount decodes the lenenc-int column count that
// begins a COM_QUERY result set (or COM_STMT_PREPARE's preamble).
func DecodeResultSetColumnCount(payload []byte) (uint64, error) {
	r := ioutil.NewReadBuf(payload)
	return r.ReadLenencInt()
}

// DecodeTextRow decodes one COM_QUERY (text protocol) result row: each
// column is a length-encoded string, or the single byte 0xfb for NULL.
func DecodeTextRow(payload []byte, n int) ([]typeinfo.RawValue, error) {
	r := ioutil.NewReadBuf(payload)
	values := make([]typeinfo.RawValue, n)
	for i := 0; i < n; i++ {
		if r.Len() == 0 {
			return nil, fmt.Errorf("myproto: text row has fewer than %d columns", n)
		}
		if r.PeekByte() == LocalInfilePacketHeader {
			r.ReadByte()
			values[i] = typeinfo.RawValue{IsNull: true, Format: typeinfo.FormatText}
			continue
		}
		length, err := r.ReadLenencInt()
		if err != nil {
			return nil, err
		}
		b, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, err
		}
		values[i] = typeinfo.RawValue{Bytes: b, Format: typeinfo.FormatText}
	}
	return values, nil
}
