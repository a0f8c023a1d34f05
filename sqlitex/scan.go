package sqlitex

import (
	"time"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/sqlitetype"
)

// The base *rows.Rows.Scan only understands *string, *[]byte, and *any
// destinations natively; anything else must implement typeinfo.Decoder.
// These Scan* helpers wrap a destination pointer in a Decoder for the
// value kinds SQLite's dynamic typing represents but Go's own scanner
// cannot parse unassisted — pass the result as the positional argument to
// Rows.Scan in place of a bare pointer, e.g. r.Scan(&id, sqlitex.ScanTime(&createdAt)).

type decoderFunc func(raw typeinfo.RawValue) error

func (f decoderFunc) Decode(raw typeinfo.RawValue, _ any) error { return f(raw) }

// ScanInt64 decodes an INTEGER storage-class column into dest.
func ScanInt64(dest *int64) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := sqlitetype.DecodeInteger(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanFloat64 decodes a REAL storage-class column into dest.
func ScanFloat64(dest *float64) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := sqlitetype.DecodeReal(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanTime parses a TEXT storage-class column as RFC 3339, the format
// liteconn encodes a bound time.Time argument as — SQLite has no native
// DATETIME storage class.
func ScanTime(dest *time.Time) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = time.Time{}
			return nil
		}
		s, err := sqlitetype.DecodeText(raw)
		if err != nil {
			return err
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return err
		}
		*dest = t
		return nil
	})
}
