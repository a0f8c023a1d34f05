package mysqlx

import (
	"time"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/mytype"
)

// The base *rows.Rows.Scan only understands *string, *[]byte, and *any
// destinations natively; anything else must implement typeinfo.Decoder.
// These Scan* helpers wrap a destination pointer in a Decoder for the
// value kinds myconn's binary wire format represents but Go's own scanner
// cannot parse unassisted — pass the result as the positional argument to
// Rows.Scan in place of a bare pointer, e.g. r.Scan(&id, mysqlx.ScanTime(&createdAt)).

type decoderFunc func(raw typeinfo.RawValue) error

func (f decoderFunc) Decode(raw typeinfo.RawValue, _ any) error { return f(raw) }

// ScanInt64 decodes a TINY/SHORT/LONG/INT24/LONGLONG column into dest,
// widening as needed per mytype.DecodeInt's own column-type dispatch.
func ScanInt64(dest *int64) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := mytype.DecodeInt(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanFloat32 decodes a FLOAT column into dest.
func ScanFloat32(dest *float32) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := mytype.DecodeFloat(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanFloat64 decodes a DOUBLE column into dest.
func ScanFloat64(dest *float64) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := mytype.DecodeDouble(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanDecimal decodes a DECIMAL/NEWDECIMAL column into dest as the ASCII
// text MySQL sends it as, leaving precision decisions to the caller.
func ScanDecimal(dest *string) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = ""
			return nil
		}
		v, err := mytype.DecodeDecimal(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanTime decodes a DATE/DATETIME/TIMESTAMP column into dest.
func ScanTime(dest *time.Time) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = time.Time{}
			return nil
		}
		p, err := mytype.DecodeDateTime(raw)
		if err != nil {
			return err
		}
		*dest = p.ToTime()
		return nil
	})
}
