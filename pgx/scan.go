package pgx

import (
	"time"

	"github.com/google/uuid"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/pgtype"
)

// The base *rows.Rows.Scan only understands *string, *[]byte, and *any
// destinations natively; anything else must implement typeinfo.Decoder.
// These Scan* helpers wrap a destination pointer in a Decoder for the
// value kinds pgconn's binary wire format represents but Go's own scanner
// cannot parse unassisted — pass the result as the positional argument to
// Rows.Scan in place of a bare pointer, e.g. r.Scan(&id, pgx.ScanTime(&createdAt)).

type decoderFunc func(raw typeinfo.RawValue) error

func (f decoderFunc) Decode(raw typeinfo.RawValue, _ any) error { return f(raw) }

// ScanInt16 decodes a smallint column into dest.
func ScanInt16(dest *int16) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := pgtype.DecodeInt16(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanInt32 decodes an integer column into dest.
func ScanInt32(dest *int32) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := pgtype.DecodeInt32(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanInt64 decodes a bigint column into dest.
func ScanInt64(dest *int64) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := pgtype.DecodeInt64(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanBool decodes a boolean column into dest.
func ScanBool(dest *bool) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = false
			return nil
		}
		v, err := pgtype.DecodeBool(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanFloat32 decodes a real column into dest.
func ScanFloat32(dest *float32) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := pgtype.DecodeFloat32(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanFloat64 decodes a double precision column into dest.
func ScanFloat64(dest *float64) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = 0
			return nil
		}
		v, err := pgtype.DecodeFloat64(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanUUID decodes a uuid column into dest.
func ScanUUID(dest *uuid.UUID) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = uuid.UUID{}
			return nil
		}
		v, err := pgtype.DecodeUUID(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanTime decodes a timestamp/timestamptz column into dest.
func ScanTime(dest *time.Time) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = time.Time{}
			return nil
		}
		v, err := pgtype.DecodeTimestamp(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}

// ScanDate decodes a date column into dest.
func ScanDate(dest *time.Time) typeinfo.Decoder {
	return decoderFunc(func(raw typeinfo.RawValue) error {
		if raw.IsNull {
			*dest = time.Time{}
			return nil
		}
		v, err := pgtype.DecodeDate(raw)
		if err != nil {
			return err
		}
		*dest = v
		return nil
	})
}
