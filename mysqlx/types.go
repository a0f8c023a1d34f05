package mysqlx

import (
	"fmt"
	"time"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/mytype"
)

// argToRawValue bridges a plain Go argument value to the binary-format
// typeinfo.RawValue COM_STMT_EXECUTE binds. Unlike pgconn, myconn actually
// reads the attached mytype.Info back out (buildBoundParam) to pick the
// wire column type and unsigned flag it sends the server, so the Info
// here has to be right, not just informational.
func argToRawValue(v any) (typeinfo.RawValue, error) {
	if v == nil {
		return typeinfo.RawValue{IsNull: true}, nil
	}

	var buf typeinfo.ArgumentBuffer
	var ty mytype.ColumnType

	switch t := v.(type) {
	case bool:
		ty = mytype.TypeTiny
		n := int64(0)
		if t {
			n = 1
		}
		if err := mytype.EncodeInt(&buf, ty, n); err != nil {
			return typeinfo.RawValue{}, err
		}
	case int16:
		ty = mytype.TypeShort
		if err := mytype.EncodeInt(&buf, ty, int64(t)); err != nil {
			return typeinfo.RawValue{}, err
		}
	case int32:
		ty = mytype.TypeLong
		if err := mytype.EncodeInt(&buf, ty, int64(t)); err != nil {
			return typeinfo.RawValue{}, err
		}
	case int:
		ty = mytype.TypeLongLong
		if err := mytype.EncodeInt(&buf, ty, int64(t)); err != nil {
			return typeinfo.RawValue{}, err
		}
	case int64:
		ty = mytype.TypeLongLong
		if err := mytype.EncodeInt(&buf, ty, t); err != nil {
			return typeinfo.RawValue{}, err
		}
	case float32:
		ty = mytype.TypeFloat
		mytype.EncodeFloat(&buf, t)
	case float64:
		ty = mytype.TypeDouble
		mytype.EncodeDouble(&buf, t)
	case string:
		ty = mytype.TypeVarString
		mytype.EncodeString(&buf, t)
	case []byte:
		ty = mytype.TypeBlob
		mytype.EncodeString(&buf, string(t))
	case time.Time:
		ty = mytype.TypeDateTime
		mytype.EncodeDateTime(&buf, mytype.FromTime(t))
	default:
		return typeinfo.RawValue{}, fmt.Errorf("mysqlx: unsupported argument type %T", v)
	}

	return typeinfo.RawValue{
		Bytes:  buf.Buf,
		Format: typeinfo.FormatBinary,
		Type:   mytype.Info{Type: ty},
	}, nil
}
