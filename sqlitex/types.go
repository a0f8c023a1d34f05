package sqlitex

import (
	"fmt"
	"time"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/sqlitetype"
)

// argToRawValue bridges a plain Go argument value to the storage-class-
// tagged typeinfo.RawValue liteconn's Query/Exec bind. Unlike pgtype/
// mytype, sqlitetype's Encode* functions build a RawValue directly rather
// than appending into a shared ArgumentBuffer — there is no fixed-width
// wire format to pack into; SQLite's dynamic typing means the value's own
// storage class is the only "type" there is.
func argToRawValue(v any) (typeinfo.RawValue, error) {
	switch t := v.(type) {
	case nil:
		return typeinfo.RawValue{IsNull: true, Type: sqlitetype.Info{Storage: sqlitetype.StorageNull}}, nil
	case bool:
		if t {
			return sqlitetype.EncodeInteger(1), nil
		}
		return sqlitetype.EncodeInteger(0), nil
	case int16:
		return sqlitetype.EncodeInteger(int64(t)), nil
	case int32:
		return sqlitetype.EncodeInteger(int64(t)), nil
	case int:
		return sqlitetype.EncodeInteger(int64(t)), nil
	case int64:
		return sqlitetype.EncodeInteger(t), nil
	case float32:
		return sqlitetype.EncodeReal(float64(t)), nil
	case float64:
		return sqlitetype.EncodeReal(t), nil
	case string:
		return sqlitetype.EncodeText(t), nil
	case []byte:
		return sqlitetype.EncodeBlob(t), nil
	case time.Time:
		return sqlitetype.EncodeText(t.UTC().Format(time.RFC3339Nano)), nil
	default:
		return typeinfo.RawValue{}, fmt.Errorf("sqlitex: unsupported argument type %T", v)
	}
}
