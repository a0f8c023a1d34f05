package pgx

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/pgtype"
)

// argToRawValue bridges a plain Go argument value to the binary-format
// typeinfo.RawValue pgconn's Query/Exec bind. The OID attached is
// informational only — pgconn ignores it and lets the backend coerce the
// bound bytes against whatever the prepared statement's parameter type
// actually is — but it still has to be one pgtype recognizes on the
// decode side, for symmetry with values read back out of a result set.
func argToRawValue(v any) (typeinfo.RawValue, error) {
	if v == nil {
		return typeinfo.RawValue{IsNull: true}, nil
	}

	var buf typeinfo.ArgumentBuffer
	var oid pgtype.OID

	switch t := v.(type) {
	case bool:
		pgtype.EncodeBool(&buf, t)
		oid = pgtype.OIDBool
	case int16:
		pgtype.EncodeInt16(&buf, t)
		oid = pgtype.OIDInt2
	case int32:
		pgtype.EncodeInt32(&buf, t)
		oid = pgtype.OIDInt4
	case int:
		pgtype.EncodeInt64(&buf, int64(t))
		oid = pgtype.OIDInt8
	case int64:
		pgtype.EncodeInt64(&buf, t)
		oid = pgtype.OIDInt8
	case float32:
		pgtype.EncodeFloat32(&buf, t)
		oid = pgtype.OIDFloat4
	case float64:
		pgtype.EncodeFloat64(&buf, t)
		oid = pgtype.OIDFloat8
	case string:
		pgtype.EncodeText(&buf, t)
		oid = pgtype.OIDText
	case []byte:
		pgtype.EncodeBytea(&buf, t)
		oid = pgtype.OIDBytea
	case time.Time:
		pgtype.EncodeTimestamp(&buf, t)
		oid = pgtype.OIDTimestamp
	case uuid.UUID:
		pgtype.EncodeUUID(&buf, t)
		oid = pgtype.OIDUUID
	default:
		return typeinfo.RawValue{}, fmt.Errorf("pgx: unsupported argument type %T", v)
	}

	return typeinfo.RawValue{
		Bytes:  buf.Buf,
		Format: typeinfo.FormatBinary,
		Type:   pgtype.NewInfo(oid),
	}, nil
}
