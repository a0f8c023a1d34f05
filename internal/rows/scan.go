package rows

import (
	"fmt"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// scanInto copies raw into dest, a pointer to a supported Go type. Driver
// packages (pgx, mysqlx, sqlitex) wrap this with their own richer Scan
// that also understands their native value types (time.Time, uuid.UUID,
// decimal types); this base case covers the primitives every driver
// shares.
func scanInto(raw typeinfo.RawValue, col Column, dest any) error {
	if raw.IsNull {
		switch d := dest.(type) {
		case **string:
			*d = nil
			return nil
		case **[]byte:
			*d = nil
			return nil
		default:
			return fmt.Errorf("rows: column %q is NULL and destination is not a nilable pointer", col.Name)
		}
	}
	switch d := dest.(type) {
	case *string:
		*d = string(raw.Bytes)
	case *[]byte:
		*d = append([]byte(nil), raw.Bytes...)
	case *any:
		*d = append([]byte(nil), raw.Bytes...)
	case **string:
		s := string(raw.Bytes)
		*d = &s
	case **[]byte:
		b := append([]byte(nil), raw.Bytes...)
		*d = &b
	default:
		if dec, ok := dest.(typeinfo.Decoder); ok {
			return dec.Decode(raw, dest)
		}
		return fmt.Errorf("rows: no scan conversion for column %q into %T", col.Name, dest)
	}
	return nil
}
