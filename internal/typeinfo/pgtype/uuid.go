package pgtype

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// EncodeUUID appends the 16 raw bytes of v.
func EncodeUUID(buf *typeinfo.ArgumentBuffer, v uuid.UUID) {
	buf.Buf = append(buf.Buf, v[:]...)
}

// DecodeUUID decodes the 16-byte binary uuid encoding into a uuid.UUID,
// grounded on the uuid dependency mickamy-sql-tap wires in for its own
// Postgres tooling.
func DecodeUUID(raw typeinfo.RawValue) (uuid.UUID, error) {
	if len(raw.Bytes) != 16 {
		return uuid.UUID{}, fmt.Errorf("pgtype: uuid must be 16 bytes, got %d", len(raw.Bytes))
	}
	var u uuid.UUID
	copy(u[:], raw.Bytes)
	return u, nil
}
