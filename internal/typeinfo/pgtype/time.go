package pgtype

import (
	"fmt"
	"time"

	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// pgEpoch is the Postgres reference instant: 2000-01-01 00:00:00 UTC.
var pgEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// EncodeDate appends the int32 days-since-pgEpoch encoding.
func EncodeDate(buf *typeinfo.ArgumentBuffer, t time.Time) {
	days := int32(t.UTC().Sub(pgEpoch).Hours() / 24)
	EncodeInt32(buf, days)
}

// DecodeDate decodes the int32 days-since-pgEpoch encoding.
func DecodeDate(raw typeinfo.RawValue) (time.Time, error) {
	days, err := DecodeInt32(raw)
	if err != nil {
		return time.Time{}, err
	}
	return pgEpoch.AddDate(0, 0, int(days)), nil
}

// EncodeTimestamp appends the int64 microseconds-since-pgEpoch encoding
// used for time, timestamp and timestamptz alike (the wire format does not
// distinguish time zone; that is carried out-of-band by the column OID).
func EncodeTimestamp(buf *typeinfo.ArgumentBuffer, t time.Time) {
	micros := t.UTC().Sub(pgEpoch).Microseconds()
	EncodeInt64(buf, micros)
}

// DecodeTimestamp decodes the int64 microseconds-since-pgEpoch encoding.
func DecodeTimestamp(raw typeinfo.RawValue) (time.Time, error) {
	micros, err := DecodeInt64(raw)
	if err != nil {
		return time.Time{}, err
	}
	return pgEpoch.Add(time.Duration(micros) * time.Microsecond), nil
}

// Interval is months/days/microseconds, matching Postgres's own
// decomposition (it does not normalize days into months, or seconds into
// days, since month and day lengths vary).
type Interval struct {
	Months  int32
	Days    int32
	Micros  int64
}

// EncodeInterval appends micros(8) + days(4) + months(4).
func EncodeInterval(buf *typeinfo.ArgumentBuffer, iv Interval) {
	EncodeInt64(buf, iv.Micros)
	EncodeInt32(buf, iv.Days)
	EncodeInt32(buf, iv.Months)
}

// DecodeInterval decodes micros(8) + days(4) + months(4), big-endian per
// the Postgres wire protocol.
func DecodeInterval(raw typeinfo.RawValue) (Interval, error) {
	if len(raw.Bytes) != 16 {
		return Interval{}, fmt.Errorf("pgtype: interval must be 16 bytes, got %d", len(raw.Bytes))
	}
	r := ioutil.NewReadBuf(raw.Bytes)
	micros, err := r.ReadInt64BE()
	if err != nil {
		return Interval{}, err
	}
	days, err := r.ReadInt32BE()
	if err != nil {
		return Interval{}, err
	}
	months, err := r.ReadInt32BE()
	if err != nil {
		return Interval{}, err
	}
	return Interval{Months: months, Days: days, Micros: micros}, nil
}
