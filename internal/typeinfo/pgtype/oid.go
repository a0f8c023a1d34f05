// Package pgtype implements typeinfo.TypeInfo and the Encode/Decode
// contracts for PostgreSQL's binary wire format, per the OID-keyed type
// catalog.
package pgtype

import "github.com/sqlcore/sqlcore/internal/typeinfo"

// OID is a PostgreSQL catalog type identifier, assigned by the server.
type OID uint32

// Well-known built-in OIDs (pg_type.h), enough to cover the binary
// encodings enumerated in the core value-codec spec.
const (
	OIDBool        OID = 16
	OIDBytea       OID = 17
	OIDInt8        OID = 20
	OIDInt2        OID = 21
	OIDInt4        OID = 23
	OIDText        OID = 25
	OIDJSON        OID = 114
	OIDFloat4      OID = 700
	OIDFloat8      OID = 701
	OIDVarchar     OID = 1043
	OIDDate        OID = 1082
	OIDTime        OID = 1083
	OIDTimestamp   OID = 1114
	OIDTimestampTz OID = 1184
	OIDInterval    OID = 1186
	OIDNumeric     OID = 1700
	OIDUUID        OID = 2950
	OIDJSONB       OID = 3802

	// Array OIDs (element OID + 1 offset doesn't hold in general in real
	// Postgres, but these are the actual catalog values for our supported
	// scalar array types).
	OIDBoolArray   OID = 1000
	OIDInt2Array   OID = 1005
	OIDInt4Array   OID = 1007
	OIDTextArray   OID = 1009
	OIDInt8Array   OID = 1016
	OIDFloat4Array OID = 1021
	OIDFloat8Array OID = 1022
)

var names = map[OID]string{
	OIDBool:        "bool",
	OIDBytea:       "bytea",
	OIDInt8:        "int8",
	OIDInt2:        "int2",
	OIDInt4:        "int4",
	OIDText:        "text",
	OIDJSON:        "json",
	OIDFloat4:      "float4",
	OIDFloat8:      "float8",
	OIDVarchar:     "varchar",
	OIDDate:        "date",
	OIDTime:        "time",
	OIDTimestamp:   "timestamp",
	OIDTimestampTz: "timestamptz",
	OIDInterval:    "interval",
	OIDNumeric:     "numeric",
	OIDUUID:        "uuid",
	OIDJSONB:       "jsonb",
	OIDBoolArray:   "_bool",
	OIDInt2Array:   "_int2",
	OIDInt4Array:   "_int4",
	OIDTextArray:   "_text",
	OIDInt8Array:   "_int8",
	OIDFloat4Array: "_float4",
	OIDFloat8Array: "_float8",
}

// Info is the concrete typeinfo.TypeInfo for Postgres: an OID plus the
// catalog name resolved from it (or an explicit override for user-defined
// / unrecognized types).
type Info struct {
	Oid  OID
	name string
}

// NewInfo builds an Info for a known OID, resolving its catalog name.
func NewInfo(oid OID) Info {
	n, ok := names[oid]
	if !ok {
		n = "unknown"
	}
	return Info{Oid: oid, name: n}
}

// NewNamedInfo builds an Info for an OID not in the built-in table (e.g. a
// user-defined enum or domain) with an explicit name from the catalog.
func NewNamedInfo(oid OID, name string) Info {
	return Info{Oid: oid, name: name}
}

func (i Info) Name() string { return i.name }

// Compatible is reflexive and symmetric: two Infos are compatible when
// their OIDs match, or when one is untyped (OID 0, used for parameters
// whose type the caller hasn't pinned down).
func (i Info) Compatible(other typeinfo.TypeInfo) bool {
	o, ok := other.(Info)
	if !ok {
		return false
	}
	return i.Oid == o.Oid || i.Oid == 0 || o.Oid == 0
}

var _ typeinfo.TypeInfo = Info{}

// ArrayElementOID returns the element OID for one of the scalar array OIDs
// this package supports, and whether oid is a recognized array OID.
func ArrayElementOID(oid OID) (OID, bool) {
	switch oid {
	case OIDBoolArray:
		return OIDBool, true
	case OIDInt2Array:
		return OIDInt2, true
	case OIDInt4Array:
		return OIDInt4, true
	case OIDInt8Array:
		return OIDInt8, true
	case OIDFloat4Array:
		return OIDFloat4, true
	case OIDFloat8Array:
		return OIDFloat8, true
	case OIDTextArray:
		return OIDText, true
	default:
		return 0, false
	}
}
