package pgproto

import (
	"github.com/sqlcore/sqlcore/internal/ioutil"
)

// StartupMessage builds the body of the startup packet: protocol version
// followed by NUL-terminated key/value parameter pairs, terminated by a
// final NUL. There is no tag byte — send via WriteUntaggedMessage.
func StartupMessage(params map[string]string) []byte {
	var wb ioutil.WriteBuf
	wb.WriteUint32BE(ProtocolVersion)
	for k, v := range params {
		wb.WriteCString(k)
		wb.WriteCString(v)
	}
	wb.WriteByte(0)
	return wb.Bytes()
}

// SSLRequestMessage builds the body of an SSL negotiation request.
func SSLRequestMessage() []byte {
	var wb ioutil.WriteBuf
	wb.WriteUint32BE(SSLRequestCode)
	return wb.Bytes()
}

// CancelRequestMessage builds the body of a query-cancellation request
// sent over a fresh connection, per the out-of-band RequestCancel design.
func CancelRequestMessage(processID, secretKey uint32) []byte {
	var wb ioutil.WriteBuf
	wb.WriteUint32BE(CancelRequestCode)
	wb.WriteUint32BE(processID)
	wb.WriteUint32BE(secretKey)
	return wb.Bytes()
}

// PasswordMessage builds a PasswordMessage/SASL-response body ('p' tag).
// Used for cleartext passwords, MD5 hashes, and every step of the SCRAM
// exchange (SASLInitialResponse and SASLResponse reuse this same tag).
func PasswordMessage(data []byte) []byte {
	return data
}

// QueryMessage builds a simple-query body ('Q' tag).
func QueryMessage(sql string) []byte {
	var wb ioutil.WriteBuf
	wb.WriteCString(sql)
	return wb.Bytes()
}

// ParseMessage builds a Parse body ('P' tag): statement name, SQL text,
// and the list of parameter type OIDs the caller wants to pre-declare (0
// lets the backend infer).
func ParseMessage(stmtName, sql string, paramOIDs []uint32) []byte {
	var wb ioutil.WriteBuf
	wb.WriteCString(stmtName)
	wb.WriteCString(sql)
	wb.WriteUint16BE(uint16(len(paramOIDs)))
	for _, oid := range paramOIDs {
		wb.WriteUint32BE(oid)
	}
	return wb.Bytes()
}

// BindMessage builds a Bind body ('B' tag) binding positional parameters
// to a prepared statement, producing a named (or unnamed) portal.
func BindMessage(portal, stmtName string, paramFormats []int16, params [][]byte, resultFormats []int16) []byte {
	var wb ioutil.WriteBuf
	wb.WriteCString(portal)
	wb.WriteCString(stmtName)
	wb.WriteUint16BE(uint16(len(paramFormats)))
	for _, f := range paramFormats {
		wb.WriteUint16BE(uint16(f))
	}
	wb.WriteUint16BE(uint16(len(params)))
	for _, p := range params {
		if p == nil {
			wb.WriteInt32BE(-1)
			continue
		}
		wb.WriteInt32BE(int32(len(p)))
		wb.WriteBytes(p)
	}
	wb.WriteUint16BE(uint16(len(resultFormats)))
	for _, f := range resultFormats {
		wb.WriteUint16BE(uint16(f))
	}
	return wb.Bytes()
}

// DescribeTarget selects what a Describe message reports on.
type DescribeTarget byte

const (
	DescribeStatement DescribeTarget = 'S'
	DescribePortal     DescribeTarget = 'P'
)

// DescribeMessage builds a Describe body ('D' tag).
func DescribeMessage(target DescribeTarget, name string) []byte {
	var wb ioutil.WriteBuf
	wb.WriteByte(byte(target))
	wb.WriteCString(name)
	return wb.Bytes()
}

// ExecuteMessage builds an Execute body ('E' tag). maxRows of 0 means
// "no limit".
func ExecuteMessage(portal string, maxRows uint32) []byte {
	var wb ioutil.WriteBuf
	wb.WriteCString(portal)
	wb.WriteUint32BE(maxRows)
	return wb.Bytes()
}

// CloseMessage builds a Close body ('C' tag) closing a statement or
// portal.
func CloseMessage(target DescribeTarget, name string) []byte {
	var wb ioutil.WriteBuf
	wb.WriteByte(byte(target))
	wb.WriteCString(name)
	return wb.Bytes()
}

// SyncMessage builds the (empty) Sync body ('S' tag).
func SyncMessage() []byte { return nil }

// FlushMessage builds the (empty) Flush body ('H' tag).
func FlushMessage() []byte { return nil }

// TerminateMessage builds the (empty) Terminate body ('X' tag).
func TerminateMessage() []byte { return nil }
