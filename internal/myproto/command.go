package myproto

import (
	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// COM_* command byte values (mysql_com.h enum_server_command).
const (
	ComSleep      byte = 0x00
	ComQuit       byte = 0x01
	ComInitDB     byte = 0x02
	ComQuery      byte = 0x03
	ComFieldList  byte = 0x04
	ComPing       byte = 0x0e
	ComStmtPrepare byte = 0x16
	ComStmtExecute byte = 0x17
	ComStmtClose   byte = 0x19
	ComStmtReset   byte = 0x1a
	ComResetConnection byte = 0x1f
)

// QueryCommand builds a COM_QUERY packet body.
func QueryCommand(sql string) []byte {
	return append([]byte{ComQuery}, sql...)
}

// InitDBCommand builds a COM_INIT_DB packet body.
func InitDBCommand(schema string) []byte {
	return append([]byte{ComInitDB}, schema...)
}

// PingCommand builds a COM_PING packet body.
func PingCommand() []byte { return []byte{ComPing} }

// QuitCommand builds a COM_QUIT packet body.
func QuitCommand() []byte { return []byte{ComQuit} }

// StmtPrepareCommand builds a COM_STMT_PREPARE packet body.
func StmtPrepareCommand(sql string) []byte {
	return append([]byte{ComStmtPrepare}, sql...)
}

// StmtCloseCommand builds a COM_STMT_CLOSE packet body.
func StmtCloseCommand(stmtID uint32) []byte {
	var wb ioutil.WriteBuf
	wb.WriteByte(ComStmtClose)
	wb.WriteUint32LE(stmtID)
	return wb.Bytes()
}

// StmtResetCommand builds a COM_STMT_RESET packet body.
func StmtResetCommand(stmtID uint32) []byte {
	var wb ioutil.WriteBuf
	wb.WriteByte(ComStmtReset)
	wb.WriteUint32LE(stmtID)
	return wb.Bytes()
}

// StmtPrepareOK is the decoded first packet of a COM_STMT_PREPARE
// response.
type StmtPrepareOK struct {
	StatementID  uint32
	NumColumns   uint16
	NumParams    uint16
	WarningCount uint16
}

// DecodeStmtPrepareOK decodes the COM_STMT_PREPARE_OK packet (header byte
// 0x00 already identified by the caller).
func DecodeStmtPrepareOK(payload []byte) (StmtPrepareOK, error) {
	r := ioutil.NewReadBuf(payload[1:])
	var ok StmtPrepareOK
	var err error
	if ok.StatementID, err = r.ReadUint32LE(); err != nil {
		return ok, err
	}
	if ok.NumColumns, err = r.ReadUint16LE(); err != nil {
		return ok, err
	}
	if ok.NumParams, err = r.ReadUint16LE(); err != nil {
		return ok, err
	}
	if _, err = r.ReadByte(); err != nil { // filler
		return ok, err
	}
	if r.Len() > 0 {
		if ok.WarningCount, err = r.ReadUint16LE(); err != nil {
			return ok, err
		}
	}
	return ok, nil
}

// StmtExecuteFlags are the COM_STMT_EXECUTE flags byte values.
const (
	CursorTypeNoCursor byte = 0x00
)

// BoundParam is one positional parameter for COM_STMT_EXECUTE: its
// declared column type, whether it is unsigned, whether it is NULL, and
// (when non-NULL) its already-encoded binary value.
type BoundParam struct {
	ColumnType byte
	Unsigned   bool
	IsNull     bool
	Value      []byte
}

// StmtExecuteCommand builds a COM_STMT_EXECUTE packet body: statement ID,
// flags, iteration count (always 1), a NULL bitmap, a new-params-bound
// flag, then per-parameter (type, unsigned flag) pairs and finally the
// encoded values, in the binary protocol layout.
func StmtExecuteCommand(stmtID uint32, params []BoundParam) []byte {
	var wb ioutil.WriteBuf
	wb.WriteByte(ComStmtExecute)
	wb.WriteUint32LE(stmtID)
	wb.WriteByte(CursorTypeNoCursor)
	wb.WriteUint32LE(1) // iteration count

	if len(params) > 0 {
		bitmap := nullBitmap(params)
		wb.WriteBytes(bitmap)
		wb.WriteByte(1) // new-params-bound-flag

		for _, p := range params {
			unsignedFlag := byte(0)
			if p.Unsigned {
				unsignedFlag = 0x80
			}
			wb.WriteByte(p.ColumnType)
			wb.WriteByte(unsignedFlag)
		}
		for _, p := range params {
			if p.IsNull {
				continue
			}
			wb.WriteBytes(p.Value)
		}
	}
	return wb.Bytes()
}

func nullBitmap(params []BoundParam) []byte {
	bitmap := make([]byte, (len(params)+7)/8)
	for i, p := range params {
		if p.IsNull {
			bitmap[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return bitmap
}

// ColumnDefinition41 is a decoded Protocol::ColumnDefinition41 packet.
type ColumnDefinition41 struct {
	Catalog      string
	Schema       string
	Table        string
	OrgTable     string
	Name         string
	OrgName      string
	CharsetID    uint16
	ColumnLength uint32
	ColumnType   byte
	Flags        uint16
	Decimals     byte
}

// DecodeColumnDefinition41 decodes one column-definition packet of a
// result-set's field list.
func DecodeColumnDefinition41(payload []byte) (ColumnDefinition41, error) {
	r := ioutil.NewReadBuf(payload)
	var c ColumnDefinition41
	var err error
	if c.Catalog, err = r.ReadLenencString(); err != nil {
		return c, err
	}
	if c.Schema, err = r.ReadLenencString(); err != nil {
		return c, err
	}
	if c.Table, err = r.ReadLenencString(); err != nil {
		return c, err
	}
	if c.OrgTable, err = r.ReadLenencString(); err != nil {
		return c, err
	}
	if c.Name, err = r.ReadLenencString(); err != nil {
		return c, err
	}
	if c.OrgName, err = r.ReadLenencString(); err != nil {
		return c, err
	}
	if _, err = r.ReadLenencInt(); err != nil { // length of fixed fields, always 0x0c
		return c, err
	}
	if c.CharsetID, err = r.ReadUint16LE(); err != nil {
		return c, err
	}
	if c.ColumnLength, err = r.ReadUint32LE(); err != nil {
		return c, err
	}
	if c.ColumnType, err = r.ReadByte(); err != nil {
		return c, err
	}
	if c.Flags, err = r.ReadUint16LE(); err != nil {
		return c, err
	}
	if c.Decimals, err = r.ReadByte(); err != nil {
		return c, err
	}
	return c, nil
}

// DecodeBinaryRow decodes a COM_STMT_EXECUTE result row (the binary
// protocol row format: a leading 0x00 packet header already stripped, a
// NULL bitmap offset by 2, then fixed/length-encoded values per column
// type in columns order). Values are returned as RawValue with Type left
// nil; the caller (internal/conn/myconn) attaches the per-column
// mytype.Info before handing rows to the executor.
func DecodeBinaryRow(payload []byte, columns []ColumnDefinition41) ([]typeinfo.RawValue, error) {
	r := ioutil.NewReadBuf(payload[1:]) // skip packet header (0x00)
	bitmapLen := (len(columns) + 7 + 2) / 8
	bitmap, err := r.ReadBytes(bitmapLen)
	if err != nil {
		return nil, err
	}
	values := make([]typeinfo.RawValue, len(columns))
	for i, col := range columns {
		bytePos := (i + 2) / 8
		bitPos := uint((i + 2) % 8)
		if bitmap[bytePos]&(1<<bitPos) != 0 {
			values[i] = typeinfo.RawValue{IsNull: true, Format: typeinfo.FormatBinary}
			continue
		}
		b, err := decodeBinaryValue(r, col.ColumnType)
		if err != nil {
			return nil, err
		}
		values[i] = typeinfo.RawValue{Bytes: b, Format: typeinfo.FormatBinary}
	}
	return values, nil
}

func decodeBinaryValue(r *ioutil.ReadBuf, columnType byte) ([]byte, error) {
	switch columnType {
	case 0x01: // TINY
		return r.ReadBytes(1)
	case 0x02: // SHORT, YEAR(2)
		return r.ReadBytes(2)
	case 0x03, 0x09, 0x04: // LONG, INT24, FLOAT
		return r.ReadBytes(4)
	case 0x05, 0x08: // DOUBLE, LONGLONG
		return r.ReadBytes(8)
	case 0x0d: // YEAR
		return r.ReadBytes(2)
	case 0x00, 0xf6, 0x0f, 0xfd, 0xfc, 0xfe: // DECIMAL, NEWDECIMAL, VARCHAR, VAR_STRING, BLOB, STRING
		n, err := r.ReadLenencInt()
		if err != nil {
			return nil, err
		}
		return r.ReadBytes(int(n))
	case 0x0a, 0x0c, 0x07: // DATE, DATETIME, TIMESTAMP
		n, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return r.ReadBytes(int(n))
	case 0x0b: // TIME
		n, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return r.ReadBytes(int(n))
	default:
		n, err := r.ReadLenencInt()
		if err != nil {
			return nil, err
		}
		return r.ReadBytes(int(n))
	}
}
