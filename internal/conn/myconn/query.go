package myconn

import (
	"context"
	"fmt"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/myproto"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/stmtcache"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/mytype"
)

// serverMoreResultsExists is the StatusFlags bit set on an OK/EOF packet
// when more result sets follow (CLIENT_MULTI_STATEMENTS/CLIENT_MULTI_RESULTS).
const serverMoreResultsExists uint16 = 0x0008

// PreparedStatement is a server-side prepared statement plus the parameter
// and column metadata COM_STMT_PREPARE's response reported for it.
type PreparedStatement struct {
	ID      uint32
	SQL     string
	Params  []myproto.ColumnDefinition41
	Columns []myproto.ColumnDefinition41
}

// CommandTag mirrors pgconn's: a human-readable summary of what an Exec
// affected, synthesized from the OK_Packet's affected-rows/last-insert-id.
type CommandTag struct {
	AffectedRows uint64
	LastInsertID uint64
}

func (t CommandTag) String() string {
	return fmt.Sprintf("affected=%d last_insert_id=%d", t.AffectedRows, t.LastInsertID)
}

// ExecSQL runs sql via COM_QUERY, discarding any rows it returns. It
// satisfies internal/transaction's Executor interface for
// BEGIN/SAVEPOINT/COMMIT/ROLLBACK.
func (c *Conn) ExecSQL(ctx context.Context, sql string) error {
	c.seq = 0
	if err := c.writePacket(myproto.QueryCommand(sql)); err != nil {
		return err
	}
	src, err := c.readQueryResponse()
	if err != nil {
		return err
	}
	if src == nil {
		return nil
	}
	return src.Drain()
}

// Ping sends COM_PING, the cheapest liveness probe MySQL offers: the
// server always replies with a bare OK_Packet and touches no session state.
func (c *Conn) Ping(ctx context.Context) error {
	c.seq = 0
	if err := c.writePacket(myproto.PingCommand()); err != nil {
		return err
	}
	payload, seq, err := myproto.ReadPacket(c.netc)
	if err != nil {
		return dberr.Wrap(dberr.KindIO, "myconn: reading ping response", err)
	}
	c.seq = seq + 1
	if len(payload) == 0 {
		return fmt.Errorf("myconn: empty ping response")
	}
	if payload[0] == myproto.ErrPacketHeader {
		return c.errFromPacket(payload)
	}
	return nil
}

// Query runs sql via COM_QUERY (the text protocol) and returns a lazy,
// forward-only row stream. MySQL's text protocol carries no bind
// parameters of its own; callers needing parameters should use Prepare
// and ExecutePrepared.
func (c *Conn) Query(ctx context.Context, sql string) (*rows.Rows, error) {
	c.seq = 0
	if err := c.writePacket(myproto.QueryCommand(sql)); err != nil {
		return nil, err
	}
	src, err := c.readQueryResponse()
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = &textResultSource{exhausted: true}
	}
	return rows.New(src), nil
}

// readQueryResponse reads a COM_QUERY response's preamble: either an
// OK_Packet (no result set) or a column count followed by column
// definitions, returning a row source positioned to read DataRows. nil,
// nil means the statement produced no result set at all.
func (c *Conn) readQueryResponse() (*textResultSource, error) {
	payload, seq, err := myproto.ReadPacket(c.netc)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "myconn: reading query response", err)
	}
	c.seq = seq + 1
	if len(payload) == 0 {
		return nil, fmt.Errorf("myconn: empty query response packet")
	}
	switch payload[0] {
	case myproto.OKPacketHeader:
		ok, err := myproto.DecodeOKPacket(payload[1:], c.capabilities)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindProtocol, "myconn: decoding OK_Packet", err)
		}
		c.serverStatus = ok.StatusFlags
		return nil, nil
	case myproto.ErrPacketHeader:
		return nil, c.errFromPacket(payload)
	}
	count, err := myproto.DecodeResultSetColumnCount(payload)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindProtocol, "myconn: decoding result-set column count", err)
	}
	columns, err := c.readFieldDefs(int(count))
	if err != nil {
		return nil, err
	}
	cols := make([]rows.Column, len(columns))
	for i, cd := range columns {
		cols[i] = rows.Column{Name: cd.Name, Type: mytype.Info{Type: mytype.ColumnType(cd.ColumnType), Flags: mytype.Flags(cd.Flags), Charset: cd.CharsetID}}
	}
	return &textResultSource{conn: c, n: len(columns), cols: cols}, nil
}

func (c *Conn) errFromPacket(payload []byte) error {
	ep, err := myproto.DecodeErrPacket(payload[1:], c.capabilities)
	if err != nil {
		return dberr.Wrap(dberr.KindProtocol, "myconn: decoding ERR_Packet", err)
	}
	return dberr.NewDatabaseError(fmt.Sprintf("%d", ep.Code), ep.SQLState, "ERROR", ep.Message)
}

// readFieldDefs reads n ColumnDefinition41 packets, consuming the trailing
// legacy EOF packet if CLIENT_DEPRECATE_EOF was not negotiated.
func (c *Conn) readFieldDefs(n int) ([]myproto.ColumnDefinition41, error) {
	defs := make([]myproto.ColumnDefinition41, n)
	for i := 0; i < n; i++ {
		payload, seq, err := myproto.ReadPacket(c.netc)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindIO, "myconn: reading column definition", err)
		}
		c.seq = seq + 1
		def, err := myproto.DecodeColumnDefinition41(payload)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindProtocol, "myconn: decoding column definition", err)
		}
		defs[i] = def
	}
	if n > 0 && c.capabilities&myproto.CapabilityDeprecateEOF == 0 {
		payload, seq, err := myproto.ReadPacket(c.netc)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindIO, "myconn: reading trailing EOF", err)
		}
		c.seq = seq + 1
		_ = payload
	}
	return defs, nil
}

// textResultSource implements rows.Source over a COM_QUERY text-protocol
// result set.
type textResultSource struct {
	conn      *Conn
	n         int
	cols      []rows.Column
	exhausted bool
}

func (s *textResultSource) Columns() []rows.Column { return s.cols }

func (s *textResultSource) NextRow() ([]typeinfo.RawValue, bool, error) {
	if s.exhausted {
		return nil, false, nil
	}
	payload, seq, err := myproto.ReadPacket(s.conn.netc)
	if err != nil {
		return nil, false, dberr.Wrap(dberr.KindIO, "myconn: reading result row", err)
	}
	s.conn.seq = seq + 1
	if len(payload) > 0 && payload[0] == myproto.ErrPacketHeader {
		s.exhausted = true
		return nil, false, s.conn.errFromPacket(payload)
	}
	isEOFLike := s.conn.capabilities&myproto.CapabilityDeprecateEOF != 0 && len(payload) > 0 && payload[0] == myproto.OKPacketHeader
	if isEOFLike || myproto.IsEOFPacket(payload) {
		s.exhausted = true
		return nil, false, nil
	}
	values, err := myproto.DecodeTextRow(payload, s.n)
	if err != nil {
		return nil, false, err
	}
	for i := range values {
		if i < len(s.cols) {
			values[i].Type = s.cols[i].Type
		}
	}
	return values, true, nil
}

func (s *textResultSource) Drain() error {
	for !s.exhausted {
		if _, ok, err := s.NextRow(); err != nil {
			return err
		} else if !ok {
			return nil
		}
	}
	return nil
}

// Prepare parses sql into a server-side prepared statement via
// COM_STMT_PREPARE, consulting (and populating) the connection's
// statement cache.
func (c *Conn) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	if cached, ok := c.stmts.Get(sql); ok {
		return cached.Handle.(*PreparedStatement), nil
	}
	c.seq = 0
	if err := c.writePacket(myproto.StmtPrepareCommand(sql)); err != nil {
		return nil, err
	}
	payload, seq, err := myproto.ReadPacket(c.netc)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "myconn: reading COM_STMT_PREPARE response", err)
	}
	c.seq = seq + 1
	if len(payload) > 0 && payload[0] == myproto.ErrPacketHeader {
		return nil, c.errFromPacket(payload)
	}
	prepOK, err := myproto.DecodeStmtPrepareOK(payload)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindProtocol, "myconn: decoding COM_STMT_PREPARE_OK", err)
	}
	stmt := &PreparedStatement{ID: prepOK.StatementID, SQL: sql}
	if prepOK.NumParams > 0 {
		if stmt.Params, err = c.readFieldDefs(int(prepOK.NumParams)); err != nil {
			return nil, err
		}
	}
	if prepOK.NumColumns > 0 {
		if stmt.Columns, err = c.readFieldDefs(int(prepOK.NumColumns)); err != nil {
			return nil, err
		}
	}
	if evicted, ok := c.stmts.Put(sql, stmtcache.Statement{SQL: sql, Handle: stmt}); ok {
		c.closeStatement(evicted.Handle.(*PreparedStatement).ID)
	}
	return stmt, nil
}

// closeStatement sends COM_STMT_CLOSE for a statement evicted from the
// cache; the server sends no response to this command.
func (c *Conn) closeStatement(stmtID uint32) {
	c.seq = 0
	_ = c.writePacket(myproto.StmtCloseCommand(stmtID))
}

// ExecutePrepared binds args to stmt via COM_STMT_EXECUTE and returns a
// lazy, forward-only binary-protocol row stream.
func (c *Conn) ExecutePrepared(ctx context.Context, stmt *PreparedStatement, args ...typeinfo.RawValue) (*rows.Rows, error) {
	src, err := c.executeStmt(stmt, args)
	if err != nil {
		return nil, err
	}
	return rows.New(src), nil
}

// ExecPrepared binds args to stmt, runs it to completion discarding any
// rows, and returns the affected-rows/last-insert-id command tag.
func (c *Conn) ExecPrepared(ctx context.Context, stmt *PreparedStatement, args ...typeinfo.RawValue) (CommandTag, error) {
	src, err := c.executeStmt(stmt, args)
	if err != nil {
		return CommandTag{}, err
	}
	if err := src.Drain(); err != nil {
		return CommandTag{}, err
	}
	return src.tag, nil
}

func buildBoundParam(v typeinfo.RawValue) myproto.BoundParam {
	if v.IsNil() {
		return myproto.BoundParam{IsNull: true, ColumnType: byte(mytype.TypeVarString)}
	}
	if info, ok := v.Type.(mytype.Info); ok {
		return myproto.BoundParam{ColumnType: byte(info.Type), Unsigned: info.Flags&mytype.FlagUnsigned != 0, Value: v.Bytes}
	}
	return myproto.BoundParam{ColumnType: byte(mytype.TypeVarString), Value: v.Bytes}
}

func (c *Conn) executeStmt(stmt *PreparedStatement, args []typeinfo.RawValue) (*binaryResultSource, error) {
	params := make([]myproto.BoundParam, len(args))
	for i, a := range args {
		params[i] = buildBoundParam(a)
	}
	c.seq = 0
	if err := c.writePacket(myproto.StmtExecuteCommand(stmt.ID, params)); err != nil {
		return nil, err
	}
	payload, seq, err := myproto.ReadPacket(c.netc)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "myconn: reading COM_STMT_EXECUTE response", err)
	}
	c.seq = seq + 1
	if len(payload) == 0 {
		return nil, fmt.Errorf("myconn: empty COM_STMT_EXECUTE response")
	}
	switch payload[0] {
	case myproto.OKPacketHeader:
		ok, err := myproto.DecodeOKPacket(payload[1:], c.capabilities)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindProtocol, "myconn: decoding OK_Packet", err)
		}
		c.serverStatus = ok.StatusFlags
		return &binaryResultSource{exhausted: true, tag: CommandTag{AffectedRows: ok.AffectedRows, LastInsertID: ok.LastInsertID}}, nil
	case myproto.ErrPacketHeader:
		return nil, c.errFromPacket(payload)
	}
	count, err := myproto.DecodeResultSetColumnCount(payload)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindProtocol, "myconn: decoding result-set column count", err)
	}
	columns, err := c.readFieldDefs(int(count))
	if err != nil {
		return nil, err
	}
	cols := make([]rows.Column, len(columns))
	for i, cd := range columns {
		cols[i] = rows.Column{Name: cd.Name, Type: mytype.Info{Type: mytype.ColumnType(cd.ColumnType), Flags: mytype.Flags(cd.Flags), Charset: cd.CharsetID}}
	}
	return &binaryResultSource{conn: c, columns: columns, cols: cols}, nil
}

// binaryResultSource implements rows.Source over a COM_STMT_EXECUTE
// binary-protocol result set.
type binaryResultSource struct {
	conn      *Conn
	columns   []myproto.ColumnDefinition41
	cols      []rows.Column
	exhausted bool
	tag       CommandTag
}

func (s *binaryResultSource) Columns() []rows.Column { return s.cols }

func (s *binaryResultSource) NextRow() ([]typeinfo.RawValue, bool, error) {
	if s.exhausted {
		return nil, false, nil
	}
	payload, seq, err := myproto.ReadPacket(s.conn.netc)
	if err != nil {
		return nil, false, dberr.Wrap(dberr.KindIO, "myconn: reading binary result row", err)
	}
	s.conn.seq = seq + 1
	if len(payload) > 0 && payload[0] == myproto.ErrPacketHeader {
		s.exhausted = true
		return nil, false, s.conn.errFromPacket(payload)
	}
	isEOFLike := s.conn.capabilities&myproto.CapabilityDeprecateEOF != 0 && len(payload) > 0 && payload[0] == myproto.OKPacketHeader
	if isEOFLike || myproto.IsEOFPacket(payload) {
		s.exhausted = true
		return nil, false, nil
	}
	values, err := myproto.DecodeBinaryRow(payload, s.columns)
	if err != nil {
		return nil, false, err
	}
	for i := range values {
		if i < len(s.cols) {
			values[i].Type = s.cols[i].Type
		}
	}
	return values, true, nil
}

func (s *binaryResultSource) Drain() error {
	for !s.exhausted {
		if _, ok, err := s.NextRow(); err != nil {
			return err
		} else if !ok {
			return nil
		}
	}
	return nil
}
