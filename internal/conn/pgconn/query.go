package pgconn

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/pgproto"
	"github.com/sqlcore/sqlcore/internal/rows"
	"github.com/sqlcore/sqlcore/internal/stmtcache"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
	"github.com/sqlcore/sqlcore/internal/typeinfo/pgtype"
)

var stmtCounter atomic.Uint64

// nextStatementName generates a unique server-side prepared-statement name;
// unlike the unnamed ('') statement, named statements survive across
// Sync and can be cached.
func nextStatementName() string {
	return fmt.Sprintf("sqlcore_stmt_%d", stmtCounter.Add(1))
}

// PreparedStatement is a server-side parsed statement plus the column and
// parameter metadata the backend reported for it.
type PreparedStatement struct {
	Name       string
	SQL        string
	ParamOIDs  []uint32
	Fields     []pgproto.FieldDescription
}

// CommandTag is the parsed "INSERT 0 1" / "UPDATE 3" style tag
// CommandComplete carries.
type CommandTag string

// RowsAffected extracts the trailing row count from the tag (e.g. 1214
// from "INSERT 0 1214", 5 from "UPDATE 5"); tags with no trailing count
// ("CREATE TABLE") report 0.
func (t CommandTag) RowsAffected() int64 {
	s := string(t)
	sp := strings.LastIndexByte(s, ' ')
	if sp < 0 {
		return 0
	}
	n, err := strconv.ParseInt(s[sp+1:], 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// Prepare parses sql into a named server-side statement, consulting (and
// populating) the connection's statement cache so repeat invocations of
// the same SQL text skip re-parsing.
func (c *Conn) Prepare(ctx context.Context, sql string) (*PreparedStatement, error) {
	if cached, ok := c.stmts.Get(sql); ok {
		return cached.Handle.(*PreparedStatement), nil
	}

	name := nextStatementName()
	if err := pgproto.WriteMessage(c.netc, pgproto.TagParse, pgproto.ParseMessage(name, sql, nil)); err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "pgconn: sending Parse", err)
	}
	if err := pgproto.WriteMessage(c.netc, pgproto.TagDescribe,
		pgproto.DescribeMessage(pgproto.DescribeStatement, name)); err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "pgconn: sending Describe", err)
	}
	if err := c.sendSync(); err != nil {
		return nil, err
	}

	stmt := &PreparedStatement{Name: name, SQL: sql}
	for {
		msg, err := pgproto.ReadMessage(c.netc)
		if err != nil {
			return nil, dberr.Wrap(dberr.KindIO, "pgconn: reading Parse/Describe response", err)
		}
		switch msg.Tag {
		case '1': // ParseComplete
			continue
		case pgproto.TagParameterDescription:
			oids, err := pgproto.DecodeParameterDescription(msg.Payload)
			if err != nil {
				return nil, err
			}
			stmt.ParamOIDs = oids
		case pgproto.TagRowDescription:
			fields, err := pgproto.DecodeRowDescription(msg.Payload)
			if err != nil {
				return nil, err
			}
			stmt.Fields = fields
		case pgproto.TagNoData:
			continue
		case pgproto.TagErrorResponse:
			_ = c.awaitSyncAfterError()
			return nil, c.errorFromMessage(msg)
		case pgproto.TagReadyForQuery:
			status, err := pgproto.DecodeReadyForQuery(msg.Payload)
			if err != nil {
				return nil, err
			}
			c.txStatus = status
			if evicted, ok := c.stmts.Put(sql, stmtcache.Statement{SQL: sql, Handle: stmt}); ok {
				c.closeStatement(ctx, evicted.Handle.(*PreparedStatement).Name)
			}
			return stmt, nil
		default:
			continue
		}
	}
}

// closeStatement sends Close+Sync for a statement evicted from the cache.
// Errors are swallowed: a failed deallocate of an LRU-evicted statement
// must not fail the caller's in-flight query.
func (c *Conn) closeStatement(_ context.Context, name string) {
	_ = pgproto.WriteMessage(c.netc, pgproto.TagClose, pgproto.CloseMessage(pgproto.DescribeStatement, name))
	if c.sendSync() != nil {
		return
	}
	for {
		msg, err := pgproto.ReadMessage(c.netc)
		if err != nil {
			return
		}
		if msg.Tag == pgproto.TagReadyForQuery {
			return
		}
	}
}

func (c *Conn) sendSync() error {
	if err := pgproto.WriteMessage(c.netc, pgproto.TagSync, pgproto.SyncMessage()); err != nil {
		return dberr.Wrap(dberr.KindIO, "pgconn: sending Sync", err)
	}
	c.pendingSync++
	return nil
}

// awaitSyncAfterError drains messages up to and including the ReadyForQuery
// that follows an ErrorResponse — the backend ignores everything between an
// error and the next Sync it receives.
func (c *Conn) awaitSyncAfterError() error {
	for {
		msg, err := pgproto.ReadMessage(c.netc)
		if err != nil {
			return dberr.Wrap(dberr.KindIO, "pgconn: awaiting ReadyForQuery after error", err)
		}
		if msg.Tag == pgproto.TagReadyForQuery {
			status, err := pgproto.DecodeReadyForQuery(msg.Payload)
			if err == nil {
				c.txStatus = status
			}
			c.pendingSync--
			return nil
		}
	}
}

// Query binds args to sql's prepared statement, opens an unnamed portal
// and returns a lazy, forward-only row stream.
func (c *Conn) Query(ctx context.Context, sql string, args ...typeinfo.RawValue) (*rows.Rows, error) {
	stmt, err := c.Prepare(ctx, sql)
	if err != nil {
		return nil, err
	}
	src, err := c.execPortal(ctx, stmt, args)
	if err != nil {
		return nil, err
	}
	return rows.New(src), nil
}

// ExecSQL runs sql via the simple query protocol, discarding any rows it
// returns. It satisfies internal/transaction's Executor interface for
// BEGIN/SAVEPOINT/COMMIT/ROLLBACK, which take no bind parameters and are
// never worth round-tripping through Parse/Bind.
func (c *Conn) ExecSQL(ctx context.Context, sql string) error {
	if err := pgproto.WriteMessage(c.netc, pgproto.TagQuery, pgproto.QueryMessage(sql)); err != nil {
		return dberr.Wrap(dberr.KindIO, "pgconn: sending simple Query", err)
	}
	var queryErr error
	for {
		msg, err := pgproto.ReadMessage(c.netc)
		if err != nil {
			return dberr.Wrap(dberr.KindIO, "pgconn: reading simple query response", err)
		}
		switch msg.Tag {
		case pgproto.TagRowDescription, pgproto.TagDataRow,
			pgproto.TagCommandComplete, pgproto.TagEmptyQueryResponse:
			continue
		case pgproto.TagErrorResponse:
			if queryErr == nil {
				queryErr = c.errorFromMessage(msg)
			}
		case pgproto.TagReadyForQuery:
			status, err := pgproto.DecodeReadyForQuery(msg.Payload)
			if err == nil {
				c.txStatus = status
			}
			return queryErr
		case pgproto.TagNoticeResponse:
			continue
		case pgproto.TagNotificationResponse:
			c.handleNotification(msg)
			continue
		default:
			continue
		}
	}
}

// Ping round-trips a Sync with no preceding command, the cheapest
// liveness probe the extended query protocol offers: a connection in a
// known protocol state always replies with exactly one ReadyForQuery.
func (c *Conn) Ping(ctx context.Context) error {
	if err := c.sendSync(); err != nil {
		return err
	}
	for {
		msg, err := pgproto.ReadMessage(c.netc)
		if err != nil {
			return dberr.Wrap(dberr.KindIO, "pgconn: ping", err)
		}
		if msg.Tag == pgproto.TagReadyForQuery {
			status, err := pgproto.DecodeReadyForQuery(msg.Payload)
			if err == nil {
				c.txStatus = status
			}
			c.pendingSync--
			return nil
		}
	}
}

// Exec binds args to sql's prepared statement, executes it to completion
// (discarding any rows) and returns the command tag.
func (c *Conn) Exec(ctx context.Context, sql string, args ...typeinfo.RawValue) (CommandTag, error) {
	stmt, err := c.Prepare(ctx, sql)
	if err != nil {
		return "", err
	}
	src, err := c.execPortal(ctx, stmt, args)
	if err != nil {
		return "", err
	}
	if err := src.Drain(); err != nil {
		return "", err
	}
	return src.tag, nil
}

func (c *Conn) encodeArgs(stmt *PreparedStatement, args []typeinfo.RawValue) ([][]byte, []int16, error) {
	params := make([][]byte, len(args))
	formats := make([]int16, len(args))
	for i, a := range args {
		if a.IsNil() {
			params[i] = nil
		} else {
			params[i] = a.Bytes
		}
		formats[i] = int16(typeinfo.FormatBinary)
	}
	_ = stmt // param OIDs are informational only; the backend coerces bound bytes
	return params, formats, nil
}

// execPortal runs Bind/Describe(Portal)/Execute/Sync for stmt against an
// unnamed portal and returns a streaming row source.
func (c *Conn) execPortal(ctx context.Context, stmt *PreparedStatement, args []typeinfo.RawValue) (*portalSource, error) {
	params, formats, err := c.encodeArgs(stmt, args)
	if err != nil {
		return nil, err
	}
	resultFormats := make([]int16, len(stmt.Fields))
	for i := range resultFormats {
		resultFormats[i] = int16(typeinfo.FormatBinary)
	}

	bind := pgproto.BindMessage("", stmt.Name, formats, params, resultFormats)
	if err := pgproto.WriteMessage(c.netc, pgproto.TagBind, bind); err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "pgconn: sending Bind", err)
	}
	exec := pgproto.ExecuteMessage("", 0)
	if err := pgproto.WriteMessage(c.netc, pgproto.TagExecute, exec); err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "pgconn: sending Execute", err)
	}
	if err := c.sendSync(); err != nil {
		return nil, err
	}

	// BindComplete precedes the DataRow/CommandComplete stream.
	msg, err := pgproto.ReadMessage(c.netc)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "pgconn: reading BindComplete", err)
	}
	switch msg.Tag {
	case '2': // BindComplete
	case pgproto.TagErrorResponse:
		_ = c.awaitSyncAfterError()
		return nil, c.errorFromMessage(msg)
	default:
		return nil, fmt.Errorf("pgconn: expected BindComplete, got %q", msg.Tag)
	}

	cols := make([]rows.Column, len(stmt.Fields))
	for i, f := range stmt.Fields {
		cols[i] = rows.Column{Name: f.Name, Type: pgtype.NewInfo(pgtype.OID(f.DataTypeOID))}
	}
	return &portalSource{conn: c, fields: stmt.Fields, cols: cols}, nil
}

// portalSource implements rows.Source over one Bind/Execute cycle's
// DataRow stream, terminating at CommandComplete and consuming the
// trailing ReadyForQuery once the stream is exhausted or drained.
type portalSource struct {
	conn      *Conn
	fields    []pgproto.FieldDescription
	cols      []rows.Column
	exhausted bool
	tag       CommandTag
}

func (p *portalSource) Columns() []rows.Column { return p.cols }

func (p *portalSource) NextRow() ([]typeinfo.RawValue, bool, error) {
	if p.exhausted {
		return nil, false, nil
	}
	for {
		msg, err := pgproto.ReadMessage(p.conn.netc)
		if err != nil {
			return nil, false, dberr.Wrap(dberr.KindIO, "pgconn: reading query result", err)
		}
		switch msg.Tag {
		case pgproto.TagDataRow:
			raw, err := pgproto.DecodeDataRow(msg.Payload)
			if err != nil {
				return nil, false, err
			}
			values := make([]typeinfo.RawValue, len(raw))
			for i, b := range raw {
				values[i] = typeinfo.RawValue{
					Bytes:  b,
					IsNull: b == nil,
					Format: typeinfo.FormatBinary,
					Type:   p.cols[i].Type,
				}
			}
			return values, true, nil
		case pgproto.TagCommandComplete:
			tag, err := pgproto.DecodeCommandComplete(msg.Payload)
			if err != nil {
				return nil, false, err
			}
			p.tag = CommandTag(tag)
			if err := p.finish(); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		case pgproto.TagEmptyQueryResponse, pgproto.TagPortalSuspended:
			if err := p.finish(); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		case pgproto.TagErrorResponse:
			_ = p.conn.awaitSyncAfterError()
			p.exhausted = true
			return nil, false, p.conn.errorFromMessage(msg)
		case pgproto.TagNotificationResponse:
			p.conn.handleNotification(msg)
			continue
		default:
			continue
		}
	}
}

// finish consumes the ReadyForQuery that follows this portal's Sync.
func (p *portalSource) finish() error {
	p.exhausted = true
	for {
		msg, err := pgproto.ReadMessage(p.conn.netc)
		if err != nil {
			return dberr.Wrap(dberr.KindIO, "pgconn: awaiting ReadyForQuery", err)
		}
		if msg.Tag == pgproto.TagReadyForQuery {
			status, err := pgproto.DecodeReadyForQuery(msg.Payload)
			if err == nil {
				p.conn.txStatus = status
			}
			p.conn.pendingSync--
			return nil
		}
	}
}

// Drain discards the remainder of this portal's result set without
// decoding it, per rows.Source's implicit-close contract.
func (p *portalSource) Drain() error {
	for !p.exhausted {
		if _, ok, err := p.NextRow(); err != nil {
			return err
		} else if !ok {
			return nil
		}
	}
	return nil
}
