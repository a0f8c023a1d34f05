// Package pgconn implements the Postgres connection state machine: the
// startup/authentication handshake and the extended-query-protocol cycle
// (Parse/Describe/Bind/Execute/Sync) driving a single TCP/TLS connection.
package pgconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/pgproto"
	"github.com/sqlcore/sqlcore/internal/stmtcache"
	"github.com/sqlcore/sqlcore/internal/transaction"
)

// State is the connection's lifecycle state.
type State int

const (
	StateConnecting State = iota
	StateAuthenticating
	StateReady
	StateBusy
	StateBroken
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateBusy:
		return "busy"
	case StateBroken:
		return "broken"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Config is everything needed to establish and authenticate a Postgres
// connection.
type Config struct {
	Host, Port      string
	User, Password  string
	Database        string
	TLSConfig       *tls.Config // nil disables TLS negotiation
	StatementCacheSize int
	RuntimeParams   map[string]string
}

// Conn drives one Postgres backend connection end to end.
type Conn struct {
	cfg  Config
	netc net.Conn

	mu          sync.Mutex
	state       State
	txStatus    pgproto.TransactionStatus
	processID   uint32
	secretKey   uint32
	params      map[string]string
	stmts       *stmtcache.Cache
	pendingSync int
	notifications chan pgproto.NotificationResponse
	tx          *transaction.Manager
}

// Connect dials host:port and runs the full startup + authentication
// handshake, leaving the connection in StateReady.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	d := net.Dialer{}
	netc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, cfg.Port))
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "pgconn: dial", err)
	}
	c := &Conn{
		cfg:   cfg,
		netc:  netc,
		state: StateConnecting,
		params: make(map[string]string),
		stmts: stmtcache.New(cfg.StatementCacheSize),
		notifications: make(chan pgproto.NotificationResponse, 64),
	}
	c.tx = transaction.New(c)
	if cfg.TLSConfig != nil {
		if err := c.negotiateTLS(); err != nil {
			netc.Close()
			return nil, err
		}
	}
	if err := c.sendStartup(); err != nil {
		netc.Close()
		return nil, err
	}
	c.state = StateAuthenticating
	if err := c.authenticate(); err != nil {
		netc.Close()
		c.state = StateBroken
		return nil, err
	}
	if err := c.awaitReadyForQuery(); err != nil {
		netc.Close()
		c.state = StateBroken
		return nil, err
	}
	c.state = StateReady
	return c, nil
}

func (c *Conn) negotiateTLS() error {
	if err := pgproto.WriteUntaggedMessage(c.netc, pgproto.SSLRequestMessage()); err != nil {
		return dberr.Wrap(dberr.KindIO, "pgconn: sending SSLRequest", err)
	}
	var resp [1]byte
	if _, err := c.netc.Read(resp[:]); err != nil {
		return dberr.Wrap(dberr.KindIO, "pgconn: reading SSLRequest response", err)
	}
	if resp[0] != 'S' {
		return dberr.New(dberr.KindTLS, "pgconn: server refused TLS")
	}
	tlsConn := tls.Client(c.netc, c.cfg.TLSConfig)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return dberr.Wrap(dberr.KindTLS, "pgconn: TLS handshake", err)
	}
	c.netc = tlsConn
	return nil
}

func (c *Conn) sendStartup() error {
	params := map[string]string{
		"user":     c.cfg.User,
		"database": c.cfg.Database,
	}
	for k, v := range c.cfg.RuntimeParams {
		params[k] = v
	}
	return pgproto.WriteUntaggedMessage(c.netc, pgproto.StartupMessage(params))
}

func (c *Conn) authenticate() error {
	for {
		msg, err := pgproto.ReadMessage(c.netc)
		if err != nil {
			return dberr.Wrap(dberr.KindIO, "pgconn: reading auth message", err)
		}
		if msg.Tag == pgproto.TagErrorResponse {
			return c.errorFromMessage(msg)
		}
		if msg.Tag != pgproto.TagAuthentication {
			return fmt.Errorf("pgconn: expected Authentication message, got %q", msg.Tag)
		}
		auth, err := pgproto.DecodeAuthentication(msg.Payload)
		if err != nil {
			return dberr.Wrap(dberr.KindProtocol, "pgconn: decoding Authentication message", err)
		}
		switch auth.Kind {
		case pgproto.AuthOK:
			return nil
		case pgproto.AuthCleartextPassword:
			if err := c.sendPassword([]byte(c.cfg.Password)); err != nil {
				return err
			}
		case pgproto.AuthMD5Password:
			salt := auth.Extra
			hash := md5Password(c.cfg.User, c.cfg.Password, salt)
			if err := c.sendPassword([]byte(hash)); err != nil {
				return err
			}
		case pgproto.AuthSASL:
			if err := c.authenticateSCRAM(auth.Extra); err != nil {
				return err
			}
		default:
			return fmt.Errorf("pgconn: unsupported authentication method %d", auth.Kind)
		}
	}
}

func (c *Conn) sendPassword(data []byte) error {
	return pgproto.WriteMessage(c.netc, pgproto.TagPasswordMessage, pgproto.PasswordMessage(data))
}

func (c *Conn) authenticateSCRAM(mechanismList []byte) error {
	mechs := ParseMechanisms(mechanismList)
	if !supportsSCRAMSHA256(mechs) {
		return fmt.Errorf("pgconn: server does not offer SCRAM-SHA-256, offered: %v", mechs)
	}
	client, err := newSCRAMClient(c.cfg.User, c.cfg.Password)
	if err != nil {
		return err
	}
	initial := buildSASLInitialResponse(mechanismSCRAMSHA256, client.ClientFirstMessage())
	if err := pgproto.WriteMessage(c.netc, pgproto.TagPasswordMessage, initial); err != nil {
		return dberr.Wrap(dberr.KindIO, "pgconn: sending SASLInitialResponse", err)
	}

	continueMsg, err := c.readAuthOfKind(pgproto.AuthSASLContinue)
	if err != nil {
		return err
	}
	finalResponse, err := client.HandleServerFirst(continueMsg)
	if err != nil {
		return err
	}
	if err := pgproto.WriteMessage(c.netc, pgproto.TagPasswordMessage, finalResponse); err != nil {
		return dberr.Wrap(dberr.KindIO, "pgconn: sending SASLResponse", err)
	}

	finalMsg, err := c.readAuthOfKind(pgproto.AuthSASLFinal)
	if err != nil {
		return err
	}
	if err := client.VerifyServerFinal(finalMsg); err != nil {
		return err
	}
	// AuthenticationOK follows; the outer authenticate loop reads it.
	return nil
}

func (c *Conn) readAuthOfKind(want pgproto.AuthenticationKind) ([]byte, error) {
	msg, err := pgproto.ReadMessage(c.netc)
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "pgconn: reading SCRAM message", err)
	}
	if msg.Tag == pgproto.TagErrorResponse {
		return nil, c.errorFromMessage(msg)
	}
	if msg.Tag != pgproto.TagAuthentication {
		return nil, fmt.Errorf("pgconn: expected Authentication message during SCRAM, got %q", msg.Tag)
	}
	auth, err := pgproto.DecodeAuthentication(msg.Payload)
	if err != nil {
		return nil, err
	}
	if auth.Kind != want {
		return nil, fmt.Errorf("pgconn: expected SCRAM auth kind %d, got %d", want, auth.Kind)
	}
	return auth.Extra, nil
}

func buildSASLInitialResponse(mechanism string, clientFirst []byte) []byte {
	var out []byte
	out = append(out, mechanism...)
	out = append(out, 0)
	length := len(clientFirst)
	out = append(out, byte(length>>24), byte(length>>16), byte(length>>8), byte(length))
	out = append(out, clientFirst...)
	return out
}

func (c *Conn) awaitReadyForQuery() error {
	for {
		msg, err := pgproto.ReadMessage(c.netc)
		if err != nil {
			return dberr.Wrap(dberr.KindIO, "pgconn: awaiting ReadyForQuery", err)
		}
		switch msg.Tag {
		case pgproto.TagParameterStatus:
			name, value, err := pgproto.DecodeParameterStatus(msg.Payload)
			if err != nil {
				return err
			}
			c.params[name] = value
		case pgproto.TagBackendKeyData:
			kd, err := pgproto.DecodeBackendKeyData(msg.Payload)
			if err != nil {
				return err
			}
			c.processID, c.secretKey = kd.ProcessID, kd.SecretKey
		case pgproto.TagReadyForQuery:
			status, err := pgproto.DecodeReadyForQuery(msg.Payload)
			if err != nil {
				return err
			}
			c.txStatus = status
			return nil
		case pgproto.TagErrorResponse:
			return c.errorFromMessage(msg)
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

func (c *Conn) errorFromMessage(msg pgproto.Message) error {
	fields, err := pgproto.DecodeErrorFields(msg.Payload)
	if err != nil {
		return dberr.Wrap(dberr.KindProtocol, "pgconn: decoding ErrorResponse", err)
	}
	return dberr.NewDatabaseError(
		fields[pgproto.ErrorFieldSQLSTATE],
		fields[pgproto.ErrorFieldSQLSTATE],
		fields[pgproto.ErrorFieldSeverity],
		fields[pgproto.ErrorFieldMessage],
	)
}

// Begin opens a transaction scope on this connection, nesting via
// SAVEPOINT if one is already open.
func (c *Conn) Begin(ctx context.Context) (*transaction.Handle, error) {
	return c.tx.Begin(ctx)
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ProcessID and SecretKey identify this backend for an out-of-band
// cancel request (RequestCancel), sent over a fresh connection.
func (c *Conn) ProcessID() uint32 { return c.processID }
func (c *Conn) SecretKey() uint32 { return c.secretKey }

// Notifications returns the channel PollNotification-style NOTIFY
// payloads are buffered onto between query cycles.
func (c *Conn) Notifications() <-chan pgproto.NotificationResponse {
	return c.notifications
}

// handleNotification decodes an async NotificationResponse seen mid query
// cycle and buffers it without blocking; a full channel drops the oldest
// notification rather than stalling the connection on a slow listener.
func (c *Conn) handleNotification(msg pgproto.Message) {
	notif, err := pgproto.DecodeNotificationResponse(msg.Payload)
	if err != nil {
		return
	}
	select {
	case c.notifications <- notif:
	default:
		select {
		case <-c.notifications:
		default:
		}
		select {
		case c.notifications <- notif:
		default:
		}
	}
}

// Close sends Terminate and closes the underlying connection.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return nil
	}
	_ = pgproto.WriteMessage(c.netc, pgproto.TagTerminate, pgproto.TerminateMessage())
	c.state = StateClosed
	return c.netc.Close()
}

// RequestCancel opens a fresh connection to host:port and sends a
// CancelRequest for this connection's backend process/secret key. Per
// the Postgres protocol, cancellation is fire-and-forget: the backend
// may or may not actually cancel anything, and no response is sent.
func RequestCancel(ctx context.Context, host, port string, processID, secretKey uint32) error {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return dberr.Wrap(dberr.KindIO, "pgconn: dialing cancel connection", err)
	}
	defer conn.Close()
	return pgproto.WriteUntaggedMessage(conn, pgproto.CancelRequestMessage(processID, secretKey))
}
