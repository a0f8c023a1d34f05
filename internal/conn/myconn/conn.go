// Package myconn implements the MySQL/MariaDB connection state machine:
// the handshake/authentication exchange (including AuthSwitchRequest and
// caching_sha2_password/sha256_password negotiation) and the COM_QUERY /
// COM_STMT_* command cycle driving a single TCP/TLS connection.
package myconn

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/sqlcore/sqlcore/internal/dberr"
	"github.com/sqlcore/sqlcore/internal/myproto"
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

// Config is everything needed to establish and authenticate a MySQL
// connection.
type Config struct {
	Host, Port         string
	User, Password     string
	Database           string
	StatementCacheSize int

	// TLSConfig, when non-nil, makes Connect negotiate an SSLRequest
	// before the handshake response and run the rest of the session
	// over the upgraded connection.
	TLSConfig *tls.Config
}

// Conn drives one MySQL/MariaDB connection end to end.
type Conn struct {
	cfg  Config
	netc net.Conn
	seq  byte

	state        State
	capabilities uint32
	serverStatus uint16
	stmts        *stmtcache.Cache
	tx           *transaction.Manager
}

// Connect dials host:port and runs the initial handshake and
// authentication exchange, leaving the connection in StateReady.
func Connect(ctx context.Context, cfg Config) (*Conn, error) {
	d := net.Dialer{}
	netc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, cfg.Port))
	if err != nil {
		return nil, dberr.Wrap(dberr.KindIO, "myconn: dial", err)
	}
	c := &Conn{
		cfg:   cfg,
		netc:  netc,
		state: StateConnecting,
		stmts: stmtcache.New(cfg.StatementCacheSize),
	}
	c.tx = transaction.New(c)

	payload, seq, err := myproto.ReadPacket(netc)
	if err != nil {
		netc.Close()
		return nil, dberr.Wrap(dberr.KindIO, "myconn: reading initial handshake", err)
	}
	handshake, err := myproto.DecodeHandshakeV10(payload)
	if err != nil {
		netc.Close()
		return nil, dberr.Wrap(dberr.KindProtocol, "myconn: decoding handshake", err)
	}
	c.seq = seq + 1
	c.state = StateAuthenticating

	if err := c.authenticate(handshake); err != nil {
		netc.Close()
		c.state = StateBroken
		return nil, err
	}
	c.state = StateReady
	return c, nil
}

func (c *Conn) authenticate(handshake myproto.HandshakeV10) error {
	c.capabilities = handshake.Capabilities & myproto.DefaultClientCapabilities
	if c.cfg.TLSConfig != nil {
		c.capabilities |= myproto.CapabilitySSL
		if err := c.negotiateTLS(); err != nil {
			return err
		}
	}

	plugin := handshake.AuthPluginName
	if plugin == "" {
		plugin = myproto.AuthMySQLNativePassword
	}
	authResp := authResponseFor(plugin, c.cfg.Password, handshake.AuthPluginData)

	resp := myproto.EncodeHandshakeResponse41(myproto.HandshakeResponse41Params{
		Capabilities:   c.capabilities,
		MaxPacketSize:  1<<24 - 1,
		Charset:        0x21, // utf8_general_ci
		Username:       c.cfg.User,
		AuthResponse:   authResp,
		Database:       c.cfg.Database,
		AuthPluginName: plugin,
	})
	if err := c.writePacket(resp); err != nil {
		return err
	}
	return c.handleAuthResult(plugin, handshake.AuthPluginData)
}

// negotiateTLS sends the abbreviated SSLRequest packet and upgrades the
// connection to TLS before the real HandshakeResponse41 goes out. It must
// run after c.capabilities has CapabilitySSL set so the flags sent here
// match the ones sent in the follow-up handshake response.
func (c *Conn) negotiateTLS() error {
	req := myproto.EncodeSSLRequest(c.capabilities, 1<<24-1, 0x21)
	if err := c.writePacket(req); err != nil {
		return err
	}
	tlsConn := tls.Client(c.netc, c.cfg.TLSConfig)
	if err := tlsConn.HandshakeContext(context.Background()); err != nil {
		return dberr.Wrap(dberr.KindTLS, "myconn: TLS handshake", err)
	}
	c.netc = tlsConn
	return nil
}

// handleAuthResult reads the server's reply to HandshakeResponse41 (or to
// a subsequent AuthSwitchRequest/AuthMoreData round) and drives whatever
// further exchange the negotiated plugin requires.
func (c *Conn) handleAuthResult(plugin string, nonce []byte) error {
	payload, seq, err := myproto.ReadPacket(c.netc)
	if err != nil {
		return dberr.Wrap(dberr.KindIO, "myconn: reading auth result", err)
	}
	c.seq = seq + 1
	if len(payload) == 0 {
		return fmt.Errorf("myconn: empty auth result packet")
	}
	switch payload[0] {
	case myproto.OKPacketHeader:
		return nil
	case myproto.ErrPacketHeader:
		ep, err := myproto.DecodeErrPacket(payload[1:], c.capabilities)
		if err != nil {
			return dberr.Wrap(dberr.KindProtocol, "myconn: decoding ERR_Packet", err)
		}
		return dberr.NewDatabaseError(fmt.Sprintf("%d", ep.Code), ep.SQLState, "ERROR", ep.Message)
	case 0xfe: // AuthSwitchRequest
		req, err := myproto.DecodeAuthSwitchRequest(payload)
		if err != nil {
			return dberr.Wrap(dberr.KindProtocol, "myconn: decoding AuthSwitchRequest", err)
		}
		resp := authResponseFor(req.PluginName, c.cfg.Password, req.PluginData)
		if err := c.writePacket(resp); err != nil {
			return err
		}
		return c.handleAuthResult(req.PluginName, req.PluginData)
	case 0x01: // AuthMoreData (caching_sha2_password / sha256_password)
		more := myproto.DecodeAuthMoreData(payload)
		return c.handleAuthMoreData(plugin, nonce, more)
	default:
		return fmt.Errorf("myconn: unexpected auth result byte 0x%02x", payload[0])
	}
}

func (c *Conn) handleAuthMoreData(plugin string, nonce, more []byte) error {
	if len(more) == 1 {
		switch more[0] {
		case myproto.AuthMoreDataFastAuthSuccess:
			return c.handleAuthResult(plugin, nonce)
		case myproto.AuthMoreDataPerformFullAuth:
			return c.performFullAuth(plugin, nonce)
		}
	}
	// Some servers send the RSA public key directly as AuthMoreData
	// without a preceding fast/full-auth status byte.
	return c.sendRSAEncryptedPassword(nonce, more)
}

// performFullAuth runs caching_sha2_password's/sha256_password's "full
// authentication" path: request the server's RSA public key (sending a
// single 0x02 byte) and reply with the password encrypted against it.
func (c *Conn) performFullAuth(plugin string, nonce []byte) error {
	if err := c.writePacket([]byte{0x02}); err != nil {
		return err
	}
	payload, seq, err := myproto.ReadPacket(c.netc)
	if err != nil {
		return dberr.Wrap(dberr.KindIO, "myconn: reading RSA public key", err)
	}
	c.seq = seq + 1
	return c.sendRSAEncryptedPassword(nonce, payload)
}

func (c *Conn) sendRSAEncryptedPassword(nonce, publicKeyPEM []byte) error {
	encrypted, err := encryptPasswordRSA(c.cfg.Password, nonce, publicKeyPEM)
	if err != nil {
		return dberr.Wrap(dberr.KindProtocol, "myconn: RSA-encrypting password", err)
	}
	if err := c.writePacket(encrypted); err != nil {
		return err
	}
	return c.handleAuthResult("", nonce)
}

func (c *Conn) writePacket(payload []byte) error {
	seq, err := myproto.WritePacket(c.netc, payload, c.seq)
	if err != nil {
		return dberr.Wrap(dberr.KindIO, "myconn: writing packet", err)
	}
	c.seq = seq
	return nil
}

// State returns the connection's current lifecycle state.
func (c *Conn) State() State { return c.state }

// Begin opens a transaction scope on this connection, nesting via
// SAVEPOINT if one is already open.
func (c *Conn) Begin(ctx context.Context) (*transaction.Handle, error) {
	return c.tx.Begin(ctx)
}

// Close sends COM_QUIT and closes the underlying connection.
func (c *Conn) Close() error {
	if c.state == StateClosed {
		return nil
	}
	c.seq = 0
	_ = c.writePacket(myproto.QuitCommand())
	c.state = StateClosed
	return c.netc.Close()
}
