package myconn

import (
	"crypto/tls"
	"net"
	"testing"

	"github.com/sqlcore/sqlcore/internal/myproto"
)

type fakeServer struct {
	t    *testing.T
	conn net.Conn
	seq  byte
}

func newFakeServer(t *testing.T) (*Conn, *fakeServer) {
	t.Helper()
	client, server := net.Pipe()
	c := &Conn{netc: client, capabilities: myproto.DefaultClientCapabilities}
	return c, &fakeServer{t: t, conn: server}
}

func (s *fakeServer) send(payload []byte) {
	s.t.Helper()
	seq, err := myproto.WritePacket(s.conn, payload, s.seq)
	if err != nil {
		s.t.Fatalf("writing packet: %v", err)
	}
	s.seq = seq
}

func (s *fakeServer) recv() []byte {
	s.t.Helper()
	payload, seq, err := myproto.ReadPacket(s.conn)
	if err != nil {
		s.t.Fatalf("reading packet: %v", err)
	}
	s.seq = seq + 1
	return payload
}

func TestAuthenticateNativePasswordHappyPath(t *testing.T) {
	c, srv := newFakeServer(t)
	c.cfg.User = "root"
	c.cfg.Password = "secret"

	errc := make(chan error, 1)
	handshake := myproto.HandshakeV10{
		ProtocolVersion: 10,
		Capabilities:    myproto.DefaultClientCapabilities,
		AuthPluginData:  make([]byte, 20),
		AuthPluginName:  myproto.AuthMySQLNativePassword,
	}
	go func() { errc <- c.authenticate(handshake) }()

	_ = srv.recv() // HandshakeResponse41
	srv.send([]byte{myproto.OKPacketHeader, 0, 0, 0, 0, 0, 0})

	if err := <-errc; err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestAuthenticateErrPacketIsDatabaseError(t *testing.T) {
	c, srv := newFakeServer(t)
	c.cfg.User = "root"
	c.cfg.Password = "wrong"

	errc := make(chan error, 1)
	handshake := myproto.HandshakeV10{
		ProtocolVersion: 10,
		Capabilities:    myproto.DefaultClientCapabilities,
		AuthPluginData:  make([]byte, 20),
		AuthPluginName:  myproto.AuthMySQLNativePassword,
	}
	go func() { errc <- c.authenticate(handshake) }()

	_ = srv.recv()
	errPacket := append([]byte{myproto.ErrPacketHeader, 0x15, 0x04, '#'}, []byte("28000")...)
	errPacket = append(errPacket, []byte("Access denied")...)
	srv.send(errPacket)

	err := <-errc
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestAuthenticateWithTLSSendsSSLRequestFirst(t *testing.T) {
	c, srv := newFakeServer(t)
	c.cfg.User = "root"
	c.cfg.Password = "secret"
	c.cfg.TLSConfig = &tls.Config{InsecureSkipVerify: true}

	errc := make(chan error, 1)
	handshake := myproto.HandshakeV10{
		ProtocolVersion: 10,
		Capabilities:    myproto.DefaultClientCapabilities,
		AuthPluginData:  make([]byte, 20),
		AuthPluginName:  myproto.AuthMySQLNativePassword,
	}
	go func() { errc <- c.authenticate(handshake) }()

	sslReq := srv.recv()
	if len(sslReq) != 32 {
		t.Fatalf("expected a 32-byte SSLRequest, got %d bytes", len(sslReq))
	}
	capabilities := uint32(sslReq[0]) | uint32(sslReq[1])<<8 | uint32(sslReq[2])<<16 | uint32(sslReq[3])<<24
	if capabilities&myproto.CapabilitySSL == 0 {
		t.Fatal("expected CapabilitySSL set in the SSLRequest's capability flags")
	}

	// The fake server never completes a real TLS handshake, so
	// authenticate is expected to fail at that point rather than hang.
	srv.conn.Close()
	if err := <-errc; err == nil {
		t.Fatal("expected the TLS handshake to fail against a non-TLS peer")
	}
}

func TestExecSQLDrainsOKPacket(t *testing.T) {
	c, srv := newFakeServer(t)
	errc := make(chan error, 1)
	go func() { errc <- c.ExecSQL(nil, "SET autocommit=1") }()

	_ = srv.recv() // COM_QUERY
	srv.send([]byte{myproto.OKPacketHeader, 0, 0, 0, 0, 0, 0})

	if err := <-errc; err != nil {
		t.Fatalf("ExecSQL: %v", err)
	}
}
