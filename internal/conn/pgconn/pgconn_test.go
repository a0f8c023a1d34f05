package pgconn

import (
	"net"
	"testing"

	"github.com/sqlcore/sqlcore/internal/pgproto"
)

// fakeBackend drives the server side of a net.Pipe, letting tests assert on
// what the client sent and script canned responses back.
type fakeBackend struct {
	t    *testing.T
	conn net.Conn
}

func newFakeBackend(t *testing.T) (*Conn, *fakeBackend) {
	t.Helper()
	client, server := net.Pipe()
	c := &Conn{netc: client, params: make(map[string]string)}
	return c, &fakeBackend{t: t, conn: server}
}

func (b *fakeBackend) readMessage() pgproto.Message {
	b.t.Helper()
	msg, err := pgproto.ReadMessage(b.conn)
	if err != nil {
		b.t.Fatalf("reading message from client: %v", err)
	}
	return msg
}

func (b *fakeBackend) send(tag byte, payload []byte) {
	b.t.Helper()
	if err := pgproto.WriteMessage(b.conn, tag, payload); err != nil {
		b.t.Fatalf("writing message to client: %v", err)
	}
}

func TestAwaitReadyForQueryBuffersParameterStatus(t *testing.T) {
	c, backend := newFakeBackend(t)
	done := make(chan error, 1)
	go func() { done <- c.awaitReadyForQuery() }()

	backend.send(pgproto.TagParameterStatus, []byte(mustCString("server_version")+mustCString("16.1")))
	backend.send(pgproto.TagBackendKeyData, []byte(be32(4242)+be32(9999)))
	backend.send(pgproto.TagReadyForQuery, []byte{byte(pgproto.TxIdle)})

	if err := <-done; err != nil {
		t.Fatalf("awaitReadyForQuery: %v", err)
	}
	if c.params["server_version"] != "16.1" {
		t.Fatalf("params = %v", c.params)
	}
	if c.processID != 4242 || c.secretKey != 9999 {
		t.Fatalf("processID=%d secretKey=%d", c.processID, c.secretKey)
	}
	if c.txStatus != pgproto.TxIdle {
		t.Fatalf("txStatus = %v", c.txStatus)
	}
}

func TestErrorFromMessageProducesDatabaseError(t *testing.T) {
	c, backend := newFakeBackend(t)
	done := make(chan error, 1)
	go func() { done <- c.awaitReadyForQuery() }()

	fields := []byte{}
	fields = append(fields, 'S')
	fields = append(fields, []byte("ERROR\x00")...)
	fields = append(fields, 'C')
	fields = append(fields, []byte("23505\x00")...)
	fields = append(fields, 'M')
	fields = append(fields, []byte("duplicate key value\x00")...)
	fields = append(fields, 0)
	backend.send(pgproto.TagErrorResponse, fields)

	err := <-done
	if err == nil {
		t.Fatal("expected an error")
	}
}

func mustCString(s string) string { return s + "\x00" }

func be32(v uint32) string {
	return string([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
