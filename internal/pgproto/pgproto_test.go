package pgproto

import (
	"bytes"
	"testing"
)

func TestMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteMessage(&buf, TagQuery, QueryMessage("SELECT 1")); err != nil {
		t.Fatal(err)
	}
	msg, err := ReadMessage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if msg.Tag != TagQuery {
		t.Fatalf("tag = %q, want %q", msg.Tag, TagQuery)
	}
	if string(msg.Payload[:len(msg.Payload)-1]) != "SELECT 1" {
		t.Fatalf("payload = %q", msg.Payload)
	}
}

func TestUntaggedMessageRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	body := StartupMessage(map[string]string{"user": "alice", "database": "postgres"})
	if err := WriteUntaggedMessage(&buf, body); err != nil {
		t.Fatal(err)
	}
	got, err := ReadUntaggedMessage(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, body) {
		t.Fatalf("got %v, want %v", got, body)
	}
}

func TestDecodeAuthenticationOK(t *testing.T) {
	var wb []byte
	wb = append(wb, 0, 0, 0, 0) // AuthOK
	auth, err := DecodeAuthentication(wb)
	if err != nil || auth.Kind != AuthOK {
		t.Fatalf("auth=%+v err=%v", auth, err)
	}
}

func TestDecodeAuthenticationMD5Salt(t *testing.T) {
	payload := append([]byte{0, 0, 0, 5}, []byte{1, 2, 3, 4}...)
	auth, err := DecodeAuthentication(payload)
	if err != nil || auth.Kind != AuthMD5Password || len(auth.Extra) != 4 {
		t.Fatalf("auth=%+v err=%v", auth, err)
	}
}

func TestParameterStatusRoundTrip(t *testing.T) {
	var wb []byte
	wb = append(wb, "server_version"...)
	wb = append(wb, 0)
	wb = append(wb, "16.2"...)
	wb = append(wb, 0)
	name, value, err := DecodeParameterStatus(wb)
	if err != nil || name != "server_version" || value != "16.2" {
		t.Fatalf("name=%q value=%q err=%v", name, value, err)
	}
}

func TestReadyForQuery(t *testing.T) {
	status, err := DecodeReadyForQuery([]byte{'I'})
	if err != nil || status != TxIdle {
		t.Fatalf("status=%v err=%v", status, err)
	}
}

func TestDataRowDecode(t *testing.T) {
	var wb []byte
	wb = append(wb, 0, 2) // 2 columns
	wb = append(wb, 0, 0, 0, 3)
	wb = append(wb, "abc"...)
	wb = append(wb, 0xff, 0xff, 0xff, 0xff) // NULL
	cols, err := DecodeDataRow(wb)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 2 || string(cols[0]) != "abc" || cols[1] != nil {
		t.Fatalf("cols=%v", cols)
	}
}

func TestCommandCompleteDecode(t *testing.T) {
	tag, err := DecodeCommandComplete(append([]byte("INSERT 0 1"), 0))
	if err != nil || tag != "INSERT 0 1" {
		t.Fatalf("tag=%q err=%v", tag, err)
	}
}

func TestErrorFieldsDecode(t *testing.T) {
	var wb []byte
	wb = append(wb, 'S')
	wb = append(wb, "ERROR"...)
	wb = append(wb, 0)
	wb = append(wb, 'C')
	wb = append(wb, "23505"...)
	wb = append(wb, 0)
	wb = append(wb, 0)
	fields, err := DecodeErrorFields(wb)
	if err != nil {
		t.Fatal(err)
	}
	if fields[ErrorFieldSeverity] != "ERROR" || fields[ErrorFieldSQLSTATE] != "23505" {
		t.Fatalf("fields=%v", fields)
	}
}

func TestNotificationResponseDecode(t *testing.T) {
	var wb []byte
	wb = append(wb, 0, 0, 0, 42)
	wb = append(wb, "mychannel"...)
	wb = append(wb, 0)
	wb = append(wb, "hello"...)
	wb = append(wb, 0)
	n, err := DecodeNotificationResponse(wb)
	if err != nil || n.ProcessID != 42 || n.Channel != "mychannel" || n.Payload != "hello" {
		t.Fatalf("n=%+v err=%v", n, err)
	}
}

func TestBindMessageWithNullParam(t *testing.T) {
	body := BindMessage("", "stmt1", []int16{1}, [][]byte{nil, []byte("x")}, []int16{1})
	if len(body) == 0 {
		t.Fatal("expected non-empty body")
	}
}
