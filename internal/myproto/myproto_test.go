package myproto

import (
	"bytes"
	"testing"
)

func TestPacketRoundTripSmall(t *testing.T) {
	var buf bytes.Buffer
	next, err := WritePacket(&buf, []byte("SELECT 1"), 0)
	if err != nil || next != 1 {
		t.Fatalf("next=%d err=%v", next, err)
	}
	payload, seq, err := ReadPacket(&buf)
	if err != nil || seq != 0 || string(payload) != "SELECT 1" {
		t.Fatalf("payload=%q seq=%d err=%v", payload, seq, err)
	}
}

func TestPacketSplitAtBoundary(t *testing.T) {
	big := bytes.Repeat([]byte{'x'}, maxPacketBody)
	var buf bytes.Buffer
	next, err := WritePacket(&buf, big, 5)
	if err != nil {
		t.Fatal(err)
	}
	if next != 7 {
		t.Fatalf("expected two physical packets (terminator included), next=%d", next)
	}
	payload, seq, err := ReadPacket(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(payload) != maxPacketBody {
		t.Fatalf("got %d bytes, want %d", len(payload), maxPacketBody)
	}
	if seq != 6 {
		t.Fatalf("final seq = %d, want 6", seq)
	}
}

func TestDecodeOKPacket(t *testing.T) {
	var wb []byte
	wb = append(wb, 0x00)           // header
	wb = append(wb, 5)              // affected rows, lenenc small
	wb = append(wb, 0)              // last insert id
	wb = append(wb, 0x02, 0x00)     // status flags
	wb = append(wb, 0x00, 0x00)     // warnings
	ok, err := DecodeOKPacket(wb[1:], CapabilityProtocol41)
	if err != nil || ok.AffectedRows != 5 {
		t.Fatalf("ok=%+v err=%v", ok, err)
	}
}

func TestDecodeErrPacket(t *testing.T) {
	var wb []byte
	wb = append(wb, 0x04, 0x04) // code 1028 LE
	wb = append(wb, '#')
	wb = append(wb, "28000"...)
	wb = append(wb, "Access denied"...)
	e, err := DecodeErrPacket(wb, CapabilityProtocol41)
	if err != nil || e.Code != 1028 || e.SQLState != "28000" || e.Message != "Access denied" {
		t.Fatalf("e=%+v err=%v", e, err)
	}
}

func TestStmtExecuteCommandNullBitmap(t *testing.T) {
	params := []BoundParam{
		{ColumnType: 0x08, Value: []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{ColumnType: 0x0f, IsNull: true},
	}
	body := StmtExecuteCommand(42, params)
	if body[0] != ComStmtExecute {
		t.Fatalf("wrong command byte")
	}
}

func TestDecodeStmtPrepareOK(t *testing.T) {
	var wb []byte
	wb = append(wb, 0x00)
	wb = append(wb, 1, 0, 0, 0) // stmt id
	wb = append(wb, 2, 0)       // num columns
	wb = append(wb, 1, 0)       // num params
	wb = append(wb, 0)          // filler
	wb = append(wb, 0, 0)       // warnings
	ok, err := DecodeStmtPrepareOK(wb)
	if err != nil || ok.StatementID != 1 || ok.NumColumns != 2 || ok.NumParams != 1 {
		t.Fatalf("ok=%+v err=%v", ok, err)
	}
}

func TestEncodeSSLRequestLayout(t *testing.T) {
	req := EncodeSSLRequest(CapabilitySSL|CapabilityProtocol41, 1<<24-1, 0x21)
	if len(req) != 4+4+1+23 {
		t.Fatalf("expected a 32-byte SSLRequest body, got %d bytes", len(req))
	}
	capabilities := uint32(req[0]) | uint32(req[1])<<8 | uint32(req[2])<<16 | uint32(req[3])<<24
	if capabilities&CapabilitySSL == 0 {
		t.Fatal("expected CapabilitySSL set in the encoded capability flags")
	}
	if req[8] != 0x21 {
		t.Fatalf("expected charset byte 0x21, got 0x%02x", req[8])
	}
}

func TestDecodeTextRowWithNull(t *testing.T) {
	var wb []byte
	wb = append(wb, 3)
	wb = append(wb, "abc"...)
	wb = append(wb, LocalInfilePacketHeader)
	values, err := DecodeTextRow(wb, 2)
	if err != nil {
		t.Fatal(err)
	}
	if string(values[0].Bytes) != "abc" || !values[1].IsNull {
		t.Fatalf("values=%+v", values)
	}
}
