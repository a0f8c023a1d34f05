// Package myproto implements the MySQL/MariaDB client/server protocol:
// packet framing across the 2^24-1 byte boundary, the handshake and
// authentication exchange, COM_* commands, and result-set decoding, used
// by the connection state machine in internal/conn/myconn.
package myproto

import (
	"fmt"
	"io"

	"github.com/sqlcore/sqlcore/internal/ioutil"
)

const maxPacketBody = 1<<24 - 1

// ReadPacket reads one logical MySQL packet, transparently reassembling
// it across the 2^24-1 byte split-packet boundary, and returns its
// payload and the sequence number of its final physical packet (the
// sequence the caller's next packet must continue from).
func ReadPacket(r io.Reader) (payload []byte, seq byte, err error) {
	for {
		var hdr [4]byte
		if _, err = io.ReadFull(r, hdr[:]); err != nil {
			return nil, 0, err
		}
		length := int(hdr[0]) | int(hdr[1])<<8 | int(hdr[2])<<16
		seq = hdr[3]
		chunk := make([]byte, length)
		if length > 0 {
			if _, err = io.ReadFull(r, chunk); err != nil {
				return nil, 0, err
			}
		}
		payload = append(payload, chunk...)
		if length < maxPacketBody {
			return payload, seq, nil
		}
		// length == maxPacketBody: more physical packets follow for the
		// same logical packet (possibly a final zero-length terminator).
	}
}

// WritePacket writes payload as one or more physical packets, splitting
// at the 2^24-1 boundary. seq is the starting sequence number; it
// returns the next sequence number to use.
func WritePacket(w io.Writer, payload []byte, seq byte) (nextSeq byte, err error) {
	for {
		n := len(payload)
		if n > maxPacketBody {
			n = maxPacketBody
		}
		var wb ioutil.WriteBuf
		wb.WriteByte(byte(n))
		wb.WriteByte(byte(n >> 8))
		wb.WriteByte(byte(n >> 16))
		wb.WriteByte(seq)
		wb.WriteBytes(payload[:n])
		if _, err = w.Write(wb.Bytes()); err != nil {
			return seq, err
		}
		seq++
		payload = payload[n:]
		if n < maxPacketBody {
			return seq, nil
		}
		if len(payload) == 0 {
			// Exactly a multiple of maxPacketBody: MySQL requires a
			// trailing zero-length packet to terminate the split.
			var term ioutil.WriteBuf
			term.WriteByte(0)
			term.WriteByte(0)
			term.WriteByte(0)
			term.WriteByte(seq)
			if _, err = w.Write(term.Bytes()); err != nil {
				return seq, err
			}
			return seq + 1, nil
		}
	}
}

// Generic packet identification bytes.
const (
	OKPacketHeader      byte = 0x00
	EOFPacketHeader     byte = 0xfe
	ErrPacketHeader     byte = 0xff
	LocalInfilePacketHeader byte = 0xfb
)

// OKPacket is the decoded OK_Packet / EOF-as-OK (when CLIENT_DEPRECATE_EOF
// is negotiated).
type OKPacket struct {
	AffectedRows uint64
	LastInsertID uint64
	StatusFlags  uint16
	Warnings     uint16
	Info         string
}

// DecodeOKPacket decodes an OK_Packet body (header byte already consumed
// by the caller via PeekHeader).
func DecodeOKPacket(payload []byte, capabilities uint32) (OKPacket, error) {
	r := ioutil.NewReadBuf(payload)
	var ok OKPacket
	var err error
	if ok.AffectedRows, err = r.ReadLenencInt(); err != nil {
		return ok, err
	}
	if ok.LastInsertID, err = r.ReadLenencInt(); err != nil {
		return ok, err
	}
	if capabilities&CapabilityProtocol41 != 0 {
		if ok.StatusFlags, err = r.ReadUint16LE(); err != nil {
			return ok, err
		}
		if ok.Warnings, err = r.ReadUint16LE(); err != nil {
			return ok, err
		}
	} else if capabilities&CapabilityTransactions != 0 {
		if ok.StatusFlags, err = r.ReadUint16LE(); err != nil {
			return ok, err
		}
	}
	ok.Info = string(r.ReadRest())
	return ok, nil
}

// ErrPacket is the decoded ERR_Packet.
type ErrPacket struct {
	Code     uint16
	SQLState string
	Message  string
}

func (e ErrPacket) Error() string {
	return fmt.Sprintf("myproto: ERROR %d (%s): %s", e.Code, e.SQLState, e.Message)
}

// DecodeErrPacket decodes an ERR_Packet body.
func DecodeErrPacket(payload []byte, capabilities uint32) (ErrPacket, error) {
	r := ioutil.NewReadBuf(payload)
	var e ErrPacket
	var err error
	if e.Code, err = r.ReadUint16LE(); err != nil {
		return e, err
	}
	if capabilities&CapabilityProtocol41 != 0 {
		marker, err := r.ReadByte()
		if err != nil {
			return e, err
		}
		if marker == '#' {
			state, err := r.ReadBytes(5)
			if err != nil {
				return e, err
			}
			e.SQLState = string(state)
		}
	}
	e.Message = string(r.ReadRest())
	return e, nil
}

// EOFPacket is the decoded (legacy, pre-CLIENT_DEPRECATE_EOF) EOF_Packet.
type EOFPacket struct {
	Warnings    uint16
	StatusFlags uint16
}

func DecodeEOFPacket(payload []byte) (EOFPacket, error) {
	r := ioutil.NewReadBuf(payload)
	var e EOFPacket
	var err error
	if e.Warnings, err = r.ReadUint16LE(); err != nil {
		return e, err
	}
	if e.StatusFlags, err = r.ReadUint16LE(); err != nil {
		return e, err
	}
	return e, nil
}

// IsEOFPacket reports whether payload looks like a (non-result-set) EOF
// packet: header 0xfe and short enough that it cannot be a length-encoded
// column count (EOF is ambiguous with a huge lenenc-int without this
// length heuristic, per the MySQL protocol documentation).
func IsEOFPacket(payload []byte) bool {
	return len(payload) > 0 && payload[0] == EOFPacketHeader && len(payload) < 9
}
