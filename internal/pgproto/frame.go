// Package pgproto implements the PostgreSQL frontend/backend protocol
// version 3.0 message framing and message bodies used by the connection
// state machine in internal/conn/pgconn.
package pgproto

import (
	"fmt"
	"io"

	"github.com/sqlcore/sqlcore/internal/ioutil"
)

// ProtocolVersion is the only version the core speaks.
const ProtocolVersion = 3<<16 | 0

// SSLRequestCode is the magic number sent in place of a protocol version
// to request a TLS upgrade before the real startup message.
const SSLRequestCode = 80877103

// CancelRequestCode is the magic number sent in place of a protocol
// version on a throwaway connection used to cancel a running query.
const CancelRequestCode = 80877102

// Backend message type bytes (tag-less startup-phase messages excepted).
const (
	TagAuthentication      byte = 'R'
	TagBackendKeyData      byte = 'K'
	TagBindComplete        byte = '2'
	TagCloseComplete       byte = '3'
	TagCommandComplete     byte = 'C'
	TagCopyData            byte = 'd'
	TagCopyDone            byte = 'c'
	TagDataRow             byte = 'D'
	TagEmptyQueryResponse  byte = 'I'
	TagErrorResponse       byte = 'E'
	TagNoData              byte = 'n'
	TagNoticeResponse      byte = 'N'
	TagNotificationResponse byte = 'A'
	TagParameterDescription byte = 't'
	TagParameterStatus     byte = 'S'
	TagParseComplete       byte = '1'
	TagPortalSuspended     byte = 's'
	TagReadyForQuery       byte = 'Z'
	TagRowDescription      byte = 'T'
)

// Frontend message type bytes.
const (
	TagBind            byte = 'B'
	TagClose           byte = 'C'
	TagCopyFail        byte = 'f'
	TagDescribe        byte = 'D'
	TagExecute         byte = 'E'
	TagFlush           byte = 'H'
	TagParse           byte = 'P'
	TagPasswordMessage byte = 'p'
	TagQuery           byte = 'Q'
	TagSync            byte = 'S'
	TagTerminate       byte = 'X'
)

// Message is a decoded backend message: a tag byte plus its payload
// (length prefix already stripped).
type Message struct {
	Tag     byte
	Payload []byte
}

// ReadMessage reads one tagged message (tag byte + 4-byte BE length
// including itself + payload) from r.
func ReadMessage(r io.Reader) (Message, error) {
	var hdr [5]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Message{}, err
	}
	rb := ioutil.NewReadBuf(hdr[1:5])
	length, err := rb.ReadUint32BE()
	if err != nil {
		return Message{}, err
	}
	if length < 4 {
		return Message{}, fmt.Errorf("pgproto: invalid message length %d", length)
	}
	bodyLen := int(length) - 4
	payload := make([]byte, bodyLen)
	if bodyLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return Message{}, err
		}
	}
	return Message{Tag: hdr[0], Payload: payload}, nil
}

// WriteMessage writes a tagged message to w.
func WriteMessage(w io.Writer, tag byte, payload []byte) error {
	var wb ioutil.WriteBuf
	wb.WriteByte(tag)
	wb.WriteUint32BE(uint32(len(payload) + 4))
	wb.WriteBytes(payload)
	_, err := w.Write(wb.Bytes())
	return err
}

// ReadUntaggedMessage reads a pre-startup message that has no tag byte: a
// 4-byte BE length (including itself) followed by the body. Used for the
// startup packet and SSL/cancel requests.
func ReadUntaggedMessage(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	rb := ioutil.NewReadBuf(lenBuf[:])
	length, err := rb.ReadUint32BE()
	if err != nil {
		return nil, err
	}
	if length < 4 || length > 1<<20 {
		return nil, fmt.Errorf("pgproto: invalid startup message length %d", length)
	}
	body := make([]byte, int(length)-4)
	if len(body) > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// WriteUntaggedMessage writes a pre-startup message with no tag byte.
func WriteUntaggedMessage(w io.Writer, body []byte) error {
	var wb ioutil.WriteBuf
	wb.WriteUint32BE(uint32(len(body) + 4))
	wb.WriteBytes(body)
	_, err := w.Write(wb.Bytes())
	return err
}
