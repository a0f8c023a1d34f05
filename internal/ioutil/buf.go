// Package ioutil provides the length-prefixed packet I/O helpers shared by
// the Postgres and MySQL wire codecs: a growable write buffer with
// big/little-endian integer helpers and NUL-terminated string encoding, and
// a bounds-checked read cursor over a single framed message.
package ioutil

import (
	"encoding/binary"
	"fmt"
)

// WriteBuf accumulates protocol bytes for a single outbound message.
// It is reused across messages by the connection to avoid per-message
// allocation on the hot path.
type WriteBuf struct {
	buf []byte
}

// Reset empties the buffer, retaining its backing array.
func (w *WriteBuf) Reset() {
	w.buf = w.buf[:0]
}

// Bytes returns the accumulated bytes.
func (w *WriteBuf) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *WriteBuf) Len() int {
	return len(w.buf)
}

// WriteByte appends a single byte.
func (w *WriteBuf) WriteByte(b byte) {
	w.buf = append(w.buf, b)
}

// WriteBytes appends raw bytes verbatim.
func (w *WriteBuf) WriteBytes(b []byte) {
	w.buf = append(w.buf, b...)
}

// WriteCString appends s followed by a NUL terminator.
func (w *WriteBuf) WriteCString(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

// WriteUint16BE appends v as a big-endian uint16.
func (w *WriteBuf) WriteUint16BE(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteUint32BE appends v as a big-endian uint32.
func (w *WriteBuf) WriteUint32BE(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteInt32BE appends v as a big-endian int32.
func (w *WriteBuf) WriteInt32BE(v int32) {
	w.WriteUint32BE(uint32(v))
}

// WriteUint16LE appends v as a little-endian uint16.
func (w *WriteBuf) WriteUint16LE(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteUint32LE appends v as a little-endian uint32.
func (w *WriteBuf) WriteUint32LE(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteUint64LE appends v as a little-endian uint64.
func (w *WriteBuf) WriteUint64LE(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// WriteLenencInt appends v using the MySQL length-encoded-integer format.
func (w *WriteBuf) WriteLenencInt(v uint64) {
	switch {
	case v < 251:
		w.buf = append(w.buf, byte(v))
	case v < 1<<16:
		w.buf = append(w.buf, 0xfc)
		w.WriteUint16LE(uint16(v))
	case v < 1<<24:
		w.buf = append(w.buf, 0xfd)
		w.buf = append(w.buf, byte(v), byte(v>>8), byte(v>>16))
	default:
		w.buf = append(w.buf, 0xfe)
		w.WriteUint64LE(v)
	}
}

// WriteLenencString appends a MySQL length-encoded string.
func (w *WriteBuf) WriteLenencString(s string) {
	w.WriteLenencInt(uint64(len(s)))
	w.buf = append(w.buf, s...)
}

// ReadBuf is a bounds-checked cursor over a single decoded message payload.
// All Read* methods return an error instead of panicking on truncated input
// so a malformed frame never reads past its declared length.
type ReadBuf struct {
	buf []byte
	pos int
}

// NewReadBuf wraps payload for sequential decoding.
func NewReadBuf(payload []byte) *ReadBuf {
	return &ReadBuf{buf: payload}
}

// Len returns the number of unread bytes remaining.
func (r *ReadBuf) Len() int {
	return len(r.buf) - r.pos
}

func (r *ReadBuf) need(n int) error {
	if r.Len() < n {
		return fmt.Errorf("ioutil: short read: need %d bytes, have %d", n, r.Len())
	}
	return nil
}

// PeekByte returns the next unread byte without consuming it. Callers
// must check Len() > 0 first; PeekByte returns 0 past the end.
func (r *ReadBuf) PeekByte() byte {
	if r.Len() == 0 {
		return 0
	}
	return r.buf[r.pos]
}

// ReadByte reads a single byte.
func (r *ReadBuf) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads n raw bytes.
func (r *ReadBuf) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// ReadRest returns all remaining unread bytes.
func (r *ReadBuf) ReadRest() []byte {
	b := r.buf[r.pos:]
	r.pos = len(r.buf)
	return b
}

// ReadCString reads bytes up to (and consuming) a NUL terminator.
func (r *ReadBuf) ReadCString() (string, error) {
	for i := r.pos; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			s := string(r.buf[r.pos:i])
			r.pos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("ioutil: unterminated C string")
}

// ReadUint16BE reads a big-endian uint16.
func (r *ReadBuf) ReadUint16BE() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// ReadUint32BE reads a big-endian uint32.
func (r *ReadBuf) ReadUint32BE() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// ReadInt32BE reads a big-endian int32.
func (r *ReadBuf) ReadInt32BE() (int32, error) {
	v, err := r.ReadUint32BE()
	return int32(v), err
}

// ReadUint64BE reads a big-endian uint64.
func (r *ReadBuf) ReadUint64BE() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadInt64BE reads a big-endian int64.
func (r *ReadBuf) ReadInt64BE() (int64, error) {
	v, err := r.ReadUint64BE()
	return int64(v), err
}

// ReadUint16LE reads a little-endian uint16.
func (r *ReadBuf) ReadUint16LE() (uint16, error) {
	b, err := r.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadUint32LE reads a little-endian uint32.
func (r *ReadBuf) ReadUint32LE() (uint32, error) {
	b, err := r.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadUint64LE reads a little-endian uint64.
func (r *ReadBuf) ReadUint64LE() (uint64, error) {
	b, err := r.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadLenencInt reads a MySQL length-encoded integer.
func (r *ReadBuf) ReadLenencInt() (uint64, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	switch {
	case first < 0xfb:
		return uint64(first), nil
	case first == 0xfc:
		v, err := r.ReadUint16LE()
		return uint64(v), err
	case first == 0xfd:
		b, err := r.ReadBytes(3)
		if err != nil {
			return 0, err
		}
		return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16, nil
	case first == 0xfe:
		return r.ReadUint64LE()
	default:
		return 0, fmt.Errorf("ioutil: invalid length-encoded integer prefix 0x%02x", first)
	}
}

// ReadLenencString reads a MySQL length-encoded string.
func (r *ReadBuf) ReadLenencString() (string, error) {
	n, err := r.ReadLenencInt()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
