package pgtype

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sqlcore/sqlcore/internal/ioutil"
	"github.com/sqlcore/sqlcore/internal/typeinfo"
)

// Postgres numeric sign nibbles.
const (
	numericPos    uint16 = 0x0000
	numericNeg    uint16 = 0x4000
	numericNaN    uint16 = 0xc000
	numericPosInf uint16 = 0xd000
	numericNegInf uint16 = 0xf000
)

// Numeric is a base-10000-digit decomposition of an arbitrary-precision
// decimal, mirroring Postgres's own packed-BCD wire representation exactly
// (ndigits groups of 4 decimal digits, a weight, a sign, and a display
// scale) rather than collapsing to a float64 and losing precision.
type Numeric struct {
	Digits  []int16 // base-10000 digits, most significant first
	Weight  int16   // weight of the first digit, in groups of 4 decimal digits
	Sign    uint16  // numericPos, numericNeg, numericNaN, ...
	DScale  uint16  // digits after the decimal point to display
}

// EncodeNumeric appends ndigits(2) + weight(2) + sign(2) + dscale(2) +
// digits(2 each).
func EncodeNumeric(buf *typeinfo.ArgumentBuffer, n Numeric) {
	var w ioutil.WriteBuf
	w.WriteUint16BE(uint16(len(n.Digits)))
	w.WriteUint16BE(uint16(n.Weight))
	w.WriteUint16BE(n.Sign)
	w.WriteUint16BE(n.DScale)
	for _, d := range n.Digits {
		w.WriteUint16BE(uint16(d))
	}
	buf.Buf = append(buf.Buf, w.Bytes()...)
}

// DecodeNumeric decodes the packed-BCD binary numeric encoding.
func DecodeNumeric(raw typeinfo.RawValue) (Numeric, error) {
	r := ioutil.NewReadBuf(raw.Bytes)
	ndigits, err := r.ReadUint16BE()
	if err != nil {
		return Numeric{}, err
	}
	weight, err := r.ReadUint16BE()
	if err != nil {
		return Numeric{}, err
	}
	sign, err := r.ReadUint16BE()
	if err != nil {
		return Numeric{}, err
	}
	dscale, err := r.ReadUint16BE()
	if err != nil {
		return Numeric{}, err
	}
	digits := make([]int16, ndigits)
	for i := range digits {
		d, err := r.ReadUint16BE()
		if err != nil {
			return Numeric{}, err
		}
		digits[i] = int16(d)
	}
	return Numeric{Digits: digits, Weight: int16(weight), Sign: sign, DScale: dscale}, nil
}

// String renders the numeric in base-10 text form, matching how Postgres
// itself would print it.
func (n Numeric) String() string {
	switch n.Sign {
	case numericNaN:
		return "NaN"
	case numericPosInf:
		return "Infinity"
	case numericNegInf:
		return "-Infinity"
	}
	var sb strings.Builder
	if n.Sign == numericNeg {
		sb.WriteByte('-')
	}
	if len(n.Digits) == 0 {
		sb.WriteByte('0')
	} else {
		for i, d := range n.Digits {
			if i == 0 {
				sb.WriteString(strconv.Itoa(int(d)))
			} else {
				sb.WriteString(fmt.Sprintf("%04d", d))
			}
		}
	}
	return sb.String()
}
