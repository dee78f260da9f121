package encoding

import (
	"encoding/binary"
	"io"
)

// TLNum is a TLV Type or Length number.
type TLNum uint64

// Nat is a TLV non-negative integer value.
type Nat uint64

// EncodingLength returns the number of bytes the TLNum occupies on the wire.
func (v TLNum) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xfc:
		return 1
	case x <= 0xffff:
		return 3
	case x <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// EncodeInto writes the TLNum into buf and returns the bytes written.
func (v TLNum) EncodeInto(buf Buffer) int {
	switch x := uint64(v); {
	case x <= 0xfc:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		buf[0] = 0xfd
		binary.BigEndian.PutUint16(buf[1:], uint16(x))
		return 3
	case x <= 0xffffffff:
		buf[0] = 0xfe
		binary.BigEndian.PutUint32(buf[1:], uint32(x))
		return 5
	default:
		buf[0] = 0xff
		binary.BigEndian.PutUint64(buf[1:], x)
		return 9
	}
}

// ParseTLNum parses a TLNum at the start of buf.
// Internal use only; panics on out-of-bounds input.
func ParseTLNum(buf Buffer) (val TLNum, pos int) {
	switch x := buf[0]; {
	case x <= 0xfc:
		val = TLNum(x)
		pos = 1
	case x == 0xfd:
		val = TLNum(binary.BigEndian.Uint16(buf[1:3]))
		pos = 3
	case x == 0xfe:
		val = TLNum(binary.BigEndian.Uint32(buf[1:5]))
		pos = 5
	case x == 0xff:
		val = TLNum(binary.BigEndian.Uint64(buf[1:9]))
		pos = 9
	}
	return
}

// ReadTLNum reads a TLNum from the view.
func (r *BufferView) ReadTLNum() (val TLNum, err error) {
	var x byte
	if x, err = r.ReadByte(); err != nil {
		return
	}
	l := 1
	switch {
	case x <= 0xfc:
		val = TLNum(x)
		return
	case x == 0xfd:
		l = 2
	case x == 0xfe:
		l = 4
	case x == 0xff:
		l = 8
	}
	val = 0
	for i := 0; i < l; i++ {
		if x, err = r.ReadByte(); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return
		}
		val = val<<8 | TLNum(x)
	}
	return
}

// EncodingLength returns the minimal number of bytes (1, 2, 4 or 8)
// representing the Nat.
func (v Nat) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xff:
		return 1
	case x <= 0xffff:
		return 2
	case x <= 0xffffffff:
		return 4
	default:
		return 8
	}
}

// EncodeInto writes the Nat in big-endian into buf and returns the bytes written.
func (v Nat) EncodeInto(buf Buffer) int {
	switch x := uint64(v); {
	case x <= 0xff:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		binary.BigEndian.PutUint16(buf, uint16(x))
		return 2
	case x <= 0xffffffff:
		binary.BigEndian.PutUint32(buf, uint32(x))
		return 4
	default:
		binary.BigEndian.PutUint64(buf, x)
		return 8
	}
}

// Bytes returns the encoded Nat.
func (v Nat) Bytes() []byte {
	buf := make([]byte, v.EncodingLength())
	v.EncodeInto(buf)
	return buf
}

// ParseNat parses a big-endian natural number occupying the whole buffer.
func ParseNat(buf Buffer) (val Nat, err error) {
	switch len(buf) {
	case 1:
		val = Nat(buf[0])
	case 2:
		val = Nat(binary.BigEndian.Uint16(buf))
	case 4:
		val = Nat(binary.BigEndian.Uint32(buf))
	case 8:
		val = Nat(binary.BigEndian.Uint64(buf))
	default:
		return 0, ErrFormat{"natural number length is not 1, 2, 4 or 8"}
	}
	return val, nil
}
