// Package encoding implements NDN names and the TLV primitives the
// client runtime speaks on the wire.
package encoding

import "fmt"

// Buffer is a contiguous buffer of bytes.
type Buffer []byte

// Wire is a collection of Buffers, possibly non-contiguous in memory.
type Wire []Buffer

// Join flattens the Wire into a single contiguous buffer.
func (w Wire) Join() []byte {
	if len(w) == 0 {
		return []byte{}
	} else if len(w) == 1 {
		return w[0]
	}

	n := 0
	for _, v := range w {
		n += len(v)
	}

	b := make([]byte, n)
	bp := copy(b, w[0])
	for _, v := range w[1:] {
		bp += copy(b[bp:], v)
	}
	return b
}

// Length returns the total byte length of the Wire.
func (w Wire) Length() int {
	ret := 0
	for _, v := range w {
		ret += len(v)
	}
	return ret
}

type ErrFormat struct {
	Msg string
}

func (e ErrFormat) Error() string {
	return e.Msg
}

var ErrBufferOverflow = fmt.Errorf("buffer overflow when parsing. One of the TLV lengths is wrong")
