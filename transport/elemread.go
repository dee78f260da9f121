package transport

import (
	"errors"
	"fmt"
	"io"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
)

// ElementReader splits an unbounded inbound byte stream into complete
// top-level TLV elements. It holds at most one partial element; a
// header that cannot decode, a zero type number, or an element above
// the maximum NDN packet size fails with ErrMalformedElement. The
// reader never allocates past the ceiling.
//
// Emitted frames alias the reader's internal storage and are only valid
// for the duration of the callback.
type ElementReader struct {
	onElement func(frame []byte)
	partial   []byte
}

func NewElementReader(onElement func(frame []byte)) *ElementReader {
	return &ElementReader{onElement: onElement}
}

// Feed consumes an arbitrary chunk, emitting zero or more elements.
func (r *ElementReader) Feed(chunk []byte) error {
	data := chunk
	if len(r.partial) > 0 {
		data = append(r.partial, chunk...)
		r.partial = nil
	}

	for len(data) > 0 {
		size, complete, err := elementSize(data)
		if err != nil {
			return err
		}
		if !complete || size > len(data) {
			// stash the partial element; the ceiling was already checked
			r.partial = make([]byte, len(data), min(2*len(data), ndn.MaxNDNPacketSize))
			copy(r.partial, data)
			return nil
		}
		r.onElement(data[:size])
		data = data[size:]
	}
	return nil
}

// elementSize decodes the TLV header at the start of buf. complete is
// false when more bytes are needed to decide.
func elementSize(buf []byte) (size int, complete bool, err error) {
	typ, p1, ok := peekTLNum(buf)
	if !ok {
		return 0, false, nil
	}
	if typ == 0 {
		return 0, false, fmt.Errorf("%w: zero TLV type", ndn.ErrMalformedElement)
	}
	l, p2, ok := peekTLNum(buf[p1:])
	if !ok {
		return 0, false, nil
	}
	size = p1 + p2 + int(l)
	if uint64(l) > ndn.MaxNDNPacketSize || size > ndn.MaxNDNPacketSize {
		return 0, false, fmt.Errorf("%w: element of %d bytes exceeds packet ceiling", ndn.ErrMalformedElement, size)
	}
	return size, true, nil
}

func peekTLNum(buf []byte) (val enc.TLNum, pos int, ok bool) {
	if len(buf) == 0 {
		return 0, 0, false
	}
	l := 0
	switch x := buf[0]; {
	case x <= 0xfc:
		return enc.TLNum(x), 1, true
	case x == 0xfd:
		l = 2
	case x == 0xfe:
		l = 4
	default:
		l = 8
	}
	if len(buf) < 1+l {
		return 0, 0, false
	}
	for _, b := range buf[1 : 1+l] {
		val = val<<8 | enc.TLNum(b)
	}
	return val, 1 + l, true
}

// ReadTlvStream reads whole TLV elements from reader and hands them to
// onFrame until EOF, an error, or onFrame returning false. Frames are
// valid only inside the callback.
func ReadTlvStream(
	reader io.Reader,
	onFrame func([]byte) bool,
	ignoreError func(error) bool,
) error {
	stop := false
	er := NewElementReader(func(frame []byte) {
		if !stop && !onFrame(frame) {
			stop = true
		}
	})

	buf := make([]byte, ndn.MaxNDNPacketSize)
	for !stop {
		readSize, err := reader.Read(buf)
		if readSize > 0 {
			if ferr := er.Feed(buf[:readSize]); ferr != nil {
				return ferr
			}
		}
		if err != nil {
			if ignoreError != nil && ignoreError(err) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
	return nil
}
