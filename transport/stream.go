package transport

import (
	"fmt"
	"io"
	"net"

	enc "github.com/ndncomm/ndn-go/encoding"
)

// StreamFace is a face over a stream connection (tcp or unix).
type StreamFace struct {
	baseFace
	network string
	addr    string
	conn    net.Conn
}

func NewStreamFace(network string, addr string, local bool) *StreamFace {
	return &StreamFace{
		baseFace: newBaseFace(local),
		network:  network,
		addr:     addr,
	}
}

func (f *StreamFace) String() string {
	return fmt.Sprintf("stream-face (%s://%s)", f.network, f.addr)
}

func (f *StreamFace) Open() error {
	if f.IsRunning() {
		return fmt.Errorf("face is already running")
	}

	if f.onError == nil || f.onPkt == nil {
		return fmt.Errorf("face callbacks are not set")
	}

	c, err := net.Dial(f.network, f.addr)
	if err != nil {
		return err
	}

	f.conn = c
	f.setStateUp()
	go f.receive()

	return nil
}

func (f *StreamFace) Close() error {
	if f.setStateClosed() {
		if f.conn != nil {
			return f.conn.Close()
		}
	}

	return nil
}

func (f *StreamFace) Send(pkt enc.Wire) error {
	if !f.IsRunning() {
		return fmt.Errorf("face is not running")
	}

	f.sendMut.Lock()
	defer f.sendMut.Unlock()

	_, err := f.conn.Write(pkt.Join())
	if err != nil {
		return err
	}

	return nil
}

func (f *StreamFace) receive() {
	defer f.setStateDown()

	err := ReadTlvStream(f.conn, func(b []byte) bool {
		f.onPkt(b)
		return f.IsRunning()
	}, nil)

	if f.IsRunning() {
		if err != nil {
			f.onError(err)
		} else {
			f.onError(io.EOF)
		}
	}
}
