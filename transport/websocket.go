package transport

import (
	"errors"
	"fmt"

	"github.com/gorilla/websocket"
	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
)

// WebSocketFace is a face over a WebSocket connection. Each binary
// message carries one whole TLV element.
type WebSocketFace struct {
	baseFace
	url  string
	conn *websocket.Conn
}

func NewWebSocketFace(url string, local bool) *WebSocketFace {
	return &WebSocketFace{
		baseFace: newBaseFace(local),
		url:      url,
	}
}

func (f *WebSocketFace) String() string {
	return fmt.Sprintf("websocket-face (%s)", f.url)
}

func (f *WebSocketFace) Open() error {
	if f.running.Load() {
		return errors.New("face is already running")
	}

	if f.onError == nil || f.onPkt == nil {
		return errors.New("face callbacks are not set")
	}

	c, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.conn = c
	f.setStateUp()

	go f.receive()

	return nil
}

func (f *WebSocketFace) Close() error {
	if !f.setStateClosed() {
		return errors.New("face is not running")
	}

	return f.conn.Close()
}

func (f *WebSocketFace) Send(pkt enc.Wire) error {
	if !f.running.Load() {
		return errors.New("face is not running")
	}
	return f.conn.WriteMessage(websocket.BinaryMessage, pkt.Join())
}

func (f *WebSocketFace) receive() {
	defer f.setStateDown()

	for f.running.Load() {
		messageType, pkt, err := f.conn.ReadMessage()
		if err != nil {
			if f.running.Load() {
				f.onError(err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			continue
		}

		if len(pkt) > ndn.MaxNDNPacketSize {
			f.onError(ndn.ErrMalformedElement)
			return
		}

		f.onPkt(pkt)
	}
}
