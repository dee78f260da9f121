package spec2014

import (
	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
)

// Packet is the result of parsing one top-level TLV element.
// Exactly one of Interest and Data is non-nil on success.
type Packet struct {
	Interest *Interest
	Data     *Data
}

// ReadPacket parses one top-level element from a frame.
func ReadPacket(frame []byte) (*Packet, error) {
	if len(frame) == 0 {
		return nil, ndn.ErrMalformedElement
	}

	r := enc.NewBufferView(frame)
	switch enc.TLNum(frame[0]) {
	case TypeInterest:
		interest, err := ParseInterest(r)
		if err != nil {
			return nil, err
		}
		return &Packet{Interest: interest}, nil
	case TypeData:
		data, err := ParseData(r)
		if err != nil {
			return nil, err
		}
		return &Packet{Data: data}, nil
	default:
		return nil, ndn.ErrWrongType
	}
}
