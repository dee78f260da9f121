// Package mgmt implements the forwarder control protocol surface the
// runtime needs: ControlParameters in RIB commands and ControlResponse
// in the replies.
package mgmt

import (
	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
	"github.com/ndncomm/ndn-go/types/optional"
)

const (
	TypeControlResponse   enc.TLNum = 0x65
	TypeStatusCode        enc.TLNum = 0x66
	TypeStatusText        enc.TLNum = 0x67
	TypeControlParameters enc.TLNum = 0x68
	TypeCost              enc.TLNum = 0x6a
	TypeFlags             enc.TLNum = 0x6c
	TypeExpirationPeriod  enc.TLNum = 0x6d
	TypeOrigin            enc.TLNum = 0x6f
)

// RouteFlag values carried in ControlParameters Flags.
type RouteFlag uint64

const (
	RouteFlagNoFlag       RouteFlag = 0
	RouteFlagChildInherit RouteFlag = 1
	RouteFlagCapture      RouteFlag = 2
)

// ControlParameters carries the arguments of a RIB command.
type ControlParameters struct {
	Name  enc.Name
	Flags optional.Optional[uint64]
	Cost  optional.Optional[uint64]
}

// Bytes encodes the ControlParameters block.
func (p ControlParameters) Bytes() []byte {
	val := []byte{}
	if len(p.Name) > 0 {
		val = append(val, p.Name.Bytes()...)
	}
	if cost, ok := p.Cost.Get(); ok {
		val = append(val, natTLV(TypeCost, cost)...)
	}
	if flags, ok := p.Flags.Get(); ok {
		val = append(val, natTLV(TypeFlags, flags)...)
	}
	return tlv(TypeControlParameters, val)
}

// ControlResponse is the status reply of a forwarder command.
type ControlResponse struct {
	StatusCode uint64
	StatusText string
}

// ParseControlResponse decodes a ControlResponse from Data content.
func ParseControlResponse(buf []byte) (*ControlResponse, error) {
	r := enc.NewBufferView(buf)
	typ, inner, err := readTLV(r)
	if err != nil {
		return nil, err
	}
	if typ != TypeControlResponse {
		return nil, ndn.ErrWrongType
	}

	ret := &ControlResponse{}
	seenCode := false
	for !inner.IsEOF() {
		typ, field, err := readTLV(inner)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeStatusCode:
			n, err := enc.ParseNat(field.Range(0, field.Length()))
			if err != nil {
				return nil, err
			}
			ret.StatusCode = uint64(n)
			seenCode = true
		case TypeStatusText:
			text, err := field.ReadBuf(field.Length())
			if err != nil {
				return nil, err
			}
			ret.StatusText = string(text)
		}
	}
	if !seenCode {
		return nil, enc.ErrFormat{Msg: "ControlResponse has no StatusCode"}
	}
	return ret, nil
}

// MakeControlResponse encodes a ControlResponse block (used by tests and
// producers emulating a forwarder).
func MakeControlResponse(statusCode uint64, statusText string) []byte {
	val := natTLV(TypeStatusCode, statusCode)
	if statusText != "" {
		val = append(val, tlv(TypeStatusText, []byte(statusText))...)
	}
	return tlv(TypeControlResponse, val)
}

// readTLV reads the next TLV header from the view and returns the type
// together with a view over the value.
func readTLV(r *enc.BufferView) (enc.TLNum, *enc.BufferView, error) {
	typ, err := r.ReadTLNum()
	if err != nil {
		return 0, nil, err
	}
	l, err := r.ReadTLNum()
	if err != nil {
		return 0, nil, err
	}
	inner, err := r.Delegate(int(l))
	if err != nil {
		return 0, nil, err
	}
	return typ, inner, nil
}

func tlv(typ enc.TLNum, val []byte) []byte {
	buf := make([]byte, typ.EncodingLength()+enc.TLNum(len(val)).EncodingLength()+len(val))
	p := typ.EncodeInto(buf)
	p += enc.TLNum(len(val)).EncodeInto(buf[p:])
	copy(buf[p:], val)
	return buf
}

func natTLV(typ enc.TLNum, n uint64) []byte {
	return tlv(typ, enc.Nat(n).Bytes())
}

// RibRegisterPrefix returns the command name prefix for prefix
// registration. Local faces use the localhost scope with a short
// lifetime; remote faces must use localhop.
func RibRegisterPrefix(local bool) enc.Name {
	if local {
		return mustName("/localhost/nfd/rib/register")
	}
	return mustName("/localhop/nfd/rib/register")
}

// RibUnregisterPrefix returns the command name prefix for prefix
// unregistration.
func RibUnregisterPrefix(local bool) enc.Name {
	if local {
		return mustName("/localhost/nfd/rib/unregister")
	}
	return mustName("/localhop/nfd/rib/unregister")
}

func mustName(s string) enc.Name {
	n, err := enc.NameFromStr(s)
	if err != nil {
		panic(err)
	}
	return n
}
