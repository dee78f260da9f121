// Package spec2014 implements the Interest/Data TLV wire format spoken
// by the client runtime, including the selector block used for version
// discovery. Only the fields the runtime needs are covered.
package spec2014

import (
	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
)

const (
	TypeInterest         enc.TLNum = 0x05
	TypeData             enc.TLNum = 0x06
	TypeSelectors        enc.TLNum = 0x09
	TypeNonce            enc.TLNum = 0x0a
	TypeInterestLifetime enc.TLNum = 0x0c
	TypeChildSelector    enc.TLNum = 0x11
	TypeMustBeFresh      enc.TLNum = 0x12
	TypeMetaInfo         enc.TLNum = 0x14
	TypeContent          enc.TLNum = 0x15
	TypeSignatureInfo    enc.TLNum = 0x16
	TypeSignatureValue   enc.TLNum = 0x17
	TypeContentType      enc.TLNum = 0x18
	TypeFreshnessPeriod  enc.TLNum = 0x19
	TypeFinalBlockId     enc.TLNum = 0x1a
	TypeSignatureType    enc.TLNum = 0x1b
	TypeKeyLocator       enc.TLNum = 0x1c
	TypeForwardingHint   enc.TLNum = 0x1e
	TypeDelegation       enc.TLNum = 0x1f
	TypePreference       enc.TLNum = 0x1e
)

// tlv builds one TLV block from a flattened value.
func tlv(typ enc.TLNum, val []byte) []byte {
	buf := make([]byte, typ.EncodingLength()+enc.TLNum(len(val)).EncodingLength()+len(val))
	p := typ.EncodeInto(buf)
	p += enc.TLNum(len(val)).EncodeInto(buf[p:])
	copy(buf[p:], val)
	return buf
}

// natTLV builds one TLV block holding a non-negative integer.
func natTLV(typ enc.TLNum, n uint64) []byte {
	return tlv(typ, enc.Nat(n).Bytes())
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

// EncodeSignatureInfo builds the SignatureInfo block carried either in a
// Data packet or in the signature component of a command Interest name.
func EncodeSignatureInfo(sigType ndn.SigType, keyLocator enc.Name) []byte {
	val := natTLV(TypeSignatureType, uint64(sigType))
	if len(keyLocator) > 0 {
		val = append(val, tlv(TypeKeyLocator, keyLocator.Bytes())...)
	}
	return tlv(TypeSignatureInfo, val)
}

// EncodeSignatureValue builds the SignatureValue block.
func EncodeSignatureValue(sig []byte) []byte {
	return tlv(TypeSignatureValue, sig)
}

// Signature holds the decoded signature fields of a Data packet.
type Signature struct {
	SigType    ndn.SigType
	KeyLocator enc.Name
	Value      []byte
}

// ParseSignatureInfoComponent parses a SignatureInfo block carried in a
// command-Interest name component value.
func ParseSignatureInfoComponent(buf []byte) (ndn.SigType, enc.Name, error) {
	typ, inner, err := readTLV(enc.NewBufferView(buf))
	if err != nil {
		return ndn.SignatureNone, nil, err
	}
	if typ != TypeSignatureInfo {
		return ndn.SignatureNone, nil, ndn.ErrWrongType
	}
	return parseSignatureInfo(inner)
}

// ParseSignatureValueComponent parses a SignatureValue block carried in
// a command-Interest name component value.
func ParseSignatureValueComponent(buf []byte) ([]byte, error) {
	typ, inner, err := readTLV(enc.NewBufferView(buf))
	if err != nil {
		return nil, err
	}
	if typ != TypeSignatureValue {
		return nil, ndn.ErrWrongType
	}
	return inner.ReadBuf(inner.Length())
}

func parseSignatureInfo(r *enc.BufferView) (sigType ndn.SigType, keyLocator enc.Name, err error) {
	sigType = ndn.SignatureNone
	for !r.IsEOF() {
		typ, inner, e := readTLV(r)
		if e != nil {
			return sigType, keyLocator, e
		}
		switch typ {
		case TypeSignatureType:
			n, e := enc.ParseNat(inner.Range(0, inner.Length()))
			if e != nil {
				return sigType, keyLocator, e
			}
			sigType = ndn.SigType(n)
		case TypeKeyLocator:
			keyLocator, err = inner.ReadName()
			if err != nil {
				return sigType, keyLocator, err
			}
		}
	}
	return sigType, keyLocator, nil
}
