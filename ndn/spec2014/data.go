package spec2014

import (
	"time"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
	"github.com/ndncomm/ndn-go/types/optional"
)

// DataConfig carries the MetaInfo fields of a Data packet.
type DataConfig struct {
	ContentType  optional.Optional[uint64]
	Freshness    optional.Optional[time.Duration]
	FinalBlockID optional.Optional[enc.Component]
}

// Data is a named content packet.
type Data struct {
	name         enc.Name
	contentType  optional.Optional[uint64]
	freshness    optional.Optional[time.Duration]
	finalBlockID optional.Optional[enc.Component]
	content      enc.Wire
	signature    Signature
}

func NewData(name enc.Name, config *DataConfig, content enc.Wire) *Data {
	d := &Data{
		name:      name,
		content:   content,
		signature: Signature{SigType: ndn.SignatureNone},
	}
	if config != nil {
		d.contentType = config.ContentType
		d.freshness = config.Freshness
		d.finalBlockID = config.FinalBlockID
	}
	return d
}

func (d *Data) Name() enc.Name {
	return d.name
}

func (d *Data) Content() enc.Wire {
	return d.content
}

func (d *Data) ContentType() optional.Optional[uint64] {
	return d.contentType
}

func (d *Data) Freshness() optional.Optional[time.Duration] {
	return d.freshness
}

func (d *Data) FinalBlockID() optional.Optional[enc.Component] {
	return d.finalBlockID
}

func (d *Data) Signature() Signature {
	return d.signature
}

// Encode signs and encodes the Data element. A nil signer produces an
// unsigned packet: no SignatureInfo or SignatureValue block is written,
// and Signature() reports SignatureNone.
func (d *Data) Encode(signer ndn.Signer) (enc.Wire, error) {
	if len(d.name) == 0 {
		return nil, ndn.ErrInvalidValue{Item: "name", Value: d.name}
	}

	val := d.name.Bytes()

	meta := []byte{}
	if ct, ok := d.contentType.Get(); ok {
		meta = append(meta, natTLV(TypeContentType, ct)...)
	}
	if fp, ok := d.freshness.Get(); ok {
		meta = append(meta, natTLV(TypeFreshnessPeriod, uint64(fp.Milliseconds()))...)
	}
	if fb, ok := d.finalBlockID.Get(); ok {
		meta = append(meta, tlv(TypeFinalBlockId, fb.Bytes())...)
	}
	val = append(val, tlv(TypeMetaInfo, meta)...)

	val = append(val, tlv(TypeContent, d.content.Join())...)

	// unsigned packets omit the signature blocks entirely
	if signer != nil {
		sigType := signer.Type()
		keyLocator := signer.KeyLocator()
		val = append(val, EncodeSignatureInfo(sigType, keyLocator)...)

		sigValue, err := signer.Sign(enc.Wire{val})
		if err != nil {
			return nil, err
		}
		d.signature = Signature{SigType: sigType, KeyLocator: keyLocator, Value: sigValue}
		val = append(val, EncodeSignatureValue(sigValue)...)
	} else {
		d.signature = Signature{SigType: ndn.SignatureNone}
	}

	return enc.Wire{tlv(TypeData, val)}, nil
}

// ParseData decodes a Data TLV element.
func ParseData(r *enc.BufferView) (*Data, error) {
	typ, inner, err := readTLV(r)
	if err != nil {
		return nil, err
	}
	if typ != TypeData {
		return nil, ndn.ErrWrongType
	}

	ret := &Data{signature: Signature{SigType: ndn.SignatureNone}}
	ret.name, err = inner.ReadName()
	if err != nil {
		return nil, err
	}

	for !inner.IsEOF() {
		typ, field, err := readTLV(inner)
		if err != nil {
			return nil, err
		}
		switch typ {
		case TypeMetaInfo:
			for !field.IsEOF() {
				mtyp, mfield, err := readTLV(field)
				if err != nil {
					return nil, err
				}
				switch mtyp {
				case TypeContentType:
					n, err := enc.ParseNat(mfield.Range(0, mfield.Length()))
					if err != nil {
						return nil, err
					}
					ret.contentType.Set(uint64(n))
				case TypeFreshnessPeriod:
					n, err := enc.ParseNat(mfield.Range(0, mfield.Length()))
					if err != nil {
						return nil, err
					}
					ret.freshness.Set(time.Duration(n) * time.Millisecond)
				case TypeFinalBlockId:
					c, err := mfield.ReadComponent()
					if err != nil {
						return nil, err
					}
					ret.finalBlockID.Set(c)
				}
			}
		case TypeContent:
			buf, err := field.ReadBuf(field.Length())
			if err != nil {
				return nil, err
			}
			ret.content = enc.Wire{buf}
		case TypeSignatureInfo:
			ret.signature.SigType, ret.signature.KeyLocator, err = parseSignatureInfo(field)
			if err != nil {
				return nil, err
			}
		case TypeSignatureValue:
			buf, err := field.ReadBuf(field.Length())
			if err != nil {
				return nil, err
			}
			ret.signature.Value = buf
		}
	}

	return ret, nil
}
