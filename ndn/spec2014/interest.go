package spec2014

import (
	"encoding/binary"
	"time"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
	"github.com/ndncomm/ndn-go/types/optional"
)

// Interest is a request for named Data.
//
// Mutating the name or any selector invalidates the nonce; a fresh one
// is generated when the Interest is sent.
type Interest struct {
	name          enc.Name
	childSelector optional.Optional[uint64]
	mustBeFresh   bool
	nonce         optional.Optional[uint32]
	lifetime      optional.Optional[time.Duration]
	fwHint        []enc.Name
}

func NewInterest(name enc.Name) *Interest {
	return &Interest{name: name}
}

// Clone returns a deep copy of the Interest.
func (i *Interest) Clone() *Interest {
	ret := *i
	ret.name = i.name.Clone()
	ret.fwHint = append([]enc.Name(nil), i.fwHint...)
	return &ret
}

func (i *Interest) Name() enc.Name {
	return i.name
}

func (i *Interest) SetName(name enc.Name) {
	i.name = name
	i.nonce.Unset()
}

func (i *Interest) ChildSelector() optional.Optional[uint64] {
	return i.childSelector
}

func (i *Interest) SetChildSelector(v uint64) {
	i.childSelector.Set(v)
	i.nonce.Unset()
}

func (i *Interest) UnsetChildSelector() {
	i.childSelector.Unset()
	i.nonce.Unset()
}

func (i *Interest) MustBeFresh() bool {
	return i.mustBeFresh
}

func (i *Interest) SetMustBeFresh(v bool) {
	i.mustBeFresh = v
	i.nonce.Unset()
}

func (i *Interest) Nonce() optional.Optional[uint32] {
	return i.nonce
}

func (i *Interest) SetNonce(v uint32) {
	i.nonce.Set(v)
}

func (i *Interest) Lifetime() optional.Optional[time.Duration] {
	return i.lifetime
}

func (i *Interest) SetLifetime(d time.Duration) {
	i.lifetime.Set(d)
	i.nonce.Unset()
}

func (i *Interest) ForwardingHint() []enc.Name {
	return i.fwHint
}

func (i *Interest) SetForwardingHint(names []enc.Name) {
	i.fwHint = names
	i.nonce.Unset()
}

// Encode returns the Interest TLV element.
func (i *Interest) Encode() (enc.Wire, error) {
	if len(i.name) == 0 {
		return nil, ndn.ErrInvalidValue{Item: "name", Value: i.name}
	}

	val := i.name.Bytes()

	if i.childSelector.IsSet() || i.mustBeFresh {
		sel := []byte{}
		if cs, ok := i.childSelector.Get(); ok {
			sel = append(sel, natTLV(TypeChildSelector, cs)...)
		}
		if i.mustBeFresh {
			sel = append(sel, tlv(TypeMustBeFresh, nil)...)
		}
		val = append(val, tlv(TypeSelectors, sel)...)
	}

	if nonce, ok := i.nonce.Get(); ok {
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, nonce)
		val = append(val, tlv(TypeNonce, buf)...)
	}

	if lt, ok := i.lifetime.Get(); ok {
		val = append(val, natTLV(TypeInterestLifetime, uint64(lt.Milliseconds()))...)
	}

	if len(i.fwHint) > 0 {
		hint := []byte{}
		for pref, name := range i.fwHint {
			del := natTLV(TypePreference, uint64(pref))
			del = append(del, name.Bytes()...)
			hint = append(hint, tlv(TypeDelegation, del)...)
		}
		val = append(val, tlv(TypeForwardingHint, hint)...)
	}

	return enc.Wire{tlv(TypeInterest, val)}, nil
}

// ParseInterest decodes an Interest TLV element.
func ParseInterest(r *enc.BufferView) (*Interest, error) {
	typ, inner, err := readTLV(r)
	if err != nil {
		return nil, err
	}
	if typ != TypeInterest {
		return nil, ndn.ErrWrongType
	}

	ret := &Interest{}
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
		case TypeSelectors:
			for !field.IsEOF() {
				styp, sfield, err := readTLV(field)
				if err != nil {
					return nil, err
				}
				switch styp {
				case TypeChildSelector:
					n, err := enc.ParseNat(sfield.Range(0, sfield.Length()))
					if err != nil {
						return nil, err
					}
					ret.childSelector.Set(uint64(n))
				case TypeMustBeFresh:
					ret.mustBeFresh = true
				}
			}
		case TypeNonce:
			buf, err := field.ReadBuf(field.Length())
			if err != nil {
				return nil, err
			}
			if len(buf) == 4 {
				ret.nonce.Set(binary.BigEndian.Uint32(buf))
			}
		case TypeInterestLifetime:
			n, err := enc.ParseNat(field.Range(0, field.Length()))
			if err != nil {
				return nil, err
			}
			ret.lifetime.Set(time.Duration(n) * time.Millisecond)
		case TypeForwardingHint:
			for !field.IsEOF() {
				dtyp, dfield, err := readTLV(field)
				if err != nil {
					return nil, err
				}
				if dtyp != TypeDelegation {
					continue
				}
				for !dfield.IsEOF() {
					ptyp, pfield, err := readTLV(dfield)
					if err != nil {
						return nil, err
					}
					if ptyp == enc.TypeName {
						// re-parse the name block in place
						name := enc.Name{}
						for !pfield.IsEOF() {
							c, err := pfield.ReadComponent()
							if err != nil {
								return nil, err
							}
							name = append(name, c)
						}
						ret.fwHint = append(ret.fwHint, name)
					}
				}
			}
		}
	}

	return ret, nil
}
