package encoding

import (
	"strings"

	"github.com/cespare/xxhash"
)

const TypeName TLNum = 0x07

// Name is an ordered sequence of components.
type Name []Component

// NameFromStr parses a URI-like name representation, e.g. /a/b/seg=4.
func NameFromStr(s string) (Name, error) {
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Name{}, nil
	}
	parts := strings.Split(s, "/")
	ret := make(Name, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		c, err := ComponentFromStr(part)
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	sb := strings.Builder{}
	for _, c := range n {
		sb.WriteRune('/')
		c.writeTo(&sb)
	}
	return sb.String()
}

// Append returns a new name with the components appended.
// The receiver is never modified.
func (n Name) Append(rest ...Component) Name {
	ret := make(Name, 0, len(n)+len(rest))
	ret = append(ret, n...)
	ret = append(ret, rest...)
	return ret
}

// Prefix returns the first k components. Negative k drops the last |k|
// components. Out-of-range k is clamped.
func (n Name) Prefix(k int) Name {
	if k < 0 {
		k += len(n)
	}
	if k < 0 {
		k = 0
	}
	if k > len(n) {
		k = len(n)
	}
	return n[:k]
}

// At returns the i-th component. Negative i counts from the end.
// Out-of-range indices yield the invalid zero component.
func (n Name) At(i int) Component {
	if i < 0 {
		i += len(n)
	}
	if i < 0 || i >= len(n) {
		return Component{}
	}
	return n[i]
}

func (n Name) Clone() Name {
	ret := make(Name, len(n))
	for i, c := range n {
		ret[i] = c.Clone()
	}
	return ret
}

func (n Name) Equal(rhs Name) bool {
	if len(n) != len(rhs) {
		return false
	}
	for i := range n {
		if !n[i].Equal(rhs[i]) {
			return false
		}
	}
	return true
}

// IsPrefix returns whether n is a prefix of rhs (or equal to it).
func (n Name) IsPrefix(rhs Name) bool {
	if len(n) > len(rhs) {
		return false
	}
	for i := range n {
		if !n[i].Equal(rhs[i]) {
			return false
		}
	}
	return true
}

func (n Name) Compare(rhs Name) int {
	for i := 0; i < len(n) && i < len(rhs); i++ {
		if c := n[i].Compare(rhs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(n) < len(rhs):
		return -1
	case len(n) > len(rhs):
		return 1
	default:
		return 0
	}
}

// EncodingLength returns the wire size of the Name TLV.
func (n Name) EncodingLength() int {
	l := n.contentLength()
	return TypeName.EncodingLength() + TLNum(l).EncodingLength() + l
}

func (n Name) contentLength() int {
	l := 0
	for _, c := range n {
		l += c.EncodingLength()
	}
	return l
}

// EncodeInto writes the Name TLV into buf and returns the bytes written.
func (n Name) EncodeInto(buf Buffer) int {
	p := TypeName.EncodeInto(buf)
	p += TLNum(n.contentLength()).EncodeInto(buf[p:])
	for _, c := range n {
		p += c.EncodeInto(buf[p:])
	}
	return p
}

// Bytes returns the Name TLV encoding.
func (n Name) Bytes() []byte {
	buf := make([]byte, n.EncodingLength())
	n.EncodeInto(buf)
	return buf
}

// Hash returns a stable hash of the name encoding.
func (n Name) Hash() uint64 {
	return xxhash.Sum64(n.Bytes())
}

// ReadName reads a Name TLV from the view.
func (r *BufferView) ReadName() (Name, error) {
	typ, err := r.ReadTLNum()
	if err != nil {
		return nil, err
	}
	if typ != TypeName {
		return nil, ErrFormat{"not a Name TLV"}
	}
	l, err := r.ReadTLNum()
	if err != nil {
		return nil, err
	}
	inner, err := r.Delegate(int(l))
	if err != nil {
		return nil, err
	}
	ret := Name{}
	for !inner.IsEOF() {
		c, err := inner.ReadComponent()
		if err != nil {
			return nil, err
		}
		ret = append(ret, c)
	}
	return ret, nil
}

// NameFromBytes parses a Name from its TLV encoding.
func NameFromBytes(buf []byte) (Name, error) {
	return NewBufferView(buf).ReadName()
}
