// Package sign provides the signers the runtime uses for Data packets
// and command Interests, plus the command-Interest generator.
package sign

import (
	"crypto/sha256"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
)

// sha256Signer signs with DigestSha256.
type sha256Signer struct{}

func (sha256Signer) Type() ndn.SigType {
	return ndn.SignatureDigestSha256
}

func (sha256Signer) KeyLocator() enc.Name {
	return nil
}

func (sha256Signer) EstimateSize() uint {
	return 32
}

func (sha256Signer) Sign(covered enc.Wire) ([]byte, error) {
	h := sha256.New()
	for _, buf := range covered {
		if _, err := h.Write(buf); err != nil {
			return nil, err
		}
	}
	return h.Sum(nil), nil
}

// NewSha256Signer creates a signer that uses DigestSha256.
func NewSha256Signer() ndn.Signer {
	return sha256Signer{}
}
