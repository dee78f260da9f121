package sign

import (
	"crypto/ed25519"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
)

// ed25519Signer signs with an Ed25519 private key.
type ed25519Signer struct {
	keyName enc.Name
	key     ed25519.PrivateKey
}

func (signer *ed25519Signer) Type() ndn.SigType {
	return ndn.SignatureEd25519
}

func (signer *ed25519Signer) KeyLocator() enc.Name {
	return signer.keyName
}

func (*ed25519Signer) EstimateSize() uint {
	return ed25519.SignatureSize
}

func (signer *ed25519Signer) Sign(covered enc.Wire) ([]byte, error) {
	return ed25519.Sign(signer.key, covered.Join()), nil
}

// NewEd25519Signer creates a signer that uses an Ed25519 key.
func NewEd25519Signer(keyName enc.Name, key ed25519.PrivateKey) ndn.Signer {
	return &ed25519Signer{keyName, key}
}
