package sign

import (
	"crypto/hmac"
	"crypto/sha256"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
)

// hmacSigner signs with a provided HMAC key.
type hmacSigner struct {
	keyName enc.Name
	key     []byte
}

func (signer *hmacSigner) Type() ndn.SigType {
	return ndn.SignatureHmacWithSha256
}

func (signer *hmacSigner) KeyLocator() enc.Name {
	return signer.keyName
}

func (*hmacSigner) EstimateSize() uint {
	return 32
}

func (signer *hmacSigner) Sign(covered enc.Wire) ([]byte, error) {
	mac := hmac.New(sha256.New, signer.key)
	for _, buf := range covered {
		if _, err := mac.Write(buf); err != nil {
			return nil, err
		}
	}
	return mac.Sum(nil), nil
}

// NewHmacSigner creates a signer that uses HmacWithSha256.
func NewHmacSigner(keyName enc.Name, key []byte) ndn.Signer {
	return &hmacSigner{keyName, key}
}

// CheckHmacSig verifies an HMAC signature over the covered range.
func CheckHmacSig(covered enc.Wire, sigValue []byte, key []byte) bool {
	mac := hmac.New(sha256.New, key)
	for _, buf := range covered {
		if _, err := mac.Write(buf); err != nil {
			return false
		}
	}
	return hmac.Equal(mac.Sum(nil), sigValue)
}
