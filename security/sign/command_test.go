package sign_test

import (
	"crypto/sha256"
	"encoding/binary"
	"testing"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/engine"
	"github.com/ndncomm/ndn-go/ndn"
	spec "github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/security/sign"
	tu "github.com/ndncomm/ndn-go/utils/testutils"
	"github.com/stretchr/testify/require"
)

func TestCommandSignerSuffix(t *testing.T) {
	tu.SetT(t)

	timer := engine.NewDummyTimer()
	cs := sign.NewCommandSigner(timer, sign.NewSha256Signer())

	base := tu.NoErr(enc.NameFromStr("/localhost/nfd/rib/register/params"))
	signed := tu.NoErr(cs.SignName(base))

	// exactly four trailing components beyond the input
	require.Equal(t, len(base)+4, len(signed))
	require.True(t, base.IsPrefix(signed))

	// timestamp is 8 bytes, nonce is 8 bytes
	require.Equal(t, 8, len(signed.At(-4).Val))
	require.Equal(t, 8, len(signed.At(-3).Val))

	// the third component carries a SignatureInfo block
	sigType, _, err := spec.ParseSignatureInfoComponent(signed.At(-2).Val)
	require.NoError(t, err)
	require.Equal(t, ndn.SignatureDigestSha256, sigType)

	// the signature covers every earlier component
	h := sha256.New()
	for _, c := range signed.Prefix(-1) {
		h.Write(c.Bytes())
	}
	sigValue, err := spec.ParseSignatureValueComponent(signed.At(-1).Val)
	require.NoError(t, err)
	require.Equal(t, h.Sum(nil), sigValue)
}

func TestCommandSignerMonotoneTimestamps(t *testing.T) {
	tu.SetT(t)

	// the dummy clock never advances, so every timestamp must be
	// bumped past the previous one
	timer := engine.NewDummyTimer()
	cs := sign.NewCommandSigner(timer, sign.NewSha256Signer())
	base := tu.NoErr(enc.NameFromStr("/cmd"))

	last := uint64(0)
	for i := 0; i < 5; i++ {
		signed := tu.NoErr(cs.SignName(base))
		ts := binary.BigEndian.Uint64(signed.At(-4).Val)
		require.Greater(t, ts, last)
		last = ts
	}
}

func TestCommandSignerNotConfigured(t *testing.T) {
	tu.SetT(t)

	cs := sign.NewCommandSigner(engine.NewDummyTimer(), nil)
	_, err := cs.SignName(tu.NoErr(enc.NameFromStr("/cmd")))
	require.ErrorIs(t, err, ndn.ErrNotConfigured)
}
