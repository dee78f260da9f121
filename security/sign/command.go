package sign

import (
	"encoding/binary"
	"sync"

	enc "github.com/ndncomm/ndn-go/encoding"
	"github.com/ndncomm/ndn-go/ndn"
	"github.com/ndncomm/ndn-go/ndn/spec2014"
	"github.com/ndncomm/ndn-go/utils"
)

// CommandSigner produces signed command Interest names. It appends four
// components to the caller's name: a millisecond timestamp, a random
// nonce, SignatureInfo and SignatureValue.
//
// Timestamps are strictly monotonic per generator; the forwarder uses
// them for replay protection.
type CommandSigner struct {
	mutex  sync.Mutex
	timer  ndn.Timer
	signer ndn.Signer
	lastTs uint64
}

func NewCommandSigner(timer ndn.Timer, signer ndn.Signer) *CommandSigner {
	return &CommandSigner{
		timer:  timer,
		signer: signer,
	}
}

// SignName appends the timestamp, nonce and signature components.
func (cs *CommandSigner) SignName(name enc.Name) (enc.Name, error) {
	if cs.signer == nil {
		return nil, ndn.ErrNotConfigured
	}

	ts := func() uint64 {
		cs.mutex.Lock()
		defer cs.mutex.Unlock()
		ts := utils.MakeTimestamp(cs.timer.Now())
		if ts <= cs.lastTs {
			ts = cs.lastTs + 1
		}
		cs.lastTs = ts
		return ts
	}()

	tsVal := make([]byte, 8)
	binary.BigEndian.PutUint64(tsVal, ts)

	nonce := cs.timer.Nonce()

	signed := name.Append(
		enc.NewBytesComponent(tsVal),
		enc.NewBytesComponent(nonce),
		enc.NewBytesComponent(spec2014.EncodeSignatureInfo(cs.signer.Type(), cs.signer.KeyLocator())),
	)

	// The signature covers the TLV encoding of every component so far.
	covered := enc.Wire{}
	for _, c := range signed {
		covered = append(covered, c.Bytes())
	}
	sig, err := cs.signer.Sign(covered)
	if err != nil {
		return nil, err
	}

	return signed.Append(enc.NewBytesComponent(spec2014.EncodeSignatureValue(sig))), nil
}
