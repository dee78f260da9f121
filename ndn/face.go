package ndn

import (
	"time"

	enc "github.com/ndncomm/ndn-go/encoding"
)

// Face is a duplex frame-aligned byte channel to a forwarder.
// A face is exclusively owned by one engine.
type Face interface {
	// IsRunning returns true if the face is running.
	IsRunning() bool
	// IsLocal returns true if the face connects to a local forwarder.
	IsLocal() bool
	// OnPacket sets the callback for receiving whole TLV elements.
	OnPacket(onPkt func(frame []byte))
	// OnError sets the callback for errors.
	OnError(onError func(err error))
	// Open starts the face.
	Open() error
	// Close stops the face.
	Close() error
	// Send sends a whole TLV element to the face.
	Send(pkt enc.Wire) error
}

// Timer abstracts the clock and scheduled callbacks so tests can run on
// virtual time.
type Timer interface {
	// Now returns the current time.
	Now() time.Time
	// Sleep sleeps for the duration.
	Sleep(time.Duration)
	// Schedule schedules the callback after the duration and returns a
	// cancel function.
	Schedule(time.Duration, func()) func() error
	// Nonce generates a random 8-byte nonce.
	Nonce() []byte
}

// Signer signs a covered byte range on behalf of a key.
type Signer interface {
	// Type returns the signature type.
	Type() SigType
	// KeyLocator returns the certificate or key name carried in
	// SignatureInfo.
	KeyLocator() enc.Name
	// EstimateSize returns an upper bound of the signature length.
	EstimateSize() uint
	// Sign computes the signature over the covered range.
	Sign(covered enc.Wire) ([]byte, error)
}
