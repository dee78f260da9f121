// Package ndn defines the interfaces and constants shared by the
// client runtime: the transport face contract, timers, signers and the
// error kinds surfaced to applications.
package ndn

import "time"

// MaxNDNPacketSize is the maximum allowed size of a top-level TLV element.
// The element reader never allocates past it, and the engine rejects
// larger sends.
const MaxNDNPacketSize = 8800

// DefaultInterestLifetime applies when an Interest has no lifetime set.
const DefaultInterestLifetime = 4 * time.Second

// SigType represents the type of signature.
type SigType int

const (
	SignatureNone           SigType = -1
	SignatureDigestSha256   SigType = 0
	SignatureSha256WithRsa  SigType = 1
	SignatureHmacWithSha256 SigType = 4
	SignatureEd25519        SigType = 5
)

func (t SigType) String() string {
	switch t {
	case SignatureNone:
		return "None"
	case SignatureDigestSha256:
		return "DigestSha256"
	case SignatureSha256WithRsa:
		return "Sha256WithRsa"
	case SignatureHmacWithSha256:
		return "HmacWithSha256"
	case SignatureEd25519:
		return "Ed25519"
	default:
		return "Unknown"
	}
}
