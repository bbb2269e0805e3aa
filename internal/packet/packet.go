// Package packet defines the tagged-union wire-independent packet
// model (Interest/Content/Nack) that every layer above the codec
// operates on, grounded on the teacher's spec_2022 sum-type packet
// handling (std/engine/basic/engine.go's onPacket dispatch) and
// PiCN's Packet/Interest/Content/Nack class hierarchy.
package packet

import (
	"fmt"

	"github.com/dacostaeric/icnfwd/internal/icn"
)

// Kind identifies which variant of the Packet union is populated.
type Kind int

const (
	KindInterest Kind = iota
	KindContent
	KindNack
)

// String renders the kind for logging.
func (k Kind) String() string {
	switch k {
	case KindInterest:
		return "Interest"
	case KindContent:
		return "Content"
	case KindNack:
		return "Nack"
	default:
		return "Unknown"
	}
}

// NackReason is why an Interest could not be satisfied.
type NackReason int

const (
	NoContent NackReason = iota
	NoRoute
	Duplicate
	CompQueueFull
	CompParamUnavailable
	CompException
)

// String renders the reason for logging. The wire codec writes the
// reason as its integer value, not as this string.
func (r NackReason) String() string {
	switch r {
	case NoContent:
		return "NO_CONTENT"
	case NoRoute:
		return "NO_ROUTE"
	case Duplicate:
		return "DUPLICATE"
	case CompQueueFull:
		return "COMP_QUEUE_FULL"
	case CompParamUnavailable:
		return "COMP_PARAM_UNAVAILABLE"
	case CompException:
		return "COMP_EXCEPTION"
	default:
		return "UNKNOWN"
	}
}

// Packet is the tagged union carried between every stage of the
// pipeline. Every packet carries a Name; Content additionally carries
// Payload; Nack additionally carries Reason and, optionally, the
// originating Interest.
type Packet struct {
	Kind Kind
	Name icn.Name

	// Content only.
	Payload []byte

	// Nack only.
	Reason   NackReason
	Interest *Packet
}

// NewInterest constructs an Interest packet for name.
func NewInterest(name icn.Name) Packet {
	return Packet{Kind: KindInterest, Name: name}
}

// NewContent constructs a Content packet for name carrying payload.
func NewContent(name icn.Name, payload []byte) Packet {
	return Packet{Kind: KindContent, Name: name, Payload: payload}
}

// NewNack constructs a Nack for the given originating interest and
// reason. The interest's name becomes the Nack's own name, matching
// PiCN's `Nack(interest.name, NackReason...)` convention.
func NewNack(interest Packet, reason NackReason) Packet {
	orig := interest
	return Packet{
		Kind:     KindNack,
		Name:     interest.Name,
		Reason:   reason,
		Interest: &orig,
	}
}

// String renders the packet for logging.
func (p Packet) String() string {
	switch p.Kind {
	case KindContent:
		return fmt.Sprintf("Content(%s, %d bytes)", p.Name, len(p.Payload))
	case KindNack:
		return fmt.Sprintf("Nack(%s, %s)", p.Name, p.Reason)
	default:
		return fmt.Sprintf("Interest(%s)", p.Name)
	}
}
