// Package codec defines the packet-encoding layer's contract: a pure
// (face_id, bytes) <-> (face_id, Packet) transform, deliberately kept
// to an interface plus one reference implementation. spec.md treats
// the wire encoder as an external collaborator ("TLV/string packet
// encoders... deliberately out of scope"); this package gives that
// collaborator's interface a concrete home without attempting to
// reimplement NDN-TLV (see std/ndn/spec_2022 in the teacher for what a
// production encoder looks like).
package codec

import "github.com/dacostaeric/icnfwd/internal/packet"

// Codec turns packets into wire bytes and back.
type Codec interface {
	Encode(p packet.Packet) ([]byte, error)
	Decode(b []byte) (packet.Packet, error)
}
