// Package icn implements the name model shared by every layer of the
// forwarder: an ordered sequence of opaque byte-string components,
// comparable for equality and prefix-of, immutable once constructed.
package icn

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

// Component is one opaque byte-string segment of a Name. Components
// are raw bytes: the autoconfig manifest format happens to be UTF-8
// text, but names themselves must not assume UTF-8 anywhere else (see
// the design notes on name component bytes vs strings).
type Component []byte

// ComponentFromString wraps a Go string as a Component without copying
// interpretation onto it beyond UTF-8 byte layout.
func ComponentFromString(s string) Component {
	return Component(s)
}

// String renders the component for logging/URIs. Non-printable bytes
// are not escaped; this is a diagnostic form, not a wire format.
func (c Component) String() string {
	return string(c)
}

// Equal reports whether two components hold the same bytes.
func (c Component) Equal(o Component) bool {
	return bytes.Equal(c, o)
}

// Compare orders components by byte value, for deterministic
// tie-breaking where needed.
func (c Component) Compare(o Component) int {
	return bytes.Compare(c, o)
}

// Clone returns a copy of the component that does not alias c's
// backing array.
func (c Component) Clone() Component {
	out := make(Component, len(c))
	copy(out, c)
	return out
}

// hashInto writes the component's hash contribution into the running
// xxhash digest used by Name.Hash.
func (c Component) hashInto(d *xxhash.Digest) {
	_, _ = d.Write(c)
	_, _ = d.Write([]byte{0}) // separator so ("ab","c") != ("a","bc")
}
