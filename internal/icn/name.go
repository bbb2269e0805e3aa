package icn

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Name is an ordered, immutable-once-constructed sequence of
// components. Treat a Name value as read-only; use the constructors
// below (which always copy) to build new ones instead of mutating a
// slice obtained from an existing Name.
type Name []Component

// NameFromString splits a "/a/b/c" string into a Name. A leading "/"
// is optional; empty components (from "//" or a trailing "/") are
// dropped, matching the teacher's forgiving URI-style name parsing.
func NameFromString(s string) Name {
	s = strings.TrimPrefix(s, "/")
	if s == "" {
		return Name{}
	}
	parts := strings.Split(s, "/")
	n := make(Name, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		n = append(n, ComponentFromString(p))
	}
	return n
}

// String renders the name as "/a/b/c", or "/" for the empty name.
func (n Name) String() string {
	if len(n) == 0 {
		return "/"
	}
	var sb strings.Builder
	for _, c := range n {
		sb.WriteByte('/')
		sb.WriteString(c.String())
	}
	return sb.String()
}

// Len returns the number of components.
func (n Name) Len() int {
	return len(n)
}

// Equal reports componentwise equality.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether n is a prefix of o: |n| <= |o| and every
// component of n equals the corresponding component of o.
func (n Name) IsPrefixOf(o Name) bool {
	if len(n) > len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// Append returns a new Name with rest appended; n and rest are not
// mutated.
func (n Name) Append(rest ...Component) Name {
	out := make(Name, 0, len(n)+len(rest))
	out = append(out, n...)
	out = append(out, rest...)
	return out
}

// Slice returns a new Name holding components [from:to), copying so
// the result does not alias n's backing array.
func (n Name) Slice(from, to int) Name {
	out := make(Name, to-from)
	copy(out, n[from:to])
	return out
}

// Clone returns a deep copy of the name.
func (n Name) Clone() Name {
	out := make(Name, len(n))
	for i, c := range n {
		out[i] = c.Clone()
	}
	return out
}

// Hash returns an xxhash digest of the name suitable as a map key for
// the exact-match CS/PIT tables, grounded on the teacher's use of
// cespare/xxhash for Component/Name hashing (std/encoding/component.go).
func (n Name) Hash() uint64 {
	d := xxhash.New()
	for _, c := range n {
		c.hashInto(d)
	}
	return d.Sum64()
}
