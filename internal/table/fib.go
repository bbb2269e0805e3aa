package table

import (
	"sync"

	"github.com/dacostaeric/icnfwd/internal/icn"
)

// FibEntry is one (prefix, face) route. Multiple faces may share a
// prefix (multipath); at most one entry exists per (prefix, face)
// pair.
type FibEntry struct {
	Prefix icn.Name
	FaceID uint64
	Static bool
}

type fibNode struct {
	children map[uint64]*fibNode // keyed by Component hash, one level per name component
	comp     icn.Component
	faces    map[uint64]*FibEntry // faces routed at this exact prefix
}

func newFibNode(comp icn.Component) *fibNode {
	return &fibNode{
		children: make(map[uint64]*fibNode),
		comp:     comp,
		faces:    make(map[uint64]*FibEntry),
	}
}

// ForwardingInformationBase is a prefix-match routing table: a trie
// over name components, one node per distinct prefix, so that lookup
// walks down only as far as the query name shares a known prefix.
// Grounded on std/engine/basic/engine.go's NameTrie-backed fib field
// (PrefixMatch + walk-to-parent-until-value) and PiCN's
// ForwardingInformationBaseMemoryPrefix.
type ForwardingInformationBase struct {
	mu   sync.Mutex
	root *fibNode
}

// NewForwardingInformationBase constructs an empty FIB.
func NewForwardingInformationBase() *ForwardingInformationBase {
	return &ForwardingInformationBase{root: newFibNode(nil)}
}

// String identifies the table for logging.
func (fib *ForwardingInformationBase) String() string { return "forwarding-information-base" }

// Insert adds a route for (prefix, face). Re-inserting the same
// (prefix, face) pair overwrites the static flag.
func (fib *ForwardingInformationBase) Insert(prefix icn.Name, face uint64, static bool) {
	fib.mu.Lock()
	defer fib.mu.Unlock()
	node := fib.descendCreate(prefix)
	node.faces[face] = &FibEntry{Prefix: prefix, FaceID: face, Static: static}
}

func (fib *ForwardingInformationBase) descendCreate(prefix icn.Name) *fibNode {
	node := fib.root
	for _, c := range prefix {
		h := componentHash(c)
		child, ok := node.children[h]
		if !ok {
			child = newFibNode(c)
			node.children[h] = child
		}
		node = child
	}
	return node
}

// Remove deletes every entry stored for the exact prefix.
func (fib *ForwardingInformationBase) Remove(prefix icn.Name) {
	fib.mu.Lock()
	defer fib.mu.Unlock()
	node := fib.descend(prefix)
	if node != nil {
		node.faces = make(map[uint64]*FibEntry)
	}
}

// RemoveFace deletes the single (prefix, face) entry.
func (fib *ForwardingInformationBase) RemoveFace(prefix icn.Name, face uint64) {
	fib.mu.Lock()
	defer fib.mu.Unlock()
	node := fib.descend(prefix)
	if node != nil {
		delete(node.faces, face)
	}
}

func (fib *ForwardingInformationBase) descend(prefix icn.Name) *fibNode {
	node := fib.root
	for _, c := range prefix {
		h := componentHash(c)
		child, ok := node.children[h]
		if !ok {
			return nil
		}
		node = child
	}
	return node
}

// FindLongestPrefix returns the entry whose prefix is the longest
// among all prefixes of name stored in the FIB, breaking ties at that
// length by smallest face id. Returns (nil, false) if no route
// matches (spec.md §4.1 step 3: emit Nack(NO_ROUTE)).
func (fib *ForwardingInformationBase) FindLongestPrefix(name icn.Name) (*FibEntry, bool) {
	fib.mu.Lock()
	defer fib.mu.Unlock()

	node := fib.root
	var best *FibEntry
	if e := smallestFace(node.faces); e != nil {
		best = e
	}
	for _, c := range name {
		h := componentHash(c)
		child, ok := node.children[h]
		if !ok {
			break
		}
		node = child
		if e := smallestFace(node.faces); e != nil {
			best = e
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}

func smallestFace(faces map[uint64]*FibEntry) *FibEntry {
	var best *FibEntry
	for face, e := range faces {
		if best == nil || face < best.FaceID {
			best = e
		}
	}
	return best
}

// ClearNonStatic removes every non-static entry from the FIB, leaving
// static entries (e.g. autoconfig service registrations) untouched.
// Used before a RIB recompilation replaces the dynamic routes
// wholesale (spec.md §3 FIB invariants).
func (fib *ForwardingInformationBase) ClearNonStatic() {
	fib.mu.Lock()
	defer fib.mu.Unlock()
	clearNonStatic(fib.root)
}

func clearNonStatic(node *fibNode) {
	for face, e := range node.faces {
		if !e.Static {
			delete(node.faces, face)
		}
	}
	for _, child := range node.children {
		clearNonStatic(child)
	}
}

// Entries returns every stored route, for management/diagnostics
// (e.g. the autoconfig manifest's "r:<name>" lines, spec.md §4.6).
func (fib *ForwardingInformationBase) Entries() []FibEntry {
	fib.mu.Lock()
	defer fib.mu.Unlock()
	var out []FibEntry
	collectEntries(fib.root, &out)
	return out
}

func collectEntries(node *fibNode, out *[]FibEntry) {
	for _, e := range node.faces {
		*out = append(*out, *e)
	}
	for _, child := range node.children {
		collectEntries(child, out)
	}
}

func componentHash(c icn.Component) uint64 {
	return icn.Name{c}.Hash()
}
