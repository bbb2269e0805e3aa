// Package rib implements the Routing Information Base: a prefix tree
// of learned distance-vector routes that ages out stale entries and
// compiles itself into a longest-prefix-minimal set of FIB routes.
// Grounded on the original PiCN TreeRoutingInformationBase's
// _RIBTreeNode (insert/collapse/ageing) and the teacher's
// dv/table/prefix_table.go (map-of-children-by-component node shape,
// dirty-tracked republish idiom).
package rib

import (
	"time"

	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/optional"
)

// routeEntry is one face's distance-vector entry at a tree node: a
// distance and an optional absolute expiry. No expiry (None) means
// the route never ages out on its own.
type routeEntry struct {
	Distance uint64
	Timeout  optional.Optional[time.Time]
}

// node is one component of a spelled-out name on the path from the
// tree root. A node may have children (longer names continue below)
// and its own distance vector (the exact name at this node is itself
// a destination) simultaneously.
type node struct {
	parent   *node
	children map[uint64]*node
	comp     icn.Component // nil at the root
	dv       map[uint64]routeEntry
}

func newNode(comp icn.Component) *node {
	return &node{
		children: make(map[uint64]*node),
		comp:     comp,
		dv:       make(map[uint64]routeEntry),
	}
}

func childKey(c icn.Component) uint64 {
	return icn.Name{c}.Hash()
}

// insert descends from the root, creating child nodes for any
// component not already present, then sets the leaf's distance-vector
// entry for face. May only be called on the root.
func (n *node) insert(name icn.Name, face uint64, distance uint64, timeout optional.Optional[time.Time]) {
	cur := n
	for _, c := range name {
		k := childKey(c)
		child, ok := cur.children[k]
		if !ok {
			child = newNode(c)
			child.parent = cur
			cur.children[k] = child
		}
		cur = child
	}
	cur.dv[face] = routeEntry{Distance: distance, Timeout: timeout}
}

// age removes distance-vector entries whose timeout has passed,
// recursing into children first so a grandchild's pruning can cascade
// into its parent becoming empty in the same pass. A non-root node
// left with no children and an empty distance vector unlinks itself
// from its parent.
func (n *node) age(now time.Time) {
	for _, child := range snapshotChildren(n) {
		child.age(now)
	}
	for face, e := range n.dv {
		if t, ok := e.Timeout.Get(); ok && !t.After(now) {
			delete(n.dv, face)
		}
	}
	if n.parent != nil && len(n.children) == 0 && len(n.dv) == 0 {
		for k, c := range n.parent.children {
			if c == n {
				delete(n.parent.children, k)
				break
			}
		}
		n.parent = nil
	}
}

func snapshotChildren(n *node) []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	return out
}

// collapsed is one candidate (or final) route produced by collapse,
// with Name relative to the node that produced it; callers prepend
// ancestor components as they unwind the recursion.
type collapsed struct {
	name     icn.Name
	face     uint64
	distance uint64
	timeout  optional.Optional[time.Time]
}

// collapse implements the RIB->FIB aggregation rule (spec.md §4.5):
// recursively collapse children, prepend this node's own component,
// fold in this node's own distance vector, then — if the combined
// candidate set routes to exactly one face across more than one entry
// — collapse it to a single aggregate route for this node's prefix.
func (n *node) collapse(shortestOnly bool) []collapsed {
	var own icn.Name
	if n.comp != nil {
		own = icn.Name{n.comp}
	}

	if len(n.children) == 0 {
		if len(n.dv) == 0 {
			return nil
		}
		return n.ownEntries(shortestOnly, own)
	}

	var chRes []collapsed
	for _, child := range n.children {
		chRes = append(chRes, child.collapse(shortestOnly)...)
	}
	if n.comp != nil {
		for i := range chRes {
			chRes[i].name = icn.Name{n.comp}.Append(chRes[i].name...)
		}
	}
	if len(n.dv) > 0 {
		chRes = append(chRes, n.ownEntries(shortestOnly, own)...)
	}

	faces := map[uint64]bool{}
	for _, c := range chRes {
		faces[c.face] = true
	}
	if len(faces) == 1 && len(chRes) > 1 {
		var sf uint64
		for f := range faces {
			sf = f
		}
		best := chRes[0]
		best.face = sf
		first := true
		for _, c := range chRes {
			if c.face != sf {
				continue
			}
			if first || c.distance < best.distance {
				best.distance = c.distance
				best.timeout = c.timeout
				first = false
			}
		}
		best.name = own
		return []collapsed{best}
	}
	return chRes
}

func (n *node) ownEntries(shortestOnly bool, own icn.Name) []collapsed {
	if shortestOnly {
		face, e := n.bestEntry()
		return []collapsed{{name: own, face: face, distance: e.Distance, timeout: e.Timeout}}
	}
	out := make([]collapsed, 0, len(n.dv))
	for face, e := range n.dv {
		out = append(out, collapsed{name: own, face: face, distance: e.Distance, timeout: e.Timeout})
	}
	return out
}

// bestEntry returns the face with the minimal distance, tie-broken by
// smallest face id.
func (n *node) bestEntry() (uint64, routeEntry) {
	var bestFace uint64
	var bestEntry routeEntry
	first := true
	for face, e := range n.dv {
		if first || e.Distance < bestEntry.Distance ||
			(e.Distance == bestEntry.Distance && face < bestFace) {
			bestFace, bestEntry = face, e
			first = false
		}
	}
	return bestFace, bestEntry
}
