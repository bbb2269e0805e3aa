package rib

import (
	"sync"
	"time"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/optional"
	"github.com/dacostaeric/icnfwd/internal/table"
)

// Route is one compiled (name, face, distance, timeout) tuple produced
// by Collapse, ready to become a FIB entry.
type Route struct {
	Name     icn.Name
	FaceID   uint64
	Distance uint64
	Timeout  optional.Optional[time.Time]
}

// Rib is the synchronized, top-level Routing Information Base: a tree
// of learned routes that periodically ages and compiles into the FIB.
// Owned exclusively by the routing stage (spec.md §3 "Ownership").
type Rib struct {
	mu            sync.Mutex
	root          *node
	shortestOnly  bool
	clock         core.Clock
}

// NewRib constructs an empty Rib. When shortestOnly is true, Collapse
// keeps only the lowest-distance face per destination; otherwise every
// known face is retained as a candidate route.
func NewRib(shortestOnly bool, clock core.Clock) *Rib {
	return &Rib{
		root:         newNode(nil),
		shortestOnly: shortestOnly,
		clock:        clock,
	}
}

// String identifies the table for logging.
func (r *Rib) String() string { return "routing-information-base" }

// Insert records a route to name via face at the given distance,
// expiring at timeout (None for a route that never times out on its
// own — still subject to eviction if overwritten).
func (r *Rib) Insert(name icn.Name, face uint64, distance uint64, timeout optional.Optional[time.Time]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root.insert(name, face, distance, timeout)
}

// InsertWithTTL is a convenience wrapper computing an absolute timeout
// ttl from now.
func (r *Rib) InsertWithTTL(name icn.Name, face uint64, distance uint64, ttl time.Duration) {
	r.Insert(name, face, distance, optional.Some(r.clock.Now().Add(ttl)))
}

// Age removes every distance-vector entry whose timeout has passed and
// prunes any resulting empty leaf nodes, cascading upward.
func (r *Rib) Age() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.root.age(r.clock.Now())
}

// Collapse returns the routes represented by the tree, aggregated per
// spec.md §4.5: a subtree whose candidate routes all use one face
// becomes a single route at the subtree's prefix. A subtree that mixes
// faces is not aggregated, so its own route can still be a strict
// prefix of a child route on the same face (e.g. /a and /a/b via face
// 1 alongside /a/c via face 2).
func (r *Rib) Collapse() []Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw := r.root.collapse(r.shortestOnly)
	out := make([]Route, 0, len(raw))
	for _, c := range raw {
		out = append(out, Route{
			Name:     c.name,
			FaceID:   c.face,
			Distance: c.distance,
			Timeout:  c.timeout,
		})
	}
	return out
}

// BuildFIB clears every non-static entry from fib and replaces it with
// the current Collapse() result (spec.md §4.5 "Build FIB"). Static
// entries (e.g. autoconfig service registrations) are left untouched.
func (r *Rib) BuildFIB(fib *table.ForwardingInformationBase) {
	routes := r.Collapse()
	fib.ClearNonStatic()
	for _, route := range routes {
		fib.Insert(route.Name, route.FaceID, false)
	}
}
