package table

import (
	"sync"
	"time"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/icn"
)

// PitEntry is one outstanding Interest, keyed by its exact name. Per
// spec.md §3, exactly one entry exists per pending name; a returning
// Content consumes it and is forwarded to every incoming face.
type PitEntry struct {
	Name          icn.Name
	IncomingFaces map[uint64]struct{}
	OutgoingFaces map[uint64]struct{}
	Timestamp     time.Time
	FromLocal     bool
}

// TimeoutEntry is one (incoming_face, original_name) pair produced by
// Age for the caller to turn into a NACK(NO_CONTENT).
type TimeoutEntry struct {
	FaceID uint64
	Name   icn.Name
}

// PendingInterestTable is an exact-match table of outstanding
// Interests, grounded on fw/table/pit-cs_test.go's basePitEntry shape
// (InRecords/OutRecords keyed by face, per-entry timestamp) simplified
// to the face-id sets spec.md calls for.
type PendingInterestTable struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   core.Clock
	entries map[uint64]*PitEntry
}

// NewPendingInterestTable constructs a PendingInterestTable with the
// given TTL, using clock for aging comparisons.
func NewPendingInterestTable(ttl time.Duration, clock core.Clock) *PendingInterestTable {
	return &PendingInterestTable{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[uint64]*PitEntry),
	}
}

// String identifies the table for logging.
func (pit *PendingInterestTable) String() string { return "pending-interest-table" }

// AddInterest creates a new PIT entry for name with a single incoming
// face, or returns the existing entry unchanged if one is already
// pending (callers should check Find first when suppression, not
// creation, is desired).
func (pit *PendingInterestTable) AddInterest(name icn.Name, incoming uint64, fromLocal bool) *PitEntry {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	h := name.Hash()
	if e, ok := pit.entries[h]; ok {
		return e
	}
	e := &PitEntry{
		Name:          name,
		IncomingFaces: map[uint64]struct{}{incoming: {}},
		OutgoingFaces: make(map[uint64]struct{}),
		Timestamp:     pit.clock.Now(),
		FromLocal:     fromLocal,
	}
	pit.entries[h] = e
	return e
}

// SetOutgoing records the face an Interest was forwarded to.
func (pit *PendingInterestTable) SetOutgoing(name icn.Name, outgoing uint64) {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	if e, ok := pit.entries[name.Hash()]; ok {
		e.OutgoingFaces[outgoing] = struct{}{}
	}
}

// Find returns the pending entry for name, if any.
func (pit *PendingInterestTable) Find(name icn.Name) (*PitEntry, bool) {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	e, ok := pit.entries[name.Hash()]
	return e, ok
}

// AppendIncoming adds face to the incoming set of the entry for name
// and refreshes its timestamp (Interest suppression: spec.md §4.1
// step 2). It is a no-op if no entry exists for name.
func (pit *PendingInterestTable) AppendIncoming(name icn.Name, face uint64) {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	if e, ok := pit.entries[name.Hash()]; ok {
		e.IncomingFaces[face] = struct{}{}
		e.Timestamp = pit.clock.Now()
	}
}

// Touch refreshes an entry's timestamp to the current time.
func (pit *PendingInterestTable) Touch(name icn.Name) {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	if e, ok := pit.entries[name.Hash()]; ok {
		e.Timestamp = pit.clock.Now()
	}
}

// Remove deletes the entry for name, if any, and returns it.
func (pit *PendingInterestTable) Remove(name icn.Name) (*PitEntry, bool) {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	h := name.Hash()
	e, ok := pit.entries[h]
	if ok {
		delete(pit.entries, h)
	}
	return e, ok
}

// Age removes every entry older than the configured TTL and returns
// one TimeoutEntry per (incoming face, name) pair that must now be
// NACKed with NO_CONTENT.
func (pit *PendingInterestTable) Age() []TimeoutEntry {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	now := pit.clock.Now()
	var out []TimeoutEntry
	for h, e := range pit.entries {
		if now.Sub(e.Timestamp) <= pit.ttl {
			continue
		}
		for face := range e.IncomingFaces {
			out = append(out, TimeoutEntry{FaceID: face, Name: e.Name})
		}
		delete(pit.entries, h)
	}
	return out
}

// Len returns the number of pending entries.
func (pit *PendingInterestTable) Len() int {
	pit.mu.Lock()
	defer pit.mu.Unlock()
	return len(pit.entries)
}
