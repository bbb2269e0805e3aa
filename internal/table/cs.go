// Package table implements the three tables driven by the ICN
// forwarding stage: the Content Store (exact-match), the Pending
// Interest Table (exact-match), and the Forwarding Information Base
// (longest-prefix match). Each table wraps its mutations in a mutex so
// it can be shared with other stages (only the fw stage touches the CS
// and PIT; autoconfig reads the FIB and inserts static service routes,
// and rib.Rib.BuildFIB replaces its non-static routes), grounded on
// std/engine/basic/engine.go's fibLock/pitLock idiom and
// fw/mgmt/{cs,fib}.go's enumeration helpers.
package table

import (
	"sync"
	"time"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/packet"
)

// CsEntry is one cached Content, keyed by the exact name it was
// cached under.
type CsEntry struct {
	Content   packet.Packet
	Static    bool
	Timestamp time.Time
}

// ContentStore is an exact-match cache of Content packets, bounded by
// capacity and aged by TTL (PiCN's ContentStoreMemoryExact /
// BaseContentStore). Entries are held in a map keyed by name hash and
// keep no insertion order; eviction picks by entry timestamp.
type ContentStore struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	clock    core.Clock
	entries  map[uint64]*CsEntry
}

// NewContentStore constructs a ContentStore with the given capacity
// and TTL, using clock for aging comparisons.
func NewContentStore(capacity int, ttl time.Duration, clock core.Clock) *ContentStore {
	return &ContentStore{
		capacity: capacity,
		ttl:      ttl,
		clock:    clock,
		entries:  make(map[uint64]*CsEntry),
	}
}

// String identifies the table for logging.
func (cs *ContentStore) String() string { return "content-store" }

// Insert adds content to the store under its own name. If the store is
// at capacity, the oldest non-static entry (smallest timestamp) is
// evicted first; if every entry is static, the insert still proceeds
// (capacity is a soft bound on non-static entries).
func (cs *ContentStore) Insert(content packet.Packet, static bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.insertLocked(content, static)
}

func (cs *ContentStore) insertLocked(content packet.Packet, static bool) {
	h := content.Name.Hash()
	if len(cs.entries) >= cs.capacity {
		if _, exists := cs.entries[h]; !exists {
			cs.evictOldestLocked()
		}
	}
	cs.entries[h] = &CsEntry{
		Content:   content,
		Static:    static,
		Timestamp: cs.clock.Now(),
	}
}

func (cs *ContentStore) evictOldestLocked() {
	var oldestKey uint64
	var oldestTime time.Time
	found := false
	for k, e := range cs.entries {
		if e.Static {
			continue
		}
		if !found || e.Timestamp.Before(oldestTime) {
			oldestKey = k
			oldestTime = e.Timestamp
			found = true
		}
	}
	if found {
		delete(cs.entries, oldestKey)
	}
}

// Find returns the entry cached for name, if any, along with a
// freshness refresh performed by the caller via Touch.
func (cs *ContentStore) Find(name icn.Name) (*CsEntry, bool) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	e, ok := cs.entries[name.Hash()]
	return e, ok
}

// Touch refreshes an entry's timestamp to the current time.
func (cs *ContentStore) Touch(name icn.Name) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	if e, ok := cs.entries[name.Hash()]; ok {
		e.Timestamp = cs.clock.Now()
	}
}

// Remove deletes the entry for name, if any.
func (cs *ContentStore) Remove(name icn.Name) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.entries, name.Hash())
}

// Age evicts every non-static entry older than the configured TTL.
func (cs *ContentStore) Age() {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	now := cs.clock.Now()
	for k, e := range cs.entries {
		if e.Static {
			continue
		}
		if now.Sub(e.Timestamp) > cs.ttl {
			delete(cs.entries, k)
		}
	}
}

// Len returns the number of entries currently stored.
func (cs *ContentStore) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.entries)
}
