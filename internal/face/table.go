// Package face implements the Link Layer stage: a single shared
// UDP/IPv4 socket, a FaceTable assigning stable integer ids to remote
// peers, and the translation between raw datagrams and
// (face_id, raw_bytes) pairs. Grounded on PiCN's UDP4LinkLayer
// (single-socket, addr-to-fid model) and the teacher's
// fw/face/transport.go for the per-face bookkeeping shape (persistency
// / static flag, byte counters).
package face

import (
	"net"
	"sync"
)

// FaceID 0 is reserved for "from application/higher" (spec.md §3); the
// link layer only ever allocates ids >= 1.
const firstDynamicFaceID = 1

type faceInfo struct {
	Addr   *net.UDPAddr
	Static bool
}

// FaceTable maps remote UDP addresses to stable face ids and back. It
// is shared between the link layer (which creates a face for every
// new peer it hears from) and the autoconfig stage (which needs
// get_or_create_fid to allocate a static face when registering a
// repository's service address, spec.md §4.6) — hence the mutex,
// rather than "owned exclusively by one stage" like the ICN tables.
type FaceTable struct {
	mu      sync.RWMutex
	byAddr  map[string]uint64
	byFace  map[uint64]*faceInfo
	nextID  uint64
}

// NewFaceTable constructs an empty FaceTable.
func NewFaceTable() *FaceTable {
	return &FaceTable{
		byAddr: make(map[string]uint64),
		byFace: make(map[uint64]*faceInfo),
		nextID: firstDynamicFaceID,
	}
}

// String identifies the table for logging.
func (ft *FaceTable) String() string { return "face-table" }

// GetOrCreateFID returns the existing face id for addr, or allocates a
// new one. If the face already exists and static is true, the face is
// upgraded to static (static never reverts to dynamic).
func (ft *FaceTable) GetOrCreateFID(addr *net.UDPAddr, static bool) uint64 {
	key := addr.String()

	ft.mu.Lock()
	defer ft.mu.Unlock()

	if id, ok := ft.byAddr[key]; ok {
		if static {
			ft.byFace[id].Static = true
		}
		return id
	}

	id := ft.nextID
	ft.nextID++
	ft.byAddr[key] = id
	ft.byFace[id] = &faceInfo{Addr: addr, Static: static}
	return id
}

// Addr returns the remote address for a face id, if known.
func (ft *FaceTable) Addr(faceID uint64) (*net.UDPAddr, bool) {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	fi, ok := ft.byFace[faceID]
	if !ok {
		return nil, false
	}
	return fi.Addr, true
}

// IsStatic reports whether a face id was registered static. The link
// layer does not age or remove faces, and the ICN tables do not read
// the flag; it is exposed for management/diagnostics.
func (ft *FaceTable) IsStatic(faceID uint64) bool {
	ft.mu.RLock()
	defer ft.mu.RUnlock()
	fi, ok := ft.byFace[faceID]
	return ok && fi.Static
}

// Remove deletes a face id and its address mapping.
func (ft *FaceTable) Remove(faceID uint64) {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	if fi, ok := ft.byFace[faceID]; ok {
		delete(ft.byAddr, fi.Addr.String())
		delete(ft.byFace, faceID)
	}
}
