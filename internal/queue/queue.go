// Package queue provides the bounded FIFO message-passing primitive
// that connects pipeline stages. Source uses OS-backed
// multiprocessing queues between workers running as separate
// processes; in a single-address-space Go implementation the
// equivalent is a buffered channel between goroutines (design note:
// "Multi-process queues -> message-passing").
package queue

import (
	"context"
	"time"

	"github.com/dacostaeric/icnfwd/internal/packet"
)

// Envelope is the (face_id, packet) pair passed between stages,
// preserved exactly as it crosses a stage that does not care about it
// (e.g. the autoconfig pass-through rule, spec.md §4.8).
type Envelope struct {
	FaceID uint64
	Packet packet.Packet
}

// LocalFaceID is the reserved face id meaning "from/to the
// application" rather than a remote link-layer peer.
const LocalFaceID uint64 = 0

// RawEnvelope is the (face_id, bytes) pair that crosses the boundary
// between the Link Layer and the Packet Encoding Layer, before a Codec
// has turned the bytes into a Packet (or after one has turned a Packet
// back into bytes).
type RawEnvelope struct {
	FaceID uint64
	Data   []byte
}

// Queue is a bounded multi-producer/single-consumer FIFO of T. Reads
// support a timeout so a consumer can interleave periodic work (aging
// ticks) with blocking reads, per the concurrency model's "suspension
// points" rule.
type Queue[T any] struct {
	ch chan T
}

// New returns a Queue with the given buffer capacity.
func New[T any](capacity int) *Queue[T] {
	return &Queue[T]{ch: make(chan T, capacity)}
}

// Send enqueues v, blocking if the queue is full or ctx is done.
func (q *Queue[T]) Send(ctx context.Context, v T) error {
	select {
	case q.ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend enqueues v without blocking; it returns false if the queue
// is full.
func (q *Queue[T]) TrySend(v T) bool {
	select {
	case q.ch <- v:
		return true
	default:
		return false
	}
}

// Recv dequeues the next value, waiting up to timeout. ok is false if
// the timeout elapsed or ctx was cancelled before anything arrived.
func (q *Queue[T]) Recv(ctx context.Context, timeout time.Duration) (v T, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case v = <-q.ch:
		return v, true
	case <-timer.C:
		return v, false
	case <-ctx.Done():
		return v, false
	}
}

// Len reports the number of values currently buffered.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
