// Package fw implements the ICN Forwarding Stage: the core
// CS/PIT/FIB state machine that consumes (face_id, Packet) envelopes
// from below (and optionally above) and drives the content-centric
// forwarding algorithm. Grounded on std/engine/basic/engine.go's
// onInterest/onDataMatch/onNack dispatch and PiCN's
// ICNForwarder/BasicICNLayer fall-through rules.
package fw

import (
	"context"
	"time"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/packet"
	"github.com/dacostaeric/icnfwd/internal/queue"
	"github.com/dacostaeric/icnfwd/internal/table"
)

// recvTimeout bounds how long a single Recv waits, so each drain
// goroutine re-checks for cancellation at least that often; aging runs
// on its own ticker goroutine (ageLoop) (spec.md §5 "Suspension points").
const recvTimeout = 500 * time.Millisecond

// Stage is the ICN Forwarding Stage: owns the CS and PIT and drives
// them, together with the FIB, from the two envelope queues. The FIB
// is shared: the autoconfig server inserts static service routes into
// it and rib.Rib.BuildFIB replaces its non-static routes.
type Stage struct {
	cs  *table.ContentStore
	pit *table.PendingInterestTable
	fib *table.ForwardingInformationBase

	clock core.Clock

	lowerIn  *queue.Queue[queue.Envelope]
	lowerOut *queue.Queue[queue.Envelope]
	// higherIn/higherOut carry traffic to/from the application
	// (local face, queue.LocalFaceID). Both nil disables local
	// delivery entirely (spec.md §4.1 "when configured for
	// application delivery").
	higherIn  *queue.Queue[queue.Envelope]
	higherOut *queue.Queue[queue.Envelope]

	ageInterval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a forwarding Stage over the given tables and queues.
func New(
	cs *table.ContentStore,
	pit *table.PendingInterestTable,
	fib *table.ForwardingInformationBase,
	clock core.Clock,
	lowerIn, lowerOut *queue.Queue[queue.Envelope],
	higherIn, higherOut *queue.Queue[queue.Envelope],
	ageInterval time.Duration,
) *Stage {
	return &Stage{
		cs: cs, pit: pit, fib: fib, clock: clock,
		lowerIn: lowerIn, lowerOut: lowerOut,
		higherIn: higherIn, higherOut: higherOut,
		ageInterval: ageInterval,
	}
}

// String identifies the stage for logging.
func (s *Stage) String() string { return "icn-forwarding-stage" }

// Run starts the worker goroutines: one draining lowerIn, one draining
// higherIn (if configured), and one driving the aging ticker.
func (s *Stage) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	var workers int
	workers++ // lower
	if s.higherIn != nil {
		workers++
	}
	workers++ // aging

	go func() {
		defer close(s.done)
		doneCh := make(chan struct{}, workers)
		go func() { s.drain(ctx, s.lowerIn, false); doneCh <- struct{}{} }()
		if s.higherIn != nil {
			go func() { s.drain(ctx, s.higherIn, true); doneCh <- struct{}{} }()
		}
		go func() { s.ageLoop(ctx); doneCh <- struct{}{} }()
		for i := 0; i < workers; i++ {
			<-doneCh
		}
	}()
}

// Stop cancels the stage's context and waits for its workers to exit.
func (s *Stage) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

func (s *Stage) drain(ctx context.Context, in *queue.Queue[queue.Envelope], fromLocal bool) {
	for {
		env, ok := in.Recv(ctx, recvTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		s.handle(env, fromLocal)
	}
}

func (s *Stage) ageLoop(ctx context.Context) {
	ticker := time.NewTicker(s.ageInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.age()
		}
	}
}

func (s *Stage) handle(env queue.Envelope, fromLocal bool) {
	switch env.Packet.Kind {
	case packet.KindInterest:
		s.handleInterest(env.FaceID, env.Packet, fromLocal)
	case packet.KindContent:
		s.handleContent(env.FaceID, env.Packet)
	case packet.KindNack:
		s.handleNack(env.FaceID, env.Packet)
	default:
		core.Log.Warn(s, "dropping packet of unknown kind", "face", env.FaceID)
	}
}

// handleInterest implements spec.md §4.1's four-step Interest
// algorithm, identically whether the Interest arrived from a lower
// face or from the application (fromLocal only changes where the
// eventual reply is routed and what gets recorded in the PIT entry).
func (s *Stage) handleInterest(face uint64, interest packet.Packet, fromLocal bool) {
	name := interest.Name

	if entry, ok := s.cs.Find(name); ok {
		s.cs.Touch(name)
		s.reply(face, entry.Content, fromLocal)
		return
	}

	if _, ok := s.pit.Find(name); ok {
		s.pit.AppendIncoming(name, face)
		return
	}

	route, ok := s.fib.FindLongestPrefix(name)
	if !ok {
		nack := packet.NewNack(interest, packet.NoRoute)
		s.reply(face, nack, fromLocal)
		return
	}

	s.pit.AddInterest(name, face, fromLocal)
	s.pit.SetOutgoing(name, route.FaceID)
	s.sendDown(route.FaceID, interest)
}

// handleContent implements spec.md §4.1's Content algorithm: PIT
// lookup, fan-out to every incoming face, CS insertion, PIT removal.
func (s *Stage) handleContent(face uint64, content packet.Packet) {
	entry, ok := s.pit.Remove(content.Name)
	if !ok {
		core.Log.Debug(s, "dropping unsolicited content", "name", content.Name.String())
		return
	}
	for incoming := range entry.IncomingFaces {
		s.dispatch(incoming, content)
	}
	s.cs.Insert(content, false)
}

// handleNack implements spec.md §4.1's Nack algorithm: propagate to
// every incoming face with the original Interest preserved, then
// remove the PIT entry.
func (s *Stage) handleNack(face uint64, nack packet.Packet) {
	name := nack.Name
	if nack.Interest != nil {
		name = nack.Interest.Name
	}
	entry, ok := s.pit.Remove(name)
	if !ok {
		core.Log.Debug(s, "dropping nack for unknown interest", "name", name.String())
		return
	}
	for incoming := range entry.IncomingFaces {
		s.dispatch(incoming, nack)
	}
}

// age runs the periodic CS/PIT sweep (spec.md §4.1 "Aging"):
// expired CS entries are simply dropped, expired PIT entries each
// produce a NACK(NO_CONTENT) to every incoming face.
func (s *Stage) age() {
	s.cs.Age()
	for _, timeout := range s.pit.Age() {
		nack := packet.NewNack(packet.NewInterest(timeout.Name), packet.NoContent)
		s.dispatch(timeout.FaceID, nack)
	}
}

// dispatch sends p to face, to the higher queue if face is the local
// marker, otherwise to the lower queue — the routing rule used by
// both Content fan-out and Nack propagation.
func (s *Stage) dispatch(face uint64, p packet.Packet) {
	if face == queue.LocalFaceID {
		if s.higherOut != nil {
			s.higherOut.TrySend(queue.Envelope{FaceID: face, Packet: p})
		}
		return
	}
	s.lowerOut.TrySend(queue.Envelope{FaceID: face, Packet: p})
}

// reply sends a direct response (CS hit or NACK(NO_ROUTE)) back to the
// face that asked, honoring fromLocal exactly like dispatch does for
// PIT-satisfied replies.
func (s *Stage) reply(face uint64, p packet.Packet, fromLocal bool) {
	if fromLocal {
		if s.higherOut != nil {
			s.higherOut.TrySend(queue.Envelope{FaceID: face, Packet: p})
		}
		return
	}
	s.lowerOut.TrySend(queue.Envelope{FaceID: face, Packet: p})
}

func (s *Stage) sendDown(face uint64, p packet.Packet) {
	s.lowerOut.TrySend(queue.Envelope{FaceID: face, Packet: p})
}
