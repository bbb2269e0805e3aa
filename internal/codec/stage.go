package codec

import (
	"context"
	"time"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/queue"
)

// recvTimeout mirrors every other stage's suspension-point timeout.
const recvTimeout = 500 * time.Millisecond

// Stage is the Packet Encoding Layer: it sits between the Link Layer
// (raw bytes) and the ICN Layer (decoded Packets), translating in both
// directions with a Codec. Grounded on spec.md §2's stage list and
// std/engine/basic/engine.go's symmetric encode-on-send/decode-on-receive
// shape around its wire codec.
type Stage struct {
	codec Codec

	rawIn  *queue.Queue[queue.RawEnvelope] // from the link layer
	rawOut *queue.Queue[queue.RawEnvelope] // to the link layer
	pktIn  *queue.Queue[queue.Envelope]    // from the ICN layer
	pktOut *queue.Queue[queue.Envelope]    // to the ICN layer

	cancel context.CancelFunc
	done   chan struct{}
}

// New constructs a codec Stage wiring codec between the given raw
// (link-facing) and packet (ICN-facing) queue pairs.
func New(codec Codec, rawIn, rawOut *queue.Queue[queue.RawEnvelope], pktIn, pktOut *queue.Queue[queue.Envelope]) *Stage {
	return &Stage{codec: codec, rawIn: rawIn, rawOut: rawOut, pktIn: pktIn, pktOut: pktOut}
}

// String identifies the stage for logging.
func (s *Stage) String() string { return "packet-encoding-layer" }

// Run starts the decode and encode worker goroutines.
func (s *Stage) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		doneCh := make(chan struct{}, 2)
		go func() { s.decodeLoop(ctx); doneCh <- struct{}{} }()
		go func() { s.encodeLoop(ctx); doneCh <- struct{}{} }()
		<-doneCh
		<-doneCh
	}()
}

// Stop cancels the stage's context and waits for both loops to exit.
func (s *Stage) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

func (s *Stage) decodeLoop(ctx context.Context) {
	for {
		raw, ok := s.rawIn.Recv(ctx, recvTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		p, err := s.codec.Decode(raw.Data)
		if err != nil {
			core.Log.Warn(s, "dropping malformed packet", "face", raw.FaceID, "err", err)
			continue
		}
		s.pktOut.TrySend(queue.Envelope{FaceID: raw.FaceID, Packet: p})
	}
}

func (s *Stage) encodeLoop(ctx context.Context) {
	for {
		env, ok := s.pktIn.Recv(ctx, recvTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		data, err := s.codec.Encode(env.Packet)
		if err != nil {
			core.Log.Warn(s, "dropping unencodable packet", "face", env.FaceID, "err", err)
			continue
		}
		s.rawOut.TrySend(queue.RawEnvelope{FaceID: env.FaceID, Data: data})
	}
}
