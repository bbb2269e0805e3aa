package face

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/queue"
)

// recvBufSize bounds a single UDP datagram; NDN/ICN packets over a
// text codec stay well under typical path MTUs for this exercise.
const recvBufSize = 65535

// recvTimeout bounds how long the send-side worker waits for the next
// outgoing RawEnvelope before checking for shutdown, mirroring the
// "suspension point" idiom used by every other stage.
const recvTimeout = 500 * time.Millisecond

// UDPLink is the Link Layer stage: one shared UDP/IPv4 socket, a
// FaceTable translating peer addresses to face ids, and a broadcast
// pseudo-face used by the autoconfig client to solicit forwarders.
// Grounded on PiCN's UDP4LinkLayer (single socket, recvfrom loop,
// SO_BROADCAST enabled once at startup) rather than the teacher's
// fw/face/unicast-udp-transport.go (one goroutine+socket per peer),
// since spec.md §6 pins a single shared UDP/IPv4 socket.
type UDPLink struct {
	conn *net.UDPConn

	faces           *FaceTable
	broadcastAddr   *net.UDPAddr
	broadcastFaceID uint64

	up   *queue.Queue[queue.RawEnvelope] // decoded by the codec layer
	down *queue.Queue[queue.RawEnvelope] // filled by the codec layer

	running atomic.Bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// NewUDPLink binds a UDP/IPv4 socket at bindAddr:port, enables
// SO_BROADCAST once on it, and registers broadcastAddr:port as the
// reserved broadcast face (spec.md §8 scenario 2: "the first packet
// enqueued to the link is (broadcast_face, Interest(...))").
func NewUDPLink(bindAddr string, port uint16, broadcastAddr string, faces *FaceTable, up, down *queue.Queue[queue.RawEnvelope]) (*UDPLink, error) {
	laddr := &net.UDPAddr{IP: net.ParseIP(bindAddr), Port: int(port)}
	conn, err := net.ListenUDP("udp4", laddr)
	if err != nil {
		return nil, fmt.Errorf("face: listen udp4 %s:%d: %w", bindAddr, port, err)
	}
	if err := enableBroadcast(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("face: enable SO_BROADCAST: %w", err)
	}

	baddr := &net.UDPAddr{IP: net.ParseIP(broadcastAddr), Port: int(port)}
	bfid := faces.GetOrCreateFID(baddr, true)

	return &UDPLink{
		conn:            conn,
		faces:           faces,
		broadcastAddr:   baddr,
		broadcastFaceID: bfid,
		up:              up,
		down:            down,
	}, nil
}

// enableBroadcast performs the one-time setsockopt(SOL_SOCKET,
// SO_BROADCAST, 1) before the worker loops begin consuming, matching
// PiCN's AutoconfigServerLayer socket setup.
func enableBroadcast(conn *net.UDPConn) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	if err := raw.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	}); err != nil {
		return err
	}
	return sockErr
}

// BroadcastFaceID returns the reserved face id representing "send to
// the broadcast address" (spec.md §4.7 autoconfig client solicitation).
func (l *UDPLink) BroadcastFaceID() uint64 { return l.broadcastFaceID }

// String identifies the stage for logging.
func (l *UDPLink) String() string { return "link-layer" }

// Run starts the receive and send worker goroutines.
func (l *UDPLink) Run(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	l.cancel = cancel

	l.wg.Add(2)
	go l.recvLoop(ctx)
	go l.sendLoop(ctx)
}

// Stop closes the socket and waits for both workers to exit.
func (l *UDPLink) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.conn.Close()
	l.wg.Wait()
}

func (l *UDPLink) recvLoop(ctx context.Context) {
	defer l.wg.Done()
	buf := make([]byte, recvBufSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.conn.SetReadDeadline(time.Now().Add(recvTimeout))
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		fid := l.faces.GetOrCreateFID(addr, false)

		core.Log.Trace(l, "received datagram", "face", fid, "bytes", n)
		l.up.TrySend(queue.RawEnvelope{FaceID: fid, Data: data})
	}
}

func (l *UDPLink) sendLoop(ctx context.Context) {
	defer l.wg.Done()
	for {
		env, ok := l.down.Recv(ctx, recvTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}

		addr := l.broadcastAddr
		if env.FaceID != l.broadcastFaceID {
			a, ok := l.faces.Addr(env.FaceID)
			if !ok {
				core.Log.Warn(l, "dropping outgoing datagram for unknown face", "face", env.FaceID)
				continue
			}
			addr = a
		}

		if _, err := l.conn.WriteToUDP(env.Data, addr); err != nil {
			core.Log.Warn(l, "write failed", "face", env.FaceID, "err", err)
		}
	}
}
