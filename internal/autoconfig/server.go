package autoconfig

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/face"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/packet"
	"github.com/dacostaeric/icnfwd/internal/queue"
	"github.com/dacostaeric/icnfwd/internal/table"
)

var (
	reservedPrefix  = icn.NameFromString("/autoconfig")
	exactSelf       = icn.NameFromString("/autoconfig")
	forwardersName  = icn.NameFromString("/autoconfig/forwarders")
	servicesPrefix  = icn.NameFromString("/autoconfig/services")
	servicePrefix   = icn.NameFromString("/autoconfig/service")
)

// recvTimeout mirrors fw.Stage's suspension-point timeout.
const recvTimeout = 500 * time.Millisecond

// RegistrationPrefix is one prefix a repository may register under,
// tagged local (visible on this forwarder only, `pl:`) or global
// (routed, `pg:`).
type RegistrationPrefix struct {
	Name   icn.Name
	Global bool
}

type knownService struct {
	Name     icn.Name
	Remote   string
	Deadline time.Time
}

// Server is the Autoconfig Layer running on a forwarder (spec.md
// §4.6): it intercepts Interests under `/autoconfig` and passes every
// other packet through unchanged (spec.md §4.8), grounded on PiCN's
// AutoconfigServerLayer.py's three reserved-prefix handlers.
type Server struct {
	fib   *table.ForwardingInformationBase
	faces *face.FaceTable
	clock core.Clock

	announceAddr  string
	port          uint16
	prefixes      []RegistrationPrefix
	leaseDuration time.Duration
	interestToApp bool

	mu       sync.Mutex
	services map[uint64]*knownService

	lowerIn   *queue.Queue[queue.Envelope]
	lowerOut  *queue.Queue[queue.Envelope]
	higherIn  *queue.Queue[queue.Envelope]
	higherOut *queue.Queue[queue.Envelope]

	ageInterval time.Duration
	cancel      context.CancelFunc
	done        chan struct{}
}

// NewServer constructs an autoconfig Server.
func NewServer(
	fib *table.ForwardingInformationBase,
	faces *face.FaceTable,
	clock core.Clock,
	announceAddr string,
	port uint16,
	prefixes []RegistrationPrefix,
	leaseDuration time.Duration,
	interestToApp bool,
	lowerIn, lowerOut, higherIn, higherOut *queue.Queue[queue.Envelope],
	ageInterval time.Duration,
) *Server {
	return &Server{
		fib: fib, faces: faces, clock: clock,
		announceAddr: announceAddr, port: port,
		prefixes: prefixes, leaseDuration: leaseDuration,
		interestToApp: interestToApp,
		services:      make(map[uint64]*knownService),
		lowerIn:       lowerIn, lowerOut: lowerOut,
		higherIn: higherIn, higherOut: higherOut,
		ageInterval: ageInterval,
	}
}

// String identifies the stage for logging.
func (s *Server) String() string { return "autoconfig-server" }

// Run starts the stage's workers.
func (s *Server) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		doneCh := make(chan struct{}, 3)
		go func() { s.drain(ctx, s.lowerIn, false); doneCh <- struct{}{} }()
		go func() { s.drain(ctx, s.higherIn, true); doneCh <- struct{}{} }()
		go func() { s.ageLoop(ctx); doneCh <- struct{}{} }()
		for i := 0; i < 3; i++ {
			<-doneCh
		}
	}()
}

// Stop cancels the stage's context and waits for its workers to exit.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.done != nil {
		<-s.done
	}
}

func (s *Server) drain(ctx context.Context, in *queue.Queue[queue.Envelope], fromLocal bool) {
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

func (s *Server) ageLoop(ctx context.Context) {
	ticker := time.NewTicker(s.ageInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.expireServices()
		}
	}
}

// handle implements spec.md §4.8's pass-through rule and, for
// `/autoconfig`-prefixed Interests, §4.6's three reserved handlers.
// The Open Question on fall-through is resolved here: pass-through and
// autoconfig handling are mutually exclusive (return immediately after
// one or the other, never both).
func (s *Server) handle(env queue.Envelope, fromLocal bool) {
	name := env.Packet.Name
	if !reservedPrefix.IsPrefixOf(name) {
		s.passThrough(env, fromLocal)
		return
	}
	if env.Packet.Kind != packet.KindInterest {
		core.Log.Debug(s, "dropping non-interest under /autoconfig", "name", name.String())
		return
	}

	switch {
	case name.Equal(exactSelf):
		s.replySelfDescription(env, fromLocal)
	case name.Equal(forwardersName):
		s.replyForwarders(env, fromLocal)
	case servicesPrefix.IsPrefixOf(name) && name.Len() > servicesPrefix.Len():
		s.replyServicesQuery(env, fromLocal, name)
	case servicePrefix.IsPrefixOf(name) && name.Len() > servicePrefix.Len():
		s.handleRegistration(env, fromLocal, name)
	default:
		core.Log.Warn(s, "unrecognized autoconfig name", "name", name.String())
	}
}

func (s *Server) passThrough(env queue.Envelope, fromLocal bool) {
	if fromLocal {
		s.lowerOut.TrySend(env)
		return
	}
	if s.interestToApp {
		s.higherOut.TrySend(env)
		return
	}
	s.lowerOut.TrySend(env)
}

func (s *Server) replyTo(env queue.Envelope, fromLocal bool, reply packet.Packet) {
	out := queue.Envelope{FaceID: env.FaceID, Packet: reply}
	if fromLocal {
		s.higherOut.TrySend(out)
		return
	}
	s.lowerOut.TrySend(out)
}

func (s *Server) replySelfDescription(env queue.Envelope, fromLocal bool) {
	var prefixNames []icn.Name
	for _, p := range s.prefixes {
		prefixNames = append(prefixNames, p.Name)
	}
	var routes []icn.Name
	for _, e := range s.fib.Entries() {
		routes = append(routes, e.Prefix)
	}
	desc := SelfDescription{
		Addr:                 fmt.Sprintf("%s:%d", s.announceAddr, s.port),
		Routes:               routes,
		RegistrationPrefixes: prefixNames,
	}
	s.replyTo(env, fromLocal, packet.NewContent(exactSelf, desc.Encode()))
}

func (s *Server) replyForwarders(env queue.Envelope, fromLocal bool) {
	var routed, local, global []icn.Name
	for _, e := range s.fib.Entries() {
		routed = append(routed, e.Prefix)
	}
	for _, p := range s.prefixes {
		if p.Global {
			global = append(global, p.Name)
		} else {
			local = append(local, p.Name)
		}
	}
	m := ForwarderManifest{
		Addr:   fmt.Sprintf("udp4://%s:%d", s.announceAddr, s.port),
		Routed: routed, Local: local, Global: global,
	}
	s.replyTo(env, fromLocal, packet.NewContent(forwardersName, m.Encode()))
}

func (s *Server) replyServicesQuery(env queue.Envelope, fromLocal bool, name icn.Name) {
	prefix := name.Slice(servicesPrefix.Len(), name.Len())

	s.mu.Lock()
	now := s.clock.Now()
	var matches []icn.Name
	for _, svc := range s.services {
		if svc.Deadline.Before(now) || svc.Deadline.Equal(now) {
			continue
		}
		if prefix.IsPrefixOf(svc.Name) {
			matches = append(matches, svc.Name)
		}
	}
	s.mu.Unlock()

	if len(matches) == 0 {
		interest := packet.NewInterest(name)
		s.replyTo(env, fromLocal, packet.NewNack(interest, packet.NoContent))
		return
	}
	var sb strings.Builder
	for _, n := range matches {
		sb.WriteString(n.String())
		sb.WriteByte('\n')
	}
	s.replyTo(env, fromLocal, packet.NewContent(name, []byte(sb.String())))
}

func (s *Server) handleRegistration(env queue.Envelope, fromLocal bool, name icn.Name) {
	remoteTok := name[servicePrefix.Len()].String()
	serviceName := name.Slice(servicePrefix.Len()+1, name.Len())
	interest := packet.NewInterest(name)

	if !s.matchesRegistrationPrefix(serviceName) {
		s.replyTo(env, fromLocal, packet.NewNack(interest, packet.NoRoute))
		return
	}

	h := serviceName.Hash()

	s.mu.Lock()
	if existing, ok := s.services[h]; ok && existing.Remote != remoteTok {
		s.mu.Unlock()
		s.replyTo(env, fromLocal, packet.NewNack(interest, packet.Duplicate))
		return
	}
	s.mu.Unlock()

	remoteAddr, err := parseRemoteAddr(remoteTok)
	if err != nil {
		core.Log.Warn(s, "unparseable registration remote", "remote", remoteTok, "err", err)
		s.replyTo(env, fromLocal, packet.NewNack(interest, packet.NoRoute))
		return
	}
	faceID := s.faces.GetOrCreateFID(remoteAddr, true)
	s.fib.Insert(serviceName, faceID, true)

	deadline := s.clock.Now().Add(s.leaseDuration)
	s.mu.Lock()
	s.services[h] = &knownService{Name: serviceName, Remote: remoteTok, Deadline: deadline}
	s.mu.Unlock()

	payload := []byte(strconv.Itoa(int(s.leaseDuration.Seconds())) + "\n")
	s.replyTo(env, fromLocal, packet.NewContent(name, payload))
}

func (s *Server) matchesRegistrationPrefix(name icn.Name) bool {
	for _, p := range s.prefixes {
		if p.Name.IsPrefixOf(name) {
			return true
		}
	}
	return false
}

func (s *Server) expireServices() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()
	for h, svc := range s.services {
		if !svc.Deadline.After(now) {
			delete(s.services, h)
		}
	}
}

// parseRemoteAddr accepts either "host:port" or "udp4://host:port", as
// both appear across spec.md's §4.6 prose and §8 scenario 4 examples.
func parseRemoteAddr(s string) (*net.UDPAddr, error) {
	s = strings.TrimPrefix(s, "udp4://")
	return net.ResolveUDPAddr("udp4", s)
}
