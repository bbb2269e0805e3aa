package autoconfig

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/packet"
	"github.com/dacostaeric/icnfwd/internal/queue"
)

// Client is the Autoconfig Layer running on a repository (spec.md
// §4.7): it solicits a forwarder by broadcast, registers its prefixes,
// and renews the lease before it expires. Grounded on the server-side
// manifest contract plus PiCN's test_AutoconfigRepoLayer.py for the
// expected Interest names and registered-prefix bookkeeping.
type Client struct {
	selfAddr string
	selfPort uint16
	repoName string

	registerLocal   bool
	registerGlobal  bool
	renewalFraction float64

	defaultPrefix string

	down            *queue.Queue[queue.Envelope]
	up              *queue.Queue[queue.Envelope]
	broadcastFaceID uint64

	clock core.Clock

	mu            sync.Mutex
	servedPrefix  icn.Name
	forwarderFace uint64

	cancel context.CancelFunc
	done   chan struct{}
}

// NewClient constructs an autoconfig Client.
func NewClient(
	selfAddr string, selfPort uint16, repoName string,
	registerLocal, registerGlobal bool, renewalFraction float64,
	defaultPrefix string,
	down, up *queue.Queue[queue.Envelope],
	broadcastFaceID uint64,
	clock core.Clock,
) *Client {
	return &Client{
		selfAddr: selfAddr, selfPort: selfPort, repoName: repoName,
		registerLocal: registerLocal, registerGlobal: registerGlobal,
		renewalFraction: renewalFraction,
		defaultPrefix:   defaultPrefix,
		down:            down, up: up,
		broadcastFaceID: broadcastFaceID,
		clock:           clock,
		servedPrefix:    icn.NameFromString(defaultPrefix),
	}
}

// String identifies the client for logging.
func (c *Client) String() string { return "autoconfig-client" }

// ServedPrefix returns the repository's currently served prefix: the
// configured default until a registration succeeds, and whatever the
// forwarder granted after that (spec.md §8 scenario 5).
func (c *Client) ServedPrefix() icn.Name {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.servedPrefix
}

// Run starts solicitation and begins processing replies from the
// forwarder. Run returns immediately; replies arrive via the up queue
// and are processed on a background goroutine.
func (c *Client) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	c.solicit()

	go func() {
		defer close(c.done)
		c.drain(ctx)
	}()
}

// Stop cancels the client's context and waits for its worker to exit.
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	if c.done != nil {
		<-c.done
	}
}

// solicit broadcasts the initial `/autoconfig/forwarders` Interest
// (spec.md §8 scenario 2: "the first packet enqueued to the link is
// (broadcast_face, Interest(...))").
func (c *Client) solicit() {
	interest := packet.NewInterest(forwardersName)
	c.down.TrySend(queue.Envelope{FaceID: c.broadcastFaceID, Packet: interest})
}

func (c *Client) drain(ctx context.Context) {
	for {
		env, ok := c.up.Recv(ctx, recvTimeout)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		c.handle(env)
	}
}

func (c *Client) handle(env queue.Envelope) {
	name := env.Packet.Name
	switch {
	case name.Equal(forwardersName):
		c.onForwarderManifest(env)
	case servicePrefix.IsPrefixOf(name):
		c.onRegistrationReply(env)
	default:
		core.Log.Debug(c, "dropping unrecognized autoconfig reply", "name", name.String())
	}
}

// onForwarderManifest parses a forwarder advertisement and, per the
// registration policy, sends a service-registration Interest for the
// first eligible prefix (spec.md §4.7: "local prefixes are preferred
// and global-only prefixes are skipped" when both flags are enabled).
func (c *Client) onForwarderManifest(env queue.Envelope) {
	if env.Packet.Kind != packet.KindContent {
		return
	}
	m, err := ParseForwarderManifest(env.Packet.Payload)
	if err != nil {
		core.Log.Warn(c, "unparseable forwarder manifest", "err", err)
		return
	}

	c.mu.Lock()
	c.forwarderFace = env.FaceID
	c.mu.Unlock()

	var candidates []icn.Name
	if c.registerLocal {
		candidates = append(candidates, m.Local...)
	}
	if c.registerGlobal && !c.registerLocal {
		candidates = append(candidates, m.Global...)
	}
	if len(candidates) == 0 {
		core.Log.Info(c, "no eligible registration prefix in forwarder manifest")
		return
	}

	c.sendRegistration(env.FaceID, candidates[0])
}

func (c *Client) sendRegistration(forwarderFace uint64, prefix icn.Name) {
	self := fmt.Sprintf("udp4://%s:%d", c.selfAddr, c.selfPort)
	name := icn.Name{
		icn.ComponentFromString("autoconfig"),
		icn.ComponentFromString("service"),
		icn.ComponentFromString(self),
	}.Append(prefix...).Append(icn.ComponentFromString(c.repoName))

	c.down.TrySend(queue.Envelope{FaceID: forwarderFace, Packet: packet.NewInterest(name)})
}

// onRegistrationReply implements spec.md §8 scenario 5: on Content,
// update the served prefix and schedule a renewal; on Nack, leave the
// prefix unchanged.
func (c *Client) onRegistrationReply(env queue.Envelope) {
	name := env.Packet.Name
	prefix := name.Slice(servicePrefix.Len()+1, name.Len())

	if env.Packet.Kind == packet.KindNack {
		core.Log.Warn(c, "registration rejected", "reason", env.Packet.Reason, "prefix", prefix.String())
		return
	}
	if env.Packet.Kind != packet.KindContent {
		return
	}

	leaseSeconds, err := parseLeaseSeconds(env.Packet.Payload)
	if err != nil {
		core.Log.Warn(c, "unparseable lease payload", "err", err)
		return
	}

	c.mu.Lock()
	c.servedPrefix = prefix
	forwarderFace := c.forwarderFace
	c.mu.Unlock()

	lease := time.Duration(leaseSeconds) * time.Second
	renewAfter := time.Duration(float64(lease) * c.renewalFraction)
	core.Log.Info(c, "registration acknowledged", "prefix", prefix.String(), "lease", lease)

	time.AfterFunc(renewAfter, func() {
		c.sendRegistration(forwarderFace, prefix.Slice(0, prefix.Len()-1))
	})
}

func parseLeaseSeconds(payload []byte) (int, error) {
	s := strings.TrimSpace(string(payload))
	return strconv.Atoi(s)
}
