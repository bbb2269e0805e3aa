// Package repo implements the minimal repository program: a content
// producer that owns nothing but a link layer, a codec, and an
// autoconfig.Client — it registers its served prefix with whichever
// forwarder answers its broadcast solicitation (spec.md §4.7) and
// otherwise stays out of the ICN forwarding path entirely (it has no
// CS/PIT/FIB of its own). Grounded on `repo/cmd/main.go`'s thin
// wiring of a single engine on top of one face.
package repo

import (
	"context"
	"fmt"
	"net"

	"github.com/dacostaeric/icnfwd/internal/autoconfig"
	"github.com/dacostaeric/icnfwd/internal/codec"
	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/face"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/queue"
)

const queueCapacity = 64

// Repo is a running icnrepo process.
type Repo struct {
	link   *face.UDPLink
	codec  *codec.Stage
	client *autoconfig.Client

	stages []queue.Stage
}

// New assembles a Repo from cfg: a UDP link bound to cfg.SelfAddr:
// cfg.SelfPort, a text codec, and an autoconfig client configured to
// solicit over cfg.BroadcastAddr:cfg.ForwarderPort.
func New(cfg *core.RepoConfig, clock core.Clock) (*Repo, error) {
	faces := face.NewFaceTable()

	linkUp := queue.New[queue.RawEnvelope](queueCapacity)
	linkDown := queue.New[queue.RawEnvelope](queueCapacity)

	link, err := face.NewUDPLink(cfg.SelfAddr, cfg.SelfPort, cfg.BroadcastAddr, faces, linkUp, linkDown)
	if err != nil {
		return nil, fmt.Errorf("repo: %w", err)
	}

	clientDown := queue.New[queue.Envelope](queueCapacity) // client -> codec -> link
	clientUp := queue.New[queue.Envelope](queueCapacity)   // link -> codec -> client

	codecStage := codec.New(codec.TextCodec{}, linkUp, linkDown, clientDown, clientUp)

	// Solicitations go to the broadcast address at the forwarder's port,
	// not at the repo's own port that the link's broadcast face uses.
	solicitAddr := &net.UDPAddr{IP: net.ParseIP(cfg.BroadcastAddr), Port: int(cfg.ForwarderPort)}
	solicitFace := faces.GetOrCreateFID(solicitAddr, true)

	client := autoconfig.NewClient(
		cfg.SelfAddr, cfg.SelfPort, cfg.Name,
		cfg.RegisterLocal, cfg.RegisterGlobal, cfg.RenewalFraction,
		cfg.DefaultPrefix,
		clientDown, clientUp, solicitFace,
		clock,
	)

	return &Repo{link: link, codec: codecStage, client: client}, nil
}

// String identifies the repo for logging.
func (r *Repo) String() string { return "repo" }

// Start runs the link, codec, and autoconfig client stages bottom-up.
func (r *Repo) Start(ctx context.Context) {
	r.stages = []queue.Stage{r.link, r.codec, r.client}
	for _, s := range r.stages {
		s.Run(ctx)
	}
	core.Log.Info(r, "repo started")
}

// Stop tears the stages down top-down (client -> codec -> link).
func (r *Repo) Stop() {
	for i := len(r.stages) - 1; i >= 0; i-- {
		r.stages[i].Stop()
	}
	core.Log.Info(r, "repo stopped")
}

// ServedPrefix returns the repository's currently served prefix
// (spec.md §8 scenario 5).
func (r *Repo) ServedPrefix() icn.Name { return r.client.ServedPrefix() }
