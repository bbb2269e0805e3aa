// Package forwarder wires the Link, Packet Encoding, ICN, and
// Autoconfig layers together into a running icnfwd process. Grounded
// on PiCN's ICNForwarder (start_forwarder/stop_forwarder top-down/
// bottom-up ordering) and the teacher's fw/cmd/cmd.go top-level daemon
// wiring.
package forwarder

import (
	"context"
	"fmt"

	"github.com/dacostaeric/icnfwd/internal/autoconfig"
	"github.com/dacostaeric/icnfwd/internal/codec"
	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/face"
	"github.com/dacostaeric/icnfwd/internal/fw"
	"github.com/dacostaeric/icnfwd/internal/icn"
	"github.com/dacostaeric/icnfwd/internal/queue"
	"github.com/dacostaeric/icnfwd/internal/table"
)

// queueCapacity bounds every inter-stage queue in the pipeline.
const queueCapacity = 256

// Forwarder owns every stage of one icnfwd process and the queues
// connecting them (spec.md §2: Link -> Packet Encoding -> ICN ->
// Autoconfig -> Management/Application).
type Forwarder struct {
	link   *face.UDPLink
	codec  *codec.Stage
	icn    *fw.Stage
	server *autoconfig.Server // nil if autoconfig is disabled

	cs  *table.ContentStore
	pit *table.PendingInterestTable
	fib *table.ForwardingInformationBase

	stages []queue.Stage
}

// New assembles a Forwarder from cfg: the link socket, codec, CS/PIT/FIB
// and forwarding stage, and — if cfg.Autoconfig.Enabled — the
// autoconfig server stage, all connected by bounded queues.
func New(cfg *core.ForwarderConfig, clock core.Clock) (*Forwarder, error) {
	faces := face.NewFaceTable()

	linkUp := queue.New[queue.RawEnvelope](queueCapacity)   // link -> codec
	linkDown := queue.New[queue.RawEnvelope](queueCapacity) // codec -> link

	link, err := face.NewUDPLink(cfg.Faces.BindAddr, cfg.Faces.Port, cfg.Faces.BroadcastAddr, faces, linkUp, linkDown)
	if err != nil {
		return nil, fmt.Errorf("forwarder: %w", err)
	}

	fwLowerIn := queue.New[queue.Envelope](queueCapacity)  // codec -> icn
	fwLowerOut := queue.New[queue.Envelope](queueCapacity) // icn -> codec

	codecStage := codec.New(codec.TextCodec{}, linkUp, linkDown, fwLowerOut, fwLowerIn)

	cs := table.NewContentStore(cfg.Tables.CsCapacity, cfg.Tables.CsTTL, clock)
	pit := table.NewPendingInterestTable(cfg.Tables.PitTTL, clock)
	fib := table.NewForwardingInformationBase()

	var fwHigherIn, fwHigherOut *queue.Queue[queue.Envelope]
	var server *autoconfig.Server
	if cfg.Autoconfig.Enabled {
		fwHigherIn = queue.New[queue.Envelope](queueCapacity)  // autoconfig -> icn
		fwHigherOut = queue.New[queue.Envelope](queueCapacity) // icn -> autoconfig

		appIn := queue.New[queue.Envelope](queueCapacity)  // application -> autoconfig (unused by icnfwd itself)
		appOut := queue.New[queue.Envelope](queueCapacity) // autoconfig -> application

		var prefixes []autoconfig.RegistrationPrefix
		for _, p := range cfg.Autoconfig.RegistrationPrefixes {
			prefixes = append(prefixes, autoconfig.RegistrationPrefix{
				Name:   icn.NameFromString(p.Prefix),
				Global: p.Global,
			})
		}

		server = autoconfig.NewServer(
			fib, faces, clock,
			cfg.Faces.AnnounceAddr, cfg.Faces.Port,
			prefixes, cfg.Autoconfig.LeaseDuration, cfg.Autoconfig.InterestToApp,
			fwHigherOut, fwHigherIn, appIn, appOut,
			cfg.Tables.AgeInterval,
		)
	}

	icnStage := fw.New(cs, pit, fib, clock, fwLowerIn, fwLowerOut, fwHigherIn, fwHigherOut, cfg.Tables.AgeInterval)

	f := &Forwarder{
		link: link, codec: codecStage, icn: icnStage, server: server,
		cs: cs, pit: pit, fib: fib,
	}
	return f, nil
}

// String identifies the forwarder for logging.
func (f *Forwarder) String() string { return "forwarder" }

// Start runs every stage bottom-up: link, then codec, then the ICN
// layer, then (if enabled) autoconfig — so that no stage can emit onto
// a queue nothing is yet consuming from.
func (f *Forwarder) Start(ctx context.Context) {
	f.stages = []queue.Stage{f.link, f.codec, f.icn}
	if f.server != nil {
		f.stages = append(f.stages, f.server)
	}
	for _, s := range f.stages {
		s.Run(ctx)
	}
	core.Log.Info(f, "forwarder started")
}

// Stop tears every stage down top-down (autoconfig -> ICN -> encoding
// -> link, spec.md §5 "Cancellation") so inflight packets drain into
// closing sinks without errors.
func (f *Forwarder) Stop() {
	for i := len(f.stages) - 1; i >= 0; i-- {
		f.stages[i].Stop()
	}
	core.Log.Info(f, "forwarder stopped")
}

// FIB exposes the forwarding table for management/diagnostics use
// (e.g. a future `nfdc`-style CLI, grounded on fw/mgmt/fib.go).
func (f *Forwarder) FIB() *table.ForwardingInformationBase { return f.fib }
