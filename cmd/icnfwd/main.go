// Command icnfwd runs a single ICN forwarder process: link, packet
// encoding, ICN forwarding, and (optionally) autoconfig server stages,
// wired by internal/forwarder. Grounded on fw/cmd/cmd.go's
// CmdYaNFD/run shape.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/forwarder"
)

type subject string

func (s subject) String() string { return string(s) }

const startup subject = "icnfwd"

var cmdIcnfwd = &cobra.Command{
	Use:     "icnfwd CONFIG-FILE",
	Short:   "ICN forwarder: Content Store, Pending Interest Table, Forwarding Information Base",
	Version: "0.1.0",
	Args:    cobra.ExactArgs(1),
	RunE:    run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadForwarderConfig(args[0])
	if err != nil {
		core.Log.Fatal(startup, "failed to load configuration", "err", err)
		return err
	}

	if level, err := core.ParseLevel(cfg.LogLevel); err == nil {
		core.Log.SetLevel(level)
	}

	fwd, err := forwarder.New(cfg, core.SystemClock{})
	if err != nil {
		core.Log.Fatal(startup, "failed to assemble forwarder", "err", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fwd.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	received := <-sigCh
	core.Log.Info(fwd, "received signal, exiting", "signal", received)

	fwd.Stop()
	return nil
}

func main() {
	if err := cmdIcnfwd.Execute(); err != nil {
		os.Exit(1)
	}
}
