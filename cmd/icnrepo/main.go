// Command icnrepo runs a minimal repository process: it solicits a
// forwarder over broadcast, registers a served prefix via autoconfig,
// and renews its lease. Grounded on fw/cmd/cmd.go's CmdYaNFD/run shape
// and repo/cmd/main.go's thin single-engine wiring.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dacostaeric/icnfwd/internal/core"
	"github.com/dacostaeric/icnfwd/internal/repo"
)

type subject string

func (s subject) String() string { return string(s) }

const startup subject = "icnrepo"

var cmdIcnrepo = &cobra.Command{
	Use:     "icnrepo CONFIG-FILE",
	Short:   "icnrepo: a repository that registers its prefix with a forwarder via autoconfig",
	Version: "0.1.0",
	Args:    cobra.ExactArgs(1),
	RunE:    run,
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := core.LoadRepoConfig(args[0])
	if err != nil {
		core.Log.Fatal(startup, "failed to load configuration", "err", err)
		return err
	}

	if level, err := core.ParseLevel(cfg.LogLevel); err == nil {
		core.Log.SetLevel(level)
	}

	r, err := repo.New(cfg, core.SystemClock{})
	if err != nil {
		core.Log.Fatal(startup, "failed to assemble repo", "err", err)
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r.Start(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	received := <-sigCh
	core.Log.Info(r, "received signal, exiting", "signal", received)

	r.Stop()
	return nil
}

func main() {
	if err := cmdIcnrepo.Execute(); err != nil {
		os.Exit(1)
	}
}
