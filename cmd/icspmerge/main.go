// Package main is the entry point for the icspmerge CLI.
//
// icspmerge merges ImageContentSourcePolicy manifests into one canonical
// policy and reconciles it against a live OpenShift cluster: backup, diff,
// confirm, apply.
//
// Commands: merge, reconcile, generate.
//
// For detailed usage information, run:
//
//	icspmerge --help
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/icspmerge/cmd/icspmerge/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
