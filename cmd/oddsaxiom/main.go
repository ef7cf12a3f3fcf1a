// Command oddsaxiom runs the OddsAxiom ingestion-to-arbitrage pipeline:
// venue workers, the publisher, the arbitrage engine, and the durable
// snapshotter and pruner, all under one cancellation context, per
// spec.md §2's deployment shape.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := Execute(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
