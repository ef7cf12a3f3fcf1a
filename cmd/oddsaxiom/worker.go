package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Just-Trades13/OddsAxiome/internal/normalize"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/circuit"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/logctx"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/ratelimit"
	"github.com/Just-Trades13/OddsAxiome/internal/publisher"
	"github.com/Just-Trades13/OddsAxiome/internal/worker"
)

// workerCmd runs a single venue worker in isolation, for operational
// debugging, per spec.md §2.
func workerCmd(parentCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "worker <slug>",
		Short: "run a single venue worker in isolation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slug := args[0]

			a, err := bootstrap(parentCtx)
			if err != nil {
				return err
			}
			defer a.rdb.Close()

			vc, ok := a.cfg.Venues[slug]
			if !ok {
				return fmt.Errorf("oddsaxiom: no configuration found for venue %q", slug)
			}
			vc.Slug = slug

			breaker := circuit.NewManager(circuit.Config{
				FailureThreshold: 5, SuccessThreshold: 2,
				OpenTimeout: 30 * time.Second, RequestTimeout: 10 * time.Second,
			})
			limiter := ratelimit.NewManager()
			limiter.Configure(slug, 4, 4)

			w, ok := buildVenueWorker(slug, vc, breaker, limiter, a.metrics, logctx.Worker(slug))
			if !ok {
				return fmt.Errorf("oddsaxiom: no adapter registered for venue %q", slug)
			}

			pub := publisher.New(a.rdb, a.cfg.Thresholds.LiveCacheTTL, a.cfg.Thresholds.StreamMaxLen, a.metrics, logctx.Stage("publisher"))
			worker.Poll(parentCtx, w, vc.PollInterval, pub, normalize.Batch, a.metrics, logctx.Worker(slug))
			return nil
		},
	}
}
