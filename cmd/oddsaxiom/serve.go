package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Just-Trades13/OddsAxiome/internal/arb"
	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/normalize"
	"github.com/Just-Trades13/OddsAxiome/internal/oppstore"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/circuit"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/logctx"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/ratelimit"
	"github.com/Just-Trades13/OddsAxiome/internal/publisher"
	"github.com/Just-Trades13/OddsAxiome/internal/snapshot"
	"github.com/Just-Trades13/OddsAxiome/internal/worker"
	"github.com/Just-Trades13/OddsAxiome/internal/worker/venues"
)

// serveCmd runs the full pipeline: every enabled worker, the publisher,
// the arbitrage engine, the opportunity store broadcaster, the
// snapshotter and the pruner, as sibling goroutines under one
// cancellation context, per spec.md §2.
func serveCmd(parentCtx context.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the full ingestion-to-arbitrage pipeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(parentCtx)
			if err != nil {
				return err
			}
			defer a.rdb.Close()

			return runServe(parentCtx, a)
		},
	}
}

func runServe(ctx context.Context, a *app) error {
	var wg sync.WaitGroup

	pub := publisher.New(a.rdb, a.cfg.Thresholds.LiveCacheTTL, a.cfg.Thresholds.StreamMaxLen, a.metrics, logctx.Stage("publisher"))
	store := oppstore.New(a.rdb, a.cfg.Thresholds.OpportunityTTL, a.metrics)
	engine := arb.NewEngine(a.rdb, store, a.metrics, a.cfg.Thresholds, logctx.Stage("arb_engine"), "arbengine-1")

	breakerMgr := circuit.NewManager(circuit.Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		OpenTimeout:      30 * time.Second,
		RequestTimeout:   10 * time.Second,
	})
	limiterMgr := ratelimit.NewManager()
	for slug, vc := range a.cfg.Venues {
		if !vc.Enabled {
			continue
		}
		rps := 1.0
		if vc.PollInterval > 0 {
			rps = 1.0 / vc.PollInterval.Seconds()
		}
		limiterMgr.Configure(slug, rps*4, 4)
	}

	spawn := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && ctx.Err() == nil {
				a.log.Error().Str("task", name).Err(err).Msg("serve: task exited with error")
			}
		}()
	}

	spawn("arb_engine", engine.Run)

	if a.cfg.Postgres.Enabled {
		db, err := openPostgres(a.cfg.Postgres)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := snapshot.Migrate(a.cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("oddsaxiom: apply migrations: %w", err)
		}
		repo := snapshot.NewRepo(db, a.cfg.Postgres.QueryTimeout)
		snapper := snapshot.NewSnapshotter(a.rdb, repo, a.cfg.Thresholds, a.metrics, logctx.Stage("snapshotter"))
		pruner := snapshot.NewPruner(repo, a.cfg.Thresholds, a.metrics, logctx.Stage("pruner"))
		spawn("snapshotter", snapper.Run)
		spawn("pruner", pruner.Run)
	}

	for slug, vc := range a.cfg.Venues {
		if !vc.Enabled {
			continue
		}
		vc.Slug = slug
		w, ok := buildVenueWorker(slug, vc, breakerMgr, limiterMgr, a.metrics, logctx.Worker(slug))
		if !ok {
			a.log.Warn().Str("venue", slug).Msg("serve: no adapter registered for venue slug")
			continue
		}
		interval := vc.PollInterval
		wg.Add(1)
		go func(w worker.Worker, interval time.Duration) {
			defer wg.Done()
			worker.Poll(ctx, w, interval, pub, normalize.Batch, a.metrics, logctx.Worker(w.Slug()))
		}(w, interval)
	}

	var metricsSrv *http.Server
	if a.cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				a.log.Error().Err(err).Msg("serve: metrics server failed")
			}
		}()
	}

	<-ctx.Done()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Thresholds.DrainTimeout)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	drained := make(chan struct{})
	go func() {
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(a.cfg.Thresholds.DrainTimeout):
		a.log.Warn().Msg("serve: drain timeout exceeded, exiting anyway")
	}
	return nil
}

// buildVenueWorker constructs the concrete adapter registered for
// slug, the closed enumeration named in spec.md §3.
func buildVenueWorker(slug string, vc config.VenueConfig, breaker *circuit.Manager, limiter *ratelimit.Manager, m *metrics.Registry, log zerolog.Logger) (worker.Worker, bool) {
	switch slug {
	case "polymarket":
		return venues.NewPolymarket(vc, vc.APIKey, breaker, limiter, m, log), true
	case "kalshi":
		return venues.NewKalshi(vc, breaker, limiter, m, log), true
	case "predictit":
		return venues.NewPredictIt(vc, breaker, limiter, m, log), true
	case "manifold":
		return venues.NewManifold(vc, breaker, limiter, m, log), true
	case "smarkets":
		return venues.NewSmarkets(vc, breaker, limiter, m, log), true
	case "betfair":
		return venues.NewBetfair(vc, breaker, limiter, m, log), true
	case "sportsbook_agg":
		return venues.NewSportsbookAgg(vc, breaker, limiter, m, log), true
	case "deribit_events":
		return venues.NewDeribitEvents(vc, breaker, limiter, m, log), true
	case "edge_experimental":
		return venues.NewEdgeExperimental(vc, 5, breaker, limiter, m, log), true
	default:
		return nil, false
	}
}
