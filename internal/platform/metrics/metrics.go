// Package metrics defines OddsAxiom's Prometheus registry, modelled on
// cryptorun's internal/interfaces/http.MetricsRegistry: a struct of
// HistogramVec/CounterVec/Gauge fields built once at startup and passed
// into every pipeline stage.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry holds every metric the ingestion-to-arbitrage pipeline emits.
type Registry struct {
	WorkerFetches   *prometheus.CounterVec
	WorkerErrors    *prometheus.CounterVec
	WorkerLatency   *prometheus.HistogramVec

	PublishBatches  *prometheus.CounterVec
	PublishQuotes   *prometheus.CounterVec
	PublishErrors   *prometheus.CounterVec

	MatcherCacheHits   prometheus.Counter
	MatcherCacheMisses prometheus.Counter
	MatcherClusters    prometheus.Gauge

	OpportunitiesEmitted *prometheus.CounterVec
	OpportunitiesActive  prometheus.Gauge

	SnapshotRows    prometheus.Counter
	SnapshotErrors  prometheus.Counter
	PrunedRows      prometheus.Counter

	BreakerState *prometheus.GaugeVec
}

// New constructs and registers every metric against reg.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		WorkerFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsaxiom_worker_fetches_total",
			Help: "Completed fetch_batch calls by venue and outcome (ok, empty).",
		}, []string{"venue", "outcome"}),

		WorkerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsaxiom_worker_errors_total",
			Help: "Worker errors by venue and kind (connect, transport, publish).",
		}, []string{"venue", "kind"}),

		WorkerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oddsaxiom_worker_fetch_duration_seconds",
			Help:    "fetch_batch duration by venue.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"venue"}),

		PublishBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsaxiom_publish_batches_total",
			Help: "Publish() calls by venue and result.",
		}, []string{"venue", "result"}),

		PublishQuotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsaxiom_publish_quotes_total",
			Help: "Individual quotes published by venue.",
		}, []string{"venue"}),

		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsaxiom_publish_errors_total",
			Help: "Publish failures and rejected quotes by stage (cache, invalid_quote).",
		}, []string{"stage"}),

		MatcherCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsaxiom_matcher_cache_hits_total",
			Help: "Canonical-title map cache hits.",
		}),
		MatcherCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsaxiom_matcher_cache_misses_total",
			Help: "Canonical-title map cache misses requiring a rebuild.",
		}),
		MatcherClusters: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oddsaxiom_matcher_clusters",
			Help: "Number of distinct canonical clusters in the latest map.",
		}),

		OpportunitiesEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oddsaxiom_opportunities_emitted_total",
			Help: "Arbitrage opportunities emitted by category.",
		}, []string{"category"}),
		OpportunitiesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "oddsaxiom_opportunities_active",
			Help: "Opportunities currently live in the ranked set.",
		}),

		SnapshotRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsaxiom_snapshot_rows_total",
			Help: "Rows written to the durable snapshot store.",
		}),
		SnapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsaxiom_snapshot_errors_total",
			Help: "Snapshot batch-insert failures.",
		}),
		PrunedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "oddsaxiom_pruned_rows_total",
			Help: "Durable rows deleted by the retention pruner.",
		}),

		BreakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "oddsaxiom_circuit_breaker_state",
			Help: "Per-venue circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"venue"}),
	}

	for _, c := range []prometheus.Collector{
		m.WorkerFetches, m.WorkerErrors, m.WorkerLatency,
		m.PublishBatches, m.PublishQuotes, m.PublishErrors,
		m.MatcherCacheHits, m.MatcherCacheMisses, m.MatcherClusters,
		m.OpportunitiesEmitted, m.OpportunitiesActive,
		m.SnapshotRows, m.SnapshotErrors, m.PrunedRows,
		m.BreakerState,
	} {
		reg.MustRegister(c)
	}

	return m
}
