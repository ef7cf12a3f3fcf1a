// Package worker defines the ingestion-side capability contract every
// venue adapter implements, plus the generic poll loop, category
// classification, title disambiguation, and URL canonicalisation
// helpers shared across adapters, per spec.md §4.2. The HTTP client
// shape (per-venue resty.Client behind a circuit.Breaker and a
// ratelimit.Limiter) is adapted from the teacher's
// internal/providers/kraken client and its internal/providers/runtime
// breaker/limiter pair, generalized onto internal/platform/circuit and
// internal/platform/ratelimit.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
)

// Worker is the capability set every venue adapter implements:
// connect, fetch a batch of raw quotes, and release resources on stop.
type Worker interface {
	Slug() string
	Connect(ctx context.Context) error
	FetchBatch(ctx context.Context) ([]model.RawQuote, error)
	Stop(ctx context.Context) error
}

// Publisher is the narrow interface the poll loop needs from the
// publish pipeline, kept separate from *publisher.Publisher so tests
// can substitute a fake.
type Publisher interface {
	Publish(ctx context.Context, quotes []model.NormalisedQuote) error
}

// Normaliser is the narrow interface the poll loop needs to turn a
// fetched batch into publishable quotes.
type Normaliser func(raws []model.RawQuote) []model.NormalisedQuote

// Poll runs w's connect/fetch/publish/sleep cycle until ctx is
// cancelled. A fetch or publish error is logged and swallowed — a
// single bad cycle never stops the loop, per spec.md §4.2's error
// discipline. Connect is retried on every cycle while it keeps failing.
func Poll(ctx context.Context, w Worker, interval time.Duration, pub Publisher, normalise Normaliser, m *metrics.Registry, log zerolog.Logger) {
	slug := w.Slug()
	connected := false

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := w.Stop(stopCtx); err != nil {
			log.Warn().Str("venue", slug).Err(err).Msg("worker: stop failed")
		}
	}()

	runOnce := func() {
		if !connected {
			if err := w.Connect(ctx); err != nil {
				log.Error().Str("venue", slug).Err(err).Msg("worker: connect failed")
				if m != nil {
					m.WorkerErrors.WithLabelValues(slug, "connect").Inc()
				}
				return
			}
			connected = true
		}

		start := time.Now()
		raws, err := w.FetchBatch(ctx)
		if m != nil {
			m.WorkerLatency.WithLabelValues(slug).Observe(time.Since(start).Seconds())
		}
		if err != nil {
			log.Error().Str("venue", slug).Err(err).Msg("worker: fetch_batch failed")
			if m != nil {
				m.WorkerErrors.WithLabelValues(slug, "transport").Inc()
			}
			return
		}
		if len(raws) == 0 {
			if m != nil {
				m.WorkerFetches.WithLabelValues(slug, "empty").Inc()
			}
			return
		}

		quotes := normalise(raws)
		if err := pub.Publish(ctx, quotes); err != nil {
			log.Error().Str("venue", slug).Err(err).Msg("worker: publish failed")
			if m != nil {
				m.WorkerErrors.WithLabelValues(slug, "publish").Inc()
			}
			return
		}
		if m != nil {
			m.WorkerFetches.WithLabelValues(slug, "ok").Inc()
		}
	}

	runOnce()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
