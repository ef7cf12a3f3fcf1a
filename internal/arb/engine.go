package arb

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/matcher"
	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/redisx"
)

// OpportunitySink receives detected opportunities. internal/oppstore
// implements this against the ranked-set + pub/sub store; tests can
// substitute a recording fake.
type OpportunitySink interface {
	Submit(ctx context.Context, opp model.Opportunity) error
}

// Engine wires the durable stream consumer, the periodic detector, and
// periodic reclustering around one Buffer, per spec.md §4.4.
type Engine struct {
	rdb      *redisx.Client
	buf      *Buffer
	sink     OpportunitySink
	metrics  *metrics.Registry
	cfg      config.Thresholds
	log      zerolog.Logger
	consumer string

	canonMu sync.RWMutex
	canon   map[string]string // raw title -> canonical title
}

// NewEngine constructs an Engine. consumerName should be unique per
// process (e.g. hostname-pid) so XReadGroup claims don't collide across
// replicas sharing the arbengine consumer group.
func NewEngine(rdb *redisx.Client, sink OpportunitySink, m *metrics.Registry, cfg config.Thresholds, log zerolog.Logger, consumerName string) *Engine {
	return &Engine{
		rdb:      rdb,
		buf:      NewBuffer(),
		sink:     sink,
		metrics:  m,
		cfg:      cfg,
		log:      log,
		consumer: consumerName,
		canon:    make(map[string]string),
	}
}

// Run blocks until ctx is cancelled, running the consumer, detector, and
// reclustering subtasks concurrently. On cancellation it waits up to
// cfg.DrainTimeout for the subtasks to exit before returning.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.ensureGroup(ctx); err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() { defer wg.Done(); e.consumeLoop(ctx) }()
	go func() { defer wg.Done(); e.detectLoop(ctx) }()
	go func() { defer wg.Done(); e.reclusterLoop(ctx) }()

	<-ctx.Done()

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(e.cfg.DrainTimeout):
		e.log.Warn().Msg("arb engine: drain timeout exceeded, subtasks may still be running")
	}
	return ctx.Err()
}

func (e *Engine) ensureGroup(ctx context.Context) error {
	err := e.rdb.XGroupCreateMkStream(ctx, redisx.NormalizedStream, redisx.ConsumerGroup, "0").Err()
	if err != nil && !isBusyGroup(err) {
		return fmt.Errorf("arb engine: create consumer group: %w", err)
	}
	return nil
}

func isBusyGroup(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}

// consumeLoop reads the normalised-quote stream through the arbengine
// consumer group, resolves each quote's canonical title, folds it into
// the buffer, and acknowledges it.
func (e *Engine) consumeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := e.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    redisx.ConsumerGroup,
			Consumer: e.consumer,
			Streams:  []string{redisx.NormalizedStream, ">"},
			Count:    e.cfg.ConsumerBatchSize,
			Block:    e.cfg.ConsumerBlock,
		}).Result()
		if err != nil {
			if err == redis.Nil || ctx.Err() != nil {
				continue
			}
			e.log.Error().Err(err).Msg("arb engine: consumer read failed")
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				q, perr := parseStreamValues(msg.Values)
				if perr != nil {
					e.log.Warn().Err(perr).Str("id", msg.ID).Msg("arb engine: dropping malformed stream entry")
					e.ack(ctx, msg.ID)
					continue
				}
				if q.ImpliedProb <= 0 || q.ImpliedProb >= 1 {
					e.ack(ctx, msg.ID)
					continue
				}

				canonical := e.canonicalOf(q.MarketTitle)
				e.buf.Upsert(canonical, q.Category, q)
				e.ack(ctx, msg.ID)
			}
		}
	}
}

func (e *Engine) ack(ctx context.Context, id string) {
	if err := e.rdb.XAck(ctx, redisx.NormalizedStream, redisx.ConsumerGroup, id).Err(); err != nil {
		e.log.Warn().Err(err).Str("id", id).Msg("arb engine: ack failed")
	}
}

func (e *Engine) canonicalOf(title string) string {
	e.canonMu.RLock()
	defer e.canonMu.RUnlock()
	if c, ok := e.canon[title]; ok {
		return c
	}
	return title
}

// detectLoop runs the arbitrage-detection subtask at cfg.DetectionInterval.
func (e *Engine) detectLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.DetectionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.detectOnce(ctx)
		}
	}
}

func (e *Engine) detectOnce(ctx context.Context) {
	now := time.Now()
	for _, title := range e.buf.Titles() {
		snap, ok := e.buf.SnapshotOf(title)
		if !ok {
			continue
		}
		opp, found := Detect(snap, e.cfg.MinProfit)
		if !found {
			continue
		}
		opp.Legs = Stakes(opp.Legs, 100)
		opp.DetectedAt = now

		if err := e.sink.Submit(ctx, opp); err != nil {
			e.log.Error().Err(err).Str("title", title).Msg("arb engine: submit opportunity failed")
			continue
		}
		e.buf.MarkArbHot(title, now)
		if e.metrics != nil {
			e.metrics.OpportunitiesEmitted.WithLabelValues(string(opp.Category)).Inc()
		}
	}
}

// reclusterLoop re-runs the matcher over the buffer's current title set
// every ReclusterIntervalCycles detection ticks, merges newly-matched
// titles, and republishes the serialised canonical map.
func (e *Engine) reclusterLoop(ctx context.Context) {
	interval := e.cfg.DetectionInterval * time.Duration(e.cfg.ReclusterIntervalCycles)
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.reclusterOnce(ctx)
		}
	}
}

func (e *Engine) reclusterOnce(ctx context.Context) {
	titles := e.buf.Titles()
	inputs := make([]matcher.Input, 0, len(titles))
	categories := make(map[string]model.Category, len(titles))
	for _, t := range titles {
		snap, ok := e.buf.SnapshotOf(t)
		if !ok {
			continue
		}
		categories[t] = snap.Category
		inputs = append(inputs, matcher.Input{Title: t, Venue: "buffer", Category: snap.Category})
	}

	result := matcher.Cluster(inputs)

	e.canonMu.Lock()
	for raw, canonical := range result.CanonicalOf {
		e.canon[raw] = canonical
	}
	e.canonMu.Unlock()

	for raw, canonical := range result.CanonicalOf {
		if raw == canonical {
			continue
		}
		e.buf.Merge(canonical, raw)
	}

	e.publishCanonicalMap(ctx, result)
}

func (e *Engine) publishCanonicalMap(ctx context.Context, result matcher.Result) {
	payload, err := json.Marshal(result.CanonicalOf)
	if err != nil {
		e.log.Error().Err(err).Msg("arb engine: marshal canonical map failed")
		return
	}
	if err := e.rdb.Set(ctx, redisx.CanonicalMapKey, payload, e.cfg.CanonicalMapRebuild).Err(); err != nil {
		e.log.Error().Err(err).Msg("arb engine: publish canonical map failed")
	}
}

// parseStreamValues rebuilds a NormalisedQuote from XReadGroup's flat
// string-keyed field map, mirroring publisher.streamFields' encoding.
func parseStreamValues(values map[string]interface{}) (model.NormalisedQuote, error) {
	get := func(k string) string {
		if v, ok := values[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}

	price, err := strconv.ParseFloat(get("price"), 64)
	if err != nil {
		return model.NormalisedQuote{}, fmt.Errorf("parse price: %w", err)
	}
	implied, err := strconv.ParseFloat(get("implied_prob"), 64)
	if err != nil {
		return model.NormalisedQuote{}, fmt.Errorf("parse implied_prob: %w", err)
	}
	outcomeIdx, err := strconv.Atoi(get("outcome_index"))
	if err != nil {
		return model.NormalisedQuote{}, fmt.Errorf("parse outcome_index: %w", err)
	}
	capturedAt, err := time.Parse(time.RFC3339, get("captured_at"))
	if err != nil {
		return model.NormalisedQuote{}, fmt.Errorf("parse captured_at: %w", err)
	}

	return model.NormalisedQuote{
		RawQuote: model.RawQuote{
			VenueSlug:        get("venue"),
			ExternalMarketID: get("market_id"),
			MarketTitle:      get("market_title"),
			Category:         model.Category(get("category")),
			OutcomeIndex:     outcomeIdx,
			OutcomeName:      get("outcome_name"),
			Price:            price,
			PriceFormat:      model.PriceFormat(get("outcome_type")),
			CapturedAt:       capturedAt,
		},
		ImpliedProb: implied,
	}, nil
}
