// Package publisher implements the single entry point that writes
// normalised quotes to the live cache, appends them to the ordered log,
// and broadcasts a change notice — all as one transactional Redis
// pipeline per Publish call, per spec.md §4.3.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/normalize"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/redisx"
)

// outcomeSetField is a hidden hash field recording the sorted outcome
// index set of the last batch written for a key, so the next batch can
// detect a changed outcome set and force an atomic rewrite (spec.md
// §4.3's resolved Open Question: rewrite-on-change, not
// clear-before-write).
const outcomeSetField = "__outcome_set"

// Publisher is the pipeline's single write path into Redis.
type Publisher struct {
	rdb     *redisx.Client
	ttl     time.Duration
	maxLen  int64
	metrics *metrics.Registry
	log     zerolog.Logger
}

// New constructs a Publisher. ttl must exceed the slowest worker's poll
// interval (spec.md §3's LiveCacheEntry TTL contract).
func New(rdb *redisx.Client, ttl time.Duration, maxLen int64, m *metrics.Registry, log zerolog.Logger) *Publisher {
	return &Publisher{rdb: rdb, ttl: ttl, maxLen: maxLen, metrics: m, log: log}
}

// Publish executes the publish batch: cache upsert, ordered-log append,
// one change notice per venue present in the batch. Quotes whose implied
// probability lands exactly on 0 or 1 are rejected here, per spec.md
// §4.1 — invalid quotes never reach the live cache or the ordered log.
func (p *Publisher) Publish(ctx context.Context, quotes []model.NormalisedQuote) error {
	quotes = p.rejectInvalid(quotes)
	if len(quotes) == 0 {
		return nil
	}

	groups := groupByKey(quotes)

	pipe := p.rdb.TxPipeline()
	for key, group := range groups {
		if err := p.stageCacheWrite(ctx, pipe, key, group); err != nil {
			if p.metrics != nil {
				p.metrics.PublishErrors.WithLabelValues("cache").Inc()
			}
			return fmt.Errorf("publisher: stage cache write for %s/%s: %w", key.Venue, key.MarketID, err)
		}
	}

	for _, q := range quotes {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: redisx.NormalizedStream,
			MaxLen: p.maxLen,
			Approx: true,
			Values: streamFields(q),
		})
	}

	for venue, count := range countByVenue(quotes) {
		payload, err := json.Marshal(map[string]any{
			"type":  "odds_batch",
			"venue": venue,
			"count": count,
		})
		if err != nil {
			return fmt.Errorf("publisher: marshal change notice: %w", err)
		}
		pipe.Publish(ctx, redisx.UpdatesChannel, payload)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		if p.metrics != nil {
			p.metrics.PublishBatches.WithLabelValues(quotes[0].VenueSlug, "error").Inc()
		}
		return fmt.Errorf("publisher: exec batch: %w", err)
	}

	if p.metrics != nil {
		for venue, count := range countByVenue(quotes) {
			p.metrics.PublishBatches.WithLabelValues(venue, "ok").Inc()
			p.metrics.PublishQuotes.WithLabelValues(venue).Add(float64(count))
		}
	}
	return nil
}

// rejectInvalid drops quotes classified invalid (implied probability
// exactly 0 or 1), per spec.md §4.1: rejection happens at the publisher
// boundary, before anything reaches the cache or the ordered log.
func (p *Publisher) rejectInvalid(quotes []model.NormalisedQuote) []model.NormalisedQuote {
	out := make([]model.NormalisedQuote, 0, len(quotes))
	for _, q := range quotes {
		if err := normalize.Classify(q); err != nil {
			if p.metrics != nil {
				p.metrics.PublishErrors.WithLabelValues("invalid_quote").Inc()
			}
			p.log.Warn().Err(err).
				Str("venue", q.VenueSlug).Str("market", q.ExternalMarketID).
				Str("outcome", q.OutcomeName).Msg("publisher: rejecting invalid quote")
			continue
		}
		out = append(out, q)
	}
	return out
}

// stageCacheWrite reads the key's previous outcome-set marker, decides
// whether a changed outcome set requires a DEL+HSET rewrite, and stages the
// resulting commands onto pipe (not yet executed).
func (p *Publisher) stageCacheWrite(ctx context.Context, pipe redis.Pipeliner, key model.CacheKey, group []model.NormalisedQuote) error {
	liveKey := redisx.LiveKey(key.Venue, key.MarketID)
	newSet := outcomeIndices(group)
	newSetEnc := encodeIndexSet(newSet)

	prevSetEnc, err := p.rdb.HGet(ctx, liveKey, outcomeSetField).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("read previous outcome set: %w", err)
	}

	if prevSetEnc != "" && prevSetEnc != newSetEnc {
		pipe.Del(ctx, liveKey)
	}

	fields := cacheFields(group)
	fields[outcomeSetField] = newSetEnc
	pipe.HSet(ctx, liveKey, fields)
	pipe.Expire(ctx, liveKey, p.ttl)
	return nil
}

func groupByKey(quotes []model.NormalisedQuote) map[model.CacheKey][]model.NormalisedQuote {
	groups := make(map[model.CacheKey][]model.NormalisedQuote)
	for _, q := range quotes {
		k := q.Key()
		groups[k] = append(groups[k], q)
	}
	return groups
}

func countByVenue(quotes []model.NormalisedQuote) map[string]int {
	counts := make(map[string]int)
	for _, q := range quotes {
		counts[q.VenueSlug]++
	}
	return counts
}

func outcomeIndices(group []model.NormalisedQuote) []int {
	seen := make(map[int]struct{}, len(group))
	for _, q := range group {
		seen[q.OutcomeIndex] = struct{}{}
	}
	idx := make([]int, 0, len(seen))
	for i := range seen {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

func encodeIndexSet(idx []int) string {
	b, _ := json.Marshal(idx)
	return string(b)
}

// cacheFields builds the flat hash fields for a LiveCacheEntry from the
// latest quotes for one venue-market key. Market-level fields are taken
// from the most recently captured quote in the group.
func cacheFields(group []model.NormalisedQuote) map[string]any {
	latest := group[0]
	for _, q := range group {
		if q.CapturedAt.After(latest.CapturedAt) {
			latest = q
		}
	}

	fields := map[string]any{
		"title":      latest.MarketTitle,
		"category":   string(latest.Category),
		"url":        latest.MarketURL,
		"updated_at": latest.CapturedAt.Format(time.RFC3339),
	}
	if latest.Volume24h != nil {
		fields["volume_24h"] = *latest.Volume24h
	}
	if latest.VolumeUSD != nil {
		fields["volume_usd"] = *latest.VolumeUSD
	}
	if latest.LiquidityUSD != nil {
		fields["liquidity_usd"] = *latest.LiquidityUSD
	}

	for _, q := range group {
		prefix := "outcome_" + strconv.Itoa(q.OutcomeIndex)
		fields[prefix+"_name"] = q.OutcomeName
		fields[prefix+"_price"] = q.Price
		fields[prefix+"_implied"] = q.ImpliedProb
		fields[prefix+"_type"] = string(q.PriceFormat)
		if q.Bid != nil {
			fields[prefix+"_bid"] = *q.Bid
		}
		if q.Ask != nil {
			fields[prefix+"_ask"] = *q.Ask
		}
	}
	return fields
}

func streamFields(q model.NormalisedQuote) map[string]any {
	return map[string]any{
		"venue":         q.VenueSlug,
		"market_id":     q.ExternalMarketID,
		"market_title":  q.MarketTitle,
		"category":      string(q.Category),
		"outcome_index": q.OutcomeIndex,
		"outcome_name":  q.OutcomeName,
		"outcome_type":  string(q.PriceFormat),
		"price":         q.Price,
		"implied_prob":  q.ImpliedProb,
		"captured_at":   q.CapturedAt.Format(time.RFC3339),
	}
}
