// Package oppstore is the durable-enough opportunity store and
// broadcast path: every detected opportunity is content-addressed,
// written to a hash, ranked in a zset by expected profit, and announced
// on a pub/sub channel, per spec.md §4.4/§6's Redis key space.
package oppstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/redisx"
)

// Store is the arbitrage engine's OpportunitySink implementation.
type Store struct {
	rdb     *redisx.Client
	ttl     time.Duration
	metrics *metrics.Registry
}

// New constructs a Store. ttl should match spec.md's opportunity TTL
// default (5 minutes) unless overridden by configuration.
func New(rdb *redisx.Client, ttl time.Duration, m *metrics.Registry) *Store {
	return &Store{rdb: rdb, ttl: ttl, metrics: m}
}

// Key computes the content-addressed identity of an opportunity: the
// canonical title plus its sorted (venue_slug, outcome_name) leg set.
// This is the resolved Open Question from spec.md §9 — keying on title
// alone would collide two simultaneous opportunities on the same event
// with different outcome sets.
func Key(opp model.Opportunity) string {
	pairs := make([]string, 0, len(opp.Legs))
	for _, l := range opp.Legs {
		pairs = append(pairs, l.VenueSlug+"|"+l.OutcomeName)
	}
	sort.Strings(pairs)

	h := sha256.New()
	h.Write([]byte(opp.CanonicalTitle))
	h.Write([]byte{0})
	h.Write([]byte(strings.Join(pairs, ",")))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Submit writes an opportunity's hash record, ranks it, and broadcasts
// it — all in one pipeline.
func (s *Store) Submit(ctx context.Context, opp model.Opportunity) error {
	key := Key(opp)
	opp.ID = key

	payload, err := json.Marshal(opp)
	if err != nil {
		return fmt.Errorf("oppstore: marshal opportunity: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, redisx.OpportunityKey(key), map[string]any{
		"data":   payload,
		"profit": opp.ExpectedProfit,
	})
	pipe.Expire(ctx, redisx.OpportunityKey(key), s.ttl)
	pipe.ZAdd(ctx, redisx.ActiveSet, redis.Z{Score: opp.ExpectedProfit, Member: key})
	pipe.Publish(ctx, redisx.AlertsChannel, payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("oppstore: exec submit pipeline for %s: %w", key, err)
	}
	if s.metrics != nil {
		if n, err := s.rdb.ZCard(ctx, redisx.ActiveSet).Result(); err == nil {
			s.metrics.OpportunitiesActive.Set(float64(n))
		}
	}
	return nil
}

// Top returns up to n currently-ranked opportunities, highest expected
// profit first.
func (s *Store) Top(ctx context.Context, n int64) ([]model.Opportunity, error) {
	ids, err := s.rdb.ZRevRange(ctx, redisx.ActiveSet, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("oppstore: rank query: %w", err)
	}

	out := make([]model.Opportunity, 0, len(ids))
	for _, id := range ids {
		raw, err := s.rdb.HGet(ctx, redisx.OpportunityKey(id), "data").Result()
		if err == redis.Nil {
			s.rdb.ZRem(ctx, redisx.ActiveSet, id) // expired hash, ranked entry is stale
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("oppstore: read %s: %w", id, err)
		}
		var opp model.Opportunity
		if err := json.Unmarshal([]byte(raw), &opp); err != nil {
			return nil, fmt.Errorf("oppstore: unmarshal %s: %w", id, err)
		}
		out = append(out, opp)
	}
	return out, nil
}

// Prune drops ranked entries whose opportunity hash has already
// expired, keeping arb:active from accumulating stale member IDs.
func (s *Store) Prune(ctx context.Context) (int, error) {
	ids, err := s.rdb.ZRange(ctx, redisx.ActiveSet, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("oppstore: prune scan: %w", err)
	}
	removed := 0
	for _, id := range ids {
		exists, err := s.rdb.Exists(ctx, redisx.OpportunityKey(id)).Result()
		if err != nil {
			return removed, fmt.Errorf("oppstore: prune exists check %s: %w", id, err)
		}
		if exists == 0 {
			if err := s.rdb.ZRem(ctx, redisx.ActiveSet, id).Err(); err != nil {
				return removed, fmt.Errorf("oppstore: prune zrem %s: %w", id, err)
			}
			removed++
		}
	}
	return removed, nil
}
