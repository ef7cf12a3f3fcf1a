// Package redisx wraps the single go-redis/v9 client shared by the
// publisher, the arbitrage engine, the opportunity store, and the
// live-query assembler. It owns one *redis.Client handle, passed in
// explicitly at construction rather than held as an ambient singleton
// (internal/infrastructure/db.Manager's pattern in the teacher repo).
package redisx

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Just-Trades13/OddsAxiome/internal/model"
)

// Client is the process-wide Redis handle. It is created once at
// startup and passed into every task that needs it.
type Client struct {
	*redis.Client
}

// New dials addr/db and verifies connectivity with a bounded ping.
func New(ctx context.Context, addr string, db int) (*Client, error) {
	rc := redis.NewClient(&redis.Options{Addr: addr, DB: db})

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rc.Ping(pctx).Err(); err != nil {
		return nil, fmt.Errorf("redisx: ping %s: %w", addr, err)
	}
	return &Client{Client: rc}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}

// Cache key helpers — centralised here so every package that touches a
// live-cache entry agrees on the key shape (§6: "live:{venue}:{market_id}").

// LiveKey returns the hash key for a venue-market's live cache entry.
func LiveKey(venue, marketID string) string {
	return fmt.Sprintf("live:%s:%s", venue, marketID)
}

const (
	// UpdatesChannel is the broadcast channel publishers notify on
	// after every Publish() call.
	UpdatesChannel = "odds:updates"
	// NormalizedStream is the ordered append-only log of normalised
	// quotes the arbitrage engine consumes via a durable consumer group.
	NormalizedStream = "odds:normalized"
	// AlertsChannel is the broadcast channel the arbitrage engine
	// publishes newly detected opportunities on.
	AlertsChannel = "arb:alerts"
	// ActiveSet is the ranked set of live opportunity keys, scored by
	// expected_profit.
	ActiveSet = "arb:active"
	// CanonicalMapKey caches the matcher's serialised raw-title to
	// canonical-title map.
	CanonicalMapKey = "odds:canonical_map"
	// ConsumerGroup is the durable consumer group name the arbitrage
	// engine reads the normalised stream under.
	ConsumerGroup = "arbengine"
)

// OpportunityKey returns the hash key an opportunity record is stored
// under, given its content-addressed short hash.
func OpportunityKey(hash string) string {
	return fmt.Sprintf("arb:opp:%s", hash)
}

var outcomeFieldPattern = regexp.MustCompile(`^outcome_(\d+)_(name|price|implied|type|bid|ask)$`)

// ParseLiveEntry rebuilds a LiveCacheEntry from a live:{venue}:{market_id}
// hash's flat field map, the inverse of publisher.cacheFields. venue and
// marketID come from the key itself since they aren't stored as fields.
func ParseLiveEntry(venue, marketID string, fields map[string]string) (model.LiveCacheEntry, error) {
	entry := model.LiveCacheEntry{
		Venue:    venue,
		MarketID: marketID,
		Outcomes: make(map[int]model.OutcomeSnapshot),
	}

	outcomes := make(map[int]model.OutcomeSnapshot)
	for k, v := range fields {
		switch k {
		case "title":
			entry.Title = v
		case "category":
			entry.Category = model.Category(v)
		case "url":
			entry.URL = v
		case "updated_at":
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				return model.LiveCacheEntry{}, fmt.Errorf("redisx: parse updated_at: %w", err)
			}
			entry.UpdatedAt = t
		case "volume_24h":
			entry.Volume24h, _ = strconv.ParseFloat(v, 64)
		case "volume_usd":
			entry.VolumeUSD, _ = strconv.ParseFloat(v, 64)
		case "liquidity_usd":
			entry.LiquidityUSD, _ = strconv.ParseFloat(v, 64)
		default:
			m := outcomeFieldPattern.FindStringSubmatch(k)
			if m == nil {
				continue // __outcome_set or an unrecognised field
			}
			idx, _ := strconv.Atoi(m[1])
			o := outcomes[idx]
			switch m[2] {
			case "name":
				o.Name = v
			case "price":
				o.Price, _ = strconv.ParseFloat(v, 64)
			case "implied":
				o.ImpliedProb, _ = strconv.ParseFloat(v, 64)
			case "type":
				o.Type = model.PriceFormat(v)
			case "bid":
				f, _ := strconv.ParseFloat(v, 64)
				o.Bid = &f
			case "ask":
				f, _ := strconv.ParseFloat(v, 64)
				o.Ask = &f
			}
			outcomes[idx] = o
		}
	}
	entry.Outcomes = outcomes
	return entry, nil
}
