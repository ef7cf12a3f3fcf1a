// Package livequery assembles the read-side view over the live cache:
// a cache-wide scan grouped by canonical title across venues, per
// spec.md §4.8.
package livequery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Just-Trades13/OddsAxiome/internal/config"
	"github.com/Just-Trades13/OddsAxiome/internal/matcher"
	"github.com/Just-Trades13/OddsAxiome/internal/model"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/metrics"
	"github.com/Just-Trades13/OddsAxiome/internal/platform/redisx"
)

// MarketView is one venue's live market as surfaced to a read-side
// caller, stripped of the publisher's internal bookkeeping fields.
type MarketView struct {
	Venue     string
	MarketID  string
	Title     string
	URL       string
	UpdatedAt time.Time
	Outcomes  map[int]model.OutcomeSnapshot
}

// Group is every venue's live market clustered under one canonical
// title.
type Group struct {
	CanonicalTitle string
	Category       model.Category
	Markets        []MarketView
}

type cached struct {
	groups  []Group
	expires time.Time
}

// Assembler is the live-query read path: scan, bulk-get, cluster,
// same-venue dedup, venue-coverage sort, short response cache.
type Assembler struct {
	rdb     *redisx.Client
	cfg     config.Thresholds
	metrics *metrics.Registry

	mu    sync.Mutex
	cache map[model.Category]cached
}

// New constructs an Assembler.
func New(rdb *redisx.Client, cfg config.Thresholds, m *metrics.Registry) *Assembler {
	return &Assembler{rdb: rdb, cfg: cfg, metrics: m, cache: make(map[model.Category]cached)}
}

// Query returns every live market grouped by canonical title, optionally
// restricted to one category. An empty category means "all categories".
func (a *Assembler) Query(ctx context.Context, category model.Category) ([]Group, error) {
	a.mu.Lock()
	if c, ok := a.cache[category]; ok && time.Now().Before(c.expires) {
		a.mu.Unlock()
		return c.groups, nil
	}
	a.mu.Unlock()

	groups, err := a.assemble(ctx, category)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.cache[category] = cached{groups: groups, expires: time.Now().Add(a.cfg.LiveQueryCacheTTL)}
	a.mu.Unlock()
	return groups, nil
}

func (a *Assembler) assemble(ctx context.Context, category model.Category) ([]Group, error) {
	entries, err := a.scanAll(ctx)
	if err != nil {
		return nil, err
	}

	// same-venue dedup: if a venue somehow reports the same title twice
	// under different market ids (a worker re-split boundary change),
	// keep only the freshest per (venue, title) pair before clustering.
	freshest := make(map[string]model.LiveCacheEntry, len(entries))
	for _, e := range entries {
		if category != model.CategoryUnknown && e.Category != category {
			continue
		}
		key := e.Venue + "\x1f" + e.Title
		if existing, ok := freshest[key]; !ok || e.UpdatedAt.After(existing.UpdatedAt) {
			freshest[key] = e
		}
	}

	inputs := make([]matcher.Input, 0, len(freshest))
	for _, e := range freshest {
		inputs = append(inputs, matcher.Input{Title: e.Title, Venue: e.Venue, Category: e.Category})
	}
	result := matcher.Cluster(inputs)

	byCanonical := make(map[string]*Group)
	for _, e := range freshest {
		canonical := result.CanonicalOf[e.Title]
		if canonical == "" {
			canonical = e.Title
		}
		g, ok := byCanonical[canonical]
		if !ok {
			g = &Group{CanonicalTitle: canonical, Category: e.Category}
			byCanonical[canonical] = g
		}
		g.Markets = append(g.Markets, MarketView{
			Venue: e.Venue, MarketID: e.MarketID, Title: e.Title,
			URL: e.URL, UpdatedAt: e.UpdatedAt, Outcomes: e.Outcomes,
		})
	}

	groups := make([]Group, 0, len(byCanonical))
	for _, g := range byCanonical {
		groups = append(groups, *g)
	}
	sortByVenueCoverage(groups)
	return groups, nil
}

// sortByVenueCoverage orders groups by distinct-venue count descending,
// per spec.md §4.8.
func sortByVenueCoverage(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		return distinctVenues(groups[i]) > distinctVenues(groups[j])
	})
}

func distinctVenues(g Group) int {
	set := make(map[string]struct{}, len(g.Markets))
	for _, m := range g.Markets {
		set[m.Venue] = struct{}{}
	}
	return len(set)
}

func (a *Assembler) scanAll(ctx context.Context) ([]model.LiveCacheEntry, error) {
	var cursor uint64
	var out []model.LiveCacheEntry

	for {
		keys, next, err := a.rdb.Scan(ctx, cursor, "live:*", 200).Result()
		if err != nil {
			return nil, fmt.Errorf("livequery: scan: %w", err)
		}

		if len(keys) > 0 {
			pipe := a.rdb.Pipeline()
			cmds := make(map[string]*redis.StringStringMapCmd, len(keys))
			for _, key := range keys {
				cmds[key] = pipe.HGetAll(ctx, key)
			}
			if _, err := pipe.Exec(ctx); err != nil {
				return nil, fmt.Errorf("livequery: bulk get: %w", err)
			}
			for key, cmd := range cmds {
				fields, err := cmd.Result()
				if err != nil {
					continue
				}
				venue, marketID, ok := splitLiveKey(key)
				if !ok {
					continue
				}
				entry, err := redisx.ParseLiveEntry(venue, marketID, fields)
				if err != nil {
					continue
				}
				out = append(out, entry)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}
	return out, nil
}

func splitLiveKey(key string) (venue, marketID string, ok bool) {
	const prefix = "live:"
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return "", "", false
	}
	rest := key[len(prefix):]
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' {
			return rest[:i], rest[i+1:], true
		}
	}
	return "", "", false
}
