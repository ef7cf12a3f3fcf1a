package model

import "time"

// OutcomeSnapshot is one outcome's aggregated state within a
// LiveCacheEntry.
type OutcomeSnapshot struct {
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImpliedProb float64 `json:"implied_prob"`
	Bid         *float64 `json:"bid,omitempty"`
	Ask         *float64 `json:"ask,omitempty"`
	Type        PriceFormat `json:"type"`
}

// LiveCacheEntry aggregates every outcome of one venue-market pair, as
// stored under live:{venue}:{market_id}.
type LiveCacheEntry struct {
	Venue    string `json:"venue"`
	MarketID string `json:"market_id"`

	Title        string    `json:"title"`
	Category     Category  `json:"category"`
	URL          string    `json:"url,omitempty"`
	Volume24h    float64   `json:"volume_24h,omitempty"`
	VolumeUSD    float64   `json:"volume_usd,omitempty"`
	LiquidityUSD float64   `json:"liquidity_usd,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`

	Outcomes map[int]OutcomeSnapshot `json:"outcomes"`
}

// OutcomeIndexSet returns the set of outcome indices present in the
// entry, used to detect outcome-set shrinkage between publish batches.
func (e LiveCacheEntry) OutcomeIndexSet() map[int]struct{} {
	set := make(map[int]struct{}, len(e.Outcomes))
	for idx := range e.Outcomes {
		set[idx] = struct{}{}
	}
	return set
}
