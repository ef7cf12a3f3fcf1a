package model

import "time"

// Outcome describes one named outcome of a market, as reported in a
// RawQuote's outcomes_json list.
type Outcome struct {
	Name  string `json:"name"`
	Index int    `json:"index"`
}

// RawQuote is a single-outcome price point as extracted by a worker,
// before normalisation. It is ephemeral: the normaliser consumes it in
// the same task that produced it.
type RawQuote struct {
	VenueSlug        string      `json:"venue_slug"`
	ExternalMarketID string      `json:"external_market_id"`
	MarketTitle      string      `json:"market_title"`
	Category         Category    `json:"category"`
	OutcomeIndex     int         `json:"outcome_index"`
	OutcomeName      string      `json:"outcome_name"`
	Price            float64     `json:"price"`
	PriceFormat      PriceFormat `json:"price_format"`

	Bid          *float64 `json:"bid,omitempty"`
	Ask          *float64 `json:"ask,omitempty"`
	Volume24h    *float64 `json:"volume_24h,omitempty"`
	VolumeUSD    *float64 `json:"volume_usd,omitempty"`
	LiquidityUSD *float64 `json:"liquidity_usd,omitempty"`
	MarketURL    string   `json:"market_url,omitempty"`
	Description  string   `json:"description,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`

	OutcomesJSON []Outcome `json:"outcomes_json"`
	CapturedAt   time.Time `json:"captured_at"`
}

// NormalisedQuote is a RawQuote with the normaliser's implied
// probability attached. Price is retained verbatim.
type NormalisedQuote struct {
	RawQuote
	ImpliedProb float64 `json:"implied_prob"`
}

// Key identifies the live-cache entry this quote belongs to.
func (q RawQuote) Key() CacheKey {
	return CacheKey{Venue: q.VenueSlug, MarketID: q.ExternalMarketID}
}

// CacheKey is the (venue, market) identity of a live cache entry.
type CacheKey struct {
	Venue    string
	MarketID string
}
